package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"status-backend/internal/services/health"
	"status-backend/internal/shared/config"
	"status-backend/internal/shared/server"
	"status-backend/internal/shared/storage/db"
	"status-backend/internal/shared/telemetry"
	"status-backend/internal/users"
)

// Database provides the shared connection pool and closes it on stop.
var Database = fx.Module("db",
	fx.Provide(newDB),
)

// Module provides the logger, repository, status service, router and HTTP
// server. It expects a config.Config and a *sql.DB in the graph.
var Module = fx.Module("status",
	fx.Provide(
		newLogger,
		fx.Annotate(users.NewPGRepo, fx.As(new(users.Repo))),
		health.NewService,
		health.NewHandler,
		newRouter,
		newHTTPServer,
	),
	fx.Invoke(func(*http.Server) {}),
)

// New builds the application for cfg. Extra options are applied last so
// tests can replace or populate parts of the graph.
func New(cfg config.Config, opts ...fx.Option) *fx.App {
	base := []fx.Option{
		fx.Supply(cfg),
		Database,
		Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	}
	if cfg.ShutdownTimeout > 0 {
		base = append(base, fx.StopTimeout(cfg.ShutdownTimeout))
	}
	return fx.New(append(base, opts...)...)
}

func newLogger(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
	logger, err := telemetry.NewLogger(cfg.Env)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() {
		_ = logger.Sync()
	}))
	return logger, nil
}

func newDB(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*sql.DB, error) {
	sqlDB, err := db.Open(context.Background(), cfg.DB, db.DefaultServerOptions(), logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("db.close")
			return sqlDB.Close()
		},
	})
	return sqlDB, nil
}

func newRouter(cfg config.Config, logger *zap.Logger, handler *health.Handler) *gin.Engine {
	return server.NewRouter(server.RouterDeps{
		Config:        cfg,
		Logger:        logger,
		HealthHandler: handler,
	})
}

// newHTTPServer binds the listener on start. Once started, srv.Addr holds the
// bound address, which differs from the configured one when port 0 is used.
func newHTTPServer(lc fx.Lifecycle, cfg config.Config, router *gin.Engine, logger *zap.Logger) *http.Server {
	srv := server.NewHTTPServer(cfg, router)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			srv.Addr = ln.Addr().String()
			logger.Info("Server is listening", zap.String("addr", srv.Addr), zap.Int("port", cfg.Port))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http.serve", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := srv.Shutdown(ctx)
			if errors.Is(err, context.DeadlineExceeded) {
				err = multierr.Append(err, srv.Close())
			}
			return err
		},
	})
	return srv
}
