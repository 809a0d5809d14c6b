package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"status-backend/internal/services/health"
	"status-backend/internal/shared/config"
	"status-backend/internal/shared/server/middleware"
	"status-backend/internal/shared/server/respond"
)

// RouterDeps carries what the router needs to register its routes.
type RouterDeps struct {
	Config        config.Config
	Logger        *zap.Logger
	HealthHandler *health.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	// /api/ is a route of its own, not a redirect to /api.
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.HandleMethodNotAllowed = deps.Config.StrictMethods

	r.Use(
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.Recovery(logger),
	)

	if deps.HealthHandler != nil {
		deps.HealthHandler.RegisterRoutes(r, deps.Config.StrictMethods)
	}
	r.NoRoute(respond.NotFound)
	r.NoMethod(respond.MethodNotAllowed(health.AllowedMethods))

	return r
}

// Addr returns the listen address on all interfaces for port.
func Addr(port int) string {
	return fmt.Sprintf("0.0.0.0:%d", port)
}

// NewHTTPServer wraps handler in an http.Server listening on cfg.Port.
func NewHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              Addr(cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
