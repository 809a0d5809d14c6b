package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"status-backend/internal/shared/config"
)

// NewLogger builds the process logger. Dev-like environments get a console
// encoder at debug level; everything else writes JSON lines to stdout.
func NewLogger(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if config.IsDevLike(env) {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	}
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	return cfg.Build(zap.Fields(zap.String("env", env)))
}
