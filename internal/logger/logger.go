// Package logger builds the zap loggers used across the service.
package logger

import (
	"fmt"
	"os"

	"github.com/contoso/jobsite-api/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger writing to stdout.
// JSON is used in production or when logging.format is "json"; otherwise a colored console.
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	return NewLoggerTo(zapcore.Lock(os.Stdout), cfg, appCfg)
}

// NewLoggerTo is NewLogger with an explicit sink
func NewLoggerTo(sink zapcore.WriteSyncer, cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" || appCfg.Environment == "production" {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, sink, level)
	log := zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	)

	return log.With(
		zap.String("app", appCfg.Name),
		zap.String("environment", appCfg.Environment),
	), nil
}

// WithRequest adds request context to logger
func WithRequest(logger *zap.Logger, method, path, requestID string) *zap.Logger {
	return logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
}

// WithJob scopes logger to a job
func WithJob(logger *zap.Logger, jobID int) *zap.Logger {
	return logger.With(zap.Int("job_id", jobID))
}
