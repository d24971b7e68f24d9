package bootstrap

import (
	"log/slog"

	"bloodconnect/internal/handler/middleware"
	"bloodconnect/internal/pkg/config"

	"go.uber.org/fx"
)

var LoggerModule = fx.Module("logger",
	fx.Provide(
		NewLogger,
	),
)

// NewLogger builds the process-wide slog logger, honoring LOG_LEVEL and
// LOG_TIME_FORMAT. It also becomes the slog default so packages that log
// through the global functions pick up the same handler.
func NewLogger(cfg config.Config) *slog.Logger {
	return middleware.NewLogger(cfg.Log).GetSlogLogger()
}
