package bootstrap

import (
	"context"
	"log/slog"

	"bloodconnect/internal/infra/db"
	"bloodconnect/internal/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var DBModule = fx.Module("db",
	fx.Provide(
		NewDB,
	),
)

// NewDB opens the pgx pool and ties its lifetime to the fx app. Connect
// already verifies the connection with a ping before this returns.
func NewDB(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, cleanup, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			cleanup()
			logger.Info("database pool closed")
			return nil
		},
	})

	return pool, nil
}
