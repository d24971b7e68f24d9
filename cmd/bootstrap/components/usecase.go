package components

import (
	"bloodconnect/internal/infra/cache"
	"bloodconnect/internal/pkg/clock"
	"bloodconnect/internal/pkg/config"
	"bloodconnect/internal/usecase"
	"bloodconnect/internal/usecase/commands"
	"bloodconnect/internal/usecase/queries"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewRequestCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		NewRequestQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)

// NewRequestQueries layers the Redis search cache over the read side when a
// client is configured.
func NewRequestQueries(store queries.RequestReadStore, clk clock.Clock, rdb *redis.Client, cfg config.Config) queries.RequestQueries {
	qs := queries.NewRequestQueries(store, clk)
	if rdb != nil {
		qs = cache.NewSearchCache(qs, rdb, cfg.Redis.SearchTTL)
	}
	return qs
}
