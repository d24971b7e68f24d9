package components

import (
	"bloodconnect/internal/infra/db"
	"bloodconnect/internal/infra/readstore"
	"bloodconnect/internal/infra/uow"
	"bloodconnect/internal/usecase/queries"
	"bloodconnect/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		fx.Annotate(
			uow.NewPostgresUoW,
			fx.As(new(shared.UnitOfWork)),
		),
		fx.Annotate(
			readstore.NewRequestReadStore,
			fx.As(new(queries.RequestReadStore)),
			fx.As(new(shared.DueOpenLister)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
