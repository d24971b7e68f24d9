package components

import (
	"bloodconnect/internal/handler"
	"bloodconnect/internal/handler/api"
	"bloodconnect/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewRequestHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
