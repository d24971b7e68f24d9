package middleware

import (
	"log/slog"

	"bloodconnect/internal/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewCORSMiddleware builds the browser access policy from env-driven config.
func NewCORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	if len(cfg.AllowOrigins) == 0 {
		slog.Warn("CORS allows no origins; browser clients will be rejected")
	}
	slog.Info("CORS policy configured",
		"origins", cfg.AllowOrigins,
		"credentials", cfg.AllowCredentials)
	return cors.New(corsCfg)
}
