package httptransport

import (
	"log/slog"
	"time"

	"github.com/acm-sigapp/club-backend/internal/transport/http/handler"
	"github.com/acm-sigapp/club-backend/internal/transport/http/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

// NewRouter assembles the public API surface consumed by the website.
// corsOrigins is the explicit allow-list of frontend origins.
func NewRouter(logger *slog.Logger, subHandler *handler.SubscriptionHandler, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", subHandler.Root)
	r.POST("/subscribe", subHandler.Subscribe)
	r.GET("/verify", subHandler.Verify)

	return r
}
