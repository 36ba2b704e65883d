package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tanakak-cyber/meo-sub000/internal/auth"
	"github.com/tanakak-cyber/meo-sub000/internal/config"
	"github.com/tanakak-cyber/meo-sub000/internal/handler"
	middlewarepkg "github.com/tanakak-cyber/meo-sub000/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth  *handler.AuthHandler
	Users *handler.UserAdminHandler
	Shops *handler.ShopsHandler
	Sync  *handler.SyncHandler
	Batch *handler.BatchHandler
	Rank  *handler.RankHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/auth/register", handlers.Auth.Register)
	e.POST("/auth/login", handlers.Auth.Login)

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))

	secured.GET("/shops", handlers.Shops.List)
	secured.GET("/shops/:id", handlers.Shops.Get)
	secured.GET("/shops/:id/snapshots", handlers.Shops.Snapshots)

	admin := secured.Group("/admin", middlewarepkg.RequireRole("admin"))
	admin.POST("/shops/import-csv", handlers.Shops.ImportCSV)
	admin.GET("/users", handlers.Users.List)
	admin.POST("/users", handlers.Users.Create)
	admin.PATCH("/users/:id", handlers.Users.Update)
	admin.DELETE("/users/:id", handlers.Users.Delete)

	mutations := secured.Group("", middlewarepkg.RequireRole("admin"))
	mutations.POST("/shops", handlers.Shops.Create)
	mutations.PATCH("/shops/:id", handlers.Shops.Update)
	mutations.DELETE("/shops/:id", handlers.Shops.Delete)

	syncLimiter := middlewarepkg.SyncRateLimiter(cfg.RateLimitSync)
	secured.POST("/shops/:id/sync", handlers.Sync.Sync, syncLimiter)
	secured.POST("/sync-batches", handlers.Batch.Start, syncLimiter)
	secured.GET("/api/sync-batches/:batchId", handlers.Batch.Status)
	secured.POST("/api/sync-batches/:batchId/cancel", handlers.Batch.Cancel)

	secured.GET("/shops/:id/ranks", handlers.Rank.List)
	secured.POST("/shops/:id/ranks", handlers.Rank.Register)
	secured.DELETE("/shops/:id/ranks/:rankId", handlers.Rank.Delete)
}
