package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/tanakak-cyber/meo-sub000/internal/auth"
	"github.com/tanakak-cyber/meo-sub000/internal/config"
	"github.com/tanakak-cyber/meo-sub000/internal/database"
	"github.com/tanakak-cyber/meo-sub000/internal/gbp"
	"github.com/tanakak-cyber/meo-sub000/internal/handler"
	"github.com/tanakak-cyber/meo-sub000/internal/repository"
	"github.com/tanakak-cyber/meo-sub000/internal/router"
	"github.com/tanakak-cyber/meo-sub000/internal/service"

	middlewarepkg "github.com/tanakak-cyber/meo-sub000/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Pool headroom for the batch workers on top of request handling.
	pool, err := database.Connect(ctx, cfg.DatabaseURL, cfg.SyncWorkers+4)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	usersRepo := repository.NewPGXUsersRepository(pool)
	shopsRepo := repository.NewPGXShopsRepository(pool)
	snapshotsRepo := repository.NewPGXSnapshotsRepository(pool)
	reviewsRepo := repository.NewPGXReviewsRepository(pool)
	photosRepo := repository.NewPGXPhotosRepository(pool)
	postsRepo := repository.NewPGXPostsRepository(pool)
	batchesRepo := repository.NewPGXSyncBatchesRepository(pool)
	ranksRepo := repository.NewPGXRanksRepository(pool)

	tokenProvider := gbp.NewTokenProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleTimeout)
	gbpClient := gbp.NewClient(cfg.GoogleTimeout)

	authService := service.NewAuthService(usersRepo, jwtManager)
	userService := service.NewUserService(usersRepo)
	shopsService := service.NewShopsService(shopsRepo, cfg.PhoneRegion)
	syncService := service.NewSyncService(shopsRepo, snapshotsRepo, reviewsRepo, photosRepo, postsRepo, tokenProvider, gbpClient)
	batchService := service.NewBatchService(shopsRepo, batchesRepo, syncService, cfg.SyncWorkers)
	rankService := service.NewRankService(shopsRepo, ranksRepo)

	handlers := router.Handlers{
		Auth:  handler.NewAuthHandler(authService),
		Users: handler.NewUserAdminHandler(userService),
		Shops: handler.NewShopsHandler(shopsService, snapshotsRepo, reviewsRepo),
		Sync:  handler.NewSyncHandler(syncService),
		Batch: handler.NewBatchHandler(batchService),
		Rank:  handler.NewRankHandler(rankService),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
