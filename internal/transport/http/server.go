package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memehub/internal/cache"
	"memehub/internal/config"
	"memehub/internal/database"
	"memehub/internal/handler"
	"memehub/internal/queue"
	redisclient "memehub/internal/redis"
	"memehub/internal/repository"
	"memehub/internal/service"
	"memehub/internal/worker"
)

// Run wires the whole application together and serves until SIGINT or
// SIGTERM, then drains in-flight requests and workers.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	redisClient, err := redisclient.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	ctx := context.Background()

	mediaService, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to init media service: %w", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	memeRepo := repository.NewMemeRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Redis-backed infrastructure
	feedCache := cache.NewRedisFeedCache(redisClient)
	publisher := queue.NewRedisPublisher(redisClient)
	consumer := queue.NewConsumer(redisClient)

	// Services
	authService := service.NewAuthService(cfg)
	userService := service.NewUserService(userRepo, followRepo, mediaService)
	followService := service.NewFollowService(db, followRepo, userRepo, publisher)
	memeService := service.NewMemeService(db, memeRepo, userRepo, commentRepo, followRepo, mediaService, publisher)
	commentService := service.NewCommentService(db, commentRepo, memeRepo, userRepo)
	feedService := service.NewFeedService(memeRepo, followRepo, userRepo, commentRepo, feedCache)

	// Background feed workers
	workerManager := worker.NewManager(consumer, worker.NewHandler(followRepo, memeRepo, feedCache), cfg.WorkerCount)
	if err := workerManager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	defer workerManager.Stop()

	router := NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(userService, authService),
		UserHandler:    handler.NewUserHandler(userService),
		FollowHandler:  handler.NewFollowHandler(followService),
		MemeHandler:    handler.NewMemeHandler(memeService),
		CommentHandler: handler.NewCommentHandler(commentService),
		FeedHandler:    handler.NewFeedHandler(feedService),
		JWTSecret:      cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
