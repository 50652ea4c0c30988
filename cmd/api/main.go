package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/snapdish/snapdish-backend/config"
	"github.com/snapdish/snapdish-backend/internal/api"
	"github.com/snapdish/snapdish-backend/internal/cache"
	"github.com/snapdish/snapdish-backend/internal/database"
	"github.com/snapdish/snapdish-backend/internal/imaging"
	"github.com/snapdish/snapdish-backend/internal/server"
	"github.com/snapdish/snapdish-backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis is optional: without it rate limiting is skipped and the
	// result caches fall back to badger on disk
	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Warning: Redis unavailable, continuing without it: %v", err)
		redisClient = nil
	}

	visionStore, recipeStore, err := openCacheStores(cfg)
	if err != nil {
		log.Fatalf("Failed to open cache stores: %v", err)
	}

	visionCache := cache.NewResultCache("vision", visionStore, cache.ResultTTL)
	recipeCache := cache.NewResultCache("recipes", recipeStore, cache.ResultTTL)

	connectivity := service.NewHTTPConnectivityChecker(cfg.AIAPIURL)
	retry := service.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		Delay:       cfg.RetryDelay,
		Retryable:   service.DefaultRetryPolicy().Retryable,
	}
	aiClient := service.NewAIClient(cfg.AIAPIURL, cfg.AIAPIKey, cfg.AIModel, retry, connectivity)

	visionService := service.NewVisionService(aiClient, visionCache)
	llmService := service.NewLLMService(aiClient, recipeCache)

	var photoService service.IPhotoService
	if s3Config, err := config.NewS3Config(context.Background(), cfg.S3BucketName); err != nil {
		log.Printf("Warning: S3 unavailable, photo storage disabled: %v", err)
	} else {
		photoService = service.NewPhotoService(s3Config)
	}

	var preloader service.ImagePreloader
	if photoService != nil {
		preloader = photoService
	}
	suggestionService := service.NewSuggestionService(llmService, preloader)

	srv := server.New(cfg, api.Services{
		Processor:   imaging.NewProcessor(),
		Vision:      visionService,
		Suggestions: suggestionService,
		Auth:        service.NewAuthService(db, cfg.JWTSecret),
		RecipeBook:  service.NewRecipeBookService(db),
		MealPlan:    service.NewMealPlanService(db),
		Photos:      photoService,
		Redis:       redisClient,
	})

	errChan := make(chan error, 1)
	go func() {
		log.Println("Starting server...")
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	visionCache.Close()
	recipeCache.Close()
	log.Println("Server stopped")
}

// openCacheStores picks the durable tier for the two result caches:
// Redis when configured, badger directories otherwise
func openCacheStores(cfg *config.Config) (cache.Store, cache.Store, error) {
	if cfg.UseRedisCache {
		client, err := database.NewRedisClient(cfg)
		if err == nil {
			return cache.NewRedisStore(client, "snapdish:vision"),
				cache.NewRedisStore(client, "snapdish:recipes"), nil
		}
		log.Printf("Warning: falling back to badger cache: %v", err)
	}

	visionStore, err := cache.NewBadgerStore(filepath.Join(cfg.CacheDir, "vision"), cache.DiskCapacity)
	if err != nil {
		return nil, nil, err
	}
	recipeStore, err := cache.NewBadgerStore(filepath.Join(cfg.CacheDir, "recipes"), cache.DiskCapacity)
	if err != nil {
		return nil, nil, err
	}
	return visionStore, recipeStore, nil
}
