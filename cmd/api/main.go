package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"storefront-api/internal/config"
	"storefront-api/internal/logger"
	"storefront-api/internal/realtime"
	"storefront-api/internal/repository"
	"storefront-api/internal/server"
	"storefront-api/internal/storage/mongostore"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, mongoClient *mongo.Client, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Error("Error disconnecting mongo client", zap.Error(err))
		}
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	// Load .env into the environment before viper reads it
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting storefront API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Backend),
	)

	// Wire the selected storage backend
	var (
		products    repository.ProductRepository
		carts       repository.CartRepository
		mongoClient *mongo.Client
	)
	switch cfg.Storage.Backend {
	case "mongo":
		mongoClient, err = mongostore.Connect(context.Background(), cfg.Storage.MongoURI)
		if err != nil {
			log.Fatal("Failed to connect to mongo", zap.Error(err))
		}
		db := mongoClient.Database(cfg.Storage.Database)
		if err := mongostore.EnsureIndexes(context.Background(), db); err != nil {
			log.Fatal("Failed to ensure indexes", zap.Error(err))
		}
		products = repository.NewMongoProductRepository(db)
		carts = repository.NewMongoCartRepository(db)
		log.Info("Mongo storage ready", zap.String("database", cfg.Storage.Database))
	default:
		products = repository.NewFileProductRepository(filepath.Join(cfg.Storage.DataDir, "products.json"))
		carts = repository.NewFileCartRepository(filepath.Join(cfg.Storage.DataDir, "carts.json"), products)
		log.Info("File storage ready", zap.String("data_dir", cfg.Storage.DataDir))
	}

	// Realtime fan-out hub
	hub := realtime.NewHub(products, log)
	go hub.Run()

	// Redis is only reached for when rate limiting is on
	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	// Create server
	srv := server.NewServer(cfg, log, products, carts, hub, redisClient)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, mongoClient, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
