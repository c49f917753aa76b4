package server

import (
	"fmt"
	"net/http"
	"time"

	"storefront-api/internal/config"
	custommiddleware "storefront-api/internal/middleware"
	"storefront-api/internal/realtime"
	"storefront-api/internal/repository"
	"storefront-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	redis  *redis.Client
}

// NewServer assembles the router over explicitly injected repositories;
// handlers never reach for shared package state.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	products repository.ProductRepository,
	carts repository.CartRepository,
	hub *realtime.Hub,
	redisClient *redis.Client,
) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env != "production"))

	if cfg.RateLimit.Enabled && redisClient != nil {
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
			KeyPrefix:         "rate_limit",
		}, logger))
	}

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize handlers
	productHandler := transport.NewProductHandler(products, notifier(hub), logger)
	cartHandler := transport.NewCartHandler(carts, logger)

	// Register routes
	productHandler.RegisterRoutes(router)
	cartHandler.RegisterRoutes(router)

	if hub != nil {
		router.Get("/ws", hub.ServeWS)
	}

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		redis:  redisClient,
	}

	return server
}

// notifier keeps a nil hub from turning into a non-nil interface.
func notifier(hub *realtime.Hub) transport.ProductNotifier {
	if hub == nil {
		return nil
	}
	return hub
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
