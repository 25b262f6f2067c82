package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"line-item-staging/internal/catalog"
	"line-item-staging/internal/config"
	"line-item-staging/internal/domain"
	custommiddleware "line-item-staging/internal/middleware"
	"line-item-staging/internal/notify"
	"line-item-staging/internal/repository"
	"line-item-staging/internal/session"
	"line-item-staging/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	if cfg.RateLimit.Enabled && redisClient != nil {
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
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

	// Initialize repositories
	parentRepo := repository.NewParentRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	lineItemRepo := repository.NewLineItemRepository(db)

	// One catalog source per parent kind
	sources := transport.SourceSet{
		domain.ParentOpportunity:    catalog.NewOpportunitySource(parentRepo, entryRepo, categoryRepo),
		domain.ParentQuote:          catalog.NewQuoteSource(parentRepo, entryRepo, categoryRepo),
		domain.ParentPricebookEntry: catalog.NewPricebookSource(parentRepo, entryRepo, categoryRepo),
	}

	var publisher session.UpdatePublisher
	if redisClient != nil {
		publisher = notify.NewPublisher(redisClient, logger)
	}

	// Initialize handlers
	sessionHandler := transport.NewSessionHandler(
		session.NewStore(),
		sources,
		lineItemRepo,
		publisher,
		session.NewLogNotifier(logger),
		logger,
	)
	sessionHandler.RegisterRoutes(router)

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
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
