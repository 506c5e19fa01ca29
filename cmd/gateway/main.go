package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/flowgen-ai/gateway/internal/gateway/cache"
	"github.com/flowgen-ai/gateway/internal/gateway/dispatch"
	"github.com/flowgen-ai/gateway/internal/gateway/enrich"
	"github.com/flowgen-ai/gateway/internal/gateway/handlers"
	"github.com/flowgen-ai/gateway/internal/gateway/pricing"
	"github.com/flowgen-ai/gateway/internal/gateway/providers"
	"github.com/flowgen-ai/gateway/internal/gateway/ratelimit"
	"github.com/flowgen-ai/gateway/internal/shared/config"
	"github.com/flowgen-ai/gateway/internal/shared/database"
	"github.com/flowgen-ai/gateway/internal/shared/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting generation gateway on port %s (env: %s)", cfg.Port, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cache and rate limiter: Redis-backed when configured, otherwise
	// per-instance in-memory state.
	var quoteStore cache.Store = cache.NewMemory()
	var limiter ratelimit.Limiter = ratelimit.NewMemory(cfg.PriceRateLimit, time.Minute)

	if cfg.RedisURL != "" {
		redisClient, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		quoteStore = cache.NewRedis(redisClient)
		limiter = ratelimit.NewRedis(redisClient, cfg.PriceRateLimit, time.Minute)
		log.Println("✓ Connected to Redis (shared cache and rate limits)")
	} else {
		log.Println("✓ Using in-memory cache and rate limits (per-instance only)")
	}

	// History sink is optional; without it completed generations are not
	// persisted anywhere.
	var history dispatch.HistorySink
	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		history = db
		log.Println("✓ Connected to PostgreSQL (generation history)")
	}

	// Providers with configured credentials
	providerMgr := providers.NewManager(cfg)
	log.Printf("✓ Initialized providers: %v", providerMgr.Configured())

	// Collection-influence matcher
	var matcher enrich.Matcher = enrich.Noop{}
	if cfg.InfluenceServiceURL != "" {
		matcher = enrich.NewHTTPMatcher(cfg.InfluenceServiceURL)
		log.Println("✓ Collection influence enabled")
	}

	// The iNFT package contract client is wired by deployments that have
	// one; without it the package route answers 503.
	dispatcher := dispatch.New(providerMgr, matcher, nil, history)

	// Pricing
	priceService := pricing.New(
		pricing.NewOpenOcean(cfg.OpenOceanAPIKey),
		quoteStore,
		time.Duration(cfg.QuoteTTLSeconds)*time.Second,
	)

	// Handlers
	generateHandler := handlers.NewGenerateHandler(dispatcher, providerMgr)
	priceHandler := handlers.NewPriceHandler(priceService, cfg.StrictPriceParams)
	middleware := handlers.NewMiddleware(limiter)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(120 * time.Second))
	r.Use(middleware.CORSMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Post("/generate", generateHandler.HandleGenerate)
	r.Get("/generate", generateHandler.HandleRoutes)

	r.Route("/api/price", func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware)
		r.Get("/swap-amount", priceHandler.HandleSwapAmount)
	})

	// HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("🚀 Server listening on http://localhost:%s", cfg.Port)
		log.Println("   POST /generate              - Dispatch a generation request")
		log.Println("   GET  /generate              - Model routing table")
		log.Println("   GET  /api/price/swap-amount - Token price quote")
		log.Println("   GET  /health                - Health check")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
