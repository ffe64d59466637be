package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"send-money-api/internal/cache"
	"send-money-api/internal/config"
	"send-money-api/internal/events"
	"send-money-api/internal/features"
	"send-money-api/internal/handler"
	"send-money-api/internal/history"
	"send-money-api/internal/middleware"
	"send-money-api/internal/service"
	"send-money-api/internal/session"
	"send-money-api/internal/tracing"
)

func main() {
	configFile := flag.String("config", "", "Path to JSON config file")
	port := flag.String("port", "", "Server port (overrides config)")
	dbPath := flag.String("db", "", "Transfer history database path (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Tracing
	if _, err := tracing.InitTracing(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: "send-money-api",
		Environment: cfg.Tracing.Environment,
	}); err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	// Transfer history store
	store, err := history.NewStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open transfer history: %v", err)
	}
	defer store.Close()

	// History cache: Redis when configured, otherwise in-memory
	var historyCache cache.Cache
	if cfg.Cache.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		historyCache = redisCache
		log.Printf("History cache: redis at %s", cfg.Cache.RedisAddr)
	} else {
		historyCache = cache.NewInMemoryCache()
		log.Printf("History cache: in-memory")
	}

	// Feature flags
	flags := features.NewManager()
	flags.Register(features.FeatureCacheEnabled, cfg.Cache.Enabled, "Serve limit checks from the history cache")
	flags.Register(features.FeatureEventHooksEnabled, true, "Publish transfer and session events")
	flags.Register(features.FeatureBeneficiarySuggestions, true, "Expose beneficiary history lookups")

	// Events
	ev := events.NewManager(flags.IsEnabled(features.FeatureEventHooksEnabled))
	defer ev.Shutdown()
	ev.Subscribe(events.EventTransferExecuted, func(ctx context.Context, e events.Event) error {
		if data, ok := e.Data.(events.TransferExecutedData); ok {
			log.Printf("transfer executed: %s $%.2f to %s (%s)",
				data.Record.ConfirmationCode, data.Record.Amount,
				data.Record.Beneficiary.FullName(), data.Record.Country)
		}
		return nil
	})
	ev.Subscribe(events.EventTransferRejected, func(ctx context.Context, e events.Event) error {
		if data, ok := e.Data.(events.TransferRejectedData); ok {
			log.Printf("transfer rejected for %s: %s", data.PhoneNumber, data.Reason)
		}
		return nil
	})

	sessions := session.NewManager()
	svc := service.NewService(store, sessions, historyCache, ev, flags)
	h := handler.NewHandler(svc)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Rate, time.Duration(cfg.RateLimit.Window)*time.Second)
	defer rateLimiter.Stop()

	r := chi.NewRouter()

	// Middleware (order matters)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if cfg.Tracing.Enabled {
		r.Use(middleware.TracingMiddleware())
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Tool boundary. The rate limiter sits inside the route so it can key on
	// the session's phone number.
	r.Route("/sessions/{phone_number}", func(r chi.Router) {
		if cfg.RateLimit.Enabled {
			r.Use(middleware.RateLimitMiddleware(rateLimiter))
		}
		r.Post("/country", h.SetCountry)
		r.Post("/amount", h.SetAmount)
		r.Post("/beneficiary", h.SetBeneficiary)
		r.Post("/payment-method", h.SetPaymentMethod)
		r.Post("/delivery-method", h.SetDeliveryMethod)
		r.Post("/transfer", h.TransferMoney)
		r.Get("/limits", h.GetLimits)
		r.Get("/beneficiary-history", h.GetBeneficiaryHistory)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("Transfer history: %s", cfg.Database.Path)
	log.Printf("Rate limit: %d requests per %d seconds", cfg.RateLimit.Rate, cfg.RateLimit.Window)

	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down tracing: %v", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
}
