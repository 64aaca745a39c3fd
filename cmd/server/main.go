package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sessionpass/backend/docs"
	"github.com/sessionpass/backend/internal/audit"
	"github.com/sessionpass/backend/internal/config"
	"github.com/sessionpass/backend/internal/database"
	"github.com/sessionpass/backend/internal/handlers"
	"github.com/sessionpass/backend/internal/jobs"
	mW "github.com/sessionpass/backend/internal/middleware"
	"github.com/sessionpass/backend/internal/scheduler"
	"github.com/sessionpass/backend/internal/services"
	"github.com/sessionpass/backend/internal/store"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title SessionPass Wallet API
// @version 1.0
// @description Member wallet ledger for the SessionPass storefront
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	configErr := config.Load()

	logger, err := config.NewLogger(viper.GetString("log.level"), viper.GetString("log.format"))
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if configErr != nil {
		logger.Info("no .env file, using environment", zap.Error(configErr))
	}
	if viper.GetString("jwt.secret_key") == "" {
		logger.Fatal("JWT_SECRET_KEY is required")
	}

	ledgerCfg := config.LoadLedgerConfig()

	docs.SwaggerInfo.Host = "localhost:" + viper.GetString("server.port")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()

	db, err := database.Open(startupCtx, database.GetConfig(), logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	pgStore := store.NewPostgresStore(db)
	if viper.GetBool("database.auto_migrate") {
		if err := pgStore.Migrate(startupCtx); err != nil {
			logger.Fatal("schema migration failed", zap.Error(err))
		}
		logger.Info("schema migrated")
	}

	redisClient := database.InitRedis(startupCtx, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Leave these as untyped nils without redis; the services skip them.
	var cache services.BalanceCache
	var events services.EventPublisher
	if redisClient != nil {
		cache = services.NewRedisBalanceCache(redisClient, ledgerCfg.BalanceCacheTTL, ledgerCfg.AliasCacheTTL)
		events = services.NewRedisEventPublisher(redisClient, ledgerCfg.EventQueue)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := services.NewMetrics(registry)
	auditLogger := audit.NewAuditLogger(logger)

	resolver := services.NewIdentifierResolver(pgStore, cache, ledgerCfg, logger)
	ledgerService := services.NewLedgerService(pgStore, resolver, cache, events, auditLogger, metrics, ledgerCfg, logger)
	balanceReader := services.NewBalanceReader(pgStore, resolver, cache, metrics, ledgerCfg, logger)
	queryService := services.NewTransactionQueryService(pgStore, resolver, ledgerCfg, logger)
	reconciler := services.NewReconciliationService(pgStore, resolver, cache, events, auditLogger, metrics, ledgerCfg, logger)
	accountService := services.NewAccountService(pgStore, ledgerCfg, logger)
	receiptService := services.NewReceiptService(resolver, queryService, redisClient, ledgerCfg.ReceiptImageSize, logger)

	walletHandler := handlers.NewWalletHandler(ledgerService, balanceReader, queryService, receiptService, logger)
	adminHandler := handlers.NewAdminHandler(accountService, ledgerService, balanceReader, queryService, reconciler, receiptService, logger)

	cronScheduler, err := scheduler.NewScheduler(jobs.NewJobRunner(reconciler, ledgerCfg, logger), logger)
	if err != nil {
		logger.Fatal("failed to configure scheduler", zap.Error(err))
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// Setup router
	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)
			r.Route("/wallet", walletHandler.Routes)
		})

		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)
			r.Use(mW.RequireAdmin)
			r.Route("/admin", adminHandler.Routes)
		})

		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)
			r.Use(mW.RequireRole(mW.RolePayments, mW.RoleAdmin))
			r.Route("/payments", adminHandler.PaymentsRoutes)
		})
	})

	server := &http.Server{
		Addr:         ":" + viper.GetString("server.port"),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
