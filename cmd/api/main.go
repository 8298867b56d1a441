package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gig-escrow/config"
	httpHandler "gig-escrow/internal/adapter/http/handler"
	memStorage "gig-escrow/internal/adapter/storage/memory"
	pgStorage "gig-escrow/internal/adapter/storage/postgres"
	redisStorage "gig-escrow/internal/adapter/storage/redis"
	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"
	"gig-escrow/internal/service"
	"gig-escrow/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Str("store", cfg.Ledger.Store).
		Int("port", cfg.Server.Port).
		Msg("Starting Gig Escrow service")

	ctx := context.Background()

	roles, err := parseRoles(cfg.Ledger)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid ledger identities")
	}
	initialSupply, err := domain.ParseAmount(cfg.Ledger.InitialSupply)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid ledger.initial_supply")
	}

	var (
		store          ports.Store
		healthCheckers []ports.HealthChecker
		auditSvc       ports.AuditService
		webhookRepo    ports.WebhookRepository
		claims         ports.ClaimStore
		idemCache      ports.IdempotencyCache
		rateLimiter    ports.RateLimiter
	)

	switch cfg.Ledger.Store {
	case "memory":
		store = memStorage.NewStore()
		auditSvc = service.NewAuditService(nil, logger.Component(log, "audit"))
		log.Warn().Msg("Using in-memory store; state is lost on restart")
	default:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		log.Info().Msg("PostgreSQL connected")

		if err := pgStorage.Migrate(ctx, pool, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}

		store = pgStorage.NewStore(pool)
		auditSvc = service.NewAuditService(pgStorage.NewAuditRepository(pool), logger.Component(log, "audit"))
		webhookRepo = pgStorage.NewWebhookRepository(pool)

		// Postgres-backed idempotency unless Redis replaces it below
		idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
		claims, idemCache = idempotencyRepo, idempotencyRepo
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))
	}

	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		claims = redisStorage.NewClaimStore(rdb)
		idemCache = redisStorage.NewIdempotencyCache(rdb)
		rateLimiter = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	} else {
		log.Warn().Msg("Redis disabled; rate limiting is off")
	}

	// Initialize core services
	signer := service.NewHMACDeliverySigner(service.DefaultSignatureTolerance)
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	publisher := service.NewWebhookService(
		cfg.Webhook.URL,
		cfg.Webhook.Secret,
		webhookRepo,
		signer,
		&http.Client{Timeout: cfg.Webhook.Timeout},
		logger.Component(log, "webhook"),
	)

	// Initialize business services
	core := service.NewCore(store, roles, publisher, logger.Component(log, "core"))
	ledgerSvc := service.NewLedgerService(core, logger.Component(log, "ledger"))
	reputationSvc := service.NewReputationService(core, logger.Component(log, "reputation"))
	gigSvc := service.NewGigService(core, logger.Component(log, "gigs"))
	escrowSvc := service.NewEscrowService(core, logger.Component(log, "escrow"))
	feeSvc := service.NewFeePolicy(core, logger.Component(log, "fees"))
	reportingSvc := service.NewReportingService(store)

	if err := core.Bootstrap(ctx, cfg.Ledger.FeeBps, initialSupply); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap ledger")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		LedgerSvc:      ledgerSvc,
		ReputationSvc:  reputationSvc,
		GigSvc:         gigSvc,
		EscrowSvc:      escrowSvc,
		FeeSvc:         feeSvc,
		ReportingSvc:   reportingSvc,
		TokenSvc:       tokenSvc,
		RateLimiter:    rateLimiter,
		Claims:         claims,
		IdemCache:      idemCache,
		IdempotencyTTL: cfg.Idempotency.TTL,
		AuditSvc:       auditSvc,
		HealthCheckers: healthCheckers,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// parseRoles reads the privileged identities. Only the minter may be empty.
func parseRoles(cfg config.LedgerConfig) (domain.Roles, error) {
	var roles domain.Roles
	var err error
	if roles.Admin, err = domain.ParseAddress(cfg.Admin); err != nil {
		return roles, fmt.Errorf("ledger.admin: %w", err)
	}
	if roles.Escrow, err = domain.ParseAddress(cfg.Escrow); err != nil {
		return roles, fmt.Errorf("ledger.escrow: %w", err)
	}
	if cfg.Minter != "" {
		if roles.Minter, err = domain.ParseAddress(cfg.Minter); err != nil {
			return roles, fmt.Errorf("ledger.minter: %w", err)
		}
	}
	if roles.Treasury, err = domain.ParseAddress(cfg.Treasury); err != nil {
		return roles, fmt.Errorf("ledger.treasury: %w", err)
	}
	if err := roles.Validate(); err != nil {
		return roles, fmt.Errorf("ledger roles: %w", err)
	}
	return roles, nil
}
