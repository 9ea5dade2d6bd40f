package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ticket-ledger/internal/api"
	"ticket-ledger/internal/archive"
	"ticket-ledger/internal/assets"
	"ticket-ledger/internal/auth"
	"ticket-ledger/internal/config"
	"ticket-ledger/internal/database/migrations"
	"ticket-ledger/internal/kafka"
	"ticket-ledger/internal/ledger"
	"ticket-ledger/internal/logger"
	"ticket-ledger/internal/passes"
	"ticket-ledger/internal/payment"
	paymenthandlers "ticket-ledger/internal/payment/handler"
	"ticket-ledger/internal/quotes"
)

// openDatabase connects the archive store. sqlite gets its schema created
// directly; postgres goes through the migration runner, retrying the initial
// connection for slow container startups.
func openDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger) *bun.DB {
	switch cfg.Database.Driver {
	case "sqlite":
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Database.DSN)
		if err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to open sqlite: %v", err))
		}
		log.Info("DATABASE", fmt.Sprintf("sqlite archive at %s", cfg.Database.DSN))
		return bun.NewDB(sqldb, sqlitedialect.New())

	case "postgres":
		var sqldb *sql.DB
		var err error
		maxRetries := 5

		for i := 0; i < maxRetries; i++ {
			log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
			sqldb, err = sql.Open("postgres", cfg.Database.DSN)
			if err == nil {
				err = sqldb.PingContext(ctx)
			}
			if err == nil {
				break
			}
			log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
		}

		sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

		log.Info("DATABASE", "PostgreSQL connection successful")
		return bun.NewDB(sqldb, pgdialect.New())

	default:
		log.Fatal("CONFIG", fmt.Sprintf("unknown DB_DRIVER %q", cfg.Database.Driver))
		return nil
	}
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Ticket Ledger service")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := openDatabase(ctx, cfg, log)
	defer bunDB.Close()

	store := archive.New(bunDB)
	if cfg.Database.Driver == "postgres" {
		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
		if err := runner.Initialize(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("migration init failed: %v", err))
		}
		if err := runner.Up(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("migration failed: %v", err))
		}
		log.Info("DATABASE", "Migrations applied")
	} else {
		if err := store.CreateTables(ctx); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("schema setup failed: %v", err))
		}
	}

	// Optional collaborators come up before the ledger so they can be
	// handed to it at construction.
	var publisher ledger.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
		log.Info("KAFKA", fmt.Sprintf("Signal producer ready on topic %s", cfg.Kafka.Topic))
	}

	var quoteCache *quotes.Cache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
		}
		defer redisClient.Close()
		quoteCache = quotes.NewCache(redisClient, cfg.Redis.QuoteTTL)
		log.Info("REDIS", fmt.Sprintf("Price quote cache on %s (TTL %s)", cfg.Redis.Addr, cfg.Redis.QuoteTTL))
	}

	var payer ledger.Payer
	var memoryPayer *payment.MemoryPayer
	if cfg.Stripe.Enabled {
		stripePayer, err := payment.NewStripePayer(log)
		if err != nil {
			log.Fatal("STRIPE", fmt.Sprintf("Stripe payer init failed: %v", err))
		}
		payer = stripePayer
	} else {
		memoryPayer = payment.NewMemoryPayer()
		payer = memoryPayer
		log.Warn("PAYMENT", "Stripe disabled, settling payouts in memory")
	}

	bank := assets.NewBank()

	core, err := ledger.New(ledger.Options{
		Admin:          cfg.Ledger.Admin,
		Platform:       cfg.Ledger.Platform,
		PlatformFeeBps: cfg.Ledger.PlatformFeeBps,
		ProofKey:       cfg.Ledger.ProofKey,
		Assets:         bank,
		Payer:          payer,
		Publisher:      publisher,
		Archive:        store,
		Log:            log,
	})
	if err != nil {
		log.Fatal("LEDGER", fmt.Sprintf("ledger init failed: %v", err))
	}

	snap, err := store.LoadAll(ctx)
	if err != nil {
		log.Fatal("ARCHIVE", fmt.Sprintf("failed to load archived state: %v", err))
	}
	if err := core.Restore(ctx, snap); err != nil {
		log.Fatal("LEDGER", fmt.Sprintf("restore failed: %v", err))
	}
	log.Info("LEDGER", fmt.Sprintf("Restored %d events from the archive", len(snap.Events)))

	authMiddleware, err := auth.Middleware(cfg.Auth.OIDCIssuer, cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatal("AUTH", fmt.Sprintf("auth setup failed: %v", err))
	}

	handler := &api.Handler{
		Ledger:  core,
		Passes:  passes.NewGenerator(cfg.Ledger.PassKey),
		Quotes:  quoteCache,
		Archive: store,
		Logger:  log,
	}

	router := handler.Routes(authMiddleware)

	// The in-memory rail gets its bookkeeping surface; Stripe has its own
	// dashboard.
	if memoryPayer != nil {
		payoutEngine := paymenthandlers.NewPayoutHandler(memoryPayer, log).Engine()
		router.Handle("/payments/*", payoutEngine)
		log.Info("ROUTER", "Payout records exposed under /payments")
	}

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Ticket Ledger listening on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Ticket Ledger shutdown complete")
	}
}
