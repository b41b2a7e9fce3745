package main

import (
	"context"
	"encoding/hex"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/tokenforge/mintbridge/internal/bound"
	"github.com/tokenforge/mintbridge/internal/config"
	"github.com/tokenforge/mintbridge/internal/core"
	"github.com/tokenforge/mintbridge/internal/logging"
	"github.com/tokenforge/mintbridge/internal/registry"
	"github.com/tokenforge/mintbridge/internal/store"
	"github.com/tokenforge/mintbridge/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"import_max_batch", cfg.Import.MaxBatch,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	// Connect to database
	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		dbName := strings.TrimPrefix(u.Path, "/")
		slog.Info("connected to database", "name", dbName)
	} else {
		slog.Info("connected to database")
	}

	// Apply schemas
	for name, ensure := range map[string]func(context.Context, *pgxpool.Pool) error{
		"registry": registry.EnsureSchema,
		"store":    store.EnsureSchema,
		"bound":    bound.EnsureSchema,
	} {
		if err := ensure(ctx, pool); err != nil {
			slog.Error("failed to apply schema", "schema", name, "error", err)
			os.Exit(1)
		}
	}

	engineCfg, err := buildEngineConfig(&cfg.Import)
	if err != nil {
		slog.Error("invalid import configuration", "error", err)
		os.Exit(1)
	}

	regAddr, _ := core.ParseAddress(cfg.Import.RegistryAddress)
	reg := registry.NewPostgres(pool, regAddr)
	st := store.NewPostgres(pool)
	resolver := bound.NewResolver(bound.NewPostgresLedger(pool))

	engine := core.NewEngine(reg, st, resolver, engineCfg)
	limiter := core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime)

	slog.Info("migration engine ready",
		"registry", reg.Identity(),
		"admin", engine.Admin(),
		"nested_imports", !engineCfg.Implementation.IsZero(),
	)

	// Create server with config
	server := web.NewServer(engine, limiter, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active batch imports to complete (with timeout)
		status := limiter.Status()
		if status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// buildEngineConfig converts validated string configuration into engine
// parameters.
func buildEngineConfig(ic *config.ImportConfig) (core.EngineConfig, error) {
	admin, err := core.ParseAddress(ic.AdminAddress)
	if err != nil {
		return core.EngineConfig{}, err
	}

	cfg := core.EngineConfig{
		ChainID:   uint64(ic.ChainID),
		MaxBatch:  ic.MaxBatch,
		ImportFee: uint64(ic.Fee),
		Admin:     admin,
	}

	if ic.Implementation != "" {
		impl, err := core.ParseAddress(ic.Implementation)
		if err != nil {
			return core.EngineConfig{}, err
		}
		cfg.Implementation = impl
	}

	if ic.Salt != "" {
		raw, err := hex.DecodeString(strings.TrimPrefix(ic.Salt, "0x"))
		if err != nil {
			return core.EngineConfig{}, err
		}
		copy(cfg.Salt[:], raw)
	}

	return cfg, nil
}
