// Command migrate is a CLI for bulk-importing token records from a JSON file
// directly against the database, without going through the HTTP API.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tokenforge/mintbridge/internal/bound"
	"github.com/tokenforge/mintbridge/internal/config"
	"github.com/tokenforge/mintbridge/internal/core"
	"github.com/tokenforge/mintbridge/internal/logging"
	"github.com/tokenforge/mintbridge/internal/registry"
	"github.com/tokenforge/mintbridge/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Token ownership migration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newImportCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", core.FormatUserError(err))
		os.Exit(1)
	}
}

type importOptions struct {
	recordsPath string
	actor       string
	dryRun      bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import token records from a JSON file",
		Long: `Reads a JSON array of import records and imports each one against the
destination registry. With --dry-run, records are validated but nothing is
written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.recordsPath, "records", "", "Path to JSON file containing an array of records (required)")
	cmd.Flags().StringVar(&opts.actor, "actor", "", "Acting address, 0x-prefixed (required)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Validate records without importing")

	_ = cmd.MarkFlagRequired("records")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}

func runImport(ctx context.Context, opts importOptions) error {
	_ = godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	actor, err := core.ParseAddress(opts.actor)
	if err != nil {
		return fmt.Errorf("invalid --actor: %w", err)
	}

	recs, err := readRecords(opts.recordsPath)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("no records in %s", opts.recordsPath)
	}

	engine, pool, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if opts.dryRun {
		return printValidation(engine.ValidateBatch(ctx, recs))
	}

	res, err := engine.ImportBatch(ctx, actor, recs)
	if err != nil {
		return err
	}

	for _, r := range res.Results {
		if r.Success {
			fmt.Printf("  ok    %-40s token %d\n", r.OriginTag, r.TokenID)
		} else {
			fmt.Printf("  FAIL  %-40s %s\n", r.OriginTag, r.Reason)
		}
	}
	fmt.Printf("batch %s: %d succeeded, %d failed in %s\n",
		res.BatchID, res.Succeeded, res.Failed, res.Duration)

	if res.Failed > 0 {
		return fmt.Errorf("%d of %d records failed", res.Failed, len(recs))
	}
	return nil
}

func printValidation(results []core.ImportResult) error {
	invalid := 0
	for _, r := range results {
		if r.Success {
			fmt.Printf("  valid    %s\n", r.OriginTag)
		} else {
			invalid++
			fmt.Printf("  invalid  %-40s %s\n", r.OriginTag, r.Reason)
		}
	}
	fmt.Printf("dry run: %d valid, %d invalid\n", len(results)-invalid, invalid)
	if invalid > 0 {
		return fmt.Errorf("%d records would be rejected", invalid)
	}
	return nil
}

func readRecords(path string) ([]core.ImportRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}
	var recs []core.ImportRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse records file: %w", err)
	}
	return recs, nil
}

// connect builds a fully wired engine against the configured database.
func connect(ctx context.Context, cfg *config.Config) (*core.Engine, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	engineCfg, err := engineConfigFrom(&cfg.Import)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	regAddr, err := core.ParseAddress(cfg.Import.RegistryAddress)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("invalid registry address: %w", err)
	}

	reg := registry.NewPostgres(pool, regAddr)
	st := store.NewPostgres(pool)
	resolver := bound.NewResolver(bound.NewPostgresLedger(pool))

	return core.NewEngine(reg, st, resolver, engineCfg), pool, nil
}

func engineConfigFrom(ic *config.ImportConfig) (core.EngineConfig, error) {
	admin, err := core.ParseAddress(ic.AdminAddress)
	if err != nil {
		return core.EngineConfig{}, fmt.Errorf("invalid admin address: %w", err)
	}

	out := core.EngineConfig{
		ChainID:   uint64(ic.ChainID),
		MaxBatch:  ic.MaxBatch,
		ImportFee: uint64(ic.Fee),
		Admin:     admin,
	}
	if ic.Implementation != "" {
		impl, err := core.ParseAddress(ic.Implementation)
		if err != nil {
			return core.EngineConfig{}, fmt.Errorf("invalid implementation address: %w", err)
		}
		out.Implementation = impl
	}
	if ic.Salt != "" {
		raw, err := hex.DecodeString(strings.TrimPrefix(ic.Salt, "0x"))
		if err != nil {
			return core.EngineConfig{}, fmt.Errorf("invalid salt: %w", err)
		}
		copy(out.Salt[:], raw)
	}
	return out, nil
}
