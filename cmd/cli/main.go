package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/iho/paymentsengine/internal/adapter/csvio"
	"github.com/iho/paymentsengine/internal/adapter/http/dto"
	"github.com/iho/paymentsengine/internal/adapter/repository"
	"github.com/iho/paymentsengine/internal/domain"
	"github.com/iho/paymentsengine/internal/infrastructure/config"
	"github.com/iho/paymentsengine/internal/infrastructure/idgen"
	"github.com/iho/paymentsengine/internal/infrastructure/logger"
	"github.com/iho/paymentsengine/internal/infrastructure/metrics"
	"github.com/iho/paymentsengine/internal/infrastructure/postgres"
	"github.com/iho/paymentsengine/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "payments",
		Short:        "Payments engine CLI",
		Long:         `Applies deposit, withdrawal and dispute events to a ledger and reports client accounts.`,
		SilenceUsage: true,
	}

	api := &apiOptions{}
	rootCmd.PersistentFlags().StringVar(&api.baseURL, "url", "http://localhost:8080", "Base URL of the payments API")
	rootCmd.PersistentFlags().DurationVar(&api.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(processCmd(), migrateCmd(), ledgerCmd(api), accountsCmd(api))
	return rootCmd
}

type processOptions struct {
	store       string
	walPath     string
	databaseURL string
	autoMigrate bool
	diagnostics bool
	logLevel    string
}

func processCmd() *cobra.Command {
	opts := &processOptions{}

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Apply a CSV of events and print the resulting accounts as CSV",
		Long: `Reads type,client,tx,amount records from <file> (or stdin when <file> is "-"),
applies them in order and writes client,available,held,total,locked to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.fillFromEnv(cmd); err != nil {
				return err
			}

			in, err := openInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer in.Close()

			return runProcess(cmd.Context(), opts, in, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.store, "store", config.StoreMemory, "Ledger store: memory or postgres")
	cmd.Flags().StringVar(&opts.walPath, "wal", "", "Write-ahead log for the memory store (empty keeps it volatile)")
	cmd.Flags().StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL URL for --store postgres")
	cmd.Flags().BoolVar(&opts.autoMigrate, "migrate", false, "Apply schema migrations before processing")
	cmd.Flags().BoolVar(&opts.diagnostics, "diagnostics", false, "Log every skipped or rejected record to stderr")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level for stderr")

	return cmd
}

// fillFromEnv takes unset flags from the environment configuration.
func (o *processOptions) fillFromEnv(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("store") {
		o.store = cfg.StoreDriver
	}
	if !flags.Changed("wal") {
		o.walPath = cfg.WALPath
	}
	if !flags.Changed("database-url") {
		o.databaseURL = cfg.DatabaseURL
	}
	if !flags.Changed("migrate") {
		o.autoMigrate = cfg.DatabaseAutoMigrate
	}
	if !flags.Changed("diagnostics") {
		o.diagnostics = cfg.DiagnosticsEnabled
	}
	return nil
}

func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(stdin), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("open input: %s is not a file", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func runProcess(ctx context.Context, opts *processOptions, in io.Reader, out, errOut io.Writer) error {
	log := logger.New(logger.Config{Level: opts.logLevel, Format: "console", Output: errOut})
	diagnostics := logger.Diagnostics(log, opts.diagnostics)
	m := metrics.New(prometheus.NewRegistry())

	ledger, err := repository.Open(ctx, repository.Config{
		Driver:      opts.store,
		WALPath:     opts.walPath,
		DatabaseURL: opts.databaseURL,
		MaxConns:    4,
		MinConns:    1,
		AutoMigrate: opts.autoMigrate,
	}, m, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close ledger store")
		}
	}()

	reader, err := csvio.NewReader(in, csvio.WithMetrics(m), csvio.WithDiagnostics(diagnostics))
	if err != nil {
		return err
	}

	processor := usecase.NewTransactionProcessor(
		ledger.TxManager,
		ledger.Accounts,
		ledger.Transfers,
		ledger.Disputes,
		ledger.Resolutions,
		ledger.Retrier,
		idgen.NewULIDGenerator(),
		m,
		diagnostics,
	)

	stats, err := processor.Run(ctx, reader)
	if err != nil {
		return err
	}

	log.Info().
		Uint64("read", reader.Read()).
		Uint64("skipped", reader.Skipped()).
		Uint64("accepted", stats.Accepted).
		Uint64("rejected", stats.Rejected).
		Msg("processing finished")

	accounts, err := usecase.NewProjectionUseCase(ledger.Accounts, ledger.Transfers).Snapshot(ctx)
	if err != nil {
		return err
	}
	return csvio.WriteAccounts(out, accounts)
}

func migrateCmd() *cobra.Command {
	var databaseURL string

	resolveURL := func(cmd *cobra.Command) (string, error) {
		if cmd.Flags().Changed("database-url") {
			return databaseURL, nil
		}
		cfg, err := config.Load()
		if err != nil {
			return "", err
		}
		return cfg.DatabaseURL, nil
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL (defaults to DATABASE_URL)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolveURL(cmd)
			if err != nil {
				return err
			}
			return postgres.RunMigrations(url)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolveURL(cmd)
			if err != nil {
				return err
			}
			return postgres.RunMigrationsDown(url)
		},
	})

	return cmd
}

type apiOptions struct {
	baseURL string
	timeout time.Duration
}

func (o *apiOptions) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}

	client := &http.Client{Timeout: o.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func ledgerCmd(api *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check every account against its ledger rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := api.get(cmd.Context(), "/api/v1/ledger/consistency")
			if err != nil {
				return err
			}

			switch status {
			case http.StatusOK, http.StatusConflict:
			default:
				return fmt.Errorf("consistency check failed (status %d): %s", status, truncate(string(body), 200))
			}

			var report dto.ConsistencyResponse
			if err := json.Unmarshal(body, &report); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Consistent {
				return fmt.Errorf("ledger is inconsistent: %d of %d accounts differ", len(report.Discrepancies), report.TotalAccounts)
			}
			return nil
		},
	})

	return cmd
}

func accountsCmd(api *apiOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "Print every client account as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := api.get(cmd.Context(), "/api/v1/accounts")
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("listing accounts failed (status %d): %s", status, truncate(string(body), 200))
			}

			var resp []dto.AccountResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			accounts := make([]*domain.Account, len(resp))
			for i, a := range resp {
				accounts[i] = &domain.Account{
					CustomerID: domain.CustomerID(a.Client),
					Available:  a.Available,
					Held:       a.Held,
					Total:      a.Total,
					Locked:     a.Locked,
				}
			}
			return csvio.WriteAccounts(cmd.OutOrStdout(), accounts)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
