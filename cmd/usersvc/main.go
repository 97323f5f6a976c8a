package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/mirajehossain/usersvc/internal/checksum"
	"github.com/mirajehossain/usersvc/internal/config"
	"github.com/mirajehossain/usersvc/internal/db"
	"github.com/mirajehossain/usersvc/internal/httpapi"
	"github.com/mirajehossain/usersvc/internal/lock"
	"github.com/mirajehossain/usersvc/internal/logger"
	"github.com/mirajehossain/usersvc/internal/migrate"
	"github.com/mirajehossain/usersvc/internal/user"
)

const (
	exitOK     = 0
	exitDrift  = 2
	exitLocked = 3
	exitFail   = 4
)

var (
	configPath string
	jsonLogs   bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := &cobra.Command{
		Use:           "usersvc",
		Short:         "User service with code-first schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config path")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "JSON logs")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply all pending schema migrations",
		RunE:  runMigrate,
	}
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show applied migrations grouped by module",
			RunE:  runMigrateStatus,
		},
		&cobra.Command{
			Use:   "list",
			Short: "List registered migrations without touching the database",
			RunE:  runMigrateList,
		},
	)

	rootCmd.AddCommand(serveCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		switch {
		case errors.Is(err, migrate.ErrChecksumMismatch):
			return exitDrift
		case errors.Is(err, lock.ErrTimeout):
			return exitLocked
		default:
			return exitFail
		}
	}
	return exitOK
}

func loadConfig() *config.Config {
	cfg, err := config.LoadYAML(configPath)
	if err != nil && configPath != "" {
		fmt.Fprintf(os.Stderr, "config: %v (continuing with defaults)\n", err)
	}
	cfg = config.MergeEnv(cfg)
	if jsonLogs {
		cfg.JSON = true
	}
	return cfg
}

// registered returns every module's migrations in one slice. New
// modules add their Migrations() call here.
func registered() []migrate.Migration {
	return user.Migrations()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := logger.New(cfg.JSON)

	var repo user.Repository
	if cfg.UsePostgres {
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when use_postgres is set")
		}
		database, err := db.OpenPostgres(cfg.DatabaseURL, cfg.MaxOpenConns)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer database.Close()

		runner := migrate.NewRunner(database, cfg.MigrationsTable, log)
		runner.LockTimeout = cfg.LockTimeout()
		summary, err := runner.Run(cmd.Context(), registered())
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations complete", map[string]any{
			"applied": summary.Applied,
			"skipped": summary.Skipped,
		})
		repo = user.NewPostgresRepository(database)
	} else {
		log.Warn("using in-memory repository, data will not survive restarts", nil)
		repo = user.NewMemoryRepository()
	}

	svc := user.NewService(repo, nil, nil)
	handler := httpapi.NewUserHandler(svc, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           httpapi.NewRouter(handler, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("shutdown complete", nil)
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := logger.New(cfg.JSON)

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	runner := migrate.NewRunner(database, cfg.MigrationsTable, log)
	runner.LockTimeout = cfg.LockTimeout()
	summary, err := runner.Run(cmd.Context(), registered())
	if err != nil {
		return err
	}
	log.Info("migrate complete", map[string]any{
		"applied": summary.Applied,
		"skipped": summary.Skipped,
	})
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := logger.New(cfg.JSON)

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	runner := migrate.NewRunner(database, cfg.MigrationsTable, log)
	entries, err := runner.Status(cmd.Context())
	if err != nil {
		return err
	}
	reports := migrate.GroupReport(entries)
	if len(reports) == 0 {
		fmt.Println("no migrations applied")
		return nil
	}
	for _, report := range reports {
		fmt.Printf("%s:\n", report.Module)
		for _, e := range report.Entries {
			fmt.Printf("  version_%-3d %-30s %s  %s  %dms\n",
				e.Version, e.Name, checksum.Short(e.Checksum),
				e.AppliedAt.Format(migrate.AppliedAtFormat), e.ExecutionTimeMS)
		}
	}
	return nil
}

func runMigrateList(cmd *cobra.Command, args []string) error {
	for _, e := range migrate.List(registered()) {
		fmt.Printf("%-24s %-30s %s\n", e.ID, e.Name, checksum.Short(e.Checksum))
	}
	return nil
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return db.OpenPostgres(cfg.DatabaseURL, cfg.MaxOpenConns)
}
