package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/clinica/clinica/internal/config"
	"github.com/clinica/clinica/internal/domain/allergy"
	"github.com/clinica/clinica/internal/domain/medication"
	"github.com/clinica/clinica/internal/domain/patient"
	"github.com/clinica/clinica/internal/domain/surgery"
	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/internal/platform/healthcheck"
	"github.com/clinica/clinica/internal/platform/server"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "pacientes-service",
		Short:        "Patient records service",
		SilenceUsage: true,
	}
	cmd.AddCommand(serveCmd())
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(healthcheckCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeFn, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			count, err := migrator.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeFn, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := migrator.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatus(cmd, statuses)
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func openMigrator(cmd *cobra.Command) (*db.Migrator, func(), error) {
	cfg, err := config.Load(config.Pacientes)
	if err != nil {
		return nil, nil, err
	}
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = cfg.MigrationsDir
	}

	pool, err := db.NewPool(cmd.Context(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, os.DirFS(dir)), pool.Close, nil
}

func printStatus(cmd *cobra.Command, statuses []db.MigrationStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func healthcheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check a running instance and exit non-zero when unhealthy",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			withDB, _ := cmd.Flags().GetBool("db")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			if err := healthcheck.New(url, timeout, 2).CheckAll(cmd.Context(), withDB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().String("url", "http://localhost:"+config.Pacientes.Port, "Base URL of the service")
	cmd.Flags().Bool("db", false, "Also check /health/db")
	cmd.Flags().Duration("timeout", 3*time.Second, "Per-request timeout")
	return cmd
}

func runServer() error {
	cfg, err := config.Load(config.Pacientes)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := server.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := server.New(cfg, logger)
	e.GET("/health/db", server.DBHealthHandler(db.PoolChecker{Pool: pool}))

	api := e.Group(server.APIPrefix, db.SessionMiddleware(pool))
	registerRoutes(api, pool)
	logger.Debug().Int("routes", len(e.Routes())).Msg("routes registered")

	return server.Run(ctx, e, cfg.Addr(), cfg.ShutdownTimeout, logger)
}

func registerRoutes(api *echo.Group, pool *pgxpool.Pool) {
	patients := patient.NewRepoPG(pool)
	surgeries := surgery.NewRepoPG(pool)
	medications := medication.NewRepoPG(pool)
	allergies := allergy.NewRepoPG(pool)
	tx := db.NewTransactor(pool)

	patient.NewHandler(patient.NewService(patients, surgeries, medications, allergies, tx)).RegisterRoutes(api)
	surgery.NewHandler(surgery.NewService(surgeries, patients, tx)).RegisterRoutes(api)
	medication.NewHandler(medication.NewService(medications, patients, tx)).RegisterRoutes(api)
	allergy.NewHandler(allergy.NewService(allergies, patients, tx)).RegisterRoutes(api)
}
