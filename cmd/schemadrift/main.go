package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wayfarerhq/schemadrift"
	"github.com/wayfarerhq/schemadrift/internal/db"
	"github.com/wayfarerhq/schemadrift/internal/migrate"
	"github.com/wayfarerhq/schemadrift/internal/report"
)

// Exit codes: other tooling (CI) depends on these.
const (
	exitPassed    = 0
	exitGateFail  = 1
	exitOperation = 2
)

var (
	configFile    string
	modelsPath    string
	migrationsDir string
	reportPath    string
	envName       string
	verbose       bool
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "schemadrift: %v\n", err)
		os.Exit(exitOperation)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "schemadrift",
		Short: "Detect schema drift and gate migrations",
		Long: "Schemadrift introspects a live PostgreSQL database, compares it against\n" +
			"the application's declarative models, classifies structural divergence,\n" +
			"and applies pending migrations as a gated pipeline step.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./schemadrift.yaml)")
	root.PersistentFlags().StringVar(&modelsPath, "models", "", "model definitions file (overrides config)")
	root.PersistentFlags().StringVar(&migrationsDir, "migrations-dir", "", "migrations directory (overrides config)")
	root.PersistentFlags().StringVar(&reportPath, "report", "", "report artifact path (overrides config)")
	root.PersistentFlags().StringVar(&envName, "env", "", "environment name stamped into the report (overrides config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newCheckCmd())
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newApplyCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newSyncCmd())

	return root
}

// setup resolves the effective configuration and installs the logger. The
// logger writes to stderr; stdout carries the report.
func setup() (*config, *slog.Logger, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}
	if modelsPath != "" {
		cfg.ModelsPath = modelsPath
	}
	if migrationsDir != "" {
		cfg.MigrationsDir = migrationsDir
	}
	if reportPath != "" {
		cfg.ReportPath = reportPath
	}
	if envName != "" {
		cfg.Environment = envName
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return cfg, logger, nil
}

func (c *config) options(logger *slog.Logger) *schemadrift.Options {
	return &schemadrift.Options{
		SchemaName:       c.SchemaName,
		ExcludeTables:    c.ExcludeTables,
		ExcludePrefixes:  c.ExcludePrefixes,
		StatementTimeout: c.StatementTimeout,
		Logger:           logger,
	}
}

func (c *config) reportEnvironment() report.Environment {
	return report.Environment{
		Name:     c.Environment,
		Database: c.Database.Database,
		Host:     c.Database.Host,
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compare the live schema against the models and report drift",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ctx := context.Background()

			live, err := schemadrift.ExtractSnapshot(ctx, cfg.Database, cfg.options(logger))
			if err != nil {
				return err
			}
			model, err := schemadrift.LoadModels(cfg.ModelsPath)
			if err != nil {
				return err
			}

			issues := schemadrift.Detect(live, model, cfg.options(logger))
			rep := report.New(issues, cfg.reportEnvironment())

			if err := rep.WriteArtifact(cfg.ReportPath); err != nil {
				return err
			}
			if err := report.NewRenderer(os.Stdout).Render(rep); err != nil {
				return err
			}

			if !rep.Passed() {
				logger.Error("drift gate failed", "errors", rep.Summary.Errors())
				os.Exit(exitGateFail)
			}
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <name>",
		Short: "Create an empty, timestamp-named up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			scaffold, err := migrate.GenerateScaffold(cfg.MigrationsDir, args[0], nil)
			if err != nil {
				return err
			}
			logger.Info("generated migration scaffold", "version", scaffold.Version)
			fmt.Printf("%s\n%s\n", scaffold.UpPath, scaffold.DownPath)
			return nil
		},
	}
}

func newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply all pending migrations in filename order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ctx := context.Background()

			client, err := db.NewClient(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer client.Close()

			runner := migrate.NewRunner(client.Pool(), cfg.MigrationsDir, logger)
			applied, err := runner.Apply(ctx)
			for _, m := range applied {
				fmt.Printf("applied %s_%s\n", m.Version, m.Name)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Println("no pending migrations")
			}
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ctx := context.Background()

			client, err := db.NewClient(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer client.Close()

			status, err := migrate.NewRunner(client.Pool(), cfg.MigrationsDir, logger).Status(ctx)
			if err != nil {
				return err
			}

			for _, a := range status.Applied {
				fmt.Printf("applied  %s_%s  %s\n", a.Version, a.Name, a.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			for _, p := range status.Pending {
				fmt.Printf("pending  %s_%s\n", p.Version, p.Name)
			}
			if len(status.Applied) == 0 && len(status.Pending) == 0 {
				fmt.Println("no migrations found")
			}
			return nil
		},
	}
}

func newSyncCmd() *cobra.Command {
	var scaffoldName string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Apply pending migrations, then validate the schema against the models",
		Long: "Sync runs the full pipeline: optional scaffold generation, ordered\n" +
			"application of pending migrations, post-apply introspection, drift\n" +
			"comparison, and the validation gate. Exit code 0 means the gate passed;\n" +
			"1 means error-severity drift remains.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ctx := context.Background()

			rep, state, err := schemadrift.Sync(ctx, cfg.Database, cfg.ModelsPath,
				cfg.options(logger),
				&schemadrift.SyncOptions{
					MigrationsDir: cfg.MigrationsDir,
					ScaffoldName:  scaffoldName,
					ArtifactPath:  cfg.ReportPath,
					Out:           os.Stdout,
					Environment:   cfg.reportEnvironment(),
				})
			if err != nil {
				return err
			}

			if state != migrate.StatePassed {
				logger.Error("drift gate failed", "errors", rep.Summary.Errors())
				os.Exit(exitGateFail)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scaffoldName, "scaffold", "", "also create an empty migration scaffold with this name")
	return cmd
}
