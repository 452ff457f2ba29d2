// Package app holds the command line entry points and wires the delivery
// service together.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fjod/go_delivery/internal/config"
	"github.com/fjod/go_delivery/internal/repository"
	"github.com/fjod/go_delivery/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewRootCommand builds the delivery CLI. Each invocation gets its own
// viper instance so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:           "delivery",
		Short:         "Order pricing and lifecycle engine for food delivery",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "json", "log format (json or console)")
	root.PersistentFlags().String("db-host", "localhost", "postgres host")
	root.PersistentFlags().String("migrations", "internal/repository/migrations", "migrations directory")

	bindFlag(v, "log.level", root.PersistentFlags().Lookup("log-level"))
	bindFlag(v, "log.format", root.PersistentFlags().Lookup("log-format"))
	bindFlag(v, "db.host", root.PersistentFlags().Lookup("db-host"))
	bindFlag(v, "db.migrations_path", root.PersistentFlags().Lookup("migrations"))

	load := func() (*config.Config, *zap.Logger, error) {
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return nil, nil, err
		}
		log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return nil, nil, err
		}
		return cfg, log, nil
	}

	root.AddCommand(newServeCommand(v, load), newMigrateCommand(load))
	return root
}

type loader func() (*config.Config, *zap.Logger, error)

func newServeCommand(v *viper.Viper, load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST and gRPC servers and the outbox publisher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return Serve(ctx, cfg, log)
		},
	}
	cmd.Flags().Int("http-port", 8080, "REST listen port")
	cmd.Flags().Int("grpc-port", 50060, "gRPC health listen port")
	bindFlag(v, "http.port", cmd.Flags().Lookup("http-port"))
	bindFlag(v, "grpc.port", cmd.Flags().Lookup("grpc-port"))
	return cmd
}

func newMigrateCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cred := cfg.Credentials()
			repo, err := repository.NewRepository(cred)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.RunMigrations(cred); err != nil {
				return err
			}
			log.Info("migrations applied", zap.String("path", cred.MigrationsDirPath))
			return nil
		},
	}
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
