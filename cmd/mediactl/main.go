// Command mediactl runs maintenance tasks: schema migrations, media import and token cleanup.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/audio-dementia/internal/config"
	"github.com/and161185/audio-dementia/internal/logger"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	dsn        string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "mediactl",
		Short:         "Maintenance tool for the audio-dementia library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath, func(c *config.Config) {
				if a.dsn != "" {
					c.Database.DSN = a.dsn
				}
			})
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Logging)
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to TOML config file")
	root.PersistentFlags().StringVar(&a.dsn, "dsn", "", "PostgreSQL DSN (overrides config)")

	root.AddCommand(newMigrateCmd(a), newImportCmd(a), newTokensCmd(a))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
