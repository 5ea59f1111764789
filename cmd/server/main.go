package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vedran77/dmcore/internal/config"
	"github.com/vedran77/dmcore/internal/observability"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dmcore",
		Short:         "Direct-messaging core server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSweepCmd(),
		newTokenCmd(),
		newContactCmd(),
		newNoticeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	observability.Configure(os.Stdout, cfg.LogLevel)
	return cfg, nil
}
