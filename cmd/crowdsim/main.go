package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crowdnav/crowdsim/internal/config"
)

const defaultConfigPath = "config/server.toml"

func main() {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:           "crowdsim",
		Short:         "Frame-stepped crowd navigation simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default $CROWDSIM_CONFIG or "+defaultConfigPath+")")

	load := func() (*config.Config, error) {
		return config.Load(resolveConfigPath(cfgPath))
	}

	rootCmd.AddCommand(runCmd(load))
	rootCmd.AddCommand(migrateCmd(load))
	rootCmd.AddCommand(checkCmd(load))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfigPath picks the flag, then CROWDSIM_CONFIG, then the default.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv("CROWDSIM_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

type configLoader func() (*config.Config, error)

func runCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the simulation loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}
}

func migrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return migrate(cmd.Context(), cfg)
		},
	}
}

func checkCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load config, navmesh, placements and scripts, then print a summary",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return check(cfg)
		},
	}
}
