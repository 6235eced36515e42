// Package main is the entry point for the flare shell and server.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/flare/pkg/config"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errReported is returned by commands that already printed their failure.
var errReported = errors.New("failure already reported")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "flare: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "flare",
		Short:         "Flare expression language shell",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runREPL,
	}
	root.Version = version + " (commit=" + commit + ", built=" + date + ")"
	root.SetVersionTemplate("flare version {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.String("config", "", "YAML config file (env FLARE_CONFIG)")
	pf.String("state", "", "SQLite file for saved bindings (env FLARE_STATE)")
	pf.Bool("no-color", false, "Disable coloured output")

	root.AddCommand(
		newREPLCmd(),
		newRunCmd(),
		newTokensCmd(),
		newASTCmd(),
		newServeCmd(),
	)
	return root
}

// loadConfig layers the config file, environment and persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("FLARE_CONFIG")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("state"); v != "" {
		cfg.StatePath = v
	}
	if v, _ := cmd.Flags().GetBool("no-color"); v {
		cfg.Color = false
	}
	return cfg, nil
}
