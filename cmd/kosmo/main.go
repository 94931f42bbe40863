package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kosmojs/dev/internal/config"
	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/logger"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globals holds the persistent flags.
type globals struct {
	dir      string
	verbose  bool
	jsonLogs bool
}

func main() {
	var g globals

	rootCmd := &cobra.Command{
		Use:   "kosmo",
		Short: "Route and client generator for kosmo apps",
		Long: `kosmo turns the folders under src/api and src/pages into routes.

It resolves every route file, writes its types and runs the generator
pipeline: stubs for blank files, the API route table, fetch clients
and any generators listed in kosmo.json.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Initialize(logger.Options{Verbose: g.verbose, JSON: g.jsonLogs})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.dir, "dir", "C", "", "Project directory (default: nearest kosmo.json)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&g.jsonLogs, "json-logs", false, "Log as JSON")

	rootCmd.AddCommand(
		buildCmd(&g),
		devCmd(&g),
		routesCmd(&g),
		workerCmd(),
		versionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()

	if err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads and validates kosmo.json.
func loadConfig(g *globals) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.dir == "" {
		cfg, err = config.LoadFromWorkingDir()
	} else {
		var root string
		if root, err = config.FindProjectRoot(g.dir); err == nil {
			cfg, err = config.Load(root)
		}
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
