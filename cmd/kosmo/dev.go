package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/kosmojs/dev/internal/config"
	"github.com/kosmojs/dev/internal/dev"
	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/metrics"
	"github.com/kosmojs/dev/internal/progress"
)

func devCmd(g *globals) *cobra.Command {
	var (
		port      int
		host      string
		isolation string
		withStats bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Watch the source folder and regenerate on change",
		Long: `Start a dev session.

A worker resolves all routes, runs the generators and then watches the
source folder. A status server reports readiness and streams progress.

Examples:
  kosmo dev
  kosmo dev --port=4100
  kosmo dev --isolation=goroutine`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("port") {
				cfg.Dev.Port = port
			}
			if host != "" {
				cfg.Dev.Host = host
			}
			if isolation != "" {
				if isolation != config.IsolationProcess && isolation != config.IsolationGoroutine {
					return errors.New("E101").
						WithDetailf("--isolation must be %q or %q", config.IsolationProcess, config.IsolationGoroutine)
				}
				cfg.Dev.Isolation = isolation
			}
			if withStats {
				cfg.Dev.Metrics = true
			}

			return dev.Run(cmd.Context(), dev.Options{
				Config:   cfg,
				Reporter: progress.NewTerminal(),
				Metrics:  metrics.New(),
				Verbose:  g.verbose,
				OnReady: func(addr string) {
					pterm.Success.Printfln("Ready, status at http://%s", addr)
				},
			})
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Status server port (default from kosmo.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Status server host (default from kosmo.json)")
	cmd.Flags().StringVar(&isolation, "isolation", "", "Worker isolation: process or goroutine")
	cmd.Flags().BoolVar(&withStats, "metrics", false, "Expose /metrics on the status server")

	return cmd
}
