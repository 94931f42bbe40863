package main

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/kosmojs/dev/internal/orchestrator"
	"github.com/kosmojs/dev/internal/progress"
	"github.com/kosmojs/dev/internal/worker"
)

func buildCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Resolve all routes and run the generators once",
		Long: `Resolve every route and run the generator pipeline once.

Failures of single routes or generators are reported and the build
continues; the command exits non-zero if any of them failed.

Examples:
  kosmo build
  kosmo build -C ./app`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}

			pipeline, err := worker.DefaultLoader().Load(cfg.Generators, cfg.Formatters)
			if err != nil {
				return err
			}

			orch := orchestrator.ForProject(cfg, orchestrator.ProjectOptions{
				Generators: pipeline.Generators,
				Formatters: pipeline.Formatters,
				Reporter:   progress.NewTerminal(),
			})

			start := time.Now()
			if err := orch.Build(cmd.Context()); err != nil {
				return err
			}

			pterm.Success.Printfln("Built %d routes in %s", orch.Routes(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
