package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/kosmojs/dev/internal/generator/manifest"
	"github.com/kosmojs/dev/internal/orchestrator"
	"github.com/kosmojs/dev/internal/progress"
)

func routesCmd(g *globals) *cobra.Command {
	var (
		asJSON bool
		pages  bool
	)

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List resolved routes, most specific first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}

			orch := orchestrator.ForProject(cfg, orchestrator.ProjectOptions{
				Reporter: progress.Discard,
			})
			// routes that fail to resolve are left out, the error is still returned
			buildErr := orch.Build(cmd.Context())

			rows := manifest.Build(orch.Snapshot(), pages)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(rows); err != nil {
					return err
				}
				return buildErr
			}

			data := pterm.TableData{{"Kind", "Path", "Methods", "File"}}
			for _, r := range rows {
				data = append(data, []string{r.Kind.String(), r.Path, strings.Join(r.Methods, ","), r.File})
			}
			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return buildErr
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVar(&pages, "pages", true, "Include page routes")

	return cmd
}
