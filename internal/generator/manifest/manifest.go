// Package manifest writes every resolved route to lib/<src>/routes.json,
// for tooling that cannot read TypeScript.
package manifest

import (
	"context"
	"encoding/json"

	"github.com/kosmojs/dev/internal/generator"
	"github.com/kosmojs/dev/internal/paths"
	"github.com/kosmojs/dev/internal/templates"
	"github.com/kosmojs/dev/pkg/route"
)

// Module is the registry name of the manifest generator.
const Module = "manifest"

// DefaultFile is the manifest file name under lib/<src>.
const DefaultFile = "routes.json"

// Options configures the manifest generator.
type Options struct {
	// File overrides DefaultFile.
	File string `json:"file,omitempty"`

	// Pages includes page routes.
	Pages bool `json:"pages,omitempty"`
}

// Route is one manifest row.
type Route struct {
	Name    string            `json:"name"`
	Kind    route.Kind        `json:"kind"`
	Path    string            `json:"path"`
	File    string            `json:"file"`
	Methods []string          `json:"methods,omitempty"`
	Params  []route.ParamSpec `json:"params"`
}

// Factory is the ModuleFactory of the manifest generator.
func Factory(config json.RawMessage) (generator.Constructor, error) {
	var opts Options
	if len(config) > 0 {
		if err := json.Unmarshal(config, &opts); err != nil {
			return generator.Constructor{}, err
		}
	}
	if opts.File == "" {
		opts.File = DefaultFile
	}

	return generator.Constructor{
		Name: "Manifest",
		Factory: func(_ context.Context, env generator.Env) (generator.Generator, error) {
			file := env.Paths.Resolve(paths.Lib, env.Config.SourceFolder, opts.File)
			return generator.HandlerFunc(func(ctx context.Context, entries route.Snapshot, _ *route.Event) error {
				data, err := json.MarshalIndent(Build(entries, opts.Pages), "", "  ")
				if err != nil {
					return err
				}
				_, err = templates.WriteFile(ctx, file, string(data)+"\n", templates.WithOverwrite(templates.Always))
				return err
			}), nil
		},
	}, nil
}

// Build returns the manifest rows of entries, most specific first.
func Build(entries route.Snapshot, pages bool) []Route {
	rows := []Route{}
	for _, e := range entries {
		var row Route
		switch {
		case e.Kind == route.KindAPI && e.API != nil:
			row = Route{Methods: e.API.Methods, Params: e.API.Params.Schema}
		case e.Kind == route.KindPage && e.Page != nil && pages:
			row = Route{Params: e.Page.Params.Schema}
		default:
			continue
		}
		r := e.Route()
		row.Name = r.Name
		row.Kind = e.Kind
		row.Path = route.PathPattern(r.PathTokens)
		row.File = r.Folder + "/" + r.File
		if row.Params == nil {
			row.Params = []route.ParamSpec{}
		}
		rows = append(rows, row)
	}

	route.SortBySpecificity(rows, func(r Route) []route.PathToken {
		return route.ParsePath(r.Name)
	})
	return rows
}
