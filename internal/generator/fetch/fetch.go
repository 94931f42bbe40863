// Package fetch generates typed fetch clients for API routes.
package fetch

import (
	"context"
	"encoding/json"
	"path"

	"github.com/kosmojs/dev/internal/generator"
	"github.com/kosmojs/dev/internal/paths"
	"github.com/kosmojs/dev/internal/templates"
	"github.com/kosmojs/dev/pkg/route"
)

// Module is the registry name of the fetch generator.
const Module = "fetch"

// Options configures the fetch generator.
type Options struct {
	// BaseURL overrides the configured apiurl in generated clients.
	BaseURL string `json:"baseURL,omitempty"`
}

// New returns the fetch generator constructor.
func New(opts Options) generator.Constructor {
	return generator.Constructor{
		Name: "Fetch",
		Kind: generator.KindFetch,
		Factory: func(_ context.Context, env generator.Env) (generator.Generator, error) {
			base := opts.BaseURL
			if base == "" {
				base = env.Config.APIURL
			}
			return &fetchGenerator{env: env, baseURL: base}, nil
		},
	}
}

// Factory is the ModuleFactory of the fetch generator.
func Factory(config json.RawMessage) (generator.Constructor, error) {
	var opts Options
	if len(config) > 0 {
		if err := json.Unmarshal(config, &opts); err != nil {
			return generator.Constructor{}, err
		}
	}
	return New(opts), nil
}

type fetchGenerator struct {
	env     generator.Env
	baseURL string
}

func (g *fetchGenerator) WatchHandler(ctx context.Context, entries route.Snapshot, event *route.Event) error {
	routes := entries.APIRoutes()

	if event == nil {
		if err := g.clients(ctx, routes); err != nil {
			return err
		}
	} else if event.Kind != route.Deleted {
		var related []*route.APIRoute
		for _, r := range routes {
			if r.FileFullpath == event.File {
				related = append(related, r)
			}
		}
		if err := g.clients(ctx, related); err != nil {
			return err
		}
	}

	return g.index(ctx, routes)
}

func (g *fetchGenerator) clients(ctx context.Context, routes []*route.APIRoute) error {
	tmpl, err := templates.Get("fetch-lib")
	if err != nil {
		return err
	}
	src := g.env.Config.SourceFolder
	for _, r := range routes {
		file := g.env.Paths.Resolve(paths.FetchLib, r.ImportPath, paths.RouteFile)
		_, err := templates.RenderToFile(ctx, file, tmpl.Text, templates.RouteData{
			Route:     r,
			Path:      route.PathPattern(r.PathTokens),
			LibImport: "~/" + path.Join(paths.LibDir, src, paths.APILibDir, r.ImportPath),
			BaseURL:   g.baseURL,
		}, templates.WithOverwrite(templates.Always), templates.WithFormatters(g.env.Formatters...))
		if err != nil {
			return err
		}
	}
	return nil
}

func (g *fetchGenerator) index(ctx context.Context, routes []*route.APIRoute) error {
	tmpl, err := templates.Get("fetch-index")
	if err != nil {
		return err
	}

	sorted := append([]*route.APIRoute(nil), routes...)
	route.SortBySpecificity(sorted, func(r *route.APIRoute) []route.PathToken { return r.PathTokens })

	rows := make([]templates.IndexRoute, 0, len(sorted))
	for _, r := range sorted {
		rows = append(rows, templates.IndexRoute{
			Name:       r.Name,
			ImportName: r.ImportName,
			ImportPath: r.ImportPath,
			Path:       route.PathPattern(r.PathTokens),
			Methods:    r.Methods,
		})
	}

	file := g.env.Paths.Resolve(paths.Lib, g.env.Config.SourceFolder, paths.FetchLibDir+".ts")
	_, err = templates.RenderToFile(ctx, file, tmpl.Text, templates.IndexData{
		Routes:       rows,
		SourceFolder: g.env.Config.SourceFolder,
	}, templates.WithOverwrite(templates.Always), templates.WithFormatters(g.env.Formatters...))
	return err
}
