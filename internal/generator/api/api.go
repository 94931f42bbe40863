// Package api generates the API route helpers and the route table the
// server imports.
//
// For every API route it writes lib/<src>/api/<importPath>/index.ts and,
// when the route file is blank, a placeholder handler into the route file
// itself. The table lib/<src>/api.ts lists every route, most specific
// first, plus one row per configured alias:
//
//	{
//	    "module": "api",
//	    "config": {
//	        "alias": { "/feed.xml": "rss" },
//	        "templates": { "admin/**": "..." },
//	        "meta": { "admin/**": { "auth": true } }
//	    }
//	}
package api

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kosmojs/dev/internal/generator"
	"github.com/kosmojs/dev/internal/paths"
	"github.com/kosmojs/dev/internal/templates"
	"github.com/kosmojs/dev/pkg/route"
)

// Module is the registry name of the api generator.
const Module = "api"

// Options configures the api generator.
type Options struct {
	// Alias maps a public URL to the name of the route serving it.
	Alias map[string]string `json:"alias,omitempty"`

	// Templates maps a route name glob to a template for blank route files.
	Templates map[string]string `json:"templates,omitempty"`

	// Meta maps a route name glob to an object exposed in the route table.
	Meta map[string]json.RawMessage `json:"meta,omitempty"`
}

// New returns the api generator constructor.
func New(opts Options) generator.Constructor {
	return generator.Constructor{
		Name: "API",
		Kind: generator.KindAPI,
		Factory: func(_ context.Context, env generator.Env) (generator.Generator, error) {
			return newGenerator(env, opts)
		},
	}
}

// Factory is the ModuleFactory of the api generator.
func Factory(config json.RawMessage) (generator.Constructor, error) {
	var opts Options
	if len(config) > 0 {
		if err := json.Unmarshal(config, &opts); err != nil {
			return generator.Constructor{}, err
		}
	}
	return New(opts), nil
}

type matcher struct {
	pattern string
	value   string
}

type apiGenerator struct {
	env       generator.Env
	aliases   []matcher
	templates []matcher
	meta      []matcher
}

func newGenerator(env generator.Env, opts Options) (*apiGenerator, error) {
	g := &apiGenerator{env: env}

	for _, url := range sortedKeys(opts.Alias) {
		g.aliases = append(g.aliases, matcher{pattern: url, value: opts.Alias[url]})
	}
	for _, pattern := range sortedKeys(opts.Templates) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, doublestar.ErrBadPattern
		}
		g.templates = append(g.templates, matcher{pattern: pattern, value: opts.Templates[pattern]})
	}
	for _, pattern := range sortedKeys(opts.Meta) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, doublestar.ErrBadPattern
		}
		var obj map[string]any
		// only objects are exposed
		if json.Unmarshal(opts.Meta[pattern], &obj) != nil || obj == nil {
			continue
		}
		compact, _ := json.Marshal(obj)
		g.meta = append(g.meta, matcher{pattern: pattern, value: string(compact)})
	}
	return g, nil
}

// WatchHandler implements generator.Generator.
func (g *apiGenerator) WatchHandler(ctx context.Context, entries route.Snapshot, event *route.Event) error {
	routes := entries.APIRoutes()

	if event == nil {
		if err := g.publicFiles(ctx, routes); err != nil {
			return err
		}
		if err := g.libFiles(ctx, routes); err != nil {
			return err
		}
		return g.indexFile(ctx, routes)
	}

	var related []*route.APIRoute
	for _, r := range routes {
		if r.FileFullpath == event.File {
			related = append(related, r)
		}
	}

	switch event.Kind {
	case route.Created:
		if err := g.publicFiles(ctx, related); err != nil {
			return err
		}
		if err := g.libFiles(ctx, related); err != nil {
			return err
		}
	case route.Updated:
		if err := g.libFiles(ctx, related); err != nil {
			return err
		}
	}

	return g.indexFile(ctx, routes)
}

func (g *apiGenerator) routeData(r *route.APIRoute) templates.RouteData {
	return templates.RouteData{
		Route:     r,
		Path:      route.PathPattern(r.PathTokens),
		LibImport: path.Join(g.env.Config.SourceFolder, paths.APILibDir, r.ImportPath),
		BaseURL:   g.env.Config.APIURL,
	}
}

// publicFiles fills blank route files.
func (g *apiGenerator) publicFiles(ctx context.Context, routes []*route.APIRoute) error {
	def, err := templates.Get("api-route")
	if err != nil {
		return err
	}
	for _, r := range routes {
		tpl := def.Text
		if custom, ok := match(g.templates, r.Name); ok {
			tpl = custom
		}
		_, err := templates.RenderToFile(ctx, r.FileFullpath, tpl, g.routeData(r),
			templates.WithFormatters(g.env.Formatters...))
		if err != nil {
			return err
		}
	}
	return nil
}

func (g *apiGenerator) libFiles(ctx context.Context, routes []*route.APIRoute) error {
	tmpl, err := templates.Get("api-lib")
	if err != nil {
		return err
	}
	for _, r := range routes {
		file := g.env.Paths.Resolve(paths.APILib, r.ImportPath, paths.RouteFile)
		_, err := templates.RenderToFile(ctx, file, tmpl.Text, g.routeData(r),
			templates.WithOverwrite(templates.Always),
			templates.WithFormatters(g.env.Formatters...))
		if err != nil {
			return err
		}
	}
	return nil
}

type indexRow struct {
	templates.IndexRoute
	tokens []route.PathToken
}

// rows returns the route table rows, aliases included, most specific
// first.
func (g *apiGenerator) rows(routes []*route.APIRoute) []templates.IndexRoute {
	var table []indexRow
	for _, r := range routes {
		base := templates.IndexRoute{
			Name:       r.Name,
			ImportName: r.ImportName,
			ImportPath: r.ImportPath,
			Path:       route.PathPattern(r.PathTokens),
			Methods:    r.Methods,
		}
		if meta, ok := match(g.meta, r.Name); ok {
			base.Meta = meta
		}
		table = append(table, indexRow{IndexRoute: base, tokens: r.PathTokens})

		for _, a := range g.aliases {
			if a.value != r.Name {
				continue
			}
			tokens := route.ParsePath(strings.Trim(a.pattern, "/"))
			alias := base
			alias.Name = a.pattern
			alias.ImportName = r.ImportName + "_" + route.ShortHash(a.pattern)
			alias.Path = route.PathPattern(tokens)
			table = append(table, indexRow{IndexRoute: alias, tokens: tokens})
		}
	}

	route.SortBySpecificity(table, func(r indexRow) []route.PathToken { return r.tokens })

	out := make([]templates.IndexRoute, len(table))
	for i, r := range table {
		out[i] = r.IndexRoute
	}
	return out
}

func (g *apiGenerator) indexFile(ctx context.Context, routes []*route.APIRoute) error {
	tmpl, err := templates.Get("api-index")
	if err != nil {
		return err
	}
	file := g.env.Paths.Resolve(paths.Lib, g.env.Config.SourceFolder, paths.APIIndexFile)
	_, err = templates.RenderToFile(ctx, file, tmpl.Text, templates.IndexData{
		Routes:       g.rows(routes),
		SourceFolder: g.env.Config.SourceFolder,
	}, templates.WithOverwrite(templates.Always), templates.WithFormatters(g.env.Formatters...))
	return err
}

func match(matchers []matcher, name string) (string, bool) {
	for _, m := range matchers {
		if ok, _ := doublestar.Match(m.pattern, name); ok {
			return m.value, true
		}
	}
	return "", false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
