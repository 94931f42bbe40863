package generator

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/kosmojs/dev/internal/config"
	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/paths"
	"github.com/kosmojs/dev/internal/templates"
	"github.com/kosmojs/dev/pkg/route"
)

// Reserved generator kinds.
const (
	KindStub  = "stub"
	KindAPI   = "api"
	KindFetch = "fetch"
	KindSSR   = "ssr"
)

// Generator reacts to resolved routes.
type Generator interface {
	// WatchHandler receives a snapshot of every resolved route. A nil
	// event means the initial pass: process everything. Otherwise only
	// what the event implies needs to be regenerated.
	WatchHandler(ctx context.Context, entries route.Snapshot, event *route.Event) error
}

// HandlerFunc adapts a function to Generator.
type HandlerFunc func(ctx context.Context, entries route.Snapshot, event *route.Event) error

// WatchHandler implements Generator.
func (f HandlerFunc) WatchHandler(ctx context.Context, entries route.Snapshot, event *route.Event) error {
	return f(ctx, entries, event)
}

// Options are generator capabilities the pipeline has to know about.
type Options struct {
	// ResolveTypes turns on full type resolution for API routes.
	ResolveTypes bool
}

// Env is what a generator factory gets to work with.
type Env struct {
	Config     *config.Config
	Paths      paths.Resolver
	Formatters []templates.Formatter
}

// NewEnv returns the Env of a project.
func NewEnv(cfg *config.Config, formatters []templates.Formatter) Env {
	return Env{Config: cfg, Paths: cfg.Paths(), Formatters: formatters}
}

// Constructor is a configured, not yet initialized generator.
type Constructor struct {
	Name    string
	Kind    string
	Options Options
	Factory func(ctx context.Context, env Env) (Generator, error)
}

// ModuleFactory builds a Constructor from a generator's kosmo.json
// config.
type ModuleFactory func(config json.RawMessage) (Constructor, error)

// Registry maps module names to factories.
type Registry struct {
	modules map[string]ModuleFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]ModuleFactory)}
}

// Register adds a module, replacing any previous one with the same name.
func (r *Registry) Register(module string, factory ModuleFactory) {
	r.modules[module] = factory
}

// Modules returns the registered module names, sorted.
func (r *Registry) Modules() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load builds a Constructor for module.
func (r *Registry) Load(module string, config json.RawMessage) (Constructor, error) {
	factory, ok := r.modules[module]
	if !ok {
		return Constructor{}, errors.New("E220").
			WithDetail("Generator '" + module + "' not found").
			WithSuggestion("Available generators: " + strings.Join(r.Modules(), ", "))
	}

	c, err := factory(config)
	if err != nil {
		return Constructor{}, errors.New("E221").
			WithDetailf("invalid config for generator %s", module).
			Wrap(err)
	}
	if c.Name == "" {
		c.Name = module
	}
	return c, nil
}

// LoadAll builds a Constructor for every module, in order.
func (r *Registry) LoadAll(modules []config.ModuleConfig) ([]Constructor, error) {
	out := make([]Constructor, 0, len(modules))
	for _, m := range modules {
		c, err := r.Load(m.Module, m.Config)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Builtins are the generators every pipeline starts from.
type Builtins struct {
	Stub  Constructor
	API   Constructor
	Fetch Constructor
}

// Order composes the pipeline. See the package documentation.
func Order(builtins Builtins, user []Constructor) []Constructor {
	api, fetch := builtins.API, builtins.Fetch
	var ssr *Constructor
	var rest []Constructor

	// first user generator of a reserved kind wins
	var seenAPI, seenFetch bool
	for _, c := range user {
		switch c.Kind {
		case KindAPI:
			if !seenAPI {
				api, seenAPI = c, true
			}
		case KindFetch:
			if !seenFetch {
				fetch, seenFetch = c, true
			}
		case KindSSR:
			if ssr == nil {
				c := c
				ssr = &c
			}
		default:
			rest = append(rest, c)
		}
	}

	out := make([]Constructor, 0, len(rest)+4)
	out = append(out, builtins.Stub, api, fetch)
	out = append(out, rest...)
	if ssr != nil {
		out = append(out, *ssr)
	}
	return out
}

// ResolveTypes reports whether any generator asks for full type
// resolution.
func ResolveTypes(constructors []Constructor) bool {
	for _, c := range constructors {
		if c.Options.ResolveTypes {
			return true
		}
	}
	return false
}
