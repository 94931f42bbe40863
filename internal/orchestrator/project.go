package orchestrator

import (
	"path/filepath"

	"github.com/kosmojs/dev/internal/config"
	"github.com/kosmojs/dev/internal/generator"
	"github.com/kosmojs/dev/internal/metrics"
	"github.com/kosmojs/dev/internal/progress"
	"github.com/kosmojs/dev/internal/resolver"
	"github.com/kosmojs/dev/internal/signature"
	"github.com/kosmojs/dev/internal/templates"
)

// ProjectOptions configures ForProject.
type ProjectOptions struct {
	// Generators in the order they run.
	Generators []generator.Constructor
	Formatters []templates.Formatter

	Reporter progress.Reporter
	Metrics  *metrics.Metrics
}

// ForProject wires an Orchestrator for cfg with the default signature
// scanner and type resolver.
func ForProject(cfg *config.Config, opts ProjectOptions) *Orchestrator {
	factory := resolver.NewFactory(resolver.Options{
		Config: cfg,
		Extractor: signature.NewScanner(signature.ScannerOptions{
			RefineTypeName: cfg.RefineTypeName,
			Aliases:        map[string]string{"~/": cfg.AppRoot() + string(filepath.Separator)},
		}),
		TypeResolver: signature.AliasResolver{},
		ResolveTypes: generator.ResolveTypes(opts.Generators),
		Formatters:   opts.Formatters,
		Metrics:      opts.Metrics,
	})

	return New(Options{
		Factory:    factory,
		Generators: opts.Generators,
		Env:        generator.NewEnv(cfg, opts.Formatters),
		Reporter:   opts.Reporter,
		Metrics:    opts.Metrics,
	})
}
