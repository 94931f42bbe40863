package worker

import (
	"encoding/json"

	"github.com/kosmojs/dev/internal/config"
	"github.com/kosmojs/dev/internal/generator"
	"github.com/kosmojs/dev/internal/generator/builtin"
	"github.com/kosmojs/dev/internal/templates"
)

// Loader rebuilds generators and formatters from their module names.
type Loader struct {
	Generators *generator.Registry
	Builtins   generator.Builtins

	// Formatter loads one formatter module.
	Formatter func(module string, config json.RawMessage) (templates.Formatter, error)
}

// DefaultLoader knows the modules that ship with kosmo.
func DefaultLoader() Loader {
	return Loader{
		Generators: builtin.Registry(),
		Builtins:   builtin.Builtins(),
		Formatter:  templates.LoadFormatter,
	}
}

// Pipeline is what a Loader produces.
type Pipeline struct {
	// Generators in the order they run.
	Generators []generator.Constructor
	Formatters []templates.Formatter
}

// ResolveTypes reports whether any generator asks for full type
// resolution.
func (p Pipeline) ResolveTypes() bool {
	return generator.ResolveTypes(p.Generators)
}

// Load builds the pipeline of generator and formatter modules.
func (l Loader) Load(generators, formatters []config.ModuleConfig) (Pipeline, error) {
	var p Pipeline

	user, err := l.Generators.LoadAll(generators)
	if err != nil {
		return Pipeline{}, err
	}
	p.Generators = generator.Order(l.Builtins, user)

	for _, m := range formatters {
		f, err := l.Formatter(m.Module, m.Config)
		if err != nil {
			return Pipeline{}, err
		}
		p.Formatters = append(p.Formatters, f)
	}
	return p, nil
}
