// Package builtin registers the generators and formatters that ship with
// kosmo.
package builtin

import (
	"github.com/kosmojs/dev/internal/generator"
	"github.com/kosmojs/dev/internal/generator/api"
	"github.com/kosmojs/dev/internal/generator/fetch"
	"github.com/kosmojs/dev/internal/generator/manifest"
	"github.com/kosmojs/dev/internal/generator/stub"
)

// Registry returns a registry holding every built-in generator module.
func Registry() *generator.Registry {
	r := generator.NewRegistry()
	r.Register(stub.Module, stub.Factory)
	r.Register(api.Module, api.Factory)
	r.Register(fetch.Module, fetch.Factory)
	r.Register(manifest.Module, manifest.Factory)
	return r
}

// Builtins returns the generators every pipeline starts from.
func Builtins() generator.Builtins {
	return generator.Builtins{
		Stub:  stub.New(),
		API:   api.New(api.Options{}),
		Fetch: fetch.New(fetch.Options{}),
	}
}
