// Package stub fills blank page files with a component placeholder.
//
// API route files are left to the api generator, which knows about
// per-route custom templates.
package stub

import (
	"context"
	"encoding/json"
	"os"

	"github.com/kosmojs/dev/internal/generator"
	"github.com/kosmojs/dev/internal/logger"
	"github.com/kosmojs/dev/internal/templates"
	"github.com/kosmojs/dev/pkg/route"
)

// Module is the registry name of the stub generator.
const Module = "stub"

// New returns the stub generator constructor.
func New() generator.Constructor {
	return generator.Constructor{
		Name:    "Stub",
		Kind:    generator.KindStub,
		Factory: factory,
	}
}

// Factory is the ModuleFactory of the stub generator. It takes no config.
func Factory(json.RawMessage) (generator.Constructor, error) {
	return New(), nil
}

func factory(_ context.Context, env generator.Env) (generator.Generator, error) {
	tmpl, err := templates.Get(env.Config.Framework)
	if err != nil {
		return nil, err
	}

	log := logger.Named("stub")

	return generator.HandlerFunc(func(ctx context.Context, entries route.Snapshot, event *route.Event) error {
		for _, page := range entries.PageRoutes() {
			if event != nil && (event.Kind != route.Created || event.File != page.FileFullpath) {
				continue
			}

			// a route deleted since the last resolve stays in the snapshot
			if _, err := os.Stat(page.FileFullpath); err != nil {
				continue
			}

			written, err := templates.RenderToFile(ctx, page.FileFullpath, tmpl.Text, templates.StubData{
				Name:       page.Name,
				ImportName: page.ImportName,
				Params:     page.Params.Schema,
			}, templates.WithFormatters(env.Formatters...))
			if err != nil {
				return err
			}
			if written {
				log.Debugw("stub written", "route", page.Name)
			}
		}
		return nil
	}), nil
}
