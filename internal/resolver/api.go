package resolver

import (
	"context"
	"path"

	"github.com/kosmojs/dev/internal/cache"
	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/paths"
	"github.com/kosmojs/dev/internal/signature"
	"github.com/kosmojs/dev/internal/templates"
	"github.com/kosmojs/dev/pkg/route"
)

func (f *Factory) apiHandler(entry route.Entry) Handler {
	return func(ctx context.Context, updatedFile string) (route.ResolverEntry, error) {
		r, err := f.resolveAPI(ctx, entry, updatedFile)
		if err != nil {
			return route.ResolverEntry{}, err
		}
		return route.ResolverEntry{Kind: route.KindAPI, API: r}, nil
	}
}

func (f *Factory) resolveAPI(ctx context.Context, entry route.Entry, updatedFile string) (*route.APIRoute, error) {
	schema := entry.ParamsSchema()
	optionalParams := true
	for _, p := range schema {
		if p.IsRequired {
			optionalParams = false
		}
	}

	store := cache.New(entry, cache.Options{
		AppRoot:      f.cfg.AppRoot(),
		SourceFolder: f.cfg.SourceFolder,
		ExtraContext: f.extraContext(),
	})

	c, hit := store.Get(ctx, true)
	f.metrics.CacheLookup(hit)

	if !hit {
		f.log.Debugw("cache miss", "route", entry.Name)

		data, err := f.analyze(ctx, entry, schema, optionalParams, updatedFile)
		if err != nil {
			return nil, err
		}
		if c, err = store.Persist(ctx, *data); err != nil {
			return nil, err
		}
	}

	return &route.APIRoute{
		Entry:            entry.Clone(),
		Params:           c.Params,
		NumericParams:    c.NumericParams,
		OptionalParams:   optionalParams,
		Methods:          c.Methods,
		TypeDeclarations: c.TypeDeclarations,
		PayloadTypes:     c.PayloadTypes,
		ResponseTypes:    c.ResponseTypes,
		ReferencedFiles:  store.ReferencedPaths(c),
	}, nil
}

// analyze extracts the route signature and writes the types.ts artifact.
func (f *Factory) analyze(ctx context.Context, entry route.Entry, schema []route.ParamSpec, optionalParams bool, updatedFile string) (*cache.Data, error) {
	if f.extractor == nil {
		return nil, errors.New("E201").WithFile(entry.FileFullpath).WithDetail("no signature extractor configured")
	}

	if updatedFile == entry.FileFullpath {
		f.extractor.Refresh(entry.FileFullpath)
	}

	sig, err := f.extractor.ResolveRouteSignature(ctx,
		signature.Target{
			ImportName:     entry.ImportName,
			FileFullpath:   entry.FileFullpath,
			OptionalParams: optionalParams,
		},
		signature.Options{
			WithReferencedFiles: true,
			RelPath: func(p string) string {
				return path.Join(f.cfg.SourceFolder, paths.APIDir, entry.ImportPath, p)
			},
		},
	)
	if err != nil {
		return nil, err
	}

	numericParams := []string{}
	for _, r := range sig.ParamsRefinements {
		if r.Text == "number" && r.Index < len(schema) {
			numericParams = append(numericParams, schema[r.Index].Name)
		}
	}

	params := route.APIParams{
		ID:     "ParamsT" + route.ShortHash(entry.Name),
		Schema: schema,
	}

	typesFile := f.paths.Resolve(paths.APILib, entry.ImportPath, paths.TypesFile)

	typesText, err := renderBuiltin("types", templates.TypesData{
		Params:           params,
		ParamsSchema:     paramFields(schema, sig.ParamsRefinements),
		TypeDeclarations: sig.TypeDeclarations,
		PayloadTypes:     sig.PayloadTypes,
		ResponseTypes:    sig.ResponseTypes,
	})
	if err != nil {
		return nil, errors.New("E203").WithFile(typesFile).Wrap(err)
	}

	payloadTypes := sig.PayloadTypes
	responseTypes := sig.ResponseTypes

	if f.resolveTypes {
		resolved, err := f.typeResolver.Resolve(ctx, typesText, f.resolveOptions(params, payloadTypes, responseTypes))
		if err != nil {
			return nil, errors.New("E202").WithFile(entry.FileFullpath).Wrap(err)
		}

		if typesText, err = renderBuiltin("resolved-types", templates.ResolvedTypesData{ResolvedTypes: resolved}); err != nil {
			return nil, errors.New("E203").WithFile(typesFile).Wrap(err)
		}

		params.ResolvedType = findResolved(resolved, params.ID)
		payloadTypes = make([]route.PayloadType, len(sig.PayloadTypes))
		for i, p := range sig.PayloadTypes {
			p.ResolvedType = findResolved(resolved, p.ID)
			payloadTypes[i] = p
		}
		responseTypes = make([]route.ResponseType, len(sig.ResponseTypes))
		for i, r := range sig.ResponseTypes {
			r.ResolvedType = findResolved(resolved, r.ID)
			responseTypes[i] = r
		}
	}

	if _, err := templates.WriteFile(ctx, typesFile, typesText,
		templates.WithOverwrite(templates.Always),
		templates.WithFormatters(f.formatters...),
	); err != nil {
		return nil, errors.New("E203").WithFile(typesFile).Wrap(err)
	}

	return &cache.Data{
		Params:           params,
		Methods:          sig.Methods,
		TypeDeclarations: sig.TypeDeclarations,
		NumericParams:    numericParams,
		PayloadTypes:     payloadTypes,
		ResponseTypes:    responseTypes,
		ReferencedFiles:  sig.ReferencedFiles,
	}, nil
}

// resolveOptions keeps the refinement type intact and turns types marked
// to skip validation into never.
func (f *Factory) resolveOptions(params route.APIParams, payloadTypes []route.PayloadType, responseTypes []route.ResponseType) signature.ResolveOptions {
	overrides := map[string]string{f.cfg.RefineTypeName: f.cfg.RefineTypeName}
	withProperties := []string{params.ID}

	for _, p := range payloadTypes {
		if p.SkipValidation {
			overrides[p.ID] = "never"
		}
		withProperties = append(withProperties, p.ID)
	}
	for _, r := range responseTypes {
		if r.SkipValidation {
			overrides[r.ID] = "never"
		}
	}

	return signature.ResolveOptions{Overrides: overrides, WithProperties: withProperties}
}

func renderBuiltin(name string, data any) (string, error) {
	tmpl, err := templates.Get(name)
	if err != nil {
		return "", err
	}
	return templates.Render(tmpl.Text, data)
}

// paramFields pairs every param with its declared refinement, falling back
// to string.
func paramFields(schema []route.ParamSpec, refinements []signature.Refinement) []templates.ParamField {
	fields := make([]templates.ParamField, len(schema))
	for i, p := range schema {
		typ := "string"
		for _, r := range refinements {
			if r.Index == i {
				typ = r.Full
			}
		}
		if p.IsRest {
			typ = "Array<" + typ + ">"
		}
		fields[i] = templates.ParamField{ParamSpec: p, Type: typ}
	}
	return fields
}

func findResolved(resolved []route.ResolvedType, name string) *route.ResolvedType {
	for i := range resolved {
		if resolved[i].Name == name {
			rt := resolved[i]
			return &rt
		}
	}
	return nil
}
