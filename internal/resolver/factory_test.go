package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosmojs/dev/internal/config"
	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/paths"
	"github.com/kosmojs/dev/internal/signature"
	"github.com/kosmojs/dev/pkg/route"
)

// fakeExtractor returns canned signatures and counts calls per file.
type fakeExtractor struct {
	mu        sync.Mutex
	calls     map[string]int
	refreshed []string
	sigs      map[string]func() *signature.Signature
	err       error
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{
		calls: map[string]int{},
		sigs:  map[string]func() *signature.Signature{},
	}
}

func (f *fakeExtractor) ResolveRouteSignature(_ context.Context, target signature.Target, _ signature.Options) (*signature.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[target.FileFullpath]++
	if f.err != nil {
		return nil, f.err
	}
	if fn, ok := f.sigs[target.FileFullpath]; ok {
		return fn(), nil
	}
	return &signature.Signature{
		TypeDeclarations:  []route.TypeDeclaration{},
		ParamsRefinements: []signature.Refinement{},
		Methods:           []string{"GET"},
		PayloadTypes:      []route.PayloadType{},
		ResponseTypes:     []route.ResponseType{},
		ReferencedFiles:   []string{},
	}, nil
}

func (f *fakeExtractor) Refresh(file string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, file)
}

func (f *fakeExtractor) callCount(file string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[file]
}

type project struct {
	root string
	cfg  *config.Config
}

func (p project) src(rel string) string {
	return filepath.Join(p.root, "src", filepath.FromSlash(rel))
}

func (p project) write(t *testing.T, rel, content string) string {
	t.Helper()
	file := p.src(rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

const routeSource = "export default defineRoute(({ GET }) => [GET(async () => {})]);\n"

func newProject(t *testing.T) project {
	t.Helper()
	cfg := config.New()
	cfg.SetAppRoot(t.TempDir())
	p := project{root: cfg.AppRoot(), cfg: cfg}

	for _, rel := range []string{
		"api/books/index.ts",
		"api/books/[category]/index.ts",
		"api/files/[[folder]]/[[id]].json/index.ts",
		"api/articles/[...path]/index.ts",
		"api/index.ts",
	} {
		p.write(t, rel, routeSource)
	}
	p.write(t, "api/books/helper.ts", "export const x = 1;\n")
	p.write(t, "pages/users/[id]/index.tsx", "export default () => null;\n")
	p.write(t, "pages/index.tsx", "export default () => null;\n")
	p.write(t, "types.ts", "export type Book = { title: string };\n")
	return p
}

func resolve(t *testing.T, r *Resolvers, file, updated string) route.ResolverEntry {
	t.Helper()
	res, ok := r.Get(file)
	require.True(t, ok, "no resolver for %s", file)
	entry, err := res.Handler(context.Background(), updated)
	require.NoError(t, err)
	return entry
}

func TestDiscover(t *testing.T) {
	p := newProject(t)
	f := NewFactory(Options{Config: p.cfg, Extractor: newFakeExtractor()})

	files, err := f.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		p.src("api/articles/[...path]/index.ts"),
		p.src("api/books/[category]/index.ts"),
		p.src("api/books/index.ts"),
		p.src("api/files/[[folder]]/[[id]].json/index.ts"),
		p.src("pages/users/[id]/index.tsx"),
	}, files)
}

func TestBuildScenarios(t *testing.T) {
	p := newProject(t)
	f := NewFactory(Options{Config: p.cfg, Extractor: newFakeExtractor()})

	files, err := f.Discover(context.Background())
	require.NoError(t, err)
	resolvers := f.Build(append(files, p.src("api/books/helper.ts"), p.src("types.ts")))
	require.Equal(t, 5, resolvers.Len())
	assert.Equal(t, files, resolvers.Files())

	t.Run("static route", func(t *testing.T) {
		e := resolve(t, resolvers, p.src("api/books/index.ts"), "")
		require.Equal(t, route.KindAPI, e.Kind)
		assert.Equal(t, "books", e.API.Name)
		require.Len(t, e.API.PathTokens, 1)
		assert.Equal(t, "books", e.API.PathTokens[0].Orig)
		assert.Empty(t, e.API.Params.Schema)
		assert.True(t, e.API.OptionalParams)
		assert.Equal(t, []string{"GET"}, e.API.Methods)
	})

	t.Run("required param", func(t *testing.T) {
		e := resolve(t, resolvers, p.src("api/books/[category]/index.ts"), "")
		require.Len(t, e.API.Params.Schema, 1)
		assert.Equal(t, "category", e.API.Params.Schema[0].Name)
		assert.True(t, e.API.Params.Schema[0].IsRequired)
		assert.False(t, e.API.OptionalParams)
	})

	t.Run("optional params", func(t *testing.T) {
		e := resolve(t, resolvers, p.src("api/files/[[folder]]/[[id]].json/index.ts"), "")
		require.Len(t, e.API.Params.Schema, 2)
		assert.True(t, e.API.Params.Schema[0].IsOptional)
		assert.True(t, e.API.Params.Schema[1].IsOptional)
		assert.True(t, e.API.OptionalParams)
	})

	t.Run("rest param", func(t *testing.T) {
		e := resolve(t, resolvers, p.src("api/articles/[...path]/index.ts"), "")
		require.Len(t, e.API.Params.Schema, 1)
		assert.True(t, e.API.Params.Schema[0].IsRest)
		assert.True(t, e.API.OptionalParams)
	})

	t.Run("page route", func(t *testing.T) {
		e := resolve(t, resolvers, p.src("pages/users/[id]/index.tsx"), "")
		require.Equal(t, route.KindPage, e.Kind)
		assert.Equal(t, "users/[id]", e.Page.Name)
		require.Len(t, e.Page.Params.Schema, 1)
		assert.Equal(t, "id", e.Page.Params.Schema[0].Name)

		_, err := os.Stat(p.cfg.Paths().Resolve(paths.APILib, "users/[id]", paths.CacheFile))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestCacheRoundTrip(t *testing.T) {
	p := newProject(t)
	ext := newFakeExtractor()
	f := NewFactory(Options{Config: p.cfg, Extractor: ext})
	file := p.src("api/books/index.ts")
	resolvers := f.Build([]string{file})

	first := resolve(t, resolvers, file, "")
	cacheFile := p.cfg.Paths().Resolve(paths.APILib, "books", paths.CacheFile)
	before, err := os.ReadFile(cacheFile)
	require.NoError(t, err)
	assert.FileExists(t, p.cfg.Paths().Resolve(paths.APILib, "books", paths.TypesFile))

	second := resolve(t, resolvers, file, "")
	after, err := os.ReadFile(cacheFile)
	require.NoError(t, err)

	assert.Equal(t, 1, ext.callCount(file))
	assert.Equal(t, string(before), string(after))
	assert.Equal(t, first.API, second.API)
}

func TestReferencedFileInvalidation(t *testing.T) {
	p := newProject(t)
	ext := newFakeExtractor()
	file := p.src("api/books/index.ts")
	types := p.src("types.ts")
	ext.sigs[file] = func() *signature.Signature {
		return &signature.Signature{
			TypeDeclarations: []route.TypeDeclaration{{Text: `import type { Book } from "src/types"`}},
			Methods:          []string{"GET"},
			ResponseTypes:    []route.ResponseType{{ID: "ResponseT_GET", Method: "GET", Text: "Book[]"}},
			ReferencedFiles:  []string{types},
		}
	}

	resolvers := NewFactory(Options{Config: p.cfg, Extractor: ext}).Build([]string{file})

	e := resolve(t, resolvers, file, "")
	assert.Equal(t, []string{types}, e.API.ReferencedFiles)
	assert.Empty(t, e.API.ResponseTypes[0].Text)

	resolve(t, resolvers, file, types)
	assert.Equal(t, 1, ext.callCount(file))

	p.write(t, "types.ts", "export type Book = { title: string; year: number };\n")
	resolve(t, resolvers, file, types)
	assert.Equal(t, 2, ext.callCount(file))
	assert.Empty(t, ext.refreshed)

	require.NoError(t, os.Remove(types))
	resolve(t, resolvers, file, types)
	assert.Equal(t, 3, ext.callCount(file))

	p.write(t, "api/books/index.ts", routeSource+"// edited\n")
	resolve(t, resolvers, file, file)
	assert.Equal(t, 4, ext.callCount(file))
	assert.Equal(t, []string{file}, ext.refreshed)
}

func TestTypesArtifact(t *testing.T) {
	p := newProject(t)
	ext := newFakeExtractor()
	file := p.src("api/books/[category]/index.ts")
	ext.sigs[file] = func() *signature.Signature {
		return &signature.Signature{
			TypeDeclarations: []route.TypeDeclaration{},
			ParamsRefinements: []signature.Refinement{
				{Index: 0, Text: "number", Full: "TRefine<number, { minimum: 1 }>"},
			},
			Methods: []string{"POST"},
			PayloadTypes: []route.PayloadType{
				{ID: "PayloadT_POST", Method: "POST", Text: "{ title: string }"},
			},
			ResponseTypes:   []route.ResponseType{},
			ReferencedFiles: []string{},
		}
	}

	e := resolve(t, NewFactory(Options{Config: p.cfg, Extractor: ext}).Build([]string{file}), file, "")

	assert.Equal(t, []string{"category"}, e.API.NumericParams)
	assert.Equal(t, "ParamsT"+route.ShortHash("books/[category]"), e.API.Params.ID)
	assert.Nil(t, e.API.Params.ResolvedType)

	data, err := os.ReadFile(p.cfg.Paths().Resolve(paths.APILib, "books/[category]", paths.TypesFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), fmt.Sprintf("export type %s = {\n  \"category\": TRefine<number, { minimum: 1 }>;\n};", e.API.Params.ID))
	assert.Contains(t, string(data), "export type PayloadT_POST = { title: string };")
}

func TestResolveTypes(t *testing.T) {
	p := newProject(t)
	ext := newFakeExtractor()
	file := p.src("api/books/[category]/index.ts")
	ext.sigs[file] = func() *signature.Signature {
		return &signature.Signature{
			TypeDeclarations: []route.TypeDeclaration{{Text: `type Genre = "fiction" | "poetry";`}},
			Methods:          []string{"PUT"},
			PayloadTypes: []route.PayloadType{
				{ID: "PayloadT_PUT", ResponseTypeID: "ResponseT_PUT", Method: "PUT", Text: "{ genre: Genre }"},
			},
			ResponseTypes: []route.ResponseType{
				{ID: "ResponseT_PUT", Method: "PUT", SkipValidation: true, Text: "{ ok: boolean }"},
			},
			ReferencedFiles: []string{},
		}
	}

	plain := NewFactory(Options{Config: p.cfg, Extractor: ext}).Build([]string{file})
	resolve(t, plain, file, "")
	require.Equal(t, 1, ext.callCount(file))

	full := NewFactory(Options{
		Config:       p.cfg,
		Extractor:    ext,
		TypeResolver: signature.AliasResolver{},
		ResolveTypes: true,
	}).Build([]string{file})

	// a different resolveTypes setting invalidates the record
	e := resolve(t, full, file, "")
	require.Equal(t, 2, ext.callCount(file))

	require.NotNil(t, e.API.Params.ResolvedType)
	require.Len(t, e.API.Params.ResolvedType.Properties, 1)
	assert.Equal(t, "category", e.API.Params.ResolvedType.Properties[0].Name)

	require.NotNil(t, e.API.PayloadTypes[0].ResolvedType)
	assert.Equal(t, `{ genre: ("fiction" | "poetry") }`, e.API.PayloadTypes[0].ResolvedType.Text)
	require.NotNil(t, e.API.ResponseTypes[0].ResolvedType)
	assert.Equal(t, "never", e.API.ResponseTypes[0].ResolvedType.Text)

	data, err := os.ReadFile(p.cfg.Paths().Resolve(paths.APILib, "books/[category]", paths.TypesFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `export type PayloadT_PUT = { genre: ("fiction" | "poetry") };`)
	assert.Contains(t, string(data), "export type ResponseT_PUT = never;")

	// cached resolved types survive the round trip
	again := resolve(t, full, file, "")
	assert.Equal(t, 2, ext.callCount(file))
	assert.Equal(t, e.API.PayloadTypes, again.API.PayloadTypes)
}

func TestExtractorError(t *testing.T) {
	p := newProject(t)
	ext := newFakeExtractor()
	ext.err = errors.New("E201").WithDetail("broken")
	file := p.src("api/books/index.ts")

	res, ok := NewFactory(Options{Config: p.cfg, Extractor: ext}).Build([]string{file}).Get(file)
	require.True(t, ok)

	_, err := res.Handler(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "E201"))

	_, statErr := os.Stat(p.cfg.Paths().Resolve(paths.APILib, "books", paths.CacheFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuildWithScanner(t *testing.T) {
	p := newProject(t)
	file := p.write(t, "api/books/index.ts", `import type { Book } from "../../types";

export default defineRoute(({ GET }) => [
  GET<never, Book[]>(async (ctx) => {}),
]);
`)

	e := resolve(t, NewFactory(Options{Config: p.cfg, Extractor: signature.NewScanner(signature.ScannerOptions{})}).Build([]string{file}), file, "")

	assert.Equal(t, []string{"GET"}, e.API.Methods)
	assert.Equal(t, []string{p.src("types.ts")}, e.API.ReferencedFiles)
	require.Len(t, e.API.TypeDeclarations, 1)
	assert.Equal(t, "src/types", e.API.TypeDeclarations[0].Import.Path)
}

func TestResolvers(t *testing.T) {
	r := NewResolvers()
	r.Set("b", &Resolver{Name: "b"})
	r.Set("a", &Resolver{Name: "a"})
	r.Set("b", &Resolver{Name: "b2"})

	assert.Equal(t, []string{"b", "a"}, r.Files())
	got, _ := r.Get("b")
	assert.Equal(t, "b2", got.Name)

	other := NewResolvers()
	other.Set("c", &Resolver{Name: "c"})
	other.Set("a", &Resolver{Name: "a2"})
	r.Merge(other)
	assert.Equal(t, []string{"b", "a", "c"}, r.Files())

	r.Delete("a")
	r.Delete("missing")
	assert.Equal(t, []string{"b", "c"}, r.Files())
	assert.Equal(t, 2, r.Len())
	_, ok := r.Get("a")
	assert.False(t, ok)
}
