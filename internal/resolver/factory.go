package resolver

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kosmojs/dev/internal/config"
	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/logger"
	"github.com/kosmojs/dev/internal/metrics"
	"github.com/kosmojs/dev/internal/paths"
	"github.com/kosmojs/dev/internal/signature"
	"github.com/kosmojs/dev/internal/templates"
	"github.com/kosmojs/dev/pkg/route"
)

var tracer = otel.Tracer("github.com/kosmojs/dev/internal/resolver")

// Handler resolves one route. updatedFile is the file whose change
// triggered the run, or empty on the initial pass.
type Handler func(ctx context.Context, updatedFile string) (route.ResolverEntry, error)

// Resolver resolves the route of one file.
type Resolver struct {
	Name    string
	Kind    route.Kind
	Handler Handler
}

// Resolvers is an insertion-ordered map from route file to Resolver.
type Resolvers struct {
	files []string
	byKey map[string]*Resolver
}

// NewResolvers returns an empty map.
func NewResolvers() *Resolvers {
	return &Resolvers{byKey: make(map[string]*Resolver)}
}

// Get returns the resolver of file.
func (r *Resolvers) Get(file string) (*Resolver, bool) {
	res, ok := r.byKey[file]
	return res, ok
}

// Set inserts or replaces the resolver of file. A new file goes last.
func (r *Resolvers) Set(file string, res *Resolver) {
	if _, ok := r.byKey[file]; !ok {
		r.files = append(r.files, file)
	}
	r.byKey[file] = res
}

// Delete removes the resolver of file.
func (r *Resolvers) Delete(file string) {
	if _, ok := r.byKey[file]; !ok {
		return
	}
	delete(r.byKey, file)
	r.files = slices.DeleteFunc(r.files, func(f string) bool { return f == file })
}

// Merge inserts every resolver of other.
func (r *Resolvers) Merge(other *Resolvers) {
	for _, file := range other.files {
		r.Set(file, other.byKey[file])
	}
}

// Files returns the route files in insertion order.
func (r *Resolvers) Files() []string {
	return slices.Clone(r.files)
}

// Len returns the number of resolvers.
func (r *Resolvers) Len() int {
	return len(r.files)
}

// Options configures a Factory.
type Options struct {
	Config *config.Config

	// Extractor reads route signatures. Required for API routes.
	Extractor signature.Extractor

	// TypeResolver flattens route types. Types are only resolved when it
	// is set and ResolveTypes is true.
	TypeResolver signature.TypeResolver
	ResolveTypes bool

	// Formatters run over the types.ts artifacts.
	Formatters []templates.Formatter

	Metrics *metrics.Metrics
}

// Factory builds resolvers.
type Factory struct {
	cfg          *config.Config
	identity     Identity
	paths        paths.Resolver
	extractor    signature.Extractor
	typeResolver signature.TypeResolver
	resolveTypes bool
	formatters   []templates.Formatter
	metrics      *metrics.Metrics
	log          *zap.SugaredLogger
}

// NewFactory returns a Factory.
func NewFactory(opts Options) *Factory {
	return &Factory{
		cfg:          opts.Config,
		identity:     NewIdentity(opts.Config),
		paths:        opts.Config.Paths(),
		extractor:    opts.Extractor,
		typeResolver: opts.TypeResolver,
		resolveTypes: opts.ResolveTypes && opts.TypeResolver != nil,
		formatters:   opts.Formatters,
		metrics:      opts.Metrics,
		log:          logger.Named("resolver"),
	}
}

// Identity returns the route file identity used by the factory.
func (f *Factory) Identity() Identity {
	return f.identity
}

// Discover returns every route file under the source folder, API routes
// first, each group in lexical order.
func (f *Factory) Discover(ctx context.Context) ([]string, error) {
	root := f.paths.Resolve(paths.Source)
	fsys := os.DirFS(root)

	var files []string
	for _, pattern := range f.identity.Patterns() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.New("E200").WithFile(root).Wrap(err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			file := filepath.Join(root, filepath.FromSlash(m))
			if _, _, ok := f.identity.Resolve(file); ok {
				files = append(files, file)
			}
		}
	}

	f.log.Debugw("routes discovered", "count", len(files))
	return files, nil
}

// Build returns a resolver for every route file among files. Other files
// are skipped.
func (f *Factory) Build(files []string) *Resolvers {
	out := NewResolvers()
	for _, file := range files {
		folder, rel, ok := f.identity.Resolve(file)
		if !ok {
			continue
		}
		fileFullpath := f.paths.Resolve(paths.Source, folder, filepath.FromSlash(rel))
		entry := NewEntry(folder, rel, fileFullpath)

		res := &Resolver{Name: entry.Name}
		switch folder {
		case paths.APIDir:
			res.Kind = route.KindAPI
			res.Handler = f.traced(entry, res.Kind, f.apiHandler(entry))
		case paths.PagesDir:
			res.Kind = route.KindPage
			res.Handler = f.traced(entry, res.Kind, pageHandler(entry))
		}
		out.Set(fileFullpath, res)
	}
	return out
}

func (f *Factory) traced(entry route.Entry, kind route.Kind, h Handler) Handler {
	return func(ctx context.Context, updatedFile string) (route.ResolverEntry, error) {
		ctx, span := tracer.Start(ctx, "resolve "+kind.String(), trace.WithAttributes(
			attribute.String("kosmo.route", entry.Name),
			attribute.String("kosmo.file", entry.FileFullpath),
			attribute.String("kosmo.updated_file", updatedFile),
		))
		defer span.End()

		start := time.Now()
		res, err := h(ctx, updatedFile)
		f.metrics.ObserveResolve(kind.String(), time.Since(start), err)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return route.ResolverEntry{}, err
		}
		return res, nil
	}
}

func (f *Factory) extraContext() map[string]string {
	return map[string]string{"resolveTypes": strconv.FormatBool(f.resolveTypes)}
}

func pageHandler(entry route.Entry) Handler {
	return func(ctx context.Context, _ string) (route.ResolverEntry, error) {
		return route.ResolverEntry{
			Kind: route.KindPage,
			Page: &route.PageRoute{
				Entry:  entry.Clone(),
				Params: route.PageParams{Schema: entry.ParamsSchema()},
			},
		}, nil
	}
}
