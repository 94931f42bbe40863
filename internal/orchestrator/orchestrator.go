package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/generator"
	"github.com/kosmojs/dev/internal/logger"
	"github.com/kosmojs/dev/internal/metrics"
	"github.com/kosmojs/dev/internal/progress"
	"github.com/kosmojs/dev/internal/resolver"
	"github.com/kosmojs/dev/pkg/route"
)

var tracer = otel.Tracer("github.com/kosmojs/dev/internal/orchestrator")

// Spinner texts of the pipeline phases.
const (
	TextResolving    = "Resolving Routes"
	TextInitializing = "Initializing Generators"
	TextGenerating   = "Running Generators"
)

// State is the lifecycle state of an Orchestrator.
type State int

const (
	StateNew State = iota
	StateResolving
	StateIdle
	StateHandling
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateResolving:
		return "resolving"
	case StateIdle:
		return "idle"
	case StateHandling:
		return "handling"
	default:
		return "unknown"
	}
}

// Options configures an Orchestrator.
type Options struct {
	// Factory builds route resolvers. Required.
	Factory *resolver.Factory

	// Generators in the order they run. See generator.Order.
	Generators []generator.Constructor

	// Env is passed to generator factories.
	Env generator.Env

	// Reporter receives progress. Defaults to progress.Discard.
	Reporter progress.Reporter

	Metrics *metrics.Metrics
}

type watchHandler struct {
	name    string
	handler generator.Generator
}

// Orchestrator runs the pipeline. See the package documentation.
type Orchestrator struct {
	factory      *resolver.Factory
	constructors []generator.Constructor
	env          generator.Env
	reporter     progress.Reporter
	metrics      *metrics.Metrics
	log          *zap.SugaredLogger

	state     State
	resolvers *resolver.Resolvers
	routes    map[string]route.ResolverEntry
	handlers  []watchHandler
}

// New returns an Orchestrator.
func New(opts Options) *Orchestrator {
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Discard
	}
	return &Orchestrator{
		factory:      opts.Factory,
		constructors: opts.Generators,
		env:          opts.Env,
		reporter:     reporter,
		metrics:      opts.Metrics,
		log:          logger.Named("orchestrator"),
		resolvers:    resolver.NewResolvers(),
		routes:       make(map[string]route.ResolverEntry),
	}
}

// State returns the current lifecycle state. Like the other methods it
// must be called from the goroutine driving the orchestrator.
func (o *Orchestrator) State() State {
	return o.state
}

// Start resolves every route, initializes the generators and runs them
// once. The returned error joins every failure; all of them have already
// been reported.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.state = StateResolving
	defer func() { o.state = StateIdle }()

	files, err := o.factory.Discover(ctx)
	if err != nil {
		return err
	}
	o.resolvers = o.factory.Build(files)

	errs := []error{o.resolveAll(ctx)}
	errs = append(errs, o.initGenerators(ctx))
	errs = append(errs, o.runGenerators(ctx, nil))
	return stderrors.Join(errs...)
}

// Build runs the pipeline once. Any route or generator failure fails the
// build.
func (o *Orchestrator) Build(ctx context.Context) error {
	if err := o.Start(ctx); err != nil {
		return errors.New("E204").Wrap(err)
	}
	return nil
}

func (o *Orchestrator) resolveAll(ctx context.Context) error {
	var errs []error
	spinner := o.reporter.Start(TextResolving)

	files := o.resolvers.Files()
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			spinner.Failed(err)
			return err
		}
		res, _ := o.resolvers.Get(file)
		spinner.Append(fmt.Sprintf("[ %d of %d ] %s", i+1, len(files), res.Name))

		if err := o.resolve(ctx, file, res, ""); err != nil {
			errs = append(errs, err)
			spinner.Failed(err)
			spinner = o.reporter.Start(TextResolving)
		}
	}

	spinner.Succeed("")
	o.countRoutes()
	return stderrors.Join(errs...)
}

func (o *Orchestrator) initGenerators(ctx context.Context) error {
	var errs []error
	o.handlers = o.handlers[:0]
	spinner := o.reporter.Start(TextInitializing)

	for _, c := range o.constructors {
		spinner.Append(c.Name)
		g, err := initGenerator(ctx, c, o.env)
		if err != nil {
			err = errors.FromError(err, "E221").WithDetailf("generator %s failed to initialize", c.Name)
			errs = append(errs, err)
			spinner.Failed(err)
			spinner = o.reporter.Start(TextInitializing)
			continue
		}
		o.handlers = append(o.handlers, watchHandler{name: c.Name, handler: g})
	}

	spinner.Succeed("")
	return stderrors.Join(errs...)
}

func initGenerator(ctx context.Context, c generator.Constructor, env generator.Env) (g generator.Generator, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError("E223", c.Name, r)
		}
	}()
	if c.Factory == nil {
		return nil, fmt.Errorf("generator %s has no factory", c.Name)
	}
	return c.Factory(ctx, env)
}

// runGenerators runs every watch handler in order, each with its own
// snapshot of the resolved routes.
func (o *Orchestrator) runGenerators(ctx context.Context, event *route.Event) error {
	var errs []error
	spinner := o.reporter.Start(TextGenerating)

	for _, h := range o.handlers {
		spinner.Append(h.name)
		if err := o.runGenerator(ctx, h, event); err != nil {
			errs = append(errs, err)
			spinner.Failed(err)
			spinner = o.reporter.Start(TextGenerating)
		}
	}

	spinner.Succeed("")
	return stderrors.Join(errs...)
}

func (o *Orchestrator) runGenerator(ctx context.Context, h watchHandler, event *route.Event) (err error) {
	attrs := []attribute.KeyValue{attribute.String("kosmo.generator", h.name)}
	if event != nil {
		attrs = append(attrs,
			attribute.String("kosmo.event", event.Kind.String()),
			attribute.String("kosmo.file", event.File))
	}
	ctx, span := tracer.Start(ctx, "generate "+h.name, trace.WithAttributes(attrs...))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = panicError("E223", h.name, r)
		}
		o.metrics.ObserveGenerator(h.name, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var ev *route.Event
	if event != nil {
		copied := *event
		ev = &copied
	}

	if err := h.handler.WatchHandler(ctx, o.Snapshot(), ev); err != nil {
		return errors.FromError(err, "E222").WithDetailf("generator %s failed", h.name)
	}
	return nil
}

// resolve runs one resolver and records its route.
func (o *Orchestrator) resolve(ctx context.Context, file string, res *resolver.Resolver, updatedFile string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError("E204", res.Name, r)
		}
	}()

	entry, err := res.Handler(ctx, updatedFile)
	if err != nil {
		return err
	}
	o.routes[file] = entry
	return nil
}

// Snapshot returns a deep copy of the resolved routes in resolver order.
func (o *Orchestrator) Snapshot() route.Snapshot {
	entries := make([]route.ResolverEntry, 0, len(o.routes))
	for _, file := range o.resolvers.Files() {
		if e, ok := o.routes[file]; ok {
			entries = append(entries, e)
		}
	}
	return route.NewSnapshot(entries)
}

// Resolvers returns the resolver map.
func (o *Orchestrator) Resolvers() *resolver.Resolvers {
	return o.resolvers
}

// Generators returns the names of the initialized generators, in order.
func (o *Orchestrator) Generators() []string {
	names := make([]string, len(o.handlers))
	for i, h := range o.handlers {
		names[i] = h.name
	}
	return names
}

func (o *Orchestrator) countRoutes() {
	var api, pages int
	for _, e := range o.routes {
		switch e.Kind {
		case route.KindAPI:
			api++
		case route.KindPage:
			pages++
		}
	}
	o.metrics.SetRoutes(route.KindAPI.String(), api)
	o.metrics.SetRoutes(route.KindPage.String(), pages)
}

func panicError(code, name string, r any) *errors.KosmoError {
	return errors.New(code).
		WithDetail(name + " panicked: " + fmt.Sprint(r) + "\n" + string(debug.Stack())).
		Wrap(fmt.Errorf("panic: %v", r))
}
