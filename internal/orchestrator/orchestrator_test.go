package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosmojs/dev/internal/config"
	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/generator"
	"github.com/kosmojs/dev/internal/metrics"
	"github.com/kosmojs/dev/internal/progress"
	"github.com/kosmojs/dev/internal/resolver"
	"github.com/kosmojs/dev/internal/signature"
	"github.com/kosmojs/dev/pkg/route"
)

const routeSource = `import type { Book } from "../../types";

export default defineRoute(({ GET }) => [
  GET<never, Book[]>(async (ctx) => {}),
]);
`

const plainRouteSource = `export default defineRoute(({ POST }) => [
  POST(async (ctx) => {}),
]);
`

type project struct {
	root string
	cfg  *config.Config
}

func newProject(t *testing.T) project {
	t.Helper()
	cfg := config.New()
	cfg.SetAppRoot(t.TempDir())
	p := project{root: cfg.AppRoot(), cfg: cfg}

	p.write(t, "types.ts", "export type Book = { title: string };\n")
	p.write(t, "api/books/index.ts", routeSource)
	p.write(t, "api/authors/index.ts", routeSource)
	p.write(t, "api/misc/index.ts", plainRouteSource)
	p.write(t, "pages/about/index.tsx", "export default () => null;\n")
	return p
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

// call is one watch handler invocation.
type call struct {
	routes []string
	event  *route.Event
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) constructor(name string) generator.Constructor {
	return generator.Constructor{
		Name: name,
		Factory: func(context.Context, generator.Env) (generator.Generator, error) {
			return generator.HandlerFunc(func(_ context.Context, entries route.Snapshot, event *route.Event) error {
				var names []string
				for _, e := range entries {
					names = append(names, e.Route().Name)
				}
				r.mu.Lock()
				r.calls = append(r.calls, call{routes: names, event: event})
				r.mu.Unlock()
				return nil
			}), nil
		},
	}
}

func (r *recorder) last() call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func failing(name string, err error) generator.Constructor {
	return generator.Constructor{
		Name: name,
		Factory: func(context.Context, generator.Env) (generator.Generator, error) {
			return generator.HandlerFunc(func(context.Context, route.Snapshot, *route.Event) error {
				return err
			}), nil
		},
	}
}

func panicking(name string) generator.Constructor {
	return generator.Constructor{
		Name: name,
		Factory: func(context.Context, generator.Env) (generator.Generator, error) {
			return generator.HandlerFunc(func(context.Context, route.Snapshot, *route.Event) error {
				panic("boom")
			}), nil
		},
	}
}

func newOrchestrator(p project, reporter progress.Reporter, gens ...generator.Constructor) *Orchestrator {
	return New(Options{
		Factory: resolver.NewFactory(resolver.Options{
			Config:    p.cfg,
			Extractor: signature.NewScanner(signature.ScannerOptions{}),
		}),
		Generators: gens,
		Env:        generator.NewEnv(p.cfg, nil),
		Reporter:   reporter,
		Metrics:    metrics.New(),
	})
}

// appended returns the append texts of spinners started with startText.
func appended(r *progress.Recorder, startText string) []string {
	var out []string
	for _, u := range r.Updates() {
		if u.StartText == startText && u.Method == progress.MethodAppend {
			out = append(out, u.Text)
		}
	}
	return out
}

func TestStart(t *testing.T) {
	p := newProject(t)
	rec := &recorder{}
	reporter := progress.NewRecorder()
	o := newOrchestrator(p, reporter, rec.constructor("first"), rec.constructor("second"))

	require.NoError(t, o.Start(context.Background()))
	assert.Equal(t, StateIdle, o.State())
	assert.Equal(t, 4, o.Routes())
	assert.Equal(t, []string{"first", "second"}, o.Generators())

	require.Equal(t, 2, rec.count())
	assert.Equal(t, []string{"authors", "books", "misc", "about"}, rec.last().routes)
	assert.Nil(t, rec.last().event)

	assert.Equal(t, []string{
		"[ 1 of 4 ] authors",
		"[ 2 of 4 ] books",
		"[ 3 of 4 ] misc",
		"[ 4 of 4 ] about",
	}, appended(reporter, TextResolving))
	assert.Equal(t, []string{"first", "second"}, appended(reporter, TextInitializing))
	assert.Equal(t, []string{"first", "second"}, appended(reporter, TextGenerating))
}

func TestGeneratorFailuresAreIsolated(t *testing.T) {
	p := newProject(t)
	rec := &recorder{}
	reporter := progress.NewRecorder()
	o := newOrchestrator(p, reporter,
		failing("bad", assert.AnError),
		panicking("explosive"),
		rec.constructor("good"),
	)

	err := o.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "E222"))
	assert.True(t, errors.HasCode(err, "E223"))
	assert.ErrorIs(t, err, assert.AnError)

	// the healthy generator still ran
	assert.Equal(t, 1, rec.count())

	failed := reporter.Texts(progress.MethodFailed)
	assert.Len(t, failed, 2)
	assert.Len(t, reporter.Errors(), 2)
}

func TestGeneratorInitFailure(t *testing.T) {
	p := newProject(t)
	rec := &recorder{}
	o := newOrchestrator(p, progress.Discard,
		generator.Constructor{Name: "broken", Factory: func(context.Context, generator.Env) (generator.Generator, error) {
			return nil, assert.AnError
		}},
		generator.Constructor{Name: "nofactory"},
		rec.constructor("ok"),
	)

	err := o.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "E221"))
	assert.Equal(t, []string{"ok"}, o.Generators())
	assert.Equal(t, 1, rec.count())
}

func TestSharedTypeFileUpdate(t *testing.T) {
	p := newProject(t)
	rec := &recorder{}
	reporter := progress.NewRecorder()
	o := newOrchestrator(p, reporter, rec.constructor("gen"))
	require.NoError(t, o.Start(context.Background()))

	types := p.write(t, "types.ts", "export type Book = { title: string; isbn: string };\n")

	handled, err := o.Handle(context.Background(), route.Event{Kind: route.Updated, File: types})
	require.NoError(t, err)
	assert.True(t, handled)

	// exactly the two routes importing types.ts
	assert.Equal(t, []string{"authors", "books"}, appended(reporter, "Updating 2 Routes"))

	last := rec.last()
	require.NotNil(t, last.event)
	assert.Equal(t, route.Updated, last.event.Kind)
	assert.Equal(t, types, last.event.File)
}

func TestSharedTypeFileReplaced(t *testing.T) {
	p := newProject(t)
	rec := &recorder{}
	reporter := progress.NewRecorder()
	o := newOrchestrator(p, reporter, rec.constructor("gen"))
	require.NoError(t, o.Start(context.Background()))

	// written next to the original and renamed over it
	tmp := p.write(t, "types.ts.tmp123", "export type Book = { title: string; pages: number };\n")
	types := p.src("types.ts")
	require.NoError(t, os.Rename(tmp, types))

	handled, err := o.Handle(context.Background(), route.Event{Kind: route.Created, File: types})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []string{"authors", "books"}, appended(reporter, "Updating 2 Routes"))
	assert.Len(t, o.Snapshot(), 4)

	last := rec.last()
	require.NotNil(t, last.event)
	assert.Equal(t, route.Updated, last.event.Kind)
	assert.Equal(t, types, last.event.File)
}

func TestRouteFileReplaced(t *testing.T) {
	p := newProject(t)
	reporter := progress.NewRecorder()
	o := newOrchestrator(p, reporter)
	require.NoError(t, o.Start(context.Background()))

	misc := p.write(t, "api/misc/index.ts", `export default defineRoute(({ DELETE }) => [
  DELETE(async (ctx) => {}),
]);
`)
	handled, err := o.Handle(context.Background(), route.Event{Kind: route.Created, File: misc})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []string{"misc"}, appended(reporter, "Updating 1 Routes"))

	for _, e := range o.Snapshot() {
		if e.Route().Name == "misc" {
			assert.Equal(t, []string{"DELETE"}, e.API.Methods)
		}
	}
}

func TestForProjectRootAlias(t *testing.T) {
	p := newProject(t)
	p.write(t, "api/shop/index.ts", `import type { Book } from "~/src/types";

export default defineRoute(({ GET }) => [
  GET<never, Book[]>(async (ctx) => {}),
]);
`)
	reporter := progress.NewRecorder()
	o := ForProject(p.cfg, ProjectOptions{Reporter: reporter, Metrics: metrics.New()})
	require.NoError(t, o.Start(context.Background()))

	handled, err := o.Handle(context.Background(), route.Event{Kind: route.Updated, File: p.src("types.ts")})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []string{"authors", "books", "shop"}, appended(reporter, "Updating 3 Routes"))
}

func TestRouteUpdate(t *testing.T) {
	p := newProject(t)
	reporter := progress.NewRecorder()
	o := newOrchestrator(p, reporter)
	require.NoError(t, o.Start(context.Background()))

	misc := p.write(t, "api/misc/index.ts", `export default defineRoute(({ GET, PUT }) => [
  GET(async (ctx) => {}),
  PUT(async (ctx) => {}),
]);
`)
	handled, err := o.Handle(context.Background(), route.Event{Kind: route.Updated, File: misc})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []string{"misc"}, appended(reporter, "Updating 1 Routes"))

	for _, e := range o.Snapshot() {
		if e.Route().Name == "misc" {
			assert.Equal(t, []string{"GET", "PUT"}, e.API.Methods)
		}
	}
}

func TestRouteUpdateFailureKeepsPreviousRoute(t *testing.T) {
	p := newProject(t)
	rec := &recorder{}
	o := newOrchestrator(p, progress.Discard, rec.constructor("gen"))
	require.NoError(t, o.Start(context.Background()))

	misc := p.write(t, "api/misc/index.ts", "export default 1;\n")
	handled, err := o.Handle(context.Background(), route.Event{Kind: route.Updated, File: misc})
	assert.True(t, handled)
	assert.True(t, errors.HasCode(err, "E201"))

	// generators still ran with the last good route
	assert.Equal(t, 2, rec.count())
	assert.Contains(t, rec.last().routes, "misc")
}

func TestCreate(t *testing.T) {
	p := newProject(t)
	rec := &recorder{}
	reporter := progress.NewRecorder()
	o := newOrchestrator(p, reporter, rec.constructor("gen"))
	require.NoError(t, o.Start(context.Background()))

	file := p.write(t, "api/users/[id]/index.ts", plainRouteSource)
	handled, err := o.Handle(context.Background(), route.Event{Kind: route.Created, File: file})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 5, o.Routes())
	assert.Contains(t, rec.last().routes, "users/[id]")
	assert.Equal(t, route.Created, rec.last().event.Kind)

	var succeeded bool
	for _, u := range reporter.Updates() {
		if u.StartText == "Resolving users/[id] Route" && u.Method == progress.MethodSucceed {
			succeeded = true
		}
	}
	assert.True(t, succeeded)
}

func TestCreateFailureRecoversOnUpdate(t *testing.T) {
	p := newProject(t)
	o := newOrchestrator(p, progress.Discard)
	require.NoError(t, o.Start(context.Background()))

	file := p.write(t, "api/draft/index.ts", "")
	handled, err := o.Handle(context.Background(), route.Event{Kind: route.Created, File: file})
	assert.True(t, handled)
	assert.Error(t, err)
	assert.Equal(t, 4, o.Routes())

	p.write(t, "api/draft/index.ts", plainRouteSource)
	handled, err = o.Handle(context.Background(), route.Event{Kind: route.Updated, File: file})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 5, o.Routes())
}

func TestIgnoredEvents(t *testing.T) {
	p := newProject(t)
	rec := &recorder{}
	o := newOrchestrator(p, progress.Discard, rec.constructor("gen"))
	require.NoError(t, o.Start(context.Background()))

	for _, ev := range []route.Event{
		{Kind: route.Created, File: p.write(t, "api/books/helper.ts", "export const x = 1;\n")},
		{Kind: route.Updated, File: p.src("api/books/helper.ts")},
		{Kind: route.Created, File: p.write(t, "api/index.ts", plainRouteSource)},
		{Kind: route.Deleted, File: p.src("api/books/helper.ts")},
		{Kind: route.Created, File: filepath.Join(p.root, "elsewhere", "api", "x", "index.ts")},
	} {
		handled, err := o.Handle(context.Background(), ev)
		require.NoError(t, err)
		assert.False(t, handled, "%s %s", ev.Kind, ev.File)
	}
	assert.Equal(t, 1, rec.count())
}

func TestDelete(t *testing.T) {
	p := newProject(t)
	rec := &recorder{}
	o := newOrchestrator(p, progress.Discard, rec.constructor("gen"))
	require.NoError(t, o.Start(context.Background()))

	file := p.src("api/misc/index.ts")
	require.NoError(t, os.Remove(file))

	handled, err := o.Handle(context.Background(), route.Event{Kind: route.Deleted, File: file})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 4, o.Routes())
	assert.Equal(t, route.Deleted, rec.last().event.Kind)
}

func TestSnapshotIsolation(t *testing.T) {
	p := newProject(t)
	var seen []string
	mutate := generator.Constructor{
		Name: "mutate",
		Factory: func(context.Context, generator.Env) (generator.Generator, error) {
			return generator.HandlerFunc(func(_ context.Context, entries route.Snapshot, _ *route.Event) error {
				for _, r := range entries.APIRoutes() {
					r.Methods[0] = "DELETE"
					r.Name = "changed"
				}
				return nil
			}), nil
		},
	}
	observe := generator.Constructor{
		Name: "observe",
		Factory: func(context.Context, generator.Env) (generator.Generator, error) {
			return generator.HandlerFunc(func(_ context.Context, entries route.Snapshot, _ *route.Event) error {
				for _, r := range entries.APIRoutes() {
					seen = append(seen, r.Name+" "+r.Methods[0])
				}
				return nil
			}), nil
		},
	}

	o := newOrchestrator(p, progress.Discard, mutate, observe)
	require.NoError(t, o.Start(context.Background()))
	assert.Equal(t, []string{"authors GET", "books GET", "misc POST"}, seen)
}

func TestBuild(t *testing.T) {
	p := newProject(t)
	o := newOrchestrator(p, progress.Discard, failing("bad", assert.AnError))

	err := o.Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "E204"))
	assert.True(t, errors.HasCode(err, "E222"))

	p2 := newProject(t)
	p2.write(t, "api/broken/index.ts", "nothing here\n")
	err = newOrchestrator(p2, progress.Discard).Build(context.Background())
	assert.True(t, errors.HasCode(err, "E201"))

	require.NoError(t, newOrchestrator(newProject(t), progress.Discard).Build(context.Background()))
}

func TestRun(t *testing.T) {
	p := newProject(t)
	rec := &recorder{}
	o := newOrchestrator(p, progress.Discard, rec.constructor("gen"))

	events := make(chan route.Event)
	ready := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- o.Run(context.Background(), events, func() { close(ready) })
	}()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("not ready")
	}

	file := p.write(t, "api/misc/index.ts", plainRouteSource+"\n")
	events <- route.Event{Kind: route.Updated, File: file}
	close(events)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}
	assert.Equal(t, 2, rec.count())
}

func TestRunCancel(t *testing.T) {
	p := newProject(t)
	o := newOrchestrator(p, progress.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	readyCalled := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- o.Run(ctx, make(chan route.Event), func() { close(readyCalled) })
	}()

	<-readyCalled
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}
}
