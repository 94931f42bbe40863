package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"

	"github.com/kosmojs/dev/pkg/route"
)

// Handle applies one filesystem event and reruns the generators. It
// reports whether the event concerned the pipeline; ignored events leave
// everything untouched. The returned error joins the failures of this
// cycle, which have already been reported.
func (o *Orchestrator) Handle(ctx context.Context, event route.Event) (bool, error) {
	var (
		handled bool
		err     error
	)

	event.File = filepath.Clean(event.File)
	o.state = StateHandling
	defer func() { o.state = StateIdle }()

	switch event.Kind {
	case route.Created:
		// an atomic save (temp file renamed over the original) arrives as a
		// create of a file the pipeline already knows
		if len(o.related(event.File)) > 0 {
			event.Kind = route.Updated
			handled, err = o.handleUpdate(ctx, event.File)
			break
		}
		handled, err = o.handleCreate(ctx, event.File)
	case route.Updated:
		handled, err = o.handleUpdate(ctx, event.File)
	case route.Deleted:
		handled = o.isRouteFile(event.File)
		if handled {
			o.log.Debugw("route removed, generated files kept", "file", event.File)
		}
	}

	o.metrics.Event(event.Kind.String(), handled)
	if !handled {
		return false, nil
	}

	o.countRoutes()
	return true, stderrors.Join(err, o.runGenerators(ctx, &event))
}

func (o *Orchestrator) isRouteFile(file string) bool {
	_, _, ok := o.factory.Identity().Resolve(file)
	return ok
}

func (o *Orchestrator) handleCreate(ctx context.Context, file string) (bool, error) {
	built := o.factory.Build([]string{file})
	files := built.Files()
	if len(files) == 0 {
		return false, nil
	}

	fileFullpath := files[0]
	res, _ := built.Get(fileFullpath)

	spinner := o.reporter.Start(fmt.Sprintf("Resolving %s Route", res.Name))
	if err := o.resolve(ctx, fileFullpath, res, ""); err != nil {
		spinner.Failed(err)
		return true, err
	}
	o.resolvers.Set(fileFullpath, res)
	spinner.Succeed("")
	return true, nil
}

// related returns the resolvers affected by a change of file: the route
// of file itself and every API route referencing it.
func (o *Orchestrator) related(file string) []string {
	var files []string
	seen := make(map[string]bool)

	if _, ok := o.resolvers.Get(file); ok {
		files = append(files, file)
		seen[file] = true
	}

	for _, f := range o.resolvers.Files() {
		if seen[f] {
			continue
		}
		if e, ok := o.routes[f]; ok && e.Kind == route.KindAPI && e.API.References(file) {
			files = append(files, f)
			seen[f] = true
		}
	}
	return files
}

func (o *Orchestrator) handleUpdate(ctx context.Context, file string) (bool, error) {
	files := o.related(file)
	if len(files) == 0 {
		// a route that failed to resolve when it was created
		if o.isRouteFile(file) {
			return o.handleCreate(ctx, file)
		}
		return false, nil
	}

	var errs []error
	text := fmt.Sprintf("Updating %d Routes", len(files))
	spinner := o.reporter.Start(text)

	for _, f := range files {
		res, _ := o.resolvers.Get(f)
		spinner.Append(res.Name)
		if err := o.resolve(ctx, f, res, file); err != nil {
			errs = append(errs, err)
			spinner.Failed(err)
			spinner = o.reporter.Start(text)
		}
	}

	spinner.Succeed("")
	return true, stderrors.Join(errs...)
}

// Run starts the pipeline, calls ready once the initial pass is done and
// then handles events until ctx is done or events is closed. Failures are
// reported and never end the loop.
func (o *Orchestrator) Run(ctx context.Context, events <-chan route.Event, ready func()) error {
	if err := o.Start(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.log.Debugw("initial pass finished with errors", "error", err)
	}
	if ready != nil {
		ready()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			handled, err := o.Handle(ctx, event)
			if err != nil {
				o.log.Debugw("event handled with errors", "event", event.Kind, "file", event.File, "error", err)
			} else if handled {
				o.log.Debugw("event handled", "event", event.Kind, "file", event.File)
			}
		}
	}
}

// Routes returns the number of resolved routes.
func (o *Orchestrator) Routes() int {
	return len(o.routes)
}
