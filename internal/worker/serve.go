package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/logger"
	"github.com/kosmojs/dev/internal/metrics"
	"github.com/kosmojs/dev/internal/orchestrator"
	"github.com/kosmojs/dev/internal/progress"
	"github.com/kosmojs/dev/internal/watcher"
)

// Options configures the worker side of a session.
type Options struct {
	Loader  Loader
	Metrics *metrics.Metrics
}

// Serve runs a worker session. It reads Data from in, writes protocol
// messages to out and returns when ctx is done. A failure to start, or a
// panic, is reported as an error message before Serve returns it.
func Serve(ctx context.Context, in io.Reader, out io.Writer, opts Options) (err error) {
	enc := NewEncoder(out)
	log := logger.Named("worker")

	report := func(err error) {
		if encErr := enc.Encode(Message{Error: NewErrorInfo(err)}); encErr != nil {
			log.Warnw("failed to report error", "error", err, "cause", encErr)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
			report(err)
		}
	}()

	var data Data
	if err := json.NewDecoder(in).Decode(&data); err != nil {
		err = errors.New("E230").WithDetail("invalid worker data").Wrap(err)
		report(err)
		return err
	}

	cfg := data.ProjectConfig()
	pipeline, err := opts.Loader.Load(data.GeneratorModules, data.FormatterModules)
	if err != nil {
		err = errors.FromError(err, "E230")
		report(err)
		return err
	}

	w, err := watcher.New(watcher.FromConfig(cfg))
	if err != nil {
		report(err)
		return err
	}
	defer w.Close()

	reporter := &progress.Emitter{
		Emit: func(u progress.Update) {
			if err := enc.Encode(Message{Spinner: &u}); err != nil {
				log.Debugw("failed to send spinner update", "error", err)
			}
		},
		OnError: report,
	}

	orch := orchestrator.ForProject(cfg, orchestrator.ProjectOptions{
		Generators: pipeline.Generators,
		Formatters: pipeline.Formatters,
		Reporter:   reporter,
		Metrics:    opts.Metrics,
	})

	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.Go(func() error {
		return w.Run(ctx)
	})
	g.Go(func() (err error) {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
				report(err)
			}
		}()
		return orch.Run(ctx, w.Events(), func() {
			log.Debugw("worker ready", "routes", orch.Routes())
			if err := enc.Encode(Message{Ready: true}); err != nil {
				log.Warnw("failed to send ready", "error", err)
			}
		})
	})

	return g.Wait()
}

func panicError(r any) error {
	return errors.New("E233").
		WithDetail(fmt.Sprint(r) + "\n" + string(debug.Stack())).
		Wrap(fmt.Errorf("panic: %v", r))
}
