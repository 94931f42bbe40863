package dev

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kosmojs/dev/internal/config"
	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/metrics"
	"github.com/kosmojs/dev/internal/progress"
	"github.com/kosmojs/dev/internal/worker"
)

// Options configures a dev session.
type Options struct {
	Config *config.Config

	// Transport defaults to TransportFor(Config).
	Transport worker.Transport

	// Reporter renders worker spinners.
	Reporter progress.Reporter

	Metrics *metrics.Metrics
	// Verbose is passed on to process workers.
	Verbose bool

	// OnReady is called once the initial pass finished, with the status
	// server address.
	OnReady func(addr string)
}

// TransportFor returns the worker transport selected by dev.isolation.
func TransportFor(cfg *config.Config, m *metrics.Metrics, verbose bool) worker.Transport {
	if cfg.Dev.Isolation == config.IsolationGoroutine {
		return worker.Goroutine{Options: worker.Options{Loader: worker.DefaultLoader(), Metrics: m}}
	}
	args := []string{"worker"}
	if verbose {
		args = append(args, "--verbose")
	}
	return worker.Process{Args: args}
}

// Run starts the worker and the status server and blocks until ctx is
// done or the worker exits.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	transport := opts.Transport
	if transport == nil {
		transport = TransportFor(cfg, opts.Metrics, opts.Verbose)
	}

	var serverMetrics *metrics.Metrics
	if cfg.Dev.Metrics {
		serverMetrics = opts.Metrics
	}
	srv := NewServer(ServerOptions{Addr: cfg.DevAddress(), Metrics: serverMetrics})
	if err := srv.Listen(); err != nil {
		return errors.New("E124").WithDetailf("Cannot listen on %s", cfg.DevAddress()).Wrap(err)
	}

	host, err := worker.StartHost(ctx, worker.NewData(cfg), worker.HostOptions{
		Transport: transport,
		Reporter:  opts.Reporter,
		Metrics:   opts.Metrics,
		OnMessage: func(m worker.Message) {
			if m.Ready {
				srv.SetReady()
			}
			srv.Hub().Broadcast(m)
		},
	})
	if err != nil {
		srv.closeListener()
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(ctx)
	})

	g.Go(func() error {
		select {
		case <-host.Ready():
			if opts.OnReady != nil {
				opts.OnReady(srv.Addr())
			}
		case <-host.Done():
		case <-ctx.Done():
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-ctx.Done():
			host.Terminate()
			return nil
		case <-host.Done():
			return errors.New("E232").Wrap(host.Err())
		}
	})

	return g.Wait()
}
