// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package loader activates routes by running their view loaders on demand.

Each route is loaded at most once per process: a successful result is
cached for the lifetime of the Loader, and concurrent activations of a
route whose load is in flight wait for that load instead of starting
another one. Failures are not cached, so the next activation retries.

A load is never aborted by the caller that started it. When the caller's
context ends first, the caller gets a *LoadError but the load runs to
completion and still fills the cache.
*/
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"codeberg.org/filekit/filekit/core/audit"
	"codeberg.org/filekit/filekit/core/metrics"
	"codeberg.org/filekit/filekit/core/routetable"
	"codeberg.org/filekit/filekit/views"
)

// preloadConcurrency bounds the number of loads started by Preload.
const preloadConcurrency = 4

var (
	// ErrLoadFailure is matched by every *LoadError.
	ErrLoadFailure = errors.New("view load failed")

	errNilView = errors.New("loader returned no view")
)

// LoadError reports a failed activation.
type LoadError struct {
	Route string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%v for route %q: %v", ErrLoadFailure, e.Route, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoadFailure, e.Err}
}

// Loader memoizes view loads per route name.
type Loader struct {
	mu     sync.RWMutex
	cache  map[string]views.View
	flight singleflight.Group

	timeout time.Duration
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout bounds how long Activate waits for a load. Zero means no
// bound. The load itself is not cancelled when the bound is hit.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.timeout = d
	}
}

// New creates an empty Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		cache: make(map[string]views.View),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Activate returns the view for def, loading it if needed.
func (l *Loader) Activate(ctx context.Context, def *routetable.Definition) (views.View, error) {
	if v, ok := l.cached(def.Name); ok {
		metrics.Activations.WithLabelValues(def.Name, metrics.SourceCache).Inc()

		return v, nil
	}

	metrics.Activations.WithLabelValues(def.Name, metrics.SourceFlight).Inc()

	if l.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	// The load outlives the caller that happens to start it.
	loadCtx := context.WithoutCancel(ctx)

	results := l.flight.DoChan(def.Name, func() (any, error) {
		return l.load(loadCtx, def)
	})

	select {
	case res := <-results:
		if res.Err != nil {
			return nil, &LoadError{Route: def.Name, Err: res.Err}
		}

		v, _ := res.Val.(views.View)

		return v, nil
	case <-ctx.Done():
		return nil, &LoadError{Route: def.Name, Err: ctx.Err()}
	}
}

// Loaded reports whether the view for the route called name is cached.
func (l *Loader) Loaded(name string) bool {
	_, ok := l.cached(name)

	return ok
}

// Preload activates every route in table concurrently.
//
// It returns the first failure, but every load that succeeded stays cached.
func (l *Loader) Preload(ctx context.Context, table *routetable.Table) error {
	var g errgroup.Group

	g.SetLimit(preloadConcurrency)

	for _, route := range table.Routes() {
		def, _ := table.Lookup(route.Name)

		g.Go(func() error {
			_, err := l.Activate(ctx, def)

			return err
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to preload views: %w", err)
	}

	log.Info().
		Int("routes", len(table.Routes())).
		Msg("Preloaded views")

	return nil
}

func (l *Loader) cached(name string) (views.View, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	v, ok := l.cache[name]

	return v, ok
}

// load runs inside the single flight for def.Name.
func (l *Loader) load(ctx context.Context, def *routetable.Definition) (views.View, error) {
	// A flight that finished between the cache check and DoChan already
	// stored the view.
	if v, ok := l.cached(def.Name); ok {
		return v, nil
	}

	span := audit.Span{
		Destination: audit.ToLoader,
		Method:      "LOAD",
		Route:       def.Name,
	}

	ctx = span.Begin(ctx)

	v, err := invoke(ctx, def.Loader)
	if err == nil && v == nil {
		err = errNilView
	}

	span.End()
	span.Error = err
	span.Log()

	metrics.ViewLoadDuration.WithLabelValues(def.Name).Observe(span.Duration().Seconds())

	if err != nil {
		metrics.ViewLoads.WithLabelValues(def.Name, metrics.OutcomeError).Inc()

		log.Warn().
			Err(err).
			Str("route", def.Name).
			Msg("View load failed")

		return nil, err
	}

	metrics.ViewLoads.WithLabelValues(def.Name, metrics.OutcomeOK).Inc()

	l.mu.Lock()
	l.cache[def.Name] = v
	l.mu.Unlock()

	return v, nil
}

// invoke calls loadFunc, turning a panic into an error.
func invoke(ctx context.Context, loadFunc views.LoadFunc) (v views.View, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = fmt.Errorf("loader panicked: %v", r)
		}
	}()

	return loadFunc(ctx)
}
