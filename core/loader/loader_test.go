// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package loader

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/filekit/filekit/core/routetable"
	"codeberg.org/filekit/filekit/views"
)

type stubView struct{ name string }

func (v *stubView) Name() string  { return v.name }
func (v *stubView) Title() string { return v.name }

func (v *stubView) Render(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, v.name)

	return err
}

// countingLoader counts calls and blocks each call until release is closed,
// when release is non-nil.
type countingLoader struct {
	calls   atomic.Int32
	release chan struct{}
	fail    atomic.Bool
}

func (c *countingLoader) load(name string) views.LoadFunc {
	return func(ctx context.Context) (views.View, error) {
		c.calls.Add(1)

		if c.release != nil {
			<-c.release
		}

		if c.fail.Load() {
			return nil, errors.New("network unreachable")
		}

		return &stubView{name: name}, nil
	}
}

func definition(name string, f views.LoadFunc) *routetable.Definition {
	return &routetable.Definition{Path: "/" + name, Name: name, Loader: f}
}

func TestActivateCachesFirstLoad(t *testing.T) {
	t.Parallel()

	counter := &countingLoader{}
	def := definition("image-compress", counter.load("image-compress"))
	l := New()

	first, err := l.Activate(context.Background(), def)
	require.NoError(t, err)

	second, err := l.Activate(context.Background(), def)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), counter.calls.Load())
	assert.True(t, l.Loaded("image-compress"))
	assert.False(t, l.Loaded("pdfCompress"))
}

func TestConcurrentActivationsShareOneLoad(t *testing.T) {
	t.Parallel()

	counter := &countingLoader{release: make(chan struct{})}
	def := definition("audio-visualization", counter.load("audio-visualization"))
	l := New()

	const callers = 8

	var (
		wg      sync.WaitGroup
		results [callers]views.View
		errs    [callers]error
	)

	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i], errs[i] = l.Activate(context.Background(), def)
		}()
	}

	// Let every caller join the flight before the load finishes.
	require.Eventually(t, func() bool { return counter.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(counter.release)
	wg.Wait()

	assert.Equal(t, int32(1), counter.calls.Load())

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
}

func TestFailedLoadIsRetried(t *testing.T) {
	t.Parallel()

	counter := &countingLoader{}
	counter.fail.Store(true)

	def := definition("p-score-edit", counter.load("p-score-edit"))
	l := New()

	v, err := l.Activate(context.Background(), def)
	assert.Nil(t, v)
	require.ErrorIs(t, err, ErrLoadFailure)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "p-score-edit", loadErr.Route)
	assert.False(t, l.Loaded("p-score-edit"))

	counter.fail.Store(false)

	v, err = l.Activate(context.Background(), def)
	require.NoError(t, err)
	assert.Equal(t, "p-score-edit", v.Name())
	assert.Equal(t, int32(2), counter.calls.Load())
}

func TestCallerTimeoutDoesNotAbortLoad(t *testing.T) {
	t.Parallel()

	counter := &countingLoader{release: make(chan struct{})}
	def := definition("pdfCompress", counter.load("pdfCompress"))
	l := New(WithTimeout(10 * time.Millisecond))

	_, err := l.Activate(context.Background(), def)
	require.ErrorIs(t, err, ErrLoadFailure)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(counter.release)

	require.Eventually(t, func() bool { return l.Loaded("pdfCompress") }, time.Second, time.Millisecond)

	_, err = l.Activate(context.Background(), def)
	require.NoError(t, err)
	assert.Equal(t, int32(1), counter.calls.Load())
}

func TestCancelledCallerDoesNotAbortLoad(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})

	var loadCtxErr atomic.Value

	def := definition("pngToIcon", func(ctx context.Context) (views.View, error) {
		close(started)
		<-release

		if err := ctx.Err(); err != nil {
			loadCtxErr.Store(err)
		}

		return &stubView{name: "pngToIcon"}, nil
	})

	l := New()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		_, err := l.Activate(ctx, def)
		done <- err
	}()

	<-started
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(release)
	require.Eventually(t, func() bool { return l.Loaded("pngToIcon") }, time.Second, time.Millisecond)
	assert.Nil(t, loadCtxErr.Load())
}

func TestPanickingLoaderBecomesLoadError(t *testing.T) {
	t.Parallel()

	def := definition("image-watermark", func(context.Context) (views.View, error) {
		panic("boom")
	})

	_, err := New().Activate(context.Background(), def)
	require.ErrorIs(t, err, ErrLoadFailure)
	assert.Contains(t, err.Error(), "boom")
}

func TestNilViewIsLoadError(t *testing.T) {
	t.Parallel()

	def := definition("home", func(context.Context) (views.View, error) {
		return nil, nil
	})

	l := New()

	_, err := l.Activate(context.Background(), def)
	require.ErrorIs(t, err, ErrLoadFailure)
	require.ErrorIs(t, err, errNilView)
	assert.False(t, l.Loaded("home"))
}

func TestPreload(t *testing.T) {
	t.Parallel()

	counter := &countingLoader{}

	var routes []routetable.Definition

	for _, desc := range routetable.DefaultDescriptors() {
		routes = append(routes, routetable.Definition{
			Path: desc.Path, Name: desc.Name, Loader: counter.load(desc.Name),
		})
	}

	broken := errors.New("broken module")
	routes = append(routes, routetable.Definition{
		Path: "/broken", Name: "broken",
		Loader: func(context.Context) (views.View, error) { return nil, broken },
	})

	table, err := routetable.Configure("", routes)
	require.NoError(t, err)

	l := New()

	err = l.Preload(context.Background(), table)
	require.ErrorIs(t, err, broken)

	for _, desc := range routetable.DefaultDescriptors() {
		assert.True(t, l.Loaded(desc.Name), desc.Name)
	}

	assert.False(t, l.Loaded("broken"))
	assert.Equal(t, int32(8), counter.calls.Load())
}
