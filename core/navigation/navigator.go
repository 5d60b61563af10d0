// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package navigation tracks the active view of one client.

Every navigation takes a generation number when it is issued. Results are
committed only while their generation is still the newest, so a slow
navigation that finishes after a later one is discarded instead of
overwriting it. Discarding a result does not cancel the view load behind
it; package loader lets that load finish and cache its view.
*/
package navigation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"codeberg.org/filekit/filekit/core/metrics"
	"codeberg.org/filekit/filekit/core/routetable"
	"codeberg.org/filekit/filekit/views"
)

// ErrNoHistory is returned by Back when there is no previous path.
var ErrNoHistory = errors.New("no previous path in history")

// Activator loads the view of a resolved route. *loader.Loader implements it.
type Activator interface {
	Activate(ctx context.Context, def *routetable.Definition) (views.View, error)
}

// historyMode says how a committed navigation updates the history.
type historyMode int

const (
	keepHistory historyMode = iota
	pushHistory
	popHistory
)

// Navigator owns one NavigationState. It is safe for concurrent use.
type Navigator struct {
	table     *routetable.Table
	activator Activator
	history   History

	generation atomic.Uint64

	mu          sync.Mutex
	state       State
	subscribers map[int]chan State
	nextSubID   int
}

// New returns an idle Navigator. history may be nil.
func New(table *routetable.Table, activator Activator, history History) *Navigator {
	return &Navigator{
		table:       table,
		activator:   activator,
		history:     history,
		subscribers: make(map[int]chan State),
	}
}

// Navigate resolves path, activates its view and commits the result.
//
// It returns a *routetable.NotFoundError or a *loader.LoadError when the
// navigation fails, and ErrSuperseded when a newer navigation was issued
// meanwhile. In all three cases the previously committed view is kept.
func (n *Navigator) Navigate(ctx context.Context, path string) (State, error) {
	return n.navigate(ctx, path, pushHistory)
}

// Back navigates to the previous path in the history without pushing.
// The current entry is dropped only when that navigation commits.
func (n *Navigator) Back(ctx context.Context) (State, error) {
	if n.history == nil {
		return n.State(), ErrNoHistory
	}

	path, ok := n.history.Previous()
	if !ok {
		return n.State(), ErrNoHistory
	}

	return n.navigate(ctx, path, popHistory)
}

// Follow navigates to every path received on changes, until changes is
// closed or ctx ends. The paths are assumed to already be in the history.
func (n *Navigator) Follow(ctx context.Context, changes <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-changes:
			if !ok {
				return
			}

			if _, err := n.navigate(ctx, path, keepHistory); err != nil {
				log.Debug().
					Err(err).
					Str("path", path).
					Msg("Followed navigation did not commit")
			}
		}
	}
}

// State returns a consistent snapshot.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.state
}

// Subscribe returns a channel receiving the state after every commit or
// failure. Slow readers only see the latest state. The returned function
// unsubscribes and closes the channel.
func (n *Navigator) Subscribe() (<-chan State, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextSubID
	n.nextSubID++

	ch := make(chan State, 1)
	n.subscribers[id] = ch

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()

			delete(n.subscribers, id)
			close(ch)
		})
	}
}

func (n *Navigator) navigate(ctx context.Context, path string, mode historyMode) (State, error) {
	gen := n.generation.Add(1)

	n.enter(gen, Resolving)

	def, err := n.table.Resolve(path)
	if err != nil {
		return n.fail(gen, err, metrics.OutcomeNotFound)
	}

	n.enter(gen, Activating)

	v, err := n.activator.Activate(ctx, def)
	if err != nil {
		return n.fail(gen, err, metrics.OutcomeError)
	}

	return n.commit(gen, path, def, v, mode)
}

// enter moves to phase if gen is still the newest navigation.
func (n *Navigator) enter(gen uint64, phase Phase) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if gen != n.generation.Load() {
		return
	}

	n.state.Phase = phase
	n.state.Generation = gen
	n.state.Err = nil
}

func (n *Navigator) fail(gen uint64, err error, outcome string) (State, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if gen != n.generation.Load() {
		metrics.Navigations.WithLabelValues(metrics.OutcomeSuperseded).Inc()

		return n.state, ErrSuperseded
	}

	metrics.Navigations.WithLabelValues(outcome).Inc()

	n.state.Phase = Failed
	n.state.Generation = gen
	n.state.Err = err
	n.notifyLocked()

	return n.state, err
}

func (n *Navigator) commit(gen uint64, path string, def *routetable.Definition, v views.View, mode historyMode) (State, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if gen != n.generation.Load() {
		metrics.Navigations.WithLabelValues(metrics.OutcomeSuperseded).Inc()

		log.Debug().
			Str("path", path).
			Uint64("generation", gen).
			Msg("Discarding superseded navigation")

		return n.state, ErrSuperseded
	}

	metrics.Navigations.WithLabelValues(metrics.OutcomeOK).Inc()

	n.state = State{
		Phase:      Active,
		Path:       path,
		Route:      def.Name,
		View:       v,
		Generation: gen,
	}

	if n.history != nil {
		n.updateHistoryLocked(path, mode)
	}

	n.notifyLocked()

	return n.state, nil
}

func (n *Navigator) updateHistoryLocked(path string, mode historyMode) {
	switch mode {
	case pushHistory:
		if n.history.Current() != path {
			n.history.Push(path)
		}
	case popHistory:
		// Another Back may have committed first; only pop the entry this
		// navigation was aiming at.
		if prev, ok := n.history.Previous(); ok && prev == path {
			n.history.Back()
		}
	case keepHistory:
	}
}

func (n *Navigator) notifyLocked() {
	for _, ch := range n.subscribers {
		select {
		case ch <- n.state:
		default:
			// Replace the unread state with the newer one.
			select {
			case <-ch:
			default:
			}

			select {
			case ch <- n.state:
			default:
			}
		}
	}
}
