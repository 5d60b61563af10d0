// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package navigation

import "sync"

// defaultHistoryLimit bounds the entries kept by a MemoryHistory.
const defaultHistoryLimit = 64

// History synchronizes the navigator with the address bar of the client.
type History interface {
	// Current returns the path the client currently shows.
	Current() string

	// Push records a new path.
	Push(path string)

	// Previous returns the path before the current one without changing
	// the history. The second result is false when there is none.
	Previous() (string, bool)

	// Back drops the current path and returns the previous one.
	// The second result is false when there is nothing to go back to.
	Back() (string, bool)
}

// MemoryHistory is a History kept in memory, used for server-side
// sessions. It is safe for concurrent use.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []string
	limit   int
}

// NewMemoryHistory returns an empty history holding at most limit
// entries. A limit <= 0 selects the default.
func NewMemoryHistory(limit int) *MemoryHistory {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	return &MemoryHistory{limit: limit}
}

func (h *MemoryHistory) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return ""
	}

	return h.entries[len(h.entries)-1]
}

func (h *MemoryHistory) Push(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, path)

	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append(h.entries[:0], h.entries[over:]...)
	}
}

func (h *MemoryHistory) Previous() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) < 2 {
		return "", false
	}

	return h.entries[len(h.entries)-2], true
}

func (h *MemoryHistory) Back() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) < 2 {
		return "", false
	}

	h.entries = h.entries[:len(h.entries)-1]

	return h.entries[len(h.entries)-1], true
}

// Len returns the number of recorded entries.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.entries)
}
