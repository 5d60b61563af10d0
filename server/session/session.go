// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package session keeps one navigator per browser.

A browser is identified by a random session ID carried in a signed cookie. Its navigator and history live in
a bounded LRU cache, so idle sessions are dropped once capacity is reached
and the next request from that browser starts from an idle state.
*/
package session

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"codeberg.org/filekit/filekit/core/authenticated"
	"codeberg.org/filekit/filekit/core/lrucache"
	"codeberg.org/filekit/filekit/core/metrics"
	"codeberg.org/filekit/filekit/core/navigation"
	"codeberg.org/filekit/filekit/core/routetable"
	"codeberg.org/filekit/filekit/server/utils"
)

var errNoSigner = errors.New("session store requires a token signer")

// Options configures a Store.
type Options struct {
	CookieName   string
	Capacity     int
	HistoryLimit int
	Signer       *authenticated.Signer
}

// Session is the navigation state of one browser.
type Session struct {
	ID        string
	Navigator *navigation.Navigator
	History   *navigation.MemoryHistory
}

// Store hands out sessions keyed by cookie.
type Store struct {
	opts      Options
	table     *routetable.Table
	activator navigation.Activator
	sessions  *lrucache.Cache[*Session]
}

// NewStore creates a Store whose navigators resolve against table and load
// views through activator.
func NewStore(opts Options, table *routetable.Table, activator navigation.Activator) (*Store, error) {
	if opts.Signer == nil {
		return nil, errNoSigner
	}

	sessions, err := lrucache.New(opts.Capacity, lrucache.WithEvictCallback(func(id string, _ *Session) {
		log.Debug().
			Str("session", id).
			Msg("Evicted idle navigation session")
	}))
	if err != nil {
		return nil, err
	}

	return &Store{
		opts:      opts,
		table:     table,
		activator: activator,
		sessions:  sessions,
	}, nil
}

// Get returns the session for r, creating it when needed. A new cookie is
// set on w when r carries no valid session token.
func (s *Store) Get(w http.ResponseWriter, r *http.Request) *Session {
	id := s.cookieID(r)
	if id == "" {
		id = uuid.NewString()
		s.setCookie(w, r, id)
	}

	sess, _ := s.sessions.GetOrAdd(id, func() *Session {
		history := navigation.NewMemoryHistory(s.opts.HistoryLimit)

		return &Session{
			ID:        id,
			Navigator: navigation.New(s.table, s.activator, history),
			History:   history,
		}
	})

	metrics.Sessions.Set(float64(s.sessions.Len()))

	return sess
}

// Lookup returns an existing session without creating one.
func (s *Store) Lookup(r *http.Request) (*Session, bool) {
	id := s.cookieID(r)
	if id == "" {
		return nil, false
	}

	return s.sessions.Get(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.sessions.Len()
}

// cookieID returns the session ID carried by r, or "" when the cookie is
// missing, forged or expired.
func (s *Store) cookieID(r *http.Request) string {
	cookie, err := r.Cookie(s.opts.CookieName)
	if err != nil {
		return ""
	}

	id, err := s.opts.Signer.Verify(cookie.Value)
	if err != nil {
		log.Debug().
			Err(err).
			Msg("Ignoring session cookie")

		return ""
	}

	if _, err := uuid.Parse(id); err != nil {
		return ""
	}

	return id
}

func (s *Store) setCookie(w http.ResponseWriter, r *http.Request, id string) {
	path := s.table.Base()
	if path == "" {
		path = "/"
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    s.opts.Signer.Sign(id),
		Path:     path,
		MaxAge:   int(s.opts.Signer.TTL().Seconds()),
		HttpOnly: true,
		Secure:   utils.IsConnectionSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
}
