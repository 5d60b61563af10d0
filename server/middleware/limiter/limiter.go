// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"codeberg.org/filekit/filekit/core/lrucache"
	"codeberg.org/filekit/filekit/core/metrics"
	"codeberg.org/filekit/filekit/server/utils"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "RateLimit-Limit"
	HeaderRateLimitRemaining = "RateLimit-Remaining"
	HeaderRateLimitReset     = "RateLimit-Reset"
)

var errInvalidRate = errors.New("limiter rate and burst must be positive")

// Limiter holds one token bucket per client network.
type Limiter struct {
	limit   rate.Limit
	burst   int
	buckets *lrucache.Cache[*rate.Limiter]

	// Exempt reports paths that are never limited. May be nil.
	Exempt func(path string) bool
}

// New returns a Limiter refilling requestsPerMinute tokens per minute into
// buckets holding up to burst tokens. At most capacity networks are tracked.
func New(requestsPerMinute, burst, capacity int) (*Limiter, error) {
	if requestsPerMinute <= 0 || burst <= 0 {
		return nil, errInvalidRate
	}

	buckets, err := lrucache.New[*rate.Limiter](capacity)
	if err != nil {
		return nil, err
	}

	return &Limiter{
		limit:   rate.Limit(float64(requestsPerMinute) / time.Minute.Seconds()),
		burst:   burst,
		buckets: buckets,
	}, nil
}

// Evaluate is the middleware entry point. Requests over the limit of their
// network are answered with 429 Too Many Requests and a Retry-After header.
func (l *Limiter) Evaluate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if l.Exempt != nil && l.Exempt(r.URL.Path) {
		next.ServeHTTP(w, r)

		return
	}

	key := networkKey(utils.ClientIP(r))
	if key == "" {
		// Unix socket peers have no address to account to.
		next.ServeHTTP(w, r)

		return
	}

	bucket, _ := l.buckets.GetOrAdd(key, func() *rate.Limiter {
		return rate.NewLimiter(l.limit, l.burst)
	})

	now := time.Now()

	reservation := bucket.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)

		retryAfter := strconv.Itoa(int(math.Ceil(delay.Seconds())))

		w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(l.burst))
		w.Header().Set(HeaderRateLimitRemaining, "0")
		w.Header().Set(HeaderRateLimitReset, retryAfter)
		w.Header().Set("Retry-After", retryAfter)

		metrics.RateLimited.Inc()

		log.Warn().
			Str("network", key).
			Str("path", r.URL.Path).
			Msg("Request blocked, rate limit exceeded")

		http.Error(w, "Too many requests", http.StatusTooManyRequests)

		return
	}

	l.addHeaders(w, bucket, now)

	next.ServeHTTP(w, r)
}

// addHeaders reports the state of bucket after the current request.
func (l *Limiter) addHeaders(w http.ResponseWriter, bucket *rate.Limiter, now time.Time) {
	tokens := bucket.TokensAt(now)
	remaining := max(0, int(math.Min(float64(l.burst), tokens)))

	var reset int64
	if deficit := float64(l.burst) - tokens; deficit > 0 {
		reset = int64(math.Ceil(deficit / float64(l.limit)))
	}

	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(l.burst))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(remaining))
	w.Header().Set(HeaderRateLimitReset, strconv.FormatInt(reset, 10))
}

// Tracked returns the number of networks currently holding a bucket.
func (l *Limiter) Tracked() int {
	return l.buckets.Len()
}
