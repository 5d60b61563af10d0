// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package limiter is a middleware that rate limits HTTP requests per client network.

Clients are grouped by network (a /24 for IPv4, a /64 for IPv6) and each
network draws from its own token bucket. Buckets live in a bounded LRU cache,
so the least recently seen networks are forgotten once capacity is reached.
*/
package limiter
