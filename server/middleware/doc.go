// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package middleware provides the HTTP request pipeline of filekit.

Every middleware has the [Middleware] signature and is chained by
router.RegisterMiddleware. Handlers that may fail are wrapped by [CatchError],
which buffers their output and renders an error page on failure.
*/
package middleware
