// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils

import (
	"net"
	"net/http"
	"strings"
)

// IsConnectionSecure returns whether a connection is secure.
//
// X-Forwarded-Proto is trusted only from private or loopback peers, which
// covers the usual reverse proxy deployments. A proxy with a public address
// is treated as insecure.
func IsConnectionSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}

	peer := remoteIP(r)
	if peer == nil {
		return false
	}

	return (peer.IsPrivate() || peer.IsLoopback()) && r.Header.Get("X-Forwarded-Proto") == "https"
}

// ClientIP returns the address requests from r should be accounted to.
//
// The leftmost X-Forwarded-For entry is used when the direct peer is a
// private or loopback proxy; otherwise the peer address itself.
func ClientIP(r *http.Request) string {
	peer := remoteIP(r)
	if peer == nil {
		return r.RemoteAddr
	}

	if peer.IsPrivate() || peer.IsLoopback() {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
	}

	return peer.String()
}

func remoteIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	return net.ParseIP(host)
}
