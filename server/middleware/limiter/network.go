// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net"
)

// IPv4 and IPv6 address lengths as measured in bits.
const (
	ipv4BitLength = 32
	ipv6BitLength = 128
)

// Prefix lengths clients are grouped by.
const (
	ipv4Prefix = 24
	ipv6Prefix = 64
)

// networkKey returns the network rawIP is accounted to, or "" when rawIP is
// not an address.
func networkKey(rawIP string) string {
	ip := net.ParseIP(rawIP)
	if ip == nil {
		return ""
	}

	var mask net.IPMask
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
		mask = net.CIDRMask(ipv4Prefix, ipv4BitLength)
	} else {
		mask = net.CIDRMask(ipv6Prefix, ipv6BitLength)
	}

	network := net.IPNet{
		IP:   ip.Mask(mask),
		Mask: mask,
	}

	return network.String()
}
