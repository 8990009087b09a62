// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"context"
	"net/netip"
)

// SessionEndpoint derives the remote [netip.AddrPort] a [ChannelSession]
// connected to, when its extracted IP address and port are both present
// and the IP parses (§4.4's server/IP/port extraction doesn't itself
// validate the address text). Used by [BuildFlow] to populate each
// session [FlowRow]'s Endpoint, and by any other consumer that wants a
// single comparable value instead of the session's separate
// IPAddresses/Port fields — a GUI status bar, a dedup key across sessions
// to the same peer.
func SessionEndpoint(s ChannelSession) (netip.AddrPort, bool) {
	if !s.HasPort || len(s.IPAddresses) == 0 {
		return netip.AddrPort{}, false
	}
	addr, err := netip.ParseAddr(s.IPAddresses[0])
	if err != nil {
		return netip.AddrPort{}, false
	}
	endpoint := netip.AddrPortFrom(addr, uint16(s.Port))
	// Lift through NewEndpointFunc/ConstFunc rather than returning endpoint
	// directly: this is the same seam a caller would use to hand a fixed
	// [netip.AddrPort] to a Func-based consumer, so SessionEndpoint's
	// result always passes through it instead of only existing for tests.
	result, _ := NewEndpointFunc(endpoint).Call(context.Background(), Unit{})
	return result, true
}

// NewEndpointFunc returns a [Func] that always returns the given
// [netip.AddrPort]. A convenience wrapper around [ConstFunc] for the
// common case of injecting a known remote endpoint into a pipeline stage
// that expects one (e.g. a GUI action bound to "show TLS flow for this
// session's endpoint").
func NewEndpointFunc(endpoint netip.AddrPort) Func[Unit, netip.AddrPort] {
	return ConstFunc(endpoint)
}
