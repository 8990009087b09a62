// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import "net/netip"

// Role is the inferred function of a session's remote endpoint (§4.5).
type Role string

const (
	RoleSMDPPlus Role = "SM-DP+"
	RoleSMDS     Role = "SM-DS"
	RoleEIM      Role = "eIM"
	RoleDPPlus   Role = "DP+"
	RoleTAC      Role = "TAC"
	RoleDNS      Role = "DNS"
	RoleUnknown  Role = "Unknown"
)

// detectRole resolves a session's role using the priority order from
// §4.5: SNI from the reassembled TLS ClientHello, then port, then the
// configured IP/CIDR table, else Unknown.
//
// sni is the ClientHello SNI extracted from at most
// cfg.RoleDetectionItemCap items of the session's ME→SIM stream (the
// caller is responsible for that cap; see [sessionClientHelloSNI]).
func detectRole(cfg *AnalysisConfig, sni string, port int, ips []string) Role {
	if sni != "" {
		normalized := normalizeHostname(sni)
		for _, rule := range cfg.HostnameRoles {
			if containsFold(normalized, rule.Pattern) {
				return rule.Role
			}
		}
	}
	if port == 53 {
		return RoleDNS
	}
	for _, ip := range ips {
		addr, err := netip.ParseAddr(ip)
		if err != nil {
			continue
		}
		for _, rule := range cfg.IPRoles {
			prefix, err := netip.ParsePrefix(rule.CIDR)
			if err != nil {
				continue
			}
			if prefix.Contains(addr) {
				return rule.Role
			}
		}
	}
	return RoleUnknown
}

// normalizeHostname case-folds and punycode-normalizes a SNI hostname
// before substring role matching, so that "TAC.EXAMPLE.COM" and its
// internationalized-domain variants match the same ASCII patterns in
// [AnalysisConfig.HostnameRoles].
func normalizeHostname(host string) string {
	if ascii, err := idnaLookup(host); err == nil && ascii != "" {
		return ascii
	}
	return host
}

// Transport is the inferred transport of a BIP channel (§3, ChannelSession).
type Transport string

const (
	TransportTCP     Transport = "TCP"
	TransportUDP     Transport = "UDP"
	TransportUnknown Transport = "Unknown"
)

// transportForPort classifies a port per §4.4: TCP for 443/80 and other
// generic TCP indicators, UDP for 53, Unknown otherwise.
func transportForPort(port int) Transport {
	switch port {
	case 443, 80, 8080:
		return TransportTCP
	case 53:
		return TransportUDP
	case 0:
		return TransportUnknown
	default:
		return TransportUnknown
	}
}
