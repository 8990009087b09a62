// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import "golang.org/x/net/idna"

// idnaLookup converts an internationalized hostname to its ASCII
// (punycode) form using the same profile browsers use for SNI, so that
// role-pattern matching in [detectRole] works on a normalized string
// regardless of how the ClientHello encoded it.
func idnaLookup(host string) (string, error) {
	return idna.Lookup.ToASCII(host)
}
