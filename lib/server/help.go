// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"net"
)

// claimHelp is shown to connections that presented the claim secret
// without offering a public key: they have proven they belong here
// but have no credential to bind yet.
func claimHelp(user, advertisedAddress string) string {
	host, port := splitAdvertised(advertisedAddress)
	return fmt.Sprintf(`You are not using public key authentication.
To claim the username %q, bind your key with one of:

    ssh-copy-id -p %s %s@%s
    ssh -p %s %s@%s add-authorized-keys < ~/.ssh/id_ed25519.pub

(use the claim secret as the password), then reconnect normally.
`, user, port, user, host, port, user, host)
}

// splitAdvertised breaks a configured external address into host and
// port for display. A bare hostname (or bare IPv6 address) implies
// the standard SSH port; an empty or wildcard host falls back to
// localhost, which at least produces a copy-pasteable command on the
// box itself.
func splitAdvertised(address string) (host, port string) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		host, port = address, "22"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return host, port
}
