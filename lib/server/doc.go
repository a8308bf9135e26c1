// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package server runs the SSH front of mcqd.
//
// Authentication implements first-use claiming. SSH clients offer
// their public keys before falling back to password auth, so the
// password callback can see the key the client offered earlier in
// the same connection: presenting the shared claim secret as the
// password on an unclaimed username claims that username with the
// offered key, atomically, with exactly one winner under concurrent
// attempts. A claimed username accepts only its key; the secret is
// never honored again.
//
// Clients with no key at all still get an onboarding path, as the
// original service provided: the secret admits them to an
// instructional screen (or to the add-authorized-keys command, which
// reads a public key from stdin and claims with it) without ever
// reaching the questionnaire.
//
// Established sessions hand their PTY to a lib/quizui program via the
// wish bubbletea integration. A per-username registry keeps a second
// concurrent login from racing the first on the same answer record.
package server
