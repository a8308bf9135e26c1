// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity stores the durable username-to-public-key bindings
// behind first-use claiming.
//
// The store is a directory with one file per claimed username, in
// authorized_keys format, so an operator can inspect or pre-provision
// bindings with nothing but a text editor. A claim is a one-shot
// compare-and-swap: TryClaim materializes the record with an atomic
// create-if-absent (hard link of a fully written temp file), so under
// concurrent claim attempts for the same username exactly one caller
// wins. Records are never updated or deleted.
package identity
