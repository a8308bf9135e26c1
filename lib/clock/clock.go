// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for
// testability.
//
// Production code accepts a Clock parameter instead of calling
// time.Now directly. Real() provides standard library behavior;
// Fake() provides a deterministic clock for tests (answer records
// carry a last-modified timestamp, and tests want to assert its
// exact value).
package clock

import "time"

// Clock abstracts the time operations this service uses.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
