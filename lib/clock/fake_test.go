// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeNow(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := Fake(start)

	if !clock.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", clock.Now(), start)
	}
	clock.Advance(90 * time.Second)
	if !clock.Now().Equal(start.Add(90 * time.Second)) {
		t.Errorf("Now() after advance = %v", clock.Now())
	}
}

func TestRealNowMoves(t *testing.T) {
	clock := Real()
	before := time.Now().Add(-time.Minute)
	if clock.Now().Before(before) {
		t.Errorf("Real().Now() = %v, implausibly old", clock.Now())
	}
}
