// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"strings"
	"sync"
	"testing"
)

func TestRegistryExclusivity(t *testing.T) {
	registry := NewRegistry()

	release, ok := registry.Acquire("alice")
	if !ok {
		t.Fatal("acquiring a free username failed")
	}
	if _, ok := registry.Acquire("alice"); ok {
		t.Fatal("second session acquired a busy username")
	}
	if other, ok := registry.Acquire("bob"); !ok {
		t.Fatal("unrelated username blocked")
	} else {
		other()
	}

	release()
	if again, ok := registry.Acquire("alice"); !ok {
		t.Fatal("username still busy after release")
	} else {
		again()
	}
}

func TestRegistryReleaseIdempotent(t *testing.T) {
	registry := NewRegistry()

	release, ok := registry.Acquire("alice")
	if !ok {
		t.Fatal("acquire failed")
	}
	release()
	release()

	// A double release must not free a slot held by a new session.
	second, ok := registry.Acquire("alice")
	if !ok {
		t.Fatal("acquire after release failed")
	}
	release()
	if _, ok := registry.Acquire("alice"); ok {
		t.Fatal("stale release freed a newer session's slot")
	}
	second()
}

func TestRegistryConcurrentAcquire(t *testing.T) {
	registry := NewRegistry()

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan func(), attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if release, ok := registry.Acquire("alice"); ok {
				wins <- release
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners int
	for range wins {
		winners++
	}
	if winners != 1 {
		t.Fatalf("got %d concurrent winners, want exactly 1", winners)
	}
}

func TestClaimHelpMentionsAddress(t *testing.T) {
	help := claimHelp("alice", "quiz.example.com:2222")
	for _, want := range []string{
		`"alice"`,
		"ssh-copy-id -p 2222 alice@quiz.example.com",
		"add-authorized-keys",
	} {
		if !strings.Contains(help, want) {
			t.Errorf("help text missing %q:\n%s", want, help)
		}
	}
}

func TestSplitAdvertised(t *testing.T) {
	tests := []struct {
		address string
		host    string
		port    string
	}{
		{"quiz.example.com:2222", "quiz.example.com", "2222"},
		{"quiz.example.com", "quiz.example.com", "22"},
		{":8022", "localhost", "8022"},
		{"0.0.0.0:8022", "localhost", "8022"},
		{"", "localhost", "22"},
		{"::1", "::1", "22"},
		{"[::1]:2222", "::1", "2222"},
		{"[::]:8022", "localhost", "8022"},
	}
	for _, test := range tests {
		host, port := splitAdvertised(test.address)
		if host != test.host || port != test.port {
			t.Errorf("splitAdvertised(%q) = %q, %q; want %q, %q",
				test.address, host, port, test.host, test.port)
		}
	}
}
