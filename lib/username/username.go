// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package username validates SSH usernames before they touch the
// filesystem. Both the identity store and the answer store key their
// on-disk records by username, so a username must be a safe single
// path element.
package username

import (
	"fmt"
	"strings"
)

// MaxLength is the longest accepted username. Generous for human
// names, short enough to never approach filesystem limits.
const MaxLength = 64

// Validate reports whether name is acceptable as a record key: ASCII
// letters, digits, dot, dash, and underscore, not starting with a dot
// or dash, and at most MaxLength bytes. The empty string is invalid.
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("empty username")
	}
	if len(name) > MaxLength {
		return fmt.Errorf("username longer than %d bytes", MaxLength)
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "-") {
		return fmt.Errorf("username %q starts with %q", name, name[:1])
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '_':
		default:
			return fmt.Errorf("username %q contains disallowed character %q", name, r)
		}
	}
	return nil
}
