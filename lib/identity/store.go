// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"

	"github.com/bureau-foundation/mcqd/lib/username"
)

var (
	// ErrAlreadyClaimed is returned by TryClaim when the username has
	// an existing record. Claims are permanent; the loser of a claim
	// race sees this same error.
	ErrAlreadyClaimed = errors.New("username already claimed")

	// ErrUnknownUser is returned by Verify for usernames with no
	// record.
	ErrUnknownUser = errors.New("username not claimed")

	// ErrKeyMismatch is returned by Verify when the presented key's
	// fingerprint differs from the claimed one.
	ErrKeyMismatch = errors.New("public key does not match claimed key")
)

// Store is a directory-backed username-to-key store. Safe for
// concurrent use: the claim path relies on filesystem atomicity, not
// in-process locking, so multiple server processes sharing the
// directory would still uphold the single-winner guarantee.
type Store struct {
	dir string
}

// NewStore opens (creating if necessary) the identity directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating identity directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the backing directory path.
func (store *Store) Dir() string {
	return store.dir
}

func (store *Store) recordPath(name string) (string, error) {
	if err := username.Validate(name); err != nil {
		return "", err
	}
	return filepath.Join(store.dir, name), nil
}

// IsClaimed reports whether a record exists for the username. Invalid
// usernames are simply unclaimed (they can never claim either).
func (store *Store) IsClaimed(name string) bool {
	path, err := store.recordPath(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// TryClaim binds the username to key. On success the binding is
// durable before TryClaim returns. Exactly one of any number of
// concurrent callers for the same unclaimed username succeeds; the
// rest get ErrAlreadyClaimed.
//
// The record content is written to a temp file first and linked into
// place, so a reader can never observe a half-written record and a
// crash mid-claim leaves no record at all.
func (store *Store) TryClaim(name string, key ssh.PublicKey) error {
	path, err := store.recordPath(name)
	if err != nil {
		return err
	}

	temp, err := os.CreateTemp(store.dir, ".claim-*")
	if err != nil {
		return fmt.Errorf("creating temporary claim file: %w", err)
	}
	defer os.Remove(temp.Name())

	if _, err := temp.Write(ssh.MarshalAuthorizedKey(key)); err != nil {
		temp.Close()
		return fmt.Errorf("writing claim file: %w", err)
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		return fmt.Errorf("syncing claim file: %w", err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("closing claim file: %w", err)
	}

	// Atomic create-if-absent: link fails with EEXIST when another
	// claimant got there first.
	if err := os.Link(temp.Name(), path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrAlreadyClaimed
		}
		return fmt.Errorf("linking claim into place: %w", err)
	}
	syncDir(store.dir)
	return nil
}

// Verify checks the presented key against the stored record.
func (store *Store) Verify(name string, key ssh.PublicKey) error {
	path, err := store.recordPath(name)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrUnknownUser
		}
		return fmt.Errorf("reading identity record: %w", err)
	}
	stored, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return fmt.Errorf("parsing identity record for %q: %w", name, err)
	}
	if ssh.FingerprintSHA256(stored) != ssh.FingerprintSHA256(key) {
		return ErrKeyMismatch
	}
	return nil
}

// syncDir makes a directory entry change durable. This matters when
// the machine loses power between the link and the OS flushing
// directory metadata.
func syncDir(dir string) {
	handle, err := os.Open(dir)
	if err == nil {
		handle.Sync()
		handle.Close()
	}
}
