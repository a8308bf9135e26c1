// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package answer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/mcqd/lib/clock"
	"github.com/bureau-foundation/mcqd/lib/username"
)

// Set is one user's complete answer snapshot. Answers maps 1-based
// question numbers to option labels; unanswered questions are simply
// absent. The zero Set is a valid "nothing answered yet" record.
type Set struct {
	// Name is the free-text display name the user entered on the
	// opening page. Distinct from the SSH username that keys the
	// record.
	Name    string         `json:"name"`
	Answers map[int]string `json:"answers,omitempty"`
	Comment string         `json:"comment"`

	// UpdatedAt is stamped by Store.Save; callers never set it.
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Clone returns a deep copy. Sessions mutate their in-memory copy
// freely without aliasing whatever the caller retained.
func (set Set) Clone() Set {
	clone := set
	clone.Answers = maps.Clone(set.Answers)
	return clone
}

// SetAnswer records the option label for a question number,
// overwriting any previous choice.
func (set *Set) SetAnswer(number int, label string) {
	if set.Answers == nil {
		set.Answers = make(map[int]string)
	}
	set.Answers[number] = label
}

// Answer returns the recorded label for a question number, or "".
func (set Set) Answer(number int) string {
	return set.Answers[number]
}

// Store is a directory of per-username answer files.
type Store struct {
	dir    string
	clock  clock.Clock
	logger *slog.Logger

	// sync flushes the temp file before it is renamed into place.
	// Injectable so tests can simulate a disk fault regardless of
	// filesystem permissions (chmod tricks are no-ops as root).
	sync func(*os.File) error
}

// NewStore opens (creating if necessary) the results directory.
func NewStore(dir string, clk clock.Clock, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, clock: clk, logger: logger, sync: (*os.File).Sync}, nil
}

func (store *Store) recordPath(name string) (string, error) {
	if err := username.Validate(name); err != nil {
		return "", err
	}
	return filepath.Join(store.dir, name+".json"), nil
}

// Load returns the saved Set for a username. A missing record is not
// an error: new users get a zero Set. A corrupt record is logged and
// also treated as empty, matching the original tolerant-read behavior
// — the corrupt file stays on disk for inspection until the next
// save replaces it.
func (store *Store) Load(name string) (Set, error) {
	path, err := store.recordPath(name)
	if err != nil {
		return Set{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Set{}, nil
		}
		return Set{}, fmt.Errorf("reading answers for %q: %w", name, err)
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		store.logger.Warn("corrupt answer record, starting empty",
			"username", name, "path", path, "error", err)
		return Set{}, nil
	}
	return set, nil
}

// Save writes the Set as the user's new record, stamping UpdatedAt.
// The write is atomic with respect to crashes: the snapshot lands in
// a temp file (synced) and is renamed over the old record, so a
// failure at any point leaves the prior record intact.
func (store *Store) Save(name string, set Set) error {
	path, err := store.recordPath(name)
	if err != nil {
		return err
	}

	set.UpdatedAt = store.clock.Now().UTC()
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding answers for %q: %w", name, err)
	}
	data = append(data, '\n')

	temp, err := os.CreateTemp(store.dir, "."+name+"-*.json")
	if err != nil {
		return fmt.Errorf("creating temporary answer file: %w", err)
	}
	temporaryPath := temp.Name()
	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary answer file: %w", err)
	}
	if err := store.sync(temp); err != nil {
		temp.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary answer file: %w", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary answer file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming answer file into place: %w", err)
	}

	// Sync the parent directory so the rename survives power loss.
	if parent, err := os.Open(store.dir); err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}
