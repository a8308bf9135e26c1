// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package answer persists each user's questionnaire answers.
//
// One pretty-printed JSON file per username: the user's display name,
// a question-number-to-option-label map, a free-text comment, and a
// last-modified timestamp. Saves are idempotent whole-file snapshots
// written with the temp-file-then-rename discipline, so a crash
// mid-save never corrupts the previously saved record.
//
// The store does no cross-session locking. The server guarantees at
// most one live session per username, and that session's single
// event loop serializes its own saves.
package answer
