// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package quizui implements the per-session questionnaire interface.
//
// Built on bubbletea (Elm architecture): one Model per authenticated
// SSH session, driving a page cursor over {opening page, question
// pages, closing page}. Every answer selection, name commit, and
// comment commit persists synchronously through the [Recorder]
// interface before the model waits for the next key, so an abrupt
// disconnect loses at most the text sitting uncommitted in an input
// widget — and the server flushes even that via [Model.FlushPending]
// when the session ends.
//
// Persistence failures do not end the session: the model switches to
// a visible "answers are not being saved" banner and keeps retrying
// on each subsequent change.
//
// The package holds no transport logic. Question bodies are rendered
// by the goldmark/chroma terminal renderer in markdown.go; key
// handling and layout live in the Model.
package quizui
