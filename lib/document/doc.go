// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package document parses an authored questionnaire into an ordered,
// immutable sequence of questions.
//
// The source format is a markdown file split into sections by lines
// containing only "---". The first section is a title heading followed
// by a free-form preamble; the last section is a free-form epilogue;
// every section in between is one question: a "# N." heading, a
// verbatim markdown body (fenced code allowed), and a trailing run of
// "- A. ..." option lines.
//
// Option labels are assigned by position (A, B, C, ...) regardless of
// the letters present in the source. Out-of-order or repeated letters
// in the source are not an error; the positional label wins.
//
// A Document is loaded once at process startup and shared read-only by
// every session. Nothing in this package mutates a Document after
// Parse returns.
package document
