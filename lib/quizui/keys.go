// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package quizui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the questionnaire UI.
type KeyMap struct {
	// Option highlight movement on question pages.
	Up   key.Binding
	Down key.Binding

	// Page navigation.
	Next key.Binding
	Prev key.Binding

	// Select commits the highlighted option on question pages.
	Select key.Binding

	// Confirm commits a text entry field. Enter only: space must
	// keep typing into the field.
	Confirm key.Binding

	// Edit focuses the comment box on the closing page.
	Edit key.Binding

	// Done leaves text entry, committing what was typed.
	Done key.Binding

	Quit key.Binding

	// ForceQuit works even while an input widget has focus.
	ForceQuit key.Binding
}

// DefaultKeyMap is the built-in binding set. Vim-style movement
// alongside arrow keys, matching what SSH users expect.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Next: key.NewBinding(
		key.WithKeys("l", "right", "n", "pgdown"),
		key.WithHelp("→/n", "next"),
	),
	Prev: key.NewBinding(
		key.WithKeys("h", "left", "p", "pgup"),
		key.WithHelp("←/p", "previous"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("Enter", "select"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "confirm"),
	),
	Edit: key.NewBinding(
		key.WithKeys("enter", "e"),
		key.WithHelp("Enter", "edit comment"),
	),
	Done: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "done"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c", "ctrl+d"),
		key.WithHelp("C-c", "quit"),
	),
}
