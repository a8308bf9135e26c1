// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package quizui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the questionnaire UI. All
// colors are lipgloss ANSI 256-color codes for broad terminal
// compatibility over SSH.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Chrome.
	TitleForeground  lipgloss.Color
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Option list.
	OptionLabel        lipgloss.Color // The positional letter.
	SelectedBackground lipgloss.Color // Highlighted row.
	SelectedForeground lipgloss.Color
	ChosenForeground   lipgloss.Color // The user's recorded answer.

	// Status banners.
	ErrorForeground lipgloss.Color // Degraded "not being saved" banner.
	SavedForeground lipgloss.Color // Transient confirmation accents.
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	TitleForeground:  lipgloss.Color("255"),
	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	OptionLabel:        lipgloss.Color("75"),  // blue
	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),
	ChosenForeground:   lipgloss.Color("114"), // green

	ErrorForeground: lipgloss.Color("196"), // bright red
	SavedForeground: lipgloss.Color("114"),
}
