// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package quizui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.state == StateClosed {
		return ""
	}

	var view strings.Builder
	view.WriteString(m.viewHeader())
	view.WriteString("\n\n")

	switch {
	case m.cursor == 0:
		view.WriteString(m.viewOpening())
	case m.onQuestionPage():
		view.WriteString(m.viewQuestion())
	default:
		view.WriteString(m.viewClosing())
	}

	view.WriteString("\n\n")
	view.WriteString(m.viewFooter())
	return view.String()
}

func (m Model) viewHeader() string {
	title := m.lip.NewStyle().
		Bold(true).
		Foreground(m.theme.TitleForeground).
		Render(m.doc.Title)

	var position string
	switch {
	case m.cursor == 0:
		position = "welcome"
	case m.cursor == m.lastPage():
		position = "finish"
	default:
		position = fmt.Sprintf("question %d/%d", m.cursor, len(m.doc.Questions))
	}
	right := m.lip.NewStyle().
		Foreground(m.theme.FaintText).
		Render(fmt.Sprintf("%s · %s", m.user, position))

	gap := m.width - ansi.StringWidth(title) - ansi.StringWidth(right)
	if gap < 1 {
		gap = 1
	}
	line := title + strings.Repeat(" ", gap) + right
	rule := m.lip.NewStyle().
		Foreground(m.theme.BorderColor).
		Render(strings.Repeat("─", max(1, m.width)))
	return line + "\n" + rule
}

func (m Model) viewOpening() string {
	var view strings.Builder
	if body := renderMarkdown(m.doc.Preamble, m.theme, m.contentWidth()); body != "" {
		view.WriteString(body)
		view.WriteString("\n\n")
	}
	view.WriteString(m.lip.NewStyle().Foreground(m.theme.NormalText).Render("Please enter your name:"))
	view.WriteString("\n")
	view.WriteString(m.name.View())
	return view.String()
}

func (m Model) viewQuestion() string {
	question := m.currentQuestion()

	var view strings.Builder
	view.WriteString(renderMarkdown(question.Body, m.theme, m.contentWidth()))
	view.WriteString("\n\n")

	chosen := m.set.Answer(question.Number)
	for i, option := range question.Options {
		view.WriteString(m.viewOption(option.Label, option.Text, i == m.selected, option.Label == chosen))
		view.WriteString("\n")
	}
	return strings.TrimRight(view.String(), "\n")
}

// viewOption renders one option row: a selection marker, the
// positional label, and the option text (markdown, usually a single
// line; continuation lines are indented under the text column).
func (m Model) viewOption(label, text string, highlighted, chosen bool) string {
	marker := "  "
	if chosen {
		marker = m.lip.NewStyle().Foreground(m.theme.ChosenForeground).Render("✓ ")
	}

	labelStyle := m.lip.NewStyle().Foreground(m.theme.OptionLabel).Bold(chosen)
	textStyle := m.lip.NewStyle().Foreground(m.theme.NormalText)
	if highlighted {
		labelStyle = labelStyle.Background(m.theme.SelectedBackground).Foreground(m.theme.SelectedForeground)
		textStyle = textStyle.Background(m.theme.SelectedBackground).Foreground(m.theme.SelectedForeground)
	}

	rendered := renderMarkdown(text, m.theme, m.contentWidth()-6)
	if highlighted {
		// Re-style for the highlight bar; the markdown styling loses
		// against legibility of the selection.
		rendered = textStyle.Render(ansi.Strip(rendered))
	}

	lines := strings.Split(rendered, "\n")
	var row strings.Builder
	for i, line := range lines {
		if i == 0 {
			row.WriteString("  " + marker + labelStyle.Render(label+".") + " " + line)
		} else {
			row.WriteString("\n" + strings.Repeat(" ", 7) + line)
		}
	}
	return row.String()
}

func (m Model) viewClosing() string {
	var view strings.Builder
	if body := renderMarkdown(m.doc.Epilogue, m.theme, m.contentWidth()); body != "" {
		view.WriteString(body)
		view.WriteString("\n\n")
	}
	view.WriteString(m.viewProgress())
	view.WriteString("\n\n")
	view.WriteString(m.lip.NewStyle().Foreground(m.theme.NormalText).Render("Comments:"))
	view.WriteString("\n")
	view.WriteString(m.comment.View())
	return view.String()
}

// viewProgress summarizes how many questions have a recorded answer.
func (m Model) viewProgress() string {
	answered := 0
	for _, question := range m.doc.Questions {
		if m.set.Answer(question.Number) != "" {
			answered++
		}
	}
	style := m.lip.NewStyle().Foreground(m.theme.SavedForeground)
	if answered < len(m.doc.Questions) {
		style = m.lip.NewStyle().Foreground(m.theme.FaintText)
	}
	return style.Render(fmt.Sprintf("%d of %d questions answered", answered, len(m.doc.Questions)))
}

func (m Model) viewFooter() string {
	var help string
	switch {
	case m.state == StateCommenting && m.cursor == 0:
		help = "Enter begin · Esc done · C-c quit"
	case m.state == StateCommenting:
		help = "Esc done editing · C-c quit"
	case m.onQuestionPage():
		help = "↑/↓ choose · Enter select · ←/→ previous/next · q quit"
	default:
		help = "←/→ previous/next · Enter edit · q quit"
	}
	footer := m.lip.NewStyle().Foreground(m.theme.HelpText).Render(help)

	if m.saveErr != nil {
		banner := m.lip.NewStyle().
			Bold(true).
			Foreground(m.theme.ErrorForeground).
			Render(fmt.Sprintf("⚠ answers are not being saved: %v — your next change will retry", m.saveErr))
		footer = banner + "\n" + footer
	}
	return footer
}

// contentWidth is the rendering width for markdown bodies, inset from
// the terminal edge.
func (m Model) contentWidth() int {
	return max(minimumRenderWidth, m.width-4)
}
