// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package quizui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/mcqd/lib/answer"
	"github.com/bureau-foundation/mcqd/lib/document"
)

// Recorder persists one user's answer snapshot. The server binds it
// to the session's username; the model never sees other users'
// records. Record is called synchronously from the model's event
// loop, so implementations need no locking against this session.
type Recorder interface {
	Record(set answer.Set) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(set answer.Set) error

// Record calls f.
func (f RecorderFunc) Record(set answer.Set) error { return f(set) }

// State is the session controller's interaction state.
type State int

const (
	// StateBrowsing: viewing the page at the cursor; navigation and
	// option selection keys are live.
	StateBrowsing State = iota
	// StateCommenting: a text widget (display name on the opening
	// page, comment on the closing page) has focus.
	StateCommenting
	// StateClosed: the session is over; pending text has been
	// committed and the final save issued.
	StateClosed
)

// Model is the bubbletea model for one authenticated session. The
// page cursor runs over [0, QuestionCount+1]: page 0 is the opening
// page (title, preamble, display name), pages 1..N show question N,
// and the last page holds the epilogue and comment box.
type Model struct {
	doc      *document.Document
	recorder Recorder
	user     string
	set      answer.Set
	logger   *slog.Logger

	theme Theme
	keys  KeyMap
	lip   *lipgloss.Renderer

	state    State
	cursor   int
	selected int // Highlighted option on the current question page.

	name    textinput.Model
	comment textarea.Model

	width  int
	height int

	// saveErr is the most recent persistence failure, nil while
	// saving works. Non-nil renders the degraded-mode banner; the
	// next successful save clears it.
	saveErr error
}

// New builds the model for a session. set is the user's answer
// snapshot loaded at session start; renderer may be nil outside SSH
// contexts (tests).
func New(doc *document.Document, recorder Recorder, user string, set answer.Set, renderer *lipgloss.Renderer, logger *slog.Logger) Model {
	if renderer == nil {
		renderer = lipgloss.DefaultRenderer()
	}
	if logger == nil {
		logger = slog.Default()
	}

	name := textinput.New()
	name.Placeholder = "your name"
	name.CharLimit = 80
	name.SetValue(set.Name)

	comment := textarea.New()
	comment.Placeholder = "any remarks about the questionnaire"
	comment.CharLimit = 4000
	comment.SetValue(set.Comment)

	model := Model{
		doc:      doc,
		recorder: recorder,
		user:     user,
		set:      set.Clone(),
		logger:   logger,
		theme:    DefaultTheme,
		keys:     DefaultKeyMap,
		lip:      renderer,
		name:     name,
		comment:  comment,
		width:    80,
		height:   24,
	}
	// The opening page starts with the name field focused, as the
	// original flow did: type a name, press enter, begin.
	model.state = StateCommenting
	model.name.Focus()
	return model
}

// lastPage is the closing page index.
func (m Model) lastPage() int { return len(m.doc.Questions) + 1 }

// Cursor returns the current page index (0 = opening page).
func (m Model) Cursor() int { return m.cursor }

// CurrentState returns the interaction state.
func (m Model) CurrentState() State { return m.state }

// Set returns the in-memory answer snapshot.
func (m Model) Set() answer.Set { return m.set.Clone() }

// SaveErr returns the pending persistence error, nil when healthy.
func (m Model) SaveErr() error { return m.saveErr }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.name.Width = max(20, m.width-20)
		m.comment.SetWidth(max(20, m.width-8))
		m.comment.SetHeight(max(3, min(10, m.height-12)))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m.quit()
		}
		switch m.state {
		case StateCommenting:
			return m.updateCommenting(msg)
		case StateBrowsing:
			return m.updateBrowsing(msg)
		}
	}
	return m, nil
}

func (m Model) updateCommenting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Done):
		m.commitEntry()
		m.state = StateBrowsing
		m.name.Blur()
		m.comment.Blur()
		return m, nil

	case m.cursor == 0 && key.Matches(msg, m.keys.Confirm):
		// Enter on the name field commits and begins the quiz.
		// Space falls through to the input so multi-word names
		// can be typed.
		m.commitEntry()
		m.name.Blur()
		m.state = StateBrowsing
		return m.moveTo(m.cursor + 1)
	}

	var cmd tea.Cmd
	if m.cursor == 0 {
		m.name, cmd = m.name.Update(msg)
	} else {
		m.comment, cmd = m.comment.Update(msg)
	}
	return m, cmd
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Next):
		return m.moveTo(m.cursor + 1)

	case key.Matches(msg, m.keys.Prev):
		return m.moveTo(m.cursor - 1)

	case m.onQuestionPage() && key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case m.onQuestionPage() && key.Matches(msg, m.keys.Down):
		if m.selected < len(m.currentQuestion().Options)-1 {
			m.selected++
		}
		return m, nil

	case m.onQuestionPage() && key.Matches(msg, m.keys.Select):
		question := m.currentQuestion()
		m.set.SetAnswer(question.Number, question.Options[m.selected].Label)
		m.persist()
		return m, nil

	case m.cursor == m.lastPage() && key.Matches(msg, m.keys.Edit):
		m.state = StateCommenting
		m.comment.Focus()
		return m, textarea.Blink

	case m.cursor == 0 && key.Matches(msg, m.keys.Select):
		m.state = StateCommenting
		m.name.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

// moveTo clamps the cursor into [0, lastPage] and prepares the target
// page. Moving past either end is a no-op, not an error.
func (m Model) moveTo(page int) (tea.Model, tea.Cmd) {
	if page < 0 || page > m.lastPage() {
		return m, nil
	}
	m.cursor = page
	m.state = StateBrowsing
	m.name.Blur()
	m.comment.Blur()

	switch {
	case m.onQuestionPage():
		// Highlight the recorded answer, or the first option.
		question := m.currentQuestion()
		m.selected = 0
		if index := document.LabelIndex(m.set.Answer(question.Number)); index >= 0 && index < len(question.Options) {
			m.selected = index
		}
	case m.cursor == m.lastPage():
		m.state = StateCommenting
		m.comment.Focus()
		return m, textarea.Blink
	case m.cursor == 0:
		m.state = StateCommenting
		m.name.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) onQuestionPage() bool {
	return m.cursor >= 1 && m.cursor <= len(m.doc.Questions)
}

func (m Model) currentQuestion() document.Question {
	return m.doc.Questions[m.cursor-1]
}

// commitEntry copies whichever input widget is relevant to the
// current page into the answer set and persists.
func (m *Model) commitEntry() {
	switch m.cursor {
	case 0:
		m.set.Name = strings.TrimSpace(m.name.Value())
	case m.lastPage():
		m.set.Comment = m.comment.Value()
	}
	m.persist()
}

// persist snapshots the answer set through the Recorder. Failure is
// remembered for the banner and logged; the session carries on.
func (m *Model) persist() {
	err := m.recorder.Record(m.set.Clone())
	if err != nil {
		m.logger.Error("saving answers failed", "username", m.user, "error", err)
	}
	m.saveErr = err
}

// quit flushes pending entry text and closes the session.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.commitEntry()
	m.state = StateClosed
	return m, tea.Quit
}

// FlushPending commits any text still sitting in a focused input
// widget and issues a final save. The server calls this on the final
// model after the program ends, covering abrupt disconnects; for a
// clean quit the state is already Closed and the flush is an
// idempotent re-save.
func (m Model) FlushPending() error {
	m.commitEntry()
	return m.saveErr
}
