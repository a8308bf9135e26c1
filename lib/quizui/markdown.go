// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package quizui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// parser is initialized once and shared: the configuration never
// changes and goldmark parsers are safe for concurrent Parse calls.
var (
	parser     goldmark.Markdown
	parserOnce sync.Once
)

func markdownParser() goldmark.Markdown {
	parserOnce.Do(func() {
		parser = goldmark.New()
	})
	return parser
}

// renderMarkdown turns question/preamble markdown into styled
// terminal text wrapped to width. Soft line breaks inside paragraphs
// become spaces so hard-wrapped source reflows at any terminal
// width; fenced code keeps its exact line structure and gets chroma
// highlighting when the fence names a language.
//
// The output always targets an ANSI256 terminal. Sessions arrive
// over SSH, so profile auto-detection (which would inspect the
// server's own environment) is useless here.
func renderMarkdown(input string, theme Theme, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	if width < minimumRenderWidth {
		width = minimumRenderWidth
	}

	source := []byte(input)
	document := markdownParser().Parser().Parse(text.NewReader(source))

	lip := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(termenv.ANSI256))
	lip.SetColorProfile(termenv.ANSI256)

	walker := &termRenderer{
		source: source,
		theme:  theme,
		width:  width,
		lip:    lip,
	}
	ast.Walk(document, walker.walk)
	return strings.TrimRight(walker.out.String(), "\n")
}

const minimumRenderWidth = 20

// termRenderer walks a goldmark AST and accumulates styled terminal
// text. Inline content gathers in a buffer and is word-wrapped as a
// unit when its containing block closes; block nesting (quotes,
// lists) contributes a line prefix applied to every emitted line.
type termRenderer struct {
	source []byte
	theme  Theme
	width  int
	lip    *lipgloss.Renderer

	out    strings.Builder
	inline strings.Builder

	// prefix is the concatenated decoration for the current block
	// nesting; prefixWidth is its visible width. bullet, when set,
	// replaces the prefix on the next emitted line only (list item
	// markers).
	prefix      string
	prefixWidth int
	bullet      string

	// Nested emphasis tracking. Counters rather than booleans so
	// **bold *italic*** nests correctly.
	bold   int
	italic int

	// Ordered-list counters, one per nesting level; -1 marks an
	// unordered level. itemIndents remembers each open item's
	// continuation indent so ListItem exit pops exactly what entry
	// pushed (ordered markers are wider than bullets).
	listCounters []int
	itemIndents  []string

	blankLines int
}

func (r *termRenderer) style() lipgloss.Style {
	return r.lip.NewStyle()
}

func (r *termRenderer) contentWidth() int {
	width := r.width - r.prefixWidth
	if width < minimumRenderWidth/2 {
		width = minimumRenderWidth / 2
	}
	return width
}

func (r *termRenderer) pushPrefix(text string) {
	r.prefix += text
	r.prefixWidth += ansi.StringWidth(text)
}

func (r *termRenderer) popPrefix(text string) {
	r.prefix = strings.TrimSuffix(r.prefix, text)
	r.prefixWidth -= ansi.StringWidth(text)
}

// emit writes a complete line (or multi-line block) to the output,
// prefixing each line with the current nesting decoration.
func (r *termRenderer) emit(block string) {
	for i, line := range strings.Split(block, "\n") {
		if i == 0 && r.bullet != "" {
			r.out.WriteString(r.bullet)
			r.bullet = ""
		} else {
			r.out.WriteString(r.prefix)
		}
		r.out.WriteString(line)
		r.out.WriteString("\n")
	}
	r.blankLines = 0
}

// blankLine separates blocks with exactly one empty line.
func (r *termRenderer) blankLine() {
	if r.out.Len() == 0 || r.blankLines > 0 {
		return
	}
	r.out.WriteString("\n")
	r.blankLines++
}

// flushInline word-wraps the accumulated inline text and emits it.
func (r *termRenderer) flushInline() {
	content := r.inline.String()
	r.inline.Reset()
	if content == "" {
		return
	}
	r.emit(ansi.Wrap(content, r.contentWidth(), " ,.;-"))
}

func (r *termRenderer) styledText(content string) string {
	style := r.style().Foreground(r.theme.NormalText)
	if r.bold > 0 {
		style = style.Bold(true)
	}
	if r.italic > 0 {
		style = style.Italic(true)
	}
	return style.Render(content)
}

// nodeSource concatenates a block node's raw source lines. Used for
// code blocks, which must come out byte-for-byte.
func (r *termRenderer) nodeSource(node ast.Node) string {
	var raw strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		raw.Write(segment.Value(r.source))
	}
	return raw.String()
}

func (r *termRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch typed := node.(type) {

	case *ast.Document:

	case *ast.Paragraph, *ast.TextBlock:
		if entering {
			r.inline.Reset()
		} else {
			r.flushInline()
			if _, tight := node.(*ast.TextBlock); !tight {
				r.blankLine()
			}
		}

	case *ast.Heading:
		if entering {
			r.inline.Reset()
		} else {
			r.renderHeading(typed)
		}

	case *ast.FencedCodeBlock:
		if entering {
			r.renderCode(r.nodeSource(node), string(typed.Language(r.source)))
			return ast.WalkSkipChildren, nil
		}

	case *ast.CodeBlock:
		if entering {
			r.renderCode(r.nodeSource(node), "")
			return ast.WalkSkipChildren, nil
		}

	case *ast.Blockquote:
		if entering {
			r.pushPrefix("│ ")
		} else {
			r.popPrefix("│ ")
			r.blankLine()
		}

	case *ast.List:
		if entering {
			counter := -1
			if typed.IsOrdered() {
				counter = typed.Start
			}
			r.listCounters = append(r.listCounters, counter)
		} else {
			r.listCounters = r.listCounters[:len(r.listCounters)-1]
			if len(r.listCounters) == 0 {
				r.blankLine()
			}
		}

	case *ast.ListItem:
		if entering {
			r.enterListItem()
		} else {
			indent := r.itemIndents[len(r.itemIndents)-1]
			r.itemIndents = r.itemIndents[:len(r.itemIndents)-1]
			r.popPrefix(indent)
		}

	case *ast.ThematicBreak:
		if entering {
			rule := r.style().Foreground(r.theme.BorderColor).
				Render(strings.Repeat("─", r.contentWidth()))
			r.blankLine()
			r.emit(rule)
			r.blankLine()
		}

	case *ast.Text:
		if entering {
			r.inline.WriteString(r.styledText(string(typed.Segment.Value(r.source))))
			if typed.HardLineBreak() {
				r.inline.WriteString("\n")
			} else if typed.SoftLineBreak() {
				r.inline.WriteString(" ")
			}
		}

	case *ast.String:
		if entering {
			r.inline.WriteString(r.styledText(string(typed.Value)))
		}

	case *ast.Emphasis:
		if typed.Level >= 2 {
			if entering {
				r.bold++
			} else {
				r.bold--
			}
		} else {
			if entering {
				r.italic++
			} else {
				r.italic--
			}
		}

	case *ast.CodeSpan:
		if entering {
			content := string(typed.Text(r.source))
			r.inline.WriteString(r.style().Foreground(r.theme.OptionLabel).Render(content))
			return ast.WalkSkipChildren, nil
		}

	case *ast.Link:
		if entering {
			label := r.renderChildrenInline(node)
			destination := string(typed.Destination)
			styled := r.style().Foreground(r.theme.OptionLabel).Underline(true).Render(label)
			if destination != "" && destination != label {
				styled += r.style().Foreground(r.theme.FaintText).Render(" ("+destination+")")
			}
			r.inline.WriteString(styled)
			return ast.WalkSkipChildren, nil
		}

	case *ast.AutoLink:
		if entering {
			url := string(typed.URL(r.source))
			r.inline.WriteString(r.style().Foreground(r.theme.OptionLabel).Underline(true).Render(url))
		}

	default:
		// Unhandled block kinds (raw HTML and friends) contribute
		// their text children only.
	}
	return ast.WalkContinue, nil
}

func (r *termRenderer) renderHeading(heading *ast.Heading) {
	// Headings carry their own style; drop whatever inline styling
	// accumulated.
	content := ansi.Strip(r.inline.String())
	r.inline.Reset()
	if content == "" {
		return
	}
	style := r.style().Bold(true).Foreground(r.theme.NormalText)
	if heading.Level <= 2 {
		style = style.Foreground(r.theme.HeaderForeground)
	}
	r.blankLine()
	r.emit(ansi.Wrap(style.Render(content), r.contentWidth(), " ,.;-"))
	r.blankLine()
}

// renderCode emits a code block line by line, chroma-highlighted when
// the language is known, faint otherwise. No wrapping: code keeps its
// authored line structure even if it overflows.
func (r *termRenderer) renderCode(code, language string) {
	highlighted := ""
	if language != "" {
		var buffer strings.Builder
		if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err == nil {
			highlighted = buffer.String()
		}
	}
	if highlighted == "" {
		highlighted = r.style().Foreground(r.theme.FaintText).Render(code)
	}

	r.blankLine()
	r.pushPrefix("  ")
	r.emit(strings.TrimRight(highlighted, "\n"))
	r.popPrefix("  ")
	r.blankLine()
}

func (r *termRenderer) enterListItem() {
	level := len(r.listCounters) - 1
	marker := "• "
	if level >= 0 && r.listCounters[level] >= 0 {
		marker = fmt.Sprintf("%d. ", r.listCounters[level])
		r.listCounters[level]++
	}
	styledMarker := r.style().Foreground(r.theme.OptionLabel).Render(marker)

	// The marker replaces the prefix on the item's first line; the
	// continuation prefix indents to the marker's width.
	r.bullet = r.prefix + styledMarker
	indent := strings.Repeat(" ", ansi.StringWidth(marker))
	r.itemIndents = append(r.itemIndents, indent)
	r.pushPrefix(indent)
}

// renderChildrenInline renders a node's children into a plain string,
// leaving the main inline buffer untouched.
func (r *termRenderer) renderChildrenInline(node ast.Node) string {
	saved := r.inline.String()
	r.inline.Reset()
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		ast.Walk(child, r.walk)
	}
	result := ansi.Strip(r.inline.String())
	r.inline.Reset()
	r.inline.WriteString(saved)
	return result
}
