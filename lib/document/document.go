// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Option is one selectable answer for a question. The label is the
// positional letter (A, B, C, ...) shown to the user and stored in
// answer records.
type Option struct {
	Label string
	Text  string
}

// Question is one question in the questionnaire. Body holds the
// verbatim markdown between the question heading and the option list,
// heading line included, so the renderer sees exactly what the author
// wrote (fenced code blocks and all).
type Question struct {
	// Index is the 0-based position in Document.Questions.
	Index int
	// Number is the 1-based number from the source heading ("# 3.").
	Number  int
	Body    string
	Options []Option
}

// Document is the parsed questionnaire. Immutable after Parse.
type Document struct {
	Title     string
	Preamble  string
	Epilogue  string
	Questions []Question
}

// ParseError reports a structural problem in the questionnaire source:
// a section missing the marker the format requires at that position.
type ParseError struct {
	// Section is the 1-based section number in the source file
	// (sections are delimited by "---" lines).
	Section int
	// Marker names the structural marker that was missing or
	// malformed, e.g. `question heading "# 2."`.
	Marker string
	// Detail describes what was found instead.
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("questionnaire section %d: missing %s: %s", e.Section, e.Marker, e.Detail)
}

// optionMarker matches an option line: "- A. pick this one". The
// letter is captured for nothing more than skipping past it; labels
// are positional.
var optionMarker = regexp.MustCompile(`^- ([A-Z])\. (.*)$`)

// questionHeading matches a question heading line: "# 12. What next?".
var questionHeading = regexp.MustCompile(`^# (\d+)\.`)

// Load reads and parses a questionnaire file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading questionnaire: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing questionnaire %s: %w", path, err)
	}
	return doc, nil
}

// Parse parses questionnaire source text. The input must contain at
// least three sections: title/preamble, one or more questions, and an
// epilogue.
func Parse(data []byte) (*Document, error) {
	sections := splitSections(string(data))
	if len(sections) < 3 {
		return nil, &ParseError{
			Section: len(sections),
			Marker:  `"---" section separator`,
			Detail:  fmt.Sprintf("need a preamble, at least one question, and an epilogue; found %d section(s)", len(sections)),
		}
	}

	doc := &Document{}
	var err error
	doc.Title, doc.Preamble, err = parseHeader(sections[0])
	if err != nil {
		return nil, err
	}
	doc.Epilogue = strings.TrimSpace(sections[len(sections)-1])

	for i, section := range sections[1 : len(sections)-1] {
		question, err := parseQuestion(section, i)
		if err != nil {
			return nil, err
		}
		doc.Questions = append(doc.Questions, question)
	}
	return doc, nil
}

// splitSections splits the source on lines containing only "---"
// (optionally padded with spaces), ignoring separators that fall
// inside fenced code blocks so a question body may legitimately
// contain a thematic break or YAML-ish sample.
func splitSections(data string) []string {
	var sections []string
	var current strings.Builder
	inFence := false
	fenceMarker := ""

	for line := range strings.Lines(data) {
		trimmed := strings.TrimSpace(strings.TrimRight(line, "\n"))
		switch {
		case inFence:
			current.WriteString(line)
			if strings.HasPrefix(trimmed, fenceMarker) {
				inFence = false
			}
		case strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~"):
			current.WriteString(line)
			inFence = true
			fenceMarker = trimmed[:3]
		case trimmed == "---":
			sections = append(sections, current.String())
			current.Reset()
		default:
			current.WriteString(line)
		}
	}
	sections = append(sections, current.String())
	return sections
}

// parseHeader extracts the title and preamble from the first section.
// The first non-blank line must be a "#" heading; the rest of the
// section is the preamble.
func parseHeader(section string) (title, preamble string, err error) {
	text := strings.TrimSpace(section)
	line, rest, _ := strings.Cut(text, "\n")
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "#") {
		return "", "", &ParseError{
			Section: 1,
			Marker:  `title heading "# ..."`,
			Detail:  fmt.Sprintf("first line is %q", line),
		}
	}
	title = strings.TrimSpace(strings.TrimLeft(line, "#"))
	return title, strings.TrimSpace(rest), nil
}

// parseQuestion parses one question section. position is the 0-based
// question index; the section heading must carry the matching 1-based
// number.
func parseQuestion(section string, position int) (Question, error) {
	sectionNumber := position + 2 // 1-based, after the header section
	wanted := position + 1
	text := strings.TrimRight(strings.TrimLeft(section, "\n"), " \t\n")

	first, _, _ := strings.Cut(text, "\n")
	match := questionHeading.FindStringSubmatch(strings.TrimSpace(first))
	if match == nil {
		return Question{}, &ParseError{
			Section: sectionNumber,
			Marker:  fmt.Sprintf("question heading %q", fmt.Sprintf("# %d.", wanted)),
			Detail:  fmt.Sprintf("section starts with %q", strings.TrimSpace(first)),
		}
	}
	number, _ := strconv.Atoi(match[1])
	if number != wanted {
		return Question{}, &ParseError{
			Section: sectionNumber,
			Marker:  fmt.Sprintf("question heading %q", fmt.Sprintf("# %d.", wanted)),
			Detail:  fmt.Sprintf("heading is numbered %d", number),
		}
	}

	body, options, err := splitOptions(text, sectionNumber)
	if err != nil {
		return Question{}, err
	}
	return Question{
		Index:   position,
		Number:  number,
		Body:    body,
		Options: options,
	}, nil
}

// splitOptions separates the trailing option list from the question
// body. The option list is the maximal run of "- X. ..." lines at the
// end of the section; everything before it is the verbatim body.
func splitOptions(text string, sectionNumber int) (string, []Option, error) {
	lines := strings.Split(text, "\n")

	// Walk backward over the trailing option-marker lines.
	start := len(lines)
	for start > 0 && optionMarker.MatchString(strings.TrimRight(lines[start-1], " \t")) {
		start--
	}

	count := len(lines) - start
	if count < 2 {
		return "", nil, &ParseError{
			Section: sectionNumber,
			Marker:  `option list ("- A. ...", at least two entries)`,
			Detail:  fmt.Sprintf("found %d trailing option line(s)", count),
		}
	}
	if count > 26 {
		return "", nil, &ParseError{
			Section: sectionNumber,
			Marker:  "option list of at most 26 entries",
			Detail:  fmt.Sprintf("found %d option lines", count),
		}
	}

	options := make([]Option, 0, count)
	for i, line := range lines[start:] {
		match := optionMarker.FindStringSubmatch(strings.TrimRight(line, " \t"))
		// Positional label: the source letter in match[1] is ignored.
		options = append(options, Option{
			Label: positionLabel(i),
			Text:  strings.TrimSpace(match[2]),
		})
	}

	body := strings.TrimRight(strings.Join(lines[:start], "\n"), " \t\n")
	return body, options, nil
}

// positionLabel returns the option label for a 0-based position:
// 0 -> "A", 1 -> "B", and so on.
func positionLabel(position int) string {
	return string(rune('A' + position))
}

// LabelIndex returns the 0-based position for an option label, or -1
// for anything that is not a single uppercase letter.
func LabelIndex(label string) int {
	if len(label) != 1 || label[0] < 'A' || label[0] > 'Z' {
		return -1
	}
	return int(label[0] - 'A')
}
