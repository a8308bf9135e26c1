// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const wellFormed = `# Networking Quiz

Welcome. Answer every question, then leave a comment
on the last page.

---

# 1. Which layer does TCP live on?

Some context for the first question.

- A. Transport
- B. Network
- C. Session
- D. Physical

---

# 2. What does this print?

` + "```go" + `
package main

func main() {
	println(1 << 3)
}
` + "```" + `

- A. 3
- B. 8
- C. 16
- D. 1

---

# 3. Pick a letter.

- A. This one
- B. That one
- C. The other one

---

Thanks for participating!
`

func TestParseWellFormed(t *testing.T) {
	doc, err := Parse([]byte(wellFormed))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "Networking Quiz" {
		t.Errorf("title = %q", doc.Title)
	}
	if !strings.HasPrefix(doc.Preamble, "Welcome.") {
		t.Errorf("preamble = %q", doc.Preamble)
	}
	if doc.Epilogue != "Thanks for participating!" {
		t.Errorf("epilogue = %q", doc.Epilogue)
	}
	if len(doc.Questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(doc.Questions))
	}

	first := doc.Questions[0]
	if first.Index != 0 || first.Number != 1 {
		t.Errorf("first question index/number = %d/%d", first.Index, first.Number)
	}
	if !strings.HasPrefix(first.Body, "# 1. Which layer") {
		t.Errorf("body should start with the heading, got %q", first.Body)
	}
	if strings.Contains(first.Body, "- A.") {
		t.Errorf("option lines leaked into body: %q", first.Body)
	}
	if len(first.Options) != 4 || len(doc.Questions[2].Options) != 3 {
		t.Errorf("option counts = %d, %d", len(first.Options), len(doc.Questions[2].Options))
	}
	if first.Options[0].Text != "Transport" {
		t.Errorf("option A text = %q", first.Options[0].Text)
	}
}

func TestParsePreservesFencedCode(t *testing.T) {
	doc, err := Parse([]byte(wellFormed))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	body := doc.Questions[1].Body
	if !strings.Contains(body, "println(1 << 3)") {
		t.Errorf("fenced code not preserved verbatim:\n%s", body)
	}
	if !strings.Contains(body, "```go") {
		t.Errorf("fence markers not preserved:\n%s", body)
	}
}

func TestParsePositionalLabels(t *testing.T) {
	// The source letters are scrambled; labels must come from position.
	input := `# Quiz

Intro.

---

# 1. Scrambled letters.

- C. first
- A. second
- C. third

---

Bye.
`
	doc, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	options := doc.Questions[0].Options
	want := []Option{{"A", "first"}, {"B", "second"}, {"C", "third"}}
	for i, option := range options {
		if option != want[i] {
			t.Errorf("option %d = %+v, want %+v", i, option, want[i])
		}
	}
}

func TestParseSeparatorInsideFence(t *testing.T) {
	input := "# Quiz\n\nIntro.\n\n---\n\n# 1. What is this?\n\n```yaml\n---\nkey: value\n```\n\n- A. yes\n- B. no\n\n---\n\nBye.\n"
	doc, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(doc.Questions))
	}
	if !strings.Contains(doc.Questions[0].Body, "---\nkey: value") {
		t.Errorf("fenced separator not preserved in body:\n%s", doc.Questions[0].Body)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		marker string
	}{
		{
			name:   "too few sections",
			input:  "# Title\n\njust a preamble\n",
			marker: "---",
		},
		{
			name:   "missing title heading",
			input:  "no heading here\n\n---\n\n# 1. Q?\n\n- A. x\n- B. y\n\n---\n\nbye\n",
			marker: "title heading",
		},
		{
			name:   "missing question heading",
			input:  "# T\n\np\n\n---\n\nnot a heading\n\n- A. x\n- B. y\n\n---\n\nbye\n",
			marker: `question heading "# 1."`,
		},
		{
			name:   "misnumbered question heading",
			input:  "# T\n\np\n\n---\n\n# 7. Q?\n\n- A. x\n- B. y\n\n---\n\nbye\n",
			marker: `question heading "# 1."`,
		},
		{
			name:   "single option",
			input:  "# T\n\np\n\n---\n\n# 1. Q?\n\n- A. only\n\n---\n\nbye\n",
			marker: "option list",
		},
		{
			name:   "no options",
			input:  "# T\n\np\n\n---\n\n# 1. Q?\n\nbody only\n\n---\n\nbye\n",
			marker: "option list",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if !strings.Contains(parseErr.Marker, tc.marker) {
				t.Errorf("marker = %q, want mention of %q", parseErr.Marker, tc.marker)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz.md")
	if err := os.WriteFile(path, []byte(wellFormed), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Questions) != 3 {
		t.Errorf("got %d questions, want 3", len(doc.Questions))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.md")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLabelIndex(t *testing.T) {
	cases := map[string]int{"A": 0, "D": 3, "Z": 25, "a": -1, "": -1, "AB": -1, "1": -1}
	for label, want := range cases {
		if got := LabelIndex(label); got != want {
			t.Errorf("LabelIndex(%q) = %d, want %d", label, got, want)
		}
	}
}
