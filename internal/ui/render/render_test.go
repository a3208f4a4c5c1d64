// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Segment
	}{
		{
			name: "prose only",
			in:   "hello\nworld",
			want: []Segment{{Text: "hello\nworld"}},
		},
		{
			name: "closed fence",
			in:   "intro\n```go\nfmt.Println(1)\n```\noutro",
			want: []Segment{
				{Text: "intro"},
				{Text: "fmt.Println(1)", Code: true, Language: "go"},
				{Text: "outro"},
			},
		},
		{
			name: "unclosed fence while streaming",
			in:   "```python\nprint(",
			want: []Segment{{Text: "print(", Code: true, Language: "python"}},
		},
		{
			name: "fence without language",
			in:   "```\nls -la\n```",
			want: []Segment{{Text: "ls -la", Code: true}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitFences(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitFences() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHighlightCode(t *testing.T) {
	code := "package main\n\nfunc main() {}"
	out := HighlightCode(code, "go")
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("expected ANSI escapes in %q", out)
	}
	if !strings.Contains(out, "main") {
		t.Errorf("code lost: %q", out)
	}
}

func TestRenderer_PlainNoColor(t *testing.T) {
	r, err := New(Options{Width: 40})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	in := "Here you go:\n```sh\necho hi\n```"
	out := r.Render(in)
	if strings.Contains(out, "\x1b[") {
		t.Errorf("plain renderer without color emitted ANSI: %q", out)
	}
	if !strings.Contains(out, "echo hi") || !strings.Contains(out, "Here you go:") {
		t.Errorf("content lost: %q", out)
	}
}

func TestRenderer_Markdown(t *testing.T) {
	r, err := New(Options{Markdown: true, Width: 60, Style: "notty"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out := r.Render("# Title\n\nSome **bold** text.")
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Errorf("markdown output = %q", out)
	}
	if out == "# Title\n\nSome **bold** text." {
		t.Errorf("markdown passed through unrendered")
	}
}

func TestRenderer_SetWidth(t *testing.T) {
	r, err := New(Options{Markdown: true, Width: 80, Style: "notty"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.SetWidth(5); err != nil {
		t.Fatalf("SetWidth: %v", err)
	}
	if r.Width() != MinWidth {
		t.Errorf("Width() = %d, want %d", r.Width(), MinWidth)
	}
}
