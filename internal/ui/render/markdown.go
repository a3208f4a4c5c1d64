// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// MinWidth is the narrowest wrap width the renderer accepts.
const MinWidth = 20

// Options configures a Renderer.
type Options struct {
	// Markdown enables glamour rendering.
	Markdown bool
	// Color enables ANSI styling in plain mode.
	Color bool
	// Width is the word wrap width.
	Width int
	// Style is a glamour standard style name ("dark", "light", "notty").
	Style string
}

// Renderer renders turn content. It is safe for concurrent use.
type Renderer struct {
	mu   sync.Mutex
	opts Options
	md   *glamour.TermRenderer
}

// New creates a renderer.
func New(opts Options) (*Renderer, error) {
	if opts.Width < MinWidth {
		opts.Width = MinWidth
	}
	if opts.Style == "" {
		opts.Style = "dark"
	}
	r := &Renderer{opts: opts}
	if opts.Markdown {
		md, err := newGlamour(opts)
		if err != nil {
			return nil, err
		}
		r.md = md
	}
	return r, nil
}

func newGlamour(opts Options) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithStandardStyle(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithEmoji(),
	)
}

// Width returns the current wrap width.
func (r *Renderer) Width() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts.Width
}

// SetWidth changes the wrap width, rebuilding the markdown renderer when
// the width actually changes.
func (r *Renderer) SetWidth(width int) error {
	if width < MinWidth {
		width = MinWidth
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if width == r.opts.Width {
		return nil
	}
	r.opts.Width = width
	if r.opts.Markdown {
		md, err := newGlamour(r.opts)
		if err != nil {
			return err
		}
		r.md = md
	}
	return nil
}

// Render renders content. A markdown failure falls back to plain output.
func (r *Renderer) Render(content string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.md != nil {
		out, err := r.md.Render(content)
		if err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return r.plain(content)
}

func (r *Renderer) plain(content string) string {
	wrap := lipgloss.NewStyle().Width(r.opts.Width)
	var out []string
	for _, seg := range SplitFences(content) {
		switch {
		case !seg.Code:
			out = append(out, wrap.Render(seg.Text))
		case r.opts.Color:
			out = append(out, HighlightCode(seg.Text, seg.Language))
		default:
			out = append(out, seg.Text)
		}
	}
	return strings.Join(out, "\n")
}
