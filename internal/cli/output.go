// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/muesli/termenv"

	"github.com/jeranaias/blackv/internal/model"
	"github.com/jeranaias/blackv/internal/ollama"
	"github.com/jeranaias/blackv/internal/session"
	"github.com/jeranaias/blackv/internal/ui/render"
	"github.com/jeranaias/blackv/internal/ui/styles"
)

// Output describes where and how responses are printed.
type Output struct {
	Out io.Writer
	Err io.Writer
	// Markdown renders the finished response with glamour instead of
	// streaming raw text.
	Markdown bool
	Color    bool
	Style    string
	Width    int
	Quiet    bool
}

// NewOutput picks markdown rendering only when it is enabled and out is a
// terminal, so piped output stays plain.
func NewOutput(app *App, out, errOut io.Writer, tty bool) Output {
	o := Output{
		Out:   out,
		Err:   errOut,
		Width: min(app.Config.UI.WordWrap, GetTerminalWidth()),
		Quiet: app.args.Quiet,
		Color: GetColorProfile() != termenv.Ascii,
	}
	if tty && app.Config.UI.Markdown {
		o.Markdown = true
		o.Style = styles.NewTheme(app.Config.UI.Theme).GlamourStyle()
		if !o.Color {
			o.Style = "notty"
		}
	}
	return o
}

// responsePrinter prints the assistant turn of each cycle. Without a
// renderer the text is streamed as it grows; with one, it is printed once
// the cycle finishes.
type responsePrinter struct {
	out      io.Writer
	renderer *render.Renderer
	active   uuid.UUID
	// shown is the text of the active turn already written to out.
	shown string
}

func newResponsePrinter(o Output) (*responsePrinter, error) {
	p := &responsePrinter{out: o.Out}
	if o.Markdown {
		r, err := render.New(render.Options{
			Markdown: true,
			Color:    o.Color,
			Width:    o.Width,
			Style:    o.Style,
		})
		if err != nil {
			return nil, err
		}
		p.renderer = r
	}
	return p, nil
}

// OnUpdate is a session.Listener. Snapshots that carry a failure are left
// to the caller.
func (p *responsePrinter) OnUpdate(snap session.Snapshot) {
	if p.renderer != nil || snap.Err != nil {
		return
	}
	turn, ok := snap.Conversation.Last()
	if !ok || turn.Role != model.RoleAssistant {
		return
	}
	p.stream(turn)
}

// stream writes what turn adds to the text already shown. Blank text is
// held back, since the turn may still be replaced by the fallback message.
// Content that no longer extends what was shown starts on a fresh line.
func (p *responsePrinter) stream(turn model.Turn) {
	if turn.ID != p.active {
		p.active = turn.ID
		p.shown = ""
	}
	if strings.TrimSpace(turn.Content) == "" {
		return
	}
	if strings.HasPrefix(turn.Content, p.shown) {
		fmt.Fprint(p.out, turn.Content[len(p.shown):])
	} else {
		fmt.Fprint(p.out, "\n"+turn.Content)
	}
	p.shown = turn.Content
}

// Finish completes the output for a successful cycle.
func (p *responsePrinter) Finish(snap session.Snapshot) {
	turn, ok := snap.Conversation.Last()
	if !ok || turn.Role != model.RoleAssistant {
		return
	}
	if p.renderer != nil {
		fmt.Fprintln(p.out, p.renderer.Render(turn.Content))
		return
	}
	p.stream(turn)
	if p.shown != "" {
		fmt.Fprintln(p.out)
	}
	p.shown = ""
}

// Abort ends a partially streamed line after a failure.
func (p *responsePrinter) Abort() {
	if p.renderer == nil && p.shown != "" {
		fmt.Fprintln(p.out)
	}
	p.shown = ""
}

// printStats writes the statistics line of the last response.
func printStats(o Output, stats string) {
	if o.Quiet || stats == "" {
		return
	}
	fmt.Fprintln(o.Err, DimStyle.Render(stats))
}

// explain adds an actionable hint to client failures.
func explain(err error, model string) error {
	switch {
	case ollama.IsNotRunning(err):
		return fmt.Errorf("%w\nOllama is not running. Start it with: ollama serve", err)
	case ollama.IsModelNotFound(err):
		return fmt.Errorf("%w\nInstall the model with: ollama pull %s", err, model)
	case ollama.IsTimeout(err):
		return fmt.Errorf("%w\nOllama did not answer in time; the model may still be loading", err)
	}
	return err
}
