// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/blackv/internal/ollama"
	"github.com/jeranaias/blackv/internal/session"
	"github.com/jeranaias/blackv/internal/ui/render"
	"github.com/jeranaias/blackv/internal/ui/styles"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Session is the part of session.Controller the chat view drives.
type Session interface {
	Submit(ctx context.Context, prompt string) error
	Snapshot() session.Snapshot
	OnUpdate(l session.Listener)
	Model() string
	SetModel(name string)
	System() string
	SetSystem(prompt string)
}

// Catalog lists the models installed on the server.
type Catalog interface {
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
}

// Options configures the chat view.
type Options struct {
	Theme     *styles.Theme
	Markdown  bool
	WordWrap  int
	MaxFPS    int
	AltScreen bool
	Logger    *slog.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctx     context.Context
	sess    Session
	catalog Catalog
	logger  *slog.Logger

	// Styling
	theme    *styles.Theme
	renderer *render.Renderer
	wordWrap int
	keys     KeyMap

	// Dimensions
	width  int
	height int
	ready  bool

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Latest snapshot received from the session
	snap session.Snapshot

	// Frame limiting while streaming
	limiter     *rate.Limiter
	frame       time.Duration
	dirty       bool
	tickPending bool

	// following keeps the transcript pinned to the bottom until the user
	// scrolls up.
	following bool

	// One-line status from slash commands and rejected input
	notice      string
	noticeIsErr bool

	// Rendered turns keyed by turn ID
	cache map[uuid.UUID]cachedTurn
}

type cachedTurn struct {
	content string
	width   int
	out     string
}

// New creates a chat model bound to a session.
func New(ctx context.Context, sess Session, catalog Catalog, opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme("auto")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxFPS <= 0 {
		opts.MaxFPS = 30
	}
	if opts.WordWrap < render.MinWidth {
		opts.WordWrap = 100
	}

	renderer, err := render.New(render.Options{
		Markdown: opts.Markdown,
		Color:    true,
		Width:    opts.WordWrap,
		Style:    opts.Theme.GlamourStyle(),
	})
	if err != nil {
		opts.Logger.Warn("markdown renderer unavailable", "err", err)
		renderer, _ = render.New(render.Options{Color: true, Width: opts.WordWrap})
	}

	ti := textinput.New()
	ti.Prompt = opts.Theme.InputPrompt.Render("> ")
	ti.Placeholder = "Type a message, or /help"
	ti.CharLimit = 8192
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = styles.ThinkingSpinner
	sp.Style = opts.Theme.Spinner

	return Model{
		ctx:       ctx,
		sess:      sess,
		catalog:   catalog,
		logger:    opts.Logger,
		theme:     opts.Theme,
		renderer:  renderer,
		wordWrap:  opts.WordWrap,
		keys:      DefaultKeyMap(),
		viewport:  viewport.New(0, 0),
		input:     ti,
		spinner:   sp,
		snap:      sess.Snapshot(),
		limiter:   rate.NewLimiter(rate.Limit(opts.MaxFPS), 1),
		frame:     time.Second / time.Duration(opts.MaxFPS),
		following: true,
		cache:     make(map[uuid.UUID]cachedTurn),
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Run starts the full-screen interface and blocks until the user quits or
// ctx is canceled. Session snapshots are forwarded to the program as
// SnapshotMsg.
func Run(ctx context.Context, sess Session, catalog Catalog, opts Options) error {
	popts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithMouseCellMotion(),
	}
	if opts.AltScreen {
		popts = append(popts, tea.WithAltScreen())
	}

	p := tea.NewProgram(New(ctx, sess, catalog, opts), popts...)
	sess.OnUpdate(func(snap session.Snapshot) {
		p.Send(SnapshotMsg{Snapshot: snap})
	})

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
