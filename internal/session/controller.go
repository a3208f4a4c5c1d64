// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/blackv/internal/model"
	"github.com/jeranaias/blackv/internal/ollama"
	"github.com/jeranaias/blackv/internal/stream"
)

var (
	// ErrBusy is returned when a response is already being generated.
	ErrBusy = errors.New("a response is already in progress")

	// ErrEmptyPrompt is returned for a blank submission.
	ErrEmptyPrompt = errors.New("prompt is empty")
)

// =============================================================================
// STATUS
// =============================================================================

// Status gates submission.
type Status int32

const (
	StatusIdle Status = iota
	StatusBusy
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is the state published after every reducer transition.
type Snapshot struct {
	Conversation model.Conversation
	Status       Status
	Stats        stream.Stats
	// Err is the transport failure that ended the last cycle, if any.
	Err error
}

// Busy reports whether a response is in progress.
func (s Snapshot) Busy() bool {
	return s.Status == StatusBusy
}

// Listener receives snapshots in publication order.
type Listener func(Snapshot)

// Generator opens a streaming generate request. *ollama.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, req ollama.GenerateRequest) (io.ReadCloser, error)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for request lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithModel sets the initial model name.
func WithModel(name string) Option {
	return func(c *Controller) { c.model = name }
}

// WithSystem sets the initial system prompt.
func WithSystem(prompt string) Option {
	return func(c *Controller) { c.system = prompt }
}

// WithOptions sets inference options sent with every request.
func WithOptions(opts *ollama.Options) Option {
	return func(c *Controller) { c.options = opts }
}

// WithConversation starts the controller from an existing conversation.
func WithConversation(conv model.Conversation) Option {
	return func(c *Controller) { c.reducer = model.NewReducerFrom(conv) }
}

// Controller runs request/response cycles for one conversation.
type Controller struct {
	gen    Generator
	logger *slog.Logger
	id     uuid.UUID

	status atomic.Int32
	// reducer is touched only by whoever moved status to Busy.
	reducer *model.Reducer
	current atomic.Pointer[Snapshot]
	wg      sync.WaitGroup

	mu        sync.Mutex // guards the fields below
	model     string
	system    string
	options   *ollama.Options
	listeners []Listener
}

// New creates an idle controller over an empty conversation.
func New(gen Generator, opts ...Option) *Controller {
	c := &Controller{
		gen:     gen,
		logger:  slog.Default(),
		id:      uuid.New(),
		reducer: model.NewReducer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("session", c.id.String())
	c.current.Store(&Snapshot{Conversation: c.reducer.Snapshot(), Status: StatusIdle})
	return c
}

// ID returns the session identifier used in logs.
func (c *Controller) ID() uuid.UUID {
	return c.id
}

// Status returns the current status. It stays Busy until listeners have
// received the cycle's final snapshot.
func (c *Controller) Status() Status {
	return Status(c.status.Load())
}

// Snapshot returns the most recently published state.
func (c *Controller) Snapshot() Snapshot {
	return *c.current.Load()
}

// OnUpdate registers a listener for every published snapshot.
func (c *Controller) OnUpdate(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// SetModel changes the model used by subsequent requests.
func (c *Controller) SetModel(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = name
}

// Model returns the model used by subsequent requests. Empty means the
// generator's default.
func (c *Controller) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// SetSystem changes the system prompt used by subsequent requests.
func (c *Controller) SetSystem(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.system = prompt
}

// SetOptions changes the inference options used by subsequent requests.
func (c *Controller) SetOptions(opts *ollama.Options) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.options = opts
}

// System returns the system prompt used by subsequent requests.
func (c *Controller) System() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.system
}

// Submit appends prompt as a user turn and generates the response on a new
// goroutine. It returns ErrBusy while a response is in progress and
// ErrEmptyPrompt for blank input; in both cases nothing changes.
func (c *Controller) Submit(ctx context.Context, prompt string) error {
	req, err := c.begin(prompt)
	if err != nil {
		return err
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_ = c.respond(ctx, req)
	}()
	return nil
}

// Exchange is Submit run to completion on the calling goroutine. A transport
// failure is recorded in the conversation and also returned.
func (c *Controller) Exchange(ctx context.Context, prompt string) error {
	req, err := c.begin(prompt)
	if err != nil {
		return err
	}
	return c.respond(ctx, req)
}

// Wait blocks until every cycle started by Submit has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// begin claims the Busy state and appends the user turn. The snapshot is
// stored but listeners are only told once the cycle starts, so that every
// listener call happens on the cycle goroutine.
func (c *Controller) begin(prompt string) (ollama.GenerateRequest, error) {
	if strings.TrimSpace(prompt) == "" {
		return ollama.GenerateRequest{}, ErrEmptyPrompt
	}
	if !c.status.CompareAndSwap(int32(StatusIdle), int32(StatusBusy)) {
		c.logger.Debug("submission rejected", "reason", "busy")
		return ollama.GenerateRequest{}, ErrBusy
	}

	conv := c.reducer.SubmitUser(prompt)
	c.current.Store(&Snapshot{Conversation: conv, Status: StatusBusy})

	c.mu.Lock()
	req := ollama.GenerateRequest{
		Model:   c.model,
		Prompt:  prompt,
		System:  c.system,
		Options: c.options,
	}
	c.mu.Unlock()
	return req, nil
}

// respond runs one cycle: open, stream, fold, finalize.
func (c *Controller) respond(ctx context.Context, req ollama.GenerateRequest) error {
	start := time.Now()
	c.notify(c.Snapshot())

	logger := c.logger.With("model", req.Model)
	logger.Info("generate request", "prompt_chars", len(req.Prompt))

	body, err := c.gen.Generate(ctx, req)
	if err != nil {
		return c.fail(logger, err, stream.Stats{})
	}
	defer body.Close()

	reader := stream.NewReader(body, stream.WithLogger(logger))
	for {
		upd, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return c.fail(logger, err, reader.Stats())
		}
		c.publish(c.reducer.Extend(upd.Text), StatusBusy, reader.Stats(), nil)
	}

	c.finish(c.reducer.Finalize(reader.Text()), reader.Stats(), nil)
	logger.Info("response complete",
		"chars", len(reader.Text()),
		"skipped", reader.Skipped(),
		"dropped_bytes", reader.Dropped(),
		"elapsed", time.Since(start))
	return nil
}

func (c *Controller) fail(logger *slog.Logger, err error, stats stream.Stats) error {
	logger.Error("generate request failed",
		"type", ollama.ErrorTypeOf(err).String(),
		"err", err)
	c.finish(c.reducer.Fail(), stats, err)
	return err
}

// finish publishes the final snapshot of a cycle and only then reopens
// submission, so the next cycle's snapshots cannot overtake it.
func (c *Controller) finish(conv model.Conversation, stats stream.Stats, err error) {
	c.publish(conv, StatusIdle, stats, err)
	c.status.Store(int32(StatusIdle))
}

func (c *Controller) publish(conv model.Conversation, status Status, stats stream.Stats, err error) {
	snap := &Snapshot{Conversation: conv, Status: status, Stats: stats, Err: err}
	c.current.Store(snap)
	c.notify(*snap)
}

func (c *Controller) notify(snap Snapshot) {
	c.mu.Lock()
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()
	for _, l := range listeners {
		l(snap)
	}
}
