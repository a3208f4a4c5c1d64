// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-runewidth"
)

var (
	// ErrMalformedRecord marks a record that is not a JSON object carrying a
	// response field.
	ErrMalformedRecord = errors.New("malformed stream record")

	// ErrServerReported marks an {"error": "..."} record sent by the server
	// in place of a fragment.
	ErrServerReported = errors.New("server reported error")
)

// previewWidth bounds how much of a failed record ends up in logs.
const previewWidth = 80

// Fragment is one decoded stream record. Only Text feeds the conversation;
// the rest is kept for display statistics.
type Fragment struct {
	Text  string
	Model string

	Done       bool
	DoneReason string

	PromptTokens       int
	CompletionTokens   int
	TotalDuration      time.Duration
	LoadDuration       time.Duration
	PromptEvalDuration time.Duration
	EvalDuration       time.Duration
}

// record is the wire shape of a generate stream line.
type record struct {
	Model      string  `json:"model"`
	Response   *string `json:"response"`
	Error      string  `json:"error"`
	Done       bool    `json:"done"`
	DoneReason string  `json:"done_reason"`

	TotalDuration      int64 `json:"total_duration"`
	LoadDuration       int64 `json:"load_duration"`
	PromptEvalCount    int   `json:"prompt_eval_count"`
	PromptEvalDuration int64 `json:"prompt_eval_duration"`
	EvalCount          int   `json:"eval_count"`
	EvalDuration       int64 `json:"eval_duration"`
}

// DecodeError describes a record that could not be turned into a Fragment.
type DecodeError struct {
	Record string
	Kind   error // ErrMalformedRecord or ErrServerReported
	Cause  error
	Detail string
}

func (e *DecodeError) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
	case e.Detail != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	default:
		return e.Kind.Error()
	}
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *DecodeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Decode parses a single record. Each call is independent of every other.
func Decode(line string) (Fragment, error) {
	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return Fragment{}, &DecodeError{Record: line, Kind: ErrMalformedRecord, Cause: err}
	}
	if rec.Error != "" {
		return Fragment{}, &DecodeError{Record: line, Kind: ErrServerReported, Detail: rec.Error}
	}
	if rec.Response == nil {
		return Fragment{}, &DecodeError{Record: line, Kind: ErrMalformedRecord, Detail: "missing response field"}
	}

	return Fragment{
		Text:               *rec.Response,
		Model:              rec.Model,
		Done:               rec.Done,
		DoneReason:         rec.DoneReason,
		PromptTokens:       rec.PromptEvalCount,
		CompletionTokens:   rec.EvalCount,
		TotalDuration:      time.Duration(rec.TotalDuration),
		LoadDuration:       time.Duration(rec.LoadDuration),
		PromptEvalDuration: time.Duration(rec.PromptEvalDuration),
		EvalDuration:       time.Duration(rec.EvalDuration),
	}, nil
}

// Decoder wraps Decode with logging and counters. Failed records are
// reported to the logger and swallowed.
type Decoder struct {
	logger   *slog.Logger
	records  int
	failures int
}

// NewDecoder creates a decoder that logs through logger, or slog.Default()
// when logger is nil.
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{logger: logger}
}

// Decode parses line and reports whether it produced a fragment.
func (d *Decoder) Decode(line string) (Fragment, bool) {
	index := d.records
	d.records++

	frag, err := Decode(line)
	if err != nil {
		d.failures++
		level := slog.LevelWarn
		if errors.Is(err, ErrServerReported) {
			level = slog.LevelError
		}
		d.logger.Log(context.Background(), level, "stream record skipped",
			"index", index,
			"err", err,
			"record", runewidth.Truncate(line, previewWidth, "..."))
		return Fragment{}, false
	}
	return frag, true
}

// Records returns how many records have been offered to the decoder.
func (d *Decoder) Records() int {
	return d.records
}

// Failures returns how many records were skipped.
func (d *Decoder) Failures() int {
	return d.failures
}
