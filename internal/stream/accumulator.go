// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// STREAM STATISTICS
// =============================================================================

// Stats holds the metrics Ollama reports on its final record, plus the
// locally measured time to first token. Display only.
type Stats struct {
	Model      string
	Done       bool
	DoneReason string

	StartTime          time.Time
	TTFT               time.Duration
	TotalDuration      time.Duration
	LoadDuration       time.Duration
	PromptEvalDuration time.Duration
	EvalDuration       time.Duration

	PromptTokens     int
	CompletionTokens int
	TokensPerSecond  float64
}

// Format returns a one-line summary such as "2.4s | 118 tokens | 49.2 tok/s".
func (s Stats) Format() string {
	if !s.Done {
		return ""
	}
	total := s.TotalDuration
	if total <= 0 {
		total = s.EvalDuration
	}
	var dur string
	if total < time.Second {
		dur = fmt.Sprintf("%dms", total.Milliseconds())
	} else {
		dur = fmt.Sprintf("%.1fs", total.Seconds())
	}
	return fmt.Sprintf("%s | %d tokens | %.1f tok/s", dur, s.CompletionTokens, s.TokensPerSecond)
}

// =============================================================================
// ACCUMULATOR
// =============================================================================

// Accumulator folds fragment text, in order, into the response text so far.
// Text is appended verbatim: no trimming, no de-duplication.
type Accumulator struct {
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	text      strings.Builder
	fragments int
	stats     Stats
}

// NewAccumulator creates an empty accumulator and starts its clock.
func NewAccumulator() *Accumulator {
	return &Accumulator{stats: Stats{StartTime: time.Now()}}
}

// Extend appends f.Text and returns the full text accumulated so far.
func (a *Accumulator) Extend(f Fragment) string {
	if f.Text != "" && a.text.Len() == 0 && a.stats.TTFT == 0 && !a.stats.StartTime.IsZero() {
		a.stats.TTFT = time.Since(a.stats.StartTime)
	}
	a.text.WriteString(f.Text)
	a.fragments++

	if f.Model != "" {
		a.stats.Model = f.Model
	}
	if f.Done {
		a.finalize(f)
	}
	return a.text.String()
}

func (a *Accumulator) finalize(f Fragment) {
	a.stats.Done = true
	a.stats.DoneReason = f.DoneReason
	a.stats.TotalDuration = f.TotalDuration
	a.stats.LoadDuration = f.LoadDuration
	a.stats.PromptEvalDuration = f.PromptEvalDuration
	a.stats.EvalDuration = f.EvalDuration
	a.stats.PromptTokens = f.PromptTokens
	a.stats.CompletionTokens = f.CompletionTokens
	if f.EvalDuration > 0 {
		a.stats.TokensPerSecond = float64(f.CompletionTokens) / f.EvalDuration.Seconds()
	}
}

// Text returns the accumulated text.
func (a *Accumulator) Text() string {
	return a.text.String()
}

// Len returns the accumulated text length in bytes.
func (a *Accumulator) Len() int {
	return a.text.Len()
}

// Fragments returns how many fragments have been folded in.
func (a *Accumulator) Fragments() int {
	return a.fragments
}

// Stats returns the statistics gathered so far.
func (a *Accumulator) Stats() Stats {
	return a.stats
}

// Reset clears the accumulator for a new response.
func (a *Accumulator) Reset() {
	a.text.Reset()
	a.fragments = 0
	a.stats = Stats{StartTime: time.Now()}
}
