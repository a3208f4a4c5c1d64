// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// FallbackMessage replaces a response that finished with no visible text.
	FallbackMessage = "I'm sorry, but I couldn't generate a response."

	// ErrorMessage is appended when a response could not be fetched.
	ErrorMessage = "Error: Could not fetch response."
)

// Reducer owns the conversation and applies the turn-taking rules.
//
// Per response it moves through three states: no active assistant turn,
// assistant turn open (after the first Extend), and finalized. Every method
// returns the resulting snapshot.
//
// A Reducer has a single writer and is not safe for concurrent use;
// snapshots it returns are.
type Reducer struct {
	conv   Conversation
	active uuid.UUID
	open   bool
}

// NewReducer creates a reducer over an empty conversation.
func NewReducer() *Reducer {
	return &Reducer{}
}

// NewReducerFrom creates a reducer that continues an existing conversation.
func NewReducerFrom(conv Conversation) *Reducer {
	return &Reducer{conv: conv}
}

// Snapshot returns the current conversation.
func (r *Reducer) Snapshot() Conversation {
	return r.conv
}

// Active returns the ID of the open assistant turn, if there is one.
func (r *Reducer) Active() (uuid.UUID, bool) {
	return r.active, r.open
}

// SubmitUser appends a user turn. Any open assistant turn is closed as-is.
func (r *Reducer) SubmitUser(text string) Conversation {
	r.close()
	r.conv = r.conv.Append(NewTurn(RoleUser, text))
	return r.conv
}

// Extend shows text as the current state of the response. The first call of
// a response appends a new assistant turn; later calls replace it, keeping
// its ID.
func (r *Reducer) Extend(text string) Conversation {
	r.put(text)
	return r.conv
}

// Finalize records the complete response and closes it. Blank text is
// replaced with FallbackMessage so that no empty assistant turn remains.
func (r *Reducer) Finalize(text string) Conversation {
	if strings.TrimSpace(text) == "" {
		text = FallbackMessage
	}
	r.put(text)
	r.close()
	return r.conv
}

// Fail appends an error turn and closes the response. A partial assistant
// turn that was already shown is left in place.
func (r *Reducer) Fail() Conversation {
	r.close()
	r.conv = r.conv.Append(NewTurn(RoleAssistant, ErrorMessage))
	return r.conv
}

// put replaces the open assistant turn or opens a new one.
func (r *Reducer) put(text string) {
	if r.open {
		if last, ok := r.conv.Last(); ok && last.ID == r.active {
			r.conv = r.conv.ReplaceLast(Turn{ID: r.active, Role: RoleAssistant, Content: text})
			return
		}
	}
	turn := NewTurn(RoleAssistant, text)
	r.conv = r.conv.Append(turn)
	r.active = turn.ID
	r.open = true
}

func (r *Reducer) close() {
	r.active = uuid.Nil
	r.open = false
}
