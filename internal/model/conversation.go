// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "github.com/google/uuid"

// Conversation is an ordered, immutable snapshot of turns. Insertion order is
// display order. The zero value is an empty conversation.
//
// Append and ReplaceLast return a new Conversation and never write to memory
// reachable from an existing one, so snapshots can be handed to other
// goroutines without copying.
type Conversation struct {
	turns []Turn
}

// NewConversation creates a conversation holding the given turns.
func NewConversation(turns ...Turn) Conversation {
	return Conversation{turns: append([]Turn(nil), turns...)}
}

// Len returns the number of turns.
func (c Conversation) Len() int {
	return len(c.turns)
}

// IsEmpty reports whether the conversation has no turns.
func (c Conversation) IsEmpty() bool {
	return len(c.turns) == 0
}

// At returns the turn at index i. It panics if i is out of range.
func (c Conversation) At(i int) Turn {
	return c.turns[i]
}

// Turns returns a copy of the turns in order.
func (c Conversation) Turns() []Turn {
	return append([]Turn(nil), c.turns...)
}

// Last returns the final turn, if any.
func (c Conversation) Last() (Turn, bool) {
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}

// Find returns the turn with the given ID.
func (c Conversation) Find(id uuid.UUID) (Turn, bool) {
	for _, t := range c.turns {
		if t.ID == id {
			return t, true
		}
	}
	return Turn{}, false
}

// Append returns a new conversation with t added at the end.
func (c Conversation) Append(t Turn) Conversation {
	// The full slice expression forces a copy, so a later Append on the
	// same receiver cannot overwrite this result.
	return Conversation{turns: append(c.turns[:len(c.turns):len(c.turns)], t)}
}

// ReplaceLast returns a new conversation whose final turn is t. On an empty
// conversation it behaves like Append.
func (c Conversation) ReplaceLast(t Turn) Conversation {
	if len(c.turns) == 0 {
		return c.Append(t)
	}
	turns := make([]Turn, len(c.turns))
	copy(turns, c.turns)
	turns[len(turns)-1] = t
	return Conversation{turns: turns}
}
