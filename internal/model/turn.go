// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"

	"github.com/google/uuid"
)

// Turn is one message in a conversation. Turns are values; a turn that has
// been superseded in a later snapshot is never modified.
type Turn struct {
	ID      uuid.UUID `json:"id"`
	Role    Role      `json:"role"`
	Content string    `json:"content"`
}

// NewTurn creates a turn with a fresh ID.
func NewTurn(role Role, content string) Turn {
	return Turn{ID: uuid.New(), Role: role, Content: content}
}

// IsBlank reports whether the turn has no visible content.
func (t Turn) IsBlank() bool {
	return strings.TrimSpace(t.Content) == ""
}

// Preview returns a single-line preview of at most maxLen characters.
// UNICODE: Rune-aware truncation preserves multi-byte characters.
func (t Turn) Preview(maxLen int) string {
	content := strings.Join(strings.Fields(t.Content), " ")
	runes := []rune(content)
	if maxLen <= 0 || len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
