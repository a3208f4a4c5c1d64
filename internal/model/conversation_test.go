// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "testing"

func TestConversation_AppendIsImmutable(t *testing.T) {
	base := NewConversation(NewTurn(RoleUser, "one"))

	a := base.Append(NewTurn(RoleAssistant, "a"))
	b := base.Append(NewTurn(RoleAssistant, "b"))

	if base.Len() != 1 {
		t.Errorf("base.Len() = %d, want 1", base.Len())
	}
	if got := a.At(1).Content; got != "a" {
		t.Errorf("a[1] = %q, want %q (overwritten by sibling append)", got, "a")
	}
	if got := b.At(1).Content; got != "b" {
		t.Errorf("b[1] = %q, want %q", got, "b")
	}
}

func TestConversation_ReplaceLastIsImmutable(t *testing.T) {
	first := NewConversation(NewTurn(RoleUser, "hi"), NewTurn(RoleAssistant, "Hel"))
	second := first.ReplaceLast(Turn{ID: first.At(1).ID, Role: RoleAssistant, Content: "Hello"})

	if first.At(1).Content != "Hel" {
		t.Errorf("earlier snapshot changed to %q", first.At(1).Content)
	}
	if second.At(1).Content != "Hello" {
		t.Errorf("second[1] = %q, want Hello", second.At(1).Content)
	}
	if second.At(1).ID != first.At(1).ID {
		t.Error("ReplaceLast changed the turn ID")
	}
}

func TestConversation_Find(t *testing.T) {
	reply := NewTurn(RoleAssistant, "reply")
	conv := NewConversation(NewTurn(RoleUser, "q"), reply)

	got, ok := conv.Find(reply.ID)
	if !ok || got.Content != "reply" {
		t.Errorf("Find(reply) = %+v, %v", got, ok)
	}
	if _, ok := conv.Find(NewTurn(RoleUser, "x").ID); ok {
		t.Error("Find returned a turn that is not in the conversation")
	}
}

func TestConversation_TurnsReturnsCopy(t *testing.T) {
	conv := NewConversation(NewTurn(RoleUser, "x"))
	turns := conv.Turns()
	turns[0].Content = "mutated"
	if conv.At(0).Content != "x" {
		t.Errorf("Turns() exposed internal storage")
	}
}

func TestConversation_Empty(t *testing.T) {
	var conv Conversation
	if !conv.IsEmpty() {
		t.Error("zero Conversation should be empty")
	}
	if _, ok := conv.Last(); ok {
		t.Error("Last() on empty conversation returned ok")
	}
	conv = conv.ReplaceLast(NewTurn(RoleAssistant, "a"))
	if conv.Len() != 1 {
		t.Errorf("ReplaceLast on empty: Len() = %d, want 1", conv.Len())
	}
}

func TestTurn_Preview(t *testing.T) {
	tests := []struct {
		content string
		max     int
		want    string
	}{
		{"short", 10, "short"},
		{"multi\nline   text", 20, "multi line text"},
		{"abcdefghij", 8, "abcde..."},
		{"日本語のテキスト", 5, "日本..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := NewTurn(RoleUser, tt.content).Preview(tt.max); got != tt.want {
			t.Errorf("Preview(%q, %d) = %q, want %q", tt.content, tt.max, got, tt.want)
		}
	}
}

func TestRole_DisplayName(t *testing.T) {
	if RoleUser.DisplayName() != "You" || RoleAssistant.DisplayName() != "Assistant" {
		t.Errorf("DisplayName = %q / %q", RoleUser.DisplayName(), RoleAssistant.DisplayName())
	}
	if Role("tool").DisplayName() != "tool" {
		t.Errorf("unknown role DisplayName = %q", Role("tool").DisplayName())
	}
}
