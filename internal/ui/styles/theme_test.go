// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/muesli/termenv"
)

func TestDetectDark_Explicit(t *testing.T) {
	if !DetectDark("dark") || !DetectDark("DARK") {
		t.Error("dark theme should be dark")
	}
	if DetectDark("light") {
		t.Error("light theme should not be dark")
	}
}

func TestNewTheme(t *testing.T) {
	theme := NewTheme("light")
	if theme.IsDark {
		t.Error("IsDark = true for light theme")
	}

	cases := []struct {
		name, text, rendered string
	}{
		{"UserLabel", "You", theme.UserLabel.Render("You")},
		{"AssistantLabel", "Assistant", theme.AssistantLabel.Render("Assistant")},
		{"ErrorTurn", "Error", theme.ErrorTurn.Render("Error")},
		{"StatusBar", "ready", theme.StatusBar.Render("ready")},
	}
	for _, c := range cases {
		if !strings.Contains(c.rendered, c.text) {
			t.Errorf("%s.Render(%q) = %q, text lost", c.name, c.text, c.rendered)
		}
	}
}

func TestGlamourStyle(t *testing.T) {
	tests := []struct {
		theme Theme
		want  string
	}{
		{Theme{IsDark: true, ColorProfile: termenv.TrueColor}, "dark"},
		{Theme{IsDark: false, ColorProfile: termenv.ANSI256}, "light"},
		{Theme{IsDark: true, ColorProfile: termenv.Ascii}, "notty"},
	}
	for _, tt := range tests {
		if got := tt.theme.GlamourStyle(); got != tt.want {
			t.Errorf("GlamourStyle(%+v) = %q, want %q", tt.theme.IsDark, got, tt.want)
		}
	}
}

func TestThinkingSpinner(t *testing.T) {
	if len(ThinkingSpinner.Frames) == 0 || ThinkingSpinner.FPS <= 0 {
		t.Errorf("ThinkingSpinner = %+v", ThinkingSpinner)
	}
}
