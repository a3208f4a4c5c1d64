// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns assistant turn text into terminal output.
//
// With markdown enabled the text goes through glamour. Without it, prose is
// word-wrapped and fenced code blocks are syntax highlighted with chroma,
// or left untouched when color is off.
package render
