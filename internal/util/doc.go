// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the presentation layers.
//
// # Key Functions
//
// Input:
//   - NormalizeInput: NFC-normalise a prompt and strip control characters
//
// Display:
//   - TruncateWidth: cut a string to a terminal column width
//   - StringWidth: terminal column width of a string
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync
package util
