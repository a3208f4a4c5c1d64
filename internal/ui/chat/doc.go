// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat interface.
//
// The Model renders session snapshots. It never mutates the conversation
// itself: prompts go to the session, and every change comes back as a
// SnapshotMsg forwarded from the session's listener by Run.
//
// Streaming snapshots are coalesced to the configured frame rate. The
// final snapshot of a response always renders.
package chat
