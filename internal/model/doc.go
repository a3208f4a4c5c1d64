// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation data structures and the reducer
// that folds a streaming response into them.
//
// # Key Types
//
//   - Turn: one message, identified by a UUID
//   - Conversation: an immutable, ordered snapshot of turns
//   - Reducer: the only writer; every transition returns a new Conversation
//
// # Turn-taking
//
// A response opens an assistant turn on its first fragment and keeps
// replacing that same turn (same ID) as text accumulates. The reducer tracks
// the open turn by ID, not by looking at the role of the last turn, so two
// consecutive assistant turns from different responses never merge.
//
// # Usage
//
//	r := model.NewReducer()
//	r.SubmitUser("Hi")
//	r.Extend("Hel")
//	r.Extend("Hello")
//	conv := r.Finalize("Hello")
package model
