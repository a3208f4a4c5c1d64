// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives one chat conversation against a generator.
//
// The Controller accepts a user prompt, opens a streaming request, pulls
// the response through the stream package, and folds every fragment into
// the conversation with a model.Reducer. Each transition is published as a
// Snapshot to registered listeners.
//
// # Key Types
//
//   - Controller: request/response cycle and the Idle/Busy gate
//   - Snapshot: conversation, status and statistics at one instant
//   - Generator: the transport, satisfied by *ollama.Client
//
// # Concurrency
//
// Only one cycle runs at a time. A submission while Busy is rejected with
// ErrBusy and changes nothing; it is never queued. Listeners run on the
// cycle's goroutine, in order, and must not block for long.
//
// # Usage
//
//	ctrl := session.New(client, session.WithLogger(logger))
//	ctrl.OnUpdate(func(s session.Snapshot) {
//	    program.Send(chat.SnapshotMsg(s))
//	})
//	if err := ctrl.Submit(ctx, "Hello"); err != nil {
//	    // ErrBusy or ErrEmptyPrompt
//	}
package session
