// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/blackv/internal/ollama"
	"github.com/jeranaias/blackv/internal/session"
)

// SnapshotMsg carries a session snapshot into the update loop.
type SnapshotMsg struct {
	Snapshot session.Snapshot
}

// retrySubmitMsg resubmits a prompt the session turned away while it was
// still settling into Idle.
type retrySubmitMsg struct {
	Text string
}

// renderTickMsg flushes a snapshot held back by the frame limiter.
type renderTickMsg struct{}

// modelsMsg is the result of /models.
type modelsMsg struct {
	Models []ollama.ModelInfo
	Err    error
}

// modelSwitchMsg is the result of validating /model <name>.
type modelSwitchMsg struct {
	Requested string
	Installed string
	Err       error
}
