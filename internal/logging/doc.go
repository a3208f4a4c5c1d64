// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide slog logger.
//
// The TUI owns the terminal, so logs default to ~/.blackv/blackv.log. Set
// log.file to "-" to log to stderr instead.
package logging
