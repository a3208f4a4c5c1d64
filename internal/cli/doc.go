// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI front ends.
//
// Commands:
//
//	blackv                 full-screen chat (line chat when stdout is not a terminal)
//	blackv chat            line-oriented chat with input history
//	blackv ask "prompt"    one exchange, then exit
//	blackv models          list installed models
//	blackv config [show|init|path]
//	blackv version | help
//
// Every front end drives the same session.Controller built by NewApp.
package cli
