// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdModels
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdAsk:
		return "ask"
	case CmdModels:
		return "models"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Model      string
	URL        string
	System     string
	ConfigPath string
	LogLevel   string
	NoMarkdown bool
	Quiet      bool

	// ExplicitTUI is set by "blackv tui", which skips the TTY check.
	ExplicitTUI bool

	// Command-specific
	Query      string
	Subcommand string
}

var (
	stringFlags = []string{"model", "m", "url", "system", "config", "log-level"}
	boolFlags   = []string{"no-markdown", "quiet", "q", "help", "h", "version"}
)

const usageText = `blackv - chat with a local Ollama model

Usage:
  blackv [flags]                 Full-screen chat
  blackv chat [flags]            Line chat with input history
  blackv ask [flags] <prompt>    Ask once and print the answer
  blackv models                  List installed models
  blackv config [show|init|path] Show, create, or locate the config file
  blackv version                 Print version information
  blackv help                    Show this help

Flags:
  -m, --model NAME      Model to use (default from config, else %s)
      --url URL         Ollama base URL
      --system TEXT     System prompt
      --config PATH     Config file (default ~/.blackv/config.toml)
      --log-level LVL   debug, info, warn or error
      --no-markdown     Print responses as plain text
  -q, --quiet           Suppress banners and statistics

In chat:
  /model [name]   show or switch the model
  /models         list installed models
  /system [text]  show or set the system prompt
  /help           show commands
  /quit           exit

Environment:
  BLACKV_MODEL, BLACKV_SYSTEM, BLACKV_OLLAMA_URL, BLACKV_LOG_LEVEL,
  BLACKV_LOG_FILE, BLACKV_MARKDOWN (also read from ./.env)

Version: %s
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, defaultModelHint, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "blackv version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, boolFlags...)

	for _, name := range p.FlagNames() {
		if !slices.Contains(stringFlags, name) && !slices.Contains(boolFlags, name) {
			return CmdHelp, Args{}, &UsageError{Reason: "unknown flag --" + name, Hint: "blackv help"}
		}
	}
	for _, name := range stringFlags {
		if p.BoolFlag(name) {
			return CmdHelp, Args{}, &UsageError{Reason: "flag --" + name + " needs a value", Hint: "blackv help"}
		}
	}

	args := Args{
		Model:      p.Flag("model", "m"),
		URL:        p.Flag("url"),
		System:     p.Flag("system"),
		ConfigPath: p.Flag("config"),
		LogLevel:   p.Flag("log-level"),
		NoMarkdown: p.BoolFlag("no-markdown"),
		Quiet:      p.BoolFlag("quiet", "q"),
	}

	if p.BoolFlag("help", "h") {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version") {
		return CmdVersion, args, nil
	}
	if p.PositionalCount() == 0 {
		return CmdTUI, args, nil
	}

	cmd := strings.ToLower(p.Positional(0))
	rest := p.PositionalFrom(1)

	switch cmd {
	case "tui":
		args.ExplicitTUI = true
		return CmdTUI, args, nil

	case "chat":
		return CmdChat, args, nil

	case "ask":
		args.Query = strings.TrimSpace(strings.Join(rest, " "))
		if args.Query == "" {
			return CmdAsk, args, &UsageError{Reason: "ask needs a prompt", Hint: `blackv ask "your question"`}
		}
		return CmdAsk, args, nil

	case "models", "list":
		return CmdModels, args, nil

	case "config":
		args.Subcommand = "show"
		if len(rest) > 0 {
			args.Subcommand = strings.ToLower(rest[0])
		}
		switch args.Subcommand {
		case "show", "init", "path":
			return CmdConfig, args, nil
		}
		return CmdConfig, args, &UsageError{Reason: "unknown config subcommand " + args.Subcommand, Hint: "blackv config [show|init|path]"}

	case "version":
		return CmdVersion, args, nil

	case "help":
		return CmdHelp, args, nil
	}

	return CmdHelp, args, &UsageError{Reason: "unknown command " + cmd, Hint: "blackv help"}
}
