// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/blackv/internal/config"
	"github.com/jeranaias/blackv/internal/model"
	"github.com/jeranaias/blackv/internal/ollama"
	"github.com/jeranaias/blackv/internal/session"
	"github.com/jeranaias/blackv/internal/ui/chat"
	"github.com/jeranaias/blackv/internal/util"
)

// catalogTimeout bounds /model and /models lookups.
const catalogTimeout = 10 * time.Second

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of input.
type LineReader interface {
	ReadInput(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for the line chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor with history loaded from
// ~/.blackv/chat_history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile, err := config.HistoryPath()
	if err != nil {
		historyFile = ""
	}

	cli := &ChatCLI{line: line, historyFile: historyFile}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input, recording non-blank lines in history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes history with owner-only permissions.
func (c *ChatCLI) SaveHistory() error {
	if c.historyFile == "" {
		return nil
	}
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = c.line.WriteHistory(f)
	return err
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	err := c.SaveHistory()
	return errors.Join(err, c.line.Close())
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs "blackv chat".
func HandleChat(ctx context.Context, args Args, stdout, stderr io.Writer) error {
	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	input := NewChatCLI()
	defer func() {
		if err := input.Close(); err != nil {
			app.Logger.Warn("could not save chat history", "err", err)
		}
	}()

	o := NewOutput(app, stdout, stderr, IsStdoutTTY())
	return runWithWatcher(ctx, app, func(ctx context.Context) error {
		return RunChat(ctx, app, input, o)
	})
}

// RunChat runs the read-respond loop until EOF, /quit or ctx is done.
func RunChat(ctx context.Context, app *App, in LineReader, o Output) error {
	printer, err := newResponsePrinter(o)
	if err != nil {
		return err
	}
	app.Session.OnUpdate(printer.OnUpdate)

	if !o.Quiet {
		printWelcome(o.Out, app.Session)
	}

	for ctx.Err() == nil {
		line, err := in.ReadInput(PromptStyle.Render("blackv> "))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D, or closed input.
			fmt.Fprintln(o.Out)
			return nil
		}

		line = util.NormalizeInput(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := handleSlashCommand(ctx, app, line, o); quit {
				return nil
			}
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		respond(ctx, app, line, printer, o)
	}
	return nil
}

// respond runs one exchange. Ctrl+C while it runs cancels the request.
func respond(ctx context.Context, app *App, line string, printer *responsePrinter, o Output) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	err := app.Session.Exchange(ctx, line)
	if err != nil {
		printer.Abort()
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			fmt.Fprintln(o.Err, WarningStyle.Render("[Cancelled]"))
			return
		}
		fmt.Fprintln(o.Err, ErrorStyle.Render(model.ErrorMessage))
		fmt.Fprintln(o.Err, DimStyle.Render(explain(err, app.Session.Model()).Error()))
		return
	}

	snap := app.Session.Snapshot()
	printer.Finish(snap)
	printStats(o, snap.Stats.Format())
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs a command and reports whether to quit.
func handleSlashCommand(ctx context.Context, app *App, line string, o Output) bool {
	name, arg := chat.ParseCommand(line)
	switch name {
	case "/quit", "/exit", "/q":
		return true

	case "/help", "/?", "/h":
		for _, c := range chat.Commands {
			usage := c.Name
			if c.Args != "" {
				usage += " " + c.Args
			}
			fmt.Fprintf(o.Out, "  %s %s\n", util.PadRight(usage, 16), DimStyle.Render(c.Usage))
		}

	case "/model":
		if arg == "" {
			fmt.Fprintln(o.Out, RenderLabel("Model", app.Session.Model()))
			return false
		}
		installed, err := findModel(ctx, app.Client, arg)
		if err != nil {
			fmt.Fprintln(o.Err, ErrorStyle.Render(explain(err, arg).Error()))
			return false
		}
		if installed == "" {
			fmt.Fprintln(o.Err, ErrorStyle.Render(fmt.Sprintf("Model %q is not installed. Run: ollama pull %s", arg, arg)))
			return false
		}
		app.Session.SetModel(installed)
		app.Logger.Info("model switched", "model", installed)
		fmt.Fprintln(o.Out, "Switched to "+HighlightStyle.Render(installed))

	case "/models":
		lctx, cancel := context.WithTimeout(ctx, catalogTimeout)
		defer cancel()
		models, err := app.Client.ListModels(lctx)
		if err != nil {
			fmt.Fprintln(o.Err, ErrorStyle.Render(explain(err, "").Error()))
			return false
		}
		printModels(o.Out, models, app.Session.Model())

	case "/system":
		if arg == "" {
			system := app.Session.System()
			if system == "" {
				system = "(none)"
			}
			fmt.Fprintln(o.Out, RenderLabel("System", system))
			return false
		}
		app.Session.SetSystem(arg)
		fmt.Fprintln(o.Out, DimStyle.Render("System prompt updated for the next message."))

	default:
		fmt.Fprintln(o.Err, ErrorStyle.Render("Unknown command "+name+". Type /help."))
	}
	return false
}

// findModel returns the installed name matching requested, or "".
func findModel(ctx context.Context, client *ollama.Client, requested string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()
	models, err := client.ListModels(ctx)
	if err != nil {
		return "", err
	}
	for _, m := range models {
		if ollama.MatchModelName(m.Name, requested) {
			return m.Name, nil
		}
	}
	return "", nil
}

func printWelcome(w io.Writer, sess *session.Controller) {
	fmt.Fprintln(w, TitleStyle.Render("blackv")+DimStyle.Render(" "+Version))
	fmt.Fprintln(w, RenderSeparator(min(GetTerminalWidth(), 60)))
	fmt.Fprintln(w, RenderLabel("Model", sess.Model()))
	fmt.Fprintln(w, DimStyle.Render("Type /help for commands, Ctrl+D to exit."))
	fmt.Fprintln(w)
}
