// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/blackv/internal/ollama"
)

// catalogTimeout bounds /model and /models requests.
const catalogTimeout = 10 * time.Second

// Command describes a slash command.
type Command struct {
	Name  string
	Args  string
	Usage string
}

// Commands lists the slash commands in help order.
var Commands = []Command{
	{Name: "/model", Args: "[name]", Usage: "show or switch the model"},
	{Name: "/models", Usage: "list installed models"},
	{Name: "/system", Args: "[text]", Usage: "show or set the system prompt"},
	{Name: "/help", Usage: "show commands"},
	{Name: "/quit", Usage: "exit"},
}

// ParseCommand splits "/name arg text" into its name and argument.
func ParseCommand(line string) (name, arg string) {
	line = strings.TrimSpace(line)
	name, arg, _ = strings.Cut(line, " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}

// HelpText returns the one-line command summary.
func HelpText() string {
	parts := make([]string, 0, len(Commands))
	for _, c := range Commands {
		usage := c.Name
		if c.Args != "" {
			usage += " " + c.Args
		}
		parts = append(parts, usage)
	}
	return "Commands: " + strings.Join(parts, ", ")
}

func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	name, arg := ParseCommand(line)
	switch name {
	case "/quit", "/exit":
		return m, tea.Quit

	case "/help", "/?":
		m.setNotice(HelpText(), false)
		return m, nil

	case "/model":
		if arg == "" {
			m.setNotice("Model: "+m.sess.Model(), false)
			return m, nil
		}
		m.setNotice("Checking "+arg+"...", false)
		return m, switchModelCmd(m.ctx, m.catalog, arg)

	case "/models":
		m.setNotice("Listing models...", false)
		return m, listModelsCmd(m.ctx, m.catalog)

	case "/system":
		if arg == "" {
			system := m.sess.System()
			if system == "" {
				system = "(none)"
			}
			m.setNotice("System: "+system, false)
			return m, nil
		}
		m.sess.SetSystem(arg)
		m.setNotice("System prompt updated for the next message.", false)
		return m, nil
	}

	m.setNotice(fmt.Sprintf("Unknown command %s. Type /help.", name), true)
	return m, nil
}

func listModelsCmd(ctx context.Context, catalog Catalog) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, catalogTimeout)
		defer cancel()
		models, err := catalog.ListModels(ctx)
		return modelsMsg{Models: models, Err: err}
	}
}

func switchModelCmd(ctx context.Context, catalog Catalog, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, catalogTimeout)
		defer cancel()
		models, err := catalog.ListModels(ctx)
		if err != nil {
			return modelSwitchMsg{Requested: name, Err: err}
		}
		for _, mi := range models {
			if ollama.MatchModelName(mi.Name, name) {
				return modelSwitchMsg{Requested: name, Installed: mi.Name}
			}
		}
		return modelSwitchMsg{Requested: name}
	}
}

func (m Model) handleModels(msg modelsMsg) Model {
	if msg.Err != nil {
		m.setNotice(describeError(msg.Err), true)
		return m
	}
	if len(msg.Models) == 0 {
		m.setNotice("No models installed. Run: ollama pull "+ollama.DefaultModel, true)
		return m
	}

	current := m.sess.Model()
	names := make([]string, 0, len(msg.Models))
	for _, mi := range msg.Models {
		entry := fmt.Sprintf("%s (%s)", mi.Name, mi.FormatSize())
		if ollama.MatchModelName(mi.Name, current) {
			entry = "*" + entry
		}
		names = append(names, entry)
	}
	m.setNotice("Models: "+strings.Join(names, ", "), false)
	return m
}

func (m Model) handleModelSwitch(msg modelSwitchMsg) Model {
	switch {
	case msg.Err != nil:
		m.setNotice(describeError(msg.Err), true)
	case msg.Installed == "":
		m.setNotice(fmt.Sprintf("Model %q is not installed. Run: ollama pull %s", msg.Requested, msg.Requested), true)
	default:
		m.sess.SetModel(msg.Installed)
		m.logger.Info("model switched", "model", msg.Installed)
		m.setNotice("Switched to "+msg.Installed+".", false)
	}
	return m
}

// describeError turns client failures into a short hint.
func describeError(err error) string {
	switch {
	case ollama.IsNotRunning(err):
		return "Ollama is not running. Start it with: ollama serve"
	case ollama.IsTimeout(err):
		return "Ollama did not answer in time."
	}
	return err.Error()
}
