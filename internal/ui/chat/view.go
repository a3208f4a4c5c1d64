// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/blackv/internal/model"
	"github.com/jeranaias/blackv/internal/ui/styles"
	"github.com/jeranaias/blackv/internal/util"
)

// View renders the chat view.
func (m Model) View() string {
	if !m.ready {
		return "Starting..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderStatusBar(),
		m.renderInput(),
	)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	brand := m.theme.HeaderBrand.Render("blackv")
	modelInfo := m.theme.HeaderModel.Render(" | " + m.sess.Model())

	var status string
	switch {
	case m.snap.Busy():
		status = m.theme.StatusBusy.Render(" " + styles.StatusIndicators.Busy)
	case m.snap.Err != nil:
		status = m.theme.NoticeError.Render(" " + styles.StatusIndicators.Error)
	default:
		status = m.theme.StatusReady.Render(" " + styles.StatusIndicators.Ready)
	}

	return m.theme.Header.Width(width).Render(brand + modelInfo + status)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func (m *Model) renderTranscript() string {
	conv := m.snap.Conversation
	if conv.IsEmpty() {
		return m.theme.Hint.Render("Ask anything. Type /help for commands.")
	}

	parts := make([]string, 0, conv.Len()+1)
	for _, turn := range conv.Turns() {
		parts = append(parts, m.renderTurn(turn))
	}

	last, _ := conv.Last()
	switch {
	case m.snap.Busy() && last.Role == model.RoleUser:
		parts = append(parts, m.spinner.View()+m.theme.Hint.Render(" thinking"))
	case !m.snap.Busy() && last.Role == model.RoleAssistant:
		if stats := m.snap.Stats.Format(); stats != "" {
			parts = append(parts, m.theme.StatsText.Render(stats))
		}
	}
	return strings.Join(parts, "\n\n")
}

// renderTurn renders one turn, reusing the previous rendering while the
// turn's content and the width are unchanged.
func (m *Model) renderTurn(turn model.Turn) string {
	width := m.renderer.Width()
	if c, ok := m.cache[turn.ID]; ok && c.content == turn.Content && c.width == width {
		return c.out
	}

	var out string
	switch {
	case turn.Role == model.RoleUser:
		out = m.theme.UserLabel.Render(turn.Role.DisplayName()) + "\n" +
			m.theme.UserBubble.Width(width-2).Render(turn.Content)
	case turn.Content == model.ErrorMessage:
		out = m.theme.AssistantLabel.Render(turn.Role.DisplayName()) + "\n" +
			m.theme.ErrorTurn.Render(turn.Content)
	default:
		out = m.theme.AssistantLabel.Render(turn.Role.DisplayName()) + "\n" +
			m.theme.AssistantBody.Render(m.renderer.Render(turn.Content))
	}

	m.cache[turn.ID] = cachedTurn{content: turn.Content, width: width, out: out}
	return out
}

// =============================================================================
// STATUS AND INPUT
// =============================================================================

func (m Model) renderStatusBar() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var text string
	switch {
	case m.notice != "" && m.noticeIsErr:
		text = m.theme.NoticeError.Render(util.TruncateWidth(m.notice, width-2))
	case m.notice != "":
		text = m.theme.Notice.Render(util.TruncateWidth(m.notice, width-2))
	case m.snap.Busy():
		text = m.spinner.View() + m.theme.Hint.Render(" generating...")
	default:
		help := make([]string, 0, 4)
		for _, b := range m.keys.ShortHelp() {
			help = append(help, b.Help().Key+" "+b.Help().Desc)
		}
		text = m.theme.Hint.Render(util.TruncateWidth(strings.Join(help, " | "), width-2))
	}
	return m.theme.StatusBar.Width(width).Render(text)
}

func (m Model) renderInput() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	return m.theme.InputContainer.Width(width).Render(m.input.View())
}
