// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/blackv/internal/session"
	"github.com/jeranaias/blackv/internal/util"
)

// busyRetryDelay is how long a prompt refused as busy waits before its
// single retry.
const busyRetryDelay = 20 * time.Millisecond

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg.Width, msg.Height), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.following = m.viewport.AtBottom()
		return m, cmd

	case SnapshotMsg:
		return m.handleSnapshot(msg.Snapshot)

	case renderTickMsg:
		m.tickPending = false
		if m.dirty {
			m.dirty = false
			m.refresh()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.snap.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case retrySubmitMsg:
		return m.send(msg.Text, false)

	case modelsMsg:
		return m.handleModels(msg), nil

	case modelSwitchMsg:
		return m.handleModelSwitch(msg), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) resize(width, height int) Model {
	m.width = width
	m.height = height
	m.input.Width = max(width-4, 1)

	wrap := min(m.wordWrap, width-4)
	if err := m.renderer.SetWidth(wrap); err != nil {
		m.logger.Warn("markdown renderer resize failed", "err", err)
	}

	chrome := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderStatusBar()) +
		lipgloss.Height(m.renderInput())
	m.viewport.Width = width
	m.viewport.Height = max(height-chrome, 1)
	m.ready = true

	m.refresh()
	return m
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	if m.following {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		m.following = m.viewport.AtBottom()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		m.following = m.viewport.AtBottom()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		m.following = m.viewport.AtBottom()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		m.following = m.viewport.AtBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := util.NormalizeInput(m.input.Value())
	if text == "" {
		return m, nil
	}
	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.runCommand(text)
	}
	if m.snap.Busy() {
		m.setNotice("Still responding. Wait for the current response to finish.", false)
		return m, nil
	}

	return m.send(text, true)
}

// send submits text to the session. The session publishes its Idle
// snapshot just before it accepts a new turn, so a busy refusal seen while
// already Idle is retried once after a short delay.
func (m Model) send(text string, retry bool) (tea.Model, tea.Cmd) {
	if err := m.sess.Submit(m.ctx, text); err != nil {
		if errors.Is(err, session.ErrBusy) {
			if retry && !m.snap.Busy() {
				return m, tea.Tick(busyRetryDelay, func(time.Time) tea.Msg {
					return retrySubmitMsg{Text: text}
				})
			}
			m.setNotice("Still responding. Wait for the current response to finish.", false)
			return m, nil
		}
		m.setNotice(err.Error(), true)
		return m, nil
	}

	m.input.Reset()
	m.clearNotice()
	m.following = true
	m.snap = m.sess.Snapshot()
	m.refresh()
	return m, m.spinner.Tick
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// handleSnapshot stores the snapshot and redraws now if the limiter allows
// it. A held-back snapshot is drawn on the next frame tick. Idle snapshots
// always draw immediately.
func (m Model) handleSnapshot(snap session.Snapshot) (tea.Model, tea.Cmd) {
	m.snap = snap

	if !snap.Busy() {
		m.dirty = false
		if snap.Err != nil {
			m.setNotice(describeError(snap.Err), true)
		}
		m.refresh()
		return m, nil
	}

	if m.limiter.Allow() {
		m.dirty = false
		m.refresh()
		return m, nil
	}

	m.dirty = true
	if m.tickPending {
		return m, nil
	}
	m.tickPending = true
	return m, tea.Tick(m.frame, func(time.Time) tea.Msg { return renderTickMsg{} })
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeIsErr = isErr
}

func (m *Model) clearNotice() {
	m.notice = ""
	m.noticeIsErr = false
}
