// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chartchat/internal/ui/components"
	"github.com/jeranaias/chartchat/internal/ui/styles"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting chartchat..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.top(), m.viewport.View(), m.bottom())
}

func (m Model) top() string {
	m.header.Width = m.width
	return m.header.View()
}

// bottom is everything under the transcript.
func (m Model) bottom() string {
	var parts []string

	m.preview.Dataset = m.state.Dataset
	m.preview.Visible = m.state.PreviewVisible
	m.preview.Width = m.width
	if p := m.preview.View(); p != "" {
		parts = append(parts, p)
	}
	if e := components.ErrorLine(m.theme, m.state.Error); e != "" {
		parts = append(parts, e)
	}
	if m.notice != "" {
		parts = append(parts, m.notice)
	}
	if s := m.spinner.View(); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, m.input.View())

	if m.showAll {
		m.help.ShowAll = true
		parts = append(parts, m.help.View(m.keys))
	}

	m.status.State = m.state
	m.status.Width = m.width
	parts = append(parts, m.status.View())
	return strings.Join(parts, "\n")
}

// layout sizes the viewport to the space the other parts leave.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	chrome := lipgloss.Height(m.top()) + lipgloss.Height(m.bottom())
	h := m.height - chrome
	if h < 3 {
		h = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.input.Width = m.width - 4
	m.refreshTranscript()
}

// refreshTranscript re-renders every turn into the viewport.
func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderTurns())
}

func (m Model) renderTurns() string {
	if len(m.state.Turns) == 0 {
		hint := "Ask a question about your data, e.g. \"bar chart of sales by region\"."
		if m.state.Dataset == nil {
			hint = "Load a dataset with /upload <file.csv>, then ask for a chart."
		}
		return m.theme.EmptyState.Render(hint)
	}

	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	chartIndex := 0
	for i, t := range m.state.Turns {
		bubble := components.NewTurnBubble(t, m.theme)
		bubble.Width = width
		bubble.Markdown = m.markdown
		bubble.ShowTimestamp = m.theme.GetLayoutMode() != styles.LayoutNarrow
		if t.IsChart() {
			chartIndex++
			bubble.Index = chartIndex
			bubble.Location = m.locations[t.ID]
		}
		if t.IsPending() {
			bubble.Frame = m.spinner.Frame()
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(bubble.View())
	}
	return b.String()
}
