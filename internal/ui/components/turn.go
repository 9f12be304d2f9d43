// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chartchat/internal/chart"
	"github.com/jeranaias/chartchat/internal/transcript"
	"github.com/jeranaias/chartchat/internal/ui/styles"
)

// =============================================================================
// TURN BUBBLE
// =============================================================================

// TurnBubble renders one transcript turn.
type TurnBubble struct {
	Turn  transcript.Turn
	Width int

	// Index is the 1-based position of a chart turn among all chart turns,
	// used by the /chart command. Zero hides it.
	Index int

	// Location is where the rendered chart was written, if it was.
	Location string

	// Markdown renders bot text when set.
	Markdown *glamour.TermRenderer

	// Frame is the spinner frame shown on the pending placeholder.
	Frame string

	ShowTimestamp bool
	theme         *styles.Theme
}

// NewTurnBubble creates a bubble for a turn.
func NewTurnBubble(turn transcript.Turn, theme *styles.Theme) *TurnBubble {
	return &TurnBubble{Turn: turn, Width: 80, theme: theme}
}

// View renders the bubble.
func (b *TurnBubble) View() string {
	width := b.Width
	if width < 20 {
		width = 20
	}
	inner := width - 8

	switch {
	case b.Turn.IsPending():
		frame := b.Frame
		if frame == "" {
			frame = "..."
		}
		return b.theme.BotLabel.Render(transcript.SenderBot.DisplayName()) + "\n" +
			b.theme.Pending.Render(frame+" Generating chart")
	case b.Turn.Sender == transcript.SenderUser:
		return b.label() + "\n" + b.theme.UserTurn.Width(inner).Render(b.Turn.Text)
	case b.Turn.IsChart():
		return b.label() + "\n" + b.theme.ChartTurn.Width(inner).Render(b.chartBody(inner))
	default:
		return b.label() + "\n" + b.theme.BotTurn.Width(inner).Render(b.text())
	}
}

func (b *TurnBubble) label() string {
	style := b.theme.BotLabel
	if b.Turn.Sender == transcript.SenderUser {
		style = b.theme.UserLabel
	}
	out := style.Render(b.Turn.Sender.DisplayName())
	if b.ShowTimestamp && !b.Turn.CreatedAt.IsZero() {
		out += " " + b.theme.Timestamp.Render(b.Turn.CreatedAt.Format("15:04:05"))
	}
	return out
}

func (b *TurnBubble) text() string {
	if b.Markdown == nil {
		return b.Turn.Text
	}
	out, err := b.Markdown.Render(b.Turn.Text)
	if err != nil {
		return b.Turn.Text
	}
	return strings.Trim(out, "\n")
}

func (b *TurnBubble) chartBody(width int) string {
	var lines []string
	head := "Chart"
	if b.Index > 0 {
		head += " #" + strconv.Itoa(b.Index)
	}
	if sum, err := chart.Summarize(b.Turn.ChartSpec); err == nil {
		if sum.Title != "" {
			head += ": " + sum.Title
		}
		if sum.Mark != "" {
			head += " (" + sum.Mark + ")"
		}
		lines = append(lines, lipgloss.NewStyle().Bold(true).Render(head))
		for _, enc := range sum.Encodings {
			lines = append(lines, "  "+enc.String())
		}
	} else {
		lines = append(lines, lipgloss.NewStyle().Bold(true).Render(head))
	}
	lines = append(lines, b.theme.Caption.Render(b.Turn.Text))
	if b.Location != "" {
		lines = append(lines, styles.RenderInfo(b.Location))
	}
	return strings.Join(lines, "\n")
}
