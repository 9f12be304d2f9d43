// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderInfo  lipgloss.Style

	// Transcript
	UserLabel  lipgloss.Style
	BotLabel   lipgloss.Style
	UserTurn   lipgloss.Style
	BotTurn    lipgloss.Style
	ChartTurn  lipgloss.Style
	Caption    lipgloss.Style
	Pending    lipgloss.Style
	Timestamp  lipgloss.Style
	EmptyState lipgloss.Style

	// Dataset preview
	PreviewHeader lipgloss.Style
	PreviewCell   lipgloss.Style
	PreviewBorder lipgloss.Style
	PreviewHint   lipgloss.Style

	// Input and status
	InputPrompt  lipgloss.Style
	StatusBar    lipgloss.Style
	StatusBusy   lipgloss.Style
	StatusReady  lipgloss.Style
	ErrorBanner  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.HeaderInfo = lipgloss.NewStyle().Foreground(TextSecondary)

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.BotLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)

	t.UserTurn = lipgloss.NewStyle().
		Foreground(UserTurnFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserTurnBorder).
		Padding(0, 1).
		MarginLeft(4)
	t.BotTurn = lipgloss.NewStyle().
		Foreground(BotTurnFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(BotTurnBorder).
		Padding(0, 1).
		MarginRight(4)
	t.ChartTurn = t.BotTurn.BorderForeground(ChartTurnBorder)
	t.Caption = lipgloss.NewStyle().Italic(true).Foreground(TextSecondary)
	t.Pending = lipgloss.NewStyle().Foreground(Amber).Italic(true)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.EmptyState = lipgloss.NewStyle().Foreground(TextMuted).Italic(true).Padding(1, 2)

	t.PreviewHeader = lipgloss.NewStyle().Bold(true).Foreground(Cyan).Padding(0, 1)
	t.PreviewCell = lipgloss.NewStyle().Foreground(TextPrimary).Padding(0, 1)
	t.PreviewBorder = lipgloss.NewStyle().Foreground(Overlay)
	t.PreviewHint = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.InputPrompt = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.StatusBar = lipgloss.NewStyle().Foreground(TextSecondary).Background(SurfaceDim).Padding(0, 1)
	t.StatusBusy = lipgloss.NewStyle().Foreground(Amber)
	t.StatusReady = lipgloss.NewStyle().Foreground(Emerald)
	t.ErrorBanner = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
