// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chartchat/internal/ui/styles"
)

// =============================================================================
// HEADER
// =============================================================================

// Header is the title bar.
type Header struct {
	Title     string
	ServerURL string
	SessionID string
	Width     int
	theme     *styles.Theme
}

// NewHeader creates a header with the default title.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{Title: "chartchat", Width: 80, theme: theme}
}

// View renders the header.
func (h *Header) View() string {
	width := h.Width
	if width < 40 {
		width = 40
	}

	brand := lipgloss.NewStyle().Foreground(styles.Purple).Render("< ") +
		h.theme.HeaderTitle.Render(h.Title) +
		lipgloss.NewStyle().Foreground(styles.Purple).Render(" >")

	var info []string
	if h.ServerURL != "" {
		info = append(info, h.ServerURL)
	}
	if h.SessionID != "" && h.theme.GetLayoutMode() == styles.LayoutWide {
		info = append(info, h.SessionID)
	}
	right := h.theme.HeaderInfo.Render(strings.Join(info, " | "))

	gap := width - lipgloss.Width(brand) - lipgloss.Width(right) - 2
	if gap < 1 {
		return h.theme.Header.Width(width).Render(brand)
	}
	return h.theme.Header.Width(width).Render(brand + strings.Repeat(" ", gap) + right)
}
