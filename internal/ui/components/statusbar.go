// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chartchat/internal/session"
	"github.com/jeranaias/chartchat/internal/ui/styles"
	"github.com/jeranaias/chartchat/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the bottom line: activity on the left, shortcuts on the right.
type StatusBar struct {
	State session.State
	Width int
	theme *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// Activity describes what the session is doing.
func Activity(st session.State) string {
	switch {
	case st.Ingesting && st.InFlight > 0:
		return "Uploading, " + requests(st.InFlight)
	case st.Ingesting:
		return "Uploading dataset"
	case st.InFlight > 0:
		return requests(st.InFlight)
	default:
		return "Ready"
	}
}

func requests(n int) string {
	if n == 1 {
		return "1 request in flight"
	}
	return strconv.Itoa(n) + " requests in flight"
}

// View renders the bar.
func (b *StatusBar) View() string {
	st := b.State

	var left string
	if st.Busy() {
		left = b.theme.StatusBusy.Render(styles.StatusIndicators.Pending + " " + Activity(st))
	} else {
		left = b.theme.StatusReady.Render(styles.StatusIndicators.Success + " " + Activity(st))
	}
	if st.Dataset != nil {
		left += "  " + st.Dataset.Name + " (" + strconv.Itoa(st.Dataset.Len()) + " rows)"
	} else {
		left += "  no dataset"
	}

	shortcuts := []string{
		b.theme.ShortcutKey.Render("Enter") + " " + b.theme.ShortcutDesc.Render("send"),
		b.theme.ShortcutKey.Render("^P") + " " + b.theme.ShortcutDesc.Render("preview"),
		b.theme.ShortcutKey.Render("^L") + " " + b.theme.ShortcutDesc.Render("clear"),
		b.theme.ShortcutKey.Render("^C") + " " + b.theme.ShortcutDesc.Render("quit"),
	}
	right := strings.Join(shortcuts, "  ")

	width := b.Width
	if width <= 0 {
		width = 80
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		// Narrow terminals drop the shortcuts.
		return b.theme.StatusBar.Width(width).Render(util.TruncateWidth(left, width-2))
	}
	return b.theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

// ErrorLine renders the session error with a dismiss hint, or nothing.
func ErrorLine(theme *styles.Theme, msg string) string {
	if msg == "" {
		return ""
	}
	return theme.ErrorBanner.Render(styles.StatusIndicators.Error+" "+msg) +
		"  " + theme.ShortcutDesc.Render("(Esc to dismiss)")
}
