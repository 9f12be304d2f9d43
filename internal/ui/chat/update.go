// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/chartchat/internal/chart"
	"github.com/jeranaias/chartchat/internal/commands"
	"github.com/jeranaias/chartchat/internal/transcript"
	"github.com/jeranaias/chartchat/internal/ui/styles"
)

// Update handles all Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.ready = true
		m.layout()
		m.viewport.GotoBottom()
		return m, nil

	case stateChangedMsg:
		cmds = append(cmds, m.applyState(), m.waitForChange())

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if after := m.input.Value(); after != before {
			m.sess.SetInput(after)
		}
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.spinner.IsActive() {
			m.refreshTranscript()
		}

	case commandResultMsg:
		cmds = append(cmds, m.applyCommandResult(msg))

	case chartRenderedMsg:
		if msg.Err != nil {
			m.logger.Warn("chart render failed", zap.String("turn", msg.TurnID), zap.Error(msg.Err))
			delete(m.rendering, msg.Key)
			m.notice = styles.RenderError("Could not render chart: " + msg.Err.Error())
		} else {
			m.locations[msg.TurnID] = msg.Path
		}
		m.refreshTranscript()
		m.layout()
	}

	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit, true

	case key.Matches(msg, m.keys.Submit):
		return m.submit(), true

	case key.Matches(msg, m.keys.Complete):
		m.complete()
		return nil, true

	case key.Matches(msg, m.keys.Preview):
		m.sess.TogglePreview()
		return nil, true

	case key.Matches(msg, m.keys.Clear):
		m.sess.ClearMessages()
		m.notice = ""
		return nil, true

	case key.Matches(msg, m.keys.Dismiss):
		m.sess.DismissError()
		m.notice = ""
		return nil, true

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return nil, true

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return nil, true

	case key.Matches(msg, m.keys.Help):
		m.showAll = !m.showAll
		m.layout()
		return nil, true
	}
	return nil, false
}

// submit sends the input line as a prompt, or runs it as a slash command.
// Prompts keep the input until their request cycle ends; the session
// clears it.
func (m *Model) submit() tea.Cmd {
	line := m.input.Value()
	if commands.IsCommand(line) {
		m.input.SetValue("")
		m.sess.SetInput("")
		reg, c := m.registry, m.cmdCtx
		return func() tea.Msg {
			res, _ := reg.Execute(c, line)
			return commandResultMsg{Input: line, Result: res}
		}
	}
	m.sess.SubmitInput(m.ctx)
	return nil
}

func (m *Model) complete() {
	cands := m.completer.Complete(m.input.Value())
	switch len(cands) {
	case 0:
	case 1:
		m.input.SetValue(cands[0])
		m.input.CursorEnd()
		m.sess.SetInput(cands[0])
	default:
		m.notice = strings.Join(cands, "  ")
		m.layout()
	}
}

func (m *Model) applyCommandResult(msg commandResultMsg) tea.Cmd {
	res := msg.Result
	if res.Quit {
		m.quitting = true
		return tea.Quit
	}
	if res.Chart != nil {
		m.locations[res.Chart.TurnID] = res.Chart.Path
	}
	switch {
	case res.Err != nil:
		m.notice = styles.RenderError(res.Err.Error())
	default:
		m.notice = res.Output
	}
	m.refreshTranscript()
	m.layout()
	return nil
}

// =============================================================================
// SESSION STATE
// =============================================================================

// applyState takes a fresh snapshot and returns commands for follow-up work.
func (m *Model) applyState() tea.Cmd {
	prev := m.state
	m.state = m.sess.State()

	// The session clears the input when a submitted cycle ends.
	if m.state.Input != m.input.Value() {
		m.input.SetValue(m.state.Input)
		m.input.CursorEnd()
	}

	var cmds []tea.Cmd
	if m.state.Busy() {
		if m.state.Ingesting && m.state.InFlight == 0 {
			m.spinner.SetMessage("Loading dataset")
		} else {
			m.spinner.SetMessage("Generating chart")
		}
		cmds = append(cmds, m.spinner.Start())
	} else {
		m.spinner.Stop()
	}

	cmds = append(cmds, m.renderCharts()...)

	grew := len(m.state.Turns) != len(prev.Turns) || lastID(m.state.Turns) != lastID(prev.Turns)
	m.refreshTranscript()
	m.layout()
	if grew {
		m.viewport.GotoBottom()
	}
	return tea.Batch(cmds...)
}

func lastID(turns []transcript.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	return turns[len(turns)-1].ID
}

// renderCharts starts a render for every chart turn not yet drawn against
// the current dataset.
func (m *Model) renderCharts() []tea.Cmd {
	if m.renderer == nil {
		return nil
	}
	ds := m.state.Dataset
	rows := ds.Head(ds.Len())

	var cmds []tea.Cmd
	for _, t := range m.state.Turns {
		if !t.IsChart() {
			continue
		}
		k := t.ID + "@" + strconv.FormatUint(m.state.Generation, 10)
		if m.rendering[k] {
			continue
		}
		m.rendering[k] = true

		r, ctx := m.renderer, m.ctx
		c := chart.Chart{TurnID: t.ID, Spec: t.ChartSpec, Rows: rows, Generation: m.state.Generation, Caption: t.Text}
		cmds = append(cmds, func() tea.Msg {
			path, err := r.Render(ctx, c)
			return chartRenderedMsg{Key: k, TurnID: c.TurnID, Path: path, Err: err}
		})
	}
	return cmds
}
