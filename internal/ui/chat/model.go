// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/chartchat/internal/chart"
	"github.com/jeranaias/chartchat/internal/commands"
	"github.com/jeranaias/chartchat/internal/session"
	"github.com/jeranaias/chartchat/internal/ui/components"
	"github.com/jeranaias/chartchat/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat model.
type Options struct {
	Session *session.Session

	// Commands is the handler context for slash commands. Its Session
	// must be the same session.
	Commands *commands.Context

	// Renderer writes chart pages. Nil disables automatic rendering.
	Renderer chart.Renderer

	Theme     *styles.Theme
	ServerURL string
	Logger    *zap.Logger

	// Markdown renders bot text when set.
	Markdown *glamour.TermRenderer
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	sess      *session.Session
	cmdCtx    *commands.Context
	registry  *commands.Registry
	completer *commands.Completer
	renderer  chart.Renderer
	markdown  *glamour.TermRenderer
	logger    *zap.Logger

	theme   *styles.Theme
	keys    KeyMap
	help    help.Model
	showAll bool

	viewport viewport.Model
	input    textinput.Model
	spinner  components.Spinner
	header   *components.Header
	preview  *components.Preview
	status   *components.StatusBar

	// state is the latest session snapshot.
	state session.State

	// notice is the output of the last slash command.
	notice string

	// locations maps chart turn IDs to rendered pages. rendering holds
	// render keys already requested.
	locations map[string]string
	rendering map[string]bool

	changes     chan struct{}
	done        chan struct{}
	unsubscribe func()

	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates a chat model subscribed to opts.Session.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cmdCtx := opts.Commands
	if cmdCtx == nil {
		cmdCtx = &commands.Context{Session: opts.Session, Renderer: opts.Renderer, Theme: theme, Logger: logger}
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask for a chart, or /help"
	ti.CharLimit = 4096
	ti.PromptStyle = theme.InputPrompt
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := components.NewSpinner()
	sp.SetMessage("Generating chart")

	header := components.NewHeader(theme)
	header.ServerURL = opts.ServerURL
	header.SessionID = opts.Session.ID()

	registry := commands.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	if cmdCtx.Ctx == nil {
		cmdCtx.Ctx = ctx
	}

	m := Model{
		ctx:       ctx,
		cancel:    cancel,
		sess:      opts.Session,
		cmdCtx:    cmdCtx,
		registry:  registry,
		completer: commands.NewCompleter(registry),
		renderer:  opts.Renderer,
		markdown:  opts.Markdown,
		logger:    logger.With(zap.String("module", "chat")),
		theme:     theme,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		viewport:  vp,
		input:     ti,
		spinner:   sp,
		header:    header,
		preview:   components.NewPreview(theme),
		status:    components.NewStatusBar(theme),
		locations: make(map[string]string),
		rendering: make(map[string]bool),
		changes:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}

	changes := m.changes
	m.unsubscribe = opts.Session.Subscribe(func(session.State) {
		// Never block the session; one pending signal is enough because
		// the model reads a fresh snapshot when it wakes up.
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	m.state = opts.Session.State()
	m.input.SetValue(m.state.Input)
	return m
}

// Init starts listening for session changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForChange(), func() tea.Msg { return stateChangedMsg{} })
}

// Close unsubscribes from the session and cancels background work started
// by the view.
func (m Model) Close() {
	m.unsubscribe()
	m.cancel()
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}

// waitForChange blocks until the session signals a change.
func (m Model) waitForChange() tea.Cmd {
	changes, done := m.changes, m.done
	return func() tea.Msg {
		select {
		case <-changes:
			return stateChangedMsg{}
		case <-done:
			return nil
		}
	}
}

// State returns the snapshot the view last rendered.
func (m Model) State() session.State {
	return m.state
}

// Notice returns the output of the last slash command.
func (m Model) Notice() string {
	return m.notice
}

// Location returns the rendered page for a chart turn.
func (m Model) Location(turnID string) (string, bool) {
	p, ok := m.locations[turnID]
	return p, ok
}

// Run starts the full-screen program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
