// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-based chat for terminals where the full-screen view is
// not wanted.
//
// Slash commands are the same as in the TUI (/upload, /chart, /data, ...).
// Arrow keys walk the input history, Tab completes commands and file paths.
//   Ctrl+C              Cancel the request in flight, or exit at the prompt
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeranaias/chartchat/internal/commands"
	"github.com/jeranaias/chartchat/internal/config"
	"github.com/jeranaias/chartchat/internal/session"
	"github.com/jeranaias/chartchat/internal/ui/styles"
)

// =============================================================================
// INPUT WITH HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor that keeps history in historyFile and
// completes with completer when it is not nil.
func NewChatCLI(historyFile string, completer *commands.Completer) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabPrints)
	if completer != nil {
		line.SetCompleter(completer.Complete)
	}

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history to file (0600).
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	_ = c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// Repl executes chat input lines against an App.
type Repl struct {
	App    *App
	Out    io.Writer
	ErrOut io.Writer
	Quiet  bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Cancel aborts the request in flight. It reports whether there was one.
func (r *Repl) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return false
	}
	r.cancel()
	r.cancel = nil
	return true
}

// Handle executes one input line. It returns true when the user asked to
// leave.
func (r *Repl) Handle(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}
	if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
		return true
	}

	reqCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	defer r.Cancel()

	if commands.IsCommand(input) {
		return r.runCommand(reqCtx, input)
	}
	r.ask(reqCtx, line)
	return false
}

func (r *Repl) runCommand(ctx context.Context, input string) bool {
	res, _ := r.App.Registry.Execute(r.App.Commands, input)
	if res.Output != "" {
		fmt.Fprintln(r.Out, res.Output)
	}
	if res.Err != nil {
		fmt.Fprintf(r.ErrOut, "%s %v\n", ErrorStyle.Render("[X]"), res.Err)
	}
	if res.Wait != nil {
		select {
		case <-res.Wait:
		case <-ctx.Done():
			return false
		}
	}
	if in := res.Ingestion; in != nil {
		if ds := in.Dataset(); ds != nil {
			fmt.Fprintln(r.Out, styles.RenderSuccess(fmt.Sprintf("Loaded %s (%d rows)", ds.Name, ds.Len())))
		}
	}
	r.reportError()
	return res.Quit
}

// ask submits line through the session input field, so the field clears
// when the reply arrives exactly as it does in the TUI.
func (r *Repl) ask(ctx context.Context, line string) {
	r.App.Session.SetInput(line)
	done := r.App.Session.SubmitInput(ctx)
	if !r.Quiet {
		fmt.Fprintln(r.ErrOut, DimStyle.Render("Generating chart..."))
	}
	select {
	case <-done:
	case <-ctx.Done():
		<-done
	}

	reply, ok := lastReply(r.App.Session.Turns())
	if !ok {
		return
	}
	fmt.Fprint(r.Out, SpeakerStyle.Render(reply.Sender.DisplayName()+": "))
	if !reply.IsChart() {
		fmt.Fprintln(r.Out, renderMarkdown(r.App, reply.Text))
		return
	}
	res, _ := r.App.Registry.Execute(r.App.Commands, "/chart")
	switch {
	case res.Err != nil:
		fmt.Fprintln(r.Out, reply.Text)
		fmt.Fprintf(r.ErrOut, "%s %v\n", ErrorStyle.Render("[!]"), res.Err)
	default:
		fmt.Fprintln(r.Out, res.Output)
	}
}

// reportError prints and dismisses the session error line.
func (r *Repl) reportError() {
	if msg := r.App.Session.State().Error; msg != "" {
		fmt.Fprintf(r.ErrOut, "%s %s\n", ErrorStyle.Render("[X]"), msg)
		r.App.Session.DismissError()
	}
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChat runs the line-based chat until the user leaves.
func HandleChat(args Args) error {
	cfg, err := LoadConfig(args, os.Stderr)
	if err != nil {
		return err
	}
	return runChat(cfg, args)
}

func runChat(cfg *config.Config, args Args) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	repl := &Repl{App: app, Out: os.Stdout, ErrOut: os.Stderr, Quiet: args.Quiet}

	if !args.Quiet {
		printWelcome(os.Stdout, app)
		if err := app.Client.CheckRunning(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[!]"), err)
		}
	}

	if args.Dataset != "" {
		repl.runCommand(ctx, "/upload "+quoteArg(args.Dataset))
	}

	input := NewChatCLI(cfg.HistoryPath(), commands.NewCompleter(app.Registry))
	defer input.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if repl.Cancel() {
				fmt.Fprintln(os.Stderr, "\n"+ErrorStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		line, err := input.ReadInput(PromptStyle.Render("chartchat> "))
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				app.Logger.Sugar().Warnw("prompt failed", "error", err)
			}
			fmt.Println()
			break
		}
		if repl.Handle(ctx, line) {
			break
		}
	}

	printExitSummary(os.Stdout, app.Session.GetStatus(), args.Quiet)
	return nil
}

func printWelcome(w io.Writer, app *App) {
	fmt.Fprintln(w, TitleStyle.Render("chartchat "+Version))
	fmt.Fprintln(w, field("Server", app.Client.Config().BaseURL))
	fmt.Fprintln(w, field("Session", app.Session.ID()))
	fmt.Fprintln(w, DimStyle.Render("Load data with /upload <file.csv>, then ask for a chart. /help lists commands."))
	fmt.Fprintln(w)
}

func printExitSummary(w io.Writer, st session.Status, quiet bool) {
	if quiet {
		return
	}
	fmt.Fprintf(w, "%s %d turns, %d charts in %s\n",
		DimStyle.Render("Session ended:"), st.Turns, st.Charts, session.FormatDuration(st.Duration))
}

// quoteArg quotes paths that contain spaces for the command parser.
func quoteArg(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}
