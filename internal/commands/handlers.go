// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/chartchat/internal/chart"
	"github.com/jeranaias/chartchat/internal/export"
	"github.com/jeranaias/chartchat/internal/session"
	"github.com/jeranaias/chartchat/internal/transcript"
	"github.com/jeranaias/chartchat/internal/ui/components"
	"github.com/jeranaias/chartchat/internal/ui/styles"
	"github.com/jeranaias/chartchat/internal/util"
	"github.com/jeranaias/chartchat/internal/vizapi"
	"github.com/jeranaias/chartchat/internal/watch"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger checks whether the server answers.
type Pinger interface {
	CheckRunning(ctx context.Context) error
}

// Context is what command handlers operate on. One Context lives as long as
// the interactive surface that owns it.
type Context struct {
	Ctx      context.Context
	Session  *session.Session
	Renderer chart.Renderer
	Server   Pinger
	Theme    *styles.Theme
	Logger   *zap.Logger

	// ServerURL is shown by /status.
	ServerURL string

	// ExportDir receives exports written without an explicit path.
	ExportDir string

	// PreviewRows is the number of rows /data and /preview show.
	PreviewRows int

	// OpenCharts opens rendered chart pages in the default application.
	OpenCharts bool

	// Color enables syntax highlighting in /chart output.
	Color bool

	// Width is the terminal width used for tables.
	Width int

	mu      sync.Mutex
	watcher *watch.Watcher
}

func (c *Context) ctx() context.Context {
	if c.Ctx != nil {
		return c.Ctx
	}
	return context.Background()
}

func (c *Context) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

func (c *Context) theme() *styles.Theme {
	if c.Theme == nil {
		c.Theme = styles.NewTheme()
	}
	return c.Theme
}

// Close stops any active file watch.
func (c *Context) Close() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()
	if w != nil {
		return w.Close()
	}
	return nil
}

// Watching returns the watched path, or "".
func (c *Context) Watching() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher == nil {
		return ""
	}
	return c.watcher.Path()
}

// =============================================================================
// DATA COMMANDS
// =============================================================================

func handleUpload(c *Context, args []string) Result {
	path := expandHome(args[0])
	in := c.Session.IngestFile(c.ctx(), path)
	if in.Rejected() {
		// The session error line already says why.
		return Result{}
	}
	return Result{Output: "Loading " + filepath.Base(path) + "...", Wait: in.Done(), Ingestion: in}
}

func handleWatch(c *Context, args []string) Result {
	if strings.EqualFold(args[0], "off") {
		was := c.Watching()
		if err := c.Close(); err != nil {
			return Result{Err: err}
		}
		if was == "" {
			return Result{Output: "Not watching any file."}
		}
		return Result{Output: "Stopped watching " + was + "."}
	}

	path := expandHome(args[0])
	sess := c.Session
	w, err := watch.New(path, watch.Options{
		Logger: c.logger(),
		OnChange: func(p string) {
			sess.IngestFile(c.ctx(), p)
		},
	})
	if err != nil {
		return Result{Err: err}
	}
	if err := w.Start(); err != nil {
		_ = w.Close()
		return Result{Err: fmt.Errorf("watch %s: %w", path, err)}
	}

	c.mu.Lock()
	old := c.watcher
	c.watcher = w
	c.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	in := sess.IngestFile(c.ctx(), path)
	return Result{Output: "Watching " + w.Path() + " for changes.", Wait: in.Done(), Ingestion: in}
}

func handlePreview(c *Context, _ []string) Result {
	if !c.Session.TogglePreview() {
		return Result{Output: "Preview hidden."}
	}
	if c.Session.Dataset() == nil {
		return Result{Output: "Preview shown. No dataset is loaded."}
	}
	return Result{Output: c.previewTable()}
}

func handleData(c *Context, _ []string) Result {
	ds := c.Session.Dataset()
	if ds == nil {
		return Result{Output: "No dataset is loaded. Use /upload <path>."}
	}
	head := fmt.Sprintf("%s: %d rows, columns: %s", ds.Name, ds.Len(), strings.Join(ds.Columns(), ", "))
	return Result{Output: head + "\n" + c.previewTable()}
}

func (c *Context) previewTable() string {
	p := components.NewPreview(c.theme())
	p.Dataset = c.Session.Dataset()
	p.Visible = true
	if c.PreviewRows > 0 {
		p.MaxRows = c.PreviewRows
	}
	if c.Width > 0 {
		p.Width = c.Width
	}
	return p.View()
}

// =============================================================================
// CONVERSATION COMMANDS
// =============================================================================

func handleClear(c *Context, _ []string) Result {
	c.Session.ClearMessages()
	return Result{Output: "Conversation cleared."}
}

// ChartTurn returns the n-th chart turn (1-based); n <= 0 selects the latest.
func ChartTurn(turns []transcript.Turn, n int) (transcript.Turn, int, error) {
	var charts []transcript.Turn
	for _, t := range turns {
		if t.IsChart() {
			charts = append(charts, t)
		}
	}
	if len(charts) == 0 {
		return transcript.Turn{}, 0, errors.New("no charts in this conversation yet")
	}
	if n <= 0 {
		n = len(charts)
	}
	if n > len(charts) {
		return transcript.Turn{}, 0, fmt.Errorf("chart %d does not exist (have %d)", n, len(charts))
	}
	return charts[n-1], n, nil
}

func handleChart(c *Context, args []string) Result {
	n := 0
	if len(args) > 0 {
		n, _ = strconv.Atoi(args[0])
	}
	turn, n, err := ChartTurn(c.Session.Turns(), n)
	if err != nil {
		return Result{Err: err}
	}
	if c.Renderer == nil {
		return Result{Err: errors.New("no chart renderer configured")}
	}

	ds := c.Session.Dataset()
	rows := ds.Head(ds.Len())
	path, err := c.Renderer.Render(c.ctx(), chart.Chart{
		TurnID:     turn.ID,
		Spec:       turn.ChartSpec,
		Rows:       rows,
		Generation: c.Session.Generation(),
		Caption:    turn.Text,
	})
	if err != nil {
		return Result{Err: fmt.Errorf("render chart %d: %w", n, err)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Chart #%d: %s\n", n, turn.Text)
	if desc, err := chart.Describe(turn.ChartSpec, c.Color); err == nil {
		b.WriteString(desc)
		b.WriteString("\n")
	}
	b.WriteString(styles.RenderSuccess("Written to " + path))

	if c.OpenCharts {
		if err := export.OpenFile(path); err != nil {
			c.logger().Warn("open chart failed", zap.String("path", path), zap.Error(err))
		}
	}
	return Result{Output: b.String(), Chart: &Rendered{TurnID: turn.ID, Path: path}}
}

func handleExport(c *Context, args []string) Result {
	doc := export.NewDocument(c.Session.ID(), c.Session.Turns(), c.Session.Dataset())
	if len(doc.Turns) == 0 {
		return Result{Err: errors.New("nothing to export")}
	}

	if len(args) > 0 {
		path := expandHome(args[0])
		if err := export.WriteFile(path, doc); err != nil {
			return Result{Err: err}
		}
		return Result{Output: styles.RenderSuccess("Exported to " + path)}
	}

	opts := export.DefaultOptions()
	if c.ExportDir != "" {
		opts.OutputDir = c.ExportDir
	}
	path, err := export.ExportToFile(doc, export.NewMarkdownExporter(opts), opts)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Output: styles.RenderSuccess("Exported to " + path)}
}

// =============================================================================
// GENERAL COMMANDS
// =============================================================================

func handleStatus(c *Context, _ []string) Result {
	st := c.Session.GetStatus()

	var b strings.Builder
	fmt.Fprintf(&b, "Session:   %s (%s)\n", st.SessionID, session.FormatDuration(st.Duration))
	fmt.Fprintf(&b, "Turns:     %d (%d charts)\n", st.Turns, st.Charts)
	if st.Dataset != "" {
		fmt.Fprintf(&b, "Dataset:   %s (%d rows)\n", st.Dataset, st.Rows)
	} else {
		b.WriteString("Dataset:   none\n")
	}
	if st.InFlight > 0 {
		fmt.Fprintf(&b, "In flight: %d\n", st.InFlight)
	}
	if w := c.Watching(); w != "" {
		fmt.Fprintf(&b, "Watching:  %s\n", w)
	}
	if st.Error != "" {
		fmt.Fprintf(&b, "Error:     %s\n", st.Error)
	}

	if c.Server != nil {
		ctx, cancel := context.WithTimeout(c.ctx(), 5*time.Second)
		defer cancel()
		label := "Server"
		if c.ServerURL != "" {
			label += " " + c.ServerURL
		}
		switch err := c.Server.CheckRunning(ctx); {
		case err == nil:
			b.WriteString(styles.RenderSuccess(label + " is reachable"))
		case vizapi.IsTimeout(err):
			b.WriteString(styles.RenderWarning(label + " timed out"))
		default:
			b.WriteString(styles.RenderError(label + " is not reachable"))
		}
	}
	return Result{Output: strings.TrimRight(b.String(), "\n")}
}

// usageColumn is where /help starts command descriptions.
const usageColumn = 19

func (r *Registry) handleHelp(_ *Context, _ []string) Result {
	groups := r.ByCategory()
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Type a question to get a chart. Commands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "\n%s\n", name)
		for _, cmd := range groups[name] {
			pad := usageColumn - util.StringWidth(cmd.Usage)
			if pad < 1 {
				pad = 1
			}
			fmt.Fprintf(&b, "  %s%s%s\n", cmd.Usage, strings.Repeat(" ", pad), cmd.Description)
		}
	}
	return Result{Output: strings.TrimRight(b.String(), "\n")}
}

// expandHome replaces a leading ~ with the home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := homeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
