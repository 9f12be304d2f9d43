// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chartchat/internal/config"
	"github.com/jeranaias/chartchat/internal/vizapi"
)

// =============================================================================
// FIXTURES
// =============================================================================

const barSpec = `{"mark":"bar","title":"Revenue","encoding":{"x":{"field":"month","type":"nominal"},"y":{"field":"revenue","type":"quantitative"}}}`

// fakeServer answers /query and /upload_data like the inference service.
type fakeServer struct {
	mu      sync.Mutex
	prompts []string
	uploads []string
}

func (f *fakeServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/query":
			var req struct {
				Prompt string `json:"prompt"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.mu.Lock()
			f.prompts = append(f.prompts, req.Prompt)
			f.mu.Unlock()

			w.Header().Set("Content-Type", "application/json")
			switch {
			case strings.Contains(req.Prompt, "chart"):
				fmt.Fprintf(w, `{"response":%s,"summary":"Revenue by month"}`, barSpec)
			case strings.Contains(req.Prompt, "broken"):
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"detail":"model crashed"}`)
			default:
				fmt.Fprint(w, `{"message":"I need a dataset first."}`)
			}
		case "/upload_data":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, hdr, err := r.FormFile("file")
			require.NoError(t, err)
			f.mu.Lock()
			f.uploads = append(f.uploads, hdr.Filename)
			f.mu.Unlock()
			fmt.Fprint(w, `{"message":"ok"}`)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}
}

func (f *fakeServer) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func (f *fakeServer) Uploads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

func testConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.URL = serverURL
	cfg.Chart.OutputDir = t.TempDir()
	cfg.Log.Path = "off"
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestApp(t *testing.T) (*App, *fakeServer) {
	t.Helper()
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	app, err := NewApp(context.Background(), testConfig(t, srv.URL))
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app, fake
}

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("month,revenue\nJan,10\nFeb,12\nMar,\n"), 0o644))
	return path
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name  string
		argv  []string
		cmd   Command
		check func(t *testing.T, a Args)
	}{
		{
			name: "no arguments starts the default surface",
			argv: nil,
			cmd:  CmdTUI,
			check: func(t *testing.T, a Args) {
				assert.Empty(t, a.Mode)
			},
		},
		{
			name: "explicit tui with dataset",
			argv: []string{"tui", "--data", "sales.csv"},
			cmd:  CmdTUI,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "tui", a.Mode)
				assert.Equal(t, "sales.csv", a.Dataset)
			},
		},
		{
			name: "ask with file and global flags anywhere",
			argv: []string{"--server", "http://x:1", "ask", "-f", "a.csv", "revenue", "by", "month", "--json"},
			cmd:  CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "http://x:1", a.Server)
				assert.Equal(t, "a.csv", a.File)
				assert.Equal(t, "revenue by month", a.Query)
				assert.True(t, a.JSON)
			},
		},
		{
			name: "ask with equals form and separator",
			argv: []string{"ask", "--file=b.csv", "--", "-5 degrees"},
			cmd:  CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "b.csv", a.File)
				assert.Equal(t, "-5 degrees", a.Query)
			},
		},
		{
			name: "no-color is a global flag",
			argv: []string{"status", "--no-color"},
			cmd:  CmdStatus,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.NoColor)
			},
		},
		{
			name: "bare words are a prompt",
			argv: []string{"Plot", "sales"},
			cmd:  CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "Plot sales", a.Query)
			},
		},
		{
			name: "chat with data flag",
			argv: []string{"chat", "--data=x.csv"},
			cmd:  CmdChat,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "chat", a.Mode)
				assert.Equal(t, "x.csv", a.Dataset)
			},
		},
		{
			name: "config set joins the value",
			argv: []string{"config", "set", "ui.theme", "light"},
			cmd:  CmdConfig,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "set", a.Subcommand)
				assert.Equal(t, "ui.theme", a.ConfigKey)
				assert.Equal(t, "light", a.ConfigVal)
			},
		},
		{
			name: "config defaults to show",
			argv: []string{"config"},
			cmd:  CmdConfig,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "show", a.Subcommand)
			},
		},
		{name: "status alias", argv: []string{"s"}, cmd: CmdStatus},
		{name: "version", argv: []string{"version"}, cmd: CmdVersion},
		{name: "help flag", argv: []string{"--help"}, cmd: CmdHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			assert.Equal(t, tt.cmd, cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestPrintUsageAndVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	assert.Contains(t, buf.String(), "chartchat "+Version)
	assert.Contains(t, buf.String(), "ask <prompt>")

	buf.Reset()
	PrintVersion(&buf)
	assert.Contains(t, buf.String(), "Git commit")
}

// =============================================================================
// ERRORS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", ErrMissingArgument("prompt", "x"), ExitUsageError},
		{"not found", &NotFoundError{Resource: "file", ID: "a.csv"}, ExitNotFoundError},
		{"config", config.ValidateErrors{{Field: "server.url", Message: "bad"}}, ExitConfigError},
		{"wrapped config", fmt.Errorf("load: %w", config.ValidationError{Field: "ui.mode"}), ExitConfigError},
		{"timeout", &vizapi.ClientError{Type: vizapi.ErrTypeTimeout, Message: "t"}, ExitTimeoutError},
		{"deadline", context.DeadlineExceeded, ExitTimeoutError},
		{"not reachable", &statusError{problem: "refused"}, ExitNetworkError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, "ask", &NotFoundError{Resource: "file", ID: "a.csv"}, true)

	var resp struct {
		Success bool                   `json:"success"`
		Error   string                 `json:"error"`
		Command string                 `json:"command"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "ask", resp.Command)
	assert.Equal(t, "file not found: a.csv", resp.Error)
	assert.Equal(t, "not_found_error", resp.Data["error_type"])
	assert.EqualValues(t, ExitNotFoundError, resp.Data["exit_code"])
}

func TestDisplayErrorText(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, "ask", errors.New("boom"), false)
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	DisplayError(&buf, "ask", nil, false)
	assert.Empty(t, buf.String())
}

// =============================================================================
// ASK
// =============================================================================

func TestRunAsk_Text(t *testing.T) {
	app, fake := newTestApp(t)

	var out, errOut bytes.Buffer
	err := RunAsk(context.Background(), app, Args{Query: "  hello  "}, &out, &errOut)
	require.NoError(t, err)

	assert.Equal(t, "I need a dataset first.\n", out.String())
	assert.Equal(t, []string{"hello"}, fake.Prompts())
}

func TestRunAsk_ChartWithDataset(t *testing.T) {
	app, fake := newTestApp(t)
	path := writeCSV(t)

	var out, errOut bytes.Buffer
	err := RunAsk(context.Background(), app, Args{Query: "bar chart of revenue", File: path, JSON: true}, &out, &errOut)
	require.NoError(t, err)

	var resp struct {
		Success bool      `json:"success"`
		Data    AskResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "chart", resp.Data.Kind)
	assert.Equal(t, "Revenue by month", resp.Data.Text)
	assert.Equal(t, "sales.csv", resp.Data.Dataset)
	assert.Equal(t, 3, resp.Data.Rows)
	assert.JSONEq(t, barSpec, string(resp.Data.Chart))
	require.NotEmpty(t, resp.Data.ChartPath)
	assert.FileExists(t, resp.Data.ChartPath)
	assert.Equal(t, []string{"sales.csv"}, fake.Uploads())
}

func TestRunAsk_ServerError(t *testing.T) {
	app, _ := newTestApp(t)

	var out, errOut bytes.Buffer
	require.NoError(t, RunAsk(context.Background(), app, Args{Query: "broken"}, &out, &errOut))
	assert.Equal(t, "model crashed\n", out.String())
}

func TestRunAsk_RejectsNonCSV(t *testing.T) {
	app, fake := newTestApp(t)

	var out, errOut bytes.Buffer
	err := RunAsk(context.Background(), app, Args{Query: "chart", File: "notes.txt"}, &out, &errOut)
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Empty(t, fake.Prompts())
}

func TestRunAsk_MissingFile(t *testing.T) {
	app, _ := newTestApp(t)

	var out, errOut bytes.Buffer
	err := RunAsk(context.Background(), app, Args{Query: "chart", File: filepath.Join(t.TempDir(), "gone.csv")}, &out, &errOut)
	require.Error(t, err)
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))
}

func TestRunAsk_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	app, err := NewApp(context.Background(), testConfig(t, url))
	require.NoError(t, err)
	defer app.Close()

	var out, errOut bytes.Buffer
	require.NoError(t, RunAsk(context.Background(), app, Args{Query: "hello"}, &out, &errOut))
	assert.Equal(t, "An error occurred while processing your request.\n", out.String())
}

func TestHandleAsk_RequiresPrompt(t *testing.T) {
	err := HandleAsk(Args{Query: "   "})
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// CHAT REPL
// =============================================================================

func TestRepl_SlashCommandsAndPrompts(t *testing.T) {
	app, fake := newTestApp(t)
	path := writeCSV(t)

	var out, errOut bytes.Buffer
	repl := &Repl{App: app, Out: &out, ErrOut: &errOut, Quiet: true}
	ctx := context.Background()

	assert.False(t, repl.Handle(ctx, "   "))
	assert.False(t, repl.Handle(ctx, "/upload "+path))
	assert.Contains(t, out.String(), "Loaded sales.csv (3 rows)")
	assert.Equal(t, []string{"sales.csv"}, fake.Uploads())

	out.Reset()
	assert.False(t, repl.Handle(ctx, "show me a chart"))
	assert.Contains(t, out.String(), "Chart #1")
	assert.Contains(t, out.String(), "Revenue by month")
	assert.Empty(t, app.Session.Input(), "input clears when the reply arrives")

	out.Reset()
	assert.False(t, repl.Handle(ctx, "hi"))
	assert.Contains(t, out.String(), "I need a dataset first.")

	assert.True(t, repl.Handle(ctx, "/quit"))
	assert.True(t, repl.Handle(ctx, "exit"))
	assert.Equal(t, []string{"show me a chart", "hi"}, fake.Prompts())
}

func TestRepl_ReportsSessionError(t *testing.T) {
	app, _ := newTestApp(t)

	var out, errOut bytes.Buffer
	repl := &Repl{App: app, Out: &out, ErrOut: &errOut, Quiet: true}

	assert.False(t, repl.Handle(context.Background(), "/upload notes.txt"))
	assert.Contains(t, errOut.String(), "Please upload a valid CSV file.")
	assert.Empty(t, app.Session.State().Error, "error is dismissed once shown")
}

func TestRepl_CancelWithoutRequest(t *testing.T) {
	repl := &Repl{}
	assert.False(t, repl.Cancel())
}

// =============================================================================
// STATUS
// =============================================================================

type pinger struct{ err error }

func (p pinger) CheckRunning(context.Context) error { return p.err }

func TestGatherStatus(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg := testConfig(t, "http://localhost:8000")

	report := GatherStatus(context.Background(), cfg, pinger{})
	assert.True(t, report.Reachable)
	assert.NotEmpty(t, report.Latency)
	assert.Equal(t, "/query", report.QueryPath)
	assert.Empty(t, report.LogFile)

	report = GatherStatus(context.Background(), cfg, pinger{err: vizapi.ErrTimeout})
	assert.False(t, report.Reachable)
	assert.Contains(t, report.Problem, "timed out")

	var buf bytes.Buffer
	PrintStatus(&buf, report)
	assert.Contains(t, buf.String(), "[X]")
	assert.Contains(t, buf.String(), "is not reachable")
	assert.Contains(t, buf.String(), "off")

	buf.Reset()
	PrintStatus(&buf, GatherStatus(context.Background(), cfg, pinger{}))
	assert.Contains(t, buf.String(), "[OK]")
	assert.Contains(t, buf.String(), "is reachable")
}

func TestApplyColorFlag(t *testing.T) {
	ForceColorsEnabled(true)
	t.Cleanup(func() { ForceColorsEnabled(false) })

	applyColorFlag(Args{})
	assert.True(t, ColorsEnabled())

	applyColorFlag(Args{NoColor: true})
	assert.False(t, ColorsEnabled())
	assert.Equal(t, termenv.Ascii, GetColorProfile())
}

func TestSilent(t *testing.T) {
	assert.True(t, Silent(fmt.Errorf("x: %w", &statusError{problem: "p"})))
	assert.False(t, Silent(errors.New("p")))
}

// =============================================================================
// CONFIG
// =============================================================================

func TestRunConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.Default()

	run := func(a Args) (string, error) {
		var buf bytes.Buffer
		err := RunConfig(cfg, path, a, &buf)
		return buf.String(), err
	}

	out, err := run(Args{Subcommand: "init"})
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = run(Args{Subcommand: "init"})
	assert.Error(t, err, "init never overwrites")

	out, err = run(Args{Subcommand: "get", ConfigKey: "server.url"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000\n", out)

	_, err = run(Args{Subcommand: "set", ConfigKey: "ui.theme", ConfigVal: "light"})
	require.NoError(t, err)
	saved, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "light", saved.UI.Theme)

	_, err = run(Args{Subcommand: "set", ConfigKey: "ui.mode", ConfigVal: "gui"})
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	_, err = run(Args{Subcommand: "get", ConfigKey: "nope.key"})
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))

	_, err = run(Args{Subcommand: "get"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, err = run(Args{Subcommand: "frobnicate"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	out, err = run(Args{Subcommand: "show"})
	require.NoError(t, err)
	assert.Contains(t, out, "[server]")

	out, err = run(Args{Subcommand: "keys", JSON: true})
	require.NoError(t, err)
	assert.Contains(t, out, "server.url")
}

// =============================================================================
// JSON OUTPUT
// =============================================================================

func TestJSONResponse(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONResponse("version", map[string]string{"version": "1"}).Write(&buf))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Nil(t, decoded["error"])
	_, err := time.Parse(time.RFC3339, decoded["timestamp"].(string))
	assert.NoError(t, err)
}
