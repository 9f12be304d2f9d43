// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot prompt: optionally load a dataset, send one prompt,
// print the reply and exit.

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/jeranaias/chartchat/internal/transcript"
)

// AskResult is the JSON payload of "chartchat ask --json".
type AskResult struct {
	Prompt    string          `json:"prompt"`
	Kind      string          `json:"kind"`
	Text      string          `json:"text"`
	Chart     json.RawMessage `json:"chart,omitempty"`
	ChartPath string          `json:"chart_path,omitempty"`
	Dataset   string          `json:"dataset,omitempty"`
	Rows      int             `json:"rows,omitempty"`
	Warning   string          `json:"warning,omitempty"`
}

// HandleAsk runs the ask command against the configured server.
func HandleAsk(args Args) error {
	if strings.TrimSpace(args.Query) == "" {
		return ErrMissingArgument("prompt", `chartchat ask -f sales.csv "revenue by month"`)
	}

	cfg, err := LoadConfig(args, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return RunAsk(ctx, app, args, os.Stdout, os.Stderr)
}

// RunAsk loads args.File when set, submits args.Query and writes the reply
// to out. Warnings and progress go to errOut.
func RunAsk(ctx context.Context, app *App, args Args, out, errOut io.Writer) error {
	result := AskResult{Prompt: strings.TrimSpace(args.Query)}

	if args.File != "" {
		if !args.Quiet && !args.JSON {
			fmt.Fprintf(errOut, "%s\n", DimStyle.Render("Loading "+args.File+"..."))
		}
		in, err := app.LoadDataset(ctx, args.File)
		if err != nil {
			return err
		}
		if ds := in.Dataset(); ds != nil {
			result.Dataset = ds.Name
			result.Rows = ds.Len()
		}
		if msg := app.Session.State().Error; msg != "" {
			result.Warning = msg
			if !args.JSON {
				fmt.Fprintf(errOut, "%s %s\n", ErrorStyle.Render("[!]"), msg)
			}
		}
	}

	done := app.Session.Submit(ctx, args.Query)
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	reply, ok := lastReply(app.Session.Turns())
	if !ok {
		return NewCommandError("ask", "query", "no reply received", nil)
	}
	result.Text = reply.Text

	if reply.IsChart() {
		result.Kind = "chart"
		result.Chart = reply.ChartSpec
		res, _ := app.Registry.Execute(app.Commands, "/chart")
		if res.Err != nil {
			app.Logger.Warn("chart render failed", zap.Error(res.Err))
			if !args.JSON {
				fmt.Fprintf(errOut, "%s %v\n", ErrorStyle.Render("[!]"), res.Err)
			}
		}
		if res.Chart != nil {
			result.ChartPath = res.Chart.Path
		}
		if args.JSON {
			return NewJSONResponse(CmdAsk.String(), result).Write(out)
		}
		if res.Output != "" {
			fmt.Fprintln(out, res.Output)
		} else {
			fmt.Fprintln(out, reply.Text)
		}
		return nil
	}

	result.Kind = "text"
	if args.JSON {
		return NewJSONResponse(CmdAsk.String(), result).Write(out)
	}
	fmt.Fprintln(out, renderMarkdown(app, reply.Text))
	return nil
}

// lastReply returns the final bot turn of a finished transcript.
func lastReply(turns []transcript.Turn) (transcript.Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		if t.Sender == transcript.SenderBot && !t.IsPending() {
			return t, true
		}
	}
	return transcript.Turn{}, false
}

// renderMarkdown renders text through glamour when a renderer is available.
func renderMarkdown(app *App, text string) string {
	if app.Markdown == nil {
		return text
	}
	rendered, err := app.Markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(rendered)
}
