// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Server reachability and effective settings.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/chartchat/internal/commands"
	"github.com/jeranaias/chartchat/internal/config"
	"github.com/jeranaias/chartchat/internal/ui/styles"
	"github.com/jeranaias/chartchat/internal/vizapi"
)

// statusTimeout bounds the reachability probe.
const statusTimeout = 5 * time.Second

// StatusReport is what "chartchat status" shows.
type StatusReport struct {
	ServerURL  string   `json:"server_url"`
	QueryPath  string   `json:"query_path"`
	UploadPath string   `json:"upload_path"`
	Reachable  bool     `json:"reachable"`
	Problem    string   `json:"problem,omitempty"`
	Latency    string   `json:"latency,omitempty"`
	ConfigFile string   `json:"config_file,omitempty"`
	ChartDir   string   `json:"chart_dir"`
	LogFile    string   `json:"log_file,omitempty"`
	Extensions []string `json:"extensions"`
	Mode       string   `json:"mode"`
}

// GatherStatus probes the server and collects the effective settings.
func GatherStatus(ctx context.Context, cfg *config.Config, server commands.Pinger) StatusReport {
	report := StatusReport{
		ServerURL:  cfg.Server.URL,
		QueryPath:  cfg.Server.QueryPath,
		UploadPath: cfg.Server.UploadPath,
		ChartDir:   cfg.ChartDir(),
		LogFile:    cfg.LogPath(),
		Extensions: cfg.Dataset.Extensions,
		Mode:       cfg.UI.Mode,
	}
	if path, err := config.ConfigPathTOML(); err == nil && fileExists(path) {
		report.ConfigFile = path
	} else if path, err := config.ConfigPathJSON(); err == nil && fileExists(path) {
		report.ConfigFile = path
	}

	probeCtx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()
	start := time.Now()
	err := server.CheckRunning(probeCtx)
	switch {
	case err == nil:
		report.Reachable = true
		report.Latency = time.Since(start).Round(time.Millisecond).String()
	case vizapi.IsTimeout(err):
		report.Problem = "timed out after " + statusTimeout.String()
	default:
		report.Problem = err.Error()
	}
	return report
}

// PrintStatus writes the human-readable report.
func PrintStatus(w io.Writer, r StatusReport) {
	fmt.Fprintln(w, TitleStyle.Render("chartchat status"))
	msg := "Server " + r.ServerURL + " is reachable (" + r.Latency + ")"
	if !r.Reachable {
		msg = "Server " + r.ServerURL + " is not reachable: " + r.Problem
	}
	fmt.Fprintln(w, styles.RenderStatus(r.Reachable, msg))
	fmt.Fprintln(w, SectionStyle.Render("Settings"))
	fmt.Fprintln(w, field("Query endpoint", r.QueryPath))
	fmt.Fprintln(w, field("Upload endpoint", r.UploadPath))
	fmt.Fprintln(w, field("File types", strings.Join(r.Extensions, ", ")))
	fmt.Fprintln(w, field("Charts", r.ChartDir))
	if r.LogFile != "" {
		fmt.Fprintln(w, field("Log", r.LogFile))
	} else {
		fmt.Fprintln(w, field("Log", "off"))
	}
	if r.ConfigFile != "" {
		fmt.Fprintln(w, field("Config", r.ConfigFile))
	} else {
		fmt.Fprintln(w, field("Config", "defaults"))
	}
	fmt.Fprintln(w, field("Default mode", r.Mode))
}

// HandleStatus runs the status command. An unreachable server is an error
// so scripts can use the exit code.
func HandleStatus(args Args) error {
	cfg, err := LoadConfig(args, os.Stderr)
	if err != nil {
		return err
	}
	client := vizapi.NewClientWithConfig(cfg.ClientConfig())
	report := GatherStatus(context.Background(), cfg, client)

	if args.JSON {
		resp := NewJSONResponse(CmdStatus.String(), report)
		resp.Success = report.Reachable
		if err := resp.Write(os.Stdout); err != nil {
			return err
		}
	} else {
		PrintStatus(os.Stdout, report)
	}
	if !report.Reachable {
		return &statusError{problem: report.Problem}
	}
	return nil
}

// statusError carries the exit code of a failed probe. It has already been
// printed.
type statusError struct {
	problem string
}

func (e *statusError) Error() string { return "server not reachable: " + e.problem }

// Unwrap lets GetExitCode classify the failure as a network error.
func (e *statusError) Unwrap() error { return vizapi.ErrNotReachable }

// Silent reports whether the error was already shown to the user.
func Silent(err error) bool {
	var se *statusError
	return errors.As(err, &se)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
