// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Wiring shared by every surface that talks to the server.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/chartchat/internal/chart"
	"github.com/jeranaias/chartchat/internal/commands"
	"github.com/jeranaias/chartchat/internal/config"
	"github.com/jeranaias/chartchat/internal/logging"
	"github.com/jeranaias/chartchat/internal/session"
	"github.com/jeranaias/chartchat/internal/ui/styles"
	"github.com/jeranaias/chartchat/internal/vizapi"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// LoadConfig resolves the configuration for one run: an explicit --config
// file or the default locations, then --server. Problems with the default
// file are reported on warn and do not stop the run.
func LoadConfig(args Args, warn io.Writer) (*config.Config, error) {
	applyColorFlag(args)

	var cfg *config.Config
	var err error

	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, err
		}
		if err != nil && !args.Quiet && warn != nil {
			fmt.Fprintf(warn, "%s %v (using defaults)\n", ErrorStyle.Render("[!]"), err)
		}
	}

	if args.Server != "" {
		cfg.Server.URL = strings.TrimRight(args.Server, "/")
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// =============================================================================
// APP
// =============================================================================

// App holds one wired session and everything that serves it.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Client   *vizapi.Client
	Session  *session.Session
	Renderer *chart.HTMLRenderer
	Theme    *styles.Theme
	Registry *commands.Registry
	Commands *commands.Context

	// Markdown renders bot text. Nil when output is not a terminal.
	Markdown *glamour.TermRenderer
}

// NewApp wires a session against the configured server. The context bounds
// every request the session makes.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(logging.Options{
		Path:       cfg.LogPath(),
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return nil, NewCommandError("startup", "open log", cfg.LogPath(), err)
	}

	client := vizapi.NewClientWithConfig(cfg.ClientConfig())

	sess, err := session.New(session.Options{
		Inference:  client,
		Uploader:   client,
		Logger:     logger,
		Extensions: cfg.Dataset.Extensions,
		MaxBytes:   cfg.MaxFileBytes(),
	})
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	renderer, err := chart.NewHTMLRenderer(cfg.ChartDir(), cfg.Chart.CacheSize)
	if err != nil {
		sess.Close()
		_ = logger.Sync()
		return nil, err
	}

	ApplyThemePreference(cfg.UI.Theme)
	theme := styles.NewTheme()
	width := GetTerminalWidth()
	theme.SetSize(width, 0)

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Session:  sess,
		Renderer: renderer,
		Theme:    theme,
		Registry: commands.NewRegistry(),
		Commands: &commands.Context{
			Ctx:         ctx,
			Session:     sess,
			Renderer:    renderer,
			Server:      client,
			Theme:       theme,
			Logger:      logger,
			ServerURL:   client.Config().BaseURL,
			ExportDir:   ".",
			PreviewRows: cfg.Dataset.PreviewRows,
			OpenCharts:  cfg.Chart.OpenBrowser,
			Color:       ColorsEnabled(),
			Width:       width,
		},
	}

	if ColorsEnabled() {
		app.Markdown = newMarkdownRenderer(cfg.UI.Theme, width)
	}

	logger.Info("session started",
		zap.String("session", sess.ID()),
		zap.String("server", client.Config().BaseURL),
		zap.String("version", Version),
	)
	return app, nil
}

// newMarkdownRenderer returns nil when glamour cannot build a renderer.
func newMarkdownRenderer(theme string, width int) *glamour.TermRenderer {
	style := glamour.WithAutoStyle()
	if theme == "dark" || theme == "light" {
		style = glamour.WithStandardStyle(theme)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width-4))
	if err != nil {
		return nil
	}
	return r
}

// LoadDataset ingests path and waits until it is parsed and uploaded.
// Upload failures are reported through the session error, not returned.
func (a *App) LoadDataset(ctx context.Context, path string) (*session.Ingestion, error) {
	in := a.Session.IngestFile(ctx, expandHome(path))
	if in.Rejected() {
		return in, &ValidationError{
			Field:   "file",
			Value:   path,
			Reason:  session.InvalidFileMessage,
			Example: "--file sales.csv",
		}
	}
	select {
	case <-in.Done():
	case <-ctx.Done():
		return in, ctx.Err()
	}
	if err := in.ParseErr(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return in, &NotFoundError{Resource: "file", ID: path}
		}
		return in, NewCommandError("load", "parse", filepath.Base(path), err)
	}
	return in, nil
}

// Close stops watches and in-flight work and flushes the log.
func (a *App) Close() {
	_ = a.Commands.Close()
	a.Session.Close()
	a.Logger.Info("session closed", zap.String("session", a.Session.ID()))
	_ = a.Logger.Sync()
}

// applyColorFlag turns colors off for the run when --no-color was given.
func applyColorFlag(args Args) {
	if args.NoColor {
		ForceColorsEnabled(false)
	}
}

// expandHome replaces a leading ~ with the home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
