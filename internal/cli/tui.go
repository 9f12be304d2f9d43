// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jeranaias/chartchat/internal/ui/chat"
)

// HandleTUI starts the full-screen chat. Without a terminal on both ends,
// or when ui.mode is "chat" and no mode was named, the line-based chat runs
// instead.
func HandleTUI(args Args) error {
	cfg, err := LoadConfig(args, os.Stderr)
	if err != nil {
		return err
	}

	if args.Mode == "" && cfg.UI.Mode == "chat" {
		return runChat(cfg, args)
	}
	if !IsTTY() || !IsStdoutTTY() {
		if args.Mode == "tui" {
			return NewCommandError("tui", "start", "stdin and stdout must be a terminal", nil)
		}
		return runChat(cfg, args)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if args.Dataset != "" {
		// Progress and failures show up in the view through the session.
		app.Session.IngestFile(ctx, expandHome(args.Dataset))
	}

	if err := chat.Run(chat.Options{
		Session:   app.Session,
		Commands:  app.Commands,
		Renderer:  app.Renderer,
		Theme:     app.Theme,
		ServerURL: app.Client.Config().BaseURL,
		Logger:    app.Logger,
		Markdown:  app.Markdown,
	}); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
