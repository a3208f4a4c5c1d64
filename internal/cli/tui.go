// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/blackv/internal/ui/chat"
	"github.com/jeranaias/blackv/internal/ui/styles"
)

// HandleTUI runs the full-screen interface, or the line chat when stdin or
// stdout is not a terminal and "tui" was not asked for explicitly.
func HandleTUI(ctx context.Context, args Args, stdout, stderr io.Writer) error {
	if !args.ExplicitTUI && !(IsTTY() && IsStdoutTTY()) {
		return HandleChat(ctx, args, stdout, stderr)
	}

	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	opts := chat.Options{
		Theme:     styles.NewTheme(app.Config.UI.Theme),
		Markdown:  app.Config.UI.Markdown,
		WordWrap:  app.Config.UI.WordWrap,
		MaxFPS:    app.Config.UI.MaxFPS,
		AltScreen: app.Config.UI.AltScreen,
		Logger:    app.Logger,
	}
	return runWithWatcher(ctx, app, func(ctx context.Context) error {
		return chat.Run(ctx, app.Session, app.Client, opts)
	})
}

// runWithWatcher runs fn alongside the config watcher. The watcher stops
// when fn returns; a watcher failure is logged and does not stop fn.
func runWithWatcher(ctx context.Context, app *App, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return fn(gctx)
	})
	g.Go(func() error {
		if err := app.Watch(gctx); err != nil {
			app.Logger.Warn("config watch stopped", "err", err)
		}
		return nil
	})
	return g.Wait()
}
