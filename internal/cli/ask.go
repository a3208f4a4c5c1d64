// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"

	"github.com/jeranaias/blackv/internal/util"
)

// HandleAsk runs "blackv ask".
func HandleAsk(ctx context.Context, args Args, stdout, stderr io.Writer) error {
	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	return RunAsk(ctx, app, args.Query, NewOutput(app, stdout, stderr, IsStdoutTTY()))
}

// RunAsk performs one exchange and prints the response. A transport
// failure is returned with a hint.
func RunAsk(ctx context.Context, app *App, prompt string, o Output) error {
	printer, err := newResponsePrinter(o)
	if err != nil {
		return err
	}
	app.Session.OnUpdate(printer.OnUpdate)

	if err := app.Session.Exchange(ctx, util.NormalizeInput(prompt)); err != nil {
		printer.Abort()
		return explain(err, app.Session.Model())
	}

	snap := app.Session.Snapshot()
	printer.Finish(snap)
	printStats(o, snap.Stats.Format())
	return nil
}
