// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jeranaias/blackv/internal/ollama"
	"github.com/jeranaias/blackv/internal/util"
)

// HandleModels runs "blackv models".
func HandleModels(ctx context.Context, args Args, stdout io.Writer) error {
	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	models, err := app.Client.ListModels(ctx)
	if err != nil {
		return explain(err, "")
	}
	printModels(stdout, models, app.Session.Model())
	return nil
}

// printModels writes one line per model, marking the active one.
func printModels(w io.Writer, models []ollama.ModelInfo, current string) {
	if len(models) == 0 {
		fmt.Fprintln(w, "No models installed. Run: ollama pull "+ollama.DefaultModel)
		return
	}

	width := 0
	for _, m := range models {
		width = max(width, util.StringWidth(m.Name))
	}

	for _, m := range models {
		marker := "  "
		name := util.PadRight(m.Name, width)
		if ollama.MatchModelName(m.Name, current) {
			marker = "* "
			name = HighlightStyle.Render(name)
		}
		details := m.FormatSize()
		if m.Details.ParameterSize != "" {
			details += "  " + m.Details.ParameterSize
		}
		if m.Details.QuantizationLevel != "" {
			details += "  " + m.Details.QuantizationLevel
		}
		fmt.Fprintf(w, "%s%s  %s  %s\n", marker, name, DimStyle.Render(m.ShortDigest()), details)
	}
}
