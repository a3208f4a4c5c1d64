// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the blackv TUI.

Colors are Lip Gloss AdaptiveColor values. NewTheme decides between the
light and dark variants from the ui.theme setting, asking the terminal
through termenv when it is "auto", and builds the styles used by the chat
view. The same decision picks the glamour style for markdown.

	theme := styles.NewTheme(cfg.UI.Theme)
	label := theme.AssistantLabel.Render("Assistant")
*/
package styles
