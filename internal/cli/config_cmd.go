// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/blackv/internal/config"
)

// HandleConfig runs "blackv config show|init|path".
func HandleConfig(args Args, stdout io.Writer) error {
	switch args.Subcommand {
	case "path":
		path, err := configPath(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, path)
		return nil

	case "init":
		path, err := configPath(args)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			return &ConfigError{Path: path, Err: errors.New("already exists; edit it or remove it first")}
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			return &ConfigError{Path: path, Err: err}
		}
		fmt.Fprintln(stdout, "Wrote "+path)
		return nil
	}

	// show: the effective configuration, env and flags applied
	cfg, path, err := LoadConfig(args)
	if err != nil {
		return err
	}
	out, err := cfg.Encode()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "# %s\n%s", path, out)
	return nil
}

func configPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	path, err := config.ConfigPathTOML()
	if err != nil {
		return "", &ConfigError{Err: err}
	}
	return path, nil
}
