// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/jeranaias/blackv/internal/config"
	"github.com/jeranaias/blackv/internal/logging"
	"github.com/jeranaias/blackv/internal/ollama"
	"github.com/jeranaias/blackv/internal/session"
)

const defaultModelHint = config.DefaultModel

// App holds what every front end needs: configuration, logger, client
// and the session controller.
type App struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	Client     *ollama.Client
	Session    *session.Controller

	args     Args
	closeLog func() error
}

// LoadConfig loads the config file named by --config, or the default one,
// and applies command-line overrides. Flags beat environment, which beats
// the file.
func LoadConfig(args Args) (*config.Config, string, error) {
	path := args.ConfigPath
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		if path, err = config.ConfigPathTOML(); err != nil {
			return nil, "", &ConfigError{Err: err}
		}
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFromPath(path)
	}
	if err != nil {
		return nil, path, &ConfigError{Path: path, Err: err}
	}

	applyFlags(cfg, args)
	if err := cfg.Validate(); err != nil {
		return nil, path, &ConfigError{Path: path, Err: err}
	}
	return cfg, path, nil
}

func applyFlags(cfg *config.Config, args Args) {
	if args.Model != "" {
		cfg.Model = args.Model
	}
	if args.URL != "" {
		cfg.Local.OllamaURL = args.URL
	}
	if args.System != "" {
		cfg.System = args.System
	}
	if args.LogLevel != "" {
		cfg.Log.Level = args.LogLevel
	}
	if args.NoMarkdown {
		cfg.UI.Markdown = false
	}
}

// NewApp builds the application from parsed arguments.
func NewApp(args Args) (*App, error) {
	cfg, path, err := LoadConfig(args)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.Setup(cfg.Log)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:       cfg.Local.OllamaURL,
		Timeout:       seconds(cfg.Local.RequestTimeoutSecs),
		HeaderTimeout: seconds(cfg.Local.HeaderTimeoutSecs),
		DefaultModel:  cfg.Model,
	})

	ctrl := session.New(client,
		session.WithLogger(logger),
		session.WithModel(cfg.Model),
		session.WithSystem(cfg.System),
		session.WithOptions(OptionsFrom(cfg.Options)),
	)

	logger.Info("blackv starting",
		"version", Version,
		"model", cfg.Model,
		"url", cfg.Local.OllamaURL,
		"config", path,
		"session", ctrl.ID())

	return &App{
		Config:     cfg,
		ConfigPath: path,
		Logger:     logger,
		Client:     client,
		Session:    ctrl,
		args:       args,
		closeLog:   closeLog,
	}, nil
}

// OptionsFrom converts the [options] config section for the wire. Unset
// options yield nil so the server defaults apply.
func OptionsFrom(o config.OptionsConfig) *ollama.Options {
	opts := &ollama.Options{
		Temperature: o.Temperature,
		NumCtx:      o.NumCtx,
		NumPredict:  o.NumPredict,
		Seed:        o.Seed,
	}
	if opts.IsZero() {
		return nil
	}
	return opts
}

// Reload applies a reloaded configuration to the running session.
// Command-line flags still take precedence.
func (a *App) Reload(cfg *config.Config) {
	applyFlags(cfg, a.args)
	a.Session.SetModel(cfg.Model)
	a.Session.SetSystem(cfg.System)
	a.Session.SetOptions(OptionsFrom(cfg.Options))
	a.Client.SetModel(cfg.Model)
	a.Logger.Info("settings applied", "model", cfg.Model)
}

// Watch follows the config file until ctx is done. A missing config
// directory is not an error; there is simply nothing to watch.
func (a *App) Watch(ctx context.Context) error {
	if _, err := os.Stat(a.ConfigPath); errors.Is(err, os.ErrNotExist) {
		a.Logger.Debug("config file absent, not watching", "path", a.ConfigPath)
		return nil
	}
	return config.Watch(ctx, a.ConfigPath, a.Reload, a.Logger)
}

// Close waits for any response in progress and closes the log file.
func (a *App) Close() error {
	a.Session.Wait()
	a.Logger.Info("blackv stopped")
	if a.closeLog != nil {
		return a.closeLog()
	}
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
