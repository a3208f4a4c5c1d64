// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolateEnv points HOME and the .env lookup at a temp dir and clears
// BLACKV_* variables for the duration of the test.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("USERPROFILE", dir)
	for _, key := range []string{"BLACKV_MODEL", "BLACKV_SYSTEM", "BLACKV_OLLAMA_URL", "BLACKV_LOG_LEVEL", "BLACKV_LOG_FILE", "BLACKV_MARKDOWN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	old := DotEnvFile
	DotEnvFile = filepath.Join(dir, ".env")
	t.Cleanup(func() { DotEnvFile = old })
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// TestConfig_Default tests that Default() returns a valid config with defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", cfg.Model, DefaultModel)
	}
	if cfg.Local.OllamaURL != DefaultOllamaURL {
		t.Errorf("OllamaURL = %q", cfg.Local.OllamaURL)
	}
	if !cfg.UI.Markdown {
		t.Error("markdown should default to on")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, "", false},
		{"bad url", func(c *Config) { c.Local.OllamaURL = "localhost:11434" }, "local.ollama_url", true},
		{"ftp url", func(c *Config) { c.Local.OllamaURL = "ftp://host" }, "local.ollama_url", true},
		{"fps too high", func(c *Config) { c.UI.MaxFPS = 120 }, "ui.max_fps", true},
		{"narrow wrap", func(c *Config) { c.UI.WordWrap = 10 }, "ui.word_wrap", true},
		{"invalid theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme", true},
		{"invalid level", func(c *Config) { c.Log.Level = "verbose" }, "log.level", true},
		{"invalid format", func(c *Config) { c.Log.Format = "xml" }, "log.format", true},
		{"temperature", func(c *Config) { c.Options.Temperature = 3 }, "options.temperature", true},
		{"empty model", func(c *Config) { c.Model = " " }, "model", true},
		{"uppercase level", func(c *Config) { c.Log.Level = "DEBUG" }, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error %T is not ValidateErrors", err)
			}
			if verrs[0].Field != tt.field {
				t.Errorf("Field = %q, want %q", verrs[0].Field, tt.field)
			}
		})
	}
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, `
model = "qwen2.5:7b"

[ui]
markdown = false
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Model != "qwen2.5:7b" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.UI.Markdown {
		t.Error("ui.markdown = true, want false from file")
	}
	if cfg.UI.MaxFPS != 30 || cfg.Local.OllamaURL != DefaultOllamaURL || cfg.System != DefaultSystem {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	dir := isolateEnv(t)

	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, `model = `)
	if _, err := LoadFromPath(bad); err == nil {
		t.Error("expected decode error")
	}

	invalid := filepath.Join(dir, "invalid.toml")
	writeFile(t, invalid, "[ui]\nmax_fps = 500\n")
	_, err := LoadFromPath(invalid)
	if err == nil || !strings.Contains(err.Error(), "ui.max_fps") {
		t.Errorf("error = %v, want ui.max_fps validation error", err)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolateEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q", cfg.Model)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	dir := isolateEnv(t)
	writeFile(t, filepath.Join(dir, ".env"), "BLACKV_MODEL=from-dotenv\nBLACKV_SYSTEM=dotenv system\nBLACKV_MARKDOWN=false\n")
	t.Setenv("BLACKV_MODEL", "from-env")
	t.Setenv("BLACKV_OLLAMA_URL", "http://gpu-box:11434")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Model != "from-env" {
		t.Errorf("Model = %q, real env should win over .env", cfg.Model)
	}
	if cfg.System != "dotenv system" {
		t.Errorf("System = %q, want value from .env", cfg.System)
	}
	if cfg.Local.OllamaURL != "http://gpu-box:11434" {
		t.Errorf("OllamaURL = %q", cfg.Local.OllamaURL)
	}
	if cfg.UI.Markdown {
		t.Error("BLACKV_MARKDOWN=false not applied")
	}
	if _, ok := os.LookupEnv("BLACKV_SYSTEM"); ok {
		t.Error(".env leaked into the process environment")
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := Default()
	cfg.Model = "mistral"
	cfg.Options.NumCtx = 8192
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 && os.PathSeparator == '/' {
		t.Errorf("permissions = %o, want 600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Model != "mistral" || loaded.Options.NumCtx != 8192 {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, `model = "first"`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { changes <- c }, nil)
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, `model = "invalid`)
	time.Sleep(300 * time.Millisecond)
	writeFile(t, path, `model = "second"`)

	select {
	case cfg := <-changes:
		if cfg.Model != "second" {
			t.Errorf("reloaded model = %q, want second", cfg.Model)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}
