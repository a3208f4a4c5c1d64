// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for blackv.
//
// Configuration file location: ~/.blackv/config.toml, falling back to
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/blackv/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete blackv configuration.
type Config struct {
	// General settings
	Version string `toml:"version"`
	// Model is the Ollama model used for new requests
	Model string `toml:"model"`
	// System is the system prompt sent with every request
	System string `toml:"system"`

	// Local (Ollama) configuration
	Local LocalConfig `toml:"local"`

	// Inference options passed through to Ollama
	Options OptionsConfig `toml:"options"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Logging configuration
	Log LogConfig `toml:"log"`
}

// LocalConfig contains local Ollama configuration.
type LocalConfig struct {
	// OllamaURL is the URL of the Ollama server
	OllamaURL string `toml:"ollama_url"`
	// RequestTimeoutSecs bounds non-streaming requests (model list, health check)
	RequestTimeoutSecs int `toml:"request_timeout_secs"`
	// HeaderTimeoutSecs bounds the wait for a response to start, model load included
	HeaderTimeoutSecs int `toml:"header_timeout_secs"`
}

// OptionsConfig holds inference parameters. Zero means "server default".
type OptionsConfig struct {
	Temperature float64 `toml:"temperature"`
	NumCtx      int     `toml:"num_ctx"`
	NumPredict  int     `toml:"num_predict"`
	Seed        int     `toml:"seed"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Markdown enables glamour rendering of assistant turns
	Markdown bool `toml:"markdown"`
	// WordWrap is the wrap width for plain output (TUI uses the window width)
	WordWrap int `toml:"word_wrap"`
	// MaxFPS caps TUI redraws while a response streams
	MaxFPS int `toml:"max_fps"`
	// Theme is "auto", "dark" or "light"
	Theme string `toml:"theme"`
	// AltScreen runs the TUI in the alternate screen buffer
	AltScreen bool `toml:"alt_screen"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `toml:"level"`
	// Format is "text" or "json"
	Format string `toml:"format"`
	// File is the log destination; empty means ~/.blackv/blackv.log, "-" means stderr
	File string `toml:"file"`
}

const (
	DefaultModel     = "llama3.2"
	DefaultSystem    = "You are BlackV, a helpful assistant running locally. Answer clearly and use markdown where it helps."
	DefaultOllamaURL = "http://127.0.0.1:11434"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Model:   DefaultModel,
		System:  DefaultSystem,
		Local: LocalConfig{
			OllamaURL:          DefaultOllamaURL,
			RequestTimeoutSecs: 30,
			HeaderTimeoutSecs:  300,
		},
		UI: UIConfig{
			Markdown:  true,
			WordWrap:  100,
			MaxFPS:    30,
			Theme:     "auto",
			AltScreen: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the blackv configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".blackv"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "blackv.log"), nil
}

// HistoryPath returns the path of the line editor history file.
func HistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chat_history"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads ~/.blackv/config.toml if it exists, otherwise the defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg := Default()
		return finish(cfg)
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file over cfg. Keys missing from the file keep
// the values cfg already holds.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slog.Warn("unknown config keys ignored", "path", path, "keys", strings.Join(keys, ","))
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# blackv configuration file\n")
	b.WriteString("# Environment variables (BLACKV_*) and .env override these values.\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, []byte(b.String()), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Encode returns the configuration as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return "", err
	}
	return b.String(), nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, ValidationError{Field: "model", Message: "must not be empty"})
	}

	// Local
	if u, err := url.Parse(c.Local.OllamaURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, ValidationError{
			Field:   "local.ollama_url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[:port]", c.Local.OllamaURL),
		})
	}
	if c.Local.RequestTimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "local.request_timeout_secs", Message: "must not be negative"})
	}
	if c.Local.HeaderTimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "local.header_timeout_secs", Message: "must not be negative"})
	}

	// Options
	if c.Options.Temperature < 0 || c.Options.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "options.temperature",
			Message: fmt.Sprintf("must be between 0.0 and 2.0, got %v", c.Options.Temperature),
		})
	}
	if c.Options.NumCtx < 0 {
		errs = append(errs, ValidationError{Field: "options.num_ctx", Message: "must not be negative"})
	}

	// UI
	if c.UI.MaxFPS < 1 || c.UI.MaxFPS > 60 {
		errs = append(errs, ValidationError{
			Field:   "ui.max_fps",
			Message: fmt.Sprintf("must be between 1 and 60, got %d", c.UI.MaxFPS),
		})
	}
	if c.UI.WordWrap < 20 {
		errs = append(errs, ValidationError{
			Field:   "ui.word_wrap",
			Message: fmt.Sprintf("must be at least 20, got %d", c.UI.WordWrap),
		})
	}
	validThemes := map[string]bool{"auto": true, "dark": true, "light": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	// Log
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be text or json", c.Log.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.Local.OllamaURL == "" {
		c.Local.OllamaURL = defaults.Local.OllamaURL
	}
	c.Local.OllamaURL = strings.TrimRight(c.Local.OllamaURL, "/")
	if c.Local.RequestTimeoutSecs == 0 {
		c.Local.RequestTimeoutSecs = defaults.Local.RequestTimeoutSecs
	}
	if c.Local.HeaderTimeoutSecs == 0 {
		c.Local.HeaderTimeoutSecs = defaults.Local.HeaderTimeoutSecs
	}
	if c.UI.WordWrap == 0 {
		c.UI.WordWrap = defaults.UI.WordWrap
	}
	if c.UI.MaxFPS == 0 {
		c.UI.MaxFPS = defaults.UI.MaxFPS
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// DotEnvFile is read from the working directory by ApplyEnvOverrides.
var DotEnvFile = ".env"

// ApplyEnvOverrides applies environment variable overrides to the config.
// Values from DotEnvFile are used only for variables the real environment
// does not set.
//
// Supported variables:
//   - BLACKV_MODEL: overrides model
//   - BLACKV_SYSTEM: overrides system
//   - BLACKV_OLLAMA_URL: overrides local.ollama_url
//   - BLACKV_LOG_LEVEL: overrides log.level
//   - BLACKV_LOG_FILE: overrides log.file
//   - BLACKV_MARKDOWN: overrides ui.markdown (1/0, true/false)
func (c *Config) ApplyEnvOverrides() {
	dotenv, err := godotenv.Read(DotEnvFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env file", "path", DotEnvFile, "err", err)
	}

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	}

	if model := lookup("BLACKV_MODEL"); model != "" {
		c.Model = model
	}
	if system := lookup("BLACKV_SYSTEM"); system != "" {
		c.System = system
	}
	if u := lookup("BLACKV_OLLAMA_URL"); u != "" {
		c.Local.OllamaURL = u
	}
	if level := lookup("BLACKV_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if file := lookup("BLACKV_LOG_FILE"); file != "" {
		c.Log.File = file
	}
	if md := lookup("BLACKV_MARKDOWN"); md != "" {
		if v, err := strconv.ParseBool(md); err == nil {
			c.UI.Markdown = v
		}
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
