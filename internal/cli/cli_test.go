// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/blackv/internal/config"
	"github.com/jeranaias/blackv/internal/logging"
	"github.com/jeranaias/blackv/internal/model"
	"github.com/jeranaias/blackv/internal/ollama"
	"github.com/jeranaias/blackv/internal/session"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		bools    []string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name: "positional only",
			args: []string{"ask", "hello", "world"},
			validate: func(t *testing.T, p *ArgParser) {
				if got := strings.Join(p.PositionalFrom(1), " "); got != "hello world" {
					t.Errorf("PositionalFrom(1) = %q", got)
				}
			},
		},
		{
			name: "flag with value",
			args: []string{"chat", "--model", "mistral"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("model") != "mistral" {
					t.Errorf("Flag(model) = %q", p.Flag("model"))
				}
			},
		},
		{
			name: "flag with equals",
			args: []string{"--url=http://h:1"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("url") != "http://h:1" {
					t.Errorf("Flag(url) = %q", p.Flag("url"))
				}
			},
		},
		{
			name: "short alias",
			args: []string{"-m", "phi3"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("model", "m") != "phi3" {
					t.Errorf("Flag(model, m) = %q", p.Flag("model", "m"))
				}
			},
		},
		{
			name:  "known boolean does not eat positional",
			args:  []string{"ask", "--quiet", "hi"},
			bools: []string{"quiet"},
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("quiet") {
					t.Error("BoolFlag(quiet) should be true")
				}
				if p.Positional(1) != "hi" {
					t.Errorf("Positional(1) = %q", p.Positional(1))
				}
			},
		},
		{
			name: "double dash ends flags",
			args: []string{"ask", "--", "--not-a-flag"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Positional(1) != "--not-a-flag" {
					t.Errorf("Positional(1) = %q", p.Positional(1))
				}
				if p.HasFlag("not-a-flag") {
					t.Error("flag parsed after --")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, NewArgParser(tt.args, tt.bools...))
		})
	}
}

// =============================================================================
// PARSE TESTS (cli.go)
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		want    Command
		check   func(*testing.T, Args)
		wantErr bool
	}{
		{name: "no args", argv: nil, want: CmdTUI},
		{name: "tui", argv: []string{"tui"}, want: CmdTUI, check: func(t *testing.T, a Args) {
			assert.True(t, a.ExplicitTUI)
		}},
		{name: "chat with model", argv: []string{"chat", "-m", "mistral"}, want: CmdChat, check: func(t *testing.T, a Args) {
			assert.Equal(t, "mistral", a.Model)
		}},
		{name: "ask joins words", argv: []string{"ask", "--no-markdown", "what", "is", "go"}, want: CmdAsk, check: func(t *testing.T, a Args) {
			assert.Equal(t, "what is go", a.Query)
			assert.True(t, a.NoMarkdown)
		}},
		{name: "global flags before command", argv: []string{"--url", "http://h:1", "--system=be brief", "-q", "models"}, want: CmdModels, check: func(t *testing.T, a Args) {
			assert.Equal(t, "http://h:1", a.URL)
			assert.Equal(t, "be brief", a.System)
			assert.True(t, a.Quiet)
		}},
		{name: "config default show", argv: []string{"config"}, want: CmdConfig, check: func(t *testing.T, a Args) {
			assert.Equal(t, "show", a.Subcommand)
		}},
		{name: "config init", argv: []string{"config", "init", "--config", "/tmp/x.toml"}, want: CmdConfig, check: func(t *testing.T, a Args) {
			assert.Equal(t, "init", a.Subcommand)
			assert.Equal(t, "/tmp/x.toml", a.ConfigPath)
		}},
		{name: "version flag", argv: []string{"--version"}, want: CmdVersion},
		{name: "help flag", argv: []string{"chat", "-h"}, want: CmdHelp},
		{name: "ask without prompt", argv: []string{"ask"}, wantErr: true},
		{name: "unknown command", argv: []string{"frobnicate"}, wantErr: true},
		{name: "unknown flag", argv: []string{"--paranoid"}, wantErr: true},
		{name: "missing flag value", argv: []string{"chat", "--model"}, wantErr: true},
		{name: "bad config subcommand", argv: []string{"config", "edit"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := Parse(tt.argv)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ExitUsageError, GetExitCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitUsageError, GetExitCode(&UsageError{Reason: "x"}))
	assert.Equal(t, ExitConfigError, GetExitCode(&ConfigError{Err: errors.New("bad")}))
	assert.Equal(t, ExitConfigError, GetExitCode(fmt.Errorf("wrapped: %w", config.ValidateErrors{{Field: "model", Message: "empty"}})))
	assert.Equal(t, ExitGeneralError, GetExitCode(ollama.ErrNotRunning))
}

func TestPrintUsageAndVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	assert.Contains(t, buf.String(), "blackv ask")
	assert.Contains(t, buf.String(), config.DefaultModel)

	buf.Reset()
	PrintVersion(&buf)
	assert.Contains(t, buf.String(), Version)
}

// =============================================================================
// CONFIG TESTS (app.go, config_cmd.go)
// =============================================================================

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"BLACKV_MODEL", "BLACKV_SYSTEM", "BLACKV_OLLAMA_URL", "BLACKV_LOG_LEVEL", "BLACKV_LOG_FILE", "BLACKV_MARKDOWN"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "model = \"from-file\"\nsystem = \"file system\"\n")

	cfg, got, err := LoadConfig(Args{ConfigPath: path, Model: "from-flag", NoMarkdown: true})
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, "from-flag", cfg.Model)
	assert.Equal(t, "file system", cfg.System)
	assert.False(t, cfg.UI.Markdown)
}

func TestLoadConfig_InvalidFlag(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "")

	_, _, err := LoadConfig(Args{ConfigPath: path, URL: "ftp://nope"})
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))
}

func TestOptionsFrom(t *testing.T) {
	assert.Nil(t, OptionsFrom(config.OptionsConfig{}))

	opts := OptionsFrom(config.OptionsConfig{Temperature: 0.3, NumCtx: 4096})
	require.NotNil(t, opts)
	assert.Equal(t, 0.3, opts.Temperature)
	assert.Equal(t, 4096, opts.NumCtx)
}

func TestHandleConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	args := Args{ConfigPath: path}

	var out bytes.Buffer
	args.Subcommand = "path"
	require.NoError(t, HandleConfig(args, &out))
	assert.Equal(t, path+"\n", out.String())

	out.Reset()
	args.Subcommand = "init"
	require.NoError(t, HandleConfig(args, &out))
	assert.FileExists(t, path)

	err := HandleConfig(args, &out)
	require.Error(t, err, "init refuses to overwrite")
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	out.Reset()
	args.Subcommand = "show"
	args.Model = "shown-model"
	require.NoError(t, HandleConfig(args, &out))
	assert.Contains(t, out.String(), `model = "shown-model"`)
}

// =============================================================================
// FRONT END TESTS (ask.go, chat.go, models.go)
// =============================================================================

// fakeOllama serves /api/generate with the given NDJSON lines and
// /api/tags with two models.
func fakeOllama(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			w.Header().Set("Content-Type", "application/x-ndjson")
			for _, l := range lines {
				fmt.Fprintln(w, l)
			}
		case "/api/tags":
			fmt.Fprint(w, `{"models":[{"name":"llama3.2:latest","size":2019393189,"digest":"a80c4f17acd55265feec403c7aef86be0c25983ab279d83f3bcd3abbcb5b8b72"},{"name":"mistral:7b","size":4109865159}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testApp(t *testing.T, baseURL string) *App {
	t.Helper()
	logger := logging.Discard()
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: baseURL})
	return &App{
		Config: config.Default(),
		Logger: logger,
		Client: client,
		Session: session.New(client,
			session.WithLogger(logger),
			session.WithModel("llama3.2")),
	}
}

func plainOutput() (Output, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return Output{Out: &out, Err: &errOut, Width: 80}, &out, &errOut
}

func TestRunAsk_StreamsResponse(t *testing.T) {
	srv := fakeOllama(t,
		`{"response":"Hello"}`,
		`{"response":", world"}`,
		`{"response":"","done":true,"eval_count":2,"eval_duration":1000000000,"total_duration":1000000000}`,
	)
	app := testApp(t, srv.URL)
	o, out, errOut := plainOutput()

	require.NoError(t, RunAsk(context.Background(), app, "  hi  ", o))
	assert.Equal(t, "Hello, world\n", out.String())
	assert.Contains(t, errOut.String(), "2 tokens")

	turns := app.Session.Snapshot().Conversation.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "hi", turns[0].Content)
}

func TestRunAsk_BlankResponsePrintsFallback(t *testing.T) {
	srv := fakeOllama(t, `{"response":"  "}`, `{"response":"\n"}`, `{"response":"","done":true}`)
	app := testApp(t, srv.URL)
	o, out, _ := plainOutput()

	require.NoError(t, RunAsk(context.Background(), app, "hi", o))
	assert.Equal(t, model.FallbackMessage+"\n", out.String())
}

func TestResponsePrinter_ReplacedContentStartsFreshLine(t *testing.T) {
	var out bytes.Buffer
	p := &responsePrinter{out: &out}
	turn := model.NewTurn(model.RoleAssistant, "draft")
	p.OnUpdate(session.Snapshot{Conversation: model.NewConversation(turn)})

	turn.Content = "final"
	p.Finish(session.Snapshot{Conversation: model.NewConversation(turn)})
	assert.Equal(t, "draft\nfinal\n", out.String())
}

func TestRunAsk_QuietSkipsStats(t *testing.T) {
	srv := fakeOllama(t, `{"response":"ok","done":true,"eval_count":1,"eval_duration":1000000}`)
	app := testApp(t, srv.URL)
	o, out, errOut := plainOutput()
	o.Quiet = true

	require.NoError(t, RunAsk(context.Background(), app, "hi", o))
	assert.Equal(t, "ok\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestRunAsk_Markdown(t *testing.T) {
	srv := fakeOllama(t, `{"response":"# Title\n\n**bold**"}`)
	app := testApp(t, srv.URL)
	o, out, _ := plainOutput()
	o.Markdown = true
	o.Style = "notty"

	require.NoError(t, RunAsk(context.Background(), app, "hi", o))
	assert.Contains(t, out.String(), "Title")
	assert.Contains(t, out.String(), "bold")
	assert.NotEqual(t, "# Title\n\n**bold**\n", out.String(), "rendered, not streamed raw")
}

func TestRunAsk_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	app := testApp(t, url)
	o, out, _ := plainOutput()

	err := RunAsk(context.Background(), app, "hi", o)
	require.Error(t, err)
	assert.True(t, ollama.IsNotRunning(err))
	assert.Contains(t, err.Error(), "ollama serve")
	assert.Empty(t, out.String())
	assert.Equal(t, ExitGeneralError, GetExitCode(err))

	last, ok := app.Session.Snapshot().Conversation.Last()
	require.True(t, ok)
	assert.Equal(t, model.ErrorMessage, last.Content)
}

// scriptReader replays lines, then reports EOF.
type scriptReader struct {
	lines []string
}

func (s *scriptReader) ReadInput(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestRunChat_Conversation(t *testing.T) {
	srv := fakeOllama(t, `{"response":"pong"}`)
	app := testApp(t, srv.URL)
	o, out, _ := plainOutput()
	o.Quiet = true

	in := &scriptReader{lines: []string{"ping", "", "again", "/quit", "never sent"}}
	require.NoError(t, RunChat(context.Background(), app, in, o))

	assert.Equal(t, 2, strings.Count(out.String(), "pong\n"))
	assert.Equal(t, 4, app.Session.Snapshot().Conversation.Len())
	assert.Equal(t, []string{"never sent"}, in.lines)
}

func TestRunChat_SlashCommands(t *testing.T) {
	srv := fakeOllama(t, `{"response":"x"}`)
	app := testApp(t, srv.URL)
	o, out, errOut := plainOutput()
	o.Quiet = true

	in := &scriptReader{lines: []string{
		"/model mistral:7b",
		"/model phi3",
		"/system be terse",
		"/models",
		"/bogus",
		"/help",
	}}
	require.NoError(t, RunChat(context.Background(), app, in, o))

	assert.Equal(t, "mistral:7b", app.Session.Model())
	assert.Equal(t, "be terse", app.Session.System())
	assert.Contains(t, out.String(), "Switched to mistral:7b")
	assert.Contains(t, errOut.String(), `Model "phi3" is not installed`)
	assert.Contains(t, errOut.String(), "Unknown command /bogus")
	assert.Contains(t, out.String(), "* mistral:7b")
	assert.Contains(t, out.String(), "/system [text]")
	assert.True(t, app.Session.Snapshot().Conversation.IsEmpty(), "commands are not prompts")
}

func TestRunChat_ErrorKeepsGoing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model 'nope' not found"}`)
	}))
	t.Cleanup(srv.Close)

	app := testApp(t, srv.URL)
	o, _, errOut := plainOutput()
	o.Quiet = true

	in := &scriptReader{lines: []string{"one", "two"}}
	require.NoError(t, RunChat(context.Background(), app, in, o))

	assert.Equal(t, 2, strings.Count(errOut.String(), model.ErrorMessage))
	assert.Contains(t, errOut.String(), "ollama pull")
	assert.Equal(t, 4, app.Session.Snapshot().Conversation.Len())
}

func TestPrintModels(t *testing.T) {
	var buf bytes.Buffer
	printModels(&buf, nil, "x")
	assert.Contains(t, buf.String(), "No models installed")

	buf.Reset()
	printModels(&buf, []ollama.ModelInfo{
		{Name: "llama3.2:latest", Size: 2019393189, Digest: "a80c4f17acd55265feec"},
		{Name: "mistral:7b", Size: 4109865159},
	}, "llama3.2")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "* llama3.2:latest"))
	assert.Contains(t, lines[0], "a80c4f17acd5")
	assert.Contains(t, lines[0], "1.9 GB")
	assert.True(t, strings.HasPrefix(lines[1], "  mistral:7b"))
}
