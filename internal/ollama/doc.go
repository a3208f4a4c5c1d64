// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// The client covers the three endpoints blackv needs: a health check on the
// base URL, the installed model list (/api/tags), and the streaming generate
// endpoint (/api/generate). Generate hands back the raw response body; the
// stream package turns it into fragments.
//
// # Errors
//
// Every failure is a *ClientError whose Type says what went wrong. Use the
// helpers or errors.Is against the sentinels:
//
//	body, err := client.Generate(ctx, req)
//	switch {
//	case ollama.IsNotRunning(err):
//	    // start Ollama
//	case errors.Is(err, ollama.ErrModelNotFound):
//	    // ollama pull <model>
//	}
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL: "http://127.0.0.1:11434",
//	})
//	body, err := client.Generate(ctx, ollama.GenerateRequest{
//	    Model:  "llama3.2",
//	    Prompt: "Hello",
//	})
//	if err != nil {
//	    return err
//	}
//	defer body.Close()
package ollama
