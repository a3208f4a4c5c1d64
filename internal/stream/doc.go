// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes Ollama's newline-delimited JSON generate stream.
//
// The pipeline has three stages, each usable on its own:
//
//   - Framer: splits arbitrary byte chunks into complete records
//   - Decode / Decoder: parses one record into a Fragment, isolating failures
//   - Accumulator: folds fragment text into the response text so far
//
// Reader ties the stages to an io.Reader and exposes them as a pull
// iterator. One Reader serves exactly one response.
//
// # Usage
//
//	r := stream.NewReader(resp.Body, stream.WithLogger(logger))
//	for {
//	    upd, err := r.Next()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    render(upd.Text)
//	}
//
// # Limitations
//
// A trailing record that is not terminated by a newline when the stream
// ends is discarded unparsed. Ollama always terminates its records, so this
// only happens when a connection is cut mid-record.
package stream
