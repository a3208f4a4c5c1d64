// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"io"
	"log/slog"
)

// DefaultBufferSize is the read size used when none is configured.
const DefaultBufferSize = 4096

// Update is produced for every record that decoded successfully.
type Update struct {
	Fragment Fragment
	// Text is the whole response accumulated up to and including Fragment.
	Text string
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used for skipped records and dropped bytes.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithBufferSize sets the size of each read from the source.
func WithBufferSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.buf = make([]byte, n)
		}
	}
}

// Reader pulls one response body through framing, decoding and
// accumulation. Every record of a chunk is handed out before the next read.
type Reader struct {
	src     io.Reader
	buf     []byte
	logger  *slog.Logger
	framer  *Framer
	decoder *Decoder
	acc     *Accumulator
	pending []string
	err     error
	dropped int
}

// NewReader creates a Reader over src.
func NewReader(src io.Reader, opts ...Option) *Reader {
	r := &Reader{
		src:    src,
		logger: slog.Default(),
		framer: NewFramer(),
		acc:    NewAccumulator(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.buf == nil {
		r.buf = make([]byte, DefaultBufferSize)
	}
	r.decoder = NewDecoder(r.logger)
	return r
}

// Next returns the next successfully decoded fragment along with the text
// accumulated so far. It returns io.EOF once the source is exhausted and
// every complete record has been handed out. Any other error comes from the
// source and ends the stream; records already framed are still delivered
// before it.
func (r *Reader) Next() (Update, error) {
	for {
		for len(r.pending) > 0 {
			line := r.pending[0]
			r.pending = r.pending[1:]
			frag, ok := r.decoder.Decode(line)
			if !ok {
				continue
			}
			return Update{Fragment: frag, Text: r.acc.Extend(frag)}, nil
		}

		if r.err != nil {
			return Update{}, r.err
		}

		n, err := r.src.Read(r.buf)
		if n > 0 {
			r.pending = r.framer.Push(r.buf[:n])
		}
		if err != nil {
			r.end(err)
		}
	}
}

func (r *Reader) end(err error) {
	if errors.Is(err, io.EOF) {
		r.err = io.EOF
	} else {
		r.err = err
	}
	if r.dropped = r.framer.Close(); r.dropped > 0 {
		r.logger.Debug("unterminated trailing record discarded", "bytes", r.dropped)
	}
}

// Text returns the accumulated response text.
func (r *Reader) Text() string {
	return r.acc.Text()
}

// Stats returns the statistics gathered so far.
func (r *Reader) Stats() Stats {
	return r.acc.Stats()
}

// Skipped returns how many records failed to decode.
func (r *Reader) Skipped() int {
	return r.decoder.Failures()
}

// Dropped returns how many trailing bytes were discarded at end of stream.
func (r *Reader) Dropped() int {
	return r.dropped
}
