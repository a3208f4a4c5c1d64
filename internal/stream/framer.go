// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "bytes"

// Separator terminates every record in the stream.
const Separator = '\n'

// Framer turns an unbounded sequence of byte chunks into complete records.
//
// Chunk boundaries carry no meaning: a record may span many chunks and one
// chunk may hold many records. Splitting happens on bytes, so a multibyte
// UTF-8 sequence cut by a read is reassembled before its record is emitted.
//
// A Framer is owned by a single response and is not safe for concurrent use.
type Framer struct {
	residual []byte
}

// NewFramer creates an empty framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Push appends chunk to the residual buffer and returns every record that is
// now complete, in arrival order, without their separators. Consecutive
// separators produce empty records.
func (f *Framer) Push(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	f.residual = append(f.residual, chunk...)

	last := bytes.LastIndexByte(f.residual, Separator)
	if last < 0 {
		return nil
	}

	records := make([]string, 0, bytes.Count(f.residual[:last+1], []byte{Separator}))
	start := 0
	for i := 0; i <= last; i++ {
		if f.residual[i] == Separator {
			records = append(records, string(f.residual[start:i]))
			start = i + 1
		}
	}

	n := copy(f.residual, f.residual[last+1:])
	f.residual = f.residual[:n]
	return records
}

// Residual returns the bytes received since the last separator.
func (f *Framer) Residual() []byte {
	return f.residual
}

// Close ends the stream. Whatever is left in the residual buffer is an
// unterminated record; it is dropped and its length returned.
func (f *Framer) Close() (discarded int) {
	discarded = len(f.residual)
	f.residual = nil
	return discarded
}
