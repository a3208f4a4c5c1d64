// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader returns one chunk per Read call, then err (io.EOF by default).
type chunkReader struct {
	chunks []string
	err    error
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		if c.err != nil {
			return 0, c.err
		}
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	c.chunks[0] = c.chunks[0][n:]
	if c.chunks[0] == "" {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func drain(t *testing.T, r *Reader) ([]string, error) {
	t.Helper()
	var texts []string
	for {
		upd, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return texts, nil
			}
			return texts, err
		}
		texts = append(texts, upd.Text)
	}
}

func TestReader_Accumulates(t *testing.T) {
	src := &chunkReader{chunks: []string{
		`{"response":"Hel"}` + "\n" + `{"resp`,
		`onse":"lo, "}` + "\n",
		`{"response":"world"}` + "\n",
	}}

	texts, err := drain(t, NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "Hello, ", "Hello, world"}, texts)
}

func TestReader_SkipsMalformed(t *testing.T) {
	clean := `{"response":"a"}` + "\n" + `{"response":"b"}` + "\n"
	dirty := `{"response":"a"}` + "\n" + `{oops` + "\n\n" + `{"error":"x"}` + "\n" + `{"response":"b"}` + "\n"

	r1 := NewReader(strings.NewReader(clean))
	want, err := drain(t, r1)
	require.NoError(t, err)

	r2 := NewReader(strings.NewReader(dirty))
	got, err := drain(t, r2)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, r1.Text(), r2.Text())
	assert.Equal(t, 3, r2.Skipped())
}

func TestReader_OneByteReads(t *testing.T) {
	body := `{"response":"naïve "}` + "\n" + `{"response":"日本語"}` + "\n"
	r := NewReader(iotest.OneByteReader(strings.NewReader(body)), WithBufferSize(1))

	texts, err := drain(t, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"naïve ", "naïve 日本語"}, texts)
}

func TestReader_TrailingRecordDropped(t *testing.T) {
	r := NewReader(strings.NewReader(`{"response":"A"}` + "\n" + `{"response":"B"}`))

	texts, err := drain(t, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, texts)
	assert.Equal(t, len(`{"response":"B"}`), r.Dropped())
}

func TestReader_SourceError(t *testing.T) {
	boom := errors.New("connection reset")
	src := &chunkReader{
		chunks: []string{`{"response":"part"}` + "\n"},
		err:    boom,
	}
	r := NewReader(src)

	upd, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "part", upd.Text)

	_, err = r.Next()
	assert.ErrorIs(t, err, boom)

	// The error is sticky.
	_, err = r.Next()
	assert.ErrorIs(t, err, boom)
}

func TestReader_EmptyBody(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, err := r.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "", r.Text())
}

func TestReader_DataAndEOFTogether(t *testing.T) {
	r := NewReader(iotest.DataErrReader(strings.NewReader(`{"response":"x"}` + "\n")))
	texts, err := drain(t, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, texts)
}
