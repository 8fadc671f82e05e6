package stream_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/schemarpc/stream"
)

func TestFromBytesReplayable(t *testing.T) {
	s := stream.FromBytes([]byte("hello"), "text/plain")
	assert.True(t, s.Replayable())
	assert.True(t, s.HasKnownLength())
	assert.Equal(t, int64(5), s.ContentLength())

	for i := 0; i < 2; i++ {
		b, err := stream.ReadAll(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(b))
	}
}

func TestFromFileReplayable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "body.bin")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o600))

	s, err := stream.FromFile(path, "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.ContentLength())

	b1, err := stream.ReadAll(context.Background(), s)
	require.NoError(t, err)
	b2, err := stream.ReadAll(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestFromReaderIsOneShot(t *testing.T) {
	s := stream.FromReader(io.NopCloser(nopReader{}), "application/json", -1)
	assert.False(t, s.Replayable())
	assert.False(t, s.HasKnownLength())

	_, err := s.Open(context.Background())
	require.NoError(t, err)

	_, err = s.Open(context.Background())
	assert.Error(t, err)
}

func TestAsReplayableAllowsMultipleOpens(t *testing.T) {
	calls := 0
	base := stream.FromPublisher(func(context.Context) (io.ReadCloser, error) {
		calls++
		return io.NopCloser(nopReader{}), nil
	}, "text/plain", -1)
	assert.False(t, base.Replayable())
	wrapped := stream.AsReplayable(base)

	_, err := wrapped.Open(context.Background())
	require.NoError(t, err)
	_, err = wrapped.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSubscribeDeliversChunks(t *testing.T) {
	s := stream.FromBytes([]byte("abcdef"), "text/plain")
	var got []byte
	err := s.Subscribe(context.Background(), func(chunk []byte) error {
		got = append(got, chunk...)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(got))
}

type nopReader struct{}

func (nopReader) Read([]byte) (int, error) { return 0, io.EOF }
