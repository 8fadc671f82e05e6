// Package stream implements DataStream, an ownership-safe handle for a
// bounded-or-unbounded byte stream with optional known length and content
// type (spec.md §3 "DataStream"). A stream is backed by an in-memory buffer
// or a file (both replayable), or by an arbitrary io.Reader/publisher
// (one-shot unless explicitly wrapped as replayable).
package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// opener produces a fresh reader for one logical "play" of the stream.
type opener func(ctx context.Context) (io.ReadCloser, error)

// DataStream is a handle for reading a byte stream once or, if replayable,
// any number of times. The zero value is not usable; construct via one of
// the New* functions.
type DataStream struct {
	contentType string
	length      int64 // -1 means unknown
	replayable  bool
	open        opener

	mu       sync.Mutex
	consumed bool
}

// ContentLength returns the stream's length in bytes, or a negative value
// when unknown.
func (s *DataStream) ContentLength() int64 { return s.length }

// HasKnownLength reports whether ContentLength returns a non-negative value.
// Invariant (spec.md §3): ContentLength() >= 0 implies HasKnownLength() == true,
// enforced here by deriving one from the other rather than storing both
// independently.
func (s *DataStream) HasKnownLength() bool { return s.length >= 0 }

// ContentType returns the stream's declared media type, or "" if none was set.
func (s *DataStream) ContentType() string { return s.contentType }

// Replayable reports whether Open may be called more than once.
func (s *DataStream) Replayable() bool { return s.replayable }

// Open returns a fresh reader for one play of the stream. For a one-shot
// stream, calling Open a second time returns an error; the execution
// pipeline relies on this to decide whether a request body can be resent on
// retry (spec.md §4.1 "The pipeline MUST NOT retry if the request body is
// one-shot and has been consumed").
func (s *DataStream) Open(ctx context.Context) (io.ReadCloser, error) {
	s.mu.Lock()
	if s.consumed && !s.replayable {
		s.mu.Unlock()
		return nil, fmt.Errorf("stream: one-shot data stream already consumed")
	}
	s.consumed = true
	s.mu.Unlock()
	return s.open(ctx)
}

// Subscribe drives the stream through a publisher-style callback, invoking
// onChunk for each read until EOF or an error. It is a convenience built on
// top of Open for callers that prefer a push model (spec.md §3 "a
// publisher-style subscription").
func (s *DataStream) Subscribe(ctx context.Context, onChunk func([]byte) error) error {
	r, err := s.Open(ctx)
	if err != nil {
		return err
	}
	defer r.Close()
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := r.Read(buf)
		if n > 0 {
			if err := onChunk(buf[:n]); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// ReadAll materializes the entire stream into memory. It is a blocking
// helper documented (spec.md §5) as a test/diagnostic convenience, not for
// use on the hot path of production request handling.
func ReadAll(ctx context.Context, s *DataStream) ([]byte, error) {
	r, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// FromBytes builds a replayable, in-memory data stream.
func FromBytes(b []byte, contentType string) *DataStream {
	buf := append([]byte(nil), b...)
	return &DataStream{
		contentType: contentType,
		length:      int64(len(buf)),
		replayable:  true,
		open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(buf)), nil
		},
	}
}

// FromFile builds a replayable data stream backed by the file at path. The
// content length is the file's current size at construction time.
func FromFile(path, contentType string) (*DataStream, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stream: stat %s: %w", path, err)
	}
	return &DataStream{
		contentType: contentType,
		length:      info.Size(),
		replayable:  true,
		open: func(context.Context) (io.ReadCloser, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("stream: open %s: %w", path, err)
			}
			return f, nil
		},
	}, nil
}

// FromReader builds a one-shot data stream backed by an arbitrary
// io.ReadCloser (for example, an HTTP response body or a pipe). length is
// the known byte count, or a negative value when unknown. r is returned
// as-is from the single Open call; callers must not read from r themselves.
func FromReader(r io.ReadCloser, contentType string, length int64) *DataStream {
	if length < 0 {
		length = -1
	}
	var once sync.Once
	return &DataStream{
		contentType: contentType,
		length:      length,
		replayable:  false,
		open: func(context.Context) (io.ReadCloser, error) {
			var got io.ReadCloser
			once.Do(func() { got = r })
			if got == nil {
				return nil, fmt.Errorf("stream: one-shot reader already opened")
			}
			return got, nil
		},
	}
}

// FromPublisher builds a data stream from an arbitrary opener function, as
// if backed by an upstream publisher (spec.md §3: "an upstream publisher
// (one-shot unless tagged replayable)"). The stream is one-shot by default;
// wrap it with AsReplayable when the publisher genuinely supports being
// opened more than once.
func FromPublisher(open func(ctx context.Context) (io.ReadCloser, error), contentType string, length int64) *DataStream {
	if length < 0 {
		length = -1
	}
	return &DataStream{contentType: contentType, length: length, replayable: false, open: open}
}

// AsReplayable wraps s, tagging it as replayable even though it was built
// from a one-shot source. Callers are responsible for ensuring the
// underlying opener can in fact be invoked more than once (for example, an
// upstream publisher explicitly documented as replayable per spec.md §3).
func AsReplayable(s *DataStream) *DataStream {
	return &DataStream{
		contentType: s.contentType,
		length:      s.length,
		replayable:  true,
		open:        s.open,
	}
}

// Empty returns a zero-length, replayable data stream with no content type.
func Empty() *DataStream {
	return FromBytes(nil, "")
}
