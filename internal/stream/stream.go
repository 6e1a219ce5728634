// Package stream reads and writes framed messages over byte streams.
//
// Reader feeds whatever bytes a read returns to the decode engine and keeps
// the unconsumed tail between reads, so a message may arrive in any number of
// fragments and several messages may arrive in one read.
package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
	"github.com/KilimcininKorOglu/obacodec/internal/metrics"
)

// DefaultBufferSize is the read chunk used by NewReader.
const DefaultBufferSize = 4096

// Reader decodes consecutive messages of one grammar from an io.Reader.
// A Reader is not safe for concurrent use.
type Reader[T any] struct {
	src     io.Reader
	grammar *grammar.Grammar[T]
	opts    grammar.Options
	chunk   []byte
	buf     []byte
	readErr error
	err     error
}

// NewReader returns a Reader with default options and buffer size.
func NewReader[T any](src io.Reader, g *grammar.Grammar[T]) *Reader[T] {
	return NewReaderSize(src, g, grammar.DefaultOptions(), DefaultBufferSize)
}

// NewReaderSize returns a Reader that decodes with opts and reads size bytes
// at a time.
func NewReaderSize[T any](src io.Reader, g *grammar.Grammar[T], opts grammar.Options, size int) *Reader[T] {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Reader[T]{
		src:     src,
		grammar: g,
		opts:    opts,
		chunk:   make([]byte, size),
	}
}

// Buffered returns the number of bytes read but not yet decoded.
func (r *Reader[T]) Buffered() int {
	return len(r.buf)
}

// Next returns the next complete message. It returns io.EOF when the source
// ends on a message boundary and an UnexpectedEndOfMessage decode error when
// it ends inside a message. Decode and read errors are sticky.
func (r *Reader[T]) Next() (*T, error) {
	if r.err != nil {
		return nil, r.err
	}

	var c *grammar.Container[T]
	fresh := len(r.buf) > 0
	for {
		if fresh {
			out := grammar.DecodeWith(r.opts, r.grammar, r.buf, c)
			switch out.Status {
			case grammar.Complete:
				r.buf = r.buf[out.Consumed:]
				metrics.RecordDecoded(r.grammar.Name())
				return out.Object, nil
			case grammar.NeedMoreData:
				metrics.RecordSuspension(r.grammar.Name())
				c = out.Container
				r.buf = append(r.buf[:0], out.Residual...)
			default:
				return nil, r.fail(out.Err)
			}
		}

		if r.readErr != nil {
			return nil, r.endOfInput(c)
		}

		n, err := r.src.Read(r.chunk)
		if n > 0 {
			metrics.RecordBytesRead(n)
			r.buf = append(r.buf, r.chunk[:n]...)
		}
		fresh = n > 0
		if err != nil {
			r.readErr = err
		}
	}
}

// endOfInput settles a Next call after the source returned an error.
func (r *Reader[T]) endOfInput(c *grammar.Container[T]) error {
	if !errors.Is(r.readErr, io.EOF) {
		r.err = fmt.Errorf("stream: read: %w", r.readErr)
		return r.err
	}
	if c != nil {
		if err := c.EndOfInput(r.buf); err != nil {
			return r.fail(err)
		}
	}
	r.err = io.EOF
	return r.err
}

func (r *Reader[T]) fail(err error) error {
	metrics.RecordFailure(r.grammar.Name(), ber.KindOf(err).String())
	r.err = err
	return err
}

// Writer encodes messages onto an io.Writer.
type Writer struct {
	dst  io.Writer
	name string
	buf  []byte
}

// NewWriter returns a Writer whose messages are counted under name.
func NewWriter(dst io.Writer, name string) *Writer {
	return &Writer{dst: dst, name: name}
}

// Write encodes m and writes it with a single call to the underlying writer.
func (w *Writer) Write(m encode.Marshaler) error {
	n, err := m.MarshalBER()
	if err != nil {
		return err
	}
	w.buf, err = encode.Append(w.buf[:0], n)
	if err != nil {
		return err
	}
	if _, err := w.dst.Write(w.buf); err != nil {
		return fmt.Errorf("stream: write: %w", err)
	}
	metrics.RecordEncoded(w.name)
	return nil
}
