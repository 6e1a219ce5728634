package grammar

import (
	"errors"
	"fmt"
	"math"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
)

// ErrTrailingData is returned by Unmarshal when bytes follow the message.
var ErrTrailingData = errors.New("grammar: trailing data after message")

// Status is the result class of a Decode call.
type Status int

const (
	// Complete means a whole message was decoded.
	Complete Status = iota + 1
	// NeedMoreData means the input ended at a TLV boundary or inside a
	// header or primitive value. The container can be resumed.
	NeedMoreData
	// Failed means the input is invalid. The container is unusable.
	Failed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Complete:
		return "Complete"
	case NeedMoreData:
		return "NeedMoreData"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome is the result of a Decode call.
type Outcome[T any] struct {
	Status Status

	// Object is the decoded message (Complete).
	Object *T
	// Consumed is the number of bytes of the input consumed by this call.
	Consumed int
	// Residual is the unconsumed tail of the input (NeedMoreData). It must be
	// presented again, followed by new bytes, on the next call.
	Residual []byte
	// Container resumes the decode (NeedMoreData).
	Container *Container[T]
	// Err describes the failure (Failed).
	Err *ber.DecodeError
}

// Error returns Err as an error value, or nil.
func (o Outcome[T]) Error() error {
	if o.Err == nil {
		return nil
	}
	return o.Err
}

// Decode runs grammar g over data with the default options. Pass a nil
// container to start a new message, or the container of a previous
// NeedMoreData outcome to resume it.
func Decode[T any](g *Grammar[T], data []byte, c *Container[T]) Outcome[T] {
	return DecodeWith(DefaultOptions(), g, data, c)
}

// DecodeWith is like Decode with explicit options.
func DecodeWith[T any](opts Options, g *Grammar[T], data []byte, c *Container[T]) Outcome[T] {
	opts = opts.withDefaults()
	if c == nil {
		c = NewContainer(g)
	} else if c.grammar != g {
		panic(fmt.Sprintf("grammar: container of %s used with %s", c.grammar.name, g.name))
	}
	return c.run(opts, data)
}

// Unmarshal decodes data as exactly one message of grammar g.
func Unmarshal[T any](g *Grammar[T], data []byte) (*T, error) {
	return UnmarshalWith(DefaultOptions(), g, data)
}

// UnmarshalWith is like Unmarshal with explicit options.
func UnmarshalWith[T any](opts Options, g *Grammar[T], data []byte) (*T, error) {
	out := DecodeWith(opts, g, data, nil)
	switch out.Status {
	case Complete:
		if out.Consumed != len(data) {
			return nil, fmt.Errorf("%w: %d bytes after %s", ErrTrailingData, len(data)-out.Consumed, g.name)
		}
		return out.Object, nil
	case NeedMoreData:
		if err := out.Container.EndOfInput(out.Residual); err != nil {
			return nil, err
		}
		return nil, ber.NewDecodeError(ber.KindUnexpectedEndOfMessage, 0, g.name+": empty input", nil)
	default:
		return nil, out.Err
	}
}

// DecodeAll decodes consecutive messages of grammar g from data. It returns
// the complete messages and the unconsumed tail, which holds the beginning
// of an incomplete message, if any.
func DecodeAll[T any](opts Options, g *Grammar[T], data []byte) ([]*T, []byte, error) {
	var msgs []*T
	for len(data) > 0 {
		out := DecodeWith(opts, g, data, nil)
		switch out.Status {
		case Complete:
			msgs = append(msgs, out.Object)
			data = data[out.Consumed:]
		case NeedMoreData:
			return msgs, data, nil
		default:
			return msgs, data, out.Err
		}
	}
	return msgs, nil, nil
}

// run advances the container over data.
func (c *Container[T]) run(opts Options, data []byte) Outcome[T] {
	if c.err != nil {
		return Outcome[T]{Status: Failed, Err: c.err}
	}
	if c.done {
		panic("grammar: container reused after a complete message")
	}

	g := c.grammar
	pos := 0
	failed := func(err *ber.DecodeError) Outcome[T] {
		return Outcome[T]{Status: Failed, Consumed: pos, Err: c.fail(err)}
	}

	for {
		if de := c.popFinished(); de != nil {
			return failed(de)
		}
		if c.started && len(c.frames) == 0 {
			if !c.endAllowed {
				return failed(ber.NewDecodeError(ber.KindUnexpectedEndOfMessage, c.offset,
					fmt.Sprintf("%s: message ended in state %d", g.name, c.state), nil))
			}
			obj := c.target
			c.target = nil
			c.done = true
			return Outcome[T]{Status: Complete, Object: obj, Consumed: pos}
		}

		// Headers are read from the part of the input that belongs to the
		// innermost open TLV.
		limit := len(data)
		bounded := false
		if n := len(c.frames); n > 0 {
			if end := pos + c.frames[n-1].remaining; end <= limit {
				limit = end
				bounded = true
			}
		}

		h, hlen, err := readHeader(data[:limit], pos, opts.Strict)
		if err != nil {
			var de *ber.DecodeError
			if !errors.As(err, &de) {
				de = ber.NewDecodeError(ber.KindMalformedLength, c.offset, "", err)
			}
			if de.Kind == ber.KindTruncatedHeader {
				if bounded {
					top := c.frames[len(c.frames)-1]
					return failed(ber.NewDecodeError(ber.KindLengthOverflow, c.offset,
						fmt.Sprintf("header crosses the end of %s", top.tag), nil))
				}
				return c.needMore(data, pos)
			}
			de.Offset = c.offset
			return failed(de)
		}

		rule, ok := g.lookup(c.state, h.Tag)
		if !ok {
			de := ber.NewDecodeError(ber.KindUnexpectedTag, c.offset,
				fmt.Sprintf("%s: no transition in state %d", g.name, c.state), nil).WithTag(h.Tag)
			de.Expected = g.Expected(c.state)
			return failed(de)
		}

		if h.Length > math.MaxInt-hlen {
			return failed(ber.NewDecodeError(ber.KindLengthOverflow, c.offset, "length overflows", nil).WithTag(h.Tag))
		}
		total := hlen + h.Length
		if n := len(c.frames); n > 0 {
			if top := c.frames[n-1]; total > top.remaining {
				return failed(ber.NewDecodeError(ber.KindLengthOverflow, c.offset,
					fmt.Sprintf("%d bytes exceed the %d left in %s", total, top.remaining, top.tag), nil).WithTag(h.Tag))
			}
		} else if h.Length > opts.MaxMessageSize {
			return failed(ber.NewDecodeError(ber.KindLengthOverflow, c.offset,
				fmt.Sprintf("message of %d bytes exceeds limit of %d", h.Length, opts.MaxMessageSize), nil).WithTag(h.Tag))
		}

		v := Value{Header: h, Offset: c.offset}

		if h.Tag.Constructed && rule.mode == modeDefault {
			if c.depth+len(c.frames) >= opts.MaxDepth {
				return failed(ber.NewDecodeError(ber.KindNestingTooDeep, c.offset,
					fmt.Sprintf("more than %d nested constructed values", opts.MaxDepth), nil).WithTag(h.Tag))
			}
			if rule.Action != nil {
				if err := rule.Action(c.target, v); err != nil {
					return failed(c.actionError(v, err))
				}
			}
			if de := c.commit(hlen); de != nil {
				return failed(de)
			}
			pos += hlen
			c.frames = append(c.frames, frame{tag: h.Tag, offset: v.Offset, remaining: h.Length, closes: rule.closes, after: rule.after})
		} else {
			if total > len(data)-pos {
				return c.needMore(data, pos)
			}
			if rule.mode == modeEmbedded {
				v.Bytes = data[pos : pos+total]
				if err := rule.embed(c.target, v, opts, c.depth+len(c.frames)); err != nil {
					return failed(c.actionError(v, err))
				}
			} else {
				v.Bytes = data[pos+hlen : pos+total]
				if rule.Action != nil {
					if err := rule.Action(c.target, v); err != nil {
						return failed(c.actionError(v, err))
					}
				}
			}
			if de := c.commit(total); de != nil {
				return failed(de)
			}
			pos += total
		}

		c.started = true
		c.state = rule.To
		c.endAllowed = g.ends[rule.To]
	}
}

func (c *Container[T]) needMore(data []byte, pos int) Outcome[T] {
	return Outcome[T]{Status: NeedMoreData, Consumed: pos, Residual: data[pos:], Container: c}
}

// actionError converts an action failure into a decode error. Decode errors
// from embedded grammars are kept as they are.
func (c *Container[T]) actionError(v Value, err error) *ber.DecodeError {
	var de *ber.DecodeError
	if errors.As(err, &de) {
		return de
	}
	return ber.NewDecodeError(ber.KindInvalidValue, v.Offset, c.grammar.name, err).WithTag(v.Header.Tag)
}

func readHeader(buf []byte, offset int, strict bool) (ber.Header, int, error) {
	if strict {
		return ber.ReadHeaderStrict(buf, offset)
	}
	return ber.ReadHeader(buf, offset)
}

// decodeEmbedded decodes v, a complete TLV, with grammar g. Offsets in
// errors stay relative to the outer message.
func decodeEmbedded[S any](g *Grammar[S], v Value, opts Options, depth int) (*S, error) {
	c := NewContainer(g)
	c.offset = v.Offset
	c.depth = depth

	out := c.run(opts, v.Bytes)
	switch out.Status {
	case Complete:
		return out.Object, nil
	case Failed:
		return nil, out.Err
	default:
		return nil, ber.NewDecodeError(ber.KindUnexpectedEndOfMessage, v.Offset+len(v.Bytes),
			g.name+": embedded message incomplete", nil)
	}
}
