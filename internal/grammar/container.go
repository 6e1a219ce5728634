package grammar

import (
	"fmt"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
)

// Default decode limits.
const (
	// DefaultMaxMessageSize matches the LDAP server's message limit (16MB).
	DefaultMaxMessageSize = 16 * 1024 * 1024
	// DefaultMaxDepth bounds nested constructed TLVs.
	DefaultMaxDepth = 64
)

// Options configures a decode session. Zero fields take their defaults.
type Options struct {
	// MaxMessageSize is the largest value length accepted for the top-level
	// TLV of a message.
	MaxMessageSize int
	// MaxDepth is the largest number of constructed TLVs open at once,
	// embedded grammars included.
	MaxDepth int
	// Strict rejects non-minimal tag and length encodings.
	Strict bool
}

// DefaultOptions returns the default decode options.
func DefaultOptions() Options {
	return Options{
		MaxMessageSize: DefaultMaxMessageSize,
		MaxDepth:       DefaultMaxDepth,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = DefaultMaxMessageSize
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

// frame is an open constructed TLV.
type frame struct {
	tag       ber.Tag
	offset    int // position of the TLV's first byte
	remaining int // value bytes not yet consumed
	// closes holds the states the value may end in; nil allows any.
	closes map[State]bool
	// after is the state the grammar moves to when the value ends.
	after *State
}

// Container is the state of one in-progress decode. It holds the grammar
// state, the stack of open constructed TLVs and the partially built target.
// It never retains input bytes: callers keep the unconsumed tail and present
// it again, extended, on the next Decode call.
//
// A Container is used by one goroutine at a time and for one message.
type Container[T any] struct {
	grammar    *Grammar[T]
	state      State
	endAllowed bool
	frames     []frame
	target     *T

	// offset is the position of the next uncommitted byte, relative to the
	// start of the message (or of the outer message for embedded decodes).
	offset int
	// depth is the number of frames open in enclosing decodes.
	depth int

	started bool
	done    bool
	err     *ber.DecodeError
}

// NewContainer returns a container positioned at the start of a message of
// grammar g.
func NewContainer[T any](g *Grammar[T]) *Container[T] {
	return &Container[T]{
		grammar:    g,
		state:      g.start,
		endAllowed: g.ends[g.start],
		target:     new(T),
	}
}

// Grammar returns the grammar the container decodes.
func (c *Container[T]) Grammar() *Grammar[T] { return c.grammar }

// State returns the current grammar state.
func (c *Container[T]) State() State { return c.state }

// EndAllowed reports whether the current state is an end state.
func (c *Container[T]) EndAllowed() bool { return c.endAllowed }

// Offset returns the number of message bytes committed so far.
func (c *Container[T]) Offset() int { return c.offset }

// Depth returns the number of open constructed TLVs.
func (c *Container[T]) Depth() int { return len(c.frames) }

// Err returns the error the container failed with, if any.
func (c *Container[T]) Err() error {
	if c.err == nil {
		return nil
	}
	return c.err
}

// EndOfInput tells the container that no more input will arrive. residual is
// the unconsumed tail returned by the last Decode call. It returns nil when
// the container has not seen any byte of a message, and an
// UnexpectedEndOfMessage error otherwise. The container is failed afterwards.
func (c *Container[T]) EndOfInput(residual []byte) error {
	if c.err != nil {
		return c.err
	}
	if c.done {
		return nil
	}
	if !c.started && len(residual) == 0 {
		return nil
	}
	msg := fmt.Sprintf("%s: input ended", c.grammar.name)
	if len(c.frames) > 0 {
		top := c.frames[len(c.frames)-1]
		msg = fmt.Sprintf("%s: input ended with %d bytes of %s outstanding", c.grammar.name, top.remaining, top.tag)
	}
	return c.fail(ber.NewDecodeError(ber.KindUnexpectedEndOfMessage, c.offset+len(residual), msg, nil))
}

// fail makes err sticky and releases the partial target.
func (c *Container[T]) fail(err *ber.DecodeError) *ber.DecodeError {
	c.err = err
	c.target = nil
	c.frames = nil
	return err
}

// commit advances the cursor by n bytes and charges them to every open frame.
func (c *Container[T]) commit(n int) *ber.DecodeError {
	for i := range c.frames {
		c.frames[i].remaining -= n
		if c.frames[i].remaining < 0 {
			return ber.NewDecodeError(ber.KindLengthOverflow, c.offset,
				fmt.Sprintf("%s overrun by %d bytes", c.frames[i].tag, -c.frames[i].remaining), nil)
		}
	}
	c.offset += n
	return nil
}

// popFinished closes the frames whose value has been fully consumed. It
// fails when a frame ends in a state its rule does not allow.
func (c *Container[T]) popFinished() *ber.DecodeError {
	for len(c.frames) > 0 && c.frames[len(c.frames)-1].remaining == 0 {
		top := c.frames[len(c.frames)-1]
		if top.closes != nil && !top.closes[c.state] {
			de := ber.NewDecodeError(ber.KindUnexpectedEndOfMessage, c.offset,
				fmt.Sprintf("%s: %s at offset %d ended in state %d", c.grammar.name, top.tag, top.offset, c.state), nil).WithTag(top.tag)
			de.Expected = c.grammar.Expected(c.state)
			return de
		}
		if top.after != nil {
			c.state = *top.after
			c.endAllowed = c.grammar.ends[c.state]
		}
		c.frames = c.frames[:len(c.frames)-1]
	}
	return nil
}
