package grammar

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
)

// Grammar definition errors.
var (
	// ErrDuplicateTransition is returned when two rules share a state and tag.
	ErrDuplicateTransition = errors.New("grammar: duplicate transition")
	// ErrNoEndState is returned when a grammar declares no end state.
	ErrNoEndState = errors.New("grammar: no end state")
)

// State identifies a grammar state. States are local to a grammar; the zero
// value is conventionally the start state.
type State int

// Value is what a grammar action receives for one TLV.
type Value struct {
	Header ber.Header
	// Offset is the position of the TLV's first byte within the message.
	Offset int
	// Bytes is the value content of a primitive or atomic TLV, the complete
	// encoding (header included) for an embedded TLV, and nil for a
	// constructed TLV whose children are decoded by the grammar itself.
	//
	// Bytes aliases the caller's input buffer and is only valid for the
	// duration of the action. Use ber.ParseOctetString to keep a copy.
	Bytes []byte
}

// Action mutates the target object on a transition.
type Action[T any] func(target *T, v Value) error

// mode selects how the engine treats the TLV matched by a rule.
type mode int

const (
	// modeDefault passes primitive values to the action and descends into
	// constructed values.
	modeDefault mode = iota
	// modeAtomic waits for the whole TLV and passes its content, constructed
	// or not, to the action.
	modeAtomic
	// modeEmbedded decodes the whole TLV with another grammar.
	modeEmbedded
)

// embedFunc runs a nested decode for an embedded rule.
type embedFunc[T any] func(target *T, v Value, opts Options, depth int) error

// Rule is one transition of a grammar: in state From, a TLV tagged Tag runs
// Action and moves the grammar to state To.
type Rule[T any] struct {
	From   State
	Tag    ber.Tag
	To     State
	Action Action[T]

	mode    mode
	embed   embedFunc[T]
	recurse func(target, child *T) error
	closing []State
	closes  map[State]bool
	after   *State
}

// ClosingIn restricts where the constructed value matched by r may end: its
// last content byte must leave the grammar in one of states. A value that
// ends anywhere else fails with UnexpectedEndOfMessage, so a SEQUENCE missing
// its trailing components is not completed by the TLVs that follow it.
// Without ClosingIn the value may end in any state.
func (r Rule[T]) ClosingIn(states ...State) Rule[T] {
	r.closing = append([]State(nil), states...)
	return r
}

// AfterClosing moves the grammar to state s once the constructed value
// matched by r ends. It separates the states inside the value from those
// after it, so a field of the enclosing type cannot appear inside the value.
func (r Rule[T]) AfterClosing(s State) Rule[T] {
	r.after = &s
	return r
}

// On returns a rule for a primitive field, or for a constructed field whose
// children are matched by further rules of the same grammar. The action may
// be nil.
func On[T any](from State, tag ber.Tag, to State, action Action[T]) Rule[T] {
	return Rule[T]{From: from, Tag: tag, To: to, Action: action}
}

// Atomic returns a rule that hands the complete content of the TLV to the
// action without descending into it. It is used for values that are carried
// opaquely, like the protocol operation of an LDAP message.
func Atomic[T any](from State, tag ber.Tag, to State, action Action[T]) Rule[T] {
	return Rule[T]{From: from, Tag: tag, To: to, Action: action, mode: modeAtomic}
}

// Embed returns a rule that decodes the TLV as a complete message of the
// grammar sub and passes the result to assign. The nested decode consumes
// exactly the TLV; errors inside it are reported with offsets relative to the
// outer message.
func Embed[T, S any](from State, tag ber.Tag, to State, sub *Grammar[S], assign func(target *T, v *S) error) Rule[T] {
	return Rule[T]{
		From: from,
		Tag:  tag,
		To:   to,
		mode: modeEmbedded,
		embed: func(target *T, v Value, opts Options, depth int) error {
			obj, err := decodeEmbedded(sub, v, opts, depth)
			if err != nil {
				return err
			}
			return assign(target, obj)
		},
	}
}

// Recurse returns a rule that decodes the TLV as a complete message of the
// grammar the rule belongs to. It expresses recursive types such as LDAP
// filters. Each level of recursion counts against Options.MaxDepth.
func Recurse[T any](from State, tag ber.Tag, to State, assign func(target, child *T) error) Rule[T] {
	return Rule[T]{From: from, Tag: tag, To: to, mode: modeEmbedded, recurse: assign}
}

type transitionKey struct {
	state State
	tag   ber.Tag
}

// Grammar is an immutable transition table for one message type. A Grammar
// is built once with Define and shared by any number of concurrent decode
// sessions.
type Grammar[T any] struct {
	name     string
	start    State
	ends     map[State]bool
	rules    map[transitionKey]Rule[T]
	expected map[State][]ber.Tag
}

// Define builds a grammar named name for target type T. Decoding starts in
// state start; the message may end in any of the ends states.
func Define[T any](name string, start State, ends []State, rules ...Rule[T]) (*Grammar[T], error) {
	if len(ends) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEndState, name)
	}

	g := &Grammar[T]{
		name:     name,
		start:    start,
		ends:     make(map[State]bool, len(ends)),
		rules:    make(map[transitionKey]Rule[T], len(rules)),
		expected: make(map[State][]ber.Tag),
	}
	for _, s := range ends {
		g.ends[s] = true
	}

	for _, r := range rules {
		key := transitionKey{state: r.From, tag: r.Tag}
		if _, ok := g.rules[key]; ok {
			return nil, fmt.Errorf("%w: %s: state %d tag %s", ErrDuplicateTransition, name, r.From, r.Tag)
		}
		if r.recurse != nil {
			r.embed = recursiveEmbed(g, r.recurse)
		}
		if r.mode == modeEmbedded && r.embed == nil {
			return nil, fmt.Errorf("grammar: %s: embedded rule without grammar", name)
		}
		if len(r.closing) > 0 || r.after != nil {
			if r.mode != modeDefault || !r.Tag.Constructed {
				return nil, fmt.Errorf("grammar: %s: state %d tag %s: closing states on a value the grammar does not descend into", name, r.From, r.Tag)
			}
		}
		if len(r.closing) > 0 {
			r.closes = make(map[State]bool, len(r.closing))
			for _, st := range r.closing {
				r.closes[st] = true
			}
		}
		g.rules[key] = r
		g.expected[r.From] = append(g.expected[r.From], r.Tag)
	}

	for _, tags := range g.expected {
		sort.Slice(tags, func(i, j int) bool {
			a, b := tags[i], tags[j]
			if a.Class != b.Class {
				return a.Class < b.Class
			}
			if a.Number != b.Number {
				return a.Number < b.Number
			}
			return !a.Constructed && b.Constructed
		})
	}

	return g, nil
}

func recursiveEmbed[T any](g *Grammar[T], assign func(target, child *T) error) embedFunc[T] {
	return func(target *T, v Value, opts Options, depth int) error {
		child, err := decodeEmbedded(g, v, opts, depth)
		if err != nil {
			return err
		}
		return assign(target, child)
	}
}

// MustDefine is like Define but panics on an invalid grammar. It is meant for
// package-level grammar variables.
func MustDefine[T any](name string, start State, ends []State, rules ...Rule[T]) *Grammar[T] {
	g, err := Define(name, start, ends, rules...)
	if err != nil {
		panic(err)
	}
	return g
}

// Name returns the grammar's name.
func (g *Grammar[T]) Name() string { return g.name }

// Start returns the start state.
func (g *Grammar[T]) Start() State { return g.start }

// IsEnd reports whether s is an end state.
func (g *Grammar[T]) IsEnd(s State) bool { return g.ends[s] }

// Expected returns the tags accepted in state s, sorted.
func (g *Grammar[T]) Expected(s State) []ber.Tag {
	tags := g.expected[s]
	out := make([]ber.Tag, len(tags))
	copy(out, tags)
	return out
}

// lookup returns the rule for tag in state s.
func (g *Grammar[T]) lookup(s State, tag ber.Tag) (Rule[T], bool) {
	r, ok := g.rules[transitionKey{state: s, tag: tag}]
	return r, ok
}
