// Package grammar implements the resumable decode engine for BER messages.
//
// A message type is described by a Grammar: a static table of rules keyed by
// (state, tag). Each rule names the state to move to and an optional action
// that stores the TLV's value in the target object. Grammars are built once,
// usually as package-level variables, and shared by all decode sessions:
//
//	var pairGrammar = grammar.MustDefine("Pair", stStart, []grammar.State{stB},
//	    grammar.On[Pair](stStart, ber.SequenceTag, stSeq, nil),
//	    grammar.On(stSeq, ber.IntegerTag, stA, setA),
//	    grammar.On(stA, ber.IntegerTag, stB, setB),
//	)
//
// # Decoding
//
// Decode consumes as many complete TLVs as the input holds. A constructed
// TLV matched by an On rule is entered: its children are matched against the
// grammar in turn. Atomic rules hand over the whole content of a TLV, and
// Embed rules decode it with another grammar.
//
// When the input ends before the message does, Decode returns NeedMoreData
// with a Container and the unconsumed tail. The caller appends new bytes to
// the tail and calls Decode again with the container:
//
//	out := grammar.Decode(g, buf, nil)
//	for out.Status == grammar.NeedMoreData {
//	    buf = append(out.Residual, readMore()...)
//	    out = grammar.Decode(g, buf, out.Container)
//	}
//
// Resumption happens at TLV boundaries only; a header or primitive value
// split across reads is decoded again from its first byte. The result does
// not depend on how the input was split.
//
// # Errors
//
// Failures are *ber.DecodeError values with offsets relative to the start of
// the message. Errors returned by actions are reported as
// ber.KindInvalidValue and wrap the action's error. A failed container stays
// failed.
//
// # Thread Safety
//
// Grammars are immutable and safe for concurrent use. A Container belongs to
// one decode session and must not be shared.
package grammar
