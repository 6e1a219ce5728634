package encode

import (
	"time"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
)

// kind selects how a node's value is produced.
type kind int

const (
	kindBytes kind = iota
	kindInteger
	kindBoolean
	kindConstructed
)

// Node is one TLV of a message being encoded. Nodes form a tree mirroring
// the message; constructed nodes own their children.
//
// Constructors return nil for absent optional fields where noted, and
// constructed nodes skip nil children, so optional fields can be written
// inline:
//
//	encode.Sequence(
//	    encode.Integer(id),
//	    encode.Explicit(1, optionalField), // omitted when nil
//	)
type Node struct {
	Tag ber.Tag

	kind     kind
	bytes    []byte
	integer  int64
	boolean  bool
	children []*Node

	// length is the value length recorded by ComputeLength.
	length   int
	computed bool
}

// Integer returns an INTEGER node.
func Integer(v int64) *Node {
	return &Node{Tag: ber.IntegerTag, kind: kindInteger, integer: v}
}

// Enumerated returns an ENUMERATED node.
func Enumerated(v int64) *Node {
	return &Node{Tag: ber.EnumeratedTag, kind: kindInteger, integer: v}
}

// Boolean returns a BOOLEAN node. TRUE is written as 0xFF.
func Boolean(v bool) *Node {
	return &Node{Tag: ber.BooleanTag, kind: kindBoolean, boolean: v}
}

// Null returns a NULL node.
func Null() *Node {
	return &Node{Tag: ber.NullTag}
}

// OctetString returns an OCTET STRING node. The slice is not copied.
func OctetString(v []byte) *Node {
	return &Node{Tag: ber.OctetStringTag, bytes: v}
}

// String returns an OCTET STRING node holding s.
func String(s string) *Node {
	return OctetString([]byte(s))
}

// GeneralString returns a GeneralString node (Kerberos realms and names).
func GeneralString(s string) *Node {
	return &Node{Tag: ber.GeneralStringTag, bytes: []byte(s)}
}

// UTF8String returns a UTF8String node.
func UTF8String(s string) *Node {
	return &Node{Tag: ber.UTF8StringTag, bytes: []byte(s)}
}

// GeneralizedTime returns a GeneralizedTime node in the UTC form without
// fractional seconds.
func GeneralizedTime(t time.Time) *Node {
	return &Node{Tag: ber.GeneralizedTimeTag, bytes: []byte(ber.FormatGeneralizedTime(t))}
}

// Primitive returns a node with the given tag and value bytes. The tag may
// be constructed when the value holds pre-encoded children.
func Primitive(tag ber.Tag, value []byte) *Node {
	return &Node{Tag: tag, bytes: value}
}

// Encoded returns a node for a complete, already encoded TLV. The value is
// written unchanged; the header is rewritten in minimal form.
func Encoded(tlv []byte) (*Node, error) {
	h, n, err := ber.ReadHeader(tlv, 0)
	if err != nil {
		return nil, err
	}
	if h.TotalLen() != len(tlv) {
		return nil, &ber.EncodeError{Kind: ber.KindLengthOverflow, Message: "encoded TLV length does not match its header"}
	}
	return Primitive(h.Tag, tlv[n:]), nil
}

// Sequence returns a SEQUENCE node. Nil children are skipped.
func Sequence(children ...*Node) *Node {
	return Constructed(ber.SequenceTag, children...)
}

// Set returns a SET node. Nil children are skipped; the order is kept.
func Set(children ...*Node) *Node {
	return Constructed(ber.SetTag, children...)
}

// Constructed returns a constructed node with the given tag. The constructed
// bit is forced on. Nil children are skipped.
func Constructed(tag ber.Tag, children ...*Node) *Node {
	tag.Constructed = true
	kept := make([]*Node, 0, len(children))
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &Node{Tag: tag, kind: kindConstructed, children: kept}
}

// Explicit wraps child in an explicit context-specific tag [number]. It
// returns nil when child is nil.
func Explicit(number int, child *Node) *Node {
	if child == nil {
		return nil
	}
	return Constructed(ber.Context(number, true), child)
}

// Implicit returns a copy of n with its tag replaced by the context-specific
// tag [number]; the constructed bit follows n. It returns nil when n is nil.
func Implicit(number int, n *Node) *Node {
	if n == nil {
		return nil
	}
	return Retag(ber.Context(number, n.Tag.Constructed), n)
}

// Retag returns a copy of n with its tag replaced. It returns nil when n is
// nil.
func Retag(tag ber.Tag, n *Node) *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Tag = tag
	c.computed = false
	return &c
}

// Children returns the children of a constructed node.
func (n *Node) Children() []*Node {
	return n.children
}

// Append adds children to a constructed node. Nil children are skipped.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.children = append(n.children, c)
		}
	}
	n.computed = false
	return n
}

// Len returns the value length recorded by the last ComputeLength.
func (n *Node) Len() int {
	return n.length
}
