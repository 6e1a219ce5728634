package encode

import (
	"fmt"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
)

// Marshaler is implemented by message types that can describe themselves as
// a tree of nodes.
type Marshaler interface {
	MarshalBER() (*Node, error)
}

// ComputeLength records the value length of n and of every node below it,
// children first, and returns the total encoded size of n (header included).
func ComputeLength(n *Node) (int, error) {
	if err := validateTag(n.Tag); err != nil {
		return 0, err
	}

	switch n.kind {
	case kindInteger:
		n.length = ber.IntegerLen(n.integer)
	case kindBoolean:
		n.length = 1
	case kindConstructed:
		total := 0
		for _, c := range n.children {
			size, err := ComputeLength(c)
			if err != nil {
				return 0, err
			}
			total += size
		}
		n.length = total
	default:
		n.length = len(n.bytes)
	}
	n.computed = true

	return ber.HeaderByteCount(n.Tag, n.length) + n.length, nil
}

// EncodeTo writes n into buf, starting at buf[0], using the lengths recorded
// by ComputeLength. Lengths are recomputed first when any node of the tree
// changed since the last ComputeLength. It returns the number of bytes
// written. A buffer shorter than the encoding yields a KindBufferTooSmall
// error.
func EncodeTo(n *Node, buf []byte) (int, error) {
	if !lengthsCurrent(n) {
		if _, err := ComputeLength(n); err != nil {
			return 0, err
		}
	}
	return encodeAt(n, buf, 0)
}

// lengthsCurrent reports whether every node below n still holds the length
// recorded by ComputeLength.
func lengthsCurrent(n *Node) bool {
	if !n.computed {
		return false
	}
	for _, c := range n.children {
		if !lengthsCurrent(c) {
			return false
		}
	}
	return true
}

func encodeAt(n *Node, buf []byte, pos int) (int, error) {
	start := pos

	hdr := ber.HeaderByteCount(n.Tag, n.length)
	if err := room(buf, pos, hdr, n.Tag); err != nil {
		return 0, err
	}
	pos += ber.PutTag(buf[pos:], n.Tag)
	pos += ber.PutLength(buf[pos:], n.length)

	switch n.kind {
	case kindConstructed:
		for _, c := range n.children {
			w, err := encodeAt(c, buf, pos)
			if err != nil {
				return 0, err
			}
			pos += w
		}
		if pos-start-hdr != n.length {
			return 0, &ber.EncodeError{
				Kind:    ber.KindBufferTooSmall,
				Offset:  start,
				Message: fmt.Sprintf("%s wrote %d value bytes, recorded %d", n.Tag, pos-start-hdr, n.length),
			}
		}
	case kindInteger:
		if err := room(buf, pos, n.length, n.Tag); err != nil {
			return 0, err
		}
		pos += ber.PutInteger(buf[pos:], n.integer)
	case kindBoolean:
		if err := room(buf, pos, 1, n.Tag); err != nil {
			return 0, err
		}
		pos += ber.PutBoolean(buf[pos:], n.boolean)
	default:
		if err := room(buf, pos, len(n.bytes), n.Tag); err != nil {
			return 0, err
		}
		pos += copy(buf[pos:], n.bytes)
	}

	return pos - start, nil
}

// room checks that buf has need bytes available at pos.
func room(buf []byte, pos, need int, tag ber.Tag) error {
	if pos+need > len(buf) {
		return &ber.EncodeError{
			Kind:    ber.KindBufferTooSmall,
			Offset:  pos,
			Message: fmt.Sprintf("%s needs %d bytes, %d left", tag, need, len(buf)-pos),
		}
	}
	return nil
}

func validateTag(t ber.Tag) error {
	switch t.Class {
	case ber.ClassUniversal, ber.ClassApplication, ber.ClassContextSpecific, ber.ClassPrivate:
	default:
		return &ber.EncodeError{Kind: ber.KindInvalidValue, Message: fmt.Sprintf("invalid tag class %#x", t.Class)}
	}
	if t.Number < 0 || t.Number > ber.MaxTagNumber {
		return &ber.EncodeError{Kind: ber.KindInvalidValue, Message: fmt.Sprintf("tag number %d out of range", t.Number)}
	}
	return nil
}

// EncodeNode encodes n into a buffer of exactly its encoded size.
func EncodeNode(n *Node) ([]byte, error) {
	size, err := ComputeLength(n)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	written, err := encodeAt(n, buf, 0)
	if err != nil {
		return nil, err
	}
	if written != size {
		return nil, &ber.EncodeError{
			Kind:    ber.KindBufferTooSmall,
			Offset:  written,
			Message: fmt.Sprintf("wrote %d bytes, computed %d", written, size),
		}
	}
	return buf, nil
}

// Encode encodes the message m.
func Encode(m Marshaler) ([]byte, error) {
	n, err := m.MarshalBER()
	if err != nil {
		return nil, err
	}
	return EncodeNode(n)
}

// Append encodes n and appends it to dst.
func Append(dst []byte, n *Node) ([]byte, error) {
	size, err := ComputeLength(n)
	if err != nil {
		return dst, err
	}
	start := len(dst)
	if cap(dst)-start < size {
		grown := make([]byte, start, start+size)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:start+size]
	if _, err := encodeAt(n, dst[start:], 0); err != nil {
		return dst[:start], err
	}
	return dst, nil
}
