// Package ber implements ASN.1 BER (Basic Encoding Rules) encoding
// as specified in ITU-T X.690.
package ber

import "fmt"

// Tag class constants (bits 7-8 of the tag byte)
const (
	ClassUniversal       = 0x00 // 00xxxxxx
	ClassApplication     = 0x40 // 01xxxxxx
	ClassContextSpecific = 0x80 // 10xxxxxx
	ClassPrivate         = 0xC0 // 11xxxxxx
)

// Constructed flag (bit 6 of the tag byte)
const (
	TypePrimitive   = 0x00 // xx0xxxxx
	TypeConstructed = 0x20 // xx1xxxxx
)

// Universal tag numbers
const (
	TagBoolean         = 0x01
	TagInteger         = 0x02
	TagBitString       = 0x03
	TagOctetString     = 0x04
	TagNull            = 0x05
	TagOID             = 0x06
	TagEnumerated      = 0x0A
	TagUTF8String      = 0x0C
	TagSequence        = 0x10
	TagSet             = 0x11
	TagGeneralizedTime = 0x18
	TagGeneralString   = 0x1B
)

// Length encoding constants
const (
	// LengthLongFormBit indicates long form length encoding (bit 8 set)
	LengthLongFormBit = 0x80
	// MaxShortFormLength is the maximum length encodable in short form (0-127)
	MaxShortFormLength = 127
	// MaxLowTagNumber is the largest tag number that fits in the identifier byte.
	MaxLowTagNumber = 30
	// MaxTagNumber is the largest tag number accepted (four base-128 bytes).
	MaxTagNumber = 1<<28 - 1
	// highTagNumberForm marks a tag number encoded in subsequent bytes.
	highTagNumberForm = 0x1F
)

// Tag identifies the type of a TLV: its class, its constructed flag, and its
// number. Tag is comparable and is used as a key in grammar transition tables.
type Tag struct {
	Class       int // one of the Class* constants
	Constructed bool
	Number      int
}

// NewTag returns a tag with the given class, constructed flag and number.
func NewTag(class int, constructed bool, number int) Tag {
	return Tag{Class: class, Constructed: constructed, Number: number}
}

// Universal returns a UNIVERSAL class tag.
func Universal(number int, constructed bool) Tag {
	return Tag{Class: ClassUniversal, Constructed: constructed, Number: number}
}

// Application returns an APPLICATION class tag.
func Application(number int, constructed bool) Tag {
	return Tag{Class: ClassApplication, Constructed: constructed, Number: number}
}

// Context returns a context-specific tag.
func Context(number int, constructed bool) Tag {
	return Tag{Class: ClassContextSpecific, Constructed: constructed, Number: number}
}

// Frequently used universal tags.
var (
	BooleanTag         = Universal(TagBoolean, false)
	IntegerTag         = Universal(TagInteger, false)
	OctetStringTag     = Universal(TagOctetString, false)
	NullTag            = Universal(TagNull, false)
	EnumeratedTag      = Universal(TagEnumerated, false)
	UTF8StringTag      = Universal(TagUTF8String, false)
	SequenceTag        = Universal(TagSequence, true)
	SetTag             = Universal(TagSet, true)
	GeneralizedTimeTag = Universal(TagGeneralizedTime, false)
	GeneralStringTag   = Universal(TagGeneralString, false)
)

// identifier returns the first identifier octet of t, without the
// high-tag-number marker.
func (t Tag) identifier() byte {
	b := byte(t.Class & 0xC0)
	if t.Constructed {
		b |= TypeConstructed
	}
	return b
}

// String returns a string representation of t such as "[APPLICATION 2]/c".
func (t Tag) String() string {
	var class string
	switch t.Class {
	case ClassUniversal:
		class = "UNIVERSAL"
	case ClassApplication:
		class = "APPLICATION"
	case ClassContextSpecific:
		class = "CONTEXT"
	case ClassPrivate:
		class = "PRIVATE"
	default:
		class = fmt.Sprintf("CLASS(%#x)", t.Class)
	}
	form := "p"
	if t.Constructed {
		form = "c"
	}
	return fmt.Sprintf("[%s %d]/%s", class, t.Number, form)
}

// Header is a parsed TLV header: the tag and the definite length of the
// value. HeaderLen is the number of bytes the tag and length occupied on the
// wire.
type Header struct {
	Tag       Tag
	Length    int
	HeaderLen int
}

// TotalLen returns the encoded size of the whole TLV.
func (h Header) TotalLen() int {
	return h.HeaderLen + h.Length
}

// String returns a string representation of h.
func (h Header) String() string {
	return fmt.Sprintf("%s:%d", h.Tag, h.Length)
}
