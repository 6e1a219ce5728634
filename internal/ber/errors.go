// Package ber implements ASN.1 BER (Basic Encoding Rules) encoding
// as specified in ITU-T X.690.
package ber

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies codec failures.
type Kind int

const (
	// KindTruncatedHeader means fewer bytes remain than a TLV header needs.
	KindTruncatedHeader Kind = iota + 1
	// KindMalformedLength means the length field is indefinite, reserved,
	// overflowing, or (in strict mode) not minimally encoded.
	KindMalformedLength
	// KindMalformedTag means the tag number cannot be represented or is not
	// minimally encoded in strict mode.
	KindMalformedTag
	// KindUnexpectedTag means the grammar has no transition for the tag.
	KindUnexpectedTag
	// KindLengthOverflow means a TLV claims more bytes than its enclosing
	// budget allows.
	KindLengthOverflow
	// KindUnexpectedEndOfMessage means the message ended while the grammar was
	// not in an end state.
	KindUnexpectedEndOfMessage
	// KindNestingTooDeep means constructed TLVs are nested beyond the limit.
	KindNestingTooDeep
	// KindInvalidValue means a primitive value was rejected.
	KindInvalidValue
	// KindBufferTooSmall means the encoder ran out of pre-sized buffer.
	KindBufferTooSmall
)

// Sentinel errors, one per Kind. DecodeError and EncodeError match them with
// errors.Is.
var (
	ErrTruncatedHeader        = errors.New("ber: truncated header")
	ErrMalformedLength        = errors.New("ber: malformed length")
	ErrMalformedTag           = errors.New("ber: malformed tag")
	ErrUnexpectedTag          = errors.New("ber: unexpected tag")
	ErrLengthOverflow         = errors.New("ber: length overflow")
	ErrUnexpectedEndOfMessage = errors.New("ber: unexpected end of message")
	ErrNestingTooDeep         = errors.New("ber: nesting too deep")
	ErrInvalidValue           = errors.New("ber: invalid value")
	ErrBufferTooSmall         = errors.New("ber: buffer too small")
)

// sentinel returns the sentinel error for k.
func (k Kind) sentinel() error {
	switch k {
	case KindTruncatedHeader:
		return ErrTruncatedHeader
	case KindMalformedLength:
		return ErrMalformedLength
	case KindMalformedTag:
		return ErrMalformedTag
	case KindUnexpectedTag:
		return ErrUnexpectedTag
	case KindLengthOverflow:
		return ErrLengthOverflow
	case KindUnexpectedEndOfMessage:
		return ErrUnexpectedEndOfMessage
	case KindNestingTooDeep:
		return ErrNestingTooDeep
	case KindInvalidValue:
		return ErrInvalidValue
	case KindBufferTooSmall:
		return ErrBufferTooSmall
	default:
		return nil
	}
}

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTruncatedHeader:
		return "TruncatedHeader"
	case KindMalformedLength:
		return "MalformedLength"
	case KindMalformedTag:
		return "MalformedTag"
	case KindUnexpectedTag:
		return "UnexpectedTag"
	case KindLengthOverflow:
		return "LengthOverflow"
	case KindUnexpectedEndOfMessage:
		return "UnexpectedEndOfMessage"
	case KindNestingTooDeep:
		return "NestingTooDeep"
	case KindInvalidValue:
		return "InvalidValue"
	case KindBufferTooSmall:
		return "BufferTooSmall"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DecodeError provides detailed information about a decoding failure.
type DecodeError struct {
	Kind    Kind
	Offset  int    // Byte offset where the error occurred
	Message string // Human-readable error description

	// Tag is the offending tag for KindUnexpectedTag and the tag of the TLV
	// being processed otherwise, when known.
	Tag *Tag
	// Expected lists the tags valid in the grammar state: for KindUnexpectedTag,
	// and for KindUnexpectedEndOfMessage when a value ended early.
	Expected []Tag

	Err error // Underlying error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ber: decode error at offset %d: %s", e.Offset, e.Kind)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Tag != nil {
		b.WriteString(" (tag ")
		b.WriteString(e.Tag.String())
		b.WriteString(")")
	}
	if len(e.Expected) > 0 {
		b.WriteString(", expected one of ")
		for i, t := range e.Expected {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(t.String())
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is allows DecodeError to match the sentinel of its kind with errors.Is.
func (e *DecodeError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// NewDecodeError creates a new DecodeError with the given parameters.
func NewDecodeError(kind Kind, offset int, message string, err error) *DecodeError {
	return &DecodeError{
		Kind:    kind,
		Offset:  offset,
		Message: message,
		Err:     err,
	}
}

// WithTag returns e with the offending tag recorded.
func (e *DecodeError) WithTag(t Tag) *DecodeError {
	e.Tag = &t
	return e
}

// EncodeError reports an encoder invariant violation.
type EncodeError struct {
	Kind    Kind
	Offset  int
	Message string
}

// Error implements the error interface.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("ber: encode error at offset %d: %s: %s", e.Offset, e.Kind, e.Message)
}

// Is allows EncodeError to match the sentinel of its kind with errors.Is.
func (e *EncodeError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// KindOf returns the Kind carried by err, or 0 if err is not a codec error.
func KindOf(err error) Kind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	var ee *EncodeError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return 0
}
