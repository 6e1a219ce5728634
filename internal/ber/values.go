package ber

import (
	"errors"
	"time"
	"unicode/utf8"
)

// Value errors. Grammar actions return them; the decode engine reports them
// as KindInvalidValue at the offset of the offending TLV.
var (
	// ErrInvalidBoolean is returned when a boolean value has invalid length.
	ErrInvalidBoolean = errors.New("ber: invalid boolean encoding")

	// ErrInvalidInteger is returned when an integer value is malformed.
	ErrInvalidInteger = errors.New("ber: invalid integer encoding")

	// ErrInvalidNull is returned when a null value has non-zero length.
	ErrInvalidNull = errors.New("ber: invalid null encoding")

	// ErrInvalidTime is returned when a GeneralizedTime value is malformed.
	ErrInvalidTime = errors.New("ber: invalid generalized time")

	// ErrInvalidUTF8 is returned when a UTF8String is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("ber: invalid UTF-8 string")
)

// GeneralizedTimeLayout is the Kerberos profile of GeneralizedTime: UTC with
// no fractional seconds.
const GeneralizedTimeLayout = "20060102150405Z"

// generalizedTimeFraction accepts fractional seconds on input.
const generalizedTimeFraction = "20060102150405.999999999Z"

// ParseBoolean decodes a BOOLEAN value. Per X.690, FALSE is 0x00 and TRUE is
// any non-zero value.
func ParseBoolean(v []byte) (bool, error) {
	if len(v) != 1 {
		return false, ErrInvalidBoolean
	}
	return v[0] != 0x00, nil
}

// ParseInteger decodes a two's complement INTEGER or ENUMERATED value that
// fits in an int64.
func ParseInteger(v []byte) (int64, error) {
	if len(v) == 0 || len(v) > 8 {
		return 0, ErrInvalidInteger
	}

	var result int64

	// If high bit is set, the number is negative (two's complement)
	if v[0]&0x80 != 0 {
		result = -1
	}
	for _, b := range v {
		result = result<<8 | int64(b)
	}
	return result, nil
}

// ParseNull validates a NULL value.
func ParseNull(v []byte) error {
	if len(v) != 0 {
		return ErrInvalidNull
	}
	return nil
}

// ParseOctetString returns a copy of an OCTET STRING value. The copy keeps
// decoded objects independent of the caller's input buffer.
func ParseOctetString(v []byte) []byte {
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

// ParseGeneralString decodes a GeneralString. Kerberos restricts these to
// IA5 in practice, but any byte sequence is accepted.
func ParseGeneralString(v []byte) string {
	return string(v)
}

// ParseUTF8String decodes a UTF8String.
func ParseUTF8String(v []byte) (string, error) {
	if !utf8.Valid(v) {
		return "", ErrInvalidUTF8
	}
	return string(v), nil
}

// ParseGeneralizedTime decodes a GeneralizedTime in UTC ("Z") form.
func ParseGeneralizedTime(v []byte) (time.Time, error) {
	s := string(v)
	if t, err := time.Parse(GeneralizedTimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(generalizedTimeFraction, s)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return t, nil
}

// IntegerLen returns the number of bytes of the minimal two's complement
// encoding of v.
func IntegerLen(v int64) int {
	n := 1
	for v > 127 || v < -128 {
		n++
		v >>= 8
	}
	return n
}

// PutInteger writes the minimal two's complement encoding of v into buf and
// returns the number of bytes written. It panics if buf is too small.
func PutInteger(buf []byte, v int64) int {
	n := IntegerLen(v)
	for i := n - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return n
}

// AppendInteger appends the minimal two's complement encoding of v to dst.
func AppendInteger(dst []byte, v int64) []byte {
	var tmp [8]byte
	n := PutInteger(tmp[:], v)
	return append(dst, tmp[:n]...)
}

// PutBoolean writes a DER boolean (0x00 or 0xFF) into buf.
func PutBoolean(buf []byte, v bool) int {
	if v {
		buf[0] = 0xFF
	} else {
		buf[0] = 0x00
	}
	return 1
}

// FormatGeneralizedTime returns the Kerberos GeneralizedTime form of t.
func FormatGeneralizedTime(t time.Time) string {
	return t.UTC().Format(GeneralizedTimeLayout)
}
