// Package ber implements ASN.1 BER (Basic Encoding Rules) encoding
// as specified in ITU-T X.690.
package ber

import "math"

// maxLengthBytes is the largest number of long-form length bytes accepted.
// More would overflow an int.
const maxLengthBytes = 8

// maxTagBytes is the largest number of base-128 tag number bytes accepted.
const maxTagBytes = 4

// ReadHeader parses the tag and length of the TLV starting at buf[offset].
// The value is not read. It returns the header and the number of bytes the
// header occupies.
//
// A header that does not fit in buf yields a KindTruncatedHeader error, so
// callers reading from a stream can wait for more data and retry at the same
// offset. Non-minimal encodings are accepted; use ReadHeaderStrict to
// reject them.
func ReadHeader(buf []byte, offset int) (Header, int, error) {
	return readHeader(buf, offset, false)
}

// ReadHeaderStrict works like ReadHeader but enforces the DER rules for
// headers: lengths and tag numbers must be minimally encoded.
func ReadHeaderStrict(buf []byte, offset int) (Header, int, error) {
	return readHeader(buf, offset, true)
}

func readHeader(buf []byte, offset int, strict bool) (Header, int, error) {
	pos := offset
	if pos >= len(buf) {
		return Header{}, 0, NewDecodeError(KindTruncatedHeader, offset, "cannot read tag", nil)
	}

	first := buf[pos]
	pos++

	tag := Tag{
		Class:       int(first & 0xC0),
		Constructed: first&TypeConstructed != 0,
		Number:      int(first & 0x1F),
	}

	// Check for long form tag (all 5 bits set = 0x1F)
	if tag.Number == highTagNumberForm {
		number, n, err := readBase128(buf, pos, offset, strict)
		if err != nil {
			return Header{}, 0, err
		}
		tag.Number = number
		pos += n
	}

	if pos >= len(buf) {
		return Header{}, 0, NewDecodeError(KindTruncatedHeader, offset, "cannot read length", nil)
	}

	lb := buf[pos]
	pos++

	// Short form: bit 8 is 0, bits 1-7 contain the length
	if lb&LengthLongFormBit == 0 {
		return Header{Tag: tag, Length: int(lb), HeaderLen: pos - offset}, pos - offset, nil
	}

	numBytes := int(lb & 0x7F)
	switch {
	case numBytes == 0:
		return Header{}, 0, NewDecodeError(KindMalformedLength, offset, "indefinite length encoding", nil).WithTag(tag)
	case lb == 0xFF:
		return Header{}, 0, NewDecodeError(KindMalformedLength, offset, "reserved length octet", nil).WithTag(tag)
	case numBytes > maxLengthBytes:
		return Header{}, 0, NewDecodeError(KindMalformedLength, offset, "length does not fit in an integer", nil).WithTag(tag)
	}

	if pos+numBytes > len(buf) {
		return Header{}, 0, NewDecodeError(KindTruncatedHeader, offset, "truncated length encoding", nil)
	}

	length := 0
	for i := 0; i < numBytes; i++ {
		if length > math.MaxInt>>8 {
			return Header{}, 0, NewDecodeError(KindMalformedLength, offset, "length value overflow", nil).WithTag(tag)
		}
		length = length<<8 | int(buf[pos])
		pos++
	}

	if strict && LengthByteCount(length) != 1+numBytes {
		return Header{}, 0, NewDecodeError(KindMalformedLength, offset, "length not minimally encoded", nil).WithTag(tag)
	}

	return Header{Tag: tag, Length: length, HeaderLen: pos - offset}, pos - offset, nil
}

// readBase128 reads a base-128 encoded tag number starting at buf[pos]. The
// high bit of every byte but the last is set.
func readBase128(buf []byte, pos, offset int, strict bool) (int, int, error) {
	start := pos
	result := 0
	for {
		if pos >= len(buf) {
			return 0, 0, NewDecodeError(KindTruncatedHeader, offset, "unterminated tag number", nil)
		}
		if pos-start == maxTagBytes {
			return 0, 0, NewDecodeError(KindMalformedTag, offset, "tag number too large", nil)
		}

		b := buf[pos]
		pos++

		if strict && pos-1 == start && b == 0x80 {
			return 0, 0, NewDecodeError(KindMalformedTag, offset, "tag number not minimally encoded", nil)
		}

		result = result<<7 | int(b&0x7F)

		// If high bit is not set, this is the last byte
		if b&0x80 == 0 {
			break
		}
	}
	if strict && result <= MaxLowTagNumber {
		return 0, 0, NewDecodeError(KindMalformedTag, offset, "low tag number in high-tag-number form", nil)
	}
	return result, pos - start, nil
}

// LengthByteCount returns the number of bytes needed to encode the length n:
// 1 for the short form (n <= 127), otherwise 1 plus the minimal number of
// big-endian bytes holding n.
func LengthByteCount(n int) int {
	if n <= MaxShortFormLength {
		return 1
	}
	count := 1
	for ; n > 0; n >>= 8 {
		count++
	}
	return count
}

// TagByteCount returns the number of bytes needed to encode t.
func TagByteCount(t Tag) int {
	if t.Number <= MaxLowTagNumber {
		return 1
	}
	count := 1
	for n := t.Number; n > 0; n >>= 7 {
		count++
	}
	return count
}

// HeaderByteCount returns the size of a header for tag t and value length n.
func HeaderByteCount(t Tag, n int) int {
	return TagByteCount(t) + LengthByteCount(n)
}

// PutTag writes the encoding of t into buf and returns the number of bytes
// written. It panics if buf is too small; callers size buf with
// TagByteCount.
func PutTag(buf []byte, t Tag) int {
	if t.Number <= MaxLowTagNumber {
		buf[0] = t.identifier() | byte(t.Number)
		return 1
	}
	n := TagByteCount(t)
	buf[0] = t.identifier() | highTagNumberForm
	v := t.Number
	for i := n - 1; i >= 1; i-- {
		b := byte(v & 0x7F)
		if i != n-1 {
			b |= 0x80 // continuation bit on all but the last byte
		}
		buf[i] = b
		v >>= 7
	}
	return n
}

// PutLength writes the definite-length encoding of n into buf and returns the
// number of bytes written, which is always LengthByteCount(n). It panics if
// buf is too small.
func PutLength(buf []byte, n int) int {
	if n <= MaxShortFormLength {
		buf[0] = byte(n)
		return 1
	}
	count := LengthByteCount(n)
	buf[0] = byte(LengthLongFormBit | (count - 1))
	for i := count - 1; i >= 1; i-- {
		buf[i] = byte(n)
		n >>= 8
	}
	return count
}

// AppendTag appends the encoding of t to dst.
func AppendTag(dst []byte, t Tag) []byte {
	var tmp [1 + maxTagBytes + 1]byte
	n := PutTag(tmp[:], t)
	return append(dst, tmp[:n]...)
}

// AppendLength appends the definite-length encoding of n to dst.
func AppendLength(dst []byte, n int) []byte {
	var tmp [1 + maxLengthBytes]byte
	c := PutLength(tmp[:], n)
	return append(dst, tmp[:c]...)
}

// AppendHeader appends the tag and length of a TLV to dst.
func AppendHeader(dst []byte, t Tag, n int) []byte {
	return AppendLength(AppendTag(dst, t), n)
}
