// Package ber implements the tag-length-value primitives of ASN.1 BER (Basic
// Encoding Rules) as specified in ITU-T X.690.
//
// BER is the wire format used by LDAP and Kerberos for all protocol messages.
// This package deals with single TLVs only: parsing a header from a byte
// buffer, sizing and writing tags and lengths, and converting primitive
// values. Message structure is handled by the grammar package (decoding) and
// the encode package (encoding).
//
// # Tag Classes
//
// BER uses four tag classes to identify data types:
//
//   - Universal (0x00): Standard ASN.1 types like INTEGER, BOOLEAN, SEQUENCE
//   - Application (0x40): Protocol-specific types (LDAP operations)
//   - Context-specific (0x80): Context-dependent types within a structure
//   - Private (0xC0): Organization-specific types
//
// A Tag combines the class, the constructed flag and the tag number:
//
//	ber.SequenceTag            // [UNIVERSAL 16]/c
//	ber.Application(2, true)   // Kerberos Authenticator
//	ber.Context(0, false)      // LDAP simple bind password
//
// # Headers
//
// ReadHeader parses a tag and a definite length without touching the value:
//
//	h, n, err := ber.ReadHeader(buf, 0)
//	if ber.KindOf(err) == ber.KindTruncatedHeader {
//	    // wait for more input and retry at the same offset
//	}
//	value := buf[n : n+h.Length]
//
// Lengths use the short form up to 127 and the long form above. The
// indefinite form (0x80) is rejected. LengthByteCount and PutLength are
// symmetric: PutLength(buf, n) always writes LengthByteCount(n) bytes.
//
// # Errors
//
// Failures are reported as *DecodeError or *EncodeError carrying a Kind and
// the byte offset at which they were detected. Both match the sentinel error
// of their kind:
//
//	if errors.Is(err, ber.ErrLengthOverflow) {
//	    // a child TLV claimed more bytes than its parent allows
//	}
//
// # References
//
//   - ITU-T X.690: ASN.1 encoding rules
//   - RFC 4511: LDAP Protocol (uses BER encoding)
//   - RFC 4120: Kerberos V5 (uses DER encoding)
package ber
