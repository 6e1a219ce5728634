package kerberos

import (
	"errors"
	"math"
	"strings"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// Principal name types (RFC 4120 Section 6.2).
const (
	NameTypeUnknown    int32 = 0
	NameTypePrincipal  int32 = 1
	NameTypeSrvInst    int32 = 2
	NameTypeSrvHst     int32 = 3
	NameTypeEnterprise int32 = 10
)

var (
	// ErrIntegerRange is returned for an Int32 or UInt32 field out of range.
	ErrIntegerRange = errors.New("kerberos: integer out of range")
	// ErrInvalidVersion is returned for an unsupported protocol version number.
	ErrInvalidVersion = errors.New("kerberos: unsupported protocol version")
	// ErrInvalidMicroseconds is returned when cusec is outside 0..999999.
	ErrInvalidMicroseconds = errors.New("kerberos: microseconds out of range")
)

// parseInt32 decodes an Int32 field.
func parseInt32(v []byte) (int32, error) {
	n, err := ber.ParseInteger(v)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, ErrIntegerRange
	}
	return int32(n), nil
}

// field wraps a value in an explicit context tag.
func field(n int, v *encode.Node) *encode.Node {
	return encode.Explicit(n, v)
}

// wrap returns the explicit context tag n, the constructed wrapper every
// field of a Kerberos SEQUENCE is carried in.
func wrap(n int) ber.Tag {
	return ber.Context(n, true)
}

// explicit returns the rule opening the [n] wrapper of a field. The field's
// value moves the grammar from inner to done, and the wrapper must end there.
func explicit[T any](from grammar.State, n int, inner, done grammar.State) grammar.Rule[T] {
	return grammar.On[T](from, wrap(n), inner, nil).ClosingIn(done)
}

// PrincipalName identifies a client or service.
type PrincipalName struct {
	NameType   int32
	NameString []string
}

// String returns the components joined by "/".
func (p PrincipalName) String() string {
	return strings.Join(p.NameString, "/")
}

const (
	pnStart grammar.State = iota
	pnSequence
	pnTypeField
	pnType
	pnNamesField
	pnNames
	pnDone
)

// PrincipalNameGrammar decodes a PrincipalName.
var PrincipalNameGrammar = grammar.MustDefine("PrincipalName", pnStart, []grammar.State{pnDone},
	grammar.On[PrincipalName](pnStart, ber.SequenceTag, pnSequence, nil),
	explicit[PrincipalName](pnSequence, 0, pnTypeField, pnType),
	grammar.On(pnTypeField, ber.IntegerTag, pnType, func(p *PrincipalName, v grammar.Value) (err error) {
		p.NameType, err = parseInt32(v.Bytes)
		return err
	}),
	explicit[PrincipalName](pnType, 1, pnNamesField, pnDone),
	grammar.On[PrincipalName](pnNamesField, ber.SequenceTag, pnNames, nil).AfterClosing(pnDone),
	grammar.On(pnNames, ber.GeneralStringTag, pnNames, func(p *PrincipalName, v grammar.Value) error {
		p.NameString = append(p.NameString, ber.ParseGeneralString(v.Bytes))
		return nil
	}),
)

// MarshalBER implements encode.Marshaler.
func (p *PrincipalName) MarshalBER() (*encode.Node, error) {
	names := encode.Sequence()
	for _, s := range p.NameString {
		names.Append(encode.GeneralString(s))
	}
	return encode.Sequence(
		field(0, encode.Integer(int64(p.NameType))),
		field(1, names),
	), nil
}

// EncryptedData carries ciphertext and the key that decrypts it.
//
//	EncryptedData   ::= SEQUENCE {
//	        etype   [0] Int32,
//	        kvno    [1] UInt32 OPTIONAL,
//	        cipher  [2] OCTET STRING
//	}
type EncryptedData struct {
	EType  int32
	KVNO   int
	Cipher []byte
}

const (
	edStart grammar.State = iota
	edSequence
	edETypeField
	edEType
	edKVNOField
	edKVNO
	edCipherField
	edCipher
)

// EncryptedDataGrammar decodes an EncryptedData.
var EncryptedDataGrammar = grammar.MustDefine("EncryptedData", edStart, []grammar.State{edCipher},
	grammar.On[EncryptedData](edStart, ber.SequenceTag, edSequence, nil),
	explicit[EncryptedData](edSequence, 0, edETypeField, edEType),
	grammar.On(edETypeField, ber.IntegerTag, edEType, func(e *EncryptedData, v grammar.Value) (err error) {
		e.EType, err = parseInt32(v.Bytes)
		return err
	}),
	explicit[EncryptedData](edEType, 1, edKVNOField, edKVNO),
	grammar.On(edKVNOField, ber.IntegerTag, edKVNO, func(e *EncryptedData, v grammar.Value) error {
		n, err := ber.ParseInteger(v.Bytes)
		if err != nil {
			return err
		}
		if n < 0 || n > math.MaxUint32 {
			return ErrIntegerRange
		}
		e.KVNO = int(n)
		return nil
	}),
	explicit[EncryptedData](edEType, 2, edCipherField, edCipher),
	explicit[EncryptedData](edKVNO, 2, edCipherField, edCipher),
	grammar.On(edCipherField, ber.OctetStringTag, edCipher, func(e *EncryptedData, v grammar.Value) error {
		e.Cipher = ber.ParseOctetString(v.Bytes)
		return nil
	}),
)

// MarshalBER implements encode.Marshaler.
func (e *EncryptedData) MarshalBER() (*encode.Node, error) {
	var kvno *encode.Node
	if e.KVNO != 0 {
		kvno = field(1, encode.Integer(int64(e.KVNO)))
	}
	return encode.Sequence(
		field(0, encode.Integer(int64(e.EType))),
		kvno,
		field(2, encode.OctetString(e.Cipher)),
	), nil
}

// Checksum is a keyed or unkeyed checksum.
//
//	Checksum        ::= SEQUENCE {
//	        cksumtype       [0] Int32,
//	        checksum        [1] OCTET STRING
//	}
type Checksum struct {
	CksumType int32
	Checksum  []byte
}

// EncryptionKey is a session or sub-session key.
//
//	EncryptionKey   ::= SEQUENCE {
//	        keytype         [0] Int32,
//	        keyvalue        [1] OCTET STRING
//	}
type EncryptionKey struct {
	KeyType  int32
	KeyValue []byte
}

// ChecksumGrammar decodes a Checksum.
var ChecksumGrammar = typedValueGrammar("Checksum",
	func(c *Checksum, t int32) { c.CksumType = t },
	func(c *Checksum, b []byte) { c.Checksum = b },
)

// EncryptionKeyGrammar decodes an EncryptionKey.
var EncryptionKeyGrammar = typedValueGrammar("EncryptionKey",
	func(k *EncryptionKey, t int32) { k.KeyType = t },
	func(k *EncryptionKey, b []byte) { k.KeyValue = b },
)

// MarshalBER implements encode.Marshaler.
func (c *Checksum) MarshalBER() (*encode.Node, error) {
	return typedValue(c.CksumType, c.Checksum), nil
}

// MarshalBER implements encode.Marshaler.
func (k *EncryptionKey) MarshalBER() (*encode.Node, error) {
	return typedValue(k.KeyType, k.KeyValue), nil
}

const (
	tvStart grammar.State = iota
	tvSequence
	tvTypeField
	tvType
	tvValueField
	tvValue
)

// typedValueGrammar builds the grammar shared by the two-field
// SEQUENCE { [0] Int32, [1] OCTET STRING } structures.
func typedValueGrammar[T any](name string, setType func(*T, int32), setValue func(*T, []byte)) *grammar.Grammar[T] {
	return grammar.MustDefine(name, tvStart, []grammar.State{tvValue},
		grammar.On[T](tvStart, ber.SequenceTag, tvSequence, nil),
		explicit[T](tvSequence, 0, tvTypeField, tvType),
		grammar.On(tvTypeField, ber.IntegerTag, tvType, func(t *T, v grammar.Value) error {
			n, err := parseInt32(v.Bytes)
			if err != nil {
				return err
			}
			setType(t, n)
			return nil
		}),
		explicit[T](tvType, 1, tvValueField, tvValue),
		grammar.On(tvValueField, ber.OctetStringTag, tvValue, func(t *T, v grammar.Value) error {
			setValue(t, ber.ParseOctetString(v.Bytes))
			return nil
		}),
	)
}

func typedValue(t int32, value []byte) *encode.Node {
	return encode.Sequence(
		field(0, encode.Integer(int64(t))),
		field(1, encode.OctetString(value)),
	)
}

// AuthorizationDataEntry is one element of AuthorizationData.
type AuthorizationDataEntry struct {
	ADType int32
	ADData []byte
}

// AuthorizationData ::= SEQUENCE OF SEQUENCE {
//
//	ad-type         [0] Int32,
//	ad-data         [1] OCTET STRING
//
// }
type AuthorizationData []AuthorizationDataEntry

const (
	adStart grammar.State = iota
	adSequence
)

// authorizationDataEntryGrammar decodes one AuthorizationData element.
var authorizationDataEntryGrammar = typedValueGrammar("AuthorizationDataEntry",
	func(e *AuthorizationDataEntry, t int32) { e.ADType = t },
	func(e *AuthorizationDataEntry, b []byte) { e.ADData = b },
)

// AuthorizationDataGrammar decodes AuthorizationData.
var AuthorizationDataGrammar = grammar.MustDefine("AuthorizationData", adStart, []grammar.State{adSequence},
	grammar.On[AuthorizationData](adStart, ber.SequenceTag, adSequence, nil),
	grammar.Embed(adSequence, ber.SequenceTag, adSequence, authorizationDataEntryGrammar, func(ad *AuthorizationData, e *AuthorizationDataEntry) error {
		*ad = append(*ad, *e)
		return nil
	}),
)

// MarshalBER implements encode.Marshaler.
func (ad AuthorizationData) MarshalBER() (*encode.Node, error) {
	n := encode.Sequence()
	for _, e := range ad {
		n.Append(typedValue(e.ADType, e.ADData))
	}
	return n, nil
}
