package kerberos

import (
	"math"
	"time"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// PVNO is the Kerberos protocol version number.
const PVNO = 5

// ApplicationAuthenticator is the application tag of an Authenticator.
const ApplicationAuthenticator = 2

// maxMicroseconds is the largest valid cusec.
const maxMicroseconds = 999999

// Authenticator is sent by a client inside an AP-REQ to prove knowledge of
// the session key (RFC 4120 Section 5.5.1).
//
//	Authenticator   ::= [APPLICATION 2] SEQUENCE  {
//	        authenticator-vno       [0] INTEGER (5),
//	        crealm                  [1] Realm,
//	        cname                   [2] PrincipalName,
//	        cksum                   [3] Checksum OPTIONAL,
//	        cusec                   [4] Microseconds,
//	        ctime                   [5] KerberosTime,
//	        subkey                  [6] EncryptionKey OPTIONAL,
//	        seq-number              [7] UInt32 OPTIONAL,
//	        authorization-data      [8] AuthorizationData OPTIONAL
//	}
type Authenticator struct {
	AVNO              int
	CRealm            string
	CName             PrincipalName
	Cksum             *Checksum
	Cusec             int
	CTime             time.Time
	SubKey            *EncryptionKey
	SeqNumber         int64
	AuthorizationData AuthorizationData
}

const (
	auStart grammar.State = iota
	auApplication
	auSequence
	auVNOField
	auVNO
	auRealmField
	auRealm
	auCNameField
	auCName
	auCksumField
	auCksum
	auCusecField
	auCusec
	auCTimeField
	auCTime
	auSubKeyField
	auSubKey
	auSeqField
	auSeq
	auAuthDataField
	auAuthData
	auDone
)

// AuthenticatorGrammar decodes an Authenticator.
var AuthenticatorGrammar = grammar.MustDefine("Authenticator", auStart,
	[]grammar.State{auDone},
	grammar.On[Authenticator](auStart, ber.Application(ApplicationAuthenticator, true), auApplication, nil).ClosingIn(auDone),
	grammar.On[Authenticator](auApplication, ber.SequenceTag, auSequence, nil).
		ClosingIn(auCTime, auSubKey, auSeq, auAuthData).AfterClosing(auDone),

	explicit[Authenticator](auSequence, 0, auVNOField, auVNO),
	grammar.On(auVNOField, ber.IntegerTag, auVNO, func(a *Authenticator, v grammar.Value) error {
		n, err := ber.ParseInteger(v.Bytes)
		if err != nil {
			return err
		}
		if n != PVNO {
			return ErrInvalidVersion
		}
		a.AVNO = int(n)
		return nil
	}),

	explicit[Authenticator](auVNO, 1, auRealmField, auRealm),
	grammar.On(auRealmField, ber.GeneralStringTag, auRealm, func(a *Authenticator, v grammar.Value) error {
		a.CRealm = ber.ParseGeneralString(v.Bytes)
		return nil
	}),

	explicit[Authenticator](auRealm, 2, auCNameField, auCName),
	grammar.Embed(auCNameField, ber.SequenceTag, auCName, PrincipalNameGrammar, func(a *Authenticator, p *PrincipalName) error {
		a.CName = *p
		return nil
	}),

	explicit[Authenticator](auCName, 3, auCksumField, auCksum),
	grammar.Embed(auCksumField, ber.SequenceTag, auCksum, ChecksumGrammar, func(a *Authenticator, c *Checksum) error {
		a.Cksum = c
		return nil
	}),

	explicit[Authenticator](auCName, 4, auCusecField, auCusec),
	explicit[Authenticator](auCksum, 4, auCusecField, auCusec),
	grammar.On(auCusecField, ber.IntegerTag, auCusec, func(a *Authenticator, v grammar.Value) error {
		n, err := ber.ParseInteger(v.Bytes)
		if err != nil {
			return err
		}
		if n < 0 || n > maxMicroseconds {
			return ErrInvalidMicroseconds
		}
		a.Cusec = int(n)
		return nil
	}),

	explicit[Authenticator](auCusec, 5, auCTimeField, auCTime),
	grammar.On(auCTimeField, ber.GeneralizedTimeTag, auCTime, func(a *Authenticator, v grammar.Value) (err error) {
		a.CTime, err = ber.ParseGeneralizedTime(v.Bytes)
		return err
	}),

	explicit[Authenticator](auCTime, 6, auSubKeyField, auSubKey),
	grammar.Embed(auSubKeyField, ber.SequenceTag, auSubKey, EncryptionKeyGrammar, func(a *Authenticator, k *EncryptionKey) error {
		a.SubKey = k
		return nil
	}),

	explicit[Authenticator](auCTime, 7, auSeqField, auSeq),
	explicit[Authenticator](auSubKey, 7, auSeqField, auSeq),
	grammar.On(auSeqField, ber.IntegerTag, auSeq, func(a *Authenticator, v grammar.Value) error {
		n, err := ber.ParseInteger(v.Bytes)
		if err != nil {
			return err
		}
		// Some implementations send the sequence number as a negative Int32.
		if n < math.MinInt32 || n > math.MaxUint32 {
			return ErrIntegerRange
		}
		a.SeqNumber = n
		return nil
	}),

	explicit[Authenticator](auCTime, 8, auAuthDataField, auAuthData),
	explicit[Authenticator](auSubKey, 8, auAuthDataField, auAuthData),
	explicit[Authenticator](auSeq, 8, auAuthDataField, auAuthData),
	grammar.Embed(auAuthDataField, ber.SequenceTag, auAuthData, AuthorizationDataGrammar, func(a *Authenticator, ad *AuthorizationData) error {
		a.AuthorizationData = *ad
		return nil
	}),
)

// ParseAuthenticator decodes a complete Authenticator.
func ParseAuthenticator(data []byte) (*Authenticator, error) {
	return grammar.Unmarshal(AuthenticatorGrammar, data)
}

// MarshalBER implements encode.Marshaler.
func (a *Authenticator) MarshalBER() (*encode.Node, error) {
	if a.AVNO != PVNO {
		return nil, ErrInvalidVersion
	}
	if a.Cusec < 0 || a.Cusec > maxMicroseconds {
		return nil, ErrInvalidMicroseconds
	}

	cname, _ := a.CName.MarshalBER()
	seq := encode.Sequence(
		field(0, encode.Integer(int64(a.AVNO))),
		field(1, encode.GeneralString(a.CRealm)),
		field(2, cname),
	)
	if a.Cksum != nil {
		n, _ := a.Cksum.MarshalBER()
		seq.Append(field(3, n))
	}
	seq.Append(
		field(4, encode.Integer(int64(a.Cusec))),
		field(5, encode.GeneralizedTime(a.CTime)),
	)
	if a.SubKey != nil {
		n, _ := a.SubKey.MarshalBER()
		seq.Append(field(6, n))
	}
	if a.SeqNumber != 0 {
		seq.Append(field(7, encode.Integer(a.SeqNumber)))
	}
	if len(a.AuthorizationData) > 0 {
		n, _ := a.AuthorizationData.MarshalBER()
		seq.Append(field(8, n))
	}
	return encode.Constructed(ber.Application(ApplicationAuthenticator, true), seq), nil
}
