package kerberos

import (
	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// ApplicationTicket is the application tag of a Ticket.
const ApplicationTicket = 1

// Ticket is a service ticket. The encrypted part is kept as ciphertext.
//
//	Ticket          ::= [APPLICATION 1] SEQUENCE {
//	        tkt-vno         [0] INTEGER (5),
//	        realm           [1] Realm,
//	        sname           [2] PrincipalName,
//	        enc-part        [3] EncryptedData
//	}
type Ticket struct {
	TktVNO  int
	Realm   string
	SName   PrincipalName
	EncPart EncryptedData
}

const (
	tkStart grammar.State = iota
	tkApplication
	tkSequence
	tkVNOField
	tkVNO
	tkRealmField
	tkRealm
	tkSNameField
	tkSName
	tkEncPartField
	tkEncPart
	tkDone
)

// TicketGrammar decodes a Ticket.
var TicketGrammar = grammar.MustDefine("Ticket", tkStart, []grammar.State{tkDone},
	grammar.On[Ticket](tkStart, ber.Application(ApplicationTicket, true), tkApplication, nil).ClosingIn(tkDone),
	grammar.On[Ticket](tkApplication, ber.SequenceTag, tkSequence, nil).ClosingIn(tkEncPart).AfterClosing(tkDone),
	explicit[Ticket](tkSequence, 0, tkVNOField, tkVNO),
	grammar.On(tkVNOField, ber.IntegerTag, tkVNO, func(t *Ticket, v grammar.Value) error {
		n, err := ber.ParseInteger(v.Bytes)
		if err != nil {
			return err
		}
		if n != PVNO {
			return ErrInvalidVersion
		}
		t.TktVNO = int(n)
		return nil
	}),
	explicit[Ticket](tkVNO, 1, tkRealmField, tkRealm),
	grammar.On(tkRealmField, ber.GeneralStringTag, tkRealm, func(t *Ticket, v grammar.Value) error {
		t.Realm = ber.ParseGeneralString(v.Bytes)
		return nil
	}),
	explicit[Ticket](tkRealm, 2, tkSNameField, tkSName),
	grammar.Embed(tkSNameField, ber.SequenceTag, tkSName, PrincipalNameGrammar, func(t *Ticket, p *PrincipalName) error {
		t.SName = *p
		return nil
	}),
	explicit[Ticket](tkSName, 3, tkEncPartField, tkEncPart),
	grammar.Embed(tkEncPartField, ber.SequenceTag, tkEncPart, EncryptedDataGrammar, func(t *Ticket, e *EncryptedData) error {
		t.EncPart = *e
		return nil
	}),
)

// ParseTicket decodes a complete Ticket.
func ParseTicket(data []byte) (*Ticket, error) {
	return grammar.Unmarshal(TicketGrammar, data)
}

// MarshalBER implements encode.Marshaler.
func (t *Ticket) MarshalBER() (*encode.Node, error) {
	if t.TktVNO != PVNO {
		return nil, ErrInvalidVersion
	}
	sname, _ := t.SName.MarshalBER()
	enc, _ := t.EncPart.MarshalBER()
	return encode.Constructed(ber.Application(ApplicationTicket, true),
		encode.Sequence(
			field(0, encode.Integer(int64(t.TktVNO))),
			field(1, encode.GeneralString(t.Realm)),
			field(2, sname),
			field(3, enc),
		),
	), nil
}
