package ldap

import (
	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// LDAPMessage grammar states.
const (
	msgStart grammar.State = iota
	msgSequence
	msgID
	msgOperation
	msgControls
)

// MessageGrammar decodes the LDAPMessage envelope. The protocol operation is
// kept as a RawOperation; controls are decoded with ControlGrammar.
var MessageGrammar = grammar.MustDefine("LDAPMessage", msgStart,
	[]grammar.State{msgOperation, msgControls},
	messageRules()...,
)

func messageRules() []grammar.Rule[LDAPMessage] {
	rules := []grammar.Rule[LDAPMessage]{
		grammar.On[LDAPMessage](msgStart, ber.SequenceTag, msgSequence, nil),
		grammar.On(msgSequence, ber.IntegerTag, msgID, setMessageID),
		grammar.On[LDAPMessage](msgOperation, ber.Context(ContextTagControls, true), msgControls, nil),
		grammar.Embed(msgControls, ber.SequenceTag, msgControls, ControlGrammar, appendControl),
	}

	// protocolOp is a CHOICE over every APPLICATION tag, in both forms:
	// UnbindRequest, DelRequest and AbandonRequest are primitive.
	for n := 0; n <= ber.MaxLowTagNumber; n++ {
		for _, constructed := range []bool{false, true} {
			rules = append(rules, grammar.Atomic(msgID, ber.Application(n, constructed), msgOperation, setOperation))
		}
	}
	return rules
}

func setMessageID(m *LDAPMessage, v grammar.Value) error {
	id, err := ber.ParseInteger(v.Bytes)
	if err != nil {
		return err
	}
	if id < MinMessageID || id > MaxMessageID {
		return ErrInvalidMessageID
	}
	m.MessageID = int(id)
	return nil
}

func setOperation(m *LDAPMessage, v grammar.Value) error {
	m.Operation = &RawOperation{
		Tag:         v.Header.Tag.Number,
		Constructed: v.Header.Tag.Constructed,
		Data:        ber.ParseOctetString(v.Bytes),
	}
	return nil
}

func appendControl(m *LDAPMessage, c *Control) error {
	m.Controls = append(m.Controls, *c)
	return nil
}

// ParseLDAPMessage parses exactly one BER-encoded LDAP message.
// Per RFC 4511 Section 4.1.1:
// LDAPMessage ::= SEQUENCE {
//
//	messageID       MessageID,
//	protocolOp      CHOICE { ... },
//	controls        [0] Controls OPTIONAL
//
// }
func ParseLDAPMessage(data []byte) (*LDAPMessage, error) {
	if len(data) == 0 {
		return nil, ErrEmptyMessage
	}
	return grammar.Unmarshal(MessageGrammar, data)
}

// MarshalBER implements encode.Marshaler.
func (m *LDAPMessage) MarshalBER() (*encode.Node, error) {
	if m.MessageID < MinMessageID || m.MessageID > MaxMessageID {
		return nil, ErrInvalidMessageID
	}
	if m.Operation == nil {
		return nil, ErrMissingOperation
	}

	var controls *encode.Node
	if len(m.Controls) > 0 {
		controls = encode.Constructed(ber.Context(ContextTagControls, true))
		for i := range m.Controls {
			n, err := m.Controls[i].MarshalBER()
			if err != nil {
				return nil, err
			}
			controls.Append(n)
		}
	}

	return encode.Sequence(
		encode.Integer(int64(m.MessageID)),
		encode.Primitive(m.Operation.BERTag(), m.Operation.Data),
		controls,
	), nil
}

// Encode encodes the LDAPMessage to BER format.
func (m *LDAPMessage) Encode() ([]byte, error) {
	return encode.Encode(m)
}

// NewMessage wraps an operation in an LDAPMessage with the given ID.
func NewMessage(id int, op encode.Marshaler, controls ...Control) (*LDAPMessage, error) {
	raw, err := EncodeOperation(op)
	if err != nil {
		return nil, err
	}
	return &LDAPMessage{MessageID: id, Operation: raw, Controls: controls}, nil
}

// EncodeOperation encodes op and returns it as a RawOperation.
func EncodeOperation(op encode.Marshaler) (*RawOperation, error) {
	buf, err := encode.Encode(op)
	if err != nil {
		return nil, err
	}
	h, n, err := ber.ReadHeader(buf, 0)
	if err != nil {
		return nil, err
	}
	if h.Tag.Class != ber.ClassApplication {
		return nil, ErrInvalidOperation
	}
	return &RawOperation{Tag: h.Tag.Number, Constructed: h.Tag.Constructed, Data: buf[n:]}, nil
}

// parseOperation decodes op with grammar g, whose start state must accept
// op's tag.
func parseOperation[T any](g *grammar.Grammar[T], op *RawOperation) (*T, error) {
	if op == nil {
		return nil, ErrMissingOperation
	}
	return grammar.Unmarshal(g, op.TLV())
}
