package ldap

import (
	"errors"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// Well-known control OIDs.
const (
	// OIDPagedResults is the Simple Paged Results control (RFC 2696).
	OIDPagedResults = "1.2.840.113556.1.4.319"
	// OIDManageDsaIT is the ManageDsaIT control (RFC 3296).
	OIDManageDsaIT = "2.16.840.1.113730.3.4.2"
)

// Control grammar states.
const (
	ctlStart grammar.State = iota
	ctlSequence
	ctlType
	ctlCriticality
	ctlValue
)

// ControlGrammar decodes one Control:
//
//	Control ::= SEQUENCE {
//	    controlType             LDAPOID,
//	    criticality             BOOLEAN DEFAULT FALSE,
//	    controlValue            OCTET STRING OPTIONAL }
var ControlGrammar = grammar.MustDefine("Control", ctlStart,
	[]grammar.State{ctlType, ctlCriticality, ctlValue},
	grammar.On[Control](ctlStart, ber.SequenceTag, ctlSequence, nil),
	grammar.On(ctlSequence, ber.OctetStringTag, ctlType, func(c *Control, v grammar.Value) error {
		if len(v.Bytes) == 0 {
			return ErrInvalidControlOID
		}
		c.OID = string(v.Bytes)
		return nil
	}),
	grammar.On(ctlType, ber.BooleanTag, ctlCriticality, func(c *Control, v grammar.Value) (err error) {
		c.Criticality, err = ber.ParseBoolean(v.Bytes)
		return err
	}),
	grammar.On(ctlType, ber.OctetStringTag, ctlValue, setControlValue),
	grammar.On(ctlCriticality, ber.OctetStringTag, ctlValue, setControlValue),
)

func setControlValue(c *Control, v grammar.Value) error {
	c.Value = ber.ParseOctetString(v.Bytes)
	return nil
}

// MarshalBER implements encode.Marshaler. A FALSE criticality is left out
// and a nil Value omits controlValue.
func (c Control) MarshalBER() (*encode.Node, error) {
	if c.OID == "" {
		return nil, ErrInvalidControlOID
	}
	var critical, value *encode.Node
	if c.Criticality {
		critical = encode.Boolean(true)
	}
	if c.Value != nil {
		value = encode.OctetString(c.Value)
	}
	return encode.Sequence(encode.String(c.OID), critical, value), nil
}

// ErrInvalidPagedResults is returned for a malformed paged results value.
var ErrInvalidPagedResults = errors.New("ldap: invalid paged results control value")

// PagedResults is the value of the Simple Paged Results control.
//
//	realSearchControlValue ::= SEQUENCE {
//	    size            INTEGER (0..maxInt),
//	    cookie          OCTET STRING }
type PagedResults struct {
	// Size is the requested page size, or the server's estimate of the
	// result set size in a response.
	Size int
	// Cookie is empty on the first request and on the last response.
	Cookie []byte
}

const (
	prStart grammar.State = iota
	prSequence
	prSize
	prCookie
)

// PagedResultsGrammar decodes the value of an OIDPagedResults control.
var PagedResultsGrammar = grammar.MustDefine("PagedResults", prStart,
	[]grammar.State{prCookie},
	grammar.On[PagedResults](prStart, ber.SequenceTag, prSequence, nil),
	grammar.On(prSequence, ber.IntegerTag, prSize, func(p *PagedResults, v grammar.Value) error {
		size, err := ber.ParseInteger(v.Bytes)
		if err != nil {
			return err
		}
		if size < 0 || size > MaxMessageID {
			return ErrInvalidPagedResults
		}
		p.Size = int(size)
		return nil
	}),
	grammar.On(prSize, ber.OctetStringTag, prCookie, func(p *PagedResults, v grammar.Value) error {
		p.Cookie = ber.ParseOctetString(v.Bytes)
		return nil
	}),
)

// MarshalBER implements encode.Marshaler.
func (p *PagedResults) MarshalBER() (*encode.Node, error) {
	if p.Size < 0 || p.Size > MaxMessageID {
		return nil, ErrInvalidPagedResults
	}
	return encode.Sequence(encode.Integer(int64(p.Size)), encode.OctetString(p.Cookie)), nil
}

// Control wraps the paged results value in a control.
func (p *PagedResults) Control(critical bool) (Control, error) {
	value, err := encode.Encode(p)
	if err != nil {
		return Control{}, err
	}
	return Control{OID: OIDPagedResults, Criticality: critical, Value: value}, nil
}

// ParsePagedResults decodes the value of a paged results control.
func ParsePagedResults(c *Control) (*PagedResults, error) {
	if c == nil || c.OID != OIDPagedResults {
		return nil, ErrInvalidPagedResults
	}
	return grammar.Unmarshal(PagedResultsGrammar, c.Value)
}
