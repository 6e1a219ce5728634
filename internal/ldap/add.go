package ldap

import (
	"errors"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// Attribute represents an LDAP attribute with its values
// PartialAttribute ::= SEQUENCE {
//
//	type       AttributeDescription,
//	vals       SET OF value AttributeValue
//
// }
type Attribute struct {
	// Type is the attribute type name
	Type string
	// Values contains the attribute values
	Values [][]byte
}

// AddRequest represents an LDAP Add Request
// AddRequest ::= [APPLICATION 8] SEQUENCE {
//
//	entry           LDAPDN,
//	attributes      AttributeList
//
// }
// AttributeList ::= SEQUENCE OF attribute Attribute
// Attribute ::= PartialAttribute(WITH VALUES)
type AddRequest struct {
	// Entry is the DN of the entry to add
	Entry string
	// Attributes contains the attributes for the new entry
	Attributes []Attribute
}

// Errors for AddRequest parsing
var (
	// ErrEmptyEntry is returned when the entry DN is empty
	ErrEmptyEntry = errors.New("ldap: entry DN cannot be empty")
	// ErrInvalidAttribute is returned when an attribute is malformed
	ErrInvalidAttribute = errors.New("ldap: invalid attribute")
	// ErrEmptyAttributeValues is returned when an attribute has no values
	ErrEmptyAttributeValues = errors.New("ldap: attribute must have at least one value")
)

// Attribute grammar states.
const (
	attrStart grammar.State = iota
	attrSequence
	attrType
	attrValues
	attrDone
)

// AttributeGrammar decodes a PartialAttribute. It is embedded by the add and
// modify grammars.
var AttributeGrammar = grammar.MustDefine("PartialAttribute", attrStart, []grammar.State{attrDone},
	grammar.On[Attribute](attrStart, ber.SequenceTag, attrSequence, nil),
	grammar.On(attrSequence, ber.OctetStringTag, attrType, func(a *Attribute, v grammar.Value) error {
		if len(v.Bytes) == 0 {
			return ErrInvalidAttribute
		}
		a.Type = string(v.Bytes)
		return nil
	}),
	grammar.On[Attribute](attrType, ber.SetTag, attrValues, nil).AfterClosing(attrDone),
	grammar.On(attrValues, ber.OctetStringTag, attrValues, func(a *Attribute, v grammar.Value) error {
		a.Values = append(a.Values, ber.ParseOctetString(v.Bytes))
		return nil
	}),
)

func (a *Attribute) marshal() *encode.Node {
	vals := encode.Set()
	for _, v := range a.Values {
		vals.Append(encode.OctetString(v))
	}
	return encode.Sequence(encode.String(a.Type), vals)
}

// AddRequest grammar states.
const (
	addStart grammar.State = iota
	addRequest
	addEntry
	addAttributes
)

// AddRequestGrammar decodes a complete [APPLICATION 8] AddRequest.
var AddRequestGrammar = grammar.MustDefine("AddRequest", addStart, []grammar.State{addAttributes},
	grammar.On[AddRequest](addStart, ber.Application(ApplicationAddRequest, true), addRequest, nil),
	grammar.On(addRequest, ber.OctetStringTag, addEntry, func(r *AddRequest, v grammar.Value) error {
		r.Entry = string(v.Bytes)
		return nil
	}),
	grammar.On[AddRequest](addEntry, ber.SequenceTag, addAttributes, nil),
	grammar.Embed(addAttributes, ber.SequenceTag, addAttributes, AttributeGrammar, func(r *AddRequest, a *Attribute) error {
		if len(a.Values) == 0 {
			return ErrEmptyAttributeValues
		}
		r.Attributes = append(r.Attributes, *a)
		return nil
	}),
)

// ParseAddRequest parses an AddRequest from raw operation data.
// The data should be the contents of the APPLICATION 8 tag (without the tag and length).
func ParseAddRequest(data []byte) (*AddRequest, error) {
	return parseOperation(AddRequestGrammar, &RawOperation{
		Tag:         ApplicationAddRequest,
		Constructed: true,
		Data:        data,
	})
}

// MarshalBER implements encode.Marshaler.
func (r *AddRequest) MarshalBER() (*encode.Node, error) {
	attrs := encode.Sequence()
	for i := range r.Attributes {
		attrs.Append(r.Attributes[i].marshal())
	}
	return encode.Constructed(ber.Application(ApplicationAddRequest, true), encode.String(r.Entry), attrs), nil
}

// Validate validates the AddRequest.
func (r *AddRequest) Validate() error {
	if r.Entry == "" {
		return ErrEmptyEntry
	}
	for _, attr := range r.Attributes {
		if attr.Type == "" {
			return ErrInvalidAttribute
		}
		if len(attr.Values) == 0 {
			return ErrEmptyAttributeValues
		}
	}
	return nil
}

// GetAttribute returns the attribute with the given type, or nil.
func (r *AddRequest) GetAttribute(attrType string) *Attribute {
	for i := range r.Attributes {
		if r.Attributes[i].Type == attrType {
			return &r.Attributes[i]
		}
	}
	return nil
}

// GetAttributeStringValues returns the values of an attribute as strings.
func (r *AddRequest) GetAttributeStringValues(attrType string) []string {
	attr := r.GetAttribute(attrType)
	if attr == nil {
		return nil
	}
	out := make([]string, len(attr.Values))
	for i, v := range attr.Values {
		out[i] = string(v)
	}
	return out
}
