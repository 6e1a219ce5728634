package ldap

import (
	"errors"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// CompareRequest represents an LDAP Compare Request
// CompareRequest ::= [APPLICATION 14] SEQUENCE {
//
//	entry           LDAPDN,
//	ava             AttributeValueAssertion
//
// }
// AttributeValueAssertion ::= SEQUENCE {
//
//	attributeDesc   AttributeDescription,
//	assertionValue  AssertionValue
//
// }
type CompareRequest struct {
	// DN is the distinguished name of the entry to compare
	DN string
	// Attribute is the attribute type to compare
	Attribute string
	// Value is the assertion value to compare against
	Value []byte
}

// Errors for CompareRequest parsing
var (
	// ErrEmptyCompareDN is returned when the DN to compare is empty
	ErrEmptyCompareDN = errors.New("ldap: compare DN cannot be empty")
	// ErrEmptyCompareAttribute is returned when the attribute to compare is empty
	ErrEmptyCompareAttribute = errors.New("ldap: compare attribute cannot be empty")
)

// CompareRequest grammar states.
const (
	cmpStart grammar.State = iota
	cmpRequest
	cmpEntry
	cmpAssertion
	cmpAttribute
	cmpValue
)

// CompareRequestGrammar decodes a complete [APPLICATION 14] CompareRequest.
var CompareRequestGrammar = grammar.MustDefine("CompareRequest", cmpStart, []grammar.State{cmpValue},
	grammar.On[CompareRequest](cmpStart, ber.Application(ApplicationCompareRequest, true), cmpRequest, nil),
	grammar.On(cmpRequest, ber.OctetStringTag, cmpEntry, func(r *CompareRequest, v grammar.Value) error {
		r.DN = string(v.Bytes)
		return nil
	}),
	grammar.On[CompareRequest](cmpEntry, ber.SequenceTag, cmpAssertion, nil).ClosingIn(cmpValue),
	grammar.On(cmpAssertion, ber.OctetStringTag, cmpAttribute, func(r *CompareRequest, v grammar.Value) error {
		r.Attribute = string(v.Bytes)
		return nil
	}),
	grammar.On(cmpAttribute, ber.OctetStringTag, cmpValue, func(r *CompareRequest, v grammar.Value) error {
		r.Value = ber.ParseOctetString(v.Bytes)
		return nil
	}),
)

// ParseCompareRequest parses a CompareRequest from raw operation data.
// The data should be the contents of the APPLICATION 14 tag (without the tag and length).
func ParseCompareRequest(data []byte) (*CompareRequest, error) {
	return parseOperation(CompareRequestGrammar, &RawOperation{
		Tag:         ApplicationCompareRequest,
		Constructed: true,
		Data:        data,
	})
}

// MarshalBER implements encode.Marshaler.
func (r *CompareRequest) MarshalBER() (*encode.Node, error) {
	return encode.Constructed(ber.Application(ApplicationCompareRequest, true),
		encode.String(r.DN),
		encode.Sequence(encode.String(r.Attribute), encode.OctetString(r.Value)),
	), nil
}

// Validate validates the CompareRequest.
func (r *CompareRequest) Validate() error {
	if r.DN == "" {
		return ErrEmptyCompareDN
	}
	if r.Attribute == "" {
		return ErrEmptyCompareAttribute
	}
	return nil
}
