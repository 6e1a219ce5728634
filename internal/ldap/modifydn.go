package ldap

import (
	"errors"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// ModifyDNRequest represents an LDAP ModifyDN Request
// ModifyDNRequest ::= [APPLICATION 12] SEQUENCE {
//
//	entry           LDAPDN,
//	newrdn          RelativeLDAPDN,
//	deleteoldrdn    BOOLEAN,
//	newSuperior     [0] LDAPDN OPTIONAL
//
// }
type ModifyDNRequest struct {
	// Entry is the DN of the entry to rename/move
	Entry string
	// NewRDN is the new relative distinguished name
	NewRDN string
	// DeleteOldRDN indicates whether to delete the old RDN attribute values
	DeleteOldRDN bool
	// NewSuperior is the optional new parent DN (for moving entries)
	NewSuperior string
}

// Errors for ModifyDNRequest parsing
var (
	// ErrEmptyModifyDNEntry is returned when the entry DN is empty
	ErrEmptyModifyDNEntry = errors.New("ldap: modifydn entry DN cannot be empty")
	// ErrEmptyNewRDN is returned when the new RDN is empty
	ErrEmptyNewRDN = errors.New("ldap: modifydn new RDN cannot be empty")
)

const (
	mdnStart grammar.State = iota
	mdnRequest
	mdnEntry
	mdnNewRDN
	mdnDeleteOld
	mdnSuperior
)

// ModifyDNRequestGrammar decodes a complete [APPLICATION 12] ModifyDNRequest.
var ModifyDNRequestGrammar = grammar.MustDefine("ModifyDNRequest", mdnStart,
	[]grammar.State{mdnDeleteOld, mdnSuperior},
	grammar.On[ModifyDNRequest](mdnStart, ber.Application(ApplicationModifyDNRequest, true), mdnRequest, nil),
	grammar.On(mdnRequest, ber.OctetStringTag, mdnEntry, func(r *ModifyDNRequest, v grammar.Value) error {
		r.Entry = string(v.Bytes)
		return nil
	}),
	grammar.On(mdnEntry, ber.OctetStringTag, mdnNewRDN, func(r *ModifyDNRequest, v grammar.Value) error {
		r.NewRDN = string(v.Bytes)
		return nil
	}),
	grammar.On(mdnNewRDN, ber.BooleanTag, mdnDeleteOld, func(r *ModifyDNRequest, v grammar.Value) (err error) {
		r.DeleteOldRDN, err = ber.ParseBoolean(v.Bytes)
		return err
	}),
	grammar.On(mdnDeleteOld, ber.Context(0, false), mdnSuperior, func(r *ModifyDNRequest, v grammar.Value) error {
		r.NewSuperior = string(v.Bytes)
		return nil
	}),
)

// ParseModifyDNRequest parses a ModifyDNRequest from raw operation data.
// The data should be the contents of the APPLICATION 12 tag (without the tag and length).
func ParseModifyDNRequest(data []byte) (*ModifyDNRequest, error) {
	return parseOperation(ModifyDNRequestGrammar, &RawOperation{
		Tag:         ApplicationModifyDNRequest,
		Constructed: true,
		Data:        data,
	})
}

// MarshalBER implements encode.Marshaler.
func (r *ModifyDNRequest) MarshalBER() (*encode.Node, error) {
	var superior *encode.Node
	if r.HasNewSuperior() {
		superior = encode.Primitive(ber.Context(0, false), []byte(r.NewSuperior))
	}
	return encode.Constructed(ber.Application(ApplicationModifyDNRequest, true),
		encode.String(r.Entry),
		encode.String(r.NewRDN),
		encode.Boolean(r.DeleteOldRDN),
		superior,
	), nil
}

// Validate validates the ModifyDNRequest.
func (r *ModifyDNRequest) Validate() error {
	if r.Entry == "" {
		return ErrEmptyModifyDNEntry
	}
	if r.NewRDN == "" {
		return ErrEmptyNewRDN
	}
	return nil
}

// HasNewSuperior returns true if a new superior (parent) DN is specified.
func (r *ModifyDNRequest) HasNewSuperior() bool {
	return r.NewSuperior != ""
}
