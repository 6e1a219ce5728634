package ldap

import (
	"errors"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// ModifyOperation represents the type of modification operation
type ModifyOperation int

const (
	// ModifyOperationAdd adds values to an attribute
	ModifyOperationAdd ModifyOperation = 0
	// ModifyOperationDelete deletes values from an attribute
	ModifyOperationDelete ModifyOperation = 1
	// ModifyOperationReplace replaces all values of an attribute
	ModifyOperationReplace ModifyOperation = 2
)

// String returns the string representation of the modify operation
func (m ModifyOperation) String() string {
	switch m {
	case ModifyOperationAdd:
		return "Add"
	case ModifyOperationDelete:
		return "Delete"
	case ModifyOperationReplace:
		return "Replace"
	default:
		return "Unknown"
	}
}

// Modification represents a single modification in a ModifyRequest
// Change ::= SEQUENCE {
//
//	operation       ENUMERATED { add(0), delete(1), replace(2) },
//	modification    PartialAttribute
//
// }
type Modification struct {
	// Operation is the type of modification
	Operation ModifyOperation
	// Attribute contains the attribute type and values for the modification
	Attribute Attribute
}

// ModifyRequest represents an LDAP Modify Request
// ModifyRequest ::= [APPLICATION 6] SEQUENCE {
//
//	object          LDAPDN,
//	changes         SEQUENCE OF change Change
//
// }
type ModifyRequest struct {
	// Object is the DN of the entry to modify
	Object string
	// Changes contains the list of modifications to apply
	Changes []Modification
}

// Errors for ModifyRequest parsing
var (
	// ErrEmptyModifyObject is returned when the object DN is empty
	ErrEmptyModifyObject = errors.New("ldap: modify object DN cannot be empty")
	// ErrInvalidModifyOperation is returned when the modify operation is invalid
	ErrInvalidModifyOperation = errors.New("ldap: invalid modify operation")
)

// Change grammar states.
const (
	chStart grammar.State = iota
	chSequence
	chOperation
	chModification
)

// ChangeGrammar decodes one element of a ModifyRequest's changes:
//
//	change ::= SEQUENCE {
//	    operation       ENUMERATED { add (0), delete (1), replace (2), ... },
//	    modification    PartialAttribute }
var ChangeGrammar = grammar.MustDefine("Change", chStart, []grammar.State{chModification},
	grammar.On[Modification](chStart, ber.SequenceTag, chSequence, nil),
	grammar.On(chSequence, ber.EnumeratedTag, chOperation, func(m *Modification, v grammar.Value) error {
		op, err := ber.ParseInteger(v.Bytes)
		if err != nil {
			return err
		}
		if op < int64(ModifyOperationAdd) || op > int64(ModifyOperationReplace) {
			return ErrInvalidModifyOperation
		}
		m.Operation = ModifyOperation(op)
		return nil
	}),
	grammar.Embed(chOperation, ber.SequenceTag, chModification, AttributeGrammar, func(m *Modification, a *Attribute) error {
		m.Attribute = *a
		return nil
	}),
)

// ModifyRequest grammar states.
const (
	modStart grammar.State = iota
	modRequest
	modObject
	modChanges
)

// ModifyRequestGrammar decodes a complete [APPLICATION 6] ModifyRequest.
var ModifyRequestGrammar = grammar.MustDefine("ModifyRequest", modStart, []grammar.State{modChanges},
	grammar.On[ModifyRequest](modStart, ber.Application(ApplicationModifyRequest, true), modRequest, nil),
	grammar.On(modRequest, ber.OctetStringTag, modObject, func(r *ModifyRequest, v grammar.Value) error {
		r.Object = string(v.Bytes)
		return nil
	}),
	grammar.On[ModifyRequest](modObject, ber.SequenceTag, modChanges, nil),
	grammar.Embed(modChanges, ber.SequenceTag, modChanges, ChangeGrammar, func(r *ModifyRequest, m *Modification) error {
		r.Changes = append(r.Changes, *m)
		return nil
	}),
)

// ParseModifyRequest parses a ModifyRequest from raw operation data.
// The data should be the contents of the APPLICATION 6 tag (without the tag and length).
func ParseModifyRequest(data []byte) (*ModifyRequest, error) {
	return parseOperation(ModifyRequestGrammar, &RawOperation{
		Tag:         ApplicationModifyRequest,
		Constructed: true,
		Data:        data,
	})
}

// MarshalBER implements encode.Marshaler.
func (r *ModifyRequest) MarshalBER() (*encode.Node, error) {
	changes := encode.Sequence()
	for i := range r.Changes {
		c := &r.Changes[i]
		if c.Operation < ModifyOperationAdd || c.Operation > ModifyOperationReplace {
			return nil, ErrInvalidModifyOperation
		}
		changes.Append(encode.Sequence(encode.Enumerated(int64(c.Operation)), c.Attribute.marshal()))
	}
	return encode.Constructed(ber.Application(ApplicationModifyRequest, true), encode.String(r.Object), changes), nil
}

// Validate validates the ModifyRequest.
func (r *ModifyRequest) Validate() error {
	if r.Object == "" {
		return ErrEmptyModifyObject
	}
	for _, c := range r.Changes {
		if c.Attribute.Type == "" {
			return ErrInvalidAttribute
		}
	}
	return nil
}

// AddModification appends a modification to the request.
func (r *ModifyRequest) AddModification(op ModifyOperation, attrType string, values ...[]byte) {
	r.Changes = append(r.Changes, Modification{
		Operation: op,
		Attribute: Attribute{Type: attrType, Values: values},
	})
}
