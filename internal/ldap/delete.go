package ldap

import (
	"errors"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// DeleteRequest represents an LDAP Delete Request
// DelRequest ::= [APPLICATION 10] LDAPDN
// Note: DelRequest is a primitive type (just an LDAPDN), not a SEQUENCE
type DeleteRequest struct {
	// DN is the distinguished name of the entry to delete
	DN string
}

// Errors for DeleteRequest parsing
var (
	// ErrEmptyDeleteDN is returned when the DN to delete is empty
	ErrEmptyDeleteDN = errors.New("ldap: delete DN cannot be empty")
	// ErrInvalidAbandonID is returned when an abandoned message ID is out of range
	ErrInvalidAbandonID = errors.New("ldap: abandon message ID out of valid range")
)

// States shared by the single-TLV operation grammars.
const (
	primStart grammar.State = iota
	primDone
)

// DeleteRequestGrammar decodes a primitive [APPLICATION 10] DelRequest.
var DeleteRequestGrammar = grammar.MustDefine("DelRequest", primStart, []grammar.State{primDone},
	grammar.On(primStart, ber.Application(ApplicationDelRequest, false), primDone, func(r *DeleteRequest, v grammar.Value) error {
		r.DN = string(v.Bytes)
		return nil
	}),
)

// ParseDeleteRequest parses a DeleteRequest from raw operation data.
// The data should be the contents of the APPLICATION 10 tag (without the tag and length).
func ParseDeleteRequest(data []byte) (*DeleteRequest, error) {
	return parseOperation(DeleteRequestGrammar, &RawOperation{Tag: ApplicationDelRequest, Data: data})
}

// MarshalBER implements encode.Marshaler.
func (r *DeleteRequest) MarshalBER() (*encode.Node, error) {
	return encode.Primitive(ber.Application(ApplicationDelRequest, false), []byte(r.DN)), nil
}

// Validate validates the DeleteRequest.
func (r *DeleteRequest) Validate() error {
	if r.DN == "" {
		return ErrEmptyDeleteDN
	}
	return nil
}

// UnbindRequest represents an LDAP Unbind Request
// UnbindRequest ::= [APPLICATION 2] NULL
type UnbindRequest struct{}

// UnbindRequestGrammar decodes a primitive [APPLICATION 2] UnbindRequest.
var UnbindRequestGrammar = grammar.MustDefine("UnbindRequest", primStart, []grammar.State{primDone},
	grammar.On(primStart, ber.Application(ApplicationUnbindRequest, false), primDone, func(_ *UnbindRequest, v grammar.Value) error {
		return ber.ParseNull(v.Bytes)
	}),
)

// ParseUnbindRequest parses an UnbindRequest from raw operation data.
// The data must be empty since UnbindRequest is NULL.
func ParseUnbindRequest(data []byte) (*UnbindRequest, error) {
	return parseOperation(UnbindRequestGrammar, &RawOperation{Tag: ApplicationUnbindRequest, Data: data})
}

// MarshalBER implements encode.Marshaler.
func (r *UnbindRequest) MarshalBER() (*encode.Node, error) {
	return encode.Primitive(ber.Application(ApplicationUnbindRequest, false), nil), nil
}

// AbandonRequest represents an LDAP Abandon Request
// AbandonRequest ::= [APPLICATION 16] MessageID
// Note: AbandonRequest is a primitive INTEGER (MessageID)
type AbandonRequest struct {
	// MessageID is the ID of the message to abandon
	MessageID int
}

// AbandonRequestGrammar decodes a primitive [APPLICATION 16] AbandonRequest.
var AbandonRequestGrammar = grammar.MustDefine("AbandonRequest", primStart, []grammar.State{primDone},
	grammar.On(primStart, ber.Application(ApplicationAbandonRequest, false), primDone, func(r *AbandonRequest, v grammar.Value) error {
		id, err := ber.ParseInteger(v.Bytes)
		if err != nil {
			return err
		}
		if id < MinMessageID || id > MaxMessageID {
			return ErrInvalidAbandonID
		}
		r.MessageID = int(id)
		return nil
	}),
)

// ParseAbandonRequest parses an AbandonRequest from raw operation data.
// The data should be the contents of the APPLICATION 16 tag (without the tag and length).
func ParseAbandonRequest(data []byte) (*AbandonRequest, error) {
	return parseOperation(AbandonRequestGrammar, &RawOperation{Tag: ApplicationAbandonRequest, Data: data})
}

// MarshalBER implements encode.Marshaler.
func (r *AbandonRequest) MarshalBER() (*encode.Node, error) {
	if r.MessageID < MinMessageID || r.MessageID > MaxMessageID {
		return nil, ErrInvalidAbandonID
	}
	return encode.Retag(ber.Application(ApplicationAbandonRequest, false), encode.Integer(int64(r.MessageID))), nil
}
