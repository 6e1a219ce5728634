package ldap

import (
	"errors"
	"fmt"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// Authentication method tags (context-specific)
const (
	// AuthSimple is the tag for simple authentication [0]
	AuthSimple = 0
	// AuthSASL is the tag for SASL authentication [3]
	AuthSASL = 3
)

// AuthMethod represents the authentication method used in a BindRequest
type AuthMethod int

const (
	// AuthMethodSimple indicates simple (password) authentication
	AuthMethodSimple AuthMethod = iota
	// AuthMethodSASL indicates SASL authentication
	AuthMethodSASL
)

// String returns the string representation of the authentication method
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodSimple:
		return "Simple"
	case AuthMethodSASL:
		return "SASL"
	default:
		return "Unknown"
	}
}

// SASLCredentials represents SASL authentication credentials
// SaslCredentials ::= SEQUENCE {
//
//	mechanism               LDAPString,
//	credentials             OCTET STRING OPTIONAL
//
// }
type SASLCredentials struct {
	// Mechanism is the SASL mechanism name (e.g., "PLAIN", "GSSAPI")
	Mechanism string
	// Credentials is the optional SASL credentials
	Credentials []byte
}

// BindRequest represents an LDAP Bind Request
// BindRequest ::= [APPLICATION 0] SEQUENCE {
//
//	version                 INTEGER (1 .. 127),
//	name                    LDAPDN,
//	authentication          AuthenticationChoice
//
// }
// AuthenticationChoice ::= CHOICE {
//
//	simple                  [0] OCTET STRING,
//	sasl                    [3] SaslCredentials
//
// }
type BindRequest struct {
	// Version is the LDAP protocol version (typically 3)
	Version int
	// Name is the DN of the user binding
	Name string
	// AuthMethod indicates the authentication method used
	AuthMethod AuthMethod
	// SimplePassword contains the password for simple authentication
	SimplePassword []byte
	// SASLCredentials contains SASL credentials for SASL authentication
	SASLCredentials *SASLCredentials
}

// Errors for BindRequest parsing
var (
	// ErrInvalidBindVersion is returned when the bind version is out of range
	ErrInvalidBindVersion = errors.New("ldap: bind version must be between 1 and 127")
	// ErrUnknownAuthMethod is returned when the authentication method is unknown
	ErrUnknownAuthMethod = errors.New("ldap: unknown authentication method")
	// ErrInvalidSASLCredentials is returned when SASL credentials are malformed
	ErrInvalidSASLCredentials = errors.New("ldap: invalid SASL credentials")
)

// BindRequest grammar states.
const (
	bindStart grammar.State = iota
	bindRequest
	bindVersion
	bindName
	bindSimple
	bindSASL
	bindMechanism
	bindCredentials
)

// BindRequestGrammar decodes a complete [APPLICATION 0] BindRequest.
var BindRequestGrammar = grammar.MustDefine("BindRequest", bindStart,
	[]grammar.State{bindSimple, bindMechanism, bindCredentials},
	grammar.On[BindRequest](bindStart, ber.Application(ApplicationBindRequest, true), bindRequest, nil),
	grammar.On(bindRequest, ber.IntegerTag, bindVersion, func(r *BindRequest, v grammar.Value) error {
		version, err := ber.ParseInteger(v.Bytes)
		if err != nil {
			return err
		}
		if version < 1 || version > 127 {
			return ErrInvalidBindVersion
		}
		r.Version = int(version)
		return nil
	}),
	grammar.On(bindVersion, ber.OctetStringTag, bindName, func(r *BindRequest, v grammar.Value) error {
		r.Name = string(v.Bytes)
		return nil
	}),
	grammar.On(bindName, ber.Context(AuthSimple, false), bindSimple, func(r *BindRequest, v grammar.Value) error {
		r.AuthMethod = AuthMethodSimple
		r.SimplePassword = ber.ParseOctetString(v.Bytes)
		return nil
	}),
	grammar.On(bindName, ber.Context(AuthSASL, true), bindSASL, func(r *BindRequest, _ grammar.Value) error {
		r.AuthMethod = AuthMethodSASL
		r.SASLCredentials = &SASLCredentials{}
		return nil
	}).ClosingIn(bindMechanism, bindCredentials),
	grammar.On(bindSASL, ber.OctetStringTag, bindMechanism, func(r *BindRequest, v grammar.Value) error {
		r.SASLCredentials.Mechanism = string(v.Bytes)
		return nil
	}),
	grammar.On(bindMechanism, ber.OctetStringTag, bindCredentials, func(r *BindRequest, v grammar.Value) error {
		r.SASLCredentials.Credentials = ber.ParseOctetString(v.Bytes)
		return nil
	}),
)

// ParseBindRequest parses a BindRequest from raw operation data.
// The data should be the contents of the APPLICATION 0 tag (without the tag and length).
func ParseBindRequest(data []byte) (*BindRequest, error) {
	req, err := parseOperation(BindRequestGrammar, &RawOperation{
		Tag:         ApplicationBindRequest,
		Constructed: true,
		Data:        data,
	})
	if err != nil {
		var de *ber.DecodeError
		if errors.As(err, &de) && de.Kind == ber.KindUnexpectedTag && de.Tag != nil &&
			de.Tag.Class == ber.ClassContextSpecific {
			return nil, fmt.Errorf("%w: %w", ErrUnknownAuthMethod, err)
		}
		return nil, err
	}
	return req, nil
}

// MarshalBER implements encode.Marshaler.
func (r *BindRequest) MarshalBER() (*encode.Node, error) {
	if r.Version < 1 || r.Version > 127 {
		return nil, ErrInvalidBindVersion
	}

	var auth *encode.Node
	switch r.AuthMethod {
	case AuthMethodSimple:
		auth = encode.Primitive(ber.Context(AuthSimple, false), r.SimplePassword)
	case AuthMethodSASL:
		if r.SASLCredentials == nil || r.SASLCredentials.Mechanism == "" {
			return nil, ErrInvalidSASLCredentials
		}
		var creds *encode.Node
		if r.SASLCredentials.Credentials != nil {
			creds = encode.OctetString(r.SASLCredentials.Credentials)
		}
		auth = encode.Constructed(ber.Context(AuthSASL, true),
			encode.String(r.SASLCredentials.Mechanism), creds)
	default:
		return nil, ErrUnknownAuthMethod
	}

	return encode.Constructed(ber.Application(ApplicationBindRequest, true),
		encode.Integer(int64(r.Version)),
		encode.String(r.Name),
		auth,
	), nil
}

// IsAnonymous returns true if this is an anonymous bind request.
// An anonymous bind has an empty name and empty simple password.
func (r *BindRequest) IsAnonymous() bool {
	return r.Name == "" && r.AuthMethod == AuthMethodSimple && len(r.SimplePassword) == 0
}
