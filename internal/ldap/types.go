package ldap

import (
	"errors"
	"fmt"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
)

// LDAP protocol operation tags (APPLICATION class)
// Per RFC 4511 Section 4.2
const (
	ApplicationBindRequest           = 0  // [APPLICATION 0]
	ApplicationBindResponse          = 1  // [APPLICATION 1]
	ApplicationUnbindRequest         = 2  // [APPLICATION 2]
	ApplicationSearchRequest         = 3  // [APPLICATION 3]
	ApplicationSearchResultEntry     = 4  // [APPLICATION 4]
	ApplicationSearchResultDone      = 5  // [APPLICATION 5]
	ApplicationModifyRequest         = 6  // [APPLICATION 6]
	ApplicationModifyResponse        = 7  // [APPLICATION 7]
	ApplicationAddRequest            = 8  // [APPLICATION 8]
	ApplicationAddResponse           = 9  // [APPLICATION 9]
	ApplicationDelRequest            = 10 // [APPLICATION 10]
	ApplicationDelResponse           = 11 // [APPLICATION 11]
	ApplicationModifyDNRequest       = 12 // [APPLICATION 12]
	ApplicationModifyDNResponse      = 13 // [APPLICATION 13]
	ApplicationCompareRequest        = 14 // [APPLICATION 14]
	ApplicationCompareResponse       = 15 // [APPLICATION 15]
	ApplicationAbandonRequest        = 16 // [APPLICATION 16]
	ApplicationSearchResultReference = 19 // [APPLICATION 19]
	ApplicationExtendedRequest       = 23 // [APPLICATION 23]
	ApplicationExtendedResponse      = 24 // [APPLICATION 24]
	ApplicationIntermediateResponse  = 25 // [APPLICATION 25]
)

// OperationType represents the type of LDAP operation
type OperationType int

// operation describes an APPLICATION tag: its ASN.1 name and, for requests
// that are answered, the tag of the response.
type operation struct {
	name     string
	response OperationType
	answered bool
}

var operations = map[OperationType]operation{
	ApplicationBindRequest:           {"BindRequest", ApplicationBindResponse, true},
	ApplicationBindResponse:          {name: "BindResponse"},
	ApplicationUnbindRequest:         {name: "UnbindRequest"},
	ApplicationSearchRequest:         {"SearchRequest", ApplicationSearchResultDone, true},
	ApplicationSearchResultEntry:     {name: "SearchResultEntry"},
	ApplicationSearchResultDone:      {name: "SearchResultDone"},
	ApplicationModifyRequest:         {"ModifyRequest", ApplicationModifyResponse, true},
	ApplicationModifyResponse:        {name: "ModifyResponse"},
	ApplicationAddRequest:            {"AddRequest", ApplicationAddResponse, true},
	ApplicationAddResponse:           {name: "AddResponse"},
	ApplicationDelRequest:            {"DelRequest", ApplicationDelResponse, true},
	ApplicationDelResponse:           {name: "DelResponse"},
	ApplicationModifyDNRequest:       {"ModifyDNRequest", ApplicationModifyDNResponse, true},
	ApplicationModifyDNResponse:      {name: "ModifyDNResponse"},
	ApplicationCompareRequest:        {"CompareRequest", ApplicationCompareResponse, true},
	ApplicationCompareResponse:       {name: "CompareResponse"},
	ApplicationAbandonRequest:        {name: "AbandonRequest"},
	ApplicationSearchResultReference: {name: "SearchResultReference"},
	ApplicationExtendedRequest:       {"ExtendedRequest", ApplicationExtendedResponse, true},
	ApplicationExtendedResponse:      {name: "ExtendedResponse"},
	ApplicationIntermediateResponse:  {name: "IntermediateResponse"},
}

// String returns the ASN.1 name of the operation.
func (o OperationType) String() string {
	if op, ok := operations[o]; ok {
		return op.name
	}
	return fmt.Sprintf("Unknown(%d)", int(o))
}

// ResponseType returns the response operation for a request operation, and
// false for operations without a response (Unbind, Abandon) or for
// responses.
func (o OperationType) ResponseType() (OperationType, bool) {
	op := operations[o]
	return op.response, op.answered
}

// Context-specific tags for Controls
const (
	ContextTagControls = 0 // [0] Controls OPTIONAL
)

// MaxMessageID is the maximum valid message ID per RFC 4511
// MessageID ::= INTEGER (0 .. maxInt)
// maxInt INTEGER ::= 2147483647 -- (2^^31 - 1)
const MaxMessageID = 2147483647

// MinMessageID is the minimum valid message ID
const MinMessageID = 0

// Control represents an LDAP control as defined in RFC 4511 Section 4.1.11
// Control ::= SEQUENCE {
//
//	controlType             LDAPOID,
//	criticality             BOOLEAN DEFAULT FALSE,
//	controlValue            OCTET STRING OPTIONAL
//
// }
type Control struct {
	// OID is the control type OID
	OID string
	// Criticality indicates whether the control is critical
	Criticality bool
	// Value is the optional control value
	Value []byte
}

// RawOperation holds the tag and content of an LDAP operation that the
// envelope grammar does not decode. Operation grammars (ParseBindRequest,
// ParseCompareRequest, ...) decode it on demand.
type RawOperation struct {
	// Tag is the APPLICATION tag number identifying the operation type
	Tag int
	// Constructed is the constructed bit of the operation's tag
	Constructed bool
	// Data contains the operation content (without tag and length)
	Data []byte
}

// BERTag returns the operation's tag.
func (op *RawOperation) BERTag() ber.Tag {
	return ber.Application(op.Tag, op.Constructed)
}

// TLV returns the complete encoding of the operation.
func (op *RawOperation) TLV() []byte {
	out := ber.AppendHeader(make([]byte, 0, 6+len(op.Data)), op.BERTag(), len(op.Data))
	return append(out, op.Data...)
}

// LDAPMessage represents an LDAP protocol message envelope.
// Per RFC 4511 Section 4.1.1:
// LDAPMessage ::= SEQUENCE {
//
//	messageID       MessageID,
//	protocolOp      CHOICE { ... },
//	controls        [0] Controls OPTIONAL
//
// }
type LDAPMessage struct {
	// MessageID uniquely identifies the message within a connection
	MessageID int
	// Operation holds the raw protocol operation
	Operation *RawOperation
	// Controls contains optional message controls
	Controls []Control
}

// OperationType returns the type of operation in this message
func (m *LDAPMessage) OperationType() OperationType {
	if m.Operation == nil {
		return -1
	}
	return OperationType(m.Operation.Tag)
}

// Control returns the first control with the given OID, or nil.
func (m *LDAPMessage) Control(oid string) *Control {
	for i := range m.Controls {
		if m.Controls[i].OID == oid {
			return &m.Controls[i]
		}
	}
	return nil
}

// Errors for LDAP message parsing
var (
	// ErrInvalidMessageID is returned when the message ID is out of valid range
	ErrInvalidMessageID = errors.New("ldap: message ID out of valid range (0 to 2147483647)")

	// ErrMissingOperation is returned when the protocol operation is missing
	ErrMissingOperation = errors.New("ldap: missing protocol operation")

	// ErrInvalidOperation is returned when an operation has the wrong tag
	ErrInvalidOperation = errors.New("ldap: unexpected protocol operation")

	// ErrInvalidControlOID is returned when a control OID is invalid
	ErrInvalidControlOID = errors.New("ldap: invalid control OID")

	// ErrEmptyMessage is returned when trying to parse empty data
	ErrEmptyMessage = errors.New("ldap: empty message data")
)
