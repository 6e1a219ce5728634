package ldap

import (
	"errors"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// Context-specific tags for response fields
const (
	// ContextTagReferral is the tag for referral URIs in LDAPResult [3]
	ContextTagReferral = 3
	// ContextTagServerSASLCreds is the tag for server SASL credentials in BindResponse [7]
	ContextTagServerSASLCreds = 7
	// ContextTagResponseName is the tag for the ExtendedResponse name [10]
	ContextTagResponseName = 10
	// ContextTagResponseValue is the tag for the ExtendedResponse value [11]
	ContextTagResponseValue = 11
)

// OIDNoticeOfDisconnection is the responseName of the unsolicited
// notification sent before the server closes a connection (RFC 4511
// Section 4.4.1).
const OIDNoticeOfDisconnection = "1.3.6.1.4.1.1466.20036"

// ErrInvalidResponse is returned when a response carries fields its
// operation does not allow.
var ErrInvalidResponse = errors.New("ldap: invalid response")

// LDAPResult represents the common result structure used in most LDAP responses.
// Per RFC 4511 Section 4.1.9:
// LDAPResult ::= SEQUENCE {
//
//	resultCode         ENUMERATED { ... },
//	matchedDN          LDAPDN,
//	diagnosticMessage  LDAPString,
//	referral           [3] Referral OPTIONAL
//
// }
type LDAPResult struct {
	// ResultCode indicates the outcome of the operation
	ResultCode ResultCode
	// MatchedDN contains the DN of the last entry matched during processing
	MatchedDN string
	// DiagnosticMessage contains additional diagnostic information
	DiagnosticMessage string
	// Referral contains URIs to other servers (optional)
	Referral []string
}

// nodes returns the LDAPResult components.
func (r *LDAPResult) nodes() []*encode.Node {
	var referral *encode.Node
	if len(r.Referral) > 0 {
		referral = encode.Constructed(ber.Context(ContextTagReferral, true))
		for _, uri := range r.Referral {
			referral.Append(encode.String(uri))
		}
	}
	return []*encode.Node{
		encode.Enumerated(int64(r.ResultCode)),
		encode.String(r.MatchedDN),
		encode.String(r.DiagnosticMessage),
		referral,
	}
}

// Response is any LDAPResult-based response: BindResponse, SearchResultDone,
// ModifyResponse, AddResponse, DelResponse, ModifyDNResponse,
// CompareResponse and ExtendedResponse.
//
//	BindResponse ::= [APPLICATION 1] SEQUENCE {
//	    COMPONENTS OF LDAPResult,
//	    serverSaslCreds    [7] OCTET STRING OPTIONAL }
//
//	ExtendedResponse ::= [APPLICATION 24] SEQUENCE {
//	    COMPONENTS OF LDAPResult,
//	    responseName     [10] LDAPOID OPTIONAL,
//	    responseValue    [11] OCTET STRING OPTIONAL }
type Response struct {
	// Type is the response operation
	Type OperationType
	LDAPResult
	// ServerSASLCreds is only valid in a BindResponse
	ServerSASLCreds []byte
	// ResponseName and ResponseValue are only valid in an ExtendedResponse
	ResponseName  string
	ResponseValue []byte
}

// responseTypes are the operations whose body is an LDAPResult.
var responseTypes = []OperationType{
	ApplicationBindResponse,
	ApplicationSearchResultDone,
	ApplicationModifyResponse,
	ApplicationAddResponse,
	ApplicationDelResponse,
	ApplicationModifyDNResponse,
	ApplicationCompareResponse,
	ApplicationExtendedResponse,
}

// IsResultResponse reports whether op is encoded as an LDAPResult.
func IsResultResponse(op OperationType) bool {
	for _, t := range responseTypes {
		if t == op {
			return true
		}
	}
	return false
}

// Response grammar states.
const (
	resStart grammar.State = iota
	resBody
	resCode
	resMatchedDN
	resDiagnostic
	resReferralOpen
	resReferral
	resSASLCreds
	resName
	resValue
)

// ResponseGrammar decodes any LDAPResult-based response.
var ResponseGrammar = grammar.MustDefine("Response", resStart,
	[]grammar.State{resDiagnostic, resReferral, resSASLCreds, resName, resValue},
	responseRules()...,
)

func responseRules() []grammar.Rule[Response] {
	var rules []grammar.Rule[Response]
	for _, t := range responseTypes {
		rules = append(rules, grammar.On(resStart, ber.Application(int(t), true), resBody, setResponseType))
	}

	rules = append(rules,
		grammar.On(resBody, ber.EnumeratedTag, resCode, func(r *Response, v grammar.Value) error {
			code, err := ber.ParseInteger(v.Bytes)
			if err != nil {
				return err
			}
			r.ResultCode = ResultCode(code)
			return nil
		}),
		grammar.On(resCode, ber.OctetStringTag, resMatchedDN, func(r *Response, v grammar.Value) error {
			r.MatchedDN = string(v.Bytes)
			return nil
		}),
		grammar.On(resMatchedDN, ber.OctetStringTag, resDiagnostic, func(r *Response, v grammar.Value) error {
			r.DiagnosticMessage = string(v.Bytes)
			return nil
		}),
		grammar.On[Response](resDiagnostic, ber.Context(ContextTagReferral, true), resReferralOpen, nil).ClosingIn(resReferral),
		grammar.On(resReferralOpen, ber.OctetStringTag, resReferral, appendReferral),
		grammar.On(resReferral, ber.OctetStringTag, resReferral, appendReferral),
	)

	// Optional trailing fields may follow the diagnostic message or the
	// referral.
	for _, from := range []grammar.State{resDiagnostic, resReferral} {
		rules = append(rules,
			grammar.On(from, ber.Context(ContextTagServerSASLCreds, false), resSASLCreds, setServerSASLCreds),
			grammar.On(from, ber.Context(ContextTagResponseName, false), resName, setResponseName),
			grammar.On(from, ber.Context(ContextTagResponseValue, false), resValue, setResponseValue),
		)
	}
	rules = append(rules,
		grammar.On(resName, ber.Context(ContextTagResponseValue, false), resValue, setResponseValue),
	)
	return rules
}

func setResponseType(r *Response, v grammar.Value) error {
	r.Type = OperationType(v.Header.Tag.Number)
	return nil
}

func appendReferral(r *Response, v grammar.Value) error {
	r.Referral = append(r.Referral, string(v.Bytes))
	return nil
}

func setServerSASLCreds(r *Response, v grammar.Value) error {
	if r.Type != ApplicationBindResponse {
		return ErrInvalidResponse
	}
	r.ServerSASLCreds = ber.ParseOctetString(v.Bytes)
	return nil
}

func setResponseName(r *Response, v grammar.Value) error {
	if r.Type != ApplicationExtendedResponse {
		return ErrInvalidResponse
	}
	r.ResponseName = string(v.Bytes)
	return nil
}

func setResponseValue(r *Response, v grammar.Value) error {
	if r.Type != ApplicationExtendedResponse {
		return ErrInvalidResponse
	}
	r.ResponseValue = ber.ParseOctetString(v.Bytes)
	return nil
}

// ParseResponse decodes the operation of a response message.
func ParseResponse(op *RawOperation) (*Response, error) {
	if op == nil {
		return nil, ErrMissingOperation
	}
	if !op.Constructed || !IsResultResponse(OperationType(op.Tag)) {
		return nil, ErrInvalidOperation
	}
	return parseOperation(ResponseGrammar, op)
}

// MarshalBER implements encode.Marshaler.
func (r *Response) MarshalBER() (*encode.Node, error) {
	if !IsResultResponse(r.Type) {
		return nil, ErrInvalidOperation
	}
	if r.ServerSASLCreds != nil && r.Type != ApplicationBindResponse {
		return nil, ErrInvalidResponse
	}
	if (r.ResponseName != "" || r.ResponseValue != nil) && r.Type != ApplicationExtendedResponse {
		return nil, ErrInvalidResponse
	}

	n := encode.Constructed(ber.Application(int(r.Type), true), r.LDAPResult.nodes()...)
	if r.ServerSASLCreds != nil {
		n.Append(encode.Primitive(ber.Context(ContextTagServerSASLCreds, false), r.ServerSASLCreds))
	}
	if r.ResponseName != "" {
		n.Append(encode.Primitive(ber.Context(ContextTagResponseName, false), []byte(r.ResponseName)))
	}
	if r.ResponseValue != nil {
		n.Append(encode.Primitive(ber.Context(ContextTagResponseValue, false), r.ResponseValue))
	}
	return n, nil
}

// NewSuccessResult creates a new LDAPResult with success status.
func NewSuccessResult() LDAPResult {
	return LDAPResult{ResultCode: ResultSuccess}
}

// NewErrorResult creates a new LDAPResult with the specified error.
func NewErrorResult(code ResultCode, message string) LDAPResult {
	return LDAPResult{ResultCode: code, DiagnosticMessage: message}
}

// NewErrorResultWithDN creates a new LDAPResult with error and matched DN.
func NewErrorResultWithDN(code ResultCode, matchedDN, message string) LDAPResult {
	return LDAPResult{ResultCode: code, MatchedDN: matchedDN, DiagnosticMessage: message}
}

// NewResponse returns the response to a request of type req, or
// ErrInvalidOperation if req has no response.
func NewResponse(req OperationType, result LDAPResult) (*Response, error) {
	t, ok := req.ResponseType()
	if !ok {
		return nil, ErrInvalidOperation
	}
	return &Response{Type: t, LDAPResult: result}, nil
}

// NewNoticeOfDisconnection returns the unsolicited notification sent before
// the server drops a connection. It is carried in message ID 0.
func NewNoticeOfDisconnection(code ResultCode, message string) (*LDAPMessage, error) {
	return NewMessage(0, &Response{
		Type:         ApplicationExtendedResponse,
		LDAPResult:   NewErrorResult(code, message),
		ResponseName: OIDNoticeOfDisconnection,
	})
}
