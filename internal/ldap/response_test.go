package ldap

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	gober "github.com/go-asn1-ber/asn1-ber"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
)

func TestResultCode_String(t *testing.T) {
	tests := []struct {
		code ResultCode
		want string
	}{
		{ResultSuccess, "success"},
		{ResultProtocolError, "protocolError"},
		{ResultAuthMethodNotSupported, "authMethodNotSupported"},
		{ResultSASLBindInProgress, "saslBindInProgress"},
		{ResultInvalidCredentials, "invalidCredentials"},
		{ResultUnwillingToPerform, "unwillingToPerform"},
		{ResultOther, "other"},
		{ResultCode(999), "unknown(999)"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("ResultCode(%d).String() = %q, want %q", int(tt.code), got, tt.want)
		}
	}
}

func TestResultCode_IsError(t *testing.T) {
	tests := []struct {
		code    ResultCode
		success bool
		isError bool
	}{
		{ResultSuccess, true, false},
		{ResultCompareFalse, false, false},
		{ResultCompareTrue, false, false},
		{ResultReferral, false, false},
		{ResultSASLBindInProgress, false, false},
		{ResultProtocolError, false, true},
		{ResultNoSuchObject, false, true},
	}
	for _, tt := range tests {
		if tt.code.IsSuccess() != tt.success || tt.code.IsError() != tt.isError {
			t.Errorf("%v: IsSuccess = %v, IsError = %v", tt.code, tt.code.IsSuccess(), tt.code.IsError())
		}
	}
}

func TestResultCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ResultCode
	}{
		{"nil", nil, ResultSuccess},
		{"bind version", fmt.Errorf("wrapped: %w", ErrInvalidBindVersion), ResultProtocolError},
		{"auth method", ErrUnknownAuthMethod, ResultAuthMethodNotSupported},
		{"decode error", ber.NewDecodeError(ber.KindNestingTooDeep, 3, "", nil), ResultProtocolError},
		{"encode error", &ber.EncodeError{Kind: ber.KindBufferTooSmall}, ResultProtocolError},
		{"other", errors.New("boom"), ResultOther},
	}
	for _, tt := range tests {
		if got := ResultCodeForError(tt.err); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func bindResponsePacket(code int64, matchedDN, diagnostic string, saslCreds *string) *gober.Packet {
	p := gober.Encode(gober.ClassApplication, gober.TypeConstructed, ApplicationBindResponse, nil, "Bind Response")
	p.AppendChild(gober.NewInteger(gober.ClassUniversal, gober.TypePrimitive, gober.TagEnumerated, code, "resultCode"))
	p.AppendChild(octetString(matchedDN))
	p.AppendChild(octetString(diagnostic))
	if saslCreds != nil {
		p.AppendChild(gober.NewString(gober.ClassContext, gober.TypePrimitive, ContextTagServerSASLCreds, *saslCreds, "serverSaslCreds"))
	}
	return p
}

func TestParseResponse_BindResponseInterop(t *testing.T) {
	creds := "server-token"
	p := bindResponsePacket(int64(ResultSASLBindInProgress), "", "continue", &creds)
	msg, err := ParseLDAPMessage(envelope(6, p))
	if err != nil {
		t.Fatalf("ParseLDAPMessage failed: %v", err)
	}

	resp, err := ParseResponse(msg.Operation)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if resp.Type != ApplicationBindResponse || resp.ResultCode != ResultSASLBindInProgress {
		t.Errorf("got %v %v", resp.Type, resp.ResultCode)
	}
	if resp.DiagnosticMessage != "continue" || string(resp.ServerSASLCreds) != creds {
		t.Errorf("got %+v", resp)
	}

	got, err := encode.Encode(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, p.Bytes()) {
		t.Errorf("encoding = %x, want %x", got, p.Bytes())
	}
}

func TestResponse_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		resp Response
	}{
		{"search done", Response{Type: ApplicationSearchResultDone, LDAPResult: NewSuccessResult()}},
		{"modify", Response{Type: ApplicationModifyResponse, LDAPResult: NewErrorResult(ResultNoSuchObject, "no entry")}},
		{"add", Response{Type: ApplicationAddResponse, LDAPResult: NewErrorResultWithDN(ResultEntryAlreadyExists, "dc=example", "exists")}},
		{"delete", Response{Type: ApplicationDelResponse, LDAPResult: NewSuccessResult()}},
		{"modify dn", Response{Type: ApplicationModifyDNResponse, LDAPResult: NewSuccessResult()}},
		{"compare", Response{Type: ApplicationCompareResponse, LDAPResult: LDAPResult{ResultCode: ResultCompareTrue}}},
		{
			"referral",
			Response{Type: ApplicationSearchResultDone, LDAPResult: LDAPResult{
				ResultCode: ResultReferral,
				Referral:   []string{"ldap://a.example.com/", "ldap://b.example.com/"},
			}},
		},
		{"bind with creds", Response{Type: ApplicationBindResponse, LDAPResult: NewSuccessResult(), ServerSASLCreds: []byte{}}},
		{
			"extended",
			Response{
				Type:          ApplicationExtendedResponse,
				LDAPResult:    NewSuccessResult(),
				ResponseName:  "1.3.6.1.4.1.4203.1.11.3",
				ResponseValue: []byte("dn:cn=admin"),
			},
		},
		{
			"extended value only after referral",
			Response{
				Type:          ApplicationExtendedResponse,
				LDAPResult:    LDAPResult{ResultCode: ResultReferral, Referral: []string{"ldap://x/"}},
				ResponseValue: []byte{1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(8, &tt.resp)
			if err != nil {
				t.Fatalf("NewMessage failed: %v", err)
			}
			data, err := msg.Encode()
			if err != nil {
				t.Fatal(err)
			}
			decoded, err := ParseLDAPMessage(data)
			if err != nil {
				t.Fatal(err)
			}
			got, err := ParseResponse(decoded.Operation)
			if err != nil {
				t.Fatalf("ParseResponse failed: %v", err)
			}

			want := tt.resp
			if got.Type != want.Type || got.ResultCode != want.ResultCode || got.MatchedDN != want.MatchedDN ||
				got.DiagnosticMessage != want.DiagnosticMessage || got.ResponseName != want.ResponseName {
				t.Errorf("got %+v, want %+v", got, want)
			}
			if fmt.Sprint(got.Referral) != fmt.Sprint(want.Referral) {
				t.Errorf("Referral = %q, want %q", got.Referral, want.Referral)
			}
			if !bytes.Equal(got.ServerSASLCreds, want.ServerSASLCreds) || (got.ServerSASLCreds == nil) != (want.ServerSASLCreds == nil) {
				t.Errorf("ServerSASLCreds = %q", got.ServerSASLCreds)
			}
			if !bytes.Equal(got.ResponseValue, want.ResponseValue) {
				t.Errorf("ResponseValue = %q", got.ResponseValue)
			}
		})
	}
}

func TestParseResponse_Errors(t *testing.T) {
	tests := []struct {
		name string
		op   *RawOperation
		want error
	}{
		{"nil", nil, ErrMissingOperation},
		{"request", &RawOperation{Tag: ApplicationBindRequest, Constructed: true}, ErrInvalidOperation},
		{"primitive", &RawOperation{Tag: ApplicationDelResponse}, ErrInvalidOperation},
		// sasl creds in a DelResponse
		{"sasl creds", &RawOperation{Tag: ApplicationDelResponse, Constructed: true, Data: mustHex(t, "0a 01 00 04 00 04 00 87 00")}, ErrInvalidResponse},
		// responseName in a BindResponse
		{"response name", &RawOperation{Tag: ApplicationBindResponse, Constructed: true, Data: mustHex(t, "0a 01 00 04 00 04 00 8a 00")}, ErrInvalidResponse},
		// serverSaslCreds inside the referral
		{"creds in referral", &RawOperation{Tag: ApplicationBindResponse, Constructed: true, Data: mustHex(t, "0a 01 0a 04 00 04 00 a3 07 04 03 6c 3a 2f 87 00")}, ber.ErrUnexpectedEndOfMessage},
		{"empty referral", &RawOperation{Tag: ApplicationDelResponse, Constructed: true, Data: mustHex(t, "0a 01 0a 04 00 04 00 a3 00")}, ber.ErrUnexpectedEndOfMessage},
		{"integer result code", &RawOperation{Tag: ApplicationDelResponse, Constructed: true, Data: mustHex(t, "02 01 00 04 00 04 00")}, ber.ErrUnexpectedTag},
		{"missing diagnostic", &RawOperation{Tag: ApplicationDelResponse, Constructed: true, Data: mustHex(t, "0a 01 00 04 00")}, ber.ErrUnexpectedEndOfMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseResponse(tt.op); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestResponse_MarshalBERValidation(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want error
	}{
		{"request type", Response{Type: ApplicationBindRequest}, ErrInvalidOperation},
		{"creds outside bind", Response{Type: ApplicationAddResponse, ServerSASLCreds: []byte{1}}, ErrInvalidResponse},
		{"name outside extended", Response{Type: ApplicationBindResponse, ResponseName: "1.2"}, ErrInvalidResponse},
		{"value outside extended", Response{Type: ApplicationDelResponse, ResponseValue: []byte{}}, ErrInvalidResponse},
	}
	for _, tt := range tests {
		if _, err := encode.Encode(&tt.resp); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestNewResponse(t *testing.T) {
	resp, err := NewResponse(ApplicationCompareRequest, LDAPResult{ResultCode: ResultCompareFalse})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Type != ApplicationCompareResponse || resp.ResultCode != ResultCompareFalse {
		t.Errorf("got %+v", resp)
	}
	if _, err := NewResponse(ApplicationUnbindRequest, NewSuccessResult()); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("unbind: err = %v", err)
	}
}

func TestNewNoticeOfDisconnection(t *testing.T) {
	msg, err := NewNoticeOfDisconnection(ResultProtocolError, "malformed message")
	if err != nil {
		t.Fatal(err)
	}
	data, err := msg.Encode()
	if err != nil {
		t.Fatal(err)
	}

	p, err := gober.DecodePacketErr(data)
	if err != nil {
		t.Fatalf("go-asn1-ber rejected notice: %v", err)
	}
	if id := p.Children[0].Value; id != int64(0) {
		t.Errorf("message id = %v", id)
	}
	op := p.Children[1]
	if op.Tag != ApplicationExtendedResponse || len(op.Children) != 4 {
		t.Fatalf("operation tag %v with %d children", op.Tag, len(op.Children))
	}
	if op.Children[0].Value != int64(ResultProtocolError) {
		t.Errorf("result code = %v", op.Children[0].Value)
	}
	if name := op.Children[3]; name.ClassType != gober.ClassContext || name.Tag != ContextTagResponseName || name.Data.String() != OIDNoticeOfDisconnection {
		t.Errorf("responseName = %v %v %q", name.ClassType, name.Tag, name.Data.String())
	}

	decoded, err := ParseLDAPMessage(data)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ParseResponse(decoded.Operation)
	if err != nil {
		t.Fatal(err)
	}
	if resp.ResponseName != OIDNoticeOfDisconnection || resp.DiagnosticMessage != "malformed message" {
		t.Errorf("got %+v", resp)
	}
}

func TestIsResultResponse(t *testing.T) {
	for _, op := range []OperationType{ApplicationBindResponse, ApplicationCompareResponse, ApplicationExtendedResponse} {
		if !IsResultResponse(op) {
			t.Errorf("%v should be a result response", op)
		}
	}
	for _, op := range []OperationType{ApplicationSearchResultEntry, ApplicationIntermediateResponse, ApplicationBindRequest} {
		if IsResultResponse(op) {
			t.Errorf("%v should not be a result response", op)
		}
	}
}
