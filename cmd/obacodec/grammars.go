package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/KilimcininKorOglu/obacodec/internal/filter"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
	"github.com/KilimcininKorOglu/obacodec/internal/kerberos"
	"github.com/KilimcininKorOglu/obacodec/internal/ldap"
	"github.com/KilimcininKorOglu/obacodec/internal/stream"
)

// decoderFunc decodes every message in r. It returns the messages decoded
// before any error.
type decoderFunc func(r io.Reader, opts grammar.Options, bufSize int) ([]interface{}, error)

type grammarEntry struct {
	description string
	decode      decoderFunc
}

// grammars are the grammars selectable with -g.
var grammars = map[string]grammarEntry{
	"LDAPMessage":       {"LDAP envelope, operations decoded when a grammar exists", decodeMessages},
	"Control":           {"LDAP control", decoderFor(ldap.ControlGrammar)},
	"PagedResults":      {"paged results control value (RFC 2696)", decoderFor(ldap.PagedResultsGrammar)},
	"BindRequest":       {"LDAP [APPLICATION 0]", decoderFor(ldap.BindRequestGrammar)},
	"UnbindRequest":     {"LDAP [APPLICATION 2]", decoderFor(ldap.UnbindRequestGrammar)},
	"SearchRequest":     {"LDAP [APPLICATION 3]", decoderFor(ldap.SearchRequestGrammar)},
	"SearchResultEntry": {"LDAP [APPLICATION 4]", decoderFor(ldap.SearchResultEntryGrammar)},
	"Filter":            {"LDAP search filter", decodeFilters},
	"ModifyRequest":     {"LDAP [APPLICATION 6]", decoderFor(ldap.ModifyRequestGrammar)},
	"AddRequest":        {"LDAP [APPLICATION 8]", decoderFor(ldap.AddRequestGrammar)},
	"DeleteRequest":     {"LDAP [APPLICATION 10]", decoderFor(ldap.DeleteRequestGrammar)},
	"ModifyDNRequest":   {"LDAP [APPLICATION 12]", decoderFor(ldap.ModifyDNRequestGrammar)},
	"CompareRequest":    {"LDAP [APPLICATION 14]", decoderFor(ldap.CompareRequestGrammar)},
	"AbandonRequest":    {"LDAP [APPLICATION 16]", decoderFor(ldap.AbandonRequestGrammar)},
	"Response":          {"any LDAPResult-based response", decoderFor(ldap.ResponseGrammar)},
	"Attribute":         {"LDAP attribute with values", decoderFor(ldap.AttributeGrammar)},
	"PrincipalName":     {"Kerberos principal name", decoderFor(kerberos.PrincipalNameGrammar)},
	"EncryptedData":     {"Kerberos encrypted data", decoderFor(kerberos.EncryptedDataGrammar)},
	"EncryptionKey":     {"Kerberos encryption key", decoderFor(kerberos.EncryptionKeyGrammar)},
	"Checksum":          {"Kerberos checksum", decoderFor(kerberos.ChecksumGrammar)},
	"AuthorizationData": {"Kerberos authorization data", decoderFor(kerberos.AuthorizationDataGrammar)},
	"Authenticator":     {"Kerberos [APPLICATION 2]", decoderFor(kerberos.AuthenticatorGrammar)},
	"Ticket":            {"Kerberos [APPLICATION 1]", decoderFor(kerberos.TicketGrammar)},
}

// decoderFor returns a decoderFunc that streams messages of g.
func decoderFor[T any](g *grammar.Grammar[T]) decoderFunc {
	return func(r io.Reader, opts grammar.Options, bufSize int) ([]interface{}, error) {
		sr := stream.NewReaderSize(r, g, opts, bufSize)
		var out []interface{}
		for {
			v, err := sr.Next()
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			if err != nil {
				return out, err
			}
			out = append(out, v)
		}
	}
}

// messageView is the printed form of an LDAPMessage.
type messageView struct {
	MessageID int            `json:"messageID"`
	Operation string         `json:"operation"`
	Body      interface{}    `json:"body,omitempty"`
	BodyError string         `json:"bodyError,omitempty"`
	Controls  []ldap.Control `json:"controls,omitempty"`
}

// searchView prints the filter of a SearchRequest in its string form.
type searchView struct {
	*ldap.SearchRequest
	Filter string
}

// decodeFilters prints filters in their string form.
func decodeFilters(r io.Reader, opts grammar.Options, bufSize int) ([]interface{}, error) {
	fs, err := decoderFor(filter.Grammar)(r, opts, bufSize)
	for i, f := range fs {
		fs[i] = f.(*filter.Filter).String()
	}
	return fs, err
}

func decodeMessages(r io.Reader, opts grammar.Options, bufSize int) ([]interface{}, error) {
	msgs, err := decoderFor(ldap.MessageGrammar)(r, opts, bufSize)
	for i, m := range msgs {
		msgs[i] = viewMessage(m.(*ldap.LDAPMessage))
	}
	return msgs, err
}

func viewMessage(m *ldap.LDAPMessage) messageView {
	v := messageView{
		MessageID: m.MessageID,
		Operation: m.OperationType().String(),
		Controls:  m.Controls,
	}
	body, err := parseBody(m.Operation)
	if err != nil {
		v.BodyError = err.Error()
	} else {
		v.Body = body
	}
	return v
}

// parseBody decodes an operation with its grammar. Operations without one
// are returned raw.
func parseBody(op *ldap.RawOperation) (interface{}, error) {
	switch ldap.OperationType(op.Tag) {
	case ldap.ApplicationBindRequest:
		return ldap.ParseBindRequest(op.Data)
	case ldap.ApplicationUnbindRequest:
		return ldap.ParseUnbindRequest(op.Data)
	case ldap.ApplicationSearchRequest:
		req, err := ldap.ParseSearchRequest(op.Data)
		if err != nil {
			return nil, err
		}
		return searchView{SearchRequest: req, Filter: req.Filter.String()}, nil
	case ldap.ApplicationSearchResultEntry:
		return ldap.ParseSearchResultEntry(op.Data)
	case ldap.ApplicationModifyRequest:
		return ldap.ParseModifyRequest(op.Data)
	case ldap.ApplicationAddRequest:
		return ldap.ParseAddRequest(op.Data)
	case ldap.ApplicationDelRequest:
		return ldap.ParseDeleteRequest(op.Data)
	case ldap.ApplicationModifyDNRequest:
		return ldap.ParseModifyDNRequest(op.Data)
	case ldap.ApplicationCompareRequest:
		return ldap.ParseCompareRequest(op.Data)
	case ldap.ApplicationAbandonRequest:
		return ldap.ParseAbandonRequest(op.Data)
	}
	if ldap.IsResultResponse(ldap.OperationType(op.Tag)) {
		return ldap.ParseResponse(op)
	}
	return op, nil
}

func grammarsCmd(_ []string) error {
	names := make([]string, 0, len(grammars))
	for name := range grammars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(stdout, "%-18s %s\n", name, grammars[name].description)
	}
	return nil
}
