package ldap

import (
	"errors"
	"math"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/filter"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// SearchScope represents the scope of an LDAP search operation
type SearchScope int

const (
	// ScopeBaseObject searches only the base object
	ScopeBaseObject SearchScope = 0
	// ScopeSingleLevel searches one level below the base object
	ScopeSingleLevel SearchScope = 1
	// ScopeWholeSubtree searches the entire subtree
	ScopeWholeSubtree SearchScope = 2
)

// String returns the string representation of the search scope
func (s SearchScope) String() string {
	switch s {
	case ScopeBaseObject:
		return "BaseObject"
	case ScopeSingleLevel:
		return "SingleLevel"
	case ScopeWholeSubtree:
		return "WholeSubtree"
	default:
		return "Unknown"
	}
}

// DerefAliases represents how aliases should be dereferenced during search
type DerefAliases int

const (
	// DerefNever never dereferences aliases
	DerefNever DerefAliases = 0
	// DerefInSearching dereferences aliases when searching subordinates
	DerefInSearching DerefAliases = 1
	// DerefFindingBaseObj dereferences aliases when finding the base object
	DerefFindingBaseObj DerefAliases = 2
	// DerefAlways always dereferences aliases
	DerefAlways DerefAliases = 3
)

// String returns the string representation of the deref aliases setting
func (d DerefAliases) String() string {
	switch d {
	case DerefNever:
		return "NeverDerefAliases"
	case DerefInSearching:
		return "DerefInSearching"
	case DerefFindingBaseObj:
		return "DerefFindingBaseObj"
	case DerefAlways:
		return "DerefAlways"
	default:
		return "Unknown"
	}
}

// SearchRequest represents an LDAP Search Request
// SearchRequest ::= [APPLICATION 3] SEQUENCE {
//
//	baseObject      LDAPDN,
//	scope           ENUMERATED { ... },
//	derefAliases    ENUMERATED { ... },
//	sizeLimit       INTEGER (0 ..  maxInt),
//	timeLimit       INTEGER (0 ..  maxInt),
//	typesOnly       BOOLEAN,
//	filter          Filter,
//	attributes      AttributeSelection
//
// }
type SearchRequest struct {
	// BaseObject is the base DN for the search
	BaseObject string
	// Scope is the search scope
	Scope SearchScope
	// DerefAliases specifies how aliases should be dereferenced
	DerefAliases DerefAliases
	// SizeLimit is the maximum number of entries to return (0 = no limit)
	SizeLimit int
	// TimeLimit is the maximum time in seconds (0 = no limit)
	TimeLimit int
	// TypesOnly if true, only attribute types are returned (no values)
	TypesOnly bool
	// Filter is the search filter
	Filter *filter.Filter
	// Attributes is the list of attributes to return (empty = all user attributes)
	Attributes []string
}

// Errors for SearchRequest parsing
var (
	// ErrInvalidSearchScope is returned when the search scope is invalid
	ErrInvalidSearchScope = errors.New("ldap: invalid search scope")
	// ErrInvalidDerefAliases is returned when the deref aliases value is invalid
	ErrInvalidDerefAliases = errors.New("ldap: invalid deref aliases value")
	// ErrInvalidSearchLimit is returned when a size or time limit is out of range
	ErrInvalidSearchLimit = errors.New("ldap: search limit out of valid range (0 to 2147483647)")
)

// SearchRequest grammar states.
const (
	srchStart grammar.State = iota
	srchRequest
	srchBase
	srchScope
	srchDeref
	srchSizeLimit
	srchTimeLimit
	srchTypesOnly
	srchFilter
	srchAttributes
)

// SearchRequestGrammar decodes a complete [APPLICATION 3] SearchRequest. The
// filter is decoded with filter.Grammar.
var SearchRequestGrammar = grammar.MustDefine("SearchRequest", srchStart, []grammar.State{srchAttributes},
	searchRules()...,
)

func searchRules() []grammar.Rule[SearchRequest] {
	rules := []grammar.Rule[SearchRequest]{
		grammar.On[SearchRequest](srchStart, ber.Application(ApplicationSearchRequest, true), srchRequest, nil),
		grammar.On(srchRequest, ber.OctetStringTag, srchBase, func(r *SearchRequest, v grammar.Value) error {
			r.BaseObject = string(v.Bytes)
			return nil
		}),
		grammar.On(srchBase, ber.EnumeratedTag, srchScope, func(r *SearchRequest, v grammar.Value) error {
			n, err := ber.ParseInteger(v.Bytes)
			if err != nil {
				return err
			}
			if n < int64(ScopeBaseObject) || n > int64(ScopeWholeSubtree) {
				return ErrInvalidSearchScope
			}
			r.Scope = SearchScope(n)
			return nil
		}),
		grammar.On(srchScope, ber.EnumeratedTag, srchDeref, func(r *SearchRequest, v grammar.Value) error {
			n, err := ber.ParseInteger(v.Bytes)
			if err != nil {
				return err
			}
			if n < int64(DerefNever) || n > int64(DerefAlways) {
				return ErrInvalidDerefAliases
			}
			r.DerefAliases = DerefAliases(n)
			return nil
		}),
		grammar.On(srchDeref, ber.IntegerTag, srchSizeLimit, func(r *SearchRequest, v grammar.Value) (err error) {
			r.SizeLimit, err = parseLimit(v.Bytes)
			return err
		}),
		grammar.On(srchSizeLimit, ber.IntegerTag, srchTimeLimit, func(r *SearchRequest, v grammar.Value) (err error) {
			r.TimeLimit, err = parseLimit(v.Bytes)
			return err
		}),
		grammar.On(srchTimeLimit, ber.BooleanTag, srchTypesOnly, func(r *SearchRequest, v grammar.Value) (err error) {
			r.TypesOnly, err = ber.ParseBoolean(v.Bytes)
			return err
		}),
		grammar.On[SearchRequest](srchFilter, ber.SequenceTag, srchAttributes, nil),
		grammar.On(srchAttributes, ber.OctetStringTag, srchAttributes, func(r *SearchRequest, v grammar.Value) error {
			r.Attributes = append(r.Attributes, string(v.Bytes))
			return nil
		}),
	}

	// The filter is a CHOICE; every alternative is embedded.
	for ft := filter.FilterAnd; ft <= filter.FilterExtensibleMatch; ft++ {
		rules = append(rules, grammar.Embed(srchTypesOnly, ft.Tag(), srchFilter,
			filter.Grammar, func(r *SearchRequest, f *filter.Filter) error {
				r.Filter = f
				return nil
			}))
	}
	return rules
}

func parseLimit(v []byte) (int, error) {
	n, err := ber.ParseInteger(v)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > math.MaxInt32 {
		return 0, ErrInvalidSearchLimit
	}
	return int(n), nil
}

// ParseSearchRequest parses a SearchRequest from raw operation data.
// The data should be the contents of the APPLICATION 3 tag (without the tag and length).
func ParseSearchRequest(data []byte) (*SearchRequest, error) {
	return parseOperation(SearchRequestGrammar, &RawOperation{
		Tag:         ApplicationSearchRequest,
		Constructed: true,
		Data:        data,
	})
}

// MarshalBER implements encode.Marshaler.
func (r *SearchRequest) MarshalBER() (*encode.Node, error) {
	if r.Scope < ScopeBaseObject || r.Scope > ScopeWholeSubtree {
		return nil, ErrInvalidSearchScope
	}
	if r.DerefAliases < DerefNever || r.DerefAliases > DerefAlways {
		return nil, ErrInvalidDerefAliases
	}
	if r.SizeLimit < 0 || r.SizeLimit > math.MaxInt32 || r.TimeLimit < 0 || r.TimeLimit > math.MaxInt32 {
		return nil, ErrInvalidSearchLimit
	}
	f, err := r.Filter.MarshalBER()
	if err != nil {
		return nil, err
	}

	attrs := encode.Sequence()
	for _, a := range r.Attributes {
		attrs.Append(encode.String(a))
	}
	return encode.Constructed(ber.Application(ApplicationSearchRequest, true),
		encode.String(r.BaseObject),
		encode.Enumerated(int64(r.Scope)),
		encode.Enumerated(int64(r.DerefAliases)),
		encode.Integer(int64(r.SizeLimit)),
		encode.Integer(int64(r.TimeLimit)),
		encode.Boolean(r.TypesOnly),
		f,
		attrs,
	), nil
}

// SearchResultEntry represents one entry returned by a search
// SearchResultEntry ::= [APPLICATION 4] SEQUENCE {
//
//	objectName      LDAPDN,
//	attributes      PartialAttributeList
//
// }
type SearchResultEntry struct {
	// ObjectName is the DN of the entry
	ObjectName string
	// Attributes may have no values when the search asked for types only
	Attributes []Attribute
}

// SearchResultEntry grammar states.
const (
	entryStart grammar.State = iota
	entryBody
	entryName
	entryAttributes
)

// SearchResultEntryGrammar decodes a complete [APPLICATION 4] SearchResultEntry.
var SearchResultEntryGrammar = grammar.MustDefine("SearchResultEntry", entryStart, []grammar.State{entryAttributes},
	grammar.On[SearchResultEntry](entryStart, ber.Application(ApplicationSearchResultEntry, true), entryBody, nil),
	grammar.On(entryBody, ber.OctetStringTag, entryName, func(e *SearchResultEntry, v grammar.Value) error {
		e.ObjectName = string(v.Bytes)
		return nil
	}),
	grammar.On[SearchResultEntry](entryName, ber.SequenceTag, entryAttributes, nil),
	grammar.Embed(entryAttributes, ber.SequenceTag, entryAttributes, AttributeGrammar, func(e *SearchResultEntry, a *Attribute) error {
		e.Attributes = append(e.Attributes, *a)
		return nil
	}),
)

// ParseSearchResultEntry parses a SearchResultEntry from raw operation data.
func ParseSearchResultEntry(data []byte) (*SearchResultEntry, error) {
	return parseOperation(SearchResultEntryGrammar, &RawOperation{
		Tag:         ApplicationSearchResultEntry,
		Constructed: true,
		Data:        data,
	})
}

// MarshalBER implements encode.Marshaler.
func (e *SearchResultEntry) MarshalBER() (*encode.Node, error) {
	attrs := encode.Sequence()
	for i := range e.Attributes {
		attrs.Append(e.Attributes[i].marshal())
	}
	return encode.Constructed(ber.Application(ApplicationSearchResultEntry, true), encode.String(e.ObjectName), attrs), nil
}
