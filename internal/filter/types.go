package filter

import (
	"fmt"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
)

// FilterType represents the type of LDAP filter operation. Its value is the
// context-specific tag number of the filter's CHOICE alternative.
type FilterType int

const (
	FilterAnd             FilterType = iota // (&...)
	FilterOr                                // (|...)
	FilterNot                               // (!...)
	FilterEquality                          // (attr=value)
	FilterSubstring                         // (attr=ini*any*fin)
	FilterGreaterOrEqual                    // (attr>=value)
	FilterLessOrEqual                       // (attr<=value)
	FilterPresent                           // (attr=*)
	FilterApproxMatch                       // (attr~=value)
	FilterExtensibleMatch                   // (attr:dn:rule:=value)
)

var filterTypeNames = [...]string{
	FilterAnd:             "and",
	FilterOr:              "or",
	FilterNot:             "not",
	FilterEquality:        "equalityMatch",
	FilterSubstring:       "substrings",
	FilterGreaterOrEqual:  "greaterOrEqual",
	FilterLessOrEqual:     "lessOrEqual",
	FilterPresent:         "present",
	FilterApproxMatch:     "approxMatch",
	FilterExtensibleMatch: "extensibleMatch",
}

// String returns the name of the Filter CHOICE alternative.
func (ft FilterType) String() string {
	if ft < 0 || int(ft) >= len(filterTypeNames) {
		return fmt.Sprintf("FilterType(%d)", int(ft))
	}
	return filterTypeNames[ft]
}

// Tag returns the BER tag of the filter's CHOICE alternative.
func (ft FilterType) Tag() ber.Tag {
	return ber.Context(int(ft), ft != FilterPresent)
}

// Filter represents an LDAP search filter.
type Filter struct {
	Type      FilterType
	Attribute string
	Value     []byte
	Children  []*Filter        // and, or
	Child     *Filter          // not
	Substring *SubstringFilter // substrings

	// MatchingRule and DNAttributes are only used by extensible match
	// filters.
	MatchingRule string
	DNAttributes bool
}

// SubstringFilter represents the components of a substring filter.
type SubstringFilter struct {
	Attribute string
	Initial   []byte
	Any       [][]byte
	Final     []byte
}

// NewAndFilter returns (&children...).
func NewAndFilter(children ...*Filter) *Filter {
	return &Filter{Type: FilterAnd, Children: children}
}

// NewOrFilter returns (|children...).
func NewOrFilter(children ...*Filter) *Filter {
	return &Filter{Type: FilterOr, Children: children}
}

// NewNotFilter returns (!child).
func NewNotFilter(child *Filter) *Filter {
	return &Filter{Type: FilterNot, Child: child}
}

func assertion(ft FilterType, attribute string, value []byte) *Filter {
	return &Filter{Type: ft, Attribute: attribute, Value: value}
}

// NewEqualityFilter returns (attribute=value).
func NewEqualityFilter(attribute string, value []byte) *Filter {
	return assertion(FilterEquality, attribute, value)
}

// NewGreaterOrEqualFilter returns (attribute>=value).
func NewGreaterOrEqualFilter(attribute string, value []byte) *Filter {
	return assertion(FilterGreaterOrEqual, attribute, value)
}

// NewLessOrEqualFilter returns (attribute<=value).
func NewLessOrEqualFilter(attribute string, value []byte) *Filter {
	return assertion(FilterLessOrEqual, attribute, value)
}

// NewApproxMatchFilter returns (attribute~=value).
func NewApproxMatchFilter(attribute string, value []byte) *Filter {
	return assertion(FilterApproxMatch, attribute, value)
}

// NewPresentFilter returns (attribute=*).
func NewPresentFilter(attribute string) *Filter {
	return &Filter{Type: FilterPresent, Attribute: attribute}
}

// NewSubstringFilter returns a substrings filter for sf.Attribute.
func NewSubstringFilter(sf *SubstringFilter) *Filter {
	return &Filter{Type: FilterSubstring, Attribute: sf.Attribute, Substring: sf}
}

// NewExtensibleMatchFilter returns an extensibleMatch filter. Either
// attribute or rule may be empty, but not both.
func NewExtensibleMatchFilter(attribute, rule string, value []byte, dnAttributes bool) *Filter {
	f := assertion(FilterExtensibleMatch, attribute, value)
	f.MatchingRule = rule
	f.DNAttributes = dnAttributes
	return f
}
