package filter

import (
	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// Context tags inside SubstringFilter and MatchingRuleAssertion.
const (
	tagSubInitial   = 0
	tagSubAny       = 1
	tagSubFinal     = 2
	tagMatchingRule = 1
	tagMatchType    = 2
	tagMatchValue   = 3
	tagDNAttributes = 4
)

// Filter grammar states.
const (
	fStart grammar.State = iota
	fSet
	fSetMore
	fNot
	fNotDone
	fAVA
	fAVAAttr
	fAVAValue
	fSub
	fSubType
	fSubSeq
	fSubInitial
	fSubAny
	fSubFinal
	fPresent
	fExt
	fExtRule
	fExtType
	fExtValue
	fExtDN
	fSubDone
)

// Grammar decodes a Filter (RFC 4511 Section 4.5.1):
//
//	Filter ::= CHOICE {
//	    and             [0] SET SIZE (1..MAX) OF filter Filter,
//	    or              [1] SET SIZE (1..MAX) OF filter Filter,
//	    not             [2] Filter,
//	    equalityMatch   [3] AttributeValueAssertion,
//	    substrings      [4] SubstringFilter,
//	    greaterOrEqual  [5] AttributeValueAssertion,
//	    lessOrEqual     [6] AttributeValueAssertion,
//	    present         [7] AttributeDescription,
//	    approxMatch     [8] AttributeValueAssertion,
//	    extensibleMatch [9] MatchingRuleAssertion,
//	    ... }
//
// Nested filters are decoded recursively; each level counts against the
// decoder's depth limit.
var Grammar = grammar.MustDefine("Filter", fStart,
	[]grammar.State{fSetMore, fNotDone, fAVAValue, fSubDone, fPresent, fExtValue, fExtDN},
	filterRules()...,
)

// choiceTags are the tags a Filter may start with.
var choiceTags = []ber.Tag{
	FilterAnd.Tag(), FilterOr.Tag(), FilterNot.Tag(),
	FilterEquality.Tag(), FilterSubstring.Tag(), FilterGreaterOrEqual.Tag(),
	FilterLessOrEqual.Tag(), FilterPresent.Tag(), FilterApproxMatch.Tag(),
	FilterExtensibleMatch.Tag(),
}

func filterRules() []grammar.Rule[Filter] {
	rules := []grammar.Rule[Filter]{
		grammar.On(fStart, FilterAnd.Tag(), fSet, open(FilterAnd)),
		grammar.On(fStart, FilterOr.Tag(), fSet, open(FilterOr)),
		grammar.On(fStart, FilterNot.Tag(), fNot, open(FilterNot)),
		grammar.On(fStart, FilterPresent.Tag(), fPresent, setPresent),

		grammar.On(fStart, FilterSubstring.Tag(), fSub, func(f *Filter, _ grammar.Value) error {
			f.Type = FilterSubstring
			f.Substring = &SubstringFilter{}
			return nil
		}),
		grammar.On(fSub, ber.OctetStringTag, fSubType, setAttribute),
		grammar.On[Filter](fSubType, ber.SequenceTag, fSubSeq, nil).
			ClosingIn(fSubInitial, fSubAny, fSubFinal).AfterClosing(fSubDone),
		grammar.On(fSubSeq, ber.Context(tagSubInitial, false), fSubInitial, func(f *Filter, v grammar.Value) error {
			f.Substring.Initial = ber.ParseOctetString(v.Bytes)
			return nil
		}),

		grammar.On(fStart, FilterExtensibleMatch.Tag(), fExt, open(FilterExtensibleMatch)),
		grammar.On(fExt, ber.Context(tagMatchingRule, false), fExtRule, setMatchingRule),
		grammar.On(fExt, ber.Context(tagMatchType, false), fExtType, setAttribute),
		grammar.On(fExtRule, ber.Context(tagMatchType, false), fExtType, setAttribute),
		grammar.On(fExt, ber.Context(tagMatchValue, false), fExtValue, setMatchValue),
		grammar.On(fExtRule, ber.Context(tagMatchValue, false), fExtValue, setMatchValue),
		grammar.On(fExtType, ber.Context(tagMatchValue, false), fExtValue, setMatchValue),
		grammar.On(fExtValue, ber.Context(tagDNAttributes, false), fExtDN, func(f *Filter, v grammar.Value) (err error) {
			f.DNAttributes, err = ber.ParseBoolean(v.Bytes)
			return err
		}),
	}

	for _, ft := range []FilterType{FilterEquality, FilterGreaterOrEqual, FilterLessOrEqual, FilterApproxMatch} {
		rules = append(rules, grammar.On(fStart, ft.Tag(), fAVA, open(ft)))
	}
	rules = append(rules,
		grammar.On(fAVA, ber.OctetStringTag, fAVAAttr, setAttribute),
		grammar.On(fAVAAttr, ber.OctetStringTag, fAVAValue, setValue),
	)

	for _, from := range []grammar.State{fSubSeq, fSubInitial, fSubAny} {
		rules = append(rules,
			grammar.On(from, ber.Context(tagSubAny, false), fSubAny, appendAny),
			grammar.On(from, ber.Context(tagSubFinal, false), fSubFinal, setFinal),
		)
	}

	for _, tag := range choiceTags {
		rules = append(rules,
			grammar.Recurse(fSet, tag, fSetMore, appendChild),
			grammar.Recurse(fSetMore, tag, fSetMore, appendChild),
			grammar.Recurse(fNot, tag, fNotDone, setChild),
		)
	}
	return rules
}

func open(ft FilterType) grammar.Action[Filter] {
	return func(f *Filter, _ grammar.Value) error {
		f.Type = ft
		return nil
	}
}

func setAttribute(f *Filter, v grammar.Value) error {
	if len(v.Bytes) == 0 {
		return ErrMissingAttribute
	}
	f.Attribute = string(v.Bytes)
	if f.Substring != nil {
		f.Substring.Attribute = f.Attribute
	}
	return nil
}

func setValue(f *Filter, v grammar.Value) error {
	f.Value = ber.ParseOctetString(v.Bytes)
	return nil
}

func setPresent(f *Filter, v grammar.Value) error {
	f.Type = FilterPresent
	return setAttribute(f, v)
}

func appendAny(f *Filter, v grammar.Value) error {
	f.Substring.Any = append(f.Substring.Any, ber.ParseOctetString(v.Bytes))
	return nil
}

func setFinal(f *Filter, v grammar.Value) error {
	f.Substring.Final = ber.ParseOctetString(v.Bytes)
	return nil
}

func setMatchingRule(f *Filter, v grammar.Value) error {
	f.MatchingRule = string(v.Bytes)
	return nil
}

func setMatchValue(f *Filter, v grammar.Value) error {
	if f.MatchingRule == "" && f.Attribute == "" {
		return ErrMissingAttribute
	}
	f.Value = ber.ParseOctetString(v.Bytes)
	return nil
}

func appendChild(f, child *Filter) error {
	f.Children = append(f.Children, child)
	return nil
}

func setChild(f, child *Filter) error {
	f.Child = child
	return nil
}

// Decode decodes a single BER-encoded filter.
func Decode(data []byte) (*Filter, error) {
	return grammar.Unmarshal(Grammar, data)
}

// MarshalBER implements encode.Marshaler.
func (f *Filter) MarshalBER() (*encode.Node, error) {
	if f == nil {
		return nil, ErrEmptyFilter
	}
	tag := f.Type.Tag()

	switch f.Type {
	case FilterAnd, FilterOr:
		if len(f.Children) == 0 {
			return nil, ErrInvalidFilter
		}
		n := encode.Constructed(tag)
		for _, child := range f.Children {
			c, err := child.MarshalBER()
			if err != nil {
				return nil, err
			}
			n.Append(c)
		}
		return n, nil

	case FilterNot:
		c, err := f.Child.MarshalBER()
		if err != nil {
			return nil, err
		}
		return encode.Constructed(tag, c), nil

	case FilterEquality, FilterGreaterOrEqual, FilterLessOrEqual, FilterApproxMatch:
		if f.Attribute == "" {
			return nil, ErrMissingAttribute
		}
		return encode.Constructed(tag, encode.String(f.Attribute), encode.OctetString(f.Value)), nil

	case FilterSubstring:
		return f.marshalSubstring(tag)

	case FilterPresent:
		if f.Attribute == "" {
			return nil, ErrMissingAttribute
		}
		return encode.Primitive(tag, []byte(f.Attribute)), nil

	case FilterExtensibleMatch:
		if f.Attribute == "" && f.MatchingRule == "" {
			return nil, ErrMissingAttribute
		}
		n := encode.Constructed(tag)
		if f.MatchingRule != "" {
			n.Append(encode.Primitive(ber.Context(tagMatchingRule, false), []byte(f.MatchingRule)))
		}
		if f.Attribute != "" {
			n.Append(encode.Primitive(ber.Context(tagMatchType, false), []byte(f.Attribute)))
		}
		n.Append(encode.Primitive(ber.Context(tagMatchValue, false), f.Value))
		if f.DNAttributes {
			n.Append(encode.Implicit(tagDNAttributes, encode.Boolean(true)))
		}
		return n, nil
	}
	return nil, ErrInvalidFilter
}

func (f *Filter) marshalSubstring(tag ber.Tag) (*encode.Node, error) {
	sf := f.Substring
	if sf == nil {
		return nil, ErrInvalidFilter
	}
	attr := sf.Attribute
	if attr == "" {
		attr = f.Attribute
	}
	if attr == "" {
		return nil, ErrMissingAttribute
	}

	subs := encode.Sequence()
	if sf.Initial != nil {
		subs.Append(encode.Primitive(ber.Context(tagSubInitial, false), sf.Initial))
	}
	for _, a := range sf.Any {
		subs.Append(encode.Primitive(ber.Context(tagSubAny, false), a))
	}
	if sf.Final != nil {
		subs.Append(encode.Primitive(ber.Context(tagSubFinal, false), sf.Final))
	}
	if len(subs.Children()) == 0 {
		return nil, ErrInvalidFilter
	}
	return encode.Constructed(tag, encode.String(attr), subs), nil
}
