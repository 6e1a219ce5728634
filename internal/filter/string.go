package filter

import (
	"strings"
	"unicode/utf8"
)

// String returns the RFC 4515 string representation of f.
func (f *Filter) String() string {
	var b strings.Builder
	f.write(&b)
	return b.String()
}

func (f *Filter) write(b *strings.Builder) {
	if f == nil {
		return
	}
	b.WriteByte('(')
	switch f.Type {
	case FilterAnd, FilterOr:
		if f.Type == FilterAnd {
			b.WriteByte('&')
		} else {
			b.WriteByte('|')
		}
		for _, c := range f.Children {
			c.write(b)
		}
	case FilterNot:
		b.WriteByte('!')
		f.Child.write(b)
	case FilterEquality:
		writeAssertion(b, f.Attribute, "=", f.Value)
	case FilterGreaterOrEqual:
		writeAssertion(b, f.Attribute, ">=", f.Value)
	case FilterLessOrEqual:
		writeAssertion(b, f.Attribute, "<=", f.Value)
	case FilterApproxMatch:
		writeAssertion(b, f.Attribute, "~=", f.Value)
	case FilterPresent:
		b.WriteString(f.Attribute)
		b.WriteString("=*")
	case FilterSubstring:
		if sf := f.Substring; sf != nil {
			attr := sf.Attribute
			if attr == "" {
				attr = f.Attribute
			}
			b.WriteString(attr)
			b.WriteByte('=')
			escapeTo(b, sf.Initial)
			b.WriteByte('*')
			for _, a := range sf.Any {
				escapeTo(b, a)
				b.WriteByte('*')
			}
			escapeTo(b, sf.Final)
		}
	case FilterExtensibleMatch:
		b.WriteString(f.Attribute)
		if f.DNAttributes {
			b.WriteString(":dn")
		}
		if f.MatchingRule != "" {
			b.WriteByte(':')
			b.WriteString(f.MatchingRule)
		}
		b.WriteString(":=")
		escapeTo(b, f.Value)
	}
	b.WriteByte(')')
}

func writeAssertion(b *strings.Builder, attr, op string, value []byte) {
	b.WriteString(attr)
	b.WriteString(op)
	escapeTo(b, value)
}

const hexDigits = "0123456789abcdef"

// escapeTo writes v with the filter metacharacters and control bytes escaped
// as \XX. Bytes above 0x7f are kept unless v is not valid UTF-8.
func escapeTo(b *strings.Builder, v []byte) {
	escapeHigh := !utf8.Valid(v)
	for _, c := range v {
		switch {
		case c == '*', c == '(', c == ')', c == '\\', c < 0x20, c == 0x7f, c >= 0x80 && escapeHigh:
			b.WriteByte('\\')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0f])
		default:
			b.WriteByte(c)
		}
	}
}
