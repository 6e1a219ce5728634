package filter

import (
	"encoding/hex"
	"errors"
	"strings"
)

// Parser errors
var (
	ErrEmptyFilter      = errors.New("filter: empty filter")
	ErrInvalidFilter    = errors.New("filter: invalid filter syntax")
	ErrUnbalancedParens = errors.New("filter: unbalanced parentheses")
	ErrMissingAttribute = errors.New("filter: missing attribute name")
	ErrInvalidEscape    = errors.New("filter: invalid escape sequence")
)

// Parse parses an LDAP filter string into a Filter structure.
// Supports RFC 4515 filter syntax:
//   - (attr=value)        - equality
//   - (attr=*)            - presence
//   - (attr=*val*)        - substring
//   - (attr>=value)       - greater or equal
//   - (attr<=value)       - less or equal
//   - (attr~=value)       - approximate match
//   - (attr:dn:rule:=val) - extensible match
//   - (&(f1)(f2)...)      - AND
//   - (|(f1)(f2)...)      - OR
//   - (!(filter))         - NOT
//
// Values may contain \XX hex escapes.
func Parse(filterStr string) (*Filter, error) {
	filterStr = strings.TrimSpace(filterStr)
	if filterStr == "" {
		return nil, ErrEmptyFilter
	}

	return parseFilter(filterStr)
}

func parseFilter(s string) (*Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyFilter
	}

	// Must start and end with parentheses
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		// Try wrapping simple filters
		if !strings.Contains(s, "(") {
			s = "(" + s + ")"
		} else {
			return nil, ErrInvalidFilter
		}
	}

	// Remove outer parentheses
	inner := s[1 : len(s)-1]
	if inner == "" {
		return nil, ErrEmptyFilter
	}

	switch inner[0] {
	case '&', '|':
		children, err := parseFilterList(inner[1:])
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			return nil, ErrInvalidFilter
		}
		if inner[0] == '&' {
			return NewAndFilter(children...), nil
		}
		return NewOrFilter(children...), nil
	case '!':
		child, err := parseFilter(inner[1:])
		if err != nil {
			return nil, err
		}
		return NewNotFilter(child), nil
	default:
		return parseSimpleFilter(inner)
	}
}

func parseFilterList(s string) ([]*Filter, error) {
	var filters []*Filter
	s = strings.TrimSpace(s)

	for len(s) > 0 {
		if s[0] != '(' {
			return nil, ErrInvalidFilter
		}

		// Find matching closing paren
		depth := 0
		end := -1
		for i := 0; i < len(s) && end < 0; i++ {
			switch s[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = i
				}
			}
		}
		if end == -1 {
			return nil, ErrUnbalancedParens
		}

		f, err := parseFilter(s[:end+1])
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)

		s = strings.TrimSpace(s[end+1:])
	}

	return filters, nil
}

func parseSimpleFilter(s string) (*Filter, error) {
	idx := strings.IndexByte(s, '=')
	if idx <= 0 {
		return nil, ErrInvalidFilter
	}
	if strings.ContainsAny(s, "()") {
		return nil, ErrUnbalancedParens
	}

	attr, raw := s[:idx], s[idx+1:]
	op := attr[len(attr)-1]
	switch op {
	case '>', '<', '~', ':':
		attr = attr[:len(attr)-1]
	default:
		op = '='
	}
	attr = strings.TrimSpace(attr)

	if op == ':' {
		return parseExtensibleFilter(attr, raw)
	}
	if attr == "" {
		return nil, ErrMissingAttribute
	}

	if op == '=' {
		// Presence filter: (attr=*)
		if raw == "*" {
			return NewPresentFilter(attr), nil
		}
		if strings.Contains(raw, "*") {
			return parseSubstringFilter(attr, raw)
		}
	}

	value, err := unescape(raw)
	if err != nil {
		return nil, err
	}
	switch op {
	case '>':
		return NewGreaterOrEqualFilter(attr, value), nil
	case '<':
		return NewLessOrEqualFilter(attr, value), nil
	case '~':
		return NewApproxMatchFilter(attr, value), nil
	default:
		return NewEqualityFilter(attr, value), nil
	}
}

// parseExtensibleFilter parses the attr[:dn][:rule] part of an extensible
// match filter.
func parseExtensibleFilter(desc, raw string) (*Filter, error) {
	parts := strings.Split(desc, ":")
	attr, rule, dn := parts[0], "", false
	for _, p := range parts[1:] {
		if p == "" || rule != "" {
			return nil, ErrInvalidFilter
		}
		if !dn && strings.EqualFold(p, "dn") {
			dn = true
			continue
		}
		rule = p
	}
	if attr == "" && rule == "" {
		return nil, ErrMissingAttribute
	}

	value, err := unescape(raw)
	if err != nil {
		return nil, err
	}
	return NewExtensibleMatchFilter(attr, rule, value, dn), nil
}

func parseSubstringFilter(attr, raw string) (*Filter, error) {
	parts := strings.Split(raw, "*")
	sf := &SubstringFilter{Attribute: attr}

	last := len(parts) - 1
	for i, part := range parts {
		if part == "" {
			continue
		}
		value, err := unescape(part)
		if err != nil {
			return nil, err
		}
		switch i {
		case 0:
			sf.Initial = value
		case last:
			sf.Final = value
		default:
			sf.Any = append(sf.Any, value)
		}
	}

	return NewSubstringFilter(sf), nil
}

// unescape decodes the \XX escapes of an assertion value.
func unescape(s string) ([]byte, error) {
	if strings.IndexByte(s, '\\') < 0 {
		return []byte(s), nil
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			out = append(out, s[i])
			continue
		}
		if i+2 >= len(s) {
			return nil, ErrInvalidEscape
		}
		b, err := hex.DecodeString(s[i+1 : i+3])
		if err != nil {
			return nil, ErrInvalidEscape
		}
		out = append(out, b[0])
		i += 2
	}
	return out, nil
}
