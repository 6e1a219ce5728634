package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
)

// maxDumpDepth bounds recursion into constructed values.
const maxDumpDepth = 64

var universalNames = map[int]string{
	ber.TagBoolean:         "BOOLEAN",
	ber.TagInteger:         "INTEGER",
	ber.TagBitString:       "BIT STRING",
	ber.TagOctetString:     "OCTET STRING",
	ber.TagNull:            "NULL",
	ber.TagOID:             "OBJECT IDENTIFIER",
	ber.TagEnumerated:      "ENUMERATED",
	ber.TagUTF8String:      "UTF8String",
	ber.TagSequence:        "SEQUENCE",
	ber.TagSet:             "SET",
	ber.TagGeneralizedTime: "GeneralizedTime",
	ber.TagGeneralString:   "GeneralString",
}

func dumpCmd(args []string) error {
	data, err := readInput(args)
	if err != nil {
		return err
	}
	return dump(stdout, data)
}

// dump prints the TLV tree of every top-level value in data.
func dump(w io.Writer, data []byte) error {
	for off := 0; off < len(data); {
		n, err := dumpTLV(w, data, off, len(data), 0)
		if err != nil {
			return err
		}
		off += n
	}
	return nil
}

// dumpTLV prints the TLV at off, which must end before limit, and returns its
// encoded size.
func dumpTLV(w io.Writer, data []byte, off, limit, depth int) (int, error) {
	h, _, err := ber.ReadHeader(data[:limit], off)
	if err != nil {
		return 0, err
	}
	if h.Length > limit-off-h.HeaderLen {
		return 0, ber.NewDecodeError(ber.KindLengthOverflow, off,
			fmt.Sprintf("length %d exceeds the %d bytes available", h.Length, limit-off-h.HeaderLen), nil).WithTag(h.Tag)
	}
	end := off + h.TotalLen()

	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%5d: %s%s len=%d", off, indent, tagName(h.Tag), h.Length)
	value := data[off+h.HeaderLen : end]

	if !h.Tag.Constructed {
		fmt.Fprintf(w, " %s\n", formatValue(h.Tag, value))
		return h.TotalLen(), nil
	}
	fmt.Fprintln(w)

	if depth+1 >= maxDumpDepth {
		return 0, ber.NewDecodeError(ber.KindNestingTooDeep, off, "dump depth exceeded", nil).WithTag(h.Tag)
	}
	for pos := off + h.HeaderLen; pos < end; {
		n, err := dumpTLV(w, data, pos, end, depth+1)
		if err != nil {
			return 0, err
		}
		pos += n
	}
	return h.TotalLen(), nil
}

func tagName(t ber.Tag) string {
	if t.Class == ber.ClassUniversal {
		if name, ok := universalNames[t.Number]; ok {
			return name
		}
	}
	return t.String()
}

// formatValue renders a primitive value by its universal type, or as text
// when it is printable and hex otherwise.
func formatValue(t ber.Tag, v []byte) string {
	if t.Class == ber.ClassUniversal {
		switch t.Number {
		case ber.TagInteger, ber.TagEnumerated:
			if n, err := ber.ParseInteger(v); err == nil {
				return fmt.Sprintf("%d", n)
			}
		case ber.TagBoolean:
			if b, err := ber.ParseBoolean(v); err == nil {
				return fmt.Sprintf("%t", b)
			}
		case ber.TagNull:
			return ""
		}
	}
	if printable(v) {
		return fmt.Sprintf("%q", v)
	}
	return fmt.Sprintf("%x", v)
}

func printable(v []byte) bool {
	if len(v) == 0 || !utf8.Valid(v) {
		return false
	}
	for _, r := range string(v) {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}
