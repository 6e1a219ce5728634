package encode

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/KilimcininKorOglu/obacodec/internal/ber"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestEncodeNode(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{"integer zero", Integer(0), "02 01 00"},
		{"integer 128", Integer(128), "02 02 00 80"},
		{"integer -1", Integer(-1), "02 01 ff"},
		{"enumerated", Enumerated(2), "0a 01 02"},
		{"boolean true", Boolean(true), "01 01 ff"},
		{"boolean false", Boolean(false), "01 01 00"},
		{"null", Null(), "05 00"},
		{"octet string", String("hi"), "04 02 68 69"},
		{"general string", GeneralString("A"), "1b 01 41"},
		{"utf8 string", UTF8String("é"), "0c 02 c3 a9"},
		{"empty sequence", Sequence(), "30 00"},
		{"sequence skips nil", Sequence(nil, Integer(1), nil), "30 03 02 01 01"},
		{"explicit", Explicit(1, Integer(5)), "a1 03 02 01 05"},
		{"implicit primitive", Implicit(0, String("x")), "80 01 78"},
		{"implicit constructed", Implicit(3, Sequence()), "a3 00"},
		{"application", Constructed(ber.Application(2, false), Integer(1)), "62 03 02 01 01"},
		{"high tag number", Primitive(ber.Application(31, false), nil), "5f 1f 00"},
		{"nested", Sequence(Sequence(Boolean(true)), Set()), "30 07 30 03 01 01 ff 31 00"},
		{
			"generalized time",
			GeneralizedTime(time.Date(2026, time.October, 19, 8, 30, 5, 0, time.UTC)),
			"18 0f 32 30 32 36 31 30 31 39 30 38 33 30 30 35 5a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeNode(tt.node)
			if err != nil {
				t.Fatal(err)
			}
			if want := mustHex(t, tt.want); !bytes.Equal(got, want) {
				t.Errorf("got %x, want %x", got, want)
			}
		})
	}
}

func TestExplicitNil(t *testing.T) {
	if Explicit(0, nil) != nil || Implicit(0, nil) != nil || Retag(ber.SequenceTag, nil) != nil {
		t.Error("wrappers of nil must be nil")
	}
}

func TestEncodeNode_LongForm(t *testing.T) {
	value := bytes.Repeat([]byte{0xAB}, 300)
	got, err := EncodeNode(OctetString(value))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got[:4], []byte{0x04, 0x82, 0x01, 0x2C}) {
		t.Errorf("header = %x", got[:4])
	}
	if len(got) != 304 {
		t.Errorf("len = %d", len(got))
	}

	outer := Sequence(OctetString(value))
	size, err := ComputeLength(outer)
	if err != nil {
		t.Fatal(err)
	}
	if outer.Len() != 304 || size != 308 {
		t.Errorf("outer length = %d, size = %d", outer.Len(), size)
	}
}

func TestComputeLength_SumsChildren(t *testing.T) {
	inner := Sequence(Integer(1000), String("abc"))
	root := Sequence(inner, Boolean(false), Explicit(4, Null()))

	size, err := ComputeLength(root)
	if err != nil {
		t.Fatal(err)
	}
	// inner: 02 02 03 e8 + 04 03 abc = 9; root: 30 09 .. + 01 01 00 + a4 02 05 00
	if inner.Len() != 9 {
		t.Errorf("inner length = %d", inner.Len())
	}
	if root.Len() != 11+3+4 {
		t.Errorf("root length = %d", root.Len())
	}
	if size != 2+root.Len() {
		t.Errorf("size = %d", size)
	}
}

func TestEncodeTo_BufferTooSmall(t *testing.T) {
	n := Sequence(Integer(70000), String("hello"), Explicit(2, Boolean(true)))
	size, err := ComputeLength(n)
	if err != nil {
		t.Fatal(err)
	}

	for short := 0; short < size; short++ {
		_, err := EncodeTo(n, make([]byte, short))
		if !errors.Is(err, ber.ErrBufferTooSmall) {
			t.Fatalf("buffer of %d: err = %v", short, err)
		}
	}

	buf := make([]byte, size+3)
	written, err := EncodeTo(n, buf)
	if err != nil {
		t.Fatal(err)
	}
	if written != size {
		t.Errorf("written = %d, want %d", written, size)
	}
}

func TestEncodeTo_ComputesWhenNeeded(t *testing.T) {
	n := Sequence(Integer(1))
	buf := make([]byte, 5)
	written, err := EncodeTo(n, buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf[:written], mustHex(t, "30 03 02 01 01")) {
		t.Errorf("got %x", buf[:written])
	}
}

func TestEncodeTo_ChildAppendedAfterComputeLength(t *testing.T) {
	inner := Sequence(Integer(2))
	root := Sequence(Integer(1), inner)
	if _, err := ComputeLength(root); err != nil {
		t.Fatal(err)
	}

	inner.Append(Integer(3))
	buf := make([]byte, 32)
	written, err := EncodeTo(root, buf)
	if err != nil {
		t.Fatalf("EncodeTo failed: %v", err)
	}
	if want := mustHex(t, "30 0b 02 01 01 30 06 02 01 02 02 01 03"); !bytes.Equal(buf[:written], want) {
		t.Errorf("got %x, want %x", buf[:written], want)
	}
	if root.Len() != 11 {
		t.Errorf("root length = %d, want 11", root.Len())
	}
}

func TestEncodeNode_InvalidTag(t *testing.T) {
	tests := []*Node{
		Primitive(ber.Context(ber.MaxTagNumber+1, false), nil),
		Primitive(ber.Context(-1, false), nil),
		Primitive(ber.NewTag(0x10, false, 1), nil),
		Sequence(Primitive(ber.Application(ber.MaxTagNumber+1, false), nil)),
	}
	for i, n := range tests {
		_, err := EncodeNode(n)
		if !errors.Is(err, ber.ErrInvalidValue) {
			t.Errorf("case %d: err = %v", i, err)
		}
	}

	if _, err := EncodeNode(Primitive(ber.Context(ber.MaxTagNumber, false), nil)); err != nil {
		t.Errorf("largest tag number: %v", err)
	}
}

func TestAppend(t *testing.T) {
	dst := []byte{0xEE}
	dst, err := Append(dst, Integer(5))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dst, mustHex(t, "ee 02 01 05")) {
		t.Errorf("got %x", dst)
	}
}

func TestEncoded(t *testing.T) {
	n, err := Encoded(mustHex(t, "62 03 02 01 01"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := EncodeNode(Sequence(n))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, mustHex(t, "30 05 62 03 02 01 01")) {
		t.Errorf("got %x", got)
	}

	if _, err := Encoded(mustHex(t, "04 05 00")); err == nil {
		t.Error("short TLV accepted")
	}
	if _, err := Encoded(mustHex(t, "04 01 00 00")); err == nil {
		t.Error("long TLV accepted")
	}
}

// entry exercises decode(encode(x)) == x with a grammar.
type entry struct {
	Serial int64
	Name   string
	Active bool
	Tags   []string
}

func (e *entry) MarshalBER() (*Node, error) {
	var tags *Node
	if len(e.Tags) > 0 {
		tags = Constructed(ber.Context(1, true))
		for _, s := range e.Tags {
			tags.Append(String(s))
		}
	}
	var active *Node
	if e.Active {
		active = Implicit(0, Boolean(true))
	}
	return Sequence(Integer(e.Serial), UTF8String(e.Name), active, tags), nil
}

const (
	entStart grammar.State = iota
	entSeq
	entSerial
	entName
	entActive
	entTags
)

var entryGrammar = grammar.MustDefine("Entry", entStart, []grammar.State{entName, entActive, entTags},
	grammar.On[entry](entStart, ber.SequenceTag, entSeq, nil),
	grammar.On(entSeq, ber.IntegerTag, entSerial, func(e *entry, v grammar.Value) (err error) {
		e.Serial, err = ber.ParseInteger(v.Bytes)
		return err
	}),
	grammar.On(entSerial, ber.UTF8StringTag, entName, func(e *entry, v grammar.Value) (err error) {
		e.Name, err = ber.ParseUTF8String(v.Bytes)
		return err
	}),
	grammar.On(entName, ber.Context(0, false), entActive, func(e *entry, v grammar.Value) (err error) {
		e.Active, err = ber.ParseBoolean(v.Bytes)
		return err
	}),
	grammar.On[entry](entName, ber.Context(1, true), entTags, nil),
	grammar.On[entry](entActive, ber.Context(1, true), entTags, nil),
	grammar.On(entTags, ber.OctetStringTag, entTags, func(e *entry, v grammar.Value) error {
		e.Tags = append(e.Tags, string(v.Bytes))
		return nil
	}),
)

func TestRoundTrip(t *testing.T) {
	tests := []entry{
		{Serial: 1, Name: "a"},
		{Serial: -5, Name: "", Active: true},
		{Serial: 1 << 40, Name: "ünïcode", Tags: []string{"x", "", strings.Repeat("y", 200)}},
		{Serial: 0, Name: strings.Repeat("n", 70000), Active: true, Tags: []string{"t"}},
	}

	for _, want := range tests {
		want := want
		buf, err := Encode(&want)
		if err != nil {
			t.Fatal(err)
		}
		got, err := grammar.Unmarshal(entryGrammar, buf)
		if err != nil {
			t.Fatalf("decode %d: %v", want.Serial, err)
		}
		if got.Serial != want.Serial || got.Name != want.Name || got.Active != want.Active {
			t.Errorf("got %+v", got)
		}
		if len(got.Tags) != len(want.Tags) {
			t.Fatalf("tags = %q, want %q", got.Tags, want.Tags)
		}
		for i := range want.Tags {
			if got.Tags[i] != want.Tags[i] {
				t.Errorf("tag %d = %q, want %q", i, got.Tags[i], want.Tags[i])
			}
		}
	}
}

func BenchmarkEncode(b *testing.B) {
	e := &entry{Serial: 42, Name: "benchmark", Active: true, Tags: []string{"a", "b", "c"}}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(e); err != nil {
			b.Fatal(err)
		}
	}
}
