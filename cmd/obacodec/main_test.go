package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/filter"
	"github.com/KilimcininKorOglu/obacodec/internal/ldap"
)

const principalHex = "30 10 a0 03 02 01 01 a1 09 30 07 1b 05 61 6c 69 63 65"

// runCommand runs command with the given flags and returns the exit code and
// both outputs.
func runCommand(t *testing.T, opts options, command string, args ...string) (int, string, string) {
	t.Helper()
	if opts.grammar == "" {
		opts.grammar = "LDAPMessage"
	}

	var out, errOut bytes.Buffer
	oldFlags, oldStdout, oldStderr := flags, stdout, stderr
	flags, stdout, stderr = opts, &out, &errOut
	t.Cleanup(func() {
		flags, stdout, stderr = oldFlags, oldStdout, oldStderr
	})

	code := run(command, args)
	return code, out.String(), errOut.String()
}

func bindMessageHex(t *testing.T) string {
	t.Helper()
	msg, err := ldap.NewMessage(1, &ldap.BindRequest{
		Version:        3,
		Name:           "cn=admin,dc=example,dc=com",
		SimplePassword: []byte("secret"),
	})
	if err != nil {
		t.Fatal(err)
	}
	data, err := encode.Encode(msg)
	if err != nil {
		t.Fatal(err)
	}
	return hex.EncodeToString(data)
}

// decodeViews parses the JSON documents written by decode.
func decodeViews(t *testing.T, out string) []map[string]interface{} {
	t.Helper()
	var views []map[string]interface{}
	dec := json.NewDecoder(strings.NewReader(out))
	for dec.More() {
		var v map[string]interface{}
		if err := dec.Decode(&v); err != nil {
			t.Fatalf("invalid output %q: %v", out, err)
		}
		views = append(views, v)
	}
	return views
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, errOut := runCommand(t, options{}, "unknown")
	if code != ExitError {
		t.Errorf("exit code = %d, want %d", code, ExitError)
	}
	if !strings.Contains(errOut, "Unknown command: unknown") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRun_Help(t *testing.T) {
	code, out, _ := runCommand(t, options{}, "help")
	if code != ExitSuccess {
		t.Errorf("exit code = %d", code)
	}
	for _, cmd := range []string{"decode", "dump", "serve", "grammars", "version"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("help does not list %s", cmd)
		}
	}
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCommand(t, options{}, "version")
	if code != ExitSuccess || out != "obacodec "+version+"\n" {
		t.Errorf("version = %d %q", code, out)
	}

	code, out, _ = runCommand(t, options{verbose: true}, "version")
	if code != ExitSuccess {
		t.Errorf("exit code = %d", code)
	}
	for _, want := range []string{"Commit:", "Go version:", "OS/Arch:"} {
		if !strings.Contains(out, want) {
			t.Errorf("verbose version missing %q: %q", want, out)
		}
	}
}

func TestRun_Grammars(t *testing.T) {
	code, out, _ := runCommand(t, options{}, "grammars")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(grammars) {
		t.Errorf("listed %d grammars, want %d", len(lines), len(grammars))
	}
	for name := range grammars {
		if !strings.Contains(out, name+" ") {
			t.Errorf("grammar %s not listed", name)
		}
	}
}

func TestRun_DecodeMessage(t *testing.T) {
	code, out, errOut := runCommand(t, options{hex: bindMessageHex(t)}, "decode")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d: %s", code, errOut)
	}

	views := decodeViews(t, out)
	if len(views) != 1 {
		t.Fatalf("decoded %d messages", len(views))
	}
	v := views[0]
	if v["messageID"] != float64(1) || v["operation"] != "BindRequest" {
		t.Errorf("view = %v", v)
	}
	body, ok := v["body"].(map[string]interface{})
	if !ok {
		t.Fatalf("body = %v", v["body"])
	}
	if body["Name"] != "cn=admin,dc=example,dc=com" || body["Version"] != float64(3) {
		t.Errorf("body = %v", body)
	}
}

func TestRun_DecodeInputs(t *testing.T) {
	msg := bindMessageHex(t)
	raw, err := hex.DecodeString(msg)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "bind.ber")
	if err := os.WriteFile(path, append(append([]byte{}, raw...), raw...), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("arguments", func(t *testing.T) {
		code, out, _ := runCommand(t, options{}, "decode", msg[:10], msg[10:])
		if code != ExitSuccess || len(decodeViews(t, out)) != 1 {
			t.Errorf("exit code = %d, output %q", code, out)
		}
	})

	t.Run("file", func(t *testing.T) {
		code, out, _ := runCommand(t, options{file: path}, "decode")
		if code != ExitSuccess || len(decodeViews(t, out)) != 2 {
			t.Errorf("exit code = %d, output %q", code, out)
		}
	})

	t.Run("stdin", func(t *testing.T) {
		old := stdin
		stdin = bytes.NewReader(raw)
		defer func() { stdin = old }()

		code, out, _ := runCommand(t, options{file: "-"}, "decode")
		if code != ExitSuccess || len(decodeViews(t, out)) != 1 {
			t.Errorf("exit code = %d, output %q", code, out)
		}
	})
}

func TestRun_DecodeKerberos(t *testing.T) {
	code, out, errOut := runCommand(t, options{grammar: "PrincipalName", hex: principalHex}, "decode")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d: %s", code, errOut)
	}
	views := decodeViews(t, out)
	if len(views) != 1 {
		t.Fatalf("decoded %d values", len(views))
	}
	if views[0]["NameType"] != float64(1) {
		t.Errorf("view = %v", views[0])
	}
	names, _ := views[0]["NameString"].([]interface{})
	if len(names) != 1 || names[0] != "alice" {
		t.Errorf("NameString = %v", views[0]["NameString"])
	}
}

func TestRun_DecodeSearch(t *testing.T) {
	f, err := filter.Parse("(&(objectClass=person)(cn=ali*))")
	if err != nil {
		t.Fatal(err)
	}
	msg, err := ldap.NewMessage(2, &ldap.SearchRequest{BaseObject: "dc=example,dc=com", Scope: ldap.ScopeWholeSubtree, Filter: f})
	if err != nil {
		t.Fatal(err)
	}
	data, err := encode.Encode(msg)
	if err != nil {
		t.Fatal(err)
	}

	code, out, errOut := runCommand(t, options{hex: hex.EncodeToString(data)}, "decode")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d: %s", code, errOut)
	}
	views := decodeViews(t, out)
	body, _ := views[0]["body"].(map[string]interface{})
	if views[0]["operation"] != "SearchRequest" || body["Filter"] != f.String() || body["BaseObject"] != "dc=example,dc=com" {
		t.Errorf("view = %v", views[0])
	}

	filterData, err := encode.Encode(f)
	if err != nil {
		t.Fatal(err)
	}
	code, out, _ = runCommand(t, options{grammar: "Filter", hex: hex.EncodeToString(filterData)}, "decode")
	var got string
	if err := json.Unmarshal([]byte(out), &got); err != nil || code != ExitSuccess || got != f.String() {
		t.Errorf("exit code = %d, output %q", code, out)
	}
}

func TestRun_DecodeErrors(t *testing.T) {
	tooSmall := filepath.Join(t.TempDir(), "small.toml")
	if err := os.WriteFile(tooSmall, []byte("[codec]\nmax_message_size = 8\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		opts options
		want string
	}{
		{"truncated", options{grammar: "PrincipalName", hex: "30 10 a0 03"}, "UnexpectedEndOfMessage"},
		{"wrong grammar", options{grammar: "Ticket", hex: principalHex}, "UnexpectedTag"},
		{"unknown grammar", options{grammar: "Nope", hex: principalHex}, "unknown grammar"},
		{"bad hex", options{hex: "3z"}, "invalid hex input"},
		{"missing file", options{file: filepath.Join(t.TempDir(), "missing")}, "no such file"},
		{"missing config", options{config: filepath.Join(t.TempDir(), "none.toml"), hex: principalHex}, "not found"},
		{"message too large", options{config: tooSmall, grammar: "PrincipalName", hex: principalHex}, "LengthOverflow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCommand(t, tt.opts, "decode")
			if code != ExitError {
				t.Errorf("exit code = %d, want %d", code, ExitError)
			}
			if !strings.Contains(errOut, tt.want) {
				t.Errorf("stderr = %q, want it to contain %q", errOut, tt.want)
			}
		})
	}
}

func TestRun_Dump(t *testing.T) {
	code, out, errOut := runCommand(t, options{hex: principalHex}, "dump")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d: %s", code, errOut)
	}

	want := []string{
		"0: SEQUENCE len=16",
		"2:   [CONTEXT 0]/c len=3",
		"4:     INTEGER len=1 1",
		"7:   [CONTEXT 1]/c len=9",
		"9:     SEQUENCE len=7",
		`11:       GeneralString len=5 "alice"`,
	}
	for _, line := range want {
		if !strings.Contains(out, line) {
			t.Errorf("dump missing %q:\n%s", line, out)
		}
	}
}

func TestRun_DumpErrors(t *testing.T) {
	tests := []struct {
		name string
		hex  string
		want string
	}{
		{"truncated value", "30 05 02 01", "LengthOverflow"},
		{"child overruns parent", "30 03 04 05 61 62 63", "LengthOverflow"},
		{"truncated header", "30", "TruncatedHeader"},
		{"indefinite length", "30 80 00 00", "MalformedLength"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCommand(t, options{hex: tt.hex}, "dump")
			if code != ExitError || !strings.Contains(errOut, tt.want) {
				t.Errorf("exit code = %d, stderr = %q", code, errOut)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		hex  string
		want string
	}{
		{"01 01 ff", "true"},
		{"0a 01 02", "2"},
		{"02 02 ff 7f", "-129"},
		{"04 03 01 02 03", "010203"},
		{"80 02 68 69", `"hi"`},
		{"05 00", ""},
	}
	for _, tt := range tests {
		raw, err := parseHex(tt.hex)
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err := dump(&buf, raw); err != nil {
			t.Fatalf("%s: %v", tt.hex, err)
		}
		line := strings.TrimRight(buf.String(), "\n")
		if !strings.HasSuffix(line, " "+tt.want) {
			t.Errorf("%s: dumped %q, want value %q", tt.hex, line, tt.want)
		}
	}
}

func TestServerConfig(t *testing.T) {
	opts := options{}
	oldFlags := flags
	flags = opts
	defer func() { flags = oldFlags }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	sc := serverConfig(cfg)
	if sc.Address != cfg.Server.Address || sc.ReadBufferSize != cfg.Codec.ReadBufferSize {
		t.Errorf("server config = %+v", sc)
	}
	if sc.Codec != cfg.Codec.Options() {
		t.Errorf("codec options = %+v", sc.Codec)
	}
}
