package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/KilimcininKorOglu/obacodec/internal/config"
)

// stdin is the input used when no other source is given.
var stdin io.Reader = os.Stdin

// loadConfig returns the configuration named by -c, or the defaults.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if flags.config != "" {
		var err error
		if cfg, err = config.Load(flags.config); err != nil {
			return nil, err
		}
	}
	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return cfg, nil
}

// readInput returns the bytes named by -x, -f or the arguments, falling back
// to stdin. Arguments and -x are hex; separators are ignored.
func readInput(args []string) ([]byte, error) {
	switch {
	case flags.hex != "":
		return parseHex(flags.hex)
	case flags.file == "-":
		return io.ReadAll(stdin)
	case flags.file != "":
		return os.ReadFile(flags.file)
	case len(args) > 0:
		return parseHex(strings.Join(args, ""))
	default:
		return io.ReadAll(stdin)
	}
}

func parseHex(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '\n', '\t', '\r':
			return -1
		}
		return r
	}, s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return b, nil
}

func decodeCmd(args []string) error {
	entry, ok := grammars[flags.grammar]
	if !ok {
		names := make([]string, 0, len(grammars))
		for name := range grammars {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("unknown grammar %q (one of %s)", flags.grammar, strings.Join(names, ", "))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := readInput(args)
	if err != nil {
		return err
	}

	msgs, decodeErr := entry.decode(bytes.NewReader(data), cfg.Codec.Options(), cfg.Codec.ReadBufferSize)
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	for _, m := range msgs {
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	if flags.verbose {
		fmt.Fprintf(stderr, "%d %s message(s), %d bytes\n", len(msgs), flags.grammar, len(data))
	}
	return decodeErr
}
