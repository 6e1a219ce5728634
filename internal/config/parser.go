package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	// ErrFileNotFound is returned when the configuration file does not exist.
	ErrFileNotFound = errors.New("configuration file not found")
	// ErrUnknownKey is returned for keys that map to no setting.
	ErrUnknownKey = errors.New("unknown configuration key")
)

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads the TOML file at path over DefaultConfig. Keys absent from the
// file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data over DefaultConfig after substituting ${VAR} and
// ${VAR:-default} references from the environment.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.Decode(string(substituteEnvVars(data)), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
	}
	return cfg, nil
}

func substituteEnvVars(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		content := string(match[2 : len(match)-1])
		if name, def, ok := strings.Cut(content, ":-"); ok {
			if val := os.Getenv(name); val != "" {
				return []byte(val)
			}
			return []byte(def)
		}
		return []byte(os.Getenv(content))
	})
}
