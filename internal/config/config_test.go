package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	t.Run("server defaults", func(t *testing.T) {
		if config.Server.Address != "127.0.0.1:3890" {
			t.Errorf("address = %q", config.Server.Address)
		}
		if config.Server.ReadTimeout != 30*time.Second {
			t.Errorf("read timeout = %v", config.Server.ReadTimeout)
		}
	})

	t.Run("codec defaults", func(t *testing.T) {
		opts := config.Codec.Options()
		if opts.MaxMessageSize != grammar.DefaultMaxMessageSize || opts.MaxDepth != grammar.DefaultMaxDepth || opts.Strict {
			t.Errorf("options = %+v", opts)
		}
		if config.Codec.ReadBufferSize != DefaultReadBufferSize {
			t.Errorf("read buffer = %d", config.Codec.ReadBufferSize)
		}
	})

	t.Run("defaults validate", func(t *testing.T) {
		if errs := ValidateConfig(config); len(errs) != 0 {
			t.Errorf("default config invalid: %v", errs)
		}
	})
}

func TestParse(t *testing.T) {
	data := `
[server]
address = "0.0.0.0:3891"
read_timeout = "1m"

[codec]
max_message_size = 1048576
strict = true

[logging]
format = "json"

[metrics]
enabled = true
`
	config, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if config.Server.Address != "0.0.0.0:3891" || config.Server.ReadTimeout != time.Minute {
		t.Errorf("server = %+v", config.Server)
	}
	// Undefined keys keep defaults.
	if config.Server.WriteTimeout != 30*time.Second || config.Server.MaxConnections != 1024 {
		t.Errorf("server defaults lost: %+v", config.Server)
	}
	if config.Codec.MaxMessageSize != 1048576 || !config.Codec.Strict || config.Codec.MaxDepth != grammar.DefaultMaxDepth {
		t.Errorf("codec = %+v", config.Codec)
	}
	if config.Logging.Format != "json" || config.Logging.Level != "info" {
		t.Errorf("logging = %+v", config.Logging)
	}
	if !config.Metrics.Enabled || config.Metrics.Path != "/metrics" {
		t.Errorf("metrics = %+v", config.Metrics)
	}
}

func TestParse_EnvSubstitution(t *testing.T) {
	t.Setenv("OBACODEC_TEST_LEVEL", "debug")

	data := `
[logging]
level = "${OBACODEC_TEST_LEVEL}"
format = "${OBACODEC_TEST_UNSET:-json}"
`
	config, err := Parse([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if config.Logging.Level != "debug" || config.Logging.Format != "json" {
		t.Errorf("logging = %+v", config.Logging)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte("[codec]\nmax_size = 1\n")); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key: err = %v", err)
	}
	if _, err := Parse([]byte("[server\n")); err == nil {
		t.Error("expected syntax error")
	}
	if _, err := Parse([]byte("[codec]\nmax_depth = \"deep\"\n")); err == nil {
		t.Error("expected type error")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "obacodec.toml")
	if err := os.WriteFile(path, []byte("[server]\naddress = \":4000\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Server.Address != ":4000" {
		t.Errorf("address = %q", config.Server.Address)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("missing file: err = %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"empty address", func(c *Config) { c.Server.Address = "" }, "server.address"},
		{"address without port", func(c *Config) { c.Server.Address = "localhost" }, "server.address"},
		{"negative connections", func(c *Config) { c.Server.MaxConnections = -1 }, "server.max_connections"},
		{"negative read timeout", func(c *Config) { c.Server.ReadTimeout = -time.Second }, "server.read_timeout"},
		{"negative write timeout", func(c *Config) { c.Server.WriteTimeout = -time.Second }, "server.write_timeout"},
		{"zero message size", func(c *Config) { c.Codec.MaxMessageSize = 0 }, "codec.max_message_size"},
		{"huge message size", func(c *Config) { c.Codec.MaxMessageSize = 1<<30 + 1 }, "codec.max_message_size"},
		{"zero depth", func(c *Config) { c.Codec.MaxDepth = 0 }, "codec.max_depth"},
		{"zero read buffer", func(c *Config) { c.Codec.ReadBufferSize = 0 }, "codec.read_buffer_size"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"relative output", func(c *Config) { c.Logging.Output = "obacodec.log" }, "logging.output"},
		{"missing output dir", func(c *Config) { c.Logging.Output = "/nonexistent-dir-obacodec/x.log" }, "logging.output"},
		{"metrics address", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Address = "bad" }, "metrics.address"},
		{"metrics path", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Path = "metrics" }, "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			errs := ValidateConfig(config)
			if len(errs) != 1 {
				t.Fatalf("got %d errors: %v", len(errs), errs)
			}
			var ve ValidationError
			if !errors.As(errs[0], &ve) || ve.Field != tt.field {
				t.Errorf("error = %v, want field %s", errs[0], tt.field)
			}
			if !strings.HasPrefix(ve.Error(), tt.field+": ") {
				t.Errorf("Error() = %q", ve.Error())
			}
		})
	}
}

func TestValidateConfig_DisabledMetricsSkipped(t *testing.T) {
	config := DefaultConfig()
	config.Metrics.Address = "bad"
	if errs := ValidateConfig(config); len(errs) != 0 {
		t.Errorf("errors = %v", errs)
	}
}
