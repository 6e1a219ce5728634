package config

import (
	"io"
	"time"

	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
	"github.com/KilimcininKorOglu/obacodec/internal/logging"
)

// Config holds the complete configuration of the codec tools and the
// inspector server.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Codec   CodecConfig   `toml:"codec"`
	Logging LogConfig     `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`
}

// ServerConfig holds inspector server configuration.
type ServerConfig struct {
	Address        string        `toml:"address"`
	MaxConnections int           `toml:"max_connections"`
	ReadTimeout    time.Duration `toml:"read_timeout"`
	WriteTimeout   time.Duration `toml:"write_timeout"`
}

// CodecConfig holds decoder limits.
type CodecConfig struct {
	MaxMessageSize int  `toml:"max_message_size"`
	MaxDepth       int  `toml:"max_depth"`
	Strict         bool `toml:"strict"`
	// ReadBufferSize is the chunk size used when reading from a stream.
	ReadBufferSize int `toml:"read_buffer_size"`
}

// Options returns the decoder options for c.
func (c CodecConfig) Options() grammar.Options {
	return grammar.Options{
		MaxMessageSize: c.MaxMessageSize,
		MaxDepth:       c.MaxDepth,
		Strict:         c.Strict,
	}
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// Logger returns a logger built from c and the closer of its output.
func (c LogConfig) Logger() (logging.Logger, io.Closer, error) {
	return logging.New(logging.Config{Level: c.Level, Format: c.Format, Output: c.Output})
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Path    string `toml:"path"`
}
