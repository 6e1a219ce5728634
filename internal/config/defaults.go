package config

import (
	"time"

	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
)

// DefaultReadBufferSize is the default stream read chunk.
const DefaultReadBufferSize = 4096

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        "127.0.0.1:3890",
			MaxConnections: 1024,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
		},
		Codec: CodecConfig{
			MaxMessageSize: grammar.DefaultMaxMessageSize,
			MaxDepth:       grammar.DefaultMaxDepth,
			ReadBufferSize: DefaultReadBufferSize,
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "127.0.0.1:9390",
			Path:    "/metrics",
		},
	}
}
