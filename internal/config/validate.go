package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// maxMessageSizeLimit caps the configurable message size.
const maxMessageSizeLimit = 1 << 30

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig validates the configuration and returns a list of validation errors.
// An empty slice indicates the configuration is valid.
func ValidateConfig(config *Config) []error {
	var errs []error
	errs = append(errs, validateServerConfig(&config.Server)...)
	errs = append(errs, validateCodecConfig(&config.Codec)...)
	errs = append(errs, validateLogConfig(&config.Logging)...)
	errs = append(errs, validateMetricsConfig(&config.Metrics)...)
	return errs
}

func validateServerConfig(config *ServerConfig) []error {
	var errs []error

	if err := validateAddress(config.Address); err != nil {
		errs = append(errs, ValidationError{Field: "server.address", Message: err.Error()})
	}
	if config.MaxConnections < 0 {
		errs = append(errs, ValidationError{Field: "server.max_connections", Message: "must be non-negative"})
	}
	if config.ReadTimeout < 0 {
		errs = append(errs, ValidationError{Field: "server.read_timeout", Message: "must be non-negative"})
	}
	if config.WriteTimeout < 0 {
		errs = append(errs, ValidationError{Field: "server.write_timeout", Message: "must be non-negative"})
	}
	return errs
}

func validateCodecConfig(config *CodecConfig) []error {
	var errs []error

	if config.MaxMessageSize <= 0 || config.MaxMessageSize > maxMessageSizeLimit {
		errs = append(errs, ValidationError{
			Field:   "codec.max_message_size",
			Message: fmt.Sprintf("must be between 1 and %d", maxMessageSizeLimit),
		})
	}
	if config.MaxDepth <= 0 {
		errs = append(errs, ValidationError{Field: "codec.max_depth", Message: "must be positive"})
	}
	if config.ReadBufferSize <= 0 {
		errs = append(errs, ValidationError{Field: "codec.read_buffer_size", Message: "must be positive"})
	}
	return errs
}

func validateLogConfig(config *LogConfig) []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if config.Level != "" && !validLevels[strings.ToLower(config.Level)] {
		errs = append(errs, ValidationError{Field: "logging.level", Message: "must be debug, info, warn, or error"})
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if config.Format != "" && !validFormats[strings.ToLower(config.Format)] {
		errs = append(errs, ValidationError{Field: "logging.format", Message: "must be text or json"})
	}

	if config.Output != "" && config.Output != "stdout" && config.Output != "stderr" {
		dir := filepath.Dir(config.Output)
		if !filepath.IsAbs(config.Output) {
			errs = append(errs, ValidationError{
				Field:   "logging.output",
				Message: "must be stdout, stderr, or an absolute file path",
			})
		} else if _, err := os.Stat(dir); os.IsNotExist(err) {
			errs = append(errs, ValidationError{
				Field:   "logging.output",
				Message: fmt.Sprintf("directory %s does not exist", dir),
			})
		}
	}
	return errs
}

func validateMetricsConfig(config *MetricsConfig) []error {
	if !config.Enabled {
		return nil
	}
	var errs []error
	if err := validateAddress(config.Address); err != nil {
		errs = append(errs, ValidationError{Field: "metrics.address", Message: err.Error()})
	}
	if !strings.HasPrefix(config.Path, "/") {
		errs = append(errs, ValidationError{Field: "metrics.path", Message: "must start with /"})
	}
	return errs
}

func validateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("address is required")
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address format: %v", err)
	}
	if port == "" {
		return fmt.Errorf("port is required")
	}
	return nil
}
