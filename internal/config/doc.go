// Package config loads the TOML configuration shared by the obacodec
// commands.
//
// A file only needs the keys it changes; everything else keeps the value
// from DefaultConfig:
//
//	[server]
//	address = "0.0.0.0:3890"
//	read_timeout = "1m"
//
//	[codec]
//	max_message_size = 1048576
//	strict = true
//
//	[logging]
//	level = "${OBACODEC_LOG_LEVEL:-info}"
//	format = "json"
//
//	[metrics]
//	enabled = true
//
// Environment references of the form ${VAR} and ${VAR:-default} are
// substituted before parsing. Unknown keys are rejected. ValidateConfig
// reports every invalid field at once.
package config
