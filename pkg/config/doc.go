// Package config loads protoform configuration with viper.
//
// # Overview
//
// Settings come from defaults, an optional config file (YAML, JSON or TOML)
// and environment variables, in increasing order of precedence. Every key
// maps to an environment variable prefixed with PROTOFORM_ with dots
// replaced by underscores.
//
// # Configuration Structure
//
// Observability settings:
//
//	PROTOFORM_LOG_LEVEL="info"  # debug, info, warn, error
//	PROTOFORM_LOG_FORMAT="text" # text, json
//	PROTOFORM_METRICS_ENABLED="false"
//
// Schema settings:
//
//	PROTOFORM_SCHEMA_CACHE_SIZE="128"
//	PROTOFORM_SCHEMA_CACHE_TTL="10m"
//
// Codec settings:
//
//	PROTOFORM_DECODE_FAST="false"       # hyperpb structured decode
//	PROTOFORM_DECODE_WIRE_DUMP="false"  # protoscope dump of opaque payloads
//	PROTOFORM_ENCODE_CONSTRAINTS="false" # protovalidate rules on encode
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	logger := cfg.Logger(os.Stderr)
//	cache := schema.NewCache(cfg.CacheConfig())
//	data, err := codec.Encode(tree, td, cfg.CodecOptions()...)
package config
