package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/platinummonkey/protoform/pkg/codec"
	"github.com/platinummonkey/protoform/pkg/observability"
	"github.com/platinummonkey/protoform/pkg/schema"
)

// EnvPrefix prefixes every environment variable, e.g. PROTOFORM_LOG_LEVEL
const EnvPrefix = "PROTOFORM"

// Configuration keys
const (
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
	KeyMetricsEnabled    = "metrics.enabled"
	KeySchemaCacheSize   = "schema.cache_size"
	KeySchemaCacheTTL    = "schema.cache_ttl"
	KeyDecodeFast        = "decode.fast"
	KeyDecodeWireDump    = "decode.wire_dump"
	KeyEncodeConstraints = "encode.constraints"
)

// Config holds all application configuration
type Config struct {
	// Observability configuration
	Observability ObservabilityConfig

	// Schema parsing configuration
	Schema SchemaConfig

	// Codec configuration
	Codec CodecConfig
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	LogFormat      string
	MetricsEnabled bool
}

// SchemaConfig holds schema cache settings
type SchemaConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

// CodecConfig holds encode and decode settings
type CodecConfig struct {
	FastDecode  bool
	WireDump    bool
	Constraints bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	return Load(viper.New(), "")
}

// Load reads configuration from v, an optional config file and the
// environment. Environment variables win over the file.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Observability: ObservabilityConfig{
			LogLevel:       parseLogLevel(v.GetString(KeyLogLevel)),
			LogFormat:      strings.ToLower(v.GetString(KeyLogFormat)),
			MetricsEnabled: v.GetBool(KeyMetricsEnabled),
		},
		Schema: SchemaConfig{
			CacheSize: v.GetInt(KeySchemaCacheSize),
			CacheTTL:  v.GetDuration(KeySchemaCacheTTL),
		},
		Codec: CodecConfig{
			FastDecode:  v.GetBool(KeyDecodeFast),
			WireDump:    v.GetBool(KeyDecodeWireDump),
			Constraints: v.GetBool(KeyEncodeConstraints),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, observability.FormatText)
	v.SetDefault(KeyMetricsEnabled, false)
	v.SetDefault(KeySchemaCacheSize, schema.DefaultCacheSize)
	v.SetDefault(KeySchemaCacheTTL, schema.DefaultCacheTTL)
	v.SetDefault(KeyDecodeFast, false)
	v.SetDefault(KeyDecodeWireDump, false)
	v.SetDefault(KeyEncodeConstraints, false)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Observability.LogFormat {
	case observability.FormatJSON, observability.FormatText:
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Observability.LogFormat)
	}

	if c.Schema.CacheSize < 1 {
		return fmt.Errorf("schema cache size must be positive, got %d", c.Schema.CacheSize)
	}
	if c.Schema.CacheTTL < 0 {
		return fmt.Errorf("schema cache TTL must not be negative, got %s", c.Schema.CacheTTL)
	}

	return nil
}

// CodecOptions returns the codec options selected by the configuration
func (c *Config) CodecOptions() []codec.Option {
	return []codec.Option{codec.FromOptions(codec.Options{
		Constraints: c.Codec.Constraints,
		FastDecode:  c.Codec.FastDecode,
		WireDump:    c.Codec.WireDump,
	})}
}

// CacheConfig returns the schema cache configuration
func (c *Config) CacheConfig() *schema.CacheConfig {
	return &schema.CacheConfig{
		MaxEntries: c.Schema.CacheSize,
		TTL:        c.Schema.CacheTTL,
	}
}

// Logger builds the configured logger writing to w
func (c *Config) Logger(w io.Writer) *observability.Logger {
	return observability.NewLoggerWithFormat(c.Observability.LogLevel, c.Observability.LogFormat, w)
}

// Metrics registers metrics on registry when metrics are enabled, and
// returns nil otherwise
func (c *Config) Metrics(registry *prometheus.Registry) *observability.Metrics {
	if !c.Observability.MetricsEnabled {
		return nil
	}
	return observability.NewMetrics(registry)
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}
