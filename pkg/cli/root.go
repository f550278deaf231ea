package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/platinummonkey/protoform/pkg/config"
	"github.com/platinummonkey/protoform/pkg/editor"
	"github.com/platinummonkey/protoform/pkg/observability"
	"github.com/platinummonkey/protoform/pkg/schema"
)

// app holds what every command needs once configuration is loaded
type app struct {
	configFile string
	message    string

	cfg      *config.Config
	logger   *observability.Logger
	cache    *schema.Cache
	registry *prometheus.Registry
	metrics  *observability.Metrics
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	a := &app{}
	v := viper.New()

	root := &cobra.Command{
		Use:           "protoform",
		Short:         "protoform - edit, encode and decode protobuf values from schema text",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd, v)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.reportMetrics()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (yaml, json or toml)")
	flags.StringVarP(&a.message, "message", "m", "", "Message type to use (default: first declared)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", observability.FormatText, "Log format: text or json")
	flags.Bool("fast", false, "Use the hyperpb decoder")
	flags.Bool("wire-dump", false, "Dump opaque payloads in protoscope format")
	flags.Bool("constraints", false, "Check protovalidate rules when encoding")
	flags.Bool("metrics", false, "Log metric totals when the command finishes")

	for key, name := range map[string]string{
		config.KeyLogLevel:          "log-level",
		config.KeyLogFormat:         "log-format",
		config.KeyDecodeFast:        "fast",
		config.KeyDecodeWireDump:    "wire-dump",
		config.KeyEncodeConstraints: "constraints",
		config.KeyMetricsEnabled:    "metrics",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}

	root.AddCommand(
		newFieldsCommand(a),
		newEncodeCommand(a),
		newDecodeCommand(a),
		newSchemaCommand(a),
		newJSONSchemaCommand(a),
		newWatchCommand(a),
	)

	return root
}

func (a *app) load(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.Load(v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Logger(cmd.ErrOrStderr())
	a.registry = prometheus.NewRegistry()
	a.metrics = cfg.Metrics(a.registry)
	a.cache = schema.NewCache(cfg.CacheConfig()).WithMetrics(a.metrics)
	return nil
}

// reportMetrics logs the total of every metric family that was observed
func (a *app) reportMetrics() {
	if a.metrics == nil {
		return
	}
	families, err := a.registry.Gather()
	if err != nil {
		a.logger.WithError(err).Warn("failed to gather metrics")
		return
	}
	fields := make(map[string]interface{}, len(families))
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		fields[mf.GetName()] = total
	}
	a.logger.WithFields(fields).Info("metrics")
}

func (a *app) newSession(opts ...editor.SessionOption) *editor.Session {
	base := []editor.SessionOption{
		editor.WithLogger(a.logger),
		editor.WithMetrics(a.metrics),
		editor.WithCache(a.cache),
		editor.WithMessage(a.message),
		editor.WithCodecOptions(a.cfg.CodecOptions()...),
	}
	return editor.NewSession(append(base, opts...)...)
}

// session loads the schema file into a new session. A blank schema file is
// not an error; the session is then empty.
func (a *app) session(path string, opts ...editor.SessionOption) (*editor.Session, error) {
	text, err := readFile(path)
	if err != nil {
		return nil, err
	}
	s := a.newSession(opts...)
	if err := s.SetSchema(string(text)); err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", path, err)
	}
	return s, nil
}

// readySession is session for commands that need a message type
func (a *app) readySession(path string) (*editor.Session, error) {
	s, err := a.session(path)
	if err != nil {
		return nil, err
	}
	if s.Type() == nil {
		return nil, fmt.Errorf("schema %s is empty", path)
	}
	return s, nil
}
