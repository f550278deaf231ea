package codec

// Options controls optional codec behavior
type Options struct {
	// Constraints runs protovalidate rules declared in the schema before encoding
	Constraints bool
	// FastDecode uses hyperpb for the structured decode tier
	FastDecode bool
	// WireDump attaches a protoscope rendering of opaque payloads
	WireDump bool
	// EmitDefaults makes the structured tier fill unset implicit-presence
	// fields with their zero value and unset repeated fields with empty lists
	EmitDefaults bool
}

// Option configures Options
type Option func(*Options)

// WithConstraints enables protovalidate checks on encode
func WithConstraints() Option {
	return func(o *Options) { o.Constraints = true }
}

// WithFastDecode enables the hyperpb decode path
func WithFastDecode() Option {
	return func(o *Options) { o.FastDecode = true }
}

// WithWireDump attaches a wire-format dump to opaque display values
func WithWireDump() Option {
	return func(o *Options) { o.WireDump = true }
}

// WithDefaults emits zero values for unset implicit-presence fields on decode
func WithDefaults() Option {
	return func(o *Options) { o.EmitDefaults = true }
}

// FromOptions applies a fixed Options value, for callers that load settings
// from configuration
func FromOptions(opts Options) Option {
	return func(o *Options) { *o = opts }
}

func newOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
