package editor

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/platinummonkey/protoform/pkg/codec"
	"github.com/platinummonkey/protoform/pkg/descriptor"
	"github.com/platinummonkey/protoform/pkg/observability"
	"github.com/platinummonkey/protoform/pkg/schema"
	"github.com/platinummonkey/protoform/pkg/valuetree"
)

// State is the lifecycle state of a Session's schema
type State int

const (
	// StateEmpty means no schema text is loaded
	StateEmpty State = iota
	// StateError means the schema text failed to load
	StateError
	// StateReady means a message type is loaded and the form can render
	StateReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateError:
		return "error"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Status summarizes a Session's schema state
type Status struct {
	State    State
	Err      error
	Warnings []schema.ResolutionWarning
}

// Ticket identifies one schema load. Only the most recently issued ticket
// may be applied.
type Ticket struct {
	seq  uint64
	text string
}

// Text returns the schema text the ticket was issued for
func (t Ticket) Text() string {
	return t.text
}

// Session owns the state derived from one schema text: the parsed schema,
// the selected message type, the value tree and its form. Changing the
// schema rebuilds all of it and discards the value tree.
//
// A Session is not safe for concurrent use. Load does not touch session
// state and may run on another goroutine; its result is handed back
// through Apply.
type Session struct {
	id       string
	logger   *observability.Logger
	metrics  *observability.Metrics
	cache    *schema.Cache
	codec    []codec.Option
	message  string
	onChange ChangeFunc

	seq    uint64
	text   string
	schema *schema.Schema
	td     *descriptor.TypeDescriptor
	err    error
	value  valuetree.Tree
	form   *Form
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithLogger sets the session logger
func WithLogger(l *observability.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithMetrics records parses, encodes and decodes to m
func WithMetrics(m *observability.Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithCache parses schema text through c
func WithCache(c *schema.Cache) SessionOption {
	return func(s *Session) { s.cache = c }
}

// WithCodecOptions sets the options used by Encode and Decode
func WithCodecOptions(opts ...codec.Option) SessionOption {
	return func(s *Session) { s.codec = opts }
}

// WithMessage selects a message type by name instead of the first one declared
func WithMessage(name string) SessionOption {
	return func(s *Session) { s.message = name }
}

// WithOnChange is called with the new value tree after every form edit
func WithOnChange(fn ChangeFunc) SessionOption {
	return func(s *Session) { s.onChange = fn }
}

// NewSession creates an empty session
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		id:     uuid.NewString(),
		logger: observability.NopLogger(),
		value:  valuetree.Tree{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("session_id", s.id)
	return s
}

// ID returns the session's unique id
func (s *Session) ID() string {
	return s.id
}

// Context returns parent carrying the session's logger and id, for calls
// such as jobs.Client.Enqueue made on the session's behalf
func (s *Session) Context(parent context.Context) context.Context {
	return observability.WithSessionID(observability.WithLogger(parent, s.logger), s.id)
}

// SetSchema loads text synchronously. The returned error is the same as
// Status().Err; blank text is not an error and leaves the session empty.
func (s *Session) SetSchema(text string) error {
	t := s.Begin(text)
	parsed, err := s.Load(t)
	s.Apply(t, parsed, err)
	return s.err
}

// Begin issues a ticket for text, invalidating every earlier ticket
func (s *Session) Begin(text string) Ticket {
	s.seq++
	return Ticket{seq: s.seq, text: text}
}

// Load parses the ticket's text
func (s *Session) Load(t Ticket) (*schema.Schema, error) {
	if s.cache != nil {
		return s.cache.Parse(t.text)
	}
	parsed, err := schema.Parse(t.text)
	if !errors.Is(err, schema.ErrEmptySchema) {
		warnings := 0
		if parsed != nil {
			warnings = len(parsed.Warnings())
		}
		s.metrics.RecordParse(err, warnings)
	}
	return parsed, err
}

// Apply installs the result of loading t. A result for any ticket other than
// the most recent one is dropped and Apply returns false.
func (s *Session) Apply(t Ticket, parsed *schema.Schema, err error) bool {
	if t.seq != s.seq {
		s.logger.WithField("ticket", t.seq).Debug("discarding stale schema load")
		return false
	}

	s.text = t.text
	s.schema = nil
	s.td = nil
	s.err = nil
	s.value = valuetree.Tree{}
	s.form = nil

	switch {
	case errors.Is(err, schema.ErrEmptySchema):
		return true
	case err != nil:
		s.err = err
		s.logger.WithError(err).Info("schema failed to load")
		return true
	}

	for _, w := range parsed.Warnings() {
		s.logger.WithFields(map[string]interface{}{
			"field":     w.Field,
			"reference": w.Reference,
		}).Warn(w.Msg)
	}

	td, err := descriptor.FromSchemaMessage(parsed, s.message)
	if err != nil {
		s.err = err
		s.schema = parsed
		return true
	}

	s.schema = parsed
	s.td = td
	s.form = s.project()
	return true
}

func (s *Session) project() *Form {
	return Project(s.td, s.value, func(t valuetree.Tree) {
		s.value = t
		if s.onChange != nil {
			s.onChange(t)
		}
	})
}

// Status returns the current schema state
func (s *Session) Status() Status {
	st := Status{Err: s.err}
	if s.schema != nil {
		st.Warnings = s.schema.Warnings()
	}
	switch {
	case s.err != nil:
		st.State = StateError
	case s.td != nil:
		st.State = StateReady
	default:
		st.State = StateEmpty
	}
	return st
}

// Text returns the schema text of the last applied load
func (s *Session) Text() string {
	return s.text
}

// Schema returns the loaded schema, or nil
func (s *Session) Schema() *schema.Schema {
	return s.schema
}

// Type returns the selected message type, or nil
func (s *Session) Type() *descriptor.TypeDescriptor {
	return s.td
}

// Form returns the form over the current value, or nil when no type is loaded
func (s *Session) Form() *Form {
	return s.form
}

// Value returns the current value tree
func (s *Session) Value() valuetree.Tree {
	return s.value
}

// SetValue replaces the value tree and re-projects the form
func (s *Session) SetValue(v valuetree.Tree) {
	if v == nil {
		v = valuetree.Tree{}
	}
	s.value = v
	if s.td != nil {
		s.form = s.project()
	}
}

// Encode serializes the current value against the selected type
func (s *Session) Encode() ([]byte, error) {
	b, err := codec.Encode(s.value, s.td, s.codec...)
	s.metrics.RecordEncode(err, err == nil && s.value.IsEmpty())
	if err != nil {
		s.logger.WithError(err).Debug("encode rejected")
	}
	return b, err
}

// Decode renders data against the selected type
func (s *Session) Decode(data []byte) codec.DisplayValue {
	dv := codec.Decode(data, s.td, s.codec...)
	s.metrics.RecordDecode(dv.Tier.String())
	if dv.Cause != nil {
		s.logger.WithError(dv.Cause).WithField("tier", dv.Tier.String()).Debug("structured decode skipped")
	}
	return dv
}

// Prefill decodes data with defaults and, when it decodes structurally,
// makes the result the current value
func (s *Session) Prefill(data []byte) bool {
	dv := codec.Decode(data, s.td, append(append([]codec.Option{}, s.codec...), codec.WithDefaults())...)
	s.metrics.RecordDecode(dv.Tier.String())
	if dv.Tier != codec.TierStructured {
		return false
	}
	s.SetValue(dv.Tree)
	return true
}
