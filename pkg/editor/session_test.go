package editor

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protoform/pkg/codec"
	"github.com/platinummonkey/protoform/pkg/observability"
	"github.com/platinummonkey/protoform/pkg/schema"
	"github.com/platinummonkey/protoform/pkg/valuetree"
)

func TestSession_Lifecycle(t *testing.T) {
	s := NewSession()
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, StateEmpty, s.Status().State)
	assert.Nil(t, s.Form())

	require.NoError(t, s.SetSchema("   \n"))
	assert.Equal(t, StateEmpty, s.Status().State)

	err := s.SetSchema("message {")
	var perr *schema.ParseError
	require.True(t, errors.As(err, &perr))
	st := s.Status()
	assert.Equal(t, StateError, st.State)
	assert.Equal(t, err, st.Err)
	assert.Nil(t, s.Form())

	require.NoError(t, s.SetSchema(argsSchema))
	st = s.Status()
	assert.Equal(t, StateReady, st.State)
	assert.Len(t, st.Warnings, 1)
	require.NotNil(t, s.Form())
	assert.Equal(t, "Args", s.Type().Name())
	assert.Equal(t, argsSchema, s.Text())
}

func TestSession_NoMessage(t *testing.T) {
	s := NewSession()
	err := s.SetSchema(`enum Color { RED = 0; }`)
	assert.ErrorIs(t, err, schema.ErrNoMessage)
	assert.Equal(t, StateError, s.Status().State)
	assert.NotNil(t, s.Schema())
	assert.Nil(t, s.Type())
}

func TestSession_EditAndEncode(t *testing.T) {
	var changes int
	s := NewSession(WithOnChange(func(valuetree.Tree) { changes++ }))
	require.NoError(t, s.SetSchema(argsSchema))

	require.NoError(t, s.Form().Widget("name").(*TextInput).SetText("nightly"))
	require.NoError(t, s.Form().Choice("target").Select("id"))
	assert.Equal(t, valuetree.Tree{"name": "nightly", "id": int64(0)}, s.Value())
	assert.Equal(t, 2, changes)

	b, err := s.Encode()
	require.NoError(t, err)
	assert.NotEmpty(t, b)

	dv := s.Decode(b)
	assert.Equal(t, codec.TierStructured, dv.Tier)
	assert.Equal(t, "nightly", dv.Tree["name"])
}

func TestSession_SchemaChangeDiscardsValue(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.SetSchema(argsSchema))
	s.SetValue(valuetree.Tree{"name": "x"})
	assert.Equal(t, "x", s.Form().Widget("name").(*TextInput).Text())

	require.NoError(t, s.SetSchema("message Other { string name = 1; }"))
	assert.Equal(t, valuetree.Tree{}, s.Value())
	assert.Equal(t, "", s.Form().Widget("name").(*TextInput).Text())
}

func TestSession_LastWriteWins(t *testing.T) {
	s := NewSession()

	older := s.Begin("message A { string a = 1; }")
	newer := s.Begin("message B { string b = 1; }")

	parsedNewer, err := s.Load(newer)
	require.NoError(t, err)
	assert.True(t, s.Apply(newer, parsedNewer, nil))

	parsedOlder, err := s.Load(older)
	require.NoError(t, err)
	assert.False(t, s.Apply(older, parsedOlder, nil))

	assert.Equal(t, "B", s.Type().Name())
	assert.Equal(t, newer.Text(), s.Text())
}

func TestSession_WithMessage(t *testing.T) {
	s := NewSession(WithMessage("Step"))
	require.NoError(t, s.SetSchema(argsSchema))
	assert.Equal(t, "Step", s.Type().Name())

	s = NewSession(WithMessage("Nope"))
	assert.ErrorIs(t, s.SetSchema(argsSchema), schema.ErrMessageNotFound)
}

func TestSession_Prefill(t *testing.T) {
	src := NewSession()
	require.NoError(t, src.SetSchema(argsSchema))
	src.SetValue(valuetree.Tree{"name": "retry me", "retries": int64(3)})
	b, err := src.Encode()
	require.NoError(t, err)

	s := NewSession()
	require.NoError(t, s.SetSchema(argsSchema))
	require.True(t, s.Prefill(b))

	v := s.Value()
	assert.Equal(t, "retry me", v["name"])
	assert.Equal(t, int64(3), v["retries"])
	assert.Equal(t, int32(0), v["level"])
	assert.Equal(t, valuetree.List{}, v["steps"])
	assert.Equal(t, "retry me", s.Form().Widget("name").(*TextInput).Text())

	assert.False(t, s.Prefill([]byte("not proto")))
	assert.Equal(t, "retry me", s.Value()["name"])
}

func TestSession_ObservabilityAndCache(t *testing.T) {
	var buf bytes.Buffer
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	cache := schema.NewCache(nil).WithMetrics(metrics)

	s := NewSession(
		WithLogger(observability.NewLogger(observability.DebugLevel, &buf)),
		WithMetrics(metrics),
		WithCache(cache),
	)
	require.NoError(t, s.SetSchema(argsSchema))
	require.NoError(t, s.SetSchema(argsSchema))

	assert.Contains(t, buf.String(), `"level":"warning"`)
	assert.Contains(t, buf.String(), "Missing")
	assert.Contains(t, buf.String(), s.ID())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SchemaCacheHitsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SchemaParsesTotal.WithLabelValues(observability.ResultSuccess)))

	s.SetValue(valuetree.Tree{"nope": true})
	_, err := s.Encode()
	assert.ErrorIs(t, err, codec.ErrInvalidValue)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EncodesTotal.WithLabelValues(observability.ResultError)))

	s.Decode(nil)
	s.Decode([]byte{0xff})
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.DecodesTotal.WithLabelValues("empty")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.DecodesTotal.WithLabelValues("opaque")))
}

func TestSession_ParseMetrics(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	s := NewSession(WithMetrics(metrics))

	require.NoError(t, s.SetSchema(argsSchema))
	assert.Error(t, s.SetSchema("message {"))
	require.NoError(t, s.SetSchema(""))

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SchemaParsesTotal.WithLabelValues(observability.ResultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SchemaParsesTotal.WithLabelValues(observability.ResultError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ResolutionWarningsTotal))
}

func TestSession_EncodeEmptyLabel(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	s := NewSession(WithMetrics(metrics))
	require.NoError(t, s.SetSchema(argsSchema))

	s.SetValue(valuetree.Tree{"dry_run": false})
	b, err := s.Encode()
	require.NoError(t, err)
	assert.Empty(t, b)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EncodesTotal.WithLabelValues(observability.ResultSuccess)))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.EncodesTotal.WithLabelValues(observability.ResultEmpty)))

	s.SetValue(nil)
	_, err = s.Encode()
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EncodesTotal.WithLabelValues(observability.ResultEmpty)))
}

func TestSession_Context(t *testing.T) {
	var buf bytes.Buffer
	s := NewSession(WithLogger(observability.NewLogger(observability.InfoLevel, &buf)))

	ctx := s.Context(context.Background())
	assert.Equal(t, s.ID(), observability.GetSessionID(ctx))

	observability.FromContext(ctx, nil).Info("from session context")
	assert.Contains(t, buf.String(), "from session context")
	assert.Contains(t, buf.String(), s.ID())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "unknown", State(9).String())
}
