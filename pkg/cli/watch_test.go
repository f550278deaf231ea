package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protoform/pkg/editor"
	"github.com/platinummonkey/protoform/pkg/observability"
)

func TestSchemaWatcher_LatestLoadWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.proto")
	var out bytes.Buffer
	w := newSchemaWatcher(editor.NewSession(), path, &out, observability.NopLogger())

	require.NoError(t, os.WriteFile(path, []byte("syntax = \"proto3\";\nmessage Alpha { string a = 1; }"), 0o644))
	require.NoError(t, w.trigger(context.Background()))
	require.NoError(t, os.WriteFile(path, []byte("syntax = \"proto3\";\nmessage Beta { bool b = 1; }"), 0o644))
	require.NoError(t, w.trigger(context.Background()))

	applied := 0
	for i := 0; i < 2; i++ {
		select {
		case r := <-w.results:
			if w.apply(r) {
				applied++
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for schema load")
		}
	}

	assert.Equal(t, 1, applied)
	require.NotNil(t, w.session.Type())
	assert.Equal(t, "Beta", w.session.Type().FullName())
	assert.Contains(t, out.String(), "toggle")
	assert.NotContains(t, out.String(), "Alpha")
}

func TestSchemaWatcher_ReportsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.proto")
	var out bytes.Buffer
	w := newSchemaWatcher(editor.NewSession(), path, &out, observability.NopLogger())

	assert.Error(t, w.trigger(context.Background()))

	require.NoError(t, os.WriteFile(path, []byte("message {"), 0o644))
	require.NoError(t, w.trigger(context.Background()))
	assert.True(t, w.apply(<-w.results))
	assert.Contains(t, out.String(), "error:")
	assert.Equal(t, editor.StateError, w.session.Status().State)

	out.Reset()
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	require.NoError(t, w.trigger(context.Background()))
	assert.True(t, w.apply(<-w.results))
	assert.Equal(t, "(empty schema)\n", out.String())
}

func TestSchemaWatcher_LoadsStopAfterCancel(t *testing.T) {
	w := newSchemaWatcher(editor.NewSession(), "job.proto", &bytes.Buffer{}, observability.NopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var done []<-chan struct{}
	for i := 0; i < cap(w.results)+4; i++ {
		done = append(done, w.load(ctx, "syntax = \"proto3\";\nmessage Alpha { string a = 1; }"))
	}
	for _, d := range done {
		select {
		case <-d:
		case <-time.After(5 * time.Second):
			t.Fatal("schema load still blocked after cancel")
		}
	}
	assert.LessOrEqual(t, len(w.results), cap(w.results))
}
