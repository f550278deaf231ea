package editor

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSchema(t *testing.T) {
	s, err := JSONSchema(loadArgs(t))
	require.NoError(t, err)

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, "Args", doc["title"])
	assert.Equal(t, map[string]any{"target": []any{"url", "id", "first"}}, doc["x-oneof"])

	props := doc["properties"].(map[string]any)
	prop := func(name string) map[string]any {
		p, ok := props[name].(map[string]any)
		require.True(t, ok, "missing property %s", name)
		return p
	}

	assert.Equal(t, "string", prop("name")["type"])
	assert.Equal(t, "Retries (Optional)", prop("retries")["title"])
	assert.Equal(t, float64(-2147483648), prop("retries")["minimum"])
	assert.Equal(t, "boolean", prop("dry_run")["type"])
	assert.Equal(t, "number", prop("ratio")["type"])
	assert.Equal(t, float64(0), prop("big")["minimum"])
	assert.Equal(t, "byte", prop("payload")["format"])

	level := prop("level")
	assert.Equal(t, "integer", level["type"])
	assert.Equal(t, []any{float64(0), float64(1)}, level["enum"])
	assert.Equal(t, []any{"LEVEL_LOW", "LEVEL_HIGH"}, level["x-enum-names"])

	labels := prop("labels")
	assert.Equal(t, "object", labels["type"])
	assert.Equal(t, "string", labels["additionalProperties"].(map[string]any)["type"])

	assert.Contains(t, prop("extra")["description"], "Missing")
	assert.Equal(t, "member of target", prop("url")["description"])

	steps := prop("steps")
	assert.Equal(t, "array", steps["type"])
	items := steps["items"].(map[string]any)
	assert.Equal(t, "object", items["type"])

	// Step.next points back at Step and is cut off
	next := items["properties"].(map[string]any)["next"].(map[string]any)
	assert.Equal(t, "object", next["type"])
	assert.Contains(t, next["description"], "recursive reference to acme.Step")
	assert.Nil(t, next["properties"])
}

func TestJSONSchema_NoType(t *testing.T) {
	_, err := JSONSchema(nil)
	assert.Error(t, err)
}
