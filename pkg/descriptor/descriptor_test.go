package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protoform/pkg/schema"
	"github.com/platinummonkey/protoform/pkg/valuetree"
)

const argsSchema = `syntax = "proto3";
package acme;

message Args {
  string name = 1;
  oneof target {
    string url = 2;
    int64 id = 3;
  }
  optional int32 retries = 4;
  Level level = 5;
  repeated Step steps = 6;
  map<string, string> labels = 7;
  bytes payload = 8;
  uint64 big = 9;
  double ratio = 10;
  bool dry_run = 11;
  Missing extra = 12;

  enum Level {
    LEVEL_LOW = 0;
    LEVEL_HIGH = 1;
  }
}

message Step {
  string cmd = 1;
  Step next = 2;
}`

func loadArgs(t *testing.T) *TypeDescriptor {
	t.Helper()
	s, err := schema.Parse(argsSchema)
	require.NoError(t, err)
	td, err := FromSchema(s)
	require.NoError(t, err)
	return td
}

func TestFromSchema_Fields(t *testing.T) {
	td := loadArgs(t)

	assert.Equal(t, "Args", td.Name())
	assert.Equal(t, "acme.Args", td.FullName())
	require.Len(t, td.Fields(), 12)

	tests := []struct {
		name  string
		kind  Kind
		class Class
	}{
		{"name", KindString, ClassString},
		{"url", KindString, ClassString},
		{"id", KindInt64, ClassInt},
		{"retries", KindInt32, ClassInt},
		{"level", KindEnum, ClassEnum},
		{"steps", KindMessage, ClassMessage},
		{"labels", KindOpaque, ClassOpaque},
		{"payload", KindBytes, ClassBytes},
		{"big", KindUint64, ClassInt},
		{"ratio", KindDouble, ClassFloat},
		{"dry_run", KindBool, ClassBool},
		{"extra", KindOpaque, ClassOpaque},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := td.Fields()[i]
			assert.Equal(t, tt.name, f.Name)
			assert.Equal(t, tt.kind, f.Kind)
			assert.Equal(t, tt.class, f.Class())
			assert.Same(t, f, td.Field(tt.name))
		})
	}

	assert.Nil(t, td.Field("nope"))
}

func TestFromSchema_Details(t *testing.T) {
	td := loadArgs(t)

	level := td.Field("level")
	require.NotNil(t, level.Enum)
	assert.Equal(t, "acme.Args.Level", level.Enum.FullName)
	assert.Equal(t, []EnumValue{{"LEVEL_LOW", 0}, {"LEVEL_HIGH", 1}}, level.Enum.Values)

	v, ok := level.Enum.ByName("LEVEL_HIGH")
	assert.True(t, ok)
	assert.Equal(t, int32(1), v.Number)
	_, ok = level.Enum.ByNumber(7)
	assert.False(t, ok)

	steps := td.Field("steps")
	assert.True(t, steps.Repeated)
	require.NotNil(t, steps.Message)
	assert.Equal(t, "acme.Step", steps.TypeName)

	labels := td.Field("labels")
	assert.True(t, labels.Map)
	assert.False(t, labels.Repeated)
	assert.Equal(t, "map<string, string>", labels.TypeName)

	extra := td.Field("extra")
	assert.True(t, extra.Unresolved)
	assert.Equal(t, "Missing", extra.TypeName)

	assert.Equal(t, int32(11), td.Field("dry_run").Number)
	assert.Equal(t, "dryRun", td.Field("dry_run").JSONName)
}

func TestFromSchema_Recursive(t *testing.T) {
	td := loadArgs(t)

	step := td.Field("steps").Message
	next := step.Field("next")
	require.NotNil(t, next.Message)
	assert.Same(t, step, next.Message)
}

func TestOneofClassification(t *testing.T) {
	td := loadArgs(t)

	require.Len(t, td.Oneofs(), 2)
	require.Len(t, td.RealOneofs(), 1)

	target := td.RealOneofs()[0]
	assert.Equal(t, "target", target.Name)
	assert.Equal(t, []string{"url", "id"}, target.Fields)
	assert.False(t, target.Synthetic)

	retries := td.Field("retries")
	require.NotNil(t, retries.Oneof)
	assert.True(t, retries.Oneof.Synthetic)
	assert.True(t, retries.Optional)
	assert.False(t, retries.InChoice())
	assert.True(t, retries.HasPresence())

	assert.True(t, td.Field("url").InChoice())
	assert.False(t, td.Field("name").HasPresence())

	var standalone []string
	for _, f := range td.StandaloneFields() {
		standalone = append(standalone, f.Name)
	}
	assert.Equal(t, []string{"name", "retries", "level", "steps", "labels", "payload", "big", "ratio", "dry_run", "extra"}, standalone)
}

func TestIsSynthetic(t *testing.T) {
	assert.True(t, IsSynthetic("_x", []string{"x"}))
	assert.False(t, IsSynthetic("x", []string{"x"}))
	assert.False(t, IsSynthetic("_x", []string{"x", "y"}))
	assert.False(t, IsSynthetic("_y", []string{"x"}))
	assert.False(t, IsSynthetic("_x", nil))
}

func TestOneofGroup_Transitions(t *testing.T) {
	g := &OneofGroup{Name: "target", Fields: []string{"url", "id"}}
	base := valuetree.Tree{"url": "http://x", "name": "keep"}

	next := g.Select(base, "id", int64(9))
	assert.Equal(t, valuetree.Tree{"id": int64(9), "name": "keep"}, next)
	assert.Equal(t, "http://x", base["url"])

	active, ok := g.Active(next)
	assert.True(t, ok)
	assert.Equal(t, "id", active)

	cleared := g.Clear(next)
	_, ok = g.Active(cleared)
	assert.False(t, ok)
	assert.Equal(t, valuetree.Tree{"name": "keep"}, cleared)

	// Active takes the first member present in declaration order.
	both := valuetree.Tree{"id": int64(1), "url": "u"}
	active, _ = g.Active(both)
	assert.Equal(t, "url", active)
	assert.True(t, g.Has("id"))
	assert.False(t, g.Has("name"))
}

func TestFieldDescriptor_Default(t *testing.T) {
	td := loadArgs(t)

	assert.Equal(t, "", td.Field("name").Default())
	assert.Equal(t, int64(0), td.Field("id").Default())
	assert.Equal(t, uint64(0), td.Field("big").Default())
	assert.Equal(t, float64(0), td.Field("ratio").Default())
	assert.Equal(t, false, td.Field("dry_run").Default())
	assert.Equal(t, int32(0), td.Field("level").Default())
	assert.Equal(t, valuetree.Tree{}, td.Field("steps").Default())
	assert.Equal(t, "", td.Field("payload").Default())
	assert.Equal(t, "", td.Field("extra").Default())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "sfixed64", KindSfixed64.String())
	assert.Equal(t, "unknown", Kind(99).String())
	assert.True(t, KindFixed32.Unsigned())
	assert.False(t, KindSint64.Unsigned())
	assert.True(t, KindSint64.Is64())

	lo, hi := KindInt32.IntRange()
	assert.Equal(t, int64(-2147483648), lo)
	assert.Equal(t, int64(2147483647), hi)
	assert.Equal(t, uint64(4294967295), KindUint32.UintMax())
	assert.Equal(t, "opaque", ClassOpaque.String())
}
