package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protoform/pkg/descriptor"
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
    Step first = 14;
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
  repeated int32 codes = 13;

  enum Level {
    LEVEL_LOW = 0;
    LEVEL_HIGH = 1;
  }
}

message Step {
  string cmd = 1;
  Step next = 2;
}`

func loadArgs(t *testing.T) *descriptor.TypeDescriptor {
	t.Helper()
	s, err := schema.Parse(argsSchema)
	require.NoError(t, err)
	td, err := descriptor.FromSchema(s)
	require.NoError(t, err)
	return td
}

// recorder collects the trees passed to a form's change callback
type recorder struct {
	trees []valuetree.Tree
}

func (r *recorder) onChange(t valuetree.Tree) {
	r.trees = append(r.trees, t)
}

func (r *recorder) last() valuetree.Tree {
	if len(r.trees) == 0 {
		return nil
	}
	return r.trees[len(r.trees)-1]
}

func TestProject_Layout(t *testing.T) {
	form := Project(loadArgs(t), nil, nil)

	var names []string
	for _, w := range form.Fields() {
		names = append(names, w.Name())
	}
	assert.Equal(t, []string{
		"name", "retries", "level", "steps", "labels", "payload",
		"big", "ratio", "dry_run", "extra", "codes", "target",
	}, names)

	assert.IsType(t, &TextInput{}, form.Widget("name"))
	assert.IsType(t, &NumberInput{}, form.Widget("retries"))
	assert.IsType(t, &EnumSelect{}, form.Widget("level"))
	assert.IsType(t, &ListEditor{}, form.Widget("steps"))
	assert.IsType(t, &TextInput{}, form.Widget("labels"))
	assert.IsType(t, &TextInput{}, form.Widget("payload"))
	assert.IsType(t, &NumberInput{}, form.Widget("big"))
	assert.IsType(t, &NumberInput{}, form.Widget("ratio"))
	assert.IsType(t, &Toggle{}, form.Widget("dry_run"))
	assert.IsType(t, &TextInput{}, form.Widget("extra"))
	assert.IsType(t, &ListEditor{}, form.Widget("codes"))
	assert.IsType(t, &Choice{}, form.Widget("target"))
	assert.Nil(t, form.Widget("url"))
	assert.Equal(t, valuetree.Tree{}, form.Value())
}

func TestLabels(t *testing.T) {
	form := Project(loadArgs(t), nil, nil)

	assert.Equal(t, "Name", form.Widget("name").Label())
	assert.Equal(t, "Dry Run", form.Widget("dry_run").Label())
	assert.Equal(t, "Retries (Optional)", form.Widget("retries").Label())
	assert.Equal(t, "Target (Select One)", form.Widget("target").Label())
	assert.Equal(t, "Max Retry Count", Humanize("max_retry_count"))
}

func TestForm_NeverMutatesInput(t *testing.T) {
	in := valuetree.Tree{"name": "a"}
	rec := &recorder{}
	form := Project(loadArgs(t), in, rec.onChange)

	require.NoError(t, form.Widget("name").(*TextInput).SetText("b"))

	assert.Equal(t, "a", in["name"])
	assert.Equal(t, valuetree.Tree{"name": "b"}, form.Value())
	assert.Equal(t, form.Value(), rec.last())
	assert.Len(t, rec.trees, 1)
}

func TestToggle(t *testing.T) {
	form := Project(loadArgs(t), nil, nil)
	toggle := form.Widget("dry_run").(*Toggle)

	assert.False(t, toggle.Checked())
	assert.False(t, toggle.IsSet())

	toggle.Set(false)
	assert.True(t, toggle.IsSet())
	assert.False(t, toggle.Checked())
	assert.Equal(t, valuetree.Tree{"dry_run": false}, form.Value())

	toggle.Set(true)
	assert.True(t, toggle.Checked())

	toggle.Clear()
	assert.False(t, toggle.IsSet())
	assert.Equal(t, valuetree.Tree{}, form.Value())
}

func TestNumberInput(t *testing.T) {
	form := Project(loadArgs(t), nil, nil)
	retries := form.Widget("retries").(*NumberInput)
	big := form.Widget("big").(*NumberInput)
	ratio := form.Widget("ratio").(*NumberInput)

	require.NoError(t, retries.SetText(" 12 "))
	assert.Equal(t, int64(12), form.Value()["retries"])
	assert.Equal(t, "12", retries.Text())

	// invalid text unsets rather than storing zero
	assert.Error(t, retries.SetText("12abc"))
	assert.False(t, form.Value().Has("retries"))
	assert.Equal(t, "", retries.Text())

	require.NoError(t, retries.SetText("5"))
	require.NoError(t, retries.SetText(""))
	assert.False(t, retries.IsSet())

	assert.Error(t, retries.SetText("3000000000"))
	assert.False(t, retries.IsSet())

	require.NoError(t, big.SetText("18446744073709551615"))
	assert.Equal(t, uint64(18446744073709551615), form.Value()["big"])
	assert.Error(t, big.SetText("-1"))

	require.NoError(t, ratio.SetText("0.5"))
	assert.Equal(t, 0.5, form.Value()["ratio"])
	assert.Equal(t, "0.5", ratio.Text())
}

func TestEnumSelect(t *testing.T) {
	form := Project(loadArgs(t), nil, nil)
	level := form.Widget("level").(*EnumSelect)

	require.Len(t, level.Options(), 2)
	_, ok := level.Selected()
	assert.False(t, ok)

	require.NoError(t, level.Select(1))
	assert.Equal(t, int32(1), form.Value()["level"])
	v, ok := level.Selected()
	require.True(t, ok)
	assert.Equal(t, "LEVEL_HIGH", v.Name)

	assert.Error(t, level.Select(7))
	assert.Equal(t, int32(1), form.Value()["level"])

	require.NoError(t, level.SelectName("LEVEL_LOW"))
	assert.Equal(t, int32(0), form.Value()["level"])
	assert.Error(t, level.SelectName("LEVEL_NONE"))
}

func TestEnumSelect_ReadsForeignNumbers(t *testing.T) {
	form := Project(loadArgs(t), valuetree.Tree{"level": float64(1)}, nil)
	v, ok := form.Widget("level").(*EnumSelect).Selected()
	require.True(t, ok)
	assert.Equal(t, "LEVEL_HIGH", v.Name)
}

func TestTextInput(t *testing.T) {
	form := Project(loadArgs(t), nil, nil)
	payload := form.Widget("payload").(*TextInput)
	labels := form.Widget("labels").(*TextInput)
	extra := form.Widget("extra").(*TextInput)

	assert.Error(t, payload.SetText("!!"))
	assert.False(t, payload.IsSet())
	require.NoError(t, payload.SetText("aGk="))
	assert.Equal(t, "aGk=", form.Value()["payload"])

	require.NoError(t, labels.SetText(`{"team": "infra"}`))
	assert.Equal(t, valuetree.Tree{"team": "infra"}, form.Value()["labels"])
	assert.Equal(t, `{"team":"infra"}`, labels.Text())
	assert.Error(t, labels.SetText("[1]"))
	assert.False(t, labels.IsSet())

	require.NoError(t, extra.SetText("anything"))
	assert.Equal(t, "anything", extra.Text())

	// an empty string is a value for string fields
	name := form.Widget("name").(*TextInput)
	require.NoError(t, name.SetText(""))
	assert.True(t, name.IsSet())
}

func TestChoice(t *testing.T) {
	rec := &recorder{}
	form := Project(loadArgs(t), valuetree.Tree{"name": "keep"}, rec.onChange)
	target := form.Choice("target")
	require.NotNil(t, target)

	var options []string
	for _, fd := range target.Options() {
		options = append(options, fd.Name)
	}
	assert.Equal(t, []string{"url", "id", "first"}, options)

	_, ok := target.Active()
	assert.False(t, ok)
	assert.Nil(t, target.Widget())

	require.NoError(t, target.Select("url"))
	assert.Equal(t, valuetree.Tree{"name": "keep", "url": ""}, form.Value())

	url, ok := target.Widget().(*TextInput)
	require.True(t, ok)
	require.NoError(t, url.SetText("http://x"))
	assert.Equal(t, valuetree.Tree{"name": "keep", "url": "http://x"}, form.Value())

	// reselecting the active member keeps its value
	require.NoError(t, target.Select("url"))
	assert.Equal(t, "http://x", form.Value()["url"])

	require.NoError(t, target.Select("id"))
	assert.Equal(t, valuetree.Tree{"name": "keep", "id": int64(0)}, form.Value())

	id, ok := target.Widget().(*NumberInput)
	require.True(t, ok)
	require.NoError(t, id.SetText("5"))
	assert.Equal(t, int64(5), form.Value()["id"])

	// clearing the active member clears the choice
	require.NoError(t, id.SetText(""))
	_, ok = target.Active()
	assert.False(t, ok)
	assert.Equal(t, valuetree.Tree{"name": "keep"}, form.Value())

	assert.Error(t, target.Select("name"))
	assert.Equal(t, form.Value(), rec.last())
}

func TestChoice_ActiveDerivedFromTree(t *testing.T) {
	form := Project(loadArgs(t), valuetree.Tree{"id": int64(3)}, nil)
	fd, ok := form.Choice("target").Active()
	require.True(t, ok)
	assert.Equal(t, "id", fd.Name)

	form.Choice("target").Clear()
	_, ok = form.Choice("target").Active()
	assert.False(t, ok)
}

func TestChoice_MessageMember(t *testing.T) {
	form := Project(loadArgs(t), nil, nil)
	target := form.Choice("target")

	require.NoError(t, target.Select("first"))
	assert.Equal(t, valuetree.Tree{"first": valuetree.Tree{}}, form.Value())

	first := target.Widget().(*MessageEditor)
	require.NoError(t, first.Form().Widget("cmd").(*TextInput).SetText("go"))
	assert.Equal(t, valuetree.Tree{"first": valuetree.Tree{"cmd": "go"}}, form.Value())
}

func TestListEditor_Messages(t *testing.T) {
	form := Project(loadArgs(t), nil, nil)
	steps := form.Widget("steps").(*ListEditor)

	assert.Equal(t, 0, steps.Len())
	steps.Append()
	steps.Append()
	assert.Equal(t, valuetree.List{valuetree.Tree{}, valuetree.Tree{}}, steps.Items())

	second, err := steps.ElementForm(1)
	require.NoError(t, err)
	require.NoError(t, second.Widget("cmd").(*TextInput).SetText("b"))

	first, err := steps.ElementForm(0)
	require.NoError(t, err)
	next := first.Widget("next").(*MessageEditor)
	require.NoError(t, next.Form().Widget("cmd").(*TextInput).SetText("deep"))

	assert.Equal(t, valuetree.List{
		valuetree.Tree{"next": valuetree.Tree{"cmd": "deep"}},
		valuetree.Tree{"cmd": "b"},
	}, form.Value()["steps"])

	require.NoError(t, steps.Remove(0))
	assert.Equal(t, valuetree.List{valuetree.Tree{"cmd": "b"}}, steps.Items())

	require.NoError(t, steps.Replace(0, valuetree.Tree{"cmd": "c"}))
	assert.Equal(t, valuetree.List{valuetree.Tree{"cmd": "c"}}, steps.Items())

	assert.Error(t, steps.Remove(5))
	assert.Error(t, steps.Replace(-1, valuetree.Tree{}))
	assert.Error(t, steps.Replace(0, nil))
	_, err = steps.ElementForm(3)
	assert.Error(t, err)
}

func TestListEditor_ElementFormAfterRemove(t *testing.T) {
	in := valuetree.Tree{"steps": valuetree.List{valuetree.Tree{"cmd": "a"}, valuetree.Tree{"cmd": "b"}}}
	rec := &recorder{}
	form := Project(loadArgs(t), in, rec.onChange)
	steps := form.Widget("steps").(*ListEditor)

	second, err := steps.ElementForm(1)
	require.NoError(t, err)
	require.NoError(t, steps.Remove(0))

	err = second.Widget("cmd").(*TextInput).SetText("edited")
	assert.ErrorIs(t, err, ErrDetached)
	assert.ErrorIs(t, second.Err(), ErrDetached)
	assert.Equal(t, valuetree.Tree{}, second.Value())
	assert.Len(t, rec.trees, 1)
	assert.Equal(t, valuetree.List{valuetree.Tree{"cmd": "b"}}, form.Value()["steps"])

	// An element form taken after the removal follows the new layout.
	first, err := steps.ElementForm(0)
	require.NoError(t, err)
	assert.Equal(t, valuetree.Tree{"cmd": "b"}, first.Value())
	require.NoError(t, first.Widget("cmd").(*TextInput).SetText("c"))
	assert.NoError(t, first.Err())
	assert.Equal(t, valuetree.List{valuetree.Tree{"cmd": "c"}}, form.Value()["steps"])
}

func TestListEditor_ElementFormFollowsParent(t *testing.T) {
	in := valuetree.Tree{"steps": valuetree.List{valuetree.Tree{"cmd": "a"}}}
	form := Project(loadArgs(t), in, nil)
	steps := form.Widget("steps").(*ListEditor)

	elem, err := steps.ElementForm(0)
	require.NoError(t, err)
	require.NoError(t, steps.Replace(0, valuetree.Tree{"cmd": "x"}))

	assert.Equal(t, "x", elem.Widget("cmd").(*TextInput).Text())
	require.NoError(t, elem.Widget("next").(*MessageEditor).Form().Widget("cmd").(*TextInput).SetText("y"))
	assert.Equal(t, valuetree.List{
		valuetree.Tree{"cmd": "x", "next": valuetree.Tree{"cmd": "y"}},
	}, form.Value()["steps"])
}

func TestMessageEditor_FormAfterClear(t *testing.T) {
	in := valuetree.Tree{"steps": valuetree.List{valuetree.Tree{"next": valuetree.Tree{"cmd": "a"}}}}
	form := Project(loadArgs(t), in, nil)
	elem, err := form.Widget("steps").(*ListEditor).ElementForm(0)
	require.NoError(t, err)

	next := elem.Widget("next").(*MessageEditor)
	sub := next.Form()
	assert.Equal(t, valuetree.Tree{"cmd": "a"}, sub.Value())

	next.Clear()
	assert.False(t, next.IsSet())
	assert.Equal(t, valuetree.Tree{}, sub.Value())

	require.NoError(t, sub.Widget("next").(*MessageEditor).Form().Widget("cmd").(*TextInput).SetText("z"))
	assert.Equal(t, valuetree.List{
		valuetree.Tree{"next": valuetree.Tree{"next": valuetree.Tree{"cmd": "z"}}},
	}, form.Value()["steps"])
}

func TestListEditor_Scalars(t *testing.T) {
	in := valuetree.Tree{"codes": valuetree.List{int64(1), int64(2), int64(3)}}
	form := Project(loadArgs(t), in, nil)
	codes := form.Widget("codes").(*ListEditor)

	require.NoError(t, codes.Remove(1))
	assert.Equal(t, valuetree.List{int64(1), int64(3)}, codes.Items())
	assert.Equal(t, valuetree.List{int64(1), int64(2), int64(3)}, in["codes"])

	codes.Append()
	assert.Equal(t, valuetree.List{int64(1), int64(3), int64(0)}, codes.Items())

	require.NoError(t, codes.Replace(2, int64(9)))
	assert.Equal(t, valuetree.List{int64(1), int64(3), int64(9)}, codes.Items())

	_, err := codes.ElementForm(0)
	assert.Error(t, err)
}
