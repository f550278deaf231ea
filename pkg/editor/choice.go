package editor

import (
	"fmt"

	"github.com/platinummonkey/protoform/pkg/descriptor"
	"github.com/platinummonkey/protoform/pkg/valuetree"
)

// Choice edits a real oneof group. The active member is read from the tree
// on every call; selecting one member removes every other.
type Choice struct {
	form  *Form
	group *descriptor.OneofGroup
}

func (c *Choice) Name() string  { return c.group.Name }
func (c *Choice) Label() string { return choiceLabel(c.group.Name) }
func (*Choice) widget()         {}

// Group returns the underlying oneof group
func (c *Choice) Group() *descriptor.OneofGroup {
	return c.group
}

// Options returns the member fields in declaration order
func (c *Choice) Options() []*descriptor.FieldDescriptor {
	out := make([]*descriptor.FieldDescriptor, 0, len(c.group.Fields))
	for _, name := range c.group.Fields {
		if fd := c.form.td.Field(name); fd != nil {
			out = append(out, fd)
		}
	}
	return out
}

// Active returns the member currently present in the tree
func (c *Choice) Active() (*descriptor.FieldDescriptor, bool) {
	name, ok := c.group.Active(c.form.Value())
	if !ok {
		return nil, false
	}
	return c.form.td.Field(name), true
}

// Select makes name the active member with its structural default value.
// Selecting the member that is already active keeps its value.
func (c *Choice) Select(name string) error {
	if !c.group.Has(name) {
		return fmt.Errorf("%s is not a member of %s", name, c.group.Name)
	}
	if active, ok := c.group.Active(c.form.Value()); ok && active == name {
		return nil
	}
	fd := c.form.td.Field(name)
	return c.form.edit(func(tree valuetree.Tree) valuetree.Tree {
		return c.group.Select(tree, name, fd.Default())
	})
}

// Clear removes every member
func (c *Choice) Clear() {
	_ = c.form.edit(c.group.Clear)
}

// Widget returns the editor of the active member, or nil
func (c *Choice) Widget() Widget {
	fd, ok := c.Active()
	if !ok {
		return nil
	}
	return widgetFor(c.form, fd, c.group)
}
