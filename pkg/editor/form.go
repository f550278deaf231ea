package editor

import (
	"errors"
	"fmt"

	"github.com/platinummonkey/protoform/pkg/descriptor"
	"github.com/platinummonkey/protoform/pkg/valuetree"
)

// ErrDetached is returned for edits made through a sub-form whose element
// no longer exists in the parent value
var ErrDetached = errors.New("form is detached from its parent value")

// ChangeFunc receives the replacement tree after every edit
type ChangeFunc func(valuetree.Tree)

// Form is the editable projection of a value tree onto a message type.
//
// A Form never mutates the tree it was given. Every edit builds a new tree,
// keeps it as the form's current value and hands it to the change callback.
// Widgets read the current value on every call, so what they show is always
// derived from the tree.
type Form struct {
	td       *descriptor.TypeDescriptor
	tree     valuetree.Tree
	onChange ChangeFunc
	fields   []Widget
	choices  []*Choice

	// source re-reads the nested value from the parent for sub-forms. It
	// reports false once the nested value is gone.
	source func() (valuetree.Tree, bool)
	err    error
}

// Project builds a form for td over tree. There is one widget per
// standalone field in declaration order and one Choice per real oneof group.
// onChange may be nil.
func Project(td *descriptor.TypeDescriptor, tree valuetree.Tree, onChange ChangeFunc) *Form {
	if tree == nil {
		tree = valuetree.Tree{}
	}
	f := &Form{td: td, tree: tree, onChange: onChange}

	for _, fd := range td.StandaloneFields() {
		f.fields = append(f.fields, widgetFor(f, fd, nil))
	}
	for _, g := range td.RealOneofs() {
		f.choices = append(f.choices, &Choice{form: f, group: g})
	}
	return f
}

// Type returns the message type the form edits
func (f *Form) Type() *descriptor.TypeDescriptor {
	return f.td
}

// Value returns the current tree. For a sub-form this is the nested value
// as the parent holds it now, empty once the parent no longer has it.
func (f *Form) Value() valuetree.Tree {
	f.sync()
	return f.tree
}

// Err returns the error of the last edit, if it was rejected
func (f *Form) Err() error {
	return f.err
}

// Fields returns the standalone field widgets followed by the choices
func (f *Form) Fields() []Widget {
	out := make([]Widget, 0, len(f.fields)+len(f.choices))
	out = append(out, f.fields...)
	for _, c := range f.choices {
		out = append(out, c)
	}
	return out
}

// Choices returns one Choice per real oneof group, in declaration order
func (f *Form) Choices() []*Choice {
	return f.choices
}

// Widget returns the widget for a standalone field or a choice, by name
func (f *Form) Widget(name string) Widget {
	for _, w := range f.Fields() {
		if w.Name() == name {
			return w
		}
	}
	return nil
}

// Choice returns the choice for a oneof group, by group name
func (f *Form) Choice(name string) *Choice {
	for _, c := range f.choices {
		if c.group.Name == name {
			return c
		}
	}
	return nil
}

func (f *Form) sync() bool {
	if f.source == nil {
		return true
	}
	tree, ok := f.source()
	if !ok {
		f.tree = valuetree.Tree{}
		return false
	}
	f.tree = tree
	return true
}

// edit applies fn to the current tree. Edits through a detached sub-form
// are rejected and nothing is written to the parent. A sub-form's change
// callback may also reject the edit by setting f.err.
func (f *Form) edit(fn func(valuetree.Tree) valuetree.Tree) error {
	if !f.sync() {
		f.err = fmt.Errorf("%w: %s", ErrDetached, f.td.FullName())
		return f.err
	}
	f.err = nil
	f.replace(fn(f.tree))
	return f.err
}

func (f *Form) replace(tree valuetree.Tree) {
	f.tree = tree
	if f.onChange != nil {
		f.onChange(tree)
	}
}
