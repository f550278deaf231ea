package editor

import (
	"fmt"

	"github.com/platinummonkey/protoform/pkg/valuetree"
)

// ListEditor edits a repeated field of any kind
type ListEditor struct {
	field
}

// Items returns the stored elements, empty when absent
func (l *ListEditor) Items() valuetree.List {
	v, _ := l.current()
	items, ok := valuetree.AsList(v)
	if !ok {
		return valuetree.List{}
	}
	return items
}

// Len returns the number of elements
func (l *ListEditor) Len() int {
	return len(l.Items())
}

// Append adds the element kind's structural default at the end
func (l *ListEditor) Append() {
	l.set(l.Items().Append(l.fd.Default()))
}

// Remove deletes element i, keeping the order of the rest
func (l *ListEditor) Remove(i int) error {
	items := l.Items()
	if i < 0 || i >= len(items) {
		return fmt.Errorf("%s: index %d out of range [0, %d)", l.fd.Name, i, len(items))
	}
	return l.set(items.Without(i))
}

// Replace sets element i in place
func (l *ListEditor) Replace(i int, v any) error {
	items := l.Items()
	if i < 0 || i >= len(items) {
		return fmt.Errorf("%s: index %d out of range [0, %d)", l.fd.Name, i, len(items))
	}
	if v == nil {
		return fmt.Errorf("%s[%d]: list elements cannot be null", l.fd.Name, i)
	}
	return l.set(items.With(i, v))
}

// ElementForm projects element i of a repeated message field. Edits are
// written back to the same index. Once the list no longer has element i,
// the form is detached: edits are rejected with ErrDetached and Form.Err
// reports it.
func (l *ListEditor) ElementForm(i int) (*Form, error) {
	if l.fd.Message == nil {
		return nil, fmt.Errorf("%s: elements are not messages", l.fd.Name)
	}
	if n := l.Len(); i < 0 || i >= n {
		return nil, fmt.Errorf("%s: index %d out of range [0, %d)", l.fd.Name, i, n)
	}
	var f *Form
	f = Project(l.fd.Message, nil, func(t valuetree.Tree) {
		f.err = l.Replace(i, t)
	})
	f.source = func() (valuetree.Tree, bool) {
		items := l.Items()
		if i >= len(items) {
			return nil, false
		}
		elem, ok := valuetree.AsTree(items[i])
		if !ok {
			elem = valuetree.Tree{}
		}
		return elem, true
	}
	f.sync()
	return f, nil
}
