package descriptor

import (
	"github.com/platinummonkey/protoform/pkg/valuetree"
)

// OneofGroup is a named set of fields of which at most one may be present
type OneofGroup struct {
	Name   string
	Fields []string
	// Synthetic groups only mark a single optional field and are not an
	// exclusive choice.
	Synthetic bool
}

// IsSynthetic reports whether a oneof with this name and these members is
// the compiler-generated wrapper of a single optional field: exactly one
// member f, and the group is named "_" + f.
func IsSynthetic(name string, members []string) bool {
	return len(members) == 1 && name == "_"+members[0]
}

// Has reports whether field is a member of the group
func (g *OneofGroup) Has(field string) bool {
	for _, f := range g.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Active returns the first member present in t with a non-nil value
func (g *OneofGroup) Active(t valuetree.Tree) (string, bool) {
	for _, f := range g.Fields {
		if t.Has(f) {
			return f, true
		}
	}
	return "", false
}

// Select returns a new tree in which every member of the group is removed
// and field is set to v. A nil v leaves the group with no member set.
func (g *OneofGroup) Select(t valuetree.Tree, field string, v any) valuetree.Tree {
	return g.Clear(t).With(field, v)
}

// Clear returns a new tree with every member of the group removed
func (g *OneofGroup) Clear(t valuetree.Tree) valuetree.Tree {
	return t.Without(g.Fields...)
}
