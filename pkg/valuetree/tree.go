package valuetree

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/tiendc/go-deepcopy"
)

// Tree is a partial value of a message: field name to value. Absent keys and
// nil values both mean "unset". Trees are never modified in place; every
// edit returns a new tree.
type Tree map[string]any

// List is the value of a repeated field
type List []any

// New returns a tree owning a deep copy of initial, with nested maps and
// slices normalized to Tree and List
func New(initial map[string]any) (Tree, error) {
	if initial == nil {
		return Tree{}, nil
	}

	var copied map[string]any
	if err := deepcopy.Copy(&copied, &initial); err != nil {
		return nil, fmt.Errorf("copy value tree: %w", err)
	}

	t, _ := AsTree(Normalize(copied))
	return t, nil
}

// Normalize converts nested maps with string keys to Tree and slices (other
// than []byte) to List
func Normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case Tree:
		out := make(Tree, len(val))
		for k, e := range val {
			out[k] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(Tree, len(val))
		for k, e := range val {
			out[k] = Normalize(e)
		}
		return out
	case List:
		out := make(List, len(val))
		for i, e := range val {
			out[i] = Normalize(e)
		}
		return out
	case []any:
		out := make(List, len(val))
		for i, e := range val {
			out[i] = Normalize(e)
		}
		return out
	case []byte:
		return val
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make(List, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(Tree, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Normalize(iter.Value().Interface())
		}
		return out
	}
	return v
}

// AsTree returns v as a Tree when it is a map with string keys
func AsTree(v any) (Tree, bool) {
	switch val := v.(type) {
	case Tree:
		return val, true
	case map[string]any:
		return Tree(val), true
	}
	return nil, false
}

// AsList returns v as a List when it is a slice (other than []byte)
func AsList(v any) (List, bool) {
	switch val := v.(type) {
	case List:
		return val, true
	case []any:
		return List(val), true
	case []byte, string, nil:
		return nil, false
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		l, _ := Normalize(v).(List)
		return l, true
	}
	return nil, false
}

// Get returns the value at key; nil values read as absent
func (t Tree) Get(key string) (any, bool) {
	v, ok := t[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Has reports whether key holds a non-nil value
func (t Tree) Has(key string) bool {
	_, ok := t.Get(key)
	return ok
}

// With returns a copy of t with key set to v. A nil v removes the key.
func (t Tree) With(key string, v any) Tree {
	out := make(Tree, len(t)+1)
	for k, e := range t {
		out[k] = e
	}
	if v == nil {
		delete(out, key)
	} else {
		out[key] = v
	}
	return out
}

// Without returns a copy of t with the given keys removed
func (t Tree) Without(keys ...string) Tree {
	out := make(Tree, len(t))
	for k, e := range t {
		out[k] = e
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Keys returns the keys holding non-nil values, sorted
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t))
	for k, v := range t {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty reports whether no key holds a value
func (t Tree) IsEmpty() bool {
	for _, v := range t {
		if v != nil {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of t
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	c, _ := Normalize(t).(Tree)
	return c
}

// With returns a copy of l with element i replaced by v
func (l List) With(i int, v any) List {
	out := make(List, len(l))
	copy(out, l)
	out[i] = v
	return out
}

// Append returns a copy of l with v appended
func (l List) Append(v any) List {
	out := make(List, len(l), len(l)+1)
	copy(out, l)
	return append(out, v)
}

// Without returns a copy of l with element i removed, preserving order
func (l List) Without(i int) List {
	out := make(List, 0, len(l))
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...)
}

// Equal reports whether two values are equal, comparing numbers by value
// regardless of their Go type
func Equal(a, b any) bool {
	if ta, ok := AsTree(a); ok {
		tb, ok := AsTree(b)
		if !ok {
			return false
		}
		keys := ta.Keys()
		if len(keys) != len(tb.Keys()) {
			return false
		}
		for _, k := range keys {
			vb, ok := tb.Get(k)
			if !ok || !Equal(ta[k], vb) {
				return false
			}
		}
		return true
	}

	if la, ok := AsList(a); ok {
		lb, ok := AsList(b)
		if !ok || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !Equal(la[i], lb[i]) {
				return false
			}
		}
		return true
	}

	if na, ok := number(a); ok {
		nb, ok := number(b)
		return ok && na.equal(nb)
	}

	return reflect.DeepEqual(a, b)
}

// num holds a number in its widest lossless form
type num struct {
	kind byte // 'i', 'u' or 'f'
	i    int64
	u    uint64
	f    float64
}

func number(v any) (num, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return num{kind: 'i', i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return num{kind: 'u', u: rv.Uint()}, true
	case reflect.Float32, reflect.Float64:
		return num{kind: 'f', f: rv.Float()}, true
	}
	return num{}, false
}

func (a num) equal(b num) bool {
	switch {
	case a.kind == 'f' || b.kind == 'f':
		return a.float() == b.float()
	case a.kind == 'u' && b.kind == 'u':
		return a.u == b.u
	case a.kind == 'i' && b.kind == 'i':
		return a.i == b.i
	case a.kind == 'u':
		return b.i >= 0 && uint64(b.i) == a.u
	default:
		return a.i >= 0 && uint64(a.i) == b.u
	}
}

func (a num) float() float64 {
	switch a.kind {
	case 'i':
		return float64(a.i)
	case 'u':
		return float64(a.u)
	}
	return a.f
}
