package editor

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/platinummonkey/protoform/pkg/descriptor"
	"github.com/platinummonkey/protoform/pkg/valuetree"
)

// Widget is one editable element of a Form. The set of implementations is
// closed: Toggle, NumberInput, EnumSelect, MessageEditor, TextInput,
// ListEditor and Choice.
type Widget interface {
	// Name is the field or oneof group name
	Name() string
	// Label is the human readable caption
	Label() string

	widget()
}

// field is the state shared by every single-field widget
type field struct {
	form  *Form
	fd    *descriptor.FieldDescriptor
	group *descriptor.OneofGroup // set for members of a real oneof
}

func (w field) Name() string                       { return w.fd.Name }
func (w field) Label() string                      { return fieldLabel(w.fd) }
func (w field) Field() *descriptor.FieldDescriptor { return w.fd }
func (field) widget()                              {}

// IsSet reports whether the tree holds a value for the field
func (w field) IsSet() bool {
	return w.form.Value().Has(w.fd.Name)
}

// Clear removes the field from the tree
func (w field) Clear() {
	w.set(nil)
}

func (w field) current() (any, bool) {
	return w.form.Value().Get(w.fd.Name)
}

// set stores v, or removes the key when v is nil. A oneof member that takes
// a value displaces its siblings; one that is cleared clears the choice.
func (w field) set(v any) error {
	return w.form.edit(func(tree valuetree.Tree) valuetree.Tree {
		switch {
		case w.group != nil && v == nil:
			return w.group.Clear(tree)
		case w.group != nil:
			return w.group.Select(tree, w.fd.Name, v)
		}
		return tree.With(w.fd.Name, v)
	})
}

func widgetFor(f *Form, fd *descriptor.FieldDescriptor, group *descriptor.OneofGroup) Widget {
	base := field{form: f, fd: fd, group: group}
	if fd.Repeated {
		return &ListEditor{field: base}
	}
	switch fd.Class() {
	case descriptor.ClassBool:
		return &Toggle{field: base}
	case descriptor.ClassInt, descriptor.ClassFloat:
		return &NumberInput{field: base}
	case descriptor.ClassEnum:
		return &EnumSelect{field: base}
	case descriptor.ClassMessage:
		return &MessageEditor{field: base}
	default:
		return &TextInput{field: base}
	}
}

// Toggle edits a bool field. An absent value reads as unchecked but stays
// absent until the toggle is set.
type Toggle struct {
	field
}

// Checked reports the stored value, false when absent
func (t *Toggle) Checked() bool {
	v, _ := t.current()
	b, _ := v.(bool)
	return b
}

// Set stores b
func (t *Toggle) Set(b bool) {
	t.set(b)
}

// NumberInput edits an integer or floating point field as text
type NumberInput struct {
	field
}

// Text renders the stored number, or "" when absent
func (n *NumberInput) Text() string {
	v, ok := n.current()
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	}
	return fmt.Sprint(v)
}

// SetText parses s strictly for the field's kind. Empty or invalid text
// removes the value rather than storing a zero; the parse error is returned
// so a host can flag the input.
func (n *NumberInput) SetText(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return n.set(nil)
	}
	v, err := parseNumber(n.fd.Kind, s)
	if err != nil {
		n.set(nil)
		return fmt.Errorf("%s: %w", n.fd.Name, err)
	}
	return n.set(v)
}

func parseNumber(k descriptor.Kind, s string) (any, error) {
	switch {
	case k.Class() == descriptor.ClassFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		if k == descriptor.KindFloat && math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
			return nil, fmt.Errorf("%q is out of range for %s", s, k)
		}
		return f, nil
	case k.Unsigned():
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil || u > k.UintMax() {
			return nil, fmt.Errorf("%q is not a valid %s", s, k)
		}
		return u, nil
	default:
		n, err := strconv.ParseInt(s, 10, 64)
		lo, hi := k.IntRange()
		if err != nil || n < lo || n > hi {
			return nil, fmt.Errorf("%q is not a valid %s", s, k)
		}
		return n, nil
	}
}

// EnumSelect edits an enum field. Only numeric codes are stored.
type EnumSelect struct {
	field
}

// Options returns the declared values in declaration order
func (e *EnumSelect) Options() []descriptor.EnumValue {
	return e.fd.Enum.Values
}

// Selected returns the stored value. A stored value name is accepted too.
func (e *EnumSelect) Selected() (descriptor.EnumValue, bool) {
	v, ok := e.current()
	if !ok {
		return descriptor.EnumValue{}, false
	}
	if name, ok := v.(string); ok {
		return e.fd.Enum.ByName(name)
	}
	code, ok := enumCode(v)
	if !ok {
		return descriptor.EnumValue{}, false
	}
	return e.fd.Enum.ByNumber(code)
}

// Select stores a declared code
func (e *EnumSelect) Select(code int32) error {
	if _, ok := e.fd.Enum.ByNumber(code); !ok {
		return fmt.Errorf("%s: %d is not a value of %s", e.fd.Name, code, e.fd.Enum.FullName)
	}
	return e.set(code)
}

// SelectName stores the code of a declared value name
func (e *EnumSelect) SelectName(name string) error {
	v, ok := e.fd.Enum.ByName(name)
	if !ok {
		return fmt.Errorf("%s: %q is not a value of %s", e.fd.Name, name, e.fd.Enum.FullName)
	}
	return e.set(v.Number)
}

func enumCode(v any) (int32, bool) {
	switch x := v.(type) {
	case int32:
		return x, true
	case int:
		return int32(x), x >= math.MinInt32 && x <= math.MaxInt32
	case int64:
		return int32(x), x >= math.MinInt32 && x <= math.MaxInt32
	case uint64:
		return int32(x), x <= math.MaxInt32
	case float64:
		return int32(x), x == math.Trunc(x) && x >= math.MinInt32 && x <= math.MaxInt32
	}
	return 0, false
}

// MessageEditor edits a nested message field
type MessageEditor struct {
	field
}

// Form projects the nested type over the nested tree (empty when absent).
// The sub-form re-reads the nested tree from the parent on every access, so
// a field cleared in the parent stays cleared. Edits are spliced back into
// the parent at the same key.
func (m *MessageEditor) Form() *Form {
	var f *Form
	f = Project(m.fd.Message, nil, func(t valuetree.Tree) {
		f.err = m.set(t)
	})
	f.source = func() (valuetree.Tree, bool) {
		v, _ := m.current()
		nested, ok := valuetree.AsTree(v)
		if !ok {
			nested = valuetree.Tree{}
		}
		return nested, true
	}
	f.sync()
	return f
}

// TextInput edits string, bytes and opaque fields as text. Bytes are held as
// base64 text and map fields as a JSON object.
type TextInput struct {
	field
}

// Text renders the stored value, or "" when absent
func (t *TextInput) Text() string {
	v, ok := t.current()
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return base64.StdEncoding.EncodeToString(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// SetText stores s. For bytes fields s must be base64 and for map fields a
// JSON object; text that does not parse removes the value and is reported.
func (t *TextInput) SetText(s string) error {
	switch {
	case t.fd.Map:
		if strings.TrimSpace(s) == "" {
			return t.set(nil)
		}
		var entries map[string]any
		if err := json.Unmarshal([]byte(s), &entries); err != nil {
			t.set(nil)
			return fmt.Errorf("%s: expected a JSON object: %w", t.fd.Name, err)
		}
		tree, err := valuetree.New(entries)
		if err != nil {
			t.set(nil)
			return fmt.Errorf("%s: %w", t.fd.Name, err)
		}
		return t.set(tree)
	case t.fd.Class() == descriptor.ClassBytes:
		if _, err := base64.StdEncoding.DecodeString(s); err != nil {
			t.set(nil)
			return fmt.Errorf("%s: invalid base64 text", t.fd.Name)
		}
		return t.set(s)
	}
	return t.set(s)
}
