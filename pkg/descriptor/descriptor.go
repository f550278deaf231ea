package descriptor

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/platinummonkey/protoform/pkg/schema"
	"github.com/platinummonkey/protoform/pkg/valuetree"
)

// TypeDescriptor is a read-only view of one message type. Descriptors are
// immutable once built and may be shared freely.
type TypeDescriptor struct {
	md     protoreflect.MessageDescriptor
	fields []*FieldDescriptor
	byName map[string]*FieldDescriptor
	oneofs []*OneofGroup
}

// Name returns the simple name of the message
func (t *TypeDescriptor) Name() string {
	return string(t.md.Name())
}

// FullName returns the fully-qualified name of the message
func (t *TypeDescriptor) FullName() string {
	return string(t.md.FullName())
}

// Descriptor returns the linked message descriptor
func (t *TypeDescriptor) Descriptor() protoreflect.MessageDescriptor {
	return t.md
}

// Fields returns every field in declaration order
func (t *TypeDescriptor) Fields() []*FieldDescriptor {
	return t.fields
}

// Field returns the field with the given name, or nil
func (t *TypeDescriptor) Field(name string) *FieldDescriptor {
	return t.byName[name]
}

// Oneofs returns every oneof group, synthetic ones included
func (t *TypeDescriptor) Oneofs() []*OneofGroup {
	return t.oneofs
}

// RealOneofs returns the groups that form an exclusive choice
func (t *TypeDescriptor) RealOneofs() []*OneofGroup {
	var groups []*OneofGroup
	for _, g := range t.oneofs {
		if !g.Synthetic {
			groups = append(groups, g)
		}
	}
	return groups
}

// StandaloneFields returns, in declaration order, the fields that are not
// members of a real oneof
func (t *TypeDescriptor) StandaloneFields() []*FieldDescriptor {
	var fields []*FieldDescriptor
	for _, f := range t.fields {
		if !f.InChoice() {
			fields = append(fields, f)
		}
	}
	return fields
}

// FieldDescriptor describes one field of a message
type FieldDescriptor struct {
	Name     string
	JSONName string
	Number   int32
	Kind     Kind
	Repeated bool
	Map      bool
	// Optional marks a proto3 optional field (a member of a synthetic oneof)
	Optional bool
	// Oneof is the containing group, or nil
	Oneof *OneofGroup
	// Enum is set for enum fields
	Enum *EnumDescriptor
	// Message is set for message fields
	Message *TypeDescriptor
	// TypeName is the declared type of an opaque field
	TypeName string
	// Unresolved marks a field whose declared type could not be found
	Unresolved bool

	desc protoreflect.FieldDescriptor
}

// Descriptor returns the linked field descriptor
func (f *FieldDescriptor) Descriptor() protoreflect.FieldDescriptor {
	return f.desc
}

// Class returns the coarse kind of the field
func (f *FieldDescriptor) Class() Class {
	return f.Kind.Class()
}

// InChoice reports whether the field belongs to a real oneof
func (f *FieldDescriptor) InChoice() bool {
	return f.Oneof != nil && !f.Oneof.Synthetic
}

// HasPresence reports whether an unset field is distinguishable from its zero value
func (f *FieldDescriptor) HasPresence() bool {
	return f.desc.HasPresence()
}

// Default returns the structural default for one value of the field: zero for
// numbers, false for booleans, an empty tree for messages, the first declared
// code for enums and an empty string otherwise.
func (f *FieldDescriptor) Default() any {
	switch f.Class() {
	case ClassBool:
		return false
	case ClassInt:
		if f.Kind.Unsigned() {
			return uint64(0)
		}
		return int64(0)
	case ClassFloat:
		return float64(0)
	case ClassEnum:
		if f.Enum != nil && len(f.Enum.Values) > 0 {
			return f.Enum.Values[0].Number
		}
		return int32(0)
	case ClassMessage:
		return valuetree.Tree{}
	default:
		return ""
	}
}

// EnumValue is one name/code pair of an enum
type EnumValue struct {
	Name   string
	Number int32
}

// EnumDescriptor lists the declared values of an enum in declaration order
type EnumDescriptor struct {
	Name     string
	FullName string
	Values   []EnumValue

	desc protoreflect.EnumDescriptor
}

// Descriptor returns the linked enum descriptor
func (e *EnumDescriptor) Descriptor() protoreflect.EnumDescriptor {
	return e.desc
}

// ByNumber returns the first value declared with the given code
func (e *EnumDescriptor) ByNumber(n int32) (EnumValue, bool) {
	for _, v := range e.Values {
		if v.Number == n {
			return v, true
		}
	}
	return EnumValue{}, false
}

// ByName returns the value with the given name
func (e *EnumDescriptor) ByName(name string) (EnumValue, bool) {
	for _, v := range e.Values {
		if v.Name == name {
			return v, true
		}
	}
	return EnumValue{}, false
}

// UnresolvedFunc reports whether a field was degraded during schema loading
type UnresolvedFunc func(fd protoreflect.FieldDescriptor) (string, bool)

// Builder builds type descriptors, sharing one descriptor per message type so
// recursive types terminate
type Builder struct {
	memo       map[protoreflect.FullName]*TypeDescriptor
	enums      map[protoreflect.FullName]*EnumDescriptor
	unresolved UnresolvedFunc
}

// NewBuilder creates a builder. unresolved may be nil.
func NewBuilder(unresolved UnresolvedFunc) *Builder {
	return &Builder{
		memo:       make(map[protoreflect.FullName]*TypeDescriptor),
		enums:      make(map[protoreflect.FullName]*EnumDescriptor),
		unresolved: unresolved,
	}
}

// Build returns the descriptor for md, building it on first use
func Build(md protoreflect.MessageDescriptor) *TypeDescriptor {
	return NewBuilder(nil).Message(md)
}

// FromSchema builds the descriptor of the schema's primary message
func FromSchema(s *schema.Schema) (*TypeDescriptor, error) {
	md, err := s.PrimaryMessage()
	if err != nil {
		return nil, err
	}
	return NewBuilder(s.Unresolved).Message(md), nil
}

// FromSchemaMessage builds the descriptor of a named message of the schema
func FromSchemaMessage(s *schema.Schema, name string) (*TypeDescriptor, error) {
	if name == "" {
		return FromSchema(s)
	}
	md, err := s.Message(name)
	if err != nil {
		return nil, err
	}
	return NewBuilder(s.Unresolved).Message(md), nil
}

// Message returns the descriptor for md
func (b *Builder) Message(md protoreflect.MessageDescriptor) *TypeDescriptor {
	if td, ok := b.memo[md.FullName()]; ok {
		return td
	}

	td := &TypeDescriptor{
		md:     md,
		byName: make(map[string]*FieldDescriptor, md.Fields().Len()),
	}
	b.memo[md.FullName()] = td

	groups := make(map[protoreflect.FullName]*OneofGroup, md.Oneofs().Len())
	for i := 0; i < md.Oneofs().Len(); i++ {
		od := md.Oneofs().Get(i)
		members := make([]string, 0, od.Fields().Len())
		for j := 0; j < od.Fields().Len(); j++ {
			members = append(members, string(od.Fields().Get(j).Name()))
		}
		g := &OneofGroup{
			Name:      string(od.Name()),
			Fields:    members,
			Synthetic: IsSynthetic(string(od.Name()), members),
		}
		groups[od.FullName()] = g
		td.oneofs = append(td.oneofs, g)
	}

	for i := 0; i < md.Fields().Len(); i++ {
		fd := md.Fields().Get(i)
		f := b.field(fd)
		if od := fd.ContainingOneof(); od != nil {
			f.Oneof = groups[od.FullName()]
			f.Optional = f.Oneof.Synthetic
		}
		td.fields = append(td.fields, f)
		td.byName[f.Name] = f
	}

	return td
}

func (b *Builder) field(fd protoreflect.FieldDescriptor) *FieldDescriptor {
	f := &FieldDescriptor{
		Name:     string(fd.Name()),
		JSONName: fd.JSONName(),
		Number:   int32(fd.Number()),
		Kind:     kindOf(fd),
		Repeated: fd.IsList(),
		Map:      fd.IsMap(),
		desc:     fd,
	}

	if b.unresolved != nil {
		if ref, ok := b.unresolved(fd); ok {
			f.Kind = KindOpaque
			f.TypeName = ref
			f.Unresolved = true
			return f
		}
	}

	switch {
	case f.Map:
		f.TypeName = fmt.Sprintf("map<%s, %s>", typeName(fd.MapKey()), typeName(fd.MapValue()))
	case f.Kind == KindEnum:
		f.Enum = b.enum(fd.Enum())
		f.TypeName = f.Enum.FullName
	case f.Kind == KindMessage:
		f.Message = b.Message(fd.Message())
		f.TypeName = f.Message.FullName()
	default:
		f.TypeName = f.Kind.String()
	}
	return f
}

func (b *Builder) enum(ed protoreflect.EnumDescriptor) *EnumDescriptor {
	if e, ok := b.enums[ed.FullName()]; ok {
		return e
	}
	e := &EnumDescriptor{
		Name:     string(ed.Name()),
		FullName: string(ed.FullName()),
		desc:     ed,
	}
	for i := 0; i < ed.Values().Len(); i++ {
		vd := ed.Values().Get(i)
		e.Values = append(e.Values, EnumValue{Name: string(vd.Name()), Number: int32(vd.Number())})
	}
	b.enums[ed.FullName()] = e
	return e
}

func typeName(fd protoreflect.FieldDescriptor) string {
	switch {
	case fd.Enum() != nil:
		return string(fd.Enum().FullName())
	case fd.Message() != nil:
		return string(fd.Message().FullName())
	default:
		return fd.Kind().String()
	}
}
