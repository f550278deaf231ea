package schema

import (
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// NodeType represents the type of a declaration node
type NodeType int

const (
	NodeTypeUnknown NodeType = iota
	NodeTypeNamespace
	NodeTypeMessage
	NodeTypeEnum
	NodeTypeField
	NodeTypeEnumValue
	NodeTypeOneOf
)

// Position represents the position in the source text. Zero when unknown.
type Position struct {
	Line   int
	Column int
}

// Node represents a node in the declaration tree
type Node interface {
	NodeType() NodeType
	Position() Position
}

// Namespace is a package segment. The root namespace has an empty name and
// holds one child per leading package segment.
type Namespace struct {
	Name       string
	FullName   string
	Namespaces []*Namespace
	Messages   []*MessageNode
	Enums      []*EnumNode
}

// NodeType returns the node type
func (n *Namespace) NodeType() NodeType {
	return NodeTypeNamespace
}

// Position returns the start position
func (n *Namespace) Position() Position {
	return Position{}
}

// MessageNode represents a message declaration
type MessageNode struct {
	Name     string
	FullName string
	Fields   []*FieldNode
	Nested   []*MessageNode
	Enums    []*EnumNode
	OneOfs   []*OneOfNode
	Pos      Position

	desc protoreflect.MessageDescriptor
}

// NodeType returns the node type
func (n *MessageNode) NodeType() NodeType {
	return NodeTypeMessage
}

// Position returns the start position
func (n *MessageNode) Position() Position {
	return n.Pos
}

// Descriptor returns the linked descriptor for the message
func (n *MessageNode) Descriptor() protoreflect.MessageDescriptor {
	return n.desc
}

// FieldNode represents a field declaration
type FieldNode struct {
	Name     string
	Type     string
	Number   int
	Repeated bool
	Optional bool
	Map      bool
	// OneOf names the containing oneof, synthetic ones included.
	OneOf string
	// Unresolved is set when the declared type could not be found and the
	// field was degraded to opaque bytes.
	Unresolved bool
	Pos        Position
}

// NodeType returns the node type
func (n *FieldNode) NodeType() NodeType {
	return NodeTypeField
}

// Position returns the start position
func (n *FieldNode) Position() Position {
	return n.Pos
}

// EnumNode represents an enum declaration
type EnumNode struct {
	Name     string
	FullName string
	Values   []*EnumValueNode
	Pos      Position
}

// NodeType returns the node type
func (n *EnumNode) NodeType() NodeType {
	return NodeTypeEnum
}

// Position returns the start position
func (n *EnumNode) Position() Position {
	return n.Pos
}

// EnumValueNode represents an enum value
type EnumValueNode struct {
	Name   string
	Number int
	Pos    Position
}

// NodeType returns the node type
func (n *EnumValueNode) NodeType() NodeType {
	return NodeTypeEnumValue
}

// Position returns the start position
func (n *EnumValueNode) Position() Position {
	return n.Pos
}

// OneOfNode represents a oneof group inside a message
type OneOfNode struct {
	Name   string
	Fields []*FieldNode
	Pos    Position
}

// NodeType returns the node type
func (n *OneOfNode) NodeType() NodeType {
	return NodeTypeOneOf
}

// Position returns the start position
func (n *OneOfNode) Position() Position {
	return n.Pos
}

// buildNamespaces converts a linked file into the declaration tree
func buildNamespaces(fd protoreflect.FileDescriptor, unresolved map[protoreflect.FullName]string) *Namespace {
	root := &Namespace{}

	leaf := root
	if pkg := string(fd.Package()); pkg != "" {
		full := ""
		for _, segment := range strings.Split(pkg, ".") {
			if full == "" {
				full = segment
			} else {
				full += "." + segment
			}
			ns := &Namespace{Name: segment, FullName: full}
			leaf.Namespaces = append(leaf.Namespaces, ns)
			leaf = ns
		}
	}

	locs := fd.SourceLocations()
	for i := 0; i < fd.Messages().Len(); i++ {
		leaf.Messages = append(leaf.Messages, convertMessage(fd.Messages().Get(i), locs, unresolved))
	}
	for i := 0; i < fd.Enums().Len(); i++ {
		leaf.Enums = append(leaf.Enums, convertEnum(fd.Enums().Get(i), locs))
	}

	return root
}

func positionOf(locs protoreflect.SourceLocations, d protoreflect.Descriptor) Position {
	if locs == nil {
		return Position{}
	}
	loc := locs.ByDescriptor(d)
	if loc.Path == nil {
		return Position{}
	}
	return Position{Line: loc.StartLine + 1, Column: loc.StartColumn + 1}
}

// convertMessage converts a message descriptor to MessageNode
func convertMessage(md protoreflect.MessageDescriptor, locs protoreflect.SourceLocations, unresolved map[protoreflect.FullName]string) *MessageNode {
	msg := &MessageNode{
		Name:     string(md.Name()),
		FullName: string(md.FullName()),
		Pos:      positionOf(locs, md),
		desc:     md,
	}

	byName := make(map[protoreflect.Name]*FieldNode, md.Fields().Len())
	for i := 0; i < md.Fields().Len(); i++ {
		field := convertField(md.Fields().Get(i), locs, unresolved)
		byName[md.Fields().Get(i).Name()] = field
		msg.Fields = append(msg.Fields, field)
	}

	for i := 0; i < md.Oneofs().Len(); i++ {
		od := md.Oneofs().Get(i)
		oneof := &OneOfNode{Name: string(od.Name()), Pos: positionOf(locs, od)}
		for j := 0; j < od.Fields().Len(); j++ {
			oneof.Fields = append(oneof.Fields, byName[od.Fields().Get(j).Name()])
		}
		msg.OneOfs = append(msg.OneOfs, oneof)
	}

	for i := 0; i < md.Messages().Len(); i++ {
		nested := md.Messages().Get(i)
		if nested.IsMapEntry() {
			continue
		}
		msg.Nested = append(msg.Nested, convertMessage(nested, locs, unresolved))
	}

	for i := 0; i < md.Enums().Len(); i++ {
		msg.Enums = append(msg.Enums, convertEnum(md.Enums().Get(i), locs))
	}

	return msg
}

// convertField converts a field descriptor to FieldNode
func convertField(fd protoreflect.FieldDescriptor, locs protoreflect.SourceLocations, unresolved map[protoreflect.FullName]string) *FieldNode {
	field := &FieldNode{
		Name:     string(fd.Name()),
		Type:     fieldTypeName(fd),
		Number:   int(fd.Number()),
		Repeated: fd.IsList(),
		Optional: fd.HasOptionalKeyword(),
		Map:      fd.IsMap(),
		Pos:      positionOf(locs, fd),
	}
	if od := fd.ContainingOneof(); od != nil {
		field.OneOf = string(od.Name())
	}
	if ref, ok := unresolved[fd.FullName()]; ok {
		field.Type = ref
		field.Unresolved = true
	}
	return field
}

// fieldTypeName returns the type name for a field as it would be written
func fieldTypeName(fd protoreflect.FieldDescriptor) string {
	switch {
	case fd.IsMap():
		return "map<" + fieldTypeName(fd.MapKey()) + ", " + fieldTypeName(fd.MapValue()) + ">"
	case fd.Enum() != nil:
		return string(fd.Enum().FullName())
	case fd.Message() != nil:
		return string(fd.Message().FullName())
	default:
		return fd.Kind().String()
	}
}

// convertEnum converts an enum descriptor to EnumNode
func convertEnum(ed protoreflect.EnumDescriptor, locs protoreflect.SourceLocations) *EnumNode {
	enum := &EnumNode{
		Name:     string(ed.Name()),
		FullName: string(ed.FullName()),
		Pos:      positionOf(locs, ed),
	}
	for i := 0; i < ed.Values().Len(); i++ {
		vd := ed.Values().Get(i)
		enum.Values = append(enum.Values, &EnumValueNode{
			Name:   string(vd.Name()),
			Number: int(vd.Number()),
			Pos:    positionOf(locs, vd),
		})
	}
	return enum
}
