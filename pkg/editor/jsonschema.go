package editor

import (
	"errors"

	"github.com/swaggest/jsonschema-go"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/platinummonkey/protoform/pkg/descriptor"
)

// JSONSchema describes the value trees accepted for td, for hosts that render
// forms themselves. Properties are keyed by proto field name. Recursive
// message references are cut off at the second visit.
func JSONSchema(td *descriptor.TypeDescriptor) (jsonschema.Schema, error) {
	if td == nil {
		return jsonschema.Schema{}, errors.New("no message type loaded")
	}
	s := messageSchema(td, map[string]bool{})
	s.WithTitle(Humanize(td.Name()))
	return *s, nil
}

func messageSchema(td *descriptor.TypeDescriptor, visiting map[string]bool) *jsonschema.Schema {
	schema := &jsonschema.Schema{}
	schema.AddType(jsonschema.Object)

	if visiting[td.FullName()] {
		schema.WithDescription("recursive reference to " + td.FullName())
		return schema
	}
	visiting[td.FullName()] = true
	defer delete(visiting, td.FullName())

	var required []string
	for _, fd := range td.Fields() {
		schema.WithPropertiesItem(fd.Name, fieldSchema(fd, visiting).ToSchemaOrBool())
		if fd.Descriptor().Cardinality() == protoreflect.Required {
			required = append(required, fd.Name)
		}
	}
	if len(required) > 0 {
		schema.WithRequired(required...)
	}

	if groups := td.RealOneofs(); len(groups) > 0 {
		oneofs := make(map[string][]string, len(groups))
		for _, g := range groups {
			oneofs[g.Name] = g.Fields
		}
		schema.WithExtraPropertiesItem("x-oneof", oneofs)
	}
	return schema
}

func fieldSchema(fd *descriptor.FieldDescriptor, visiting map[string]bool) *jsonschema.Schema {
	var schema *jsonschema.Schema
	switch {
	case fd.Map:
		schema = &jsonschema.Schema{}
		schema.AddType(jsonschema.Object)
		schema.WithAdditionalProperties(kindSchema(fd.Descriptor().MapValue()).ToSchemaOrBool())
	case fd.Repeated:
		items := jsonschema.Items{}
		items.WithSchemaOrBool(valueSchema(fd, visiting).ToSchemaOrBool())
		schema = &jsonschema.Schema{}
		schema.AddType(jsonschema.Array)
		schema.WithItems(items)
	default:
		schema = valueSchema(fd, visiting)
	}

	schema.WithTitle(fieldLabel(fd))
	if fd.InChoice() {
		schema.WithDescription("member of " + fd.Oneof.Name)
	}
	return schema
}

// valueSchema describes a single element of fd
func valueSchema(fd *descriptor.FieldDescriptor, visiting map[string]bool) *jsonschema.Schema {
	schema := &jsonschema.Schema{}

	switch fd.Class() {
	case descriptor.ClassBool:
		schema.AddType(jsonschema.Boolean)
	case descriptor.ClassInt:
		schema.AddType(jsonschema.Integer)
		switch {
		case fd.Kind.Unsigned():
			schema.WithMinimum(0)
			if !fd.Kind.Is64() {
				schema.WithMaximum(float64(fd.Kind.UintMax()))
			}
		case !fd.Kind.Is64():
			lo, hi := fd.Kind.IntRange()
			schema.WithMinimum(float64(lo))
			schema.WithMaximum(float64(hi))
		}
	case descriptor.ClassFloat:
		schema.AddType(jsonschema.Number)
	case descriptor.ClassString:
		schema.AddType(jsonschema.String)
	case descriptor.ClassBytes:
		schema.AddType(jsonschema.String)
		schema.WithFormat("byte")
	case descriptor.ClassEnum:
		schema.AddType(jsonschema.Integer)
		codes := make([]interface{}, len(fd.Enum.Values))
		names := make([]string, len(fd.Enum.Values))
		for i, v := range fd.Enum.Values {
			codes[i] = v.Number
			names[i] = v.Name
		}
		schema.WithEnum(codes...)
		schema.WithExtraPropertiesItem("x-enum-names", names)
	case descriptor.ClassMessage:
		return messageSchema(fd.Message, visiting)
	default:
		schema.AddType(jsonschema.String)
		schema.WithDescription("unresolved type " + fd.TypeName)
	}
	return schema
}

// kindSchema describes map values, which have no FieldDescriptor of their own
func kindSchema(fd protoreflect.FieldDescriptor) *jsonschema.Schema {
	schema := &jsonschema.Schema{}
	switch fd.Kind() {
	case protoreflect.BoolKind:
		schema.AddType(jsonschema.Boolean)
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		schema.AddType(jsonschema.Number)
	case protoreflect.StringKind:
		schema.AddType(jsonschema.String)
	case protoreflect.BytesKind:
		schema.AddType(jsonschema.String)
		schema.WithFormat("byte")
	case protoreflect.MessageKind, protoreflect.GroupKind:
		schema.AddType(jsonschema.Object)
	default:
		schema.AddType(jsonschema.Integer)
	}
	return schema
}
