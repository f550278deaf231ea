package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/protocolbuffers/protoscope"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/platinummonkey/protoform/pkg/descriptor"
	"github.com/platinummonkey/protoform/pkg/valuetree"
)

var (
	// ErrNoType is the fallback cause when no message type was supplied
	ErrNoType = errors.New("no message type loaded")

	// ErrUnknownOnly is the fallback cause when the payload parsed but carried
	// none of the type's declared fields
	ErrUnknownOnly = errors.New("payload carries no fields declared by the type")
)

// Decode turns bytes into something displayable. It never fails and never
// panics; the first tier that applies wins:
//
//  0. zero bytes display as the Empty marker
//  1. a structured value tree decoded against td
//  2. UTF-8 text, pretty-printed when it is JSON
//  3. an opaque marker carrying the byte count
//
// When tier 1 is skipped or fails, the reason is kept in DisplayValue.Cause.
func Decode(data []byte, td *descriptor.TypeDescriptor, opts ...Option) (dv DisplayValue) {
	o := newOptions(opts)

	if len(data) == 0 {
		return DisplayValue{Tier: TierEmpty, Text: EmptyMarker}
	}

	defer func() {
		if r := recover(); r != nil {
			dv = fallback(data, fmt.Errorf("structured decode panicked: %v", r), o)
		}
	}()

	if td == nil {
		return fallback(data, ErrNoType, o)
	}

	tree, msg, err := decodeStructured(data, td, o)
	if err != nil {
		return fallback(data, err, o)
	}

	return DisplayValue{
		Tier: TierStructured,
		Tree: tree,
		Size: len(data),
		msg:  msg,
	}
}

func decodeStructured(data []byte, td *descriptor.TypeDescriptor, o Options) (valuetree.Tree, proto.Message, error) {
	var msg proto.Message
	if o.FastDecode {
		m, err := fastUnmarshal(td.Descriptor(), data)
		if err != nil {
			return nil, nil, err
		}
		msg = m
	} else {
		m := dynamicpb.NewMessage(td.Descriptor())
		if err := proto.Unmarshal(data, m); err != nil {
			return nil, nil, err
		}
		msg = m
	}

	m := msg.ProtoReflect()
	if !populated(m) {
		return nil, nil, ErrUnknownOnly
	}
	return treeOf(m, td, o), msg, nil
}

// populated reports whether any declared field is set. A non-empty payload
// that sets nothing consisted of unknown fields only.
func populated(m protoreflect.Message) bool {
	found := false
	m.Range(func(protoreflect.FieldDescriptor, protoreflect.Value) bool {
		found = true
		return false
	})
	return found
}

func fallback(data []byte, cause error, o Options) DisplayValue {
	dv := DisplayValue{Size: len(data), Cause: cause}

	if isText(data) {
		if json.Valid(data) {
			var buf bytes.Buffer
			if err := json.Indent(&buf, data, "", "  "); err == nil {
				dv.Tier = TierJSON
				dv.Text = buf.String()
				return dv
			}
		}
		dv.Tier = TierText
		dv.Text = string(data)
		return dv
	}

	dv.Tier = TierOpaque
	dv.Text = fmt.Sprintf("[Binary Data] %d bytes", len(data))
	if o.WireDump {
		dv.WireDump = protoscope.Write(data, protoscope.WriterOptions{})
	}
	return dv
}

// isText reports whether data is valid UTF-8 free of control characters
// other than whitespace
func isText(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for _, r := range string(data) {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// treeOf converts a decoded message into a value tree, in declaration order
func treeOf(m protoreflect.Message, td *descriptor.TypeDescriptor, o Options) valuetree.Tree {
	tree := valuetree.Tree{}
	for _, f := range td.Fields() {
		fd := f.Descriptor()
		if !m.Has(fd) {
			if o.EmitDefaults {
				if v, ok := defaultValue(f); ok {
					tree[f.Name] = v
				}
			}
			continue
		}

		v := m.Get(fd)
		switch {
		case f.Map:
			tree[f.Name] = mapTree(fd, v.Map())
		case f.Repeated:
			list := v.List()
			items := make(valuetree.List, list.Len())
			for i := range items {
				items[i] = fieldValue(f, list.Get(i), o)
			}
			tree[f.Name] = items
		default:
			tree[f.Name] = fieldValue(f, v, o)
		}
	}
	return tree
}

func fieldValue(f *descriptor.FieldDescriptor, v protoreflect.Value, o Options) any {
	switch {
	case f.Unresolved:
		if b := v.Bytes(); utf8.Valid(b) {
			return string(b)
		}
		return base64.StdEncoding.EncodeToString(v.Bytes())
	case f.Kind == descriptor.KindMessage:
		return treeOf(v.Message(), f.Message, o)
	default:
		return scalar(f.Descriptor(), v)
	}
}

// scalar converts a non-message value to its tree form: int64 for signed
// integers, uint64 for unsigned ones, float64 for floats, int32 for enum
// codes and base64 text for bytes
func scalar(fd protoreflect.FieldDescriptor, v protoreflect.Value) any {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return v.Bool()
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return v.Int()
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return v.Uint()
	case protoreflect.FloatKind:
		// Widen through the shortest float32 text so 0.1f reads back as 0.1.
		f, _ := strconv.ParseFloat(strconv.FormatFloat(v.Float(), 'g', -1, 32), 64)
		return f
	case protoreflect.DoubleKind:
		return v.Float()
	case protoreflect.StringKind:
		return v.String()
	case protoreflect.BytesKind:
		return base64.StdEncoding.EncodeToString(v.Bytes())
	case protoreflect.EnumKind:
		return int32(v.Enum())
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return reflectTree(v.Message())
	}
	return nil
}

// reflectTree converts a message reached without a TypeDescriptor (map values)
func reflectTree(m protoreflect.Message) valuetree.Tree {
	tree := valuetree.Tree{}
	m.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		switch {
		case fd.IsMap():
			tree[string(fd.Name())] = mapTree(fd, v.Map())
		case fd.IsList():
			list := v.List()
			items := make(valuetree.List, list.Len())
			for i := range items {
				items[i] = scalar(fd, list.Get(i))
			}
			tree[string(fd.Name())] = items
		default:
			tree[string(fd.Name())] = scalar(fd, v)
		}
		return true
	})
	return tree
}

func mapTree(fd protoreflect.FieldDescriptor, m protoreflect.Map) valuetree.Tree {
	tree := make(valuetree.Tree, m.Len())
	m.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
		tree[k.String()] = scalar(fd.MapValue(), v)
		return true
	})
	return tree
}

// defaultValue is what an unset field reads as when defaults are emitted.
// Fields with explicit presence stay unset.
func defaultValue(f *descriptor.FieldDescriptor) (any, bool) {
	switch {
	case f.Map:
		return valuetree.Tree{}, true
	case f.Repeated:
		return valuetree.List{}, true
	case f.HasPresence():
		return nil, false
	case f.Unresolved:
		return "", true
	}
	fd := f.Descriptor()
	return scalar(fd, fd.Default()), true
}
