package descriptor

import (
	"math"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Kind is the closed set of field kinds the editor and codec understand
type Kind int

const (
	KindBool Kind = iota
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindSint32
	KindSint64
	KindFixed32
	KindFixed64
	KindSfixed32
	KindSfixed64
	KindFloat
	KindDouble
	KindString
	KindBytes
	KindEnum
	KindMessage
	// KindOpaque covers fields the model does not represent structurally:
	// map fields and fields whose type could not be resolved.
	KindOpaque
)

var kindNames = []string{
	"bool", "int32", "int64", "uint32", "uint64", "sint32", "sint64",
	"fixed32", "fixed64", "sfixed32", "sfixed64", "float", "double",
	"string", "bytes", "enum", "message", "opaque",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Class is the coarse variant a widget is chosen by
type Class int

const (
	ClassBool Class = iota
	ClassInt
	ClassFloat
	ClassString
	ClassBytes
	ClassEnum
	ClassMessage
	ClassOpaque
)

func (c Class) String() string {
	return []string{"bool", "int", "float", "string", "bytes", "enum", "message", "opaque"}[c]
}

// Class returns the coarse variant of k
func (k Kind) Class() Class {
	switch k {
	case KindBool:
		return ClassBool
	case KindInt32, KindInt64, KindUint32, KindUint64, KindSint32, KindSint64,
		KindFixed32, KindFixed64, KindSfixed32, KindSfixed64:
		return ClassInt
	case KindFloat, KindDouble:
		return ClassFloat
	case KindString:
		return ClassString
	case KindBytes:
		return ClassBytes
	case KindEnum:
		return ClassEnum
	case KindMessage:
		return ClassMessage
	default:
		return ClassOpaque
	}
}

// Unsigned reports whether k is an unsigned integer kind
func (k Kind) Unsigned() bool {
	switch k {
	case KindUint32, KindUint64, KindFixed32, KindFixed64:
		return true
	}
	return false
}

// Is64 reports whether k is a 64-bit integer kind
func (k Kind) Is64() bool {
	switch k {
	case KindInt64, KindUint64, KindSint64, KindFixed64, KindSfixed64:
		return true
	}
	return false
}

// IntRange returns the inclusive bounds of a signed integer kind
func (k Kind) IntRange() (int64, int64) {
	if k.Is64() {
		return math.MinInt64, math.MaxInt64
	}
	return math.MinInt32, math.MaxInt32
}

// UintMax returns the upper bound of an unsigned integer kind
func (k Kind) UintMax() uint64 {
	if k.Is64() {
		return math.MaxUint64
	}
	return math.MaxUint32
}

func kindOf(fd protoreflect.FieldDescriptor) Kind {
	if fd.IsMap() {
		return KindOpaque
	}
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return KindBool
	case protoreflect.Int32Kind:
		return KindInt32
	case protoreflect.Int64Kind:
		return KindInt64
	case protoreflect.Uint32Kind:
		return KindUint32
	case protoreflect.Uint64Kind:
		return KindUint64
	case protoreflect.Sint32Kind:
		return KindSint32
	case protoreflect.Sint64Kind:
		return KindSint64
	case protoreflect.Fixed32Kind:
		return KindFixed32
	case protoreflect.Fixed64Kind:
		return KindFixed64
	case protoreflect.Sfixed32Kind:
		return KindSfixed32
	case protoreflect.Sfixed64Kind:
		return KindSfixed64
	case protoreflect.FloatKind:
		return KindFloat
	case protoreflect.DoubleKind:
		return KindDouble
	case protoreflect.StringKind:
		return KindString
	case protoreflect.BytesKind:
		return KindBytes
	case protoreflect.EnumKind:
		return KindEnum
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return KindMessage
	default:
		return KindOpaque
	}
}
