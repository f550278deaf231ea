package codec

import (
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"buf.build/go/protovalidate"
	"github.com/goccy/go-json"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/platinummonkey/protoform/pkg/descriptor"
	"github.com/platinummonkey/protoform/pkg/valuetree"
)

// Encode validates v against td and serializes it to wire bytes.
//
// An empty tree encodes to an empty, non-nil slice without consulting td,
// which may then be nil. Any structural mismatch returns a *ValidationError
// naming the offending field and no bytes.
func Encode(v valuetree.Tree, td *descriptor.TypeDescriptor, opts ...Option) ([]byte, error) {
	if v.IsEmpty() {
		return []byte{}, nil
	}
	if td == nil {
		return nil, invalid("", "no message type loaded")
	}

	o := newOptions(opts)

	msg, err := buildMessage(td, v, "")
	if err != nil {
		return nil, err
	}

	if o.Constraints {
		if err := protovalidate.Validate(msg); err != nil {
			return nil, &ValidationError{Path: td.Name(), Reason: err.Error(), Err: err}
		}
	}

	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", td.FullName(), err)
	}
	if b == nil {
		b = []byte{}
	}
	return b, nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func buildMessage(td *descriptor.TypeDescriptor, tree valuetree.Tree, path string) (*dynamicpb.Message, error) {
	msg := dynamicpb.NewMessage(td.Descriptor())

	for _, key := range tree.Keys() {
		if td.Field(key) == nil {
			return nil, invalid(join(path, key), "unknown field for %s", td.FullName())
		}
	}

	for _, g := range td.RealOneofs() {
		var set []string
		for _, name := range g.Fields {
			if tree.Has(name) {
				set = append(set, name)
			}
		}
		if len(set) > 1 {
			return nil, invalid(join(path, g.Name), "only one of %s may be set", strings.Join(set, ", "))
		}
	}

	for _, f := range td.Fields() {
		raw, ok := tree.Get(f.Name)
		if !ok {
			continue
		}
		fp := join(path, f.Name)

		switch {
		case f.Map:
			if err := setMap(msg, f, raw, fp); err != nil {
				return nil, err
			}
		case f.Repeated:
			items, ok := valuetree.AsList(raw)
			if !ok {
				return nil, invalid(fp, "expected a list, got %T", raw)
			}
			if len(items) == 0 {
				continue
			}
			list := msg.Mutable(f.Descriptor()).List()
			for i, item := range items {
				ip := fmt.Sprintf("%s[%d]", fp, i)
				if item == nil {
					return nil, invalid(ip, "null list element")
				}
				val, err := value(f, item, ip)
				if err != nil {
					return nil, err
				}
				list.Append(val)
			}
		default:
			val, err := value(f, raw, fp)
			if err != nil {
				return nil, err
			}
			msg.Set(f.Descriptor(), val)
		}
	}

	return msg, nil
}

// value converts one non-nil tree value of field f
func value(f *descriptor.FieldDescriptor, raw any, path string) (protoreflect.Value, error) {
	switch f.Class() {
	case descriptor.ClassBool:
		b, ok := raw.(bool)
		if !ok {
			return protoreflect.Value{}, invalid(path, "expected a boolean, got %T", raw)
		}
		return protoreflect.ValueOfBool(b), nil

	case descriptor.ClassInt:
		if f.Kind.Unsigned() {
			u, err := toUint64(raw, f.Kind, path)
			if err != nil {
				return protoreflect.Value{}, err
			}
			if f.Kind.Is64() {
				return protoreflect.ValueOfUint64(u), nil
			}
			return protoreflect.ValueOfUint32(uint32(u)), nil
		}
		n, err := toInt64(raw, f.Kind, path)
		if err != nil {
			return protoreflect.Value{}, err
		}
		if f.Kind.Is64() {
			return protoreflect.ValueOfInt64(n), nil
		}
		return protoreflect.ValueOfInt32(int32(n)), nil

	case descriptor.ClassFloat:
		x, err := toFloat64(raw, path)
		if err != nil {
			return protoreflect.Value{}, err
		}
		if f.Kind == descriptor.KindFloat {
			// Infinities and NaN are representable; finite values beyond
			// float32 range would silently become infinities.
			if !math.IsInf(x, 0) && math.Abs(x) > math.MaxFloat32 {
				return protoreflect.Value{}, invalid(path, "%v is out of range for %s", x, f.Kind)
			}
			return protoreflect.ValueOfFloat32(float32(x)), nil
		}
		return protoreflect.ValueOfFloat64(x), nil

	case descriptor.ClassString:
		s, ok := raw.(string)
		if !ok {
			return protoreflect.Value{}, invalid(path, "expected a string, got %T", raw)
		}
		return protoreflect.ValueOfString(s), nil

	case descriptor.ClassBytes:
		b, err := toBytes(raw, path)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfBytes(b), nil

	case descriptor.ClassEnum:
		n, err := toEnum(f.Enum, raw, path)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfEnum(protoreflect.EnumNumber(n)), nil

	case descriptor.ClassMessage:
		sub, ok := valuetree.AsTree(raw)
		if !ok {
			return protoreflect.Value{}, invalid(path, "expected an object, got %T", raw)
		}
		m, err := buildMessage(f.Message, sub, path)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfMessage(m), nil

	default:
		// Unresolved fields carry their text as raw bytes.
		switch v := raw.(type) {
		case string:
			return protoreflect.ValueOfBytes([]byte(v)), nil
		case []byte:
			return protoreflect.ValueOfBytes(append([]byte(nil), v...)), nil
		}
		return protoreflect.Value{}, invalid(path, "expected text for field of unresolved type %s, got %T", f.TypeName, raw)
	}
}

// setMap decodes a map value through its JSON mapping
func setMap(msg *dynamicpb.Message, f *descriptor.FieldDescriptor, raw any, path string) error {
	entries, ok := valuetree.AsTree(raw)
	if !ok {
		return invalid(path, "expected an object, got %T", raw)
	}

	doc, err := json.Marshal(map[string]any{f.Name: entries})
	if err != nil {
		return invalid(path, "%v", err)
	}

	tmp := dynamicpb.NewMessage(msg.Descriptor())
	if err := protojson.Unmarshal(doc, tmp); err != nil {
		return &ValidationError{Path: path, Reason: err.Error(), Err: err}
	}
	if tmp.Has(f.Descriptor()) {
		msg.Set(f.Descriptor(), tmp.Get(f.Descriptor()))
	}
	return nil
}

func toInt64(raw any, k descriptor.Kind, path string) (int64, error) {
	lo, hi := k.IntRange()

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < lo || n > hi {
			return 0, invalid(path, "%d is out of range for %s", n, k)
		}
		return n, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > uint64(hi) {
			return 0, invalid(path, "%d is out of range for %s", u, k)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, invalid(path, "expected an integer, got %v", f)
		}
		if f < float64(lo) || f >= float64(hi)+1 {
			return 0, invalid(path, "%v is out of range for %s", f, k)
		}
		return int64(f), nil
	case reflect.String:
		// 64-bit integers may be written as decimal strings, as in their JSON mapping.
		if !k.Is64() {
			return 0, invalid(path, "expected a number, got string %q", rv.String())
		}
		n, err := strconv.ParseInt(strings.TrimSpace(rv.String()), 10, 64)
		if err != nil {
			return 0, invalid(path, "%q is not a valid %s", rv.String(), k)
		}
		return n, nil
	}
	return 0, invalid(path, "expected an integer, got %T", raw)
}

func toUint64(raw any, k descriptor.Kind, path string) (uint64, error) {
	limit := k.UintMax()

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < 0 || uint64(n) > limit {
			return 0, invalid(path, "%d is out of range for %s", n, k)
		}
		return uint64(n), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > limit {
			return 0, invalid(path, "%d is out of range for %s", u, k)
		}
		return u, nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, invalid(path, "expected an integer, got %v", f)
		}
		if f < 0 || f >= float64(limit)+1 {
			return 0, invalid(path, "%v is out of range for %s", f, k)
		}
		return uint64(f), nil
	case reflect.String:
		if !k.Is64() {
			return 0, invalid(path, "expected a number, got string %q", rv.String())
		}
		u, err := strconv.ParseUint(strings.TrimSpace(rv.String()), 10, 64)
		if err != nil {
			return 0, invalid(path, "%q is not a valid %s", rv.String(), k)
		}
		return u, nil
	}
	return 0, invalid(path, "expected an integer, got %T", raw)
}

func toFloat64(raw any, path string) (float64, error) {
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, invalid(path, "expected a number, got %T", raw)
}

var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// toBytes accepts raw bytes or their base64 text form
func toBytes(raw any, path string) ([]byte, error) {
	switch v := raw.(type) {
	case []byte:
		return append([]byte(nil), v...), nil
	case string:
		for _, enc := range base64Encodings {
			if b, err := enc.DecodeString(v); err == nil {
				return b, nil
			}
		}
		return nil, invalid(path, "invalid base64 text")
	}
	return nil, invalid(path, "expected base64 text, got %T", raw)
}

// toEnum accepts a declared numeric code or a declared value name
func toEnum(e *descriptor.EnumDescriptor, raw any, path string) (int32, error) {
	if name, ok := raw.(string); ok {
		v, ok := e.ByName(name)
		if !ok {
			return 0, invalid(path, "%q is not a value of %s", name, e.FullName)
		}
		return v.Number, nil
	}

	n, err := toInt64(raw, descriptor.KindInt32, path)
	if err != nil {
		return 0, err
	}
	if _, ok := e.ByNumber(int32(n)); !ok {
		return 0, invalid(path, "%d is not a value of %s", n, e.FullName)
	}
	return int32(n), nil
}
