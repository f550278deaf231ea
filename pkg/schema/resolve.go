package schema

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

type declKind int

const (
	declMessage declKind = iota + 1
	declEnum
)

// resolver resolves type references in a syntactically parsed file using
// protobuf scoping rules against the file's own declarations and the
// imports that the global registry can serve.
type resolver struct {
	local    map[string]declKind
	imported map[string]bool
	warnings []ResolutionWarning
	// unresolved maps a degraded field's full name to its declared type
	unresolved map[protoreflect.FullName]string
}

// resolveReferences rewrites fdp in place so it can be linked: resolvable
// references become fully-qualified, unresolvable ones are degraded to bytes,
// and imports the registry cannot serve are dropped.
func resolveReferences(fdp *descriptorpb.FileDescriptorProto) ([]ResolutionWarning, map[protoreflect.FullName]string) {
	r := &resolver{
		local:      make(map[string]declKind),
		imported:   make(map[string]bool),
		unresolved: make(map[protoreflect.FullName]string),
	}

	pkg := fdp.GetPackage()
	r.dropUnknownImports(fdp)

	for _, msg := range fdp.GetMessageType() {
		r.collectMessage(pkg, msg)
	}
	for _, enum := range fdp.GetEnumType() {
		r.local[join(pkg, enum.GetName())] = declEnum
	}

	for _, msg := range fdp.GetMessageType() {
		r.resolveMessage(pkg, msg)
	}
	fdp.Extension = r.resolveExtensions(pkg, fdp.GetExtension())
	fdp.Service = r.resolveServices(pkg, fdp.GetService())

	return r.warnings, r.unresolved
}

func join(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}

func (r *resolver) dropUnknownImports(fdp *descriptorpb.FileDescriptorProto) {
	kept := make([]string, 0, len(fdp.GetDependency()))
	for _, dep := range fdp.GetDependency() {
		if _, err := protoregistry.GlobalFiles.FindFileByPath(dep); err != nil {
			r.warnings = append(r.warnings, ResolutionWarning{
				Field:     dep,
				Reference: dep,
				Msg:       fmt.Sprintf("import %q could not be resolved and was ignored", dep),
			})
			continue
		}
		r.imported[dep] = true
		kept = append(kept, dep)
	}
	// Public and weak dependency indexes refer to positions in the original
	// list; they are not needed once unresolvable imports are dropped.
	fdp.Dependency = kept
	fdp.PublicDependency = nil
	fdp.WeakDependency = nil
}

func (r *resolver) collectMessage(scope string, msg *descriptorpb.DescriptorProto) {
	full := join(scope, msg.GetName())
	r.local[full] = declMessage
	for _, nested := range msg.GetNestedType() {
		r.collectMessage(full, nested)
	}
	for _, enum := range msg.GetEnumType() {
		r.local[join(full, enum.GetName())] = declEnum
	}
}

// find looks a fully-qualified name up among local declarations and the
// kept imports
func (r *resolver) find(name string) (declKind, bool) {
	if kind, ok := r.local[name]; ok {
		return kind, true
	}
	d, err := protoregistry.GlobalFiles.FindDescriptorByName(protoreflect.FullName(name))
	if err != nil || !r.imported[d.ParentFile().Path()] {
		return 0, false
	}
	switch d.(type) {
	case protoreflect.MessageDescriptor:
		return declMessage, true
	case protoreflect.EnumDescriptor:
		return declEnum, true
	}
	return 0, false
}

// lookup resolves ref relative to scope, searching from the innermost scope
// outwards. It returns the leading-dot fully-qualified name.
func (r *resolver) lookup(scope, ref string) (string, declKind, bool) {
	if strings.HasPrefix(ref, ".") {
		kind, ok := r.find(ref[1:])
		return ref, kind, ok
	}
	for {
		candidate := join(scope, ref)
		if kind, ok := r.find(candidate); ok {
			return "." + candidate, kind, true
		}
		if scope == "" {
			return "", 0, false
		}
		if i := strings.LastIndexByte(scope, '.'); i >= 0 {
			scope = scope[:i]
		} else {
			scope = ""
		}
	}
}

func (r *resolver) resolveMessage(scope string, msg *descriptorpb.DescriptorProto) {
	full := join(scope, msg.GetName())

	for _, field := range msg.GetField() {
		r.resolveField(full, field)
	}
	ensureSyntheticOneofs(msg)

	for _, nested := range msg.GetNestedType() {
		r.resolveMessage(full, nested)
	}
	msg.Extension = r.resolveExtensions(full, msg.GetExtension())
}

func (r *resolver) resolveField(scope string, field *descriptorpb.FieldDescriptorProto) {
	if field.TypeName == nil {
		return
	}

	ref := field.GetTypeName()
	name, kind, ok := r.lookup(scope, ref)
	if !ok {
		fieldName := join(scope, field.GetName())
		r.unresolved[protoreflect.FullName(fieldName)] = strings.TrimPrefix(ref, ".")
		r.warnings = append(r.warnings, ResolutionWarning{
			Field:     fieldName,
			Reference: ref,
			Msg:       fmt.Sprintf("type %q referenced by field %s could not be resolved; field is treated as opaque", ref, fieldName),
		})
		field.TypeName = nil
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_BYTES.Enum()
		field.DefaultValue = nil
		return
	}

	field.TypeName = proto.String(name)
	if field.GetType() == descriptorpb.FieldDescriptorProto_TYPE_GROUP {
		return
	}
	if kind == declEnum {
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_ENUM.Enum()
	} else {
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
	}
}

// resolveExtensions keeps only extensions whose extendee and type resolve
func (r *resolver) resolveExtensions(scope string, exts []*descriptorpb.FieldDescriptorProto) []*descriptorpb.FieldDescriptorProto {
	kept := exts[:0]
	for _, ext := range exts {
		extendee, _, ok := r.lookup(scope, ext.GetExtendee())
		if !ok {
			r.warnings = append(r.warnings, ResolutionWarning{
				Field:     join(scope, ext.GetName()),
				Reference: ext.GetExtendee(),
				Msg:       fmt.Sprintf("extension %s of unresolved type %q was ignored", ext.GetName(), ext.GetExtendee()),
			})
			continue
		}
		ext.Extendee = proto.String(extendee)
		before := len(r.unresolved)
		r.resolveField(scope, ext)
		if len(r.unresolved) != before {
			continue
		}
		kept = append(kept, ext)
	}
	return kept
}

// resolveServices keeps only services whose methods all resolve
func (r *resolver) resolveServices(scope string, services []*descriptorpb.ServiceDescriptorProto) []*descriptorpb.ServiceDescriptorProto {
	kept := services[:0]
	for _, svc := range services {
		ok := true
		for _, method := range svc.GetMethod() {
			in, _, inOK := r.lookup(scope, method.GetInputType())
			out, _, outOK := r.lookup(scope, method.GetOutputType())
			if !inOK || !outOK {
				ok = false
				break
			}
			method.InputType = proto.String(in)
			method.OutputType = proto.String(out)
		}
		if !ok {
			r.warnings = append(r.warnings, ResolutionWarning{
				Field:     join(scope, svc.GetName()),
				Reference: svc.GetName(),
				Msg:       fmt.Sprintf("service %s references unresolved types and was ignored", svc.GetName()),
			})
			continue
		}
		kept = append(kept, svc)
	}
	return kept
}

// ensureSyntheticOneofs adds the synthetic "_name" oneof required for every
// proto3 optional field that does not already have one
func ensureSyntheticOneofs(msg *descriptorpb.DescriptorProto) {
	for _, field := range msg.GetField() {
		if !field.GetProto3Optional() || field.OneofIndex != nil {
			continue
		}
		msg.OneofDecl = append(msg.OneofDecl, &descriptorpb.OneofDescriptorProto{
			Name: proto.String("_" + field.GetName()),
		})
		field.OneofIndex = proto.Int32(int32(len(msg.OneofDecl) - 1))
	}
}
