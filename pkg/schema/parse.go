package schema

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/ast"
	"github.com/bufbuild/protocompile/parser"
	"github.com/bufbuild/protocompile/reporter"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	// Well-known types are importable from schema text.
	_ "google.golang.org/protobuf/types/known/anypb"
	_ "google.golang.org/protobuf/types/known/durationpb"
	_ "google.golang.org/protobuf/types/known/emptypb"
	_ "google.golang.org/protobuf/types/known/fieldmaskpb"
	_ "google.golang.org/protobuf/types/known/structpb"
	_ "google.golang.org/protobuf/types/known/timestamppb"
	_ "google.golang.org/protobuf/types/known/wrapperspb"
)

// DefaultFilename is used for schema text that does not come from a file
const DefaultFilename = "schema.proto"

// implicitSyntax is prepended when the text carries no syntax or edition
// statement, so label-less fields parse.
const implicitSyntax = `syntax = "proto3"; `

var (
	syntaxStatement = regexp.MustCompile(`(?m)^\s*(syntax|edition)\s*=`)
	errorPosition   = regexp.MustCompile(`^[^:]*:(\d+):(\d+):\s*(.*)$`)
)

// Schema is a parsed and linked schema together with any resolution warnings
type Schema struct {
	file       protoreflect.FileDescriptor
	root       *Namespace
	warnings   []ResolutionWarning
	unresolved map[protoreflect.FullName]string
}

// Parse parses schema text using the default filename
func Parse(content string) (*Schema, error) {
	return ParseFile(DefaultFilename, content)
}

// ParseFile parses schema text into a Schema.
//
// The text is first compiled and linked in full. When that fails, the text is
// parsed syntactically and references are resolved locally; references that
// cannot be found become ResolutionWarnings instead of failures. Only
// syntax errors and link failures after local resolution return a ParseError.
func ParseFile(filename, content string) (*Schema, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptySchema
	}
	if filename == "" {
		filename = DefaultFilename
	}

	source, shift := withSyntax(content)

	fd, err := compile(filename, source)
	if err == nil {
		return newSchema(fd, nil, nil), nil
	}

	fdp, err := parseSyntax(filename, source, shift)
	if err != nil {
		return nil, err
	}

	warnings, unresolved := resolveReferences(fdp)

	fd, err = protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		return nil, &ParseError{Filename: filename, Msg: err.Error(), Err: err}
	}

	return newSchema(fd, warnings, unresolved), nil
}

func newSchema(fd protoreflect.FileDescriptor, warnings []ResolutionWarning, unresolved map[protoreflect.FullName]string) *Schema {
	if unresolved == nil {
		unresolved = map[protoreflect.FullName]string{}
	}
	return &Schema{
		file:       fd,
		root:       buildNamespaces(fd, unresolved),
		warnings:   warnings,
		unresolved: unresolved,
	}
}

// withSyntax returns the text to compile and the column shift applied to line 1
func withSyntax(content string) (string, int) {
	if syntaxStatement.MatchString(content) {
		return content, 0
	}
	return implicitSyntax + content, len(implicitSyntax)
}

// compile runs a full compile and link. Imports are served from the global
// registry, which carries the well-known types.
func compile(filename, content string) (protoreflect.FileDescriptor, error) {
	compiler := protocompile.Compiler{
		Resolver: protocompile.CompositeResolver{
			&protocompile.SourceResolver{
				Accessor: protocompile.SourceAccessorFromMap(map[string]string{
					filename: content,
				}),
			},
			protocompile.ResolverFunc(func(path string) (protocompile.SearchResult, error) {
				fd, err := protoregistry.GlobalFiles.FindFileByPath(path)
				if err != nil {
					return protocompile.SearchResult{}, err
				}
				return protocompile.SearchResult{Desc: fd}, nil
			}),
		},
		SourceInfoMode: protocompile.SourceInfoStandard,
	}

	result, err := compiler.Compile(context.Background(), filename)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no files compiled")
	}
	return result[0], nil
}

// parseSyntax parses the text without linking it
func parseSyntax(filename, content string, shift int) (*descriptorpb.FileDescriptorProto, error) {
	handler := reporter.NewHandler(nil)

	node, err := parser.Parse(filename, strings.NewReader(content), handler)
	if err != nil {
		return nil, newParseError(filename, err, shift)
	}

	res, err := parser.ResultFromAST(node, true, handler)
	if err != nil {
		return nil, newParseError(filename, err, shift)
	}

	return res.FileDescriptorProto(), nil
}

type positioned interface {
	GetPosition() ast.SourcePos
}

// newParseError converts a parser error into a ParseError, undoing the column
// shift caused by the implicit syntax statement
func newParseError(filename string, err error, shift int) *ParseError {
	pe := &ParseError{Filename: filename, Msg: err.Error(), Err: err}

	var withPos positioned
	if errors.As(err, &withPos) {
		pos := withPos.GetPosition()
		pe.Line, pe.Column = pos.Line, pos.Col
		if u := errors.Unwrap(err); u != nil {
			pe.Msg = u.Error()
		}
	} else if m := errorPosition.FindStringSubmatch(err.Error()); m != nil {
		pe.Line, _ = strconv.Atoi(m[1])
		pe.Column, _ = strconv.Atoi(m[2])
		pe.Msg = m[3]
	}

	if pe.Line == 1 && pe.Column > shift {
		pe.Column -= shift
	}
	return pe
}

// File returns the linked file descriptor
func (s *Schema) File() protoreflect.FileDescriptor {
	return s.file
}

// Root returns the declaration tree
func (s *Schema) Root() *Namespace {
	return s.root
}

// Warnings returns the resolution warnings collected while loading
func (s *Schema) Warnings() []ResolutionWarning {
	return s.warnings
}

// Unresolved reports whether the field was degraded because its declared type
// could not be resolved, and returns that declared type.
func (s *Schema) Unresolved(fd protoreflect.FieldDescriptor) (string, bool) {
	ref, ok := s.unresolved[fd.FullName()]
	return ref, ok
}

// PrimaryMessage returns the first message type found by a depth-first,
// declaration-order walk of the namespace tree. With several top-level
// messages the first one declared wins.
func (s *Schema) PrimaryMessage() (protoreflect.MessageDescriptor, error) {
	if msg := firstMessage(s.root); msg != nil {
		return msg.desc, nil
	}
	return nil, ErrNoMessage
}

func firstMessage(ns *Namespace) *MessageNode {
	if len(ns.Messages) > 0 {
		return ns.Messages[0]
	}
	for _, child := range ns.Namespaces {
		if msg := firstMessage(child); msg != nil {
			return msg
		}
	}
	return nil
}

// Message looks up a message by full or simple name. Simple names are matched
// against top-level messages in the schema's package.
func (s *Schema) Message(name string) (protoreflect.MessageDescriptor, error) {
	name = strings.TrimPrefix(name, ".")
	if md := s.file.Messages().ByName(protoreflect.Name(name)); md != nil {
		return md, nil
	}

	var found protoreflect.MessageDescriptor
	walkMessages(s.file.Messages(), func(md protoreflect.MessageDescriptor) bool {
		if string(md.FullName()) == name {
			found = md
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, name)
	}
	return found, nil
}

func walkMessages(msgs protoreflect.MessageDescriptors, fn func(protoreflect.MessageDescriptor) bool) bool {
	for i := 0; i < msgs.Len(); i++ {
		md := msgs.Get(i)
		if !fn(md) {
			return false
		}
		if !walkMessages(md.Messages(), fn) {
			return false
		}
	}
	return true
}
