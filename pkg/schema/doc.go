// Package schema interprets protobuf IDL text supplied at runtime.
//
// # Overview
//
// Parse turns schema text into a linked Schema: a declaration tree of
// namespaces, messages, enums and oneofs, plus the protoreflect descriptors
// used by the codec. Text without a syntax statement is read as proto3.
//
// Parsing runs in two stages. A full compile and link is tried first. If it
// fails, the text is parsed syntactically and type references are resolved
// locally; references that cannot be found are reported as
// ResolutionWarnings and the affected fields are degraded to opaque bytes.
// Imports that are not well-known types are dropped the same way. Only
// malformed text yields a ParseError.
//
// # Primary Message
//
//	s, err := schema.Parse(`message Args { string name = 1; }`)
//	md, err := s.PrimaryMessage()
//
// The primary message is the first message met by a depth-first walk of the
// declaration tree, so with several top-level messages the first declared
// one is used.
//
// # Cache
//
// Cache keeps parsed schemas keyed by a hash of their text:
//
//	cache := schema.NewCache(schema.DefaultCacheConfig())
//	s, err := cache.Parse(text)
package schema
