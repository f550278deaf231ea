// Package codec converts between value trees and protobuf wire bytes.
//
// Encode validates a tree against a descriptor.TypeDescriptor and produces
// deterministic wire bytes, or a *ValidationError naming the offending field.
// Decode never fails: it tries a structured decode first and falls back to
// JSON, plain text and finally an opaque marker.
//
//	data, err := codec.Encode(tree, td)
//	dv := codec.Decode(data, td, codec.WithDefaults())
//	fmt.Println(dv.Tier, dv)
package codec
