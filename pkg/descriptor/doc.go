// Package descriptor normalizes a linked protobuf message type into the
// closed model the editor and codec work against.
//
// Every field has a Kind from a fixed set, grouped into a coarse Class that
// selects the editing widget. Map fields and fields whose type could not be
// resolved are Opaque. Oneof groups are classified as synthetic (the wrapper
// of a single optional field) or real (an exclusive choice) by name and
// member count alone.
//
// Descriptors are built eagerly; recursive message types share a single
// TypeDescriptor per message, so building terminates.
package descriptor
