// Package cli provides the protoform command-line interface.
//
// # Overview
//
// protoform loads protobuf schema text, projects its message type onto a
// form, and converts values between JSON5/YAML and wire bytes. Every command
// takes the schema file as its first argument and uses the first message
// declared in it unless --message names another.
//
// # Commands
//
// fields: Show the form projected from the message type
//
//	protoform fields job.proto
//
// encode: Encode a value to wire bytes
//
//	protoform encode job.proto args.json5 --format hex
//	echo 'name: build' | protoform encode job.proto - --input-format yaml
//
// decode: Decode wire bytes for display
//
//	protoform decode job.proto payload.bin
//	protoform decode job.proto payload.b64 --format base64 --defaults
//	protoform decode job.proto payload.bin --text-proto
//
// schema: Show declarations and resolution warnings
//
//	protoform schema job.proto
//
// jsonschema: Print a JSON Schema for the message type
//
//	protoform jsonschema job.proto > job.schema.json
//
// watch: Reload the schema on every write
//
//	protoform watch job.proto
//
// # Configuration
//
// Settings come from flags, PROTOFORM_* environment variables and an
// optional --config file, in that order of precedence:
//
//	export PROTOFORM_LOG_LEVEL=debug
//	export PROTOFORM_DECODE_FAST=true
//	protoform decode job.proto payload.bin
//
// # Related Packages
//
//   - pkg/config: Loads settings
//   - pkg/editor: Sessions and forms
//   - pkg/codec: Encoding and decoding
package cli
