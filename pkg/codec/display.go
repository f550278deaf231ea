package codec

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/protocolbuffers/txtpbfmt/parser"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"

	"github.com/platinummonkey/protoform/pkg/valuetree"
)

// Tier identifies which decode stage produced a DisplayValue
type Tier int

const (
	TierEmpty Tier = iota
	TierStructured
	TierJSON
	TierText
	TierOpaque
)

// EmptyMarker is the display text of a zero-length payload
const EmptyMarker = "Empty"

var tierNames = map[Tier]string{
	TierEmpty:      "empty",
	TierStructured: "structured",
	TierJSON:       "json",
	TierText:       "text",
	TierOpaque:     "opaque",
}

func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return "unknown"
}

// DisplayValue is the read-only rendering of a payload
type DisplayValue struct {
	Tier Tier
	// Tree is set for TierStructured only
	Tree valuetree.Tree
	// Text is set for every tier but TierStructured
	Text string
	// Size is the payload length in bytes
	Size int
	// WireDump is a protoscope rendering of an opaque payload, when requested
	WireDump string
	// Cause records why the structured tier was not used
	Cause error

	msg proto.Message
}

// String renders the value for presentation. Structured values are shown as
// indented JSON keyed by proto field names.
func (d DisplayValue) String() string {
	if d.Tier != TierStructured {
		return d.Text
	}
	b, err := json.MarshalIndent(d.Tree, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(d.Tree))
	}
	return string(b)
}

// TextProto renders a structured value in protobuf text format
func (d DisplayValue) TextProto() (string, error) {
	if d.msg == nil {
		return "", fmt.Errorf("%s value has no text format", d.Tier)
	}
	b, err := prototext.MarshalOptions{Multiline: true}.Marshal(d.msg)
	if err != nil {
		return "", fmt.Errorf("text format: %w", err)
	}
	formatted, err := parser.Format(b)
	if err != nil {
		return string(b), nil
	}
	return string(formatted), nil
}

// Message returns the decoded message of a structured value, or nil
func (d DisplayValue) Message() proto.Message {
	return d.msg
}
