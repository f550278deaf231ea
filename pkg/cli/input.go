package cli

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/protoform/pkg/valuetree"
)

// Byte encodings accepted by --format
const (
	FormatRaw    = "raw"
	FormatBase64 = "base64"
	FormatHex    = "hex"
)

// Value formats accepted by --input-format
const (
	InputAuto  = "auto"
	InputJSON5 = "json5"
	InputYAML  = "yaml"
)

var stdin io.Reader = os.Stdin

// readFile reads path, or standard input for "-"
func readFile(path string) ([]byte, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return b, nil
}

// parseValue reads a value tree written in JSON5 or YAML. Blank input is the
// empty tree.
func parseValue(data []byte, format, path string) (valuetree.Tree, error) {
	if strings.TrimSpace(string(data)) == "" {
		return valuetree.Tree{}, nil
	}

	if format == InputAuto {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			format = InputYAML
		default:
			format = InputJSON5
		}
	}

	var raw map[string]any
	switch format {
	case InputJSON5:
		if err := json5.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid JSON5 value: %w", err)
		}
	case InputYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid YAML value: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown input format %q (must be auto, json5 or yaml)", format)
	}
	return valuetree.New(raw)
}

func encodeBytes(b []byte, format string) ([]byte, error) {
	switch format {
	case FormatRaw:
		return b, nil
	case FormatBase64:
		return []byte(base64.StdEncoding.EncodeToString(b) + "\n"), nil
	case FormatHex:
		return []byte(hex.EncodeToString(b) + "\n"), nil
	}
	return nil, fmt.Errorf("unknown format %q (must be raw, base64 or hex)", format)
}

func decodeBytes(b []byte, format string) ([]byte, error) {
	switch format {
	case FormatRaw:
		return b, nil
	case FormatBase64:
		out, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(b)))
		if err != nil {
			return nil, fmt.Errorf("invalid base64 input: %w", err)
		}
		return out, nil
	case FormatHex:
		out, err := hex.DecodeString(strings.TrimSpace(string(b)))
		if err != nil {
			return nil, fmt.Errorf("invalid hex input: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown format %q (must be raw, base64 or hex)", format)
}
