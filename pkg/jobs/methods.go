package jobs

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownMethod is returned when a method is not in the method map
var ErrUnknownMethod = errors.New("unknown method")

// MethodSchema holds the schema text of one runner method. Either side may
// be blank when the method takes no arguments or returns no output.
type MethodSchema struct {
	ArgsProto   string `yaml:"argsProto" json:"argsProto"`
	ResultProto string `yaml:"resultProto" json:"resultProto"`
}

// MethodProtoMap maps method names to their schemas, as published by a runner
type MethodProtoMap struct {
	Schemas map[string]MethodSchema `yaml:"schemas" json:"schemas"`
}

// Methods returns the method names, sorted
func (m MethodProtoMap) Methods() []string {
	names := make([]string, 0, len(m.Schemas))
	for name := range m.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMethod returns the only method when exactly one is declared
func (m MethodProtoMap) DefaultMethod() (string, bool) {
	if len(m.Schemas) != 1 {
		return "", false
	}
	for name := range m.Schemas {
		return name, true
	}
	return "", false
}

// Resolve returns the method to use for name; a blank name selects the
// default method when there is one
func (m MethodProtoMap) Resolve(name string) (string, error) {
	if name == "" {
		if def, ok := m.DefaultMethod(); ok {
			return def, nil
		}
		return "", nil
	}
	if _, ok := m.Schemas[name]; !ok {
		return "", fmt.Errorf("%w %q (have %s)", ErrUnknownMethod, name, strings.Join(m.Methods(), ", "))
	}
	return name, nil
}

// Lookup returns the schemas of a method
func (m MethodProtoMap) Lookup(name string) (MethodSchema, error) {
	resolved, err := m.Resolve(name)
	if err != nil {
		return MethodSchema{}, err
	}
	if resolved == "" {
		return MethodSchema{}, nil
	}
	return m.Schemas[resolved], nil
}

// LoadMethodProtoMap reads a method map from YAML (or JSON)
func LoadMethodProtoMap(r io.Reader) (MethodProtoMap, error) {
	var m MethodProtoMap
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return MethodProtoMap{}, nil
		}
		return MethodProtoMap{}, fmt.Errorf("failed to decode method map: %w", err)
	}
	return m, nil
}
