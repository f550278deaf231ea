package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/protoform/pkg/editor"
	"github.com/platinummonkey/protoform/pkg/schema"
)

func newSchemaCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <schema-file>",
		Short: "Show the declarations of a schema and its resolution warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if s.Schema() == nil {
				fmt.Fprintln(out, "(empty schema)")
				return nil
			}
			printNamespace(out, s.Schema().Root(), 0)
			for _, w := range s.Status().Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			return nil
		},
	}
}

func printNamespace(out io.Writer, ns *schema.Namespace, depth int) {
	indent := strings.Repeat("  ", depth)
	if ns.Name != "" {
		fmt.Fprintf(out, "%spackage %s\n", indent, ns.FullName)
		depth++
		indent += "  "
	}
	for _, e := range ns.Enums {
		printEnum(out, e, indent)
	}
	for _, m := range ns.Messages {
		printMessage(out, m, depth)
	}
	for _, child := range ns.Namespaces {
		printNamespace(out, child, depth)
	}
}

func printMessage(out io.Writer, m *schema.MessageNode, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(out, "%smessage %s (line %d)\n", indent, m.Name, m.Pos.Line)
	for _, f := range m.Fields {
		var mods []string
		switch {
		case f.Repeated && !f.Map:
			mods = append(mods, "repeated")
		case f.Optional:
			mods = append(mods, "optional")
		}
		mods = append(mods, f.Type)
		line := fmt.Sprintf("%s  %s %s = %d", indent, strings.Join(mods, " "), f.Name, f.Number)
		if f.OneOf != "" && !f.Optional {
			line += fmt.Sprintf(" [oneof %s]", f.OneOf)
		}
		if f.Unresolved {
			line += " [unresolved]"
		}
		fmt.Fprintln(out, line)
	}
	for _, e := range m.Enums {
		printEnum(out, e, indent+"  ")
	}
	for _, n := range m.Nested {
		printMessage(out, n, depth+1)
	}
}

func printEnum(out io.Writer, e *schema.EnumNode, indent string) {
	names := make([]string, 0, len(e.Values))
	for _, v := range e.Values {
		names = append(names, fmt.Sprintf("%s=%d", v.Name, v.Number))
	}
	fmt.Fprintf(out, "%senum %s {%s}\n", indent, e.Name, strings.Join(names, ", "))
}

func newJSONSchemaCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "jsonschema <schema-file>",
		Short: "Print a JSON Schema describing the values a message type accepts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.readySession(args[0])
			if err != nil {
				return err
			}
			js, err := editor.JSONSchema(s.Type())
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(js, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to render JSON Schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}
