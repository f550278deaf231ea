package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/protoform/pkg/descriptor"
	"github.com/platinummonkey/protoform/pkg/editor"
)

func newFieldsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fields <schema-file>",
		Short: "Show the form projected from a schema's message type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.readySession(args[0])
			if err != nil {
				return err
			}
			return printForm(cmd.OutOrStdout(), s.Form())
		},
	}
}

func printForm(out io.Writer, form *editor.Form) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "FIELD\tLABEL\tWIDGET\tTYPE\n")
	for _, wd := range form.Fields() {
		switch v := wd.(type) {
		case *editor.Choice:
			names := make([]string, 0, len(v.Options()))
			for _, fd := range v.Options() {
				names = append(names, fd.Name)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Name(), v.Label(), widgetName(wd), strings.Join(names, " | "))
		default:
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", wd.Name(), wd.Label(), widgetName(wd), fieldType(form.Type().Field(wd.Name())))
		}
	}
	return w.Flush()
}

func widgetName(w editor.Widget) string {
	switch w.(type) {
	case *editor.Toggle:
		return "toggle"
	case *editor.NumberInput:
		return "number"
	case *editor.EnumSelect:
		return "select"
	case *editor.MessageEditor:
		return "message"
	case *editor.ListEditor:
		return "list"
	case *editor.TextInput:
		return "text"
	case *editor.Choice:
		return "choice"
	}
	return "unknown"
}

func fieldType(fd *descriptor.FieldDescriptor) string {
	if fd == nil {
		return ""
	}
	var name string
	switch {
	case fd.Map, fd.Unresolved:
		name = fd.TypeName
	case fd.Message != nil:
		name = fd.Message.FullName()
	case fd.Enum != nil:
		name = fd.Enum.FullName
	default:
		name = fd.Kind.String()
	}
	if fd.Repeated {
		return "repeated " + name
	}
	return name
}
