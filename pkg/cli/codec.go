package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/protoform/pkg/codec"
	"github.com/platinummonkey/protoform/pkg/editor"
)

func newEncodeCommand(a *app) *cobra.Command {
	var (
		inputFormat string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "encode <schema-file> [value-file|-]",
		Short: "Encode a JSON5 or YAML value to protobuf wire bytes",
		Long: `Encode validates a value against the schema's message type and writes its
wire encoding. The value is read from the file argument or standard input.
An empty value encodes to zero bytes. JSON5 input accepts unquoted keys,
comments and trailing commas; strings must use double quotes.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.readySession(args[0])
			if err != nil {
				return err
			}

			path := "-"
			if len(args) > 1 {
				path = args[1]
			}
			data, err := readFile(path)
			if err != nil {
				return err
			}
			value, err := parseValue(data, inputFormat, path)
			if err != nil {
				return err
			}

			s.SetValue(value)
			b, err := s.Encode()
			if err != nil {
				return err
			}
			out, err := encodeBytes(b, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", InputAuto, "Value format: auto, json5 or yaml")
	cmd.Flags().StringVarP(&format, "format", "f", FormatBase64, "Output encoding: base64, hex or raw")
	return cmd
}

func newDecodeCommand(a *app) *cobra.Command {
	var (
		format    string
		defaults  bool
		textProto bool
	)

	cmd := &cobra.Command{
		Use:   "decode <schema-file> [payload-file|-]",
		Short: "Decode protobuf wire bytes for display",
		Long: `Decode shows a payload as a structured value when it matches the schema's
message type. Otherwise it falls back to pretty-printed JSON, plain text, or
an opaque byte count. Decode never fails on the payload itself.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.CodecOptions()
			if defaults {
				opts = append(opts, codec.WithDefaults())
			}
			s, err := a.session(args[0], editor.WithCodecOptions(opts...))
			if err != nil {
				return err
			}

			path := "-"
			if len(args) > 1 {
				path = args[1]
			}
			raw, err := readFile(path)
			if err != nil {
				return err
			}
			data, err := decodeBytes(raw, format)
			if err != nil {
				return err
			}

			dv := s.Decode(data)

			out := cmd.OutOrStdout()
			if textProto && dv.Tier == codec.TierStructured {
				text, err := dv.TextProto()
				if err != nil {
					return err
				}
				fmt.Fprint(out, text)
			} else {
				fmt.Fprintln(out, strings.TrimRight(dv.String(), "\n"))
			}
			if dv.WireDump != "" {
				fmt.Fprint(out, dv.WireDump)
			}

			summary := fmt.Sprintf("%s, %s", dv.Tier, humanize.Bytes(uint64(dv.Size)))
			if dv.Cause != nil && dv.Tier != codec.TierEmpty {
				summary += fmt.Sprintf(" (%v)", dv.Cause)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", FormatRaw, "Payload encoding: raw, base64 or hex")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Show unset fields with their zero values")
	cmd.Flags().BoolVar(&textProto, "text-proto", false, "Print structured values in protobuf text format")
	return cmd
}
