package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/cbus_bridge/cmd/bridge/internal/cbus"
	"github.com/example/cbus_bridge/cmd/bridge/internal/output"
)

func newDecodeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [wire...]",
		Short: "Decode GridConnect frames from arguments or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := root.formatter()
			if err != nil {
				return err
			}

			var input []byte
			if len(args) > 0 {
				input = []byte(strings.Join(args, ""))
			} else {
				input, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			}

			res := cbus.ScanFrames(input)
			if res.Rejected > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d malformed frames\n", res.Rejected)
			}
			out, err := formatter.Format(output.Frames(res.Frames))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

type encodeOptions struct {
	source uint8
	major  string
	minor  string
	opcode string
	data   string
	rtr    bool
}

func newEncodeCmd(root *rootOptions) *cobra.Command {
	opts := &encodeOptions{}

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode one frame as GridConnect text",
		Example: `  cbus-bridge encode --source 1 --opcode ACON --data 000AFB41
  cbus-bridge encode --source 127 --major emergency --minor high --rtr`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.frame(cmd)
			if err != nil {
				return err
			}
			if root.outputFormat == "" || strings.EqualFold(root.outputFormat, "table") {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", cbus.EncodeFrame(f))
				return nil
			}
			formatter, err := root.formatter()
			if err != nil {
				return err
			}
			out, err := formatter.Format(output.Frames([]cbus.Frame{f}))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	f := cmd.Flags()
	f.Uint8Var(&opts.source, "source", 0, "Source CAN id (0-127)")
	f.StringVar(&opts.major, "major", cbus.MajorNormal.String(), "Major priority (emergency|high|normal)")
	f.StringVar(&opts.minor, "minor", "", "Minor priority (high|above-normal|normal|low); defaults to the opcode's")
	f.StringVar(&opts.opcode, "opcode", "", "Opcode mnemonic; omit for a frame without a message")
	f.StringVar(&opts.data, "data", "", "Payload as hex; omitted means zero bytes")
	f.BoolVar(&opts.rtr, "rtr", false, "Set the remote transmission request flag")
	return cmd
}

func (o *encodeOptions) frame(cmd *cobra.Command) (cbus.Frame, error) {
	var major cbus.MajorPriority
	if err := major.UnmarshalText([]byte(o.major)); err != nil {
		return cbus.Frame{}, err
	}

	minor := cbus.MinorNormal
	var msg cbus.Message
	if o.opcode != "" {
		d, err := cbus.LookupName(o.opcode)
		if err != nil {
			return cbus.Frame{}, err
		}
		var payload []byte
		if cmd.Flags().Changed("data") {
			if payload, err = hex.DecodeString(o.data); err != nil {
				return cbus.Frame{}, fmt.Errorf("parse --data: %w", err)
			}
			if payload == nil {
				payload = []byte{}
			}
		}
		if msg, err = cbus.NewMessage(d.Code, payload); err != nil {
			return cbus.Frame{}, err
		}
		minor = d.Priority
	} else if cmd.Flags().Changed("data") {
		return cbus.Frame{}, fmt.Errorf("--data needs --opcode")
	}

	if o.minor != "" {
		if err := minor.UnmarshalText([]byte(o.minor)); err != nil {
			return cbus.Frame{}, err
		}
	}

	h, err := cbus.NewHeader(major, minor, o.source)
	if err != nil {
		return cbus.Frame{}, err
	}
	if o.opcode == "" {
		return cbus.NewVoidFrame(h, o.rtr), nil
	}
	return cbus.NewFrame(h, msg, o.rtr), nil
}

func newOpcodesCmd(root *rootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "opcodes",
		Short: "List the opcode catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := root.formatter()
			if err != nil {
				return err
			}
			var descs []cbus.Descriptor
			for _, d := range cbus.Descriptors() {
				if kind == "" || strings.EqualFold(kind, d.Kind.String()) {
					descs = append(descs, d)
				}
			}
			out, err := formatter.Format(output.Opcodes(descs))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Only list one kind (general|config|accessory|dcc)")
	return cmd
}
