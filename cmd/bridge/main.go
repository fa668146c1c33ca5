package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/cbus_bridge/cmd/bridge/internal/output"
)

type rootOptions struct {
	outputFormat string
}

func (o *rootOptions) formatter() (output.Formatter, error) {
	return output.NewFormatter(o.outputFormat)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "cbus-bridge",
		Short: "CBUS GridConnect hub and codec tools",
		Long: `cbus-bridge relays MERG CBUS frames between TCP clients speaking
GridConnect or SLCAN and, optionally, an EByte CAN-to-Ethernet adapter.
It also decodes and encodes GridConnect frames from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.outputFormat, "output", "o", "table", "output format: table, json, yaml")

	root.AddCommand(
		newServeCmd(&serveOptions{}),
		newDecodeCmd(opts),
		newEncodeCmd(opts),
		newOpcodesCmd(opts),
	)
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
