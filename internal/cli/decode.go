package cli

import (
	"encoding/hex"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vexsearch/vexdb/internal/wire"
	"github.com/vexsearch/vexdb/internal/write"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	Hex bool
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{}

	cmd := &cobra.Command{
		Use:   "decode <message-file>",
		Short: "Decode a wire message into its canonical write command",
		Long: `Decode one wire message (OP_MSG, OP_INSERT, OP_UPDATE, OP_DELETE, or any
of them inside OP_COMPRESSED) and print the canonical write command.

Use "-" to read the message from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Hex, "hex", false, "input is hex text instead of raw bytes")

	return cmd
}

func runDecode(rootOpts *RootOptions, opts *DecodeOptions, path string, cmd *cobra.Command) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}
	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if opts.Hex {
		data, err = hex.DecodeString(strings.Join(strings.Fields(string(data)), ""))
		if err != nil {
			return WrapExitError(ExitCommandError, "decode hex", err)
		}
	}

	parser := newParser(cfg)
	out := cmd.OutOrStdout()
	m, err := wire.ParseMessage(data, parser.Limits().MaxMessageSizeBytes)
	if err != nil {
		return reportRejection(out, rootOpts.Format, err)
	}
	batch, req, err := parser.ParseWireRequest(m)
	if err != nil {
		return reportRejection(out, rootOpts.Format, err)
	}
	transport := write.TransportLegacy
	if req != nil {
		transport = write.TransportCommand
	}
	return writeBatch(out, rootOpts.Format, batch, transport)
}
