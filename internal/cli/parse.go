package cli

import (
	"github.com/spf13/cobra"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/status"
	"github.com/vexsearch/vexdb/internal/wire"
	"github.com/vexsearch/vexdb/internal/write"
)

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <command-file>",
		Short: "Parse an extended-JSON write command",
		Long: `Parse an insert, update or delete command written as extended JSON and
print the canonical command with every default filled in.

Use "-" to read the command from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runParse(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}
	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	body, err := document.FromExtJSON(string(data))
	if err != nil {
		return reportRejection(out, rootOpts.Format,
			status.Wrap(status.FailedToParse, err, "command is not a valid extended JSON document"))
	}
	batch, err := newParser(cfg).Parse(wire.NewOpMsgRequest(body))
	if err != nil {
		return reportRejection(out, rootOpts.Format, err)
	}
	return writeBatch(out, rootOpts.Format, batch, write.TransportCommand)
}
