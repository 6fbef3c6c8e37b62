// Package cli implements the vexdb command line.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vexsearch/vexdb/internal/config"
	"github.com/vexsearch/vexdb/internal/guardrails"
	"github.com/vexsearch/vexdb/internal/logging"
	"github.com/vexsearch/vexdb/internal/write"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the vexdb CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "vexdb",
		Short: "vexdb - write batch parser and document validator",
		Long: `vexdb decodes database write commands, from extended JSON or raw wire
messages, into canonical write batches and checks documents against
collection validators.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (json or yaml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level override (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format override (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig reads the config file and applies the logging flag overrides.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Logging.Format = o.LogFormat
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "logging", err)
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "logging", err)
	}
	return logging.NewWithOptions(w, logging.Options{Level: level, Format: format}), nil
}

func newParser(cfg *config.Config) *write.Parser {
	return write.NewParser(guardrails.FromConfig(cfg.Write))
}
