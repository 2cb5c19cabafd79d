package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/siyuan-infoblox/tsfix/pkg/config"
	"github.com/siyuan-infoblox/tsfix/pkg/events"
	"github.com/siyuan-infoblox/tsfix/pkg/version"
)

const (
	UseDescription   = "tsfix [command]"
	ShortDescription = "TypeScript import fixer - Rewrites import statements for native ESM and verbatimModuleSyntax"
	LongDescription  = `tsfix is a command-line tool that rewrites import statements in TypeScript
and JavaScript sources in place.

It provides two commands:
1. ext           - append a file extension (default .ts) to relative import
                   and export specifiers whose target file exists on disk
2. type-imports  - move bindings that tsc reports as types (TS1484) out of
                   value imports and into "import type" statements

Defaults for most flags can be set with TSFIX_* environment variables or a
.env file in the working directory.`
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	showVersion bool
	verbose     bool
	jsonLogs    bool
	env         config.Config
}

// sink returns the event sink that renders library events on w.
func (o *rootOptions) sink(w io.Writer) events.Sink {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if o.jsonLogs {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return events.NewSlogSink(slog.New(handler))
}

// NewRootCommand returns the tsfix command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{env: config.Load()}

	rootCmd := &cobra.Command{
		Use:          UseDescription,
		Short:        ShortDescription,
		Long:         LongDescription,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Handle version flag
			if opts.showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version.Get())
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.showVersion, "version", "v", false, "Show version information")
	rootCmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Log every rewritten specifier and statement")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonLogs, "json", false, "Write log lines as JSON")

	rootCmd.AddCommand(newExtCommand(opts), newTypeImportsCommand(opts))
	return rootCmd
}

// usageArgs wraps a positional argument validator so that a rejected
// command line prints usage even though usage is otherwise silenced.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			_ = cmd.Usage()
			return err
		}
		return nil
	}
}

// Execute runs tsfix. buildVersion is the module version from the binary's
// build info and is used when no version was set at link time.
func Execute(buildVersion string) error {
	version.SetFallback(buildVersion)
	return NewRootCommand().Execute()
}
