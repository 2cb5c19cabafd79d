package cmd

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/siyuan-infoblox/tsfix/pkg/config"
	"github.com/siyuan-infoblox/tsfix/pkg/errors"
	"github.com/siyuan-infoblox/tsfix/pkg/extension"
	"github.com/siyuan-infoblox/tsfix/pkg/utils"
	"github.com/siyuan-infoblox/tsfix/pkg/watch"
)

type extOptions struct {
	extensions []string
	include    []string
	dryRun     bool
	watch      bool
}

func newExtCommand(root *rootOptions) *cobra.Command {
	opts := &extOptions{}

	cmd := &cobra.Command{
		Use:   "ext [flags] ROOT",
		Short: "Append file extensions to relative import specifiers",
		Long: `ext walks ROOT and rewrites every relative import or export specifier
that names a file without its extension, when a file with one of the target
extensions exists next to the importing file. node_modules and hidden
directories are skipped. Files are only written when something changed.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExt(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringSliceVar(&opts.extensions, "ext", config.Or(root.env.Extensions, extension.DefaultExtensions), "Target extensions in order of preference (env "+config.EnvExtensions+")")
	cmd.Flags().StringSliceVar(&opts.include, "include", config.Or(root.env.SourceExtensions, utils.DefaultSourceExtensions), "Extensions of the files to rewrite (env "+config.EnvInclude+")")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the changes as a diff instead of writing files")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Keep running and rewrite files as they change")

	return cmd
}

func runExt(cmd *cobra.Command, root *rootOptions, opts *extOptions, path string) error {
	sink := root.sink(cmd.ErrOrStderr())
	rw, err := extension.New(extension.RewriterConfig{
		Extensions:       opts.extensions,
		SourceExtensions: opts.include,
		DryRun:           opts.dryRun,
		DiffOutput:       cmd.OutOrStdout(),
	}, sink)
	if err != nil {
		_ = cmd.Usage()
		return err
	}

	if _, err := rw.ProcessPath(cmd.Context(), path); err != nil {
		if stderrors.Is(err, errors.ErrDirectoryAccess) {
			_ = cmd.Usage()
		}
		return err
	}
	if !opts.watch {
		return nil
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w, err := watch.New(path, opts.include, rw, watch.DefaultDebounce, sink)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Run(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
