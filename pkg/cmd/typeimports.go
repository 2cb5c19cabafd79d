package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/siyuan-infoblox/tsfix/pkg/config"
	"github.com/siyuan-infoblox/tsfix/pkg/diagnostic"
	"github.com/siyuan-infoblox/tsfix/pkg/errors"
	"github.com/siyuan-infoblox/tsfix/pkg/typeimport"
	"github.com/siyuan-infoblox/tsfix/pkg/utils"
)

type typeImportsOptions struct {
	code    string
	baseDir string
	dryRun  bool
}

func newTypeImportsCommand(root *rootOptions) *cobra.Command {
	opts := &typeImportsOptions{}

	cmd := &cobra.Command{
		Use:   "type-imports [flags] [REPORT|-]",
		Short: "Split type-only bindings out of value imports using a tsc report",
		Long: `type-imports reads the output of tsc from REPORT, or from standard input
when REPORT is omitted or "-", and rewrites each import statement named by a
TS1484 diagnostic so that the flagged bindings move into an "import type"
statement for the same module.

  npx tsc --noEmit | tsfix type-imports`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypeImports(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.code, "code", config.FirstNonEmpty(root.env.Code, diagnostic.DefaultCode), "Diagnostic code to act on (env "+config.EnvCode+")")
	cmd.Flags().StringVar(&opts.baseDir, "base-dir", root.env.BaseDir, "Directory that report paths are relative to (default: nearest directory with tsconfig.json or package.json) (env "+config.EnvBaseDir+")")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the changes as a diff instead of writing files")

	return cmd
}

func runTypeImports(cmd *cobra.Command, root *rootOptions, opts *typeImportsOptions, args []string) error {
	report, err := readReport(cmd, args)
	if err != nil {
		_ = cmd.Usage()
		return err
	}

	baseDir, err := resolveBaseDir(opts.baseDir)
	if err != nil {
		return err
	}

	grouping := diagnostic.Group(diagnostic.Parse(report, diagnostic.Options{
		BaseDir: baseDir,
		Code:    opts.code,
	}))
	m := typeimport.New(typeimport.MigratorConfig{
		DryRun:     opts.dryRun,
		DiffOutput: cmd.OutOrStdout(),
	}, root.sink(cmd.ErrOrStderr()))

	_, err = m.Run(cmd.Context(), grouping)
	return err
}

// readReport returns the diagnostic report named by args, or standard input.
// An interactive terminal on standard input counts as no report.
func readReport(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", errors.ErrInvalidArgument, errors.ErrMsgFailedToReadReport, err)
		}
		return string(b), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", fmt.Errorf("%w: %s: no report file given and standard input is a terminal", errors.ErrInvalidArgument, errors.ErrMsgFailedToReadReport)
		}
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", errors.ErrInvalidArgument, errors.ErrMsgFailedToReadReport, err)
	}
	return string(b), nil
}

// resolveBaseDir returns dir as an absolute path, defaulting to the project
// root around the working directory, or the working directory itself.
func resolveBaseDir(dir string) (string, error) {
	if dir != "" {
		return filepath.Abs(dir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return config.FirstNonEmpty(utils.FindProjectRoot(wd), wd), nil
}
