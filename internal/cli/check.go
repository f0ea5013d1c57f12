package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mermaid/pkg/batch"
	"github.com/matzehuels/mermaid/pkg/flow"
)

// checkOpts holds the command-line flags for the check command.
type checkOpts struct {
	workers     int  // worker count for multi-file runs
	lenient     bool // downgrade unresolved references to warnings
	strict      bool // any warning fails the command
	interactive bool // browse diagnostics in a TUI
}

// checkCommand creates the check command. It validates diagram files
// without producing output, reporting errors and warnings per file.
func (c *CLI) checkCommand() *cobra.Command {
	opts := checkOpts{workers: batch.DefaultWorkers}
	if c.Config.Parse.Lenient {
		opts.lenient = true
	}
	if c.Config.Parse.Workers > 0 {
		opts.workers = c.Config.Parse.Workers
	}

	cmd := &cobra.Command{
		Use:   "check <file...>",
		Short: "Validate diagram files and report diagnostics",
		Long: `Validate mermaid flowchart files without writing output.

Each file is parsed and its errors and warnings are printed. The command
exits non-zero when any file fails to parse.

Examples:
  mermaid check flow.mmd
  mermaid check docs/*.mmd --lenient-refs
  mermaid check docs/*.mmd -i          # browse diagnostics interactively`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd.Context(), &opts, args)
		},
	}

	cmd.Flags().IntVar(&opts.workers, "workers", opts.workers, "parallel workers for multiple files")
	cmd.Flags().BoolVar(&opts.lenient, "lenient-refs", opts.lenient, "treat unresolved style/class/click references as warnings")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "treat warnings as failures")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse diagnostics in an interactive list")

	return cmd
}

func (c *CLI) runCheck(ctx context.Context, opts *checkOpts, args []string) error {
	items, err := readItems(args)
	if err != nil {
		return err
	}

	batchOpts := batch.Options{
		Workers: opts.workers,
		Logger:  c.Logger,
	}
	if opts.lenient {
		batchOpts.ParseOptions = []flow.Option{flow.WithLenientReferences()}
	}

	prog := newProgress(c.Logger)
	outcomes := batch.Run(ctx, items, batchOpts)
	prog.done(fmt.Sprintf("Checked %d files", len(items)))

	if opts.interactive {
		return runOutcomeBrowser(outcomes)
	}

	failed := len(batch.Failed(outcomes))
	warned := 0
	for _, out := range outcomes {
		switch {
		case out.Err != nil:
			printError("%s: %v", out.Name, out.Err)
		case len(out.Result.Warnings) > 0:
			warned++
			printWarning("%s: %d warnings", out.Name, len(out.Result.Warnings))
			for _, w := range out.Result.Warnings {
				printDetail("%s", w.String())
			}
		default:
			printSuccess("%s", out.Name)
			printStats(len(out.Result.Diagram.Nodes), len(out.Result.Diagram.Edges), false)
		}
	}

	printNewline()
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(items))
	}
	if opts.strict && warned > 0 {
		return fmt.Errorf("%d files with warnings (strict mode)", warned)
	}
	if warned > 0 {
		printInfo("%d files valid, %d with warnings", len(items), warned)
	} else {
		printSuccess("All %d files valid", len(items))
	}
	return nil
}
