package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mermaid/pkg/batch"
	"github.com/matzehuels/mermaid/pkg/cache"
	"github.com/matzehuels/mermaid/pkg/export"
	"github.com/matzehuels/mermaid/pkg/flow"
	"github.com/matzehuels/mermaid/pkg/mermaid"
)

// Output formats supported by the parse command.
const (
	formatJSON = "json"
	formatDOT  = "dot"
)

// parseOpts holds the command-line flags for the parse command.
type parseOpts struct {
	format  string // output format (json or dot)
	output  string // output file or directory (stdout if empty)
	workers int    // worker count for multi-file runs
	lenient bool   // downgrade unresolved references to warnings
	strict  bool   // any warning fails the command
	noCache bool   // disable the result cache
	refresh bool   // re-parse even on a cache hit
}

// parseOptions converts the flags into pipeline options.
func (o *parseOpts) parseOptions() []flow.Option {
	if o.lenient {
		return []flow.Option{flow.WithLenientReferences()}
	}
	return nil
}

// parseCommand creates the parse command. It reads one or more diagram
// files (or stdin via "-") and writes the structured result as JSON or
// Graphviz DOT.
func (c *CLI) parseCommand() *cobra.Command {
	opts := parseOpts{format: formatJSON, workers: batch.DefaultWorkers}
	if c.Config.Parse.Lenient {
		opts.lenient = true
	}
	if c.Config.Parse.Workers > 0 {
		opts.workers = c.Config.Parse.Workers
	}

	cmd := &cobra.Command{
		Use:   "parse <file...>",
		Short: "Parse diagram files into structured output",
		Long: `Parse mermaid flowchart files into structured diagram output.

Results are cached by source hash, so re-parsing an unchanged file is free.
Use "-" to read a single diagram from stdin.

Examples:
  mermaid parse flow.mmd                      # JSON to stdout
  mermaid parse flow.mmd -f dot               # Graphviz DOT to stdout
  mermaid parse flow.mmd -o flow.json         # Write to a file
  mermaid parse a.mmd b.mmd -o out/           # One output per input
  cat flow.mmd | mermaid parse -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runParse(cmd.Context(), &opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format (json, dot)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, or directory for multiple inputs (stdout if empty)")
	cmd.Flags().IntVar(&opts.workers, "workers", opts.workers, "parallel workers for multiple files")
	cmd.Flags().BoolVar(&opts.lenient, "lenient-refs", opts.lenient, "treat unresolved style/class/click references as warnings")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "treat warnings as failures")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-parse even when a cached result exists")

	return cmd
}

// runParse parses all inputs, serving unchanged sources from the cache,
// and writes one output per input.
func (c *CLI) runParse(ctx context.Context, opts *parseOpts, args []string) error {
	if opts.format != formatJSON && opts.format != formatDOT {
		return fmt.Errorf("unknown format %q (available: %s, %s)", opts.format, formatJSON, formatDOT)
	}

	items, err := readItems(args)
	if err != nil {
		return err
	}

	resultCache, err := c.newCache(opts.noCache)
	if err != nil {
		return err
	}
	defer resultCache.Close()
	keyer := cache.NewDefaultKeyer()

	// Serve unchanged sources from the cache, batch-parse the rest.
	results := make([]*mermaid.Result, len(items))
	cachedCount := 0
	var missing []int
	for i, item := range items {
		if opts.refresh {
			missing = append(missing, i)
			continue
		}
		key := keyer.ParseKey(item.Source, opts.lenient)
		data, hit, err := resultCache.Get(ctx, key)
		if err != nil || !hit {
			missing = append(missing, i)
			continue
		}
		var res mermaid.Result
		if err := json.Unmarshal(data, &res); err != nil {
			missing = append(missing, i)
			continue
		}
		results[i] = &res
		cachedCount++
	}

	prog := newProgress(c.Logger)
	toParse := make([]batch.Item, len(missing))
	for j, i := range missing {
		toParse[j] = items[i]
	}
	outcomes := batch.Run(ctx, toParse, batch.Options{
		Workers:      opts.workers,
		ParseOptions: opts.parseOptions(),
		Logger:       c.Logger,
	})

	var failed int
	for j, out := range outcomes {
		i := missing[j]
		if out.Err != nil {
			failed++
			c.Logger.Error("parse failed", "file", out.Name, "err", out.Err)
			continue
		}
		results[i] = out.Result
		if data, err := json.Marshal(out.Result); err == nil {
			key := keyer.ParseKey(items[i].Source, opts.lenient)
			if err := resultCache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
				c.Logger.Warn("cache set failed", "file", out.Name, "err", err)
			}
		}
	}
	prog.done(fmt.Sprintf("Parsed %d diagrams", len(items)-failed))

	if err := writeResults(items, results, opts); err != nil {
		return err
	}

	// Warnings go through the logger so piped stdout stays clean.
	warned := 0
	for i, res := range results {
		if res == nil {
			continue
		}
		warned += len(res.Warnings)
		for _, w := range res.Warnings {
			c.Logger.Warn(w.String(), "file", items[i].Name)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(items))
	}
	if opts.strict && warned > 0 {
		return fmt.Errorf("%d warnings (strict mode)", warned)
	}
	if opts.output != "" {
		printSuccess("Parsed %d diagrams", len(items))
		printStats(totalNodes(results), totalEdges(results), cachedCount == len(items))
	}
	return nil
}

// =============================================================================
// Input / Output
// =============================================================================

// readItems loads each argument into a batch item. The "-" argument reads
// a single diagram from stdin.
func readItems(args []string) ([]batch.Item, error) {
	items := make([]batch.Item, 0, len(args))
	for _, arg := range args {
		if arg == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			items = append(items, batch.Item{Name: "stdin", Source: string(data)})
			continue
		}
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		items = append(items, batch.Item{Name: arg, Source: string(data)})
	}
	return items, nil
}

// encodeResult renders a parse result in the requested format.
func encodeResult(res *mermaid.Result, format string) ([]byte, error) {
	switch format {
	case formatDOT:
		return []byte(export.ToDOT(res.Diagram)), nil
	default:
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

// writeResults writes one output per successfully parsed input. A single
// input writes to opts.output directly; multiple inputs treat it as a
// directory. An empty output means stdout.
func writeResults(items []batch.Item, results []*mermaid.Result, opts *parseOpts) error {
	for i, res := range results {
		if res == nil {
			continue
		}
		data, err := encodeResult(res, opts.format)
		if err != nil {
			return err
		}

		path := ""
		if opts.output != "" {
			path = opts.output
			if len(items) > 1 {
				path = filepath.Join(opts.output, outputName(items[i].Name, opts.format))
			}
		}
		if err := writeOutput(path, data); err != nil {
			return err
		}
		if path != "" {
			printFile(path)
		}
	}
	return nil
}

// outputName derives an output filename from an input path, swapping the
// extension for the format's.
func outputName(input, format string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "." + format
}

// writeOutput writes data to path, creating parent directories as needed.
// An empty path writes to stdout.
func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(data)
	return err
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

// =============================================================================
// Stats
// =============================================================================

func totalNodes(results []*mermaid.Result) int {
	n := 0
	for _, res := range results {
		if res != nil && res.Diagram != nil {
			n += len(res.Diagram.Nodes)
		}
	}
	return n
}

func totalEdges(results []*mermaid.Result) int {
	n := 0
	for _, res := range results {
		if res != nil && res.Diagram != nil {
			n += len(res.Diagram.Edges)
		}
	}
	return n
}
