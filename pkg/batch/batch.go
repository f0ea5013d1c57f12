// Package batch parses many diagram sources concurrently through a
// fixed-size worker pool. Outcomes are reported per item so one malformed
// diagram never aborts the rest of the batch.
package batch

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mermaid/pkg/flow"
	"github.com/matzehuels/mermaid/pkg/mermaid"
)

// DefaultWorkers is the pool size used when Options.Workers is zero.
const DefaultWorkers = 8

// Item is one diagram source to parse, named for reporting (usually the
// file path).
type Item struct {
	Name   string
	Source string
}

// Outcome is the per-item result. Exactly one of Result and Err is set,
// except on context cancellation where Err carries the context error.
type Outcome struct {
	Name   string
	Result *mermaid.Result
	Err    error
}

// Options configures a batch run.
type Options struct {
	// Workers is the pool size; zero means DefaultWorkers.
	Workers int

	// ParseOptions are forwarded to every parse call.
	ParseOptions []flow.Option

	// Logger receives per-item failures as they happen. Nil discards.
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Run parses all items and returns their outcomes in input order. Workers
// stop picking up new items once ctx is cancelled; already-started parses
// run to completion.
func Run(ctx context.Context, items []Item, opts Options) []Outcome {
	opts = opts.withDefaults()

	outcomes := make([]Outcome, len(items))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = parseOne(ctx, items[i], opts)
			}
		}()
	}

	for i := range items {
		select {
		case jobs <- i:
		case <-ctx.Done():
			outcomes[i] = Outcome{Name: items[i].Name, Err: ctx.Err()}
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func parseOne(ctx context.Context, item Item, opts Options) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Name: item.Name, Err: err}
	}

	res, err := mermaid.Parse(item.Source, opts.ParseOptions...)
	if err != nil {
		opts.Logger.Warn("parse failed", "item", item.Name, "err", err)
		return Outcome{Name: item.Name, Err: err}
	}
	return Outcome{Name: item.Name, Result: res}
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
