package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll executes one run of p per input, at most parallel at a time (no
// limit when parallel <= 0). Runs are independent: a failed run does not
// stop the others. Results are returned in input order.
func RunAll[S any](ctx context.Context, p *Processor[S], inputs []any, parallel int) []Result[any] {
	results := make([]Result[any], len(inputs))
	var g errgroup.Group
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, input := range inputs {
		g.Go(func() error {
			out, err := p.Execute(ctx, input)
			results[i] = FromPair(out, err)
			return nil
		})
	}
	_ = g.Wait() // errors are carried in results
	return results
}
