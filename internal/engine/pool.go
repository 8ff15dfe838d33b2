package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ancients-collective/vipscan/internal/types"
)

// DefaultConcurrency is used when a non-positive cap is given.
const DefaultConcurrency = 4

// CheckAll checks paths concurrently with at most concurrency workers.
// Outcomes are returned in input order.
func (c *Checker) CheckAll(ctx context.Context, paths []string, concurrency int) ([]types.Outcome, error) {
	targets := make([]types.ScanTarget, len(paths))
	for i, p := range paths {
		targets[i] = c.Target(p)
	}
	return c.CheckTargets(ctx, targets, concurrency)
}

// CheckTargets checks classified targets concurrently with at most
// concurrency workers. Outcomes are returned in input order. Per-target
// failures (store writes, cancellation) are joined into the returned error
// while the remaining targets still complete.
func (c *Checker) CheckTargets(ctx context.Context, targets []types.ScanTarget, concurrency int) ([]types.Outcome, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency > len(targets) {
		concurrency = len(targets)
	}

	outcomes := make([]types.Outcome, len(targets))
	errs := make([]error, len(targets))

	jobCh := make(chan int, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				if err := ctx.Err(); err != nil {
					outcomes[idx] = types.Outcome{Target: targets[idx]}
					errs[idx] = err
					continue
				}
				outcome, err := c.CheckTarget(ctx, targets[idx])
				outcomes[idx] = outcome
				if err != nil {
					errs[idx] = fmt.Errorf("%s %s: %w", targets[idx].Category, targets[idx].Identity, err)
				}
			}
		}()
	}

	for i := range targets {
		jobCh <- i
	}
	close(jobCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, errors.Join(errs...)
}
