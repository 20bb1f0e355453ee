package graph

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultFanOutLimit caps how many item invocations run at once.
	DefaultFanOutLimit = 3

	// DefaultItemTimeout bounds a single item invocation.
	DefaultItemTimeout = 60 * time.Second

	// DefaultSentinel is recorded for items whose invocation failed or
	// timed out, so downstream nodes see full coverage of the item list.
	DefaultSentinel = "insufficient evidence"
)

// FanOutOptions configures RunPerItem. Zero values fall back to the
// package defaults.
type FanOutOptions struct {
	// Limit is the maximum number of concurrent item invocations.
	Limit int

	// ItemTimeout bounds each individual invocation. An item that exceeds
	// it gets the sentinel; the other items are unaffected.
	ItemTimeout time.Duration

	// Sentinel is the result recorded for failed or timed-out items.
	Sentinel string

	// Metrics, when set, tracks in-flight items and item failures.
	Metrics *PrometheusMetrics
}

// ItemError records a single item's failure during fan-out. The item still
// appears in the result mapping with the sentinel value.
type ItemError struct {
	Item string
	Err  error
}

// RunPerItem invokes fn once per item with bounded concurrency and a
// per-item timeout, collecting results into a mapping keyed by item.
//
// Every item appears in the returned mapping exactly once: successful
// invocations map to their result, failed or timed-out ones to the
// sentinel. One item's failure never aborts the others, and there is no
// early exit on the first success. Invocation order within the limit is
// not defined; results are keyed, not ordered.
//
// The only aborting condition is cancellation of ctx itself, in which case
// partial results are discarded and ctx.Err is returned.
func RunPerItem[S any](ctx context.Context, state S, items []string, fn func(ctx context.Context, state S, item string) (string, error), opts FanOutOptions) (map[string]string, []ItemError, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultFanOutLimit
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = DefaultItemTimeout
	}
	if opts.Sentinel == "" {
		opts.Sentinel = DefaultSentinel
	}

	results := make(map[string]string, len(items))
	var itemErrs []ItemError
	var mu sync.Mutex

	sem := make(chan struct{}, opts.Limit)
	var wg sync.WaitGroup

	for _, item := range items {
		wg.Add(1)
		go func(item string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			if opts.Metrics != nil {
				opts.Metrics.UpdateInflightItems(1)
				defer opts.Metrics.UpdateInflightItems(-1)
			}

			ictx, cancel := context.WithTimeout(ctx, opts.ItemTimeout)
			defer cancel()

			out, err := fn(ictx, state, item)
			if err == nil && ictx.Err() != nil {
				err = ictx.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[item] = opts.Sentinel
				itemErrs = append(itemErrs, ItemError{Item: item, Err: err})
				if opts.Metrics != nil {
					opts.Metrics.IncrementItemFailures(reasonFor(err))
				}
				return
			}
			results[item] = out
		}(item)
	}

	wg.Wait()

	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}
	return results, itemErrs, nil
}

func reasonFor(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}
