package merge

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"github.com/kamusis/pss-index/internal/descriptor"
	"github.com/kamusis/pss-index/internal/logger"
)

// DrainOptions controls a queue drain.
type DrainOptions struct {
	// Concurrency bounds the number of merges in flight. Merges still
	// serialise on the index lock; this only overlaps descriptor parsing and
	// lock waits. Values below 1 mean 1.
	Concurrency int
	// Attempts is the number of tries per descriptor for retryable failures.
	Attempts uint
	// RetryDelay is the base delay between attempts.
	RetryDelay time.Duration
}

// Outcome is the result of one descriptor in a drain or watch.
type Outcome struct {
	Descriptor string
	Skill      string
	Pass       descriptor.Pass
	Err        error
}

// DrainResult splits outcomes by success.
type DrainResult struct {
	Merged []Outcome
	Failed []Outcome
}

// Drain merges every descriptor sitting in queueDir. Pass-1 descriptors are
// merged before pass-2 descriptors so relational data finds its entries.
// Failed descriptors stay in the queue.
func (e *Engine) Drain(ctx context.Context, queueDir string, opts DrainOptions) (*DrainResult, error) {
	paths, err := descriptor.List(queueDir)
	if err != nil {
		return nil, err
	}

	res := &DrainResult{}
	var mu sync.Mutex
	record := func(o Outcome) {
		mu.Lock()
		defer mu.Unlock()
		if o.Err != nil {
			res.Failed = append(res.Failed, o)
		} else {
			res.Merged = append(res.Merged, o)
		}
	}

	var first, second []string
	for _, p := range paths {
		d, err := descriptor.ReadFile(p)
		if err != nil {
			record(Outcome{Descriptor: p, Err: err})
			continue
		}
		if descriptor.DetectPass(d) == descriptor.Pass2 {
			second = append(second, p)
		} else {
			first = append(first, p)
		}
	}

	for _, group := range []struct {
		pass  descriptor.Pass
		paths []string
	}{{descriptor.Pass1, first}, {descriptor.Pass2, second}} {
		if err := e.drainGroup(ctx, group.paths, group.pass, opts, record); err != nil {
			return res, err
		}
	}

	sortOutcomes(res.Merged)
	sortOutcomes(res.Failed)
	return res, nil
}

func (e *Engine) drainGroup(ctx context.Context, paths []string, pass descriptor.Pass, opts DrainOptions, record func(Outcome)) error {
	if len(paths) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))

	for _, p := range paths {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			r, err := e.mergeWithRetry(gctx, p, pass, opts)
			if err != nil {
				logger.G(ctx).WithError(err).WithField("descriptor", p).Warn("descriptor not merged")
				record(Outcome{Descriptor: p, Pass: pass, Err: err})
				return nil
			}
			record(Outcome{Descriptor: p, Skill: r.Skill, Pass: r.Pass})
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) mergeWithRetry(ctx context.Context, path string, pass descriptor.Pass, opts DrainOptions) (Result, error) {
	attempts := opts.Attempts
	if attempts == 0 {
		attempts = 1
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	return retry.DoWithData(
		func() (Result, error) { return e.Merge(ctx, path, pass) },
		retry.RetryIf(Retryable),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

func sortOutcomes(out []Outcome) {
	sort.Slice(out, func(i, j int) bool { return out[i].Descriptor < out[j].Descriptor })
}
