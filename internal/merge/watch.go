package merge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kamusis/pss-index/internal/descriptor"
	"github.com/kamusis/pss-index/internal/logger"
)

// DefaultDebounce is how long a descriptor must stay quiet before a watch
// merges it.
const DefaultDebounce = 250 * time.Millisecond

// WatchOptions controls Watch.
type WatchOptions struct {
	Debounce time.Duration
	Drain    DrainOptions
	// OnOutcome, when set, is called from the watch goroutine for every
	// merge attempt.
	OnOutcome func(Outcome)
}

// Watch merges descriptors as they land in queueDir until ctx is done.
//
// Descriptors already queued are drained first. A pass-2 descriptor whose
// skill has no entry yet is parked and retried after every successful merge,
// so relational data can arrive before its pass-1 partner.
func (e *Engine) Watch(ctx context.Context, queueDir string, opts WatchOptions) error {
	log := logger.G(ctx).WithField("queue", queueDir)
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	report := func(o Outcome) {
		if opts.OnOutcome != nil {
			opts.OnOutcome(o)
		}
	}

	if err := os.MkdirAll(queueDir, 0o755); err != nil {
		return fmt.Errorf("cannot create queue dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(queueDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", queueDir, err)
	}

	parked := map[string]struct{}{}
	mergeOne := func(path string) bool {
		r, err := e.mergeWithRetry(ctx, path, descriptor.PassAuto, opts.Drain)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return false
			}
			pass := descriptor.PassAuto
			if errors.Is(err, ErrUnknownSkill) {
				pass = descriptor.Pass2
				parked[path] = struct{}{}
				log.WithField("descriptor", path).Debug("pass-2 descriptor parked until its skill is indexed")
			} else {
				log.WithError(err).WithField("descriptor", path).Warn("descriptor not merged")
			}
			report(Outcome{Descriptor: path, Pass: pass, Err: err})
			return false
		}
		delete(parked, path)
		report(Outcome{Descriptor: path, Skill: r.Skill, Pass: r.Pass})
		return true
	}
	retryParked := func() {
		for progress := true; progress && len(parked) > 0; {
			progress = false
			paths := make([]string, 0, len(parked))
			for p := range parked {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				if _, err := os.Stat(p); err != nil {
					delete(parked, p)
					continue
				}
				delete(parked, p)
				if mergeOne(p) {
					progress = true
				}
			}
		}
	}

	res, err := e.Drain(ctx, queueDir, opts.Drain)
	if err != nil {
		return err
	}
	for _, o := range res.Merged {
		report(o)
	}
	for _, o := range res.Failed {
		if errors.Is(o.Err, ErrUnknownSkill) {
			parked[o.Descriptor] = struct{}{}
		}
		report(o)
	}
	log.WithField("merged", len(res.Merged)).WithField("failed", len(res.Failed)).Info("initial drain complete")

	ready := make(chan string)
	timers := map[string]*time.Timer{}
	var wg sync.WaitGroup
	schedule := func(path string) {
		if t, ok := timers[path]; ok && t.Stop() {
			t.Reset(debounce)
			return
		}
		wg.Add(1)
		timers[path] = time.AfterFunc(debounce, func() {
			defer wg.Done()
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}
	defer func() {
		for _, t := range timers {
			if t.Stop() {
				wg.Done()
			}
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !descriptor.IsDescriptor(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				schedule(ev.Name)
			}
		case path := <-ready:
			delete(timers, path)
			if mergeOne(path) {
				retryParked()
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(werr).Warn("file watcher error")
		}
	}
}
