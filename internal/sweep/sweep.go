// Package sweep deletes partial descriptors orphaned by crashed workers.
//
// Staleness is decided by location and extension only: a successful merge
// always deletes its own descriptor, so anything left behind is presumed dead.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"

	"github.com/kamusis/pss-index/internal/descriptor"
	"github.com/kamusis/pss-index/internal/logger"
)

// QueueLabel labels the staging queue in results.
const QueueLabel = "queue"

// errDeferred reports a file the OS will delete at the next reboot.
var errDeferred = errors.New("deletion deferred until reboot")

// remove is swapped in tests.
var remove = removeFile

// Location is a skill-bearing directory searched recursively.
type Location struct {
	Label string
	Dir   string
}

// Options controls a sweep.
type Options struct {
	// DryRun reports what would be deleted without deleting.
	DryRun bool
}

// Group is the set of stale descriptors found in one location.
type Group struct {
	Label   string
	Dir     string
	Files   []string
	Removed int
	// Deferred counts files still on disk that the OS will delete at the
	// next reboot. They are not in Removed.
	Deferred int
}

// Name renders the group as "label:dir".
func (g Group) Name() string {
	return g.Label + ":" + g.Dir
}

// Result summarises a sweep.
type Result struct {
	Groups   []Group
	Found    int
	Removed  int
	Deferred int
	DryRun   bool
}

// Collect lists the stale descriptors under each location (recursively) and
// directly inside queueDir. Nested files under the queue are not touched.
// Locations that do not exist are skipped; empty groups are omitted.
func Collect(locations []Location, queueDir string) []Group {
	seen := map[string]struct{}{}
	var groups []Group

	add := func(label, dir, pattern string) {
		files := glob(dir, pattern)
		var kept []string
		for _, f := range files {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			kept = append(kept, f)
		}
		if len(kept) > 0 {
			groups = append(groups, Group{Label: label, Dir: dir, Files: kept})
		}
	}

	for _, loc := range locations {
		add(loc.Label, loc.Dir, "**/*"+descriptor.Ext)
	}
	if queueDir != "" {
		add(QueueLabel, queueDir, "*"+descriptor.Ext)
	}
	return groups
}

// Sweep deletes every stale descriptor found by Collect. Deletion failures
// are collected and returned together; the result still counts what was
// removed. Deferred deletions are counted apart and are not failures.
func Sweep(ctx context.Context, locations []Location, queueDir string, opts Options) (*Result, error) {
	log := logger.G(ctx)
	res := &Result{Groups: Collect(locations, queueDir), DryRun: opts.DryRun}

	var errs *multierror.Error
	for i := range res.Groups {
		g := &res.Groups[i]
		res.Found += len(g.Files)
		if opts.DryRun {
			continue
		}
		for _, f := range g.Files {
			err := remove(ctx, f)
			if errors.Is(err, errDeferred) {
				g.Deferred++
				res.Deferred++
				log.WithField("file", f).Warn("stale descriptor locked, deletion deferred until reboot")
				continue
			}
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("cannot delete %s: %w", f, err))
				continue
			}
			g.Removed++
			res.Removed++
			log.WithField("file", f).Debug("stale descriptor deleted")
		}
	}
	log.WithField("found", res.Found).WithField("removed", res.Removed).
		WithField("deferred", res.Deferred).Debug("sweep finished")
	return res, errs.ErrorOrNil()
}

func glob(dir, pattern string) []string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(dir, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out
}
