// Package merge folds partial skill descriptors into the shared skill index.
//
// Every writer goes through Engine.Merge, which serialises on a dedicated lock
// file, rewrites the index atomically and only then deletes the consumed
// descriptor.
package merge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kamusis/pss-index/internal/descriptor"
	"github.com/kamusis/pss-index/internal/index"
	"github.com/kamusis/pss-index/internal/logger"
)

// Engine merges descriptors into one index file.
type Engine struct {
	IndexPath   string
	LockPath    string
	LockTimeout time.Duration

	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLockTimeout bounds lock acquisition. Zero waits indefinitely.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Engine) { e.LockTimeout = d }
}

// WithClock overrides the clock used for the generation timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an Engine for the index at indexPath guarded by lockPath.
func NewEngine(indexPath, lockPath string, opts ...Option) *Engine {
	e := &Engine{IndexPath: indexPath, LockPath: lockPath, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result describes a successful merge.
type Result struct {
	Skill      string
	Pass       descriptor.Pass
	Descriptor string
}

// Merge consumes the descriptor at path. pass may be PassAuto.
//
// On success the index holds the merged data and the descriptor is gone. On
// failure the previous index generation is intact and the descriptor is kept
// for a retry.
func (e *Engine) Merge(ctx context.Context, path string, pass descriptor.Pass) (Result, error) {
	log := logger.G(ctx).WithField("descriptor", path)

	d, err := descriptor.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	if pass == descriptor.PassAuto {
		pass = descriptor.DetectPass(d)
	}

	lock, err := AcquireLock(ctx, e.LockPath, e.LockTimeout)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			log.WithError(rerr).Warn("cannot release index lock")
		}
	}()

	name, err := e.apply(d, pass)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		// Data is already in the index; the sweeper collects the leftover.
		log.WithError(err).Warn("merged descriptor could not be removed")
	}

	log.WithField("skill", name).WithField("pass", int(pass)).Debug("descriptor merged")
	return Result{Skill: name, Pass: pass, Descriptor: path}, nil
}

// apply runs steps 4-7 of a merge; the caller holds the lock.
func (e *Engine) apply(d *descriptor.Descriptor, pass descriptor.Pass) (string, error) {
	now := e.now()
	idx, err := index.LoadOrSkeleton(e.IndexPath, now)
	if err != nil {
		return "", err
	}
	name, err := Apply(idx, d, pass)
	if err != nil {
		return "", err
	}
	idx.Touch(now)
	if err := index.Write(e.IndexPath, idx); err != nil {
		return "", err
	}
	return name, nil
}
