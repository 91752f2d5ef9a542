package merge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/pss-index/internal/descriptor"
)

func startWatch(t *testing.T, f *fixture) (<-chan Outcome, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	outcomes := make(chan Outcome, 32)
	done := make(chan error, 1)
	go func() {
		done <- f.engine.Watch(ctx, f.queue, WatchOptions{
			Debounce:  20 * time.Millisecond,
			OnOutcome: func(o Outcome) { outcomes <- o },
		})
	}()
	return outcomes, func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watch did not stop")
		}
	}
}

func next(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for merge outcome")
	}
	return Outcome{}
}

func TestWatch_MergesStagedDescriptors(t *testing.T) {
	f := newFixture(t)
	f.put(t, "first.pss", `{"name":"first"}`)

	outcomes, stop := startWatch(t, f)
	defer stop()

	o := next(t, outcomes)
	require.NoError(t, o.Err)
	assert.Equal(t, "first", o.Skill)

	_, err := descriptor.Stage(f.queue, &descriptor.Descriptor{Name: "second", Keywords: []string{"k"}})
	require.NoError(t, err)
	o = next(t, outcomes)
	require.NoError(t, o.Err)
	assert.Equal(t, "second", o.Skill)

	idx := f.load(t)
	assert.Equal(t, 2, idx.SkillsCount)
}

func TestWatch_ParksPass2UntilPass1(t *testing.T) {
	f := newFixture(t)
	f.put(t, "rel.pss", `{"name":"late","co_usage":{"alternatives":["other"]},"tier":"specialized"}`)

	outcomes, stop := startWatch(t, f)
	defer stop()

	o := next(t, outcomes)
	require.ErrorIs(t, o.Err, ErrUnknownSkill)

	_, err := descriptor.Stage(f.queue, &descriptor.Descriptor{Name: "late", Source: str("user")})
	require.NoError(t, err)

	o = next(t, outcomes)
	require.NoError(t, o.Err)
	assert.Equal(t, descriptor.Pass1, o.Pass)
	o = next(t, outcomes)
	require.NoError(t, o.Err)
	assert.Equal(t, descriptor.Pass2, o.Pass)

	idx := f.load(t)
	assert.Equal(t, 2, idx.Pass)
	assert.Equal(t, "specialized", idx.Skills["late"].Tier)
	left, err := descriptor.List(f.queue)
	require.NoError(t, err)
	assert.Empty(t, left)
}
