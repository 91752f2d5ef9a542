package domain

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/pss-index/internal/index"
)

func sampleIndex() *index.Index {
	idx := index.NewSkeleton(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	idx.Skills["py-lint"] = &index.Entry{
		Name:        "py-lint",
		DomainGates: map[string][]string{"lang_input": {"Python"}},
	}
	idx.Skills["go-lint"] = &index.Entry{
		Name:        "go-lint",
		DomainGates: map[string][]string{"input_language": {"go"}},
	}
	idx.Touch(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	return idx
}

func TestAggregate_MergesAliases(t *testing.T) {
	reg := Aggregate(sampleIndex(), "/tmp/skill-index.json")

	want := &Registry{
		Version:     RegistryVersion,
		Generated:   "2026-02-01T08:00:00Z",
		SourceIndex: "/tmp/skill-index.json",
		DomainCount: 1,
		Domains: map[string]*Domain{
			"input_language": {
				CanonicalName:   "input_language",
				Aliases:         []string{"input_language", "lang_input"},
				ExampleKeywords: []string{"go", "python"},
				SkillCount:      2,
				Skills:          []string{"go-lint", "py-lint"},
			},
		},
	}
	if diff := cmp.Diff(want, reg); diff != "" {
		t.Fatalf("registry mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_GenericFirst(t *testing.T) {
	idx := index.NewSkeleton(time.Unix(0, 0))
	idx.Skills["a"] = &index.Entry{DomainGates: map[string][]string{"target_platform": {"linux", "Generic"}}}
	idx.Skills["b"] = &index.Entry{DomainGates: map[string][]string{
		"platform_target": {"android"},
		"broken":          nil,
	}}

	reg := Aggregate(idx, "i.json")
	require.Equal(t, 1, reg.DomainCount)
	d := reg.Domains["target_platform"]
	require.NotNil(t, d)
	assert.True(t, d.HasGeneric)
	assert.Equal(t, []string{"generic", "android", "linux"}, d.ExampleKeywords)
	assert.Equal(t, []string{"platform_target", "target_platform"}, d.Aliases)
}

func TestAggregate_DoesNotMutateIndex(t *testing.T) {
	idx := sampleIndex()
	before, err := os.ReadFile(writeIndex(t, idx))
	require.NoError(t, err)

	Aggregate(idx, "x")

	after, err := os.ReadFile(writeIndex(t, idx))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestAggregate_ByteIdenticalRerun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "domain-registry.json")
	idx := sampleIndex()

	require.NoError(t, WriteRegistry(path, Aggregate(idx, "src")))
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, WriteRegistry(path, Aggregate(idx, "src")))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"input_language"}, loaded.Names())
}

func TestLoadRegistry_Missing(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "none.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func writeIndex(t *testing.T, idx *index.Index) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "skill-index.json")
	require.NoError(t, index.Write(p, idx))
	return p
}
