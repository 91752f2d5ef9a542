package validate

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/pss-index/internal/domain"
	"github.com/kamusis/pss-index/internal/index"
)

func registryFixture(t *testing.T) (registry, idxData []byte) {
	t.Helper()
	idx := index.NewSkeleton(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	idx.Skills["a"] = &index.Entry{DomainGates: map[string][]string{"target_language": {"go", "generic"}}}
	idx.Skills["b"] = &index.Entry{DomainGates: map[string][]string{"lang_target": {"rust"}}}
	idx.Skills["c"] = &index.Entry{}
	idx.Touch(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	var err error
	idxData, err = json.Marshal(idx)
	require.NoError(t, err)
	registry, err = json.Marshal(domain.Aggregate(idx, "skill-index.json"))
	require.NoError(t, err)
	return registry, idxData
}

func TestValidateRegistry_Aggregated(t *testing.T) {
	reg, idx := registryFixture(t)
	r := newReport()
	ValidateRegistry(reg, idx, r)

	assert.True(t, r.Valid(), "errors: %v", r.Errors)
	assert.Empty(t, r.Warnings)
	require.NotNil(t, r.Stats.Registry)
	assert.Equal(t, 1, r.Stats.Registry.Domains)
	assert.Equal(t, 2, r.Stats.Registry.SkillsReferenced)
	assert.Equal(t, 2, r.Stats.Registry.SkillsWithGates)
}

func TestValidateRegistry_Problems(t *testing.T) {
	_, idx := registryFixture(t)
	reg := []byte(`{
		"version": "0.9",
		"generated": "x",
		"domain_count": 3,
		"domains": {
			"target_language": {
				"canonical_name": "language_target",
				"aliases": [],
				"example_keywords": ["Go", 3],
				"has_generic": true,
				"skill_count": 5,
				"skills": ["a", "ghost"]
			},
			"broken": "nope"
		}
	}`)
	r := newReport()
	ValidateRegistry(reg, idx, r)

	assert.False(t, r.Valid())
	assert.Contains(t, r.Errors, `Domain registry version must be '1.0', got: "0.9"`)
	assert.Contains(t, r.Errors, "Domain 'target_language' aliases must be a non-empty array")
	assert.Contains(t, r.Errors, "Domain 'target_language' keyword must be string, got: 3")
	assert.Contains(t, r.Errors, "Domain 'broken' entry must be an object")
	assert.Contains(t, r.Warnings, "Domain registry domain_count mismatch: declared 3, actual 2")
	assert.Contains(t, r.Warnings, `Domain 'target_language' canonical_name mismatch: key is 'target_language' but field says "language_target"`)
	assert.Contains(t, r.Warnings, "Domain 'target_language' keyword not lowercase: 'Go'")
	assert.Contains(t, r.Warnings, "Domain 'target_language' has_generic flag (true) does not match presence of 'generic' in keywords (false)")
	assert.Contains(t, r.Warnings, "Domain 'target_language' references unknown skill: 'ghost'")
	assert.Contains(t, r.Warnings, "Domain 'target_language' skill_count (5) != len(skills) (2)")
	assert.Contains(t, r.Warnings, `1 skills have domain_gates but are not in registry: ["b"]`)
}

func TestValidateRegistry_MissingDomains(t *testing.T) {
	r := newReport()
	ValidateRegistry([]byte(`{"version":"1.0"}`), nil, r)
	assert.Contains(t, r.Errors, "Domain registry missing 'generated' field")
	assert.Contains(t, r.Errors, "Domain registry missing 'domains' field")
}

func TestValidateRegistryFile_Missing(t *testing.T) {
	r := newReport()
	ValidateRegistryFile(filepath.Join(t.TempDir(), "none.json"), nil, r)
	assert.True(t, r.Valid())
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "Domain registry not found")
}
