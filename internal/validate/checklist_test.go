package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChecklist(t *testing.T) {
	in := `# Skill checklist

## Batch 1
- [ ] docker-compose (source: user, path: /home/u/.claude/skills/docker-compose/SKILL.md)
- [x] go-lint (source: plugin, path: /p/SKILL.md)
  - [x]   indented-skill   (source: project)
- [ ] bare-name
- [ ]
- not a checkbox
* [ ] wrong-bullet
`
	names, err := ParseChecklist(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"docker-compose", "go-lint", "indented-skill", "bare-name"}, names)
}

func TestLoadChecklist(t *testing.T) {
	dir := t.TempDir()

	names, err := LoadChecklist(filepath.Join(dir, "missing.md"))
	require.NoError(t, err)
	assert.Nil(t, names)

	p := filepath.Join(dir, "skill-checklist.md")
	require.NoError(t, os.WriteFile(p, []byte("- [ ] a (source: user)\n- [x] b\n"), 0o644))
	names, err = LoadChecklist(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}
