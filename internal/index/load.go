package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// NewSkeleton returns an empty pass-1 index stamped with now.
func NewSkeleton(now time.Time) *Index {
	return &Index{
		Version:   SchemaVersion,
		Generated: FormatTime(now),
		Method:    Method,
		Pass:      1,
		Skills:    map[string]*Entry{},
	}
}

// FormatTime renders timestamps the way the index stores them.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Load reads and decodes the index at path.
//
// A missing file is reported as ErrNotFound so callers can fall back to a
// skeleton.
func Load(path string) (*Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("cannot read index %s: %w", path, err)
	}
	return Decode(b)
}

// Decode parses an index document.
func Decode(b []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(b, &idx); err != nil {
		return nil, fmt.Errorf("invalid index JSON: %w", err)
	}
	if idx.Skills == nil {
		idx.Skills = map[string]*Entry{}
	}
	for name, e := range idx.Skills {
		if e == nil {
			idx.Skills[name] = &Entry{Name: name}
		}
	}
	return &idx, nil
}

// LoadOrSkeleton loads the index at path, or returns a fresh skeleton when no
// index exists yet.
func LoadOrSkeleton(path string, now time.Time) (*Index, error) {
	idx, err := Load(path)
	if errors.Is(err, ErrNotFound) {
		return NewSkeleton(now), nil
	}
	return idx, err
}

// Touch recomputes the declared skill count and the generation timestamp.
func (idx *Index) Touch(now time.Time) {
	idx.SkillsCount = len(idx.Skills)
	idx.Generated = FormatTime(now)
}
