package index

import "encoding/json"

// SchemaVersion is the index document version written by this tool.
const SchemaVersion = "3.0"

// FileName is the default base name of the index file.
const FileName = "skill-index.json"

// Method records how the index content was produced.
const Method = "ai-analyzed"

// Index is the shared skill index consumed by the suggester.
//
// Pass is monotonic: 1 means every entry may carry only factual fields, 2 means
// at least one relational (co-usage) merge has been applied.
type Index struct {
	Version     string            `json:"version"`
	Generated   string            `json:"generated"`
	Method      string            `json:"method,omitempty"`
	Pass        int               `json:"pass"`
	SkillsCount int               `json:"skills_count"`
	Skills      map[string]*Entry `json:"skills"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Entry is one skill's accumulated knowledge.
//
// Slice and map fields use omitzero so an explicitly empty list written by a
// worker survives a round-trip while an absent one stays absent.
type Entry struct {
	Name string `json:"name,omitzero"`

	// Pass 1 (factual).
	Source      string              `json:"source,omitzero"`
	Path        string              `json:"path,omitzero"`
	Type        string              `json:"type,omitzero"`
	Keywords    []string            `json:"keywords,omitzero"`
	Intents     []string            `json:"intents,omitzero"`
	Patterns    []string            `json:"patterns,omitzero"`
	Directories []string            `json:"directories,omitzero"`
	Description string              `json:"description,omitzero"`
	UseCases    []string            `json:"use_cases,omitzero"`
	Category    string              `json:"category,omitzero"`
	Platforms   []string            `json:"platforms,omitzero"`
	Frameworks  []string            `json:"frameworks,omitzero"`
	Languages   []string            `json:"languages,omitzero"`
	Domains     []string            `json:"domains,omitzero"`
	Tools       []string            `json:"tools,omitzero"`
	FileTypes   []string            `json:"file_types,omitzero"`
	DomainGates map[string][]string `json:"domain_gates,omitzero"`

	// Pass 2 (relational).
	CoUsage *CoUsage `json:"co_usage,omitzero"`
	Tier    string   `json:"tier,omitzero"`

	// Extra holds members not listed above; they are written back as read.
	Extra map[string]json.RawMessage `json:"-"`
}

// CoUsage lists the skills an entry is typically combined with.
type CoUsage struct {
	UsuallyWith  []string `json:"usually_with,omitzero"`
	Precedes     []string `json:"precedes,omitzero"`
	Follows      []string `json:"follows,omitzero"`
	Alternatives []string `json:"alternatives,omitzero"`
	Rationale    string   `json:"rationale,omitzero"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Names returns the skill names in the index.
func (idx *Index) Names() []string {
	out := make([]string, 0, len(idx.Skills))
	for name := range idx.Skills {
		out = append(out, name)
	}
	return out
}
