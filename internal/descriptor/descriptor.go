// Package descriptor models the partial per-skill records that workers drop
// into the staging queue, and how they are classified and staged.
package descriptor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Ext is the file extension of a partial descriptor.
const Ext = ".pss"

// ErrMalformed indicates a descriptor that cannot be read or parsed. The file
// is kept so a later run can retry it.
var ErrMalformed = errors.New("malformed descriptor")

// Pass identifies which merge a descriptor feeds.
type Pass int

const (
	// PassAuto asks the merge engine to classify the descriptor itself.
	PassAuto Pass = 0
	Pass1    Pass = 1
	Pass2    Pass = 2
)

func (p Pass) String() string {
	switch p {
	case Pass1:
		return "pass 1"
	case Pass2:
		return "pass 2"
	default:
		return "auto"
	}
}

// ParsePass converts a CLI value (0, 1 or 2) into a Pass.
func ParsePass(n int) (Pass, error) {
	switch n {
	case 0:
		return PassAuto, nil
	case 1:
		return Pass1, nil
	case 2:
		return Pass2, nil
	}
	return PassAuto, fmt.Errorf("invalid pass number: %d (must be 1 or 2)", n)
}

// Descriptor is one worker's contribution for one skill.
//
// Every field is optional: a nil string pointer, slice or map means the worker
// did not send that field and the merge leaves the index value alone.
type Descriptor struct {
	Name string `json:"name"`

	Source      *string             `json:"source,omitempty"`
	Path        *string             `json:"path,omitempty"`
	Type        *string             `json:"type,omitempty"`
	Keywords    []string            `json:"keywords,omitzero"`
	Intents     []string            `json:"intents,omitzero"`
	Patterns    []string            `json:"patterns,omitzero"`
	Directories []string            `json:"directories,omitzero"`
	Description *string             `json:"description,omitempty"`
	UseCases    []string            `json:"use_cases,omitzero"`
	Category    *string             `json:"category,omitempty"`
	Platforms   []string            `json:"platforms,omitzero"`
	Frameworks  []string            `json:"frameworks,omitzero"`
	Languages   []string            `json:"languages,omitzero"`
	Domains     []string            `json:"domains,omitzero"`
	Tools       []string            `json:"tools,omitzero"`
	FileTypes   []string            `json:"file_types,omitzero"`
	DomainGates map[string][]string `json:"domain_gates,omitzero"`

	CoUsage *CoUsage `json:"co_usage,omitempty"`
	Tier    *string  `json:"tier,omitempty"`
}

// CoUsage is the relational part of a pass-2 descriptor.
type CoUsage struct {
	UsuallyWith  []string `json:"usually_with,omitzero"`
	Precedes     []string `json:"precedes,omitzero"`
	Follows      []string `json:"follows,omitzero"`
	Alternatives []string `json:"alternatives,omitzero"`
	Rationale    *string  `json:"rationale,omitempty"`

	// keys counts every member of the decoded object, known or not.
	keys int
}

// UnmarshalJSON records how many members the co_usage object carried so that
// pass detection can tell an empty object from a populated one.
func (c *CoUsage) UnmarshalJSON(b []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(b, &members); err != nil {
		return err
	}
	type plain CoUsage
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = CoUsage(p)
	c.keys = len(members)
	return nil
}

// Empty reports whether the object had no members at all.
func (c *CoUsage) Empty() bool {
	if c == nil {
		return true
	}
	if c.keys > 0 {
		return false
	}
	return c.UsuallyWith == nil && c.Precedes == nil && c.Follows == nil &&
		c.Alternatives == nil && c.Rationale == nil
}

// DetectPass classifies a descriptor: a non-empty co_usage object means
// pass 2, anything else pass 1.
func DetectPass(d *Descriptor) Pass {
	if d != nil && !d.CoUsage.Empty() {
		return Pass2
	}
	return Pass1
}

// Parse decodes a descriptor document.
func Parse(b []byte) (*Descriptor, error) {
	b = bytes.TrimPrefix(b, []byte("\ufeff"))
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	var d Descriptor
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return &d, nil
}

// ReadFile reads and parses the descriptor at path.
func ReadFile(path string) (*Descriptor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %w", ErrMalformed, path, err)
	}
	d, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
