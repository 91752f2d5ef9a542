package domain

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kamusis/pss-index/internal/index"
)

// RegistryVersion is the registry document version written by Aggregate.
const RegistryVersion = "1.0"

// GenericKeyword marks a gate that applies to every value of its domain.
const GenericKeyword = "generic"

// Registry is the canonical domain table read by the suggester.
type Registry struct {
	Version     string             `json:"version"`
	Generated   string             `json:"generated"`
	SourceIndex string             `json:"source_index"`
	DomainCount int                `json:"domain_count"`
	Domains     map[string]*Domain `json:"domains"`
}

// Domain is one canonical domain and what the skills said about it.
type Domain struct {
	CanonicalName   string   `json:"canonical_name"`
	Aliases         []string `json:"aliases"`
	ExampleKeywords []string `json:"example_keywords"`
	HasGeneric      bool     `json:"has_generic"`
	SkillCount      int      `json:"skill_count"`
	Skills          []string `json:"skills"`
}

// LoadRegistry reads a registry file.
func LoadRegistry(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read domain registry %s: %w", path, err)
	}
	var r Registry
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("invalid domain registry JSON: %w", err)
	}
	if r.Domains == nil {
		r.Domains = map[string]*Domain{}
	}
	return &r, nil
}

// WriteRegistry atomically replaces the registry at path.
func WriteRegistry(path string, r *Registry) error {
	return index.WriteJSON(path, r)
}
