package domain

import (
	"slices"
	"strings"

	"github.com/kamusis/pss-index/internal/index"
)

// Aggregate groups every skill's domain gates by canonical name.
//
// The registry's generation time is taken from the index, so aggregating an
// unchanged index always yields the same document. idx is not modified.
func Aggregate(idx *index.Index, sourceIndex string) *Registry {
	type bucket struct {
		aliases  map[string]struct{}
		keywords map[string]struct{}
		skills   map[string]struct{}
	}
	buckets := map[string]*bucket{}

	for skill, e := range idx.Skills {
		if e == nil {
			continue
		}
		for gate, kws := range e.DomainGates {
			if kws == nil {
				continue
			}
			canonical := Normalize(gate)
			if canonical == "" {
				continue
			}
			b, ok := buckets[canonical]
			if !ok {
				b = &bucket{
					aliases:  map[string]struct{}{},
					keywords: map[string]struct{}{},
					skills:   map[string]struct{}{},
				}
				buckets[canonical] = b
			}
			b.aliases[gate] = struct{}{}
			b.skills[skill] = struct{}{}
			for _, kw := range kws {
				b.keywords[strings.ToLower(kw)] = struct{}{}
			}
		}
	}

	reg := &Registry{
		Version:     RegistryVersion,
		Generated:   idx.Generated,
		SourceIndex: sourceIndex,
		DomainCount: len(buckets),
		Domains:     make(map[string]*Domain, len(buckets)),
	}
	for canonical, b := range buckets {
		_, generic := b.keywords[GenericKeyword]
		delete(b.keywords, GenericKeyword)
		keywords := sortedKeys(b.keywords)
		if generic {
			keywords = append([]string{GenericKeyword}, keywords...)
		}
		skills := sortedKeys(b.skills)
		reg.Domains[canonical] = &Domain{
			CanonicalName:   canonical,
			Aliases:         sortedKeys(b.aliases),
			ExampleKeywords: keywords,
			HasGeneric:      generic,
			SkillCount:      len(skills),
			Skills:          skills,
		}
	}
	return reg
}

// Names returns the canonical domain names in order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.Domains))
	for name := range r.Domains {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
