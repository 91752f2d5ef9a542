package merge

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kamusis/pss-index/internal/descriptor"
	"github.com/kamusis/pss-index/internal/index"
)

// Apply merges d into idx for the given pass and returns the skill name.
// pass must be Pass1 or Pass2; callers resolve PassAuto first.
func Apply(idx *index.Index, d *descriptor.Descriptor, pass descriptor.Pass) (string, error) {
	switch pass {
	case descriptor.Pass1:
		return ApplyPass1(idx, d)
	case descriptor.Pass2:
		return ApplyPass2(idx, d)
	}
	return "", fmt.Errorf("invalid pass number: %d (must be 1 or 2)", pass)
}

// ApplyPass1 copies every factual field present in d onto the skill's entry,
// creating the entry when needed. Fields d does not carry are left as they are.
func ApplyPass1(idx *index.Index, d *descriptor.Descriptor) (string, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return "", ErrMissingName
	}
	if idx.Skills == nil {
		idx.Skills = map[string]*index.Entry{}
	}
	e, ok := idx.Skills[name]
	if !ok || e == nil {
		e = &index.Entry{}
		idx.Skills[name] = e
	}

	setString(&e.Source, d.Source)
	setString(&e.Path, d.Path)
	setString(&e.Type, d.Type)
	setList(&e.Keywords, d.Keywords)
	setList(&e.Intents, d.Intents)
	setList(&e.Patterns, d.Patterns)
	setList(&e.Directories, d.Directories)
	setString(&e.Description, d.Description)
	setList(&e.UseCases, d.UseCases)
	setString(&e.Category, d.Category)
	setList(&e.Platforms, d.Platforms)
	setList(&e.Frameworks, d.Frameworks)
	setList(&e.Languages, d.Languages)
	setList(&e.Domains, d.Domains)
	setList(&e.Tools, d.Tools)
	setList(&e.FileTypes, d.FileTypes)
	if d.DomainGates != nil {
		e.DomainGates = make(map[string][]string, len(d.DomainGates))
		for gate, kws := range d.DomainGates {
			e.DomainGates[gate] = slices.Clone(kws)
		}
	}

	e.Name = name
	return name, nil
}

// ApplyPass2 merges the co-usage lists and tier of an existing entry and
// raises the index-level pass marker to 2.
func ApplyPass2(idx *index.Index, d *descriptor.Descriptor) (string, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return "", ErrMissingName
	}
	e, ok := idx.Skills[name]
	if !ok || e == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownSkill, name)
	}

	if d.CoUsage != nil {
		if e.CoUsage == nil {
			e.CoUsage = &index.CoUsage{}
		}
		setList(&e.CoUsage.UsuallyWith, d.CoUsage.UsuallyWith)
		setList(&e.CoUsage.Precedes, d.CoUsage.Precedes)
		setList(&e.CoUsage.Follows, d.CoUsage.Follows)
		setList(&e.CoUsage.Alternatives, d.CoUsage.Alternatives)
		setString(&e.CoUsage.Rationale, d.CoUsage.Rationale)
	}
	setString(&e.Tier, d.Tier)

	idx.Pass = max(idx.Pass, 2)
	return name, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setList(dst *[]string, src []string) {
	if src != nil {
		*dst = slices.Clone(src)
	}
}
