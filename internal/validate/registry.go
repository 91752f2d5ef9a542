package validate

import (
	"errors"
	"os"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kamusis/pss-index/internal/domain"
)

// ValidateRegistryFile checks the domain registry at path against the index
// document indexData and adds its findings to r. A missing registry is only a
// warning.
func ValidateRegistryFile(path string, indexData []byte, r *Report) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.warnf("Domain registry not found at %s (run pssidx aggregate)", path)
			return
		}
		r.errorf("Cannot read domain registry: %v", err)
		return
	}
	ValidateRegistry(data, indexData, r)
}

// ValidateRegistry checks a domain registry document against an index
// document and adds its findings to r.
func ValidateRegistry(data, indexData []byte, r *Report) {
	if !gjson.ValidBytes(data) {
		r.errorf("Domain registry is not valid JSON")
		return
	}
	reg := gjson.ParseBytes(data)

	if v := reg.Get("version"); v.Type != gjson.String || v.Str != domain.RegistryVersion {
		r.errorf("Domain registry version must be '%s', got: %s", domain.RegistryVersion, rawOrNone(v))
	}
	if !reg.Get("generated").Exists() {
		r.errorf("Domain registry missing 'generated' field")
	}
	domains := reg.Get("domains")
	if !domains.Exists() {
		r.errorf("Domain registry missing 'domains' field")
		return
	}
	if !domains.IsObject() {
		r.errorf("Domain registry 'domains' must be an object, got %s", typeName(domains))
		return
	}

	actual := 0
	domains.ForEach(func(_, _ gjson.Result) bool { actual++; return true })
	if declared := reg.Get("domain_count"); declared.Type == gjson.Number && int(declared.Int()) != actual {
		r.warnf("Domain registry domain_count mismatch: declared %d, actual %d", declared.Int(), actual)
	}

	var skills gjson.Result
	if gjson.ValidBytes(indexData) {
		skills = gjson.GetBytes(indexData, "skills")
	}
	indexed := skillNames(skills)
	referenced := map[string]struct{}{}

	domains.ForEach(func(key, d gjson.Result) bool {
		name := key.String()
		if !d.IsObject() {
			r.errorf("Domain '%s' entry must be an object", name)
			return true
		}
		for _, field := range []string{"canonical_name", "aliases", "example_keywords", "skills"} {
			if !d.Get(field).Exists() {
				r.errorf("Domain '%s' missing required field: '%s'", name, field)
			}
		}

		if canon := d.Get("canonical_name"); canon.Str != name {
			r.warnf("Domain '%s' canonical_name mismatch: key is '%s' but field says %s", name, name, rawOrNone(canon))
		}

		aliases := d.Get("aliases")
		if !aliases.IsArray() || len(aliases.Array()) == 0 {
			r.errorf("Domain '%s' aliases must be a non-empty array", name)
		} else {
			for _, a := range aliases.Array() {
				if a.Type != gjson.String {
					r.errorf("Domain '%s' alias must be string, got: %s", name, a.Raw)
				}
			}
		}

		kws := d.Get("example_keywords")
		hasGeneric := false
		if !kws.IsArray() || len(kws.Array()) == 0 {
			r.errorf("Domain '%s' example_keywords must be a non-empty array", name)
		} else {
			for _, kw := range kws.Array() {
				switch {
				case kw.Type != gjson.String:
					r.errorf("Domain '%s' keyword must be string, got: %s", name, kw.Raw)
				case kw.Str == domain.GenericKeyword:
					hasGeneric = true
				case kw.Str != strings.ToLower(kw.Str):
					r.warnf("Domain '%s' keyword not lowercase: '%s'", name, kw.Str)
				}
			}
		}
		if flag := d.Get("has_generic").Bool(); flag != hasGeneric {
			r.warnf("Domain '%s' has_generic flag (%t) does not match presence of '%s' in keywords (%t)",
				name, flag, domain.GenericKeyword, hasGeneric)
		}

		refs := d.Get("skills")
		if refs.IsArray() {
			items := refs.Array()
			for _, ref := range items {
				referenced[ref.String()] = struct{}{}
				if _, ok := indexed[ref.String()]; !ok {
					r.warnf("Domain '%s' references unknown skill: '%s'", name, ref.String())
				}
			}
			if sc := d.Get("skill_count"); sc.Type == gjson.Number && int(sc.Int()) != len(items) {
				r.warnf("Domain '%s' skill_count (%d) != len(skills) (%d)", name, sc.Int(), len(items))
			}
		}
		return true
	})

	withGates := map[string]struct{}{}
	if skills.IsObject() {
		skills.ForEach(func(key, entry gjson.Result) bool {
			g := entry.Get("domain_gates")
			if g.IsObject() && len(g.Map()) > 0 {
				withGates[key.String()] = struct{}{}
			}
			return true
		})
	}
	var unregistered []string
	for n := range withGates {
		if _, ok := referenced[n]; !ok {
			unregistered = append(unregistered, n)
		}
	}
	if len(unregistered) > 0 {
		slices.Sort(unregistered)
		sample, suffix := unregistered, ""
		if len(sample) > 5 {
			sample, suffix = sample[:5], "..."
		}
		r.warnf("%d skills have domain_gates but are not in registry: %q%s", len(unregistered), sample, suffix)
	}

	r.Stats.Registry = &RegistryStats{
		Domains:          actual,
		SkillsReferenced: len(referenced),
		SkillsWithGates:  len(withGates),
	}
}

func rawOrNone(v gjson.Result) string {
	if !v.Exists() {
		return "<none>"
	}
	return v.Raw
}
