// Package validate checks a finished skill index (and optionally the domain
// registry derived from it) without modifying either.
package validate

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kamusis/pss-index/internal/index"
)

// Options tunes a validation run.
type Options struct {
	// Checklist holds the skill names expected in the index. Nil skips the
	// completeness check.
	Checklist []string
	// ExpectedPass is 1 or 2; 0 takes the pass declared by the index.
	ExpectedPass int
	// CheckPaths warns about entries whose path no longer exists.
	CheckPaths bool
}

var (
	pass1Required = []string{"source", "path", "type", "keywords", "category", "description"}

	pass1Arrays = []string{
		"keywords", "intents", "patterns", "directories", "use_cases", "platforms",
		"frameworks", "languages", "domains", "tools", "file_types",
	}
)

// minKeywords is the keyword count below which an entry is flagged as thin.
const minKeywords = 5

// ValidateFile validates the index at path.
func ValidateFile(path string, opts Options) *Report {
	data, err := os.ReadFile(path)
	if err != nil {
		r := newReport()
		if errors.Is(err, os.ErrNotExist) {
			r.errorf("Index file does not exist: %s", path)
		} else {
			r.errorf("Cannot read index file: %v", err)
		}
		return r
	}
	return Validate(data, opts)
}

// Validate checks an index document.
func Validate(data []byte, opts Options) *Report {
	r := newReport()
	if !gjson.ValidBytes(data) {
		r.errorf("Index file is not valid JSON")
		return r
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		r.errorf("Index must be an object, got %s", typeName(root))
		return r
	}

	checkTopLevel(root, r)
	if !r.Valid() {
		return r
	}

	skills := root.Get("skills")
	names := skillNames(skills)
	indexPass := int(root.Get("pass").Int())

	expected := indexPass
	if opts.ExpectedPass != 0 {
		if indexPass != opts.ExpectedPass {
			r.errorf("Index pass is %d but expected %d", indexPass, opts.ExpectedPass)
		}
		expected = opts.ExpectedPass
	}
	if expected == 2 {
		r.Stats.Pass2 = &Pass2Stats{}
	}

	skills.ForEach(func(key, entry gjson.Result) bool {
		name := key.String()
		if !entry.IsObject() {
			r.skillErrorf(name, "Skill entry must be an object, got %s", typeName(entry))
			return true
		}

		before := r.skillErrorCount(name)
		checkPass1(name, entry, opts, r)
		if r.skillErrorCount(name) > before {
			r.Stats.Pass1Fail++
		} else {
			r.Stats.Pass1OK++
		}

		if expected == 2 {
			before = r.skillErrorCount(name)
			checkPass2(name, entry, names, r)
			switch {
			case !present(entry.Get("co_usage")):
				r.Stats.Pass2.Missing++
			case r.skillErrorCount(name) > before:
				r.Stats.Pass2.Fail++
			default:
				r.Stats.Pass2.OK++
			}
		}
		return true
	})

	if opts.Checklist != nil {
		checkCompleteness(names, opts.Checklist, r)
	} else {
		r.warnf("No skill checklist found - cannot verify completeness")
	}
	return r
}

func checkTopLevel(root gjson.Result, r *Report) {
	if v := root.Get("version"); !v.Exists() {
		r.errorf("Missing required field: 'version'")
	} else if v.Type != gjson.String || v.Str != index.SchemaVersion {
		r.errorf("Invalid version: %s (expected '%s')", v.Raw, index.SchemaVersion)
	}

	if p := root.Get("pass"); !p.Exists() {
		r.errorf("Missing required field: 'pass'")
	} else if p.Type != gjson.Number || (p.Num != 1 && p.Num != 2) {
		r.errorf("Invalid pass: %s (expected 1 or 2)", p.Raw)
	}

	if !root.Get("generated").Exists() {
		r.errorf("Missing required field: 'generated'")
	}

	skills := root.Get("skills")
	actual := 0
	if !skills.Exists() {
		r.errorf("Missing required field: 'skills'")
	} else if !skills.IsObject() {
		r.errorf("'skills' must be an object, got %s", typeName(skills))
	} else {
		actual = len(skillNames(skills))
	}

	declared := root.Get("skills_count")
	if !declared.Exists() {
		declared = root.Get("skill_count")
	}
	if declared.Type == gjson.Number && int(declared.Int()) != actual {
		r.warnf("skills_count mismatch: declared %d, actual %d", declared.Int(), actual)
	}

	r.Stats.TotalSkills = actual
	r.Stats.IndexPass = int(root.Get("pass").Int())
}

func checkPass1(name string, entry gjson.Result, opts Options, r *Report) {
	for _, field := range pass1Required {
		v := entry.Get(field)
		switch {
		case !present(v):
			r.skillErrorf(name, "Missing required field: '%s'", field)
		case v.Type == gjson.String && strings.TrimSpace(v.Str) == "":
			r.skillErrorf(name, "Empty required field: '%s'", field)
		case field == "keywords" && v.IsArray() && len(v.Array()) == 0:
			r.skillErrorf(name, "keywords array is empty (must have 1+ entries)")
		}
	}

	checkEnum(name, entry.Get("source"), "source", index.Sources, r)
	checkEnum(name, entry.Get("type"), "type", index.Types, r)
	checkEnum(name, entry.Get("category"), "category", index.Categories, r)

	for _, field := range pass1Arrays {
		if v := entry.Get(field); present(v) && !v.IsArray() {
			r.skillErrorf(name, "Field '%s' must be an array, got %s", field, typeName(v))
		}
	}

	for _, p := range arrayItems(entry.Get("platforms")) {
		if p.Type != gjson.String || !index.Platforms.Has(p.Str) {
			r.skillErrorf(name, "Invalid platform: %s (valid: %s)", p.Raw, strings.Join(index.Platforms.Sorted(), ", "))
		}
	}
	for _, l := range arrayItems(entry.Get("languages")) {
		if l.Type != gjson.String || !index.Languages.Has(l.Str) {
			r.skillErrorf(name, "Invalid language: %s (valid: %s)", l.Raw, strings.Join(index.Languages.Sorted(), ", "))
		}
	}
	for _, in := range arrayItems(entry.Get("intents")) {
		if in.Type != gjson.String || !index.Intents.Has(in.Str) {
			r.skillWarnf(name, "Unknown intent: %s (not in standard list)", in.Raw)
		}
	}

	if kws := entry.Get("keywords"); kws.IsArray() {
		items := kws.Array()
		if len(items) < minKeywords {
			r.skillWarnf(name, "Only %d keywords (expected 10-20)", len(items))
		}
		for _, kw := range items {
			if kw.Type != gjson.String {
				r.skillErrorf(name, "Keyword must be string, got %s: %s", typeName(kw), kw.Raw)
			} else if kw.Str != strings.ToLower(kw.Str) {
				r.skillWarnf(name, "Keyword not lowercase: '%s'", kw.Str)
			}
		}
	}

	checkDomainGates(name, entry.Get("domain_gates"), r)

	if opts.CheckPaths {
		if p := entry.Get("path"); p.Type == gjson.String && p.Str != "" {
			if _, err := os.Stat(p.Str); err != nil {
				r.skillWarnf(name, "SKILL.md path does not exist: %s", p.Str)
			}
		}
	}
}

func checkEnum(name string, v gjson.Result, field string, vocab index.Set, r *Report) {
	if !present(v) || (v.Type == gjson.String && v.Str == "") {
		return
	}
	if v.Type != gjson.String || !vocab.Has(v.Str) {
		r.skillErrorf(name, "Invalid %s: %s (valid: %s)", field, v.Raw, strings.Join(vocab.Sorted(), ", "))
	}
}

func checkDomainGates(name string, gates gjson.Result, r *Report) {
	if !present(gates) {
		return
	}
	if !gates.IsObject() {
		r.skillErrorf(name, "domain_gates must be an object, got %s", typeName(gates))
		return
	}
	gates.ForEach(func(key, kws gjson.Result) bool {
		gate := key.String()
		if strings.TrimSpace(gate) == "" {
			r.skillErrorf(name, "domain_gates key must be a non-empty string, got: %q", gate)
		}
		switch {
		case !kws.IsArray():
			r.skillErrorf(name, "domain_gates['%s'] must be an array, got %s", gate, typeName(kws))
		case len(kws.Array()) == 0:
			r.skillErrorf(name, "domain_gates['%s'] is empty (must have at least 1 keyword)", gate)
		default:
			for _, kw := range kws.Array() {
				if kw.Type != gjson.String {
					r.skillErrorf(name, "domain_gates['%s'] contains non-string: %s", gate, kw.Raw)
				} else if kw.Str != strings.ToLower(kw.Str) {
					r.skillWarnf(name, "domain_gates['%s'] keyword not lowercase: '%s'", gate, kw.Str)
				}
			}
		}
		return true
	})
}

func checkPass2(name string, entry gjson.Result, names map[string]struct{}, r *Report) {
	cu := entry.Get("co_usage")
	if !present(cu) {
		r.skillErrorf(name, "Missing 'co_usage' field (Pass 2 not completed)")
		return
	}
	if !cu.IsObject() {
		r.skillErrorf(name, "'co_usage' must be an object, got %s", typeName(cu))
		return
	}

	for _, field := range index.CoUsageLists {
		v := cu.Get(field)
		if !present(v) {
			continue
		}
		if !v.IsArray() {
			r.skillErrorf(name, "co_usage.%s must be an array, got %s", field, typeName(v))
			continue
		}
		refs := v.Array()
		if limit := index.CoUsageLimits[field]; len(refs) > limit {
			r.skillErrorf(name, "co_usage.%s has %d entries (max %d)", field, len(refs), limit)
		}
		self := false
		for _, ref := range refs {
			switch {
			case ref.Type != gjson.String:
				r.skillErrorf(name, "co_usage.%s contains non-string: %s", field, ref.Raw)
			case ref.Str == name:
				self = true
			default:
				if _, ok := names[ref.Str]; !ok {
					r.skillWarnf(name, "co_usage.%s references unknown skill: '%s'", field, ref.Str)
				}
			}
		}
		if self {
			r.skillErrorf(name, "co_usage.%s contains self-reference", field)
		}
	}

	if rat := cu.Get("rationale"); rat.Type != gjson.String || strings.TrimSpace(rat.Str) == "" {
		r.skillWarnf(name, "co_usage.rationale is empty")
	}

	tier := entry.Get("tier")
	switch {
	case !present(tier):
		r.skillWarnf(name, "Missing 'tier' field (Pass 2 should set this)")
	case tier.Type != gjson.String || !index.Tiers.Has(tier.Str):
		r.skillErrorf(name, "Invalid tier: %s (valid: %s)", tier.Raw, strings.Join(index.Tiers.Sorted(), ", "))
	}
}

func checkCompleteness(indexed map[string]struct{}, checklist []string, r *Report) {
	expected := make(map[string]struct{}, len(checklist))
	for _, n := range checklist {
		expected[n] = struct{}{}
	}

	var missing, extra []string
	for n := range expected {
		if _, ok := indexed[n]; !ok {
			missing = append(missing, n)
		}
	}
	for n := range indexed {
		if _, ok := expected[n]; !ok {
			extra = append(extra, n)
		}
	}
	slices.Sort(missing)
	slices.Sort(extra)

	if len(missing) > 0 {
		r.errorf("%d skills from checklist are MISSING from index: %q", len(missing), missing)
	}
	if len(extra) > 0 {
		sample, suffix := extra, ""
		if len(sample) > 10 {
			sample, suffix = sample[:10], "..."
		}
		r.warnf("%d skills in index but not in checklist (may be from previous runs): %q%s", len(extra), sample, suffix)
	}

	r.Stats.Completeness = &CompletenessStats{
		Expected:     len(expected),
		Indexed:      len(indexed),
		Missing:      len(missing),
		Extra:        len(extra),
		MissingNames: missing,
	}
}

func skillNames(skills gjson.Result) map[string]struct{} {
	names := map[string]struct{}{}
	if !skills.IsObject() {
		return names
	}
	skills.ForEach(func(key, _ gjson.Result) bool {
		names[key.String()] = struct{}{}
		return true
	})
	return names
}

// present reports whether v exists and is not JSON null.
func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

func arrayItems(v gjson.Result) []gjson.Result {
	if !v.IsArray() {
		return nil
	}
	return v.Array()
}

func typeName(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return "null"
	case gjson.False, gjson.True:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	case gjson.JSON:
		if v.IsArray() {
			return "array"
		}
		return "object"
	}
	return fmt.Sprintf("%v", v.Type)
}
