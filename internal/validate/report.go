package validate

import (
	"encoding/json"
	"fmt"
)

// Report collects the findings of one validation run. Errors block; warnings
// never do.
type Report struct {
	Errors        []string            `json:"global_errors"`
	Warnings      []string            `json:"global_warnings"`
	SkillErrors   map[string][]string `json:"skill_errors"`
	SkillWarnings map[string][]string `json:"skill_warnings"`
	Stats         Stats               `json:"stats"`
}

// Stats summarises what was checked.
type Stats struct {
	TotalSkills int `json:"total_skills"`
	IndexPass   int `json:"index_pass"`
	Pass1OK     int `json:"pass1_ok"`
	Pass1Fail   int `json:"pass1_fail"`

	Pass2        *Pass2Stats        `json:"pass2,omitempty"`
	Completeness *CompletenessStats `json:"completeness,omitempty"`
	Registry     *RegistryStats     `json:"registry,omitempty"`
}

// Pass2Stats counts entries by the state of their co-usage data.
type Pass2Stats struct {
	OK      int `json:"ok"`
	Fail    int `json:"fail"`
	Missing int `json:"missing"`
}

// CompletenessStats compares indexed skills with the checklist.
type CompletenessStats struct {
	Expected     int      `json:"expected_skills"`
	Indexed      int      `json:"indexed_skills"`
	Missing      int      `json:"missing_skills"`
	Extra        int      `json:"extra_skills"`
	MissingNames []string `json:"missing_skill_names,omitempty"`
}

// RegistryStats summarises the domain registry beside the index.
type RegistryStats struct {
	Domains          int `json:"registry_domains"`
	SkillsReferenced int `json:"registry_skills_referenced"`
	SkillsWithGates  int `json:"skills_with_gates"`
}

func newReport() *Report {
	return &Report{
		Errors:        []string{},
		Warnings:      []string{},
		SkillErrors:   map[string][]string{},
		SkillWarnings: map[string][]string{},
	}
}

// Valid reports whether no blocking error was found.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0 && len(r.SkillErrors) == 0
}

// TotalErrors counts global and per-skill errors.
func (r *Report) TotalErrors() int {
	n := len(r.Errors)
	for _, v := range r.SkillErrors {
		n += len(v)
	}
	return n
}

// TotalWarnings counts global and per-skill warnings.
func (r *Report) TotalWarnings() int {
	n := len(r.Warnings)
	for _, v := range r.SkillWarnings {
		n += len(v)
	}
	return n
}

func (r *Report) MarshalJSON() ([]byte, error) {
	type plain Report
	return json.Marshal(struct {
		Valid         bool `json:"valid"`
		TotalErrors   int  `json:"total_errors"`
		TotalWarnings int  `json:"total_warnings"`
		*plain
	}{r.Valid(), r.TotalErrors(), r.TotalWarnings(), (*plain)(r)})
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) skillErrorf(skill, format string, args ...any) {
	r.SkillErrors[skill] = append(r.SkillErrors[skill], fmt.Sprintf(format, args...))
}

func (r *Report) skillWarnf(skill, format string, args ...any) {
	r.SkillWarnings[skill] = append(r.SkillWarnings[skill], fmt.Sprintf(format, args...))
}

func (r *Report) skillErrorCount(skill string) int {
	return len(r.SkillErrors[skill])
}
