// Package domain unifies the domain gates declared by individual skills into
// a canonical domain registry.
package domain

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// abbreviations expands short gate tokens. Values may hold several
// underscore-separated tokens.
var abbreviations = map[string]string{
	"lang":  "language",
	"langs": "language",
	"plat":  "platform",
	"platf": "platform",
	"fw":    "framework",
	"fwork": "framework",
	"fmwk":  "framework",
	"fmt":   "format",
	"prog":  "programming",
	"env":   "environment",
	"os":    "operating_system",
	"db":    "database",
	"lib":   "library",
	"libs":  "library",
	"pkg":   "package",
	"svc":   "service",
	"srv":   "service",
	"src":   "source",
	"dst":   "destination",
	"dest":  "destination",
	"out":   "output",
	"in":    "input",
	"tgt":   "target",
	"prov":  "provider",
}

// canonicalOrderings fixes the token order of well-known concepts that the
// alphabetical fallback would otherwise turn around.
var canonicalOrderings = buildOrderings(
	"target_language",
	"target_platform",
	"target_framework",
	"input_language",
	"output_language",
	"source_language",
	"input_format",
	"output_format",
	"programming_language",
	"text_language",
	"cloud_provider",
	"operating_system",
	"mobile_platform",
	"rendering_engine",
)

func buildOrderings(names ...string) map[string]string {
	m := make(map[string]string, len(names))
	for _, n := range names {
		m[multisetKey(strings.Split(n, "_"))] = n
	}
	return m
}

// multisetKey identifies a token multiset independent of order.
func multisetKey(tokens []string) string {
	sorted := slices.Clone(tokens)
	slices.Sort(sorted)
	return strings.Join(sorted, "_")
}

// Normalize maps a raw gate name to its canonical domain name.
//
// Tokens are split on '_', abbreviations are expanded, and known concepts
// get their fixed ordering; anything else is joined in alphabetical order.
// Normalize(Normalize(x)) == Normalize(x) for every x.
func Normalize(raw string) string {
	clean := norm.NFKC.String(strings.ToLower(norm.NFKC.String(raw)))

	var tokens []string
	for _, t := range strings.Split(clean, "_") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if exp, ok := abbreviations[t]; ok {
			tokens = append(tokens, strings.Split(exp, "_")...)
			continue
		}
		tokens = append(tokens, t)
	}

	key := multisetKey(tokens)
	if canonical, ok := canonicalOrderings[key]; ok {
		return canonical
	}
	return key
}
