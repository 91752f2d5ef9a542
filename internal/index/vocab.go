package index

import "slices"

// Closed vocabularies shared by the merge engine, validator and suggester.
var (
	Sources = newSet("user", "project", "plugin")

	Types = newSet("skill", "agent", "command")

	Tiers = newSet("primary", "secondary", "specialized")

	Categories = newSet(
		"web-frontend", "web-backend", "mobile", "devops-cicd", "testing",
		"security", "data-ml", "research", "code-quality", "debugging",
		"infrastructure", "cli-tools", "visualization", "ai-llm",
		"project-mgmt", "plugin-dev",
	)

	Platforms = newSet("ios", "android", "macos", "windows", "linux", "web", "universal")

	Languages = newSet(
		"swift", "kotlin", "python", "typescript", "javascript", "rust", "go",
		"java", "c", "cpp", "csharp", "ruby", "php", "dart", "any",
	)

	// Intents is advisory: unknown intents are tolerated.
	Intents = newSet(
		"deploy", "build", "test", "review", "debug", "refactor", "migrate",
		"configure", "install", "create", "delete", "monitor", "analyze",
		"optimize", "secure", "audit", "document", "design", "plan",
		"implement", "validate", "generate", "convert", "search", "explore",
		"visualize", "animate", "record", "transcribe", "translate", "publish",
		"package", "lint", "format", "profile", "benchmark", "scaffold",
		"list", "add", "open", "merge", "link",
	)
)

// CoUsageLimits caps the number of references per co_usage list.
var CoUsageLimits = map[string]int{
	"usually_with": 5,
	"precedes":     3,
	"follows":      3,
	"alternatives": 3,
}

// CoUsageLists is the fixed order in which co_usage lists are checked.
var CoUsageLists = []string{"usually_with", "precedes", "follows", "alternatives"}

// Set is a closed vocabulary.
type Set map[string]struct{}

func newSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is a member of the vocabulary.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
