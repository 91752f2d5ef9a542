package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/kamusis/pss-index/internal/domain"
	"github.com/kamusis/pss-index/internal/index"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <skill-name>",
	Short: "Show what the index knows about a skill",
	Long: `Display a formatted summary of one skill's index entry: its pass-1
facts, its domain gates (with their canonical domain names) and its pass-2
co-usage data.

An exact skill name is tried first; otherwise every skill whose name contains
the argument is shown.

Example:
  pssidx inspect docker-compose
  pssidx inspect python`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(_ *cobra.Command, args []string) error {
	idx, err := index.Load(cfg.IndexPath)
	if err != nil {
		return err
	}
	names, err := resolveSkills(idx, args[0])
	if err != nil {
		return err
	}
	for i, name := range names {
		if i > 0 {
			fmt.Println(strings.Repeat("─", 50))
		}
		printInspect(os.Stdout, name, idx.Skills[name])
	}
	return nil
}

// resolveSkills finds the skills matching arg: the exact name when present,
// otherwise a case-insensitive substring match.
func resolveSkills(idx *index.Index, arg string) ([]string, error) {
	if _, ok := idx.Skills[arg]; ok {
		return []string{arg}, nil
	}
	lower := strings.ToLower(arg)
	var matches []string
	for name := range idx.Skills {
		if strings.Contains(strings.ToLower(name), lower) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("skill %q not found in %s", arg, cfg.IndexPath)
	}
	sort.Strings(matches)
	return matches, nil
}

// printInspect writes the formatted summary of one entry.
func printInspect(w io.Writer, name string, e *index.Entry) {
	fmt.Fprintf(w, "📦 Skill: %s\n", name)
	field := func(label, v string) {
		if v != "" {
			fmt.Fprintf(w, "%-13s %s\n", label+":", v)
		}
	}
	field("Type", e.Type)
	field("Source", e.Source)
	field("Category", e.Category)
	field("Path", e.Path)
	field("Summary", strings.ReplaceAll(strings.TrimSpace(e.Description), "\n", " "))
	field("Tier", e.Tier)

	list := func(label string, items []string) {
		if len(items) > 0 {
			fmt.Fprintf(w, "%-13s %s\n", label+":", strings.Join(items, ", "))
		}
	}
	fmt.Fprintln(w)
	list("Keywords", e.Keywords)
	list("Intents", e.Intents)
	list("Use cases", e.UseCases)
	list("Platforms", e.Platforms)
	list("Frameworks", e.Frameworks)
	list("Languages", e.Languages)
	list("Domains", e.Domains)
	list("Tools", e.Tools)
	list("File types", e.FileTypes)

	if len(e.DomainGates) > 0 {
		fmt.Fprintln(w, "\nDomain gates:")
		gates := make([]string, 0, len(e.DomainGates))
		for g := range e.DomainGates {
			gates = append(gates, g)
		}
		sort.Strings(gates)
		for _, g := range gates {
			label := g
			if canon := domain.Normalize(g); canon != g {
				label = fmt.Sprintf("%s (→ %s)", g, canon)
			}
			fmt.Fprintf(w, "  - %s: %s\n", label, strings.Join(e.DomainGates[g], ", "))
		}
	}

	if c := e.CoUsage; c != nil {
		fmt.Fprintln(w, "\nCo-usage:")
		list("  With", c.UsuallyWith)
		list("  Precedes", c.Precedes)
		list("  Follows", c.Follows)
		list("  Alternatives", c.Alternatives)
		field("  Rationale", c.Rationale)
	} else {
		fmt.Fprintln(w, "\n  (no pass-2 data yet)")
	}
}
