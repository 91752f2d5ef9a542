package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/kamusis/pss-index/internal/domain"
	"github.com/kamusis/pss-index/internal/index"
	"github.com/spf13/cobra"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Build the domain registry from the skill index",
	Long: `Collect every skill's domain gates, merge gate names that mean the same
thing (e.g. lang_input and input_language) and write the domain registry.
Running it twice on the same index produces a byte-identical registry.`,
	Args: cobra.NoArgs,
	RunE: runAggregate,
}

var (
	flagAggOutput  string
	flagAggDryRun  bool
	flagAggJSON    bool
	flagAggVerbose bool
)

func init() {
	f := aggregateCmd.Flags()
	f.StringVar(&flagAggOutput, "output", "", "registry path (default from config)")
	f.BoolVar(&flagAggDryRun, "dry-run", false, "print the registry instead of writing it")
	f.BoolVar(&flagAggJSON, "json", false, "print a JSON status line")
	f.BoolVar(&flagAggVerbose, "verbose", false, "list every canonical domain")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(_ *cobra.Command, _ []string) error {
	idx, err := index.Load(cfg.IndexPath)
	if err != nil {
		return err
	}
	reg := domain.Aggregate(idx, cfg.IndexPath)

	if flagAggDryRun {
		out, err := json.MarshalIndent(reg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	output := firstNonEmpty(flagAggOutput, cfg.RegistryPath)
	if err := domain.WriteRegistry(output, reg); err != nil {
		return fmt.Errorf("failed to write domain registry: %w", err)
	}

	if flagAggJSON {
		out, err := json.Marshal(map[string]any{
			"status":        "ok",
			"registry_path": output,
			"domain_count":  reg.DomainCount,
		})
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	if flagAggVerbose {
		for _, name := range reg.Names() {
			d := reg.Domains[name]
			printInfo(name, fmt.Sprintf("%d skill(s), aliases %v", d.SkillCount, d.Aliases))
		}
	}
	printOK("", fmt.Sprintf("Domain registry: %d domain(s) → %s", reg.DomainCount, output))
	return nil
}
