package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/kamusis/pss-index/internal/recovery"
	"github.com/kamusis/pss-index/internal/sweep"
	"github.com/kamusis/pss-index/internal/validate"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the skill index (and optionally the domain registry)",
	Long: `Check the skill index for structural and semantic errors and compare it
against the skill checklist. Validation never modifies the index; pass
--restore-on-failure to restore the latest backup when errors are found.

Exit status: 0 valid, 1 blocking errors found, 2 errors found and no backup
could be restored.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

type validateFlags struct {
	checklist        string
	pass             int
	registry         string
	validateRegistry bool
	restoreOnFailure bool
	backupDir        string
	cleanupPSS       bool
	json             bool
	verbose          bool
	checkPaths       bool
}

var flagValidate validateFlags

func init() {
	f := validateCmd.Flags()
	f.StringVar(&flagValidate.checklist, "checklist", "", "skill checklist (default from config)")
	f.IntVar(&flagValidate.pass, "pass", 0, "expected index pass: 1 or 2 (0 accepts the declared pass)")
	f.StringVar(&flagValidate.registry, "registry", "", "domain registry (default from config)")
	f.BoolVar(&flagValidate.validateRegistry, "validate-registry", false, "also validate the domain registry")
	f.BoolVar(&flagValidate.restoreOnFailure, "restore-on-failure", false, "restore the latest backup when validation fails")
	f.StringVar(&flagValidate.backupDir, "backup-dir", "", "restore from this backup instead of the latest")
	f.BoolVar(&flagValidate.cleanupPSS, "cleanup-pss", false, "delete leftover .pss files from the queue afterwards")
	f.BoolVar(&flagValidate.json, "json", false, "print the report as JSON")
	f.BoolVar(&flagValidate.verbose, "verbose", false, "list per-skill warnings too")
	f.BoolVar(&flagValidate.checkPaths, "check-paths", false, "warn about entries whose path no longer exists")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	f := flagValidate
	if f.pass != 0 && f.pass != 1 && f.pass != 2 {
		return fmt.Errorf("invalid --pass %d (must be 1 or 2)", f.pass)
	}
	checklistPath := firstNonEmpty(f.checklist, cfg.ChecklistPath)
	checklist, err := validate.LoadChecklist(checklistPath)
	if err != nil {
		return err
	}

	report := validate.ValidateFile(cfg.IndexPath, validate.Options{
		Checklist:    checklist,
		ExpectedPass: f.pass,
		CheckPaths:   f.checkPaths,
	})
	if f.validateRegistry {
		indexData, err := os.ReadFile(cfg.IndexPath)
		if err != nil {
			indexData = []byte(`{"skills":{}}`)
		}
		validate.ValidateRegistryFile(firstNonEmpty(f.registry, cfg.RegistryPath), indexData, report)
	}

	if f.json {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		printReport(report, f.verbose)
	}

	var outcome error
	if !report.Valid() {
		outcome = withExit(exitInvalid, fmt.Errorf("index validation failed: %d error(s)", report.TotalErrors()))
		if f.restoreOnFailure {
			if err := restoreIndex(cmd.Context(), f.backupDir, !f.json); err != nil {
				outcome = err
			}
		}
	}
	if f.cleanupPSS {
		if err := cleanupQueue(cmd.Context(), !f.json && (f.verbose || outcome != nil)); err != nil {
			printWarn("", err.Error())
		}
	}
	return outcome
}

// restoreIndex replaces the index with a backup; dir "" picks the latest.
func restoreIndex(ctx context.Context, dir string, show bool) error {
	rc := recovery.New(cfg.IndexPath, cfg.BackupRoot, cfg.BackupPrefix)
	if show {
		printSection("Restoring backup")
	}
	src, err := rc.Recover(ctx, dir)
	if errors.Is(err, recovery.ErrNoBackup) {
		if show {
			printMiss("", "no backup found; rebuild the index from scratch")
		}
		return withExit(exitNoBackup, err)
	}
	if err != nil {
		return err
	}
	if show {
		printRestore("", fmt.Sprintf("restored %s from %s", cfg.IndexPath, src))
	}
	return nil
}

// cleanupQueue deletes leftover descriptors directly inside the queue.
func cleanupQueue(ctx context.Context, show bool) error {
	res, err := sweep.Sweep(ctx, nil, cfg.QueueDir, sweep.Options{})
	if show && res != nil && res.Removed > 0 {
		printInfo("", fmt.Sprintf("cleaned up %d residual .pss file(s) from %s", res.Removed, cfg.QueueDir))
	}
	return err
}

func printReport(r *validate.Report, verbose bool) {
	s := r.Stats
	printSection("pssidx validate")
	printInfo("", fmt.Sprintf("index: %s", cfg.IndexPath))
	printInfo("", fmt.Sprintf("%d skill(s), pass %d", s.TotalSkills, s.IndexPass))
	printInfo("", fmt.Sprintf("pass 1: %d ok, %d failed", s.Pass1OK, s.Pass1Fail))
	if p := s.Pass2; p != nil {
		printInfo("", fmt.Sprintf("pass 2: %d ok, %d failed, %d missing", p.OK, p.Fail, p.Missing))
	}
	if c := s.Completeness; c != nil {
		printInfo("", fmt.Sprintf("checklist: %d expected, %d indexed, %d missing, %d extra",
			c.Expected, c.Indexed, c.Missing, c.Extra))
	}
	if g := s.Registry; g != nil {
		printInfo("", fmt.Sprintf("registry: %d domain(s), %d skill reference(s), %d skill(s) with gates",
			g.Domains, g.SkillsReferenced, g.SkillsWithGates))
	}

	if len(r.Errors) > 0 || len(r.SkillErrors) > 0 {
		printBullet("Errors:")
		for _, e := range r.Errors {
			printErr("", e)
		}
		for _, name := range sortedNames(r.SkillErrors) {
			for _, e := range r.SkillErrors[name] {
				printErr(name, e)
			}
		}
	}
	if len(r.Warnings) > 0 || (verbose && len(r.SkillWarnings) > 0) {
		printBullet("Warnings:")
		for _, w := range r.Warnings {
			printWarn("", w)
		}
		if verbose {
			for _, name := range sortedNames(r.SkillWarnings) {
				for _, w := range r.SkillWarnings[name] {
					printWarn(name, w)
				}
			}
		}
	}

	fmt.Println()
	if r.Valid() {
		printOK("", fmt.Sprintf("VALID (%d warning(s))", r.TotalWarnings()))
	} else {
		printErr("", fmt.Sprintf("INVALID: %d error(s), %d warning(s)", r.TotalErrors(), r.TotalWarnings()))
	}
}

func sortedNames(m map[string][]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
