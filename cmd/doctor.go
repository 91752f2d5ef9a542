package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kamusis/pss-index/internal/config"
	"github.com/kamusis/pss-index/internal/descriptor"
	"github.com/kamusis/pss-index/internal/domain"
	"github.com/kamusis/pss-index/internal/index"
	"github.com/kamusis/pss-index/internal/merge"
	"github.com/kamusis/pss-index/internal/recovery"
	"github.com/spf13/cobra"
)

// doctorLockWait bounds how long doctor waits for the index lock.
const doctorLockWait = 200 * time.Millisecond

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that the skill index, its lock, the staging queue and the backups
are in a usable state. Run this command when a build seems stuck, or before
filing a bug report.`,
	PersistentPreRunE: loadRuntimeTolerant,
	RunE:              runDoctor,
}

var doctorFixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Automatically fix detected issues",
	Long: `Fix detected issues in the index environment.

Currently fixes:
  - Orphaned merge temp files (.pss_merge_tmp_*) next to the index

Run 'pssidx doctor' first to see what will be fixed.`,
	RunE: runDoctorFix,
}

// configErr holds the config error doctor reports instead of failing on.
var configErr error

func init() {
	doctorCmd.AddCommand(doctorFixCmd)
	rootCmd.AddCommand(doctorCmd)
}

func loadRuntimeTolerant(cmd *cobra.Command, args []string) error {
	configErr = loadRuntime(cmd, args)
	return nil
}

func runDoctorFix(cmd *cobra.Command, _ []string) error {
	if configErr != nil {
		return configErr
	}
	printSection("pssidx doctor fix")

	// ── Fix: delete orphaned merge temp files ─────────────────────────────────
	fmt.Println("\n[ Orphaned temp files ]")
	// A temp file is only orphaned when no merge is writing it.
	lock, err := merge.AcquireLock(cmd.Context(), cfg.LockPath, doctorLockWait)
	if errors.Is(err, merge.ErrLockTimeout) {
		printWarn("", fmt.Sprintf("%s is held: a merge is running, temp files left in place", cfg.LockPath))
		return fmt.Errorf("index lock is held, retry when no merge is running")
	}
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	orphans := findTempFiles(filepath.Dir(cfg.IndexPath))
	if len(orphans) == 0 {
		printOK("", "no orphaned temp files found, nothing to fix")
		return nil
	}

	var failed int
	for _, p := range orphans {
		if err := os.Remove(p); err != nil {
			printErr("", fmt.Sprintf("cannot delete %s: %v", p, err))
			failed++
		} else {
			printOK("", fmt.Sprintf("deleted %s", p))
		}
	}

	fmt.Println()
	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be deleted", failed)
	}
	printOK("", fmt.Sprintf("%d orphaned temp file(s) removed", len(orphans)))
	return nil
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("pssidx doctor")
	fmt.Println()

	// ── Check 1: config ───────────────────────────────────────────────────────
	fmt.Println("[ Config ]")
	if configErr != nil {
		failD("%v", configErr)
		fmt.Println()
		return fmt.Errorf("doctor found issues")
	}
	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath, _ = config.ConfigPath()
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		printSkip("", fmt.Sprintf("%s not found, using defaults (run 'pssidx config init')", cfgPath))
	} else {
		printOK("", fmt.Sprintf("valid YAML: %s", cfgPath))
	}
	fmt.Println()

	// ── Check 2: index ────────────────────────────────────────────────────────
	fmt.Println("[ Skill index ]")
	idx, err := index.Load(cfg.IndexPath)
	switch {
	case errors.Is(err, index.ErrNotFound):
		printMiss("", fmt.Sprintf("no index at %s yet; the first pass-1 merge creates it", cfg.IndexPath))
	case err != nil:
		failD("%v (run 'pssidx recover')", err)
	default:
		printOK("", fmt.Sprintf("%s: %d skill(s), pass %d, generated %s", cfg.IndexPath, len(idx.Skills), idx.Pass, idx.Generated))
		if idx.SkillsCount != len(idx.Skills) {
			printWarn("", fmt.Sprintf("declared skills_count %d differs from %d entries", idx.SkillsCount, len(idx.Skills)))
		}
	}
	fmt.Println()

	// ── Check 3: index lock ───────────────────────────────────────────────────
	fmt.Println("[ Index lock ]")
	lock, err := merge.AcquireLock(cmd.Context(), cfg.LockPath, doctorLockWait)
	switch {
	case errors.Is(err, merge.ErrLockTimeout):
		printWarn("", fmt.Sprintf("%s is held: a merge is running or a process hung", cfg.LockPath))
	case err != nil:
		failD("%v", err)
	default:
		_ = lock.Release()
		printOK("", fmt.Sprintf("%s is free", cfg.LockPath))
	}
	fmt.Println()

	// ── Check 4: staging queue ────────────────────────────────────────────────
	fmt.Println("[ Staging queue ]")
	queued, err := descriptor.List(cfg.QueueDir)
	switch {
	case err != nil:
		failD("%v", err)
	case len(queued) == 0:
		printOK("", fmt.Sprintf("%s is empty", cfg.QueueDir))
	default:
		printWarn("", fmt.Sprintf("%d descriptor(s) waiting in %s (run 'pssidx drain')", len(queued), cfg.QueueDir))
	}
	fmt.Println()

	// ── Check 5: orphaned temp files ──────────────────────────────────────────
	fmt.Println("[ Orphaned temp files ]")
	if orphans := findTempFiles(filepath.Dir(cfg.IndexPath)); len(orphans) == 0 {
		printOK("", "no orphaned temp files found")
	} else {
		for _, p := range orphans {
			printWarn("", p)
		}
		fmt.Println("     Run 'pssidx doctor fix' to delete them.")
		allOK = false
	}
	fmt.Println()

	// ── Check 6: backups ──────────────────────────────────────────────────────
	fmt.Println("[ Backups ]")
	backups, err := recovery.New(cfg.IndexPath, cfg.BackupRoot, cfg.BackupPrefix).List()
	switch {
	case err != nil:
		failD("%v", err)
	case len(backups) == 0:
		printWarn("", fmt.Sprintf("no %s* backups under %s; a failed validation cannot be recovered", cfg.BackupPrefix, cfg.BackupRoot))
	default:
		printOK("", fmt.Sprintf("%d backup(s), latest %s", len(backups), backups[0].Dir))
	}
	fmt.Println()

	// ── Check 7: domain registry ──────────────────────────────────────────────
	fmt.Println("[ Domain registry ]")
	if reg, err := domain.LoadRegistry(cfg.RegistryPath); errors.Is(err, os.ErrNotExist) {
		printMiss("", fmt.Sprintf("no registry at %s (run 'pssidx aggregate')", cfg.RegistryPath))
	} else if err != nil {
		failD("%v", err)
	} else {
		printOK("", fmt.Sprintf("%d domain(s) in %s", len(reg.Domains), cfg.RegistryPath))
	}
	fmt.Println()

	// ── Summary ───────────────────────────────────────────────────────────────
	fmt.Println("===================")
	if allOK {
		printOK("", "All checks passed.")
	} else {
		printErr("", "One or more checks failed. See details above.")
		return fmt.Errorf("doctor found issues")
	}
	return nil
}

// findTempFiles returns merge temp files left in dir by interrupted writes.
func findTempFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var found []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), index.TempPrefix) {
			found = append(found, filepath.Join(dir, e.Name()))
		}
	}
	return found
}
