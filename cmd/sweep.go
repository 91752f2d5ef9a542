package cmd

import (
	"fmt"

	"github.com/kamusis/pss-index/internal/sweep"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete stale .pss descriptors",
	Long: `Delete leftover partial descriptors from the configured skill
directories (recursively) and from the staging queue. Run it after a complete
index build; sweeping during a build would drop unmerged work.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

var (
	flagSweepDryRun  bool
	flagSweepVerbose bool
)

func init() {
	sweepCmd.Flags().BoolVar(&flagSweepDryRun, "dry-run", false, "show what would be deleted without deleting")
	sweepCmd.Flags().BoolVar(&flagSweepVerbose, "verbose", false, "list every file")
	rootCmd.AddCommand(sweepCmd)
}

func sweepLocations() []sweep.Location {
	locs := make([]sweep.Location, 0, len(cfg.SkillDirs))
	for _, d := range cfg.SkillDirs {
		locs = append(locs, sweep.Location{Label: d.Label, Dir: d.Path})
	}
	return locs
}

func runSweep(cmd *cobra.Command, _ []string) error {
	printSection("pssidx sweep")
	res, sweepErr := sweep.Sweep(cmd.Context(), sweepLocations(), cfg.QueueDir, sweep.Options{DryRun: flagSweepDryRun})
	if res.Found == 0 {
		printOK("", "no stale .pss files found")
		return sweepErr
	}

	for _, g := range res.Groups {
		if flagSweepDryRun {
			printInfo(g.Name(), fmt.Sprintf("%d file(s) would be deleted", len(g.Files)))
		} else {
			printOK(g.Name(), fmt.Sprintf("deleted %d of %d file(s)", g.Removed, len(g.Files)))
			if g.Deferred > 0 {
				printWarn(g.Name(), fmt.Sprintf("%d locked file(s) will be deleted at next reboot", g.Deferred))
			}
		}
		if flagSweepVerbose {
			for _, f := range g.Files {
				printMiss("", f)
			}
		}
	}

	fmt.Println()
	if flagSweepDryRun {
		printInfo("", fmt.Sprintf("dry run: %d file(s) found, nothing deleted", res.Found))
		return nil
	}
	if sweepErr != nil {
		printErr("", sweepErr.Error())
		return fmt.Errorf("%d of %d file(s) could not be deleted", res.Found-res.Removed-res.Deferred, res.Found)
	}
	printOK("", fmt.Sprintf("%d stale file(s) removed", res.Removed))
	if res.Deferred > 0 {
		printWarn("", fmt.Sprintf("%d stale file(s) deferred until reboot", res.Deferred))
	}
	return nil
}
