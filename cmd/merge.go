package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kamusis/pss-index/internal/descriptor"
	"github.com/kamusis/pss-index/internal/merge"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <descriptor.pss>...",
	Short: "Merge partial descriptors into the skill index",
	Long: `Merge one or more partial descriptors into the skill index under the
index lock. Each merged descriptor is deleted; a failed one is kept so it can
be retried.

  --pass 1   factual fields (creates the entry if needed)
  --pass 2   co-usage and tier (the entry must already exist)
  --pass 0   detect the pass from each descriptor's content (default)`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

var flagMergePass int

func init() {
	mergeCmd.Flags().IntVar(&flagMergePass, "pass", 0, "merge pass: 1, 2, or 0 to auto-detect")
	rootCmd.AddCommand(mergeCmd)
}

// newEngine builds the merge engine for the resolved config.
func newEngine() *merge.Engine {
	return merge.NewEngine(cfg.IndexPath, cfg.LockPath, merge.WithLockTimeout(cfg.LockTimeout))
}

func parsePassFlag(n int) (descriptor.Pass, error) {
	if n == 0 {
		return descriptor.PassAuto, nil
	}
	return descriptor.ParsePass(n)
}

func runMerge(cmd *cobra.Command, args []string) error {
	pass, err := parsePassFlag(flagMergePass)
	if err != nil {
		return err
	}
	return mergeFiles(cmd.Context(), newEngine(), args, pass)
}

func mergeFiles(ctx context.Context, eng *merge.Engine, paths []string, pass descriptor.Pass) error {
	var failed int
	for _, p := range paths {
		res, err := eng.Merge(ctx, p, pass)
		if err != nil {
			failed++
			printErr("", err.Error())
			if errors.Is(err, merge.ErrUnknownSkill) {
				printInfo("", "run pass 1 for this skill first; the descriptor was kept")
			}
			continue
		}
		printOK(res.Skill, fmt.Sprintf("merged (%s)", res.Pass))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d descriptor(s) failed to merge", failed, len(paths))
	}
	return nil
}
