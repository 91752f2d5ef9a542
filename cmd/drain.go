package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/kamusis/pss-index/internal/merge"
	"github.com/spf13/cobra"
)

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Merge every descriptor waiting in the queue",
	Long: `Merge every *.pss file in the staging queue. Pass-1 descriptors are
merged before pass-2 descriptors; lock timeouts are retried. Failed
descriptors stay in the queue.`,
	Args: cobra.NoArgs,
	RunE: runDrain,
}

var (
	flagDrainConcurrency int
	flagDrainAttempts    uint
)

func init() {
	drainCmd.Flags().IntVar(&flagDrainConcurrency, "concurrency", 0, "parallel merges (default from config)")
	drainCmd.Flags().UintVar(&flagDrainAttempts, "attempts", 0, "attempts per descriptor on lock timeout (default from config)")
	rootCmd.AddCommand(drainCmd)
}

func drainOptions() merge.DrainOptions {
	opts := merge.DrainOptions{Concurrency: cfg.DrainConcurrency, Attempts: cfg.DrainAttempts}
	if flagDrainConcurrency > 0 {
		opts.Concurrency = flagDrainConcurrency
	}
	if flagDrainAttempts > 0 {
		opts.Attempts = flagDrainAttempts
	}
	return opts
}

func runDrain(cmd *cobra.Command, _ []string) error {
	printSection("pssidx drain")
	res, err := newEngine().Drain(cmd.Context(), cfg.QueueDir, drainOptions())
	if err != nil {
		return err
	}
	if len(res.Merged)+len(res.Failed) == 0 {
		printSkip("", fmt.Sprintf("queue %s is empty", cfg.QueueDir))
		return nil
	}
	for _, o := range res.Merged {
		printOK(o.Skill, fmt.Sprintf("merged (%s)", o.Pass))
	}
	for _, o := range res.Failed {
		printErr(outcomeName(o), o.Err.Error())
	}

	fmt.Println()
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d merged, %d failed (descriptors kept in %s)", len(res.Merged), len(res.Failed), cfg.QueueDir)
	}
	printOK("", fmt.Sprintf("%d descriptor(s) merged", len(res.Merged)))
	return nil
}

// outcomeName labels an outcome by skill, or by file when the descriptor
// could not be read.
func outcomeName(o merge.Outcome) string {
	if o.Skill != "" {
		return o.Skill
	}
	return filepath.Base(o.Descriptor)
}
