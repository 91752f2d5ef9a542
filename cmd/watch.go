package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kamusis/pss-index/internal/merge"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Merge descriptors as workers drop them into the queue",
	Long: `Drain the staging queue, then keep watching it and merge each new
descriptor shortly after it lands. Pass-2 descriptors that arrive before
their pass-1 entry are held and retried. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var flagWatchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&flagWatchDebounce, "debounce", merge.DefaultDebounce, "quiet period before a new descriptor is merged")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printSection("pssidx watch")
	printInfo("", fmt.Sprintf("watching %s (Ctrl-C to stop)", cfg.QueueDir))

	err := newEngine().Watch(ctx, cfg.QueueDir, merge.WatchOptions{
		Debounce: flagWatchDebounce,
		Drain:    drainOptions(),
		OnOutcome: func(o merge.Outcome) {
			switch {
			case o.Err == nil:
				printOK(o.Skill, fmt.Sprintf("merged (%s)", o.Pass))
			case errors.Is(o.Err, merge.ErrUnknownSkill):
				printInfo(outcomeName(o), "pass 2 waiting for its pass-1 entry")
			default:
				printErr(outcomeName(o), o.Err.Error())
			}
		},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Println()
	printInfo("", "watch stopped")
	return nil
}
