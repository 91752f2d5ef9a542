package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/kamusis/pss-index/internal/descriptor"
	"github.com/spf13/cobra"
)

var stageCmd = &cobra.Command{
	Use:   "stage <file.json|->...",
	Short: "Queue partial descriptors for the next drain",
	Long: `Copy analysis results into the staging queue as <skill>-<uuid>.pss.
A file only appears in the queue once fully written, so a running
'pssidx watch' or 'pssidx drain' never sees half a descriptor.
Use "-" to read a descriptor from stdin.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStage,
}

func init() {
	rootCmd.AddCommand(stageCmd)
}

func runStage(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(cfg.QueueDir, 0o755); err != nil {
		return fmt.Errorf("cannot create queue %s: %w", cfg.QueueDir, err)
	}
	for _, arg := range args {
		var (
			data []byte
			err  error
		)
		if arg == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(arg)
		}
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", arg, err)
		}
		d, err := descriptor.Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		path, err := descriptor.Stage(cfg.QueueDir, d)
		if err != nil {
			return err
		}
		printOK(d.Name, fmt.Sprintf("staged %s (%s)", path, descriptor.DetectPass(d)))
	}
	return nil
}
