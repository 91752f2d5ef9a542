package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Replace the skill index with a backup",
	Long: `Delete the current skill index and restore it from the newest backup
(or from --backup-dir). Backups are directories named
<prefix>YYYYMMDD_HHMMSS under the backup root.

Exit status 2 means no backup was available: the index is gone and must be
rebuilt from scratch.`,
	Args: cobra.NoArgs,
	RunE: runRecover,
}

var flagRecoverDir string

func init() {
	recoverCmd.Flags().StringVar(&flagRecoverDir, "backup-dir", "", "restore from this backup instead of the latest")
	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, _ []string) error {
	if err := restoreIndex(cmd.Context(), flagRecoverDir, true); err != nil {
		return err
	}
	fmt.Println()
	printOK("", "run 'pssidx validate' to check the restored index")
	return nil
}
