package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/kamusis/pss-index/internal/index"
	"github.com/kamusis/pss-index/internal/recovery"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the skill index into a timestamped backup",
	Args:  cobra.NoArgs,
	RunE:  runBackup,
}

var flagBackupList bool

func init() {
	backupCmd.Flags().BoolVar(&flagBackupList, "list", false, "list existing backups, newest first")
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, _ []string) error {
	rc := recovery.New(cfg.IndexPath, cfg.BackupRoot, cfg.BackupPrefix)
	if flagBackupList {
		backups, err := rc.List()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			printMiss("", fmt.Sprintf("no %s* backups under %s", cfg.BackupPrefix, cfg.BackupRoot))
			return nil
		}
		for _, b := range backups {
			line := b.CreatedAt.Format(time.DateTime)
			if b.Manifest != nil {
				line += fmt.Sprintf(", %d skill(s)", b.Manifest.SkillsCount)
			}
			printInfo("", fmt.Sprintf("%s (%s)", b.Dir, line))
		}
		return nil
	}

	b, err := rc.Snapshot(cmd.Context(), time.Now())
	if errors.Is(err, index.ErrNotFound) {
		return fmt.Errorf("nothing to back up: %w", err)
	}
	if err != nil {
		return err
	}
	printBackup("", fmt.Sprintf("%s → %s", cfg.IndexPath, b.Dir))
	return nil
}
