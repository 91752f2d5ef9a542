package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kamusis/pss-index/internal/config"
	"github.com/kamusis/pss-index/internal/index"
	"github.com/kamusis/pss-index/internal/merge"
)

func TestDoctor_OrphanedTempFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvConfigPath, "")
	c := useTestConfig(t)
	withContext(t, doctorCmd, doctorFixCmd)
	prev := configErr
	configErr = nil
	t.Cleanup(func() { configErr = prev })

	if err := runDoctor(doctorCmd, nil); err != nil {
		t.Fatalf("doctor on a fresh environment: %v", err)
	}

	orphan := filepath.Join(filepath.Dir(c.IndexPath), index.TempPrefix+"123.json")
	writeFile(t, orphan, "{")
	if err := runDoctor(doctorCmd, nil); err == nil {
		t.Fatal("doctor must flag orphaned temp files")
	}

	if err := runDoctorFix(doctorFixCmd, nil); err != nil {
		t.Fatalf("doctor fix: %v", err)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatalf("orphan survived doctor fix: %v", err)
	}
	if err := runDoctor(doctorCmd, nil); err != nil {
		t.Fatalf("doctor after fix: %v", err)
	}
}

func TestDoctorFix_LeavesTempFilesWhileLocked(t *testing.T) {
	c := useTestConfig(t)
	withContext(t, doctorFixCmd)
	prev := configErr
	configErr = nil
	t.Cleanup(func() { configErr = prev })

	orphan := filepath.Join(filepath.Dir(c.IndexPath), index.TempPrefix+"456.json")
	writeFile(t, orphan, "{")

	lock, err := merge.AcquireLock(context.Background(), c.LockPath, 0)
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	if err := runDoctorFix(doctorFixCmd, nil); err == nil {
		t.Fatal("doctor fix must refuse to run while the index lock is held")
	}
	if _, err := os.Stat(orphan); err != nil {
		t.Fatalf("temp file removed under a held lock: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release lock: %v", err)
	}
	if err := runDoctorFix(doctorFixCmd, nil); err != nil {
		t.Fatalf("doctor fix after release: %v", err)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatalf("orphan survived doctor fix: %v", err)
	}
}

func TestFindTempFiles_MissingDir(t *testing.T) {
	if got := findTempFiles(filepath.Join(t.TempDir(), "nope")); got != nil {
		t.Fatalf("findTempFiles = %v, want nil", got)
	}
}
