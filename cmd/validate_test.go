package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func setValidateFlags(t *testing.T, f validateFlags) {
	t.Helper()
	prev := flagValidate
	flagValidate = f
	t.Cleanup(func() { flagValidate = prev })
}

func TestValidate_NoBackupExitsTwo(t *testing.T) {
	c := useTestConfig(t)
	withContext(t, validateCmd)
	writeFile(t, c.IndexPath, "{not json")
	setValidateFlags(t, validateFlags{restoreOnFailure: true})

	err := runValidate(validateCmd, nil)
	if got := exitCode(err); got != exitNoBackup {
		t.Fatalf("exit code = %d (err %v), want %d", got, err, exitNoBackup)
	}
}

func TestValidate_RestoresLatestBackup(t *testing.T) {
	c := useTestConfig(t)
	withContext(t, validateCmd)
	writeFile(t, c.IndexPath, "{not json")
	good := `{"version":"3.0","skills":{}}`
	writeFile(t, filepath.Join(c.BackupRoot, "pss-backup-20250101_000000", "skill-index.json"), "old")
	writeFile(t, filepath.Join(c.BackupRoot, "pss-backup-20250301_120000", "skill-index.json"), good)
	setValidateFlags(t, validateFlags{restoreOnFailure: true})

	err := runValidate(validateCmd, nil)
	if got := exitCode(err); got != exitInvalid {
		t.Fatalf("exit code = %d (err %v), want %d", got, err, exitInvalid)
	}
	b, rerr := os.ReadFile(c.IndexPath)
	if rerr != nil || string(b) != good {
		t.Fatalf("index = %q (err %v), want the newest backup", b, rerr)
	}
}

func TestValidate_FailureWithoutRestoreLeavesIndex(t *testing.T) {
	c := useTestConfig(t)
	withContext(t, validateCmd)
	writeFile(t, c.IndexPath, "{not json")
	setValidateFlags(t, validateFlags{json: true})

	if got := exitCode(runValidate(validateCmd, nil)); got != exitInvalid {
		t.Fatalf("exit code = %d, want %d", got, exitInvalid)
	}
	if b, _ := os.ReadFile(c.IndexPath); string(b) != "{not json" {
		t.Fatalf("validation must not touch the index, got %q", b)
	}
}

func TestValidate_CleanupPSS(t *testing.T) {
	c := useTestConfig(t)
	withContext(t, validateCmd)
	writeFile(t, c.IndexPath, "{not json")
	leftover := filepath.Join(c.QueueDir, "x.pss")
	writeFile(t, leftover, `{"name":"x"}`)
	setValidateFlags(t, validateFlags{cleanupPSS: true})

	_ = runValidate(validateCmd, nil)
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Fatalf("queue leftover not cleaned: %v", err)
	}
}

func TestValidate_InvalidPassFlag(t *testing.T) {
	useTestConfig(t)
	withContext(t, validateCmd)
	setValidateFlags(t, validateFlags{pass: 3})
	if err := runValidate(validateCmd, nil); err == nil {
		t.Fatal("expected error for --pass 3")
	}
}

func TestRecover_NoBackup(t *testing.T) {
	useTestConfig(t)
	withContext(t, recoverCmd)
	if got := exitCode(runRecover(recoverCmd, nil)); got != exitNoBackup {
		t.Fatalf("exit code = %d, want %d", got, exitNoBackup)
	}
}

func TestBackupThenRecover(t *testing.T) {
	c := useTestConfig(t)
	withContext(t, backupCmd, recoverCmd)
	body := `{"version":"3.0","skills":{}}`
	writeFile(t, c.IndexPath, body)

	if err := runBackup(backupCmd, nil); err != nil {
		t.Fatalf("backup: %v", err)
	}
	writeFile(t, c.IndexPath, "corrupt")
	if err := runRecover(recoverCmd, nil); err != nil {
		t.Fatalf("recover: %v", err)
	}
	if b, _ := os.ReadFile(c.IndexPath); string(b) != body {
		t.Fatalf("index = %q, want %q", b, body)
	}
}
