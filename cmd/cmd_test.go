package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kamusis/pss-index/internal/config"
)

// useTestConfig points the package config at a fresh temp tree.
func useTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	c := &config.Config{
		IndexPath:        filepath.Join(dir, "cache", "skill-index.json"),
		LockPath:         filepath.Join(dir, "cache", "skill-index.lock"),
		QueueDir:         filepath.Join(dir, "queue"),
		RegistryPath:     filepath.Join(dir, "cache", "domain-registry.json"),
		ChecklistPath:    filepath.Join(dir, "cache", "skill-checklist.md"),
		BackupRoot:       filepath.Join(dir, "backups"),
		BackupPrefix:     "pss-backup-",
		SkillDirs:        []config.SkillDir{{Label: "user", Path: filepath.Join(dir, "skills")}},
		DrainConcurrency: 2,
		DrainAttempts:    1,
	}
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
	return c
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func withContext(t *testing.T, cmds ...interface{ SetContext(context.Context) }) {
	t.Helper()
	for _, c := range cmds {
		c.SetContext(context.Background())
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{os.ErrNotExist, exitInvalid},
		{withExit(exitNoBackup, os.ErrNotExist), exitNoBackup},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Errorf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestLoadRuntime_IndexFlagMovesDerivedLock(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{config.EnvIndex, config.EnvLock, config.EnvConfigPath, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
	prevCfg, prevConfig, prevIndex := cfg, flagConfig, flagIndex
	t.Cleanup(func() { cfg, flagConfig, flagIndex = prevCfg, prevConfig, prevIndex })

	flagConfig = filepath.Join(home, "missing.yaml")
	flagIndex = filepath.Join(home, "idx", "custom.json")
	if err := loadRuntime(nil, nil); err != nil {
		t.Fatalf("loadRuntime: %v", err)
	}
	if cfg.IndexPath != flagIndex {
		t.Fatalf("index path = %s, want %s", cfg.IndexPath, flagIndex)
	}
	if want := filepath.Join(home, "idx", "custom.lock"); cfg.LockPath != want {
		t.Fatalf("lock path = %s, want %s", cfg.LockPath, want)
	}
}

func TestLoadRuntime_ExplicitLockKept(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvIndex, "")
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv(config.EnvLogLevel, "")
	lock := filepath.Join(home, "shared.lock")
	t.Setenv(config.EnvLock, lock)
	prevCfg, prevConfig, prevIndex := cfg, flagConfig, flagIndex
	t.Cleanup(func() { cfg, flagConfig, flagIndex = prevCfg, prevConfig, prevIndex })

	flagConfig = filepath.Join(home, "missing.yaml")
	flagIndex = filepath.Join(home, "other.json")
	if err := loadRuntime(nil, nil); err != nil {
		t.Fatalf("loadRuntime: %v", err)
	}
	if cfg.LockPath != lock {
		t.Fatalf("lock path = %s, want %s", cfg.LockPath, lock)
	}
}
