package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kamusis/pss-index/internal/index"
)

// SkillDir is a skill-bearing directory swept for stale descriptors.
type SkillDir struct {
	Label string `yaml:"label"`
	Path  string `yaml:"path"`
}

// Config is the in-memory representation of ~/.pss/config.yaml.
type Config struct {
	IndexPath string `yaml:"index_path"`
	// LockPath defaults to the index path with a .lock extension.
	LockPath      string `yaml:"lock_path,omitempty"`
	QueueDir      string `yaml:"queue_dir"`
	RegistryPath  string `yaml:"registry_path"`
	ChecklistPath string `yaml:"checklist_path"`
	BackupRoot    string `yaml:"backup_root"`
	BackupPrefix  string `yaml:"backup_prefix"`

	SkillDirs []SkillDir `yaml:"skill_dirs,omitempty"`

	// LockTimeout bounds index lock waits; zero blocks until granted.
	LockTimeout      time.Duration `yaml:"lock_timeout,omitempty"`
	DrainConcurrency int           `yaml:"drain_concurrency,omitempty"`
	DrainAttempts    uint          `yaml:"drain_attempts,omitempty"`
}

// Environment keys that override the config file.
const (
	EnvIndex       = "PSS_INDEX"
	EnvLock        = "PSS_LOCK"
	EnvQueueDir    = "PSS_QUEUE_DIR"
	EnvRegistry    = "PSS_REGISTRY"
	EnvChecklist   = "PSS_CHECKLIST"
	EnvBackupRoot  = "PSS_BACKUP_ROOT"
	EnvLockTimeout = "PSS_LOCK_TIMEOUT"
	EnvConcurrency = "PSS_DRAIN_CONCURRENCY"
	EnvLogLevel    = "PSS_LOG_LEVEL"
	EnvConfigPath  = "PSS_CONFIG"
)

const (
	defaultPrefix   = "pss-backup-"
	defaultAttempts = 5
)

// PSSDir returns the absolute path to ~/.pss/.
func PSSDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".pss"), nil
}

// ConfigPath returns the config file path: $PSS_CONFIG, or ~/.pss/config.yaml.
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return ExpandPath(p)
	}
	dir, err := PSSDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the default Config written by `pssidx config init`.
func DefaultConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	cache := func(name string) string { return filepath.Join(home, ".claude", "cache", name) }

	return &Config{
		IndexPath:     cache(index.FileName),
		QueueDir:      filepath.Join(os.TempDir(), "pss-queue"),
		RegistryPath:  cache("domain-registry.json"),
		ChecklistPath: cache("skill-checklist.md"),
		BackupRoot:    os.TempDir(),
		BackupPrefix:  defaultPrefix,
		SkillDirs: []SkillDir{
			{Label: "user", Path: filepath.Join(home, ".claude", "skills")},
			{Label: "agents", Path: filepath.Join(home, ".claude", "agents")},
			{Label: "commands", Path: filepath.Join(home, ".claude", "commands")},
		},
		DrainConcurrency: 4,
		DrainAttempts:    defaultAttempts,
	}, nil
}

// Load reads the config file at path ("" selects ConfigPath). A missing file
// yields the defaults. Blank settings fall back to their defaults, and
// environment / ~/.pss/.env values override the file.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	default:
		var file Config
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
		cfg.merge(&file)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if cfg.LockPath == "" {
		cfg.LockPath = LockPathFor(cfg.IndexPath)
	}
	return cfg, nil
}

// LockPathFor returns the default lock file for the index at indexPath.
func LockPathFor(indexPath string) string {
	return strings.TrimSuffix(indexPath, filepath.Ext(indexPath)) + ".lock"
}

// Save marshals cfg and writes it to path ("" selects ConfigPath).
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}

func (c *Config) merge(f *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.IndexPath, f.IndexPath)
	set(&c.LockPath, f.LockPath)
	set(&c.QueueDir, f.QueueDir)
	set(&c.RegistryPath, f.RegistryPath)
	set(&c.ChecklistPath, f.ChecklistPath)
	set(&c.BackupRoot, f.BackupRoot)
	set(&c.BackupPrefix, f.BackupPrefix)
	if f.SkillDirs != nil {
		c.SkillDirs = f.SkillDirs
	}
	if f.LockTimeout > 0 {
		c.LockTimeout = f.LockTimeout
	}
	if f.DrainConcurrency > 0 {
		c.DrainConcurrency = f.DrainConcurrency
	}
	if f.DrainAttempts > 0 {
		c.DrainAttempts = f.DrainAttempts
	}
}

func (c *Config) applyEnv() error {
	for key, dst := range map[string]*string{
		EnvIndex:      &c.IndexPath,
		EnvLock:       &c.LockPath,
		EnvQueueDir:   &c.QueueDir,
		EnvRegistry:   &c.RegistryPath,
		EnvChecklist:  &c.ChecklistPath,
		EnvBackupRoot: &c.BackupRoot,
	} {
		v, err := GetConfigValue(key)
		if err != nil {
			return err
		}
		if v == "" {
			continue
		}
		*dst = v
	}

	if v, err := GetConfigValue(EnvLockTimeout); err != nil {
		return err
	} else if v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvLockTimeout, v, err)
		}
		c.LockTimeout = d
	}
	if v, err := GetConfigValue(EnvConcurrency); err != nil {
		return err
	} else if v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid %s %q", EnvConcurrency, v)
		}
		c.DrainConcurrency = n
	}
	return nil
}

func (c *Config) expand() error {
	for _, p := range []*string{
		&c.IndexPath, &c.LockPath, &c.QueueDir, &c.RegistryPath, &c.ChecklistPath, &c.BackupRoot,
	} {
		v, err := ExpandPath(*p)
		if err != nil {
			return err
		}
		*p = v
	}
	for i := range c.SkillDirs {
		v, err := ExpandPath(c.SkillDirs[i].Path)
		if err != nil {
			return err
		}
		c.SkillDirs[i].Path = v
	}
	return nil
}
