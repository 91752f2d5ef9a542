// Package recovery restores the skill index from backup snapshots after a
// failed validation, and takes those snapshots before a risky rebuild.
package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kamusis/pss-index/internal/index"
	"github.com/kamusis/pss-index/internal/logger"
)

const (
	// DefaultPrefix names backup directories: <prefix>YYYYMMDD_HHMMSS.
	DefaultPrefix = "pss-backup-"
	// TimeLayout is the timestamp embedded in backup directory names.
	TimeLayout = "20060102_150405"
	// ManifestName is the optional metadata file inside a backup directory.
	ManifestName = "backup.json"
)

// ErrNoBackup indicates that no usable backup exists. The caller has to
// rebuild the index from scratch.
var ErrNoBackup = errors.New("no backup available")

// Manifest describes a snapshot. When present its CreatedAt wins over the
// time encoded in the directory name.
type Manifest struct {
	CreatedAt   time.Time `json:"created_at"`
	Source      string    `json:"source"`
	SkillsCount int       `json:"skills_count"`
}

// Backup is one snapshot directory.
type Backup struct {
	Dir       string
	CreatedAt time.Time
	Manifest  *Manifest
}

// Controller restores and snapshots one index file.
type Controller struct {
	IndexPath string
	Root      string
	Prefix    string
}

// New returns a Controller for indexPath with backups under root.
func New(indexPath, root, prefix string) *Controller {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Controller{IndexPath: indexPath, Root: root, Prefix: prefix}
}

// List returns the backups under the controller root, newest first.
// Directories whose name carries no parsable timestamp and no manifest are
// ignored.
func (c *Controller) List() ([]Backup, error) {
	entries, err := os.ReadDir(c.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read backup root %s: %w", c.Root, err)
	}

	var out []Backup
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, c.Prefix) {
			continue
		}
		dir := filepath.Join(c.Root, name)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		b := Backup{Dir: dir}
		if ts, ok := parseStamp(strings.TrimPrefix(name, c.Prefix)); ok {
			b.CreatedAt = ts
		}
		if m, err := readManifest(dir); err == nil {
			b.Manifest = m
			if !m.CreatedAt.IsZero() {
				b.CreatedAt = m.CreatedAt
			}
		}
		if b.CreatedAt.IsZero() {
			continue
		}
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Dir > out[j].Dir
	})
	return out, nil
}

// Latest returns the newest backup, or ErrNoBackup.
func (c *Controller) Latest() (Backup, error) {
	backups, err := c.List()
	if err != nil {
		return Backup{}, err
	}
	if len(backups) == 0 {
		return Backup{}, fmt.Errorf("%w: no %s* directory under %s", ErrNoBackup, c.Prefix, c.Root)
	}
	return backups[0], nil
}

// Recover deletes the current index and restores it from backupDir, or from
// the latest backup when backupDir is empty. It returns the directory used.
//
// When no backup is usable the index stays deleted and ErrNoBackup is
// returned.
func (c *Controller) Recover(ctx context.Context, backupDir string) (string, error) {
	log := logger.G(ctx).WithField("index", c.IndexPath)

	if err := os.Remove(c.IndexPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("cannot delete invalid index: %w", err)
	}
	log.Debug("invalid index deleted")

	if backupDir == "" {
		b, err := c.Latest()
		if err != nil {
			return "", err
		}
		backupDir = b.Dir
	}

	src, err := backupIndex(backupDir, filepath.Base(c.IndexPath))
	if err != nil {
		return "", err
	}
	if err := copyFile(src, c.IndexPath); err != nil {
		return "", fmt.Errorf("cannot restore backup: %w", err)
	}
	log.WithField("backup", backupDir).Info("index restored from backup")
	return backupDir, nil
}

// backupIndex returns the index file inside backupDir. Backups taken under a
// custom index path hold that base name; all others hold index.FileName.
func backupIndex(backupDir, base string) (string, error) {
	names := []string{base}
	if base != index.FileName {
		names = append(names, index.FileName)
	}
	for _, name := range names {
		src := filepath.Join(backupDir, name)
		_, err := os.Stat(src)
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("cannot stat backup index: %w", err)
		}
	}
	return "", fmt.Errorf("%w: no backup index in %s", ErrNoBackup, backupDir)
}

// Snapshot copies the current index into a new timestamped backup directory
// and records a manifest next to it.
func (c *Controller) Snapshot(ctx context.Context, now time.Time) (Backup, error) {
	idx, err := index.Load(c.IndexPath)
	if err != nil {
		return Backup{}, err
	}

	if err := os.MkdirAll(c.Root, 0o755); err != nil {
		return Backup{}, fmt.Errorf("cannot create backup root: %w", err)
	}
	base := filepath.Join(c.Root, c.Prefix+now.Format(TimeLayout))
	dir := base
	for i := 1; ; i++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return Backup{}, fmt.Errorf("cannot create backup dir: %w", err)
		}
		dir = fmt.Sprintf("%s_%d", base, i)
	}

	if err := copyFile(c.IndexPath, filepath.Join(dir, filepath.Base(c.IndexPath))); err != nil {
		return Backup{}, fmt.Errorf("cannot copy index into backup: %w", err)
	}
	m := &Manifest{CreatedAt: now.UTC(), Source: c.IndexPath, SkillsCount: len(idx.Skills)}
	if err := index.WriteJSON(filepath.Join(dir, ManifestName), m); err != nil {
		return Backup{}, err
	}

	logger.G(ctx).WithField("backup", dir).Info("index snapshot written")
	return Backup{Dir: dir, CreatedAt: m.CreatedAt, Manifest: m}, nil
}

func parseStamp(s string) (time.Time, bool) {
	if len(s) < len(TimeLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimeLayout, s[:len(TimeLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func readManifest(dir string) (*Manifest, error) {
	b, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
