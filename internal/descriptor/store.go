package descriptor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/kamusis/pss-index/internal/index"
)

// Stage writes d into queueDir under a unique name and returns its path.
//
// The file appears in the queue only once fully written, so a concurrent drain
// never sees a truncated descriptor.
func Stage(queueDir string, d *Descriptor) (string, error) {
	if d == nil || strings.TrimSpace(d.Name) == "" {
		return "", fmt.Errorf("%w: descriptor has no name", ErrMalformed)
	}
	name := fmt.Sprintf("%s-%s%s", fileSafe(d.Name), uuid.NewString(), Ext)
	path := filepath.Join(queueDir, name)
	if err := index.WriteJSON(path, d); err != nil {
		return "", fmt.Errorf("cannot stage descriptor for %s: %w", d.Name, err)
	}
	return path, nil
}

// List returns the descriptors sitting directly in queueDir, sorted by name.
// Nested directories are not part of the queue.
func List(queueDir string) ([]string, error) {
	info, err := os.Stat(queueDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot stat queue %s: %w", queueDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("queue path is not a directory: %s", queueDir)
	}

	matches, err := doublestar.Glob(os.DirFS(queueDir), "*"+Ext)
	if err != nil {
		return nil, fmt.Errorf("cannot scan queue %s: %w", queueDir, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		p := filepath.Join(queueDir, filepath.FromSlash(m))
		if isRegular(p) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// IsDescriptor reports whether path names a descriptor file.
func IsDescriptor(path string) bool {
	return filepath.Ext(path) == Ext
}

func isRegular(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

func fileSafe(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), ".")
}
