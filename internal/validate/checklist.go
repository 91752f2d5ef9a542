package validate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseChecklist extracts the expected skill names from a checklist such as
//
//	- [ ] skill-name (source: user, path: /path/to/SKILL.md)
//	- [x] other-skill
func ParseChecklist(r io.Reader) ([]string, error) {
	var names []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "- [") {
			continue
		}
		_, rest, ok := strings.Cut(line, "] ")
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(rest, " (")
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cannot read checklist: %w", err)
	}
	return names, nil
}

// LoadChecklist parses the checklist at path. A missing file yields no names
// and no error.
func LoadChecklist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot open checklist %s: %w", path, err)
	}
	defer f.Close()
	return ParseChecklist(f)
}
