package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TempPrefix names the temporary files left next to a target while it is
// being replaced. They never carry the descriptor extension.
const TempPrefix = ".pss_merge_tmp_"

// rename is swapped in tests to simulate a crash between write and rename.
var rename = os.Rename

// Write persists idx to path atomically.
func Write(path string, idx *Index) error {
	return WriteJSON(path, idx)
}

// WriteJSON encodes v as indented JSON into a temporary file in the target's
// directory and renames it over path. On any failure the temporary file is
// removed and the existing target is left as it was.
func WriteJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: cannot create dir %s: %w", ErrPersistence, dir, err)
	}

	tmp, err := os.CreateTemp(dir, TempPrefix+"*.json")
	if err != nil {
		return fmt.Errorf("%w: cannot create temp file in %s: %w", ErrPersistence, dir, err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: cannot encode %s: %w", ErrPersistence, path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: cannot sync %s: %w", ErrPersistence, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: cannot close %s: %w", ErrPersistence, tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("%w: cannot chmod %s: %w", ErrPersistence, tmpPath, err)
	}
	if err := rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: cannot replace %s: %w", ErrPersistence, path, err)
	}

	success = true
	return nil
}
