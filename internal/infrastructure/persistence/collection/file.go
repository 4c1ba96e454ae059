package collection

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds one file per collection.
type Paths struct {
	Students    string
	Disciplines string
	Grades      string
}

// For returns the file that stores kind.
func (p Paths) For(kind Kind) string {
	switch kind {
	case KindStudents:
		return p.Students
	case KindDisciplines:
		return p.Disciplines
	default:
		return p.Grades
	}
}

// ReadFile returns the file contents; a missing file reads as empty.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

// WriteFile rewrites path with data. The default rewrite truncates in place,
// so a crash mid-write can leave a truncated file. With atomic set the data
// goes to a sibling temp file that is renamed over path.
func WriteFile(path string, data []byte, atomic bool) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if !atomic {
		return os.WriteFile(path, data, 0o644)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
