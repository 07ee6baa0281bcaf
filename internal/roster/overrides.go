package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Override file format: CSV with header "SUBURB,Assigned", one row per
// overridden suburb. The file is an ordered sequence; when duplicate
// suburb keys exist on disk the last row wins, so a rewrite that keeps
// one row per key is always a faithful compaction.

// OverrideStore persists reassignment overrides next to the completion log.
type OverrideStore struct {
	path   string
	logger *log.Logger
}

// NewOverrideStore creates a store backed by the given file path.
// If logger is nil, a default stderr logger is used.
func NewOverrideStore(path string, logger *log.Logger) *OverrideStore {
	if logger == nil {
		logger = log.New(os.Stderr, "[overrides] ", log.LstdFlags)
	}
	return &OverrideStore{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *OverrideStore) Path() string {
	return s.path
}

// Load reads the override mapping from disk. A missing file yields an
// empty mapping. Rows without both fields are skipped with a warning.
func (s *OverrideStore) Load() (map[string]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to open override file %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows, validated per row below

	overrides := map[string]string{}
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Only parse errors advance past the bad line; anything
			// else (I/O failure, path is a directory) repeats forever.
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to read override file %s: %w", s.path, err)
			}
			s.logger.Printf("WARNING: skipping unreadable override row %d: %v", line+1, err)
			line++
			continue
		}
		line++

		if line == 1 && isOverrideHeader(record) {
			continue
		}
		if len(record) < 2 {
			s.logger.Printf("WARNING: skipping malformed override row %d (%d fields)", line, len(record))
			continue
		}

		suburb := NormalizeName(record[0])
		editor := strings.TrimSpace(record[1])
		if suburb == "" || editor == "" {
			s.logger.Printf("WARNING: skipping override row %d with empty field", line)
			continue
		}

		// Last write wins on duplicate keys.
		overrides[suburb] = editor
	}

	return overrides, nil
}

// Set records an override for suburb and rewrites the file. A prior
// override for the same suburb is replaced, not appended.
func (s *OverrideStore) Set(suburb, editor string) error {
	suburb = NormalizeName(suburb)
	editor = strings.TrimSpace(editor)
	if suburb == "" {
		return fmt.Errorf("override suburb name is empty")
	}
	if editor == "" {
		return fmt.Errorf("override editor is empty")
	}

	overrides, err := s.Load()
	if err != nil {
		return err
	}
	overrides[suburb] = editor

	return s.write(overrides)
}

// write rewrites the whole override file atomically: the new content goes
// to a temp file in the same directory and replaces the old file with a
// rename, so a failed write never corrupts the existing data.
func (s *OverrideStore) write(overrides map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create override directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".overrides-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp override file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"SUBURB", "Assigned"}); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write override header: %w", err)
	}

	suburbs := make([]string, 0, len(overrides))
	for suburb := range overrides {
		suburbs = append(suburbs, suburb)
	}
	sort.Strings(suburbs)

	for _, suburb := range suburbs {
		if err := w.Write([]string{suburb, overrides[suburb]}); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write override row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush override file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp override file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace override file: %w", err)
	}
	return nil
}

func isOverrideHeader(record []string) bool {
	return len(record) >= 2 &&
		strings.EqualFold(strings.TrimSpace(record[0]), "SUBURB") &&
		strings.EqualFold(strings.TrimSpace(record[1]), "Assigned")
}
