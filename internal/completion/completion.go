// Package completion persists the editor completion log.
//
// The log is a CSV file with header "Editor,Suburb,CompletedAt": one row
// per (editor, suburb) completion fact. In memory it is a mapping from
// editor to a set of suburb names; duplicates on disk collapse into the
// set on load.
//
// Save uses whole-replace semantics: the full mapping is reloaded, the
// saving editor's set is replaced (not merged), and the entire file is
// rewritten. Removing a suburb from a later save therefore retracts the
// completion. The alternative append-new-only contract (append rows not
// already on disk, never delete) was rejected: it silently ignores
// deselection, which surprises editors who un-mark a suburb.
//
// Writes go to a temp file in the same directory followed by a rename,
// so a failed save leaves the previous log intact.
package completion

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
	"time"

	"github.com/sjvdm/roadprog/internal/roster"
)

// Sets maps editor name to the set of suburb names they completed.
type Sets map[string]map[string]bool

// Contains reports whether editor has completed suburb.
// The suburb name is normalized before lookup.
func (s Sets) Contains(editor, suburb string) bool {
	return s[editor][roster.NormalizeName(suburb)]
}

// Editors returns the sorted editor names present in the mapping.
func (s Sets) Editors() []string {
	editors := make([]string, 0, len(s))
	for editor := range s {
		editors = append(editors, editor)
	}
	sort.Strings(editors)
	return editors
}

// row is one persisted completion fact.
type row struct {
	Editor      string
	Suburb      string
	CompletedAt time.Time
}

// Store reads and writes the completion log file.
type Store struct {
	path   string
	logger *log.Logger

	// now and createTemp are swappable for tests.
	now        func() time.Time
	createTemp func(dir, pattern string) (*os.File, error)
}

// NewStore creates a completion store backed by path.
// If logger is nil, a default stderr logger is used.
func NewStore(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[completion] ", log.LstdFlags)
	}
	return &Store{path: path, logger: logger, now: time.Now, createTemp: os.CreateTemp}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load parses the completion log into the editor → suburb-set mapping.
// A missing file yields an empty mapping. Rows missing the editor or
// suburb field are skipped with a warning, never fatal.
func (s *Store) Load() (Sets, error) {
	rows, err := s.loadRows()
	if err != nil {
		return nil, err
	}

	sets := Sets{}
	for _, r := range rows {
		set := sets[r.Editor]
		if set == nil {
			set = map[string]bool{}
			sets[r.Editor] = set
		}
		set[r.Suburb] = true
	}
	return sets, nil
}

// Save replaces editor's completed set with suburbs and rewrites the log.
//
// The full mapping is re-read immediately before the write, so a save only
// replaces the calling editor's rows. Rows that survive the save keep
// their original CompletedAt; newly completed suburbs are stamped now.
// Repeated identical saves are idempotent.
//
// Two editors saving at the same instant still race on the whole-file
// rewrite (last writer wins); see the tracker package for the documented
// limitation.
func (s *Store) Save(editor string, suburbs []string) error {
	editor = strings.TrimSpace(editor)
	if editor == "" {
		return fmt.Errorf("editor name is empty")
	}

	selected := map[string]bool{}
	for _, suburb := range suburbs {
		if key := roster.NormalizeName(suburb); key != "" {
			selected[key] = true
		}
	}

	rows, err := s.loadRows()
	if err != nil {
		return err
	}

	// Keep other editors untouched; keep this editor's rows that are
	// still selected so their timestamps survive.
	var kept []row
	existing := map[string]bool{}
	for _, r := range rows {
		if r.Editor != editor {
			kept = append(kept, r)
			continue
		}
		if selected[r.Suburb] && !existing[r.Suburb] {
			kept = append(kept, r)
			existing[r.Suburb] = true
		}
	}

	stamp := s.now().UTC()
	newKeys := make([]string, 0, len(selected))
	for suburb := range selected {
		if !existing[suburb] {
			newKeys = append(newKeys, suburb)
		}
	}
	sort.Strings(newKeys)
	for _, suburb := range newKeys {
		kept = append(kept, row{Editor: editor, Suburb: suburb, CompletedAt: stamp})
	}

	return s.write(kept)
}

// loadRows reads the raw row sequence, skipping malformed entries.
func (s *Store) loadRows() ([]row, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open completion log %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows []row
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
				return nil, fmt.Errorf("failed to read completion log %s: %w", s.path, err)
			}
			s.logger.Printf("WARNING: skipping unreadable completion row %d: %v", line+1, err)
			line++
			continue
		}
		line++

		if line == 1 && isHeader(record) {
			continue
		}
		if len(record) < 2 {
			s.logger.Printf("WARNING: skipping malformed completion row %d (%d fields)", line, len(record))
			continue
		}

		editor := strings.TrimSpace(record[0])
		suburb := roster.NormalizeName(record[1])
		if editor == "" || suburb == "" {
			s.logger.Printf("WARNING: skipping completion row %d with empty field", line)
			continue
		}

		var completedAt time.Time
		if len(record) >= 3 && strings.TrimSpace(record[2]) != "" {
			if t, err := time.Parse(time.RFC3339, strings.TrimSpace(record[2])); err == nil {
				completedAt = t
			}
			// An unparseable timestamp is not worth dropping the fact over.
		}

		rows = append(rows, row{Editor: editor, Suburb: suburb, CompletedAt: completedAt})
	}

	return rows, nil
}

// write rewrites the whole log atomically.
func (s *Store) write(rows []row) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create completion log directory: %w", err)
	}

	tmp, err := s.createTemp(dir, ".completions-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp completion log: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"Editor", "Suburb", "CompletedAt"}); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write completion header: %w", err)
	}

	for _, r := range rows {
		stamp := ""
		if !r.CompletedAt.IsZero() {
			stamp = r.CompletedAt.Format(time.RFC3339)
		}
		if err := w.Write([]string{r.Editor, r.Suburb, stamp}); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write completion row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush completion log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp completion log: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace completion log: %w", err)
	}
	return nil
}

func isHeader(record []string) bool {
	return len(record) >= 2 &&
		strings.EqualFold(strings.TrimSpace(record[0]), "Editor") &&
		strings.EqualFold(strings.TrimSpace(record[1]), "Suburb")
}
