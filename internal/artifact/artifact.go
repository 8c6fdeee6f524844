// Package artifact manages the per-stage CSV files that carry records
// between pipeline stages.
//
// Each stage reads exactly one upstream artifact and overwrites exactly one
// downstream artifact. Writes go to a temporary file first and rename into
// place, so an aborted run never leaves a half-written artifact behind.
package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Ref identifies one stage artifact and its header contract.
type Ref struct {
	ID       string
	Filename string
	Headers  []string
}

// Stage artifact catalog, in pipeline order.
var (
	Events = Ref{
		ID:       "events",
		Filename: "events.csv",
		Headers:  []string{"event_id", "name", "url", "location", "start_date", "end_date", "source", "relevance_score", "reasoning", "priority"},
	}
	Companies = Ref{
		ID:       "companies",
		Filename: "companies.csv",
		Headers:  []string{"company_id", "name", "event_ids", "industry", "size_band", "website", "revenue_usd", "employees", "summary", "enriched_at"},
	}
	Stakeholders = Ref{
		ID:       "stakeholders",
		Filename: "stakeholders.csv",
		Headers:  []string{"stakeholder_id", "company_id", "name", "title", "email", "linkedin"},
	}
	Messages = Ref{
		ID:       "messages",
		Filename: "messages.csv",
		Headers:  []string{"stakeholder_id", "text", "degraded", "generated_at"},
	}
	Leads = Ref{
		ID:       "leads",
		Filename: "leads.csv",
		Headers:  []string{"rank", "company_id", "stakeholder_id", "score", "company_name"},
	}
)

// All lists every catalogued artifact in pipeline order.
func All() []Ref {
	return []Ref{Events, Companies, Stakeholders, Messages, Leads}
}

// State describes the on-disk condition of an artifact.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	StateInvalid State = "invalid"
)

// CheckResult reports artifact state plus the row count when readable.
type CheckResult struct {
	Ref   Ref
	Path  string
	State State
	Rows  int
	Err   error
}

// Store manages artifact IO rooted at the data directory.
type Store struct {
	dir string
}

// NewStore builds a store over a data directory.
func NewStore(dataDir string) *Store {
	return &Store{dir: dataDir}
}

// Path resolves an artifact's on-disk location.
func (s *Store) Path(ref Ref) string {
	return filepath.Join(s.dir, ref.Filename)
}

// Check inspects the artifact on disk without decoding records.
func (s *Store) Check(ref Ref) CheckResult {
	path := s.Path(ref)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckResult{Ref: ref, Path: path, State: StateMissing}
		}
		return CheckResult{Ref: ref, Path: path, State: StateInvalid, Err: err}
	}
	header, rows, err := s.readAll(ref)
	if err != nil {
		return CheckResult{Ref: ref, Path: path, State: StateInvalid, Err: err}
	}
	if err := matchHeader(ref, header); err != nil {
		return CheckResult{Ref: ref, Path: path, State: StateInvalid, Err: err}
	}
	return CheckResult{Ref: ref, Path: path, State: StateReady, Rows: len(rows)}
}

// Rows reads every record of the artifact as header-keyed cells.
func (s *Store) Rows(ref Ref) ([]Row, error) {
	header, raw, err := s.readAll(ref)
	if err != nil {
		return nil, err
	}
	if err := matchHeader(ref, header); err != nil {
		return nil, err
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	rows := make([]Row, len(raw))
	for i, cells := range raw {
		rows[i] = Row{index: index, cells: cells}
	}
	return rows, nil
}

// WriteRows overwrites the artifact with a header row plus the given records.
// The write is atomic: data lands in a temp file that replaces the target.
func (s *Store) WriteRows(ref Ref, rows [][]string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("artifact: ensure data dir: %w", err)
	}
	for i, row := range rows {
		if len(row) != len(ref.Headers) {
			return fmt.Errorf("artifact: %s row %d has %d cells, want %d", ref.ID, i, len(row), len(ref.Headers))
		}
	}
	tmp, err := os.CreateTemp(s.dir, ref.Filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("artifact: create temp for %s: %w", ref.ID, err)
	}
	tmpPath := tmp.Name()
	writer := csv.NewWriter(tmp)
	writeErr := writer.Write(ref.Headers)
	if writeErr == nil {
		writeErr = writer.WriteAll(rows)
	}
	if writeErr == nil {
		writer.Flush()
		writeErr = writer.Error()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("artifact: write %s: %w", ref.ID, writeErr)
	}
	// CreateTemp opens the file 0600; artifacts are meant to be readable by
	// other tooling once renamed into place.
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("artifact: chmod %s: %w", ref.ID, err)
	}
	if err := os.Rename(tmpPath, s.Path(ref)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("artifact: replace %s: %w", ref.ID, err)
	}
	return nil
}

func (s *Store) readAll(ref Ref) ([]string, [][]string, error) {
	path := s.Path(ref)
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact: open %s: %w", ref.ID, err)
	}
	defer file.Close()
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("artifact: parse %s: %w", ref.ID, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("artifact: %s is missing its header row", ref.ID)
	}
	return records[0], records[1:], nil
}

func matchHeader(ref Ref, header []string) error {
	if len(header) != len(ref.Headers) {
		return fmt.Errorf("artifact: %s header has %d columns, want %d", ref.ID, len(header), len(ref.Headers))
	}
	for i, name := range ref.Headers {
		if header[i] != name {
			return fmt.Errorf("artifact: %s header column %d is %q, want %q", ref.ID, i, header[i], name)
		}
	}
	return nil
}

// Row exposes one CSV record by column name.
type Row struct {
	index map[string]int
	cells []string
}

// Get returns the named cell, or the empty string when the column is absent.
func (r Row) Get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}
