package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/prospector/internal/stage"
)

// StageState is the persisted outcome of one stage within a run.
type StageState struct {
	Status     stage.Status `json:"status"`
	Processed  int          `json:"processed"`
	Failed     int          `json:"failed"`
	Message    string       `json:"message,omitempty"`
	Error      string       `json:"error,omitempty"`
	StartedAt  time.Time    `json:"started_at,omitempty"`
	FinishedAt time.Time    `json:"finished_at,omitempty"`
}

// RunState is the pipeline's persisted run record. One file, overwritten in
// place on every stage transition, so a crash leaves the last completed
// transition on disk.
type RunState struct {
	RunID     string                `json:"run_id"`
	StartedAt time.Time             `json:"started_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	Stages    map[string]StageState `json:"stages"`
}

// NewRunState starts a fresh run record with every stage at not-run.
func NewRunState(stageIDs []string, now time.Time) RunState {
	stages := make(map[string]StageState, len(stageIDs))
	for _, id := range stageIDs {
		stages[id] = StageState{Status: stage.StatusNotRun}
	}
	return RunState{
		RunID:     uuid.NewString(),
		StartedAt: now,
		UpdatedAt: now,
		Stages:    stages,
	}
}

// StageStatus returns the recorded status, defaulting to not-run.
func (r RunState) StageStatus(id string) StageState {
	if s, ok := r.Stages[id]; ok {
		return s
	}
	return StageState{Status: stage.StatusNotRun}
}

// StateStore persists run state as JSON at a fixed path.
type StateStore struct {
	path string
}

// NewStateStore creates a store writing to path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load reads the last persisted run state. A missing file yields an empty
// state rather than an error.
func (s *StateStore) Load() (RunState, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return RunState{Stages: map[string]StageState{}}, nil
	}
	if err != nil {
		return RunState{}, fmt.Errorf("pipeline: read run state: %w", err)
	}
	var state RunState
	if err := json.Unmarshal(raw, &state); err != nil {
		return RunState{}, fmt.Errorf("pipeline: decode run state: %w", err)
	}
	if state.Stages == nil {
		state.Stages = map[string]StageState{}
	}
	return state, nil
}

// Save writes the state atomically via a sibling temp file.
func (s *StateStore) Save(state RunState) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("pipeline: encode run state: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("pipeline: prepare state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".run-*.json")
	if err != nil {
		return fmt.Errorf("pipeline: stage run state: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("pipeline: write run state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("pipeline: flush run state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("pipeline: commit run state: %w", err)
	}
	return nil
}
