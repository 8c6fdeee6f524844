package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/prospector/internal/stage"
)

func TestStateStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "run.json")
	store := NewStateStore(path)

	state := NewRunState(Order, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))
	if state.RunID == "" {
		t.Fatalf("run id should be assigned")
	}
	state.Stages["scout"] = StageState{Status: stage.StatusSucceeded, Processed: 4}
	if err := store.Save(state); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.RunID != state.RunID {
		t.Fatalf("run id mismatch: %q vs %q", loaded.RunID, state.RunID)
	}
	if got := loaded.StageStatus("scout"); got.Status != stage.StatusSucceeded || got.Processed != 4 {
		t.Fatalf("scout state lost: %+v", got)
	}
	if got := loaded.StageStatus("hunter"); got.Status != stage.StatusNotRun {
		t.Fatalf("untouched stage should read not-run: %+v", got)
	}
}

func TestStateStoreLoadMissingFile(t *testing.T) {
	store := NewStateStore(filepath.Join(t.TempDir(), "run.json"))
	state, err := store.Load()
	if err != nil {
		t.Fatalf("missing file should load empty state: %v", err)
	}
	if state.RunID != "" || len(state.Stages) != 0 {
		t.Fatalf("expected empty state, got %+v", state)
	}
}

func TestStateStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStateStore(filepath.Join(dir, "run.json"))
	if err := store.Save(NewRunState(Order, time.Now())); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("list dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".run-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestStateStoreLoadRejectsCorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}
	if _, err := NewStateStore(path).Load(); err == nil {
		t.Fatalf("corrupt state should fail to load")
	}
}
