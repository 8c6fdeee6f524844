package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/prospector/internal/artifact"
	"github.com/kingrea/prospector/internal/config"
	"github.com/kingrea/prospector/internal/lead"
	"github.com/kingrea/prospector/internal/pipeline"
	"github.com/kingrea/prospector/internal/stage"
)

func newTestDashboard(t *testing.T) (*Dashboard, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	if err := config.InitProspectorDir(dir); err != nil {
		t.Fatalf("init project dir: %v", err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	dash, err := NewDashboard(cfg, nil)
	if err != nil {
		t.Fatalf("build dashboard: %v", err)
	}
	t.Cleanup(dash.Close)
	return dash, cfg
}

func TestViewRendersPlaceholderForMissingArtifacts(t *testing.T) {
	dash, _ := newTestDashboard(t)
	view := dash.View()
	if !strings.Contains(view, "events.csv has not been produced yet") {
		t.Fatalf("missing artifact should render a placeholder, got:\n%s", view)
	}
}

func TestViewRendersRowsWhenArtifactExists(t *testing.T) {
	dash, cfg := newTestDashboard(t)
	store := artifact.NewStore(cfg.DataDir())
	events := []lead.Event{{
		ID: "e1", Name: "ISA Sign Expo", URL: "https://signexpo.org",
		Source: "search", RelevanceScore: 9.5, Priority: lead.PriorityHigh,
	}}
	if err := store.WriteEvents(events); err != nil {
		t.Fatalf("seed events: %v", err)
	}
	dash.reload()
	view := dash.View()
	if !strings.Contains(view, "ISA Sign Expo") {
		t.Fatalf("event row not rendered:\n%s", view)
	}
	if !strings.Contains(view, "events (1)") {
		t.Fatalf("tab should show the row count:\n%s", view)
	}
}

func TestTabNavigationWraps(t *testing.T) {
	dash, _ := newTestDashboard(t)
	total := len(dash.tabs)
	for i := 0; i < total; i++ {
		model, _ := dash.Update(tea.KeyMsg{Type: tea.KeyTab})
		dash = model.(*Dashboard)
	}
	if dash.activeTab != 0 {
		t.Fatalf("tab should wrap back to the first, got %d", dash.activeTab)
	}
	model, _ := dash.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	dash = model.(*Dashboard)
	if dash.activeTab != total-1 {
		t.Fatalf("shift+tab should wrap to the last, got %d", dash.activeTab)
	}
}

func TestStatusTabShowsRunState(t *testing.T) {
	dash, cfg := newTestDashboard(t)
	store := pipeline.NewStateStore(cfg.RunStatePath())
	state := pipeline.NewRunState(pipeline.Order, time.Now())
	state.Stages["scout"] = pipeline.StageState{Status: stage.StatusSucceeded, Processed: 4, Message: "4 events"}
	if err := store.Save(state); err != nil {
		t.Fatalf("save state: %v", err)
	}

	dash.reload()
	for i, name := range dash.tabs {
		if name == statusTab {
			dash.activeTab = i
		}
	}
	view := dash.View()
	if !strings.Contains(view, state.RunID) {
		t.Fatalf("status pane missing run id:\n%s", view)
	}
	if !strings.Contains(view, "4 events") {
		t.Fatalf("status pane missing stage message:\n%s", view)
	}
	if !strings.Contains(view, string(stage.StatusNotRun)) {
		t.Fatalf("pending stages should be listed:\n%s", view)
	}
}

func TestQuitKeyQuits(t *testing.T) {
	dash, _ := newTestDashboard(t)
	_, cmd := dash.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("q should produce a quit command")
	}
}
