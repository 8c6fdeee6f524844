// Read-only terminal dashboard over the pipeline's CSV artifacts.
//
// Built on bubbletea's Elm-style loop: the Model holds all state, Update
// reacts to messages, View renders a string. One tab per artifact plus a
// status tab; fsnotify events on the data directory trigger reloads so the
// dashboard tracks a pipeline running in another terminal.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/kingrea/prospector/internal/artifact"
	"github.com/kingrea/prospector/internal/config"
	"github.com/kingrea/prospector/internal/logbook"
	"github.com/kingrea/prospector/internal/pipeline"
	"github.com/kingrea/prospector/internal/stage"
)

const (
	statusTab       = "status"
	logTailLines    = 12
	maxCellWidth    = 40
	refreshInterval = 5 * time.Second
)

var (
	tabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("245"))
	activeTabStyle = tabStyle.
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Bold(true)
	placeholderStyle = lipgloss.NewStyle().
				Padding(1, 2).
				Foreground(lipgloss.Color("241")).
				Italic(true)
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))
	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type fileChangedMsg struct{}

type tickMsg time.Time

// tabContent is one loaded artifact view: either a populated table or a
// placeholder explaining why there is nothing to show.
type tabContent struct {
	ref         artifact.Ref
	table       table.Model
	rows        int
	placeholder string
}

// Dashboard is the bubbletea model for the artifact browser.
type Dashboard struct {
	cfg     *config.Config
	store   *artifact.Store
	states  *pipeline.StateStore
	logbook *logbook.Logbook
	watcher *fsnotify.Watcher

	tabs      []string
	contents  map[string]*tabContent
	runState  pipeline.RunState
	activeTab int
	width     int
	height    int
	loadErr   string
}

// NewDashboard builds the dashboard over an initialized project directory.
// The fsnotify watcher is optional: when the data directory cannot be
// watched the dashboard falls back to interval polling alone.
func NewDashboard(cfg *config.Config, lb *logbook.Logbook) (*Dashboard, error) {
	if cfg == nil {
		return nil, fmt.Errorf("tui: config is required")
	}
	tabs := make([]string, 0, len(artifact.All())+1)
	for _, ref := range artifact.All() {
		tabs = append(tabs, ref.ID)
	}
	tabs = append(tabs, statusTab)

	d := &Dashboard{
		cfg:      cfg,
		store:    artifact.NewStore(cfg.DataDir()),
		states:   pipeline.NewStateStore(cfg.RunStatePath()),
		logbook:  lb,
		tabs:     tabs,
		contents: map[string]*tabContent{},
	}
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		if err := watcher.Add(cfg.DataDir()); err == nil {
			d.watcher = watcher
		} else {
			watcher.Close()
		}
	}
	d.reload()
	return d, nil
}

// Close releases the filesystem watcher.
func (d *Dashboard) Close() {
	if d.watcher != nil {
		d.watcher.Close()
	}
}

// Init implements tea.Model.
func (d *Dashboard) Init() tea.Cmd {
	cmds := []tea.Cmd{tick()}
	if d.watcher != nil {
		cmds = append(cmds, d.waitForChange())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.reload()
		return d, nil
	case fileChangedMsg:
		d.reload()
		return d, d.waitForChange()
	case tickMsg:
		d.reload()
		return d, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			d.Close()
			return d, tea.Quit
		case "tab", "right", "l":
			d.activeTab = (d.activeTab + 1) % len(d.tabs)
		case "shift+tab", "left", "h":
			d.activeTab = (d.activeTab - 1 + len(d.tabs)) % len(d.tabs)
		case "r":
			d.reload()
		default:
			if content, ok := d.contents[d.tabs[d.activeTab]]; ok && content.placeholder == "" {
				var cmd tea.Cmd
				content.table, cmd = content.table.Update(msg)
				return d, cmd
			}
		}
	}
	return d, nil
}

// View implements tea.Model.
func (d *Dashboard) View() string {
	var b strings.Builder
	b.WriteString(d.renderTabs())
	b.WriteString("\n\n")
	name := d.tabs[d.activeTab]
	if name == statusTab {
		b.WriteString(d.renderStatus())
	} else {
		b.WriteString(d.renderArtifact(name))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab/shift+tab switch · up/down scroll · r refresh · q quit"))
	return b.String()
}

func (d *Dashboard) renderTabs() string {
	rendered := make([]string, len(d.tabs))
	for i, name := range d.tabs {
		label := name
		if content, ok := d.contents[name]; ok && content.placeholder == "" {
			label = fmt.Sprintf("%s (%d)", name, content.rows)
		}
		if i == d.activeTab {
			rendered[i] = activeTabStyle.Render(label)
		} else {
			rendered[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (d *Dashboard) renderArtifact(name string) string {
	content, ok := d.contents[name]
	if !ok {
		return placeholderStyle.Render("unknown artifact")
	}
	if content.placeholder != "" {
		return placeholderStyle.Render(content.placeholder)
	}
	return content.table.View()
}

func (d *Dashboard) renderStatus() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Pipeline run"))
	b.WriteString("\n")
	if d.runState.RunID == "" {
		b.WriteString(placeholderStyle.Render("No run recorded yet. Start one with: prospector run"))
	} else {
		fmt.Fprintf(&b, "  run %s · started %s\n\n",
			d.runState.RunID, d.runState.StartedAt.Local().Format("2006-01-02 15:04:05"))
		for _, id := range pipeline.Order {
			st := d.runState.StageStatus(id)
			line := fmt.Sprintf("  %-13s %-20s processed=%d failed=%d %s",
				id, renderStageStatus(st.Status), st.Processed, st.Failed, st.Message)
			if st.Error != "" {
				line += " " + errStyle.Render(st.Error)
			}
			b.WriteString(line + "\n")
		}
	}
	if d.loadErr != "" {
		b.WriteString("\n" + errStyle.Render(d.loadErr) + "\n")
	}
	if lines := d.logbook.Tail(logTailLines); len(lines) > 0 {
		b.WriteString("\n" + headerStyle.Render("Recent log") + "\n")
		for _, line := range lines {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

func renderStageStatus(s stage.Status) string {
	switch s {
	case stage.StatusSucceeded:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render(string(s))
	case stage.StatusPartiallySucceeded:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render(string(s))
	case stage.StatusFailed:
		return errStyle.Render(string(s))
	case stage.StatusRunning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(string(s))
	default:
		return string(s)
	}
}

// reload re-reads every artifact and the run state from disk.
func (d *Dashboard) reload() {
	d.loadErr = ""
	for _, ref := range artifact.All() {
		d.contents[ref.ID] = d.loadArtifact(ref)
	}
	state, err := d.states.Load()
	if err != nil {
		d.loadErr = err.Error()
		return
	}
	d.runState = state
}

func (d *Dashboard) loadArtifact(ref artifact.Ref) *tabContent {
	check := d.store.Check(ref)
	switch check.State {
	case artifact.StateMissing:
		return &tabContent{ref: ref, placeholder: fmt.Sprintf(
			"%s has not been produced yet.\nRun the pipeline to populate it.", ref.Filename)}
	case artifact.StateInvalid:
		return &tabContent{ref: ref, placeholder: fmt.Sprintf(
			"%s is unreadable: %v", ref.Filename, check.Err)}
	}
	rows, err := d.store.Rows(ref)
	if err != nil {
		return &tabContent{ref: ref, placeholder: fmt.Sprintf("%s: %v", ref.Filename, err)}
	}
	if len(rows) == 0 {
		return &tabContent{ref: ref, placeholder: fmt.Sprintf("%s is empty.", ref.Filename)}
	}

	columns := make([]table.Column, len(ref.Headers))
	for i, header := range ref.Headers {
		width := len(header)
		for _, row := range rows {
			if w := len(row.Get(header)); w > width {
				width = w
			}
		}
		if width > maxCellWidth {
			width = maxCellWidth
		}
		columns[i] = table.Column{Title: header, Width: width}
	}
	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		cells := make([]string, len(ref.Headers))
		for j, header := range ref.Headers {
			cells[j] = truncate(row.Get(header), maxCellWidth)
		}
		tableRows[i] = cells
	}

	height := d.height - 8
	if height < 3 {
		height = 3
	}
	if height > len(rows)+1 {
		height = len(rows) + 1
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)
	return &tabContent{ref: ref, table: t, rows: len(rows)}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange blocks on the next relevant filesystem event. CSV temp files
// from atomic writes surface as renames, which fsnotify reports as Create on
// the destination.
func (d *Dashboard) waitForChange() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-d.watcher.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 &&
					strings.HasSuffix(event.Name, ".csv") {
					return fileChangedMsg{}
				}
			case _, ok := <-d.watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

// Run starts the dashboard program and blocks until the user quits.
func Run(cfg *config.Config, lb *logbook.Logbook) error {
	dash, err := NewDashboard(cfg, lb)
	if err != nil {
		return err
	}
	defer dash.Close()
	_, err = tea.NewProgram(dash, tea.WithAltScreen()).Run()
	return err
}
