package scout

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/kingrea/prospector/internal/faults"
	"github.com/kingrea/prospector/internal/lead"
	"github.com/kingrea/prospector/internal/llm"
	"github.com/kingrea/prospector/internal/stage"
)

const (
	stageID = "scout"

	systemPrompt = "You are a B2B event researcher. Respond only with CSV rows, no commentary."

	maxEvents = 10
)

// Option customizes the scout stage.
type Option func(*Stage)

// WithBackoff overrides the retry backoff base (used in tests).
func WithBackoff(d time.Duration) Option {
	return func(s *Stage) {
		if d > 0 {
			s.backoff = d
		}
	}
}

// Stage discovers industry events for the configured topic and writes the
// events artifact.
type Stage struct {
	backoff time.Duration
}

// New creates the scout stage.
func New(opts ...Option) *Stage {
	s := &Stage{backoff: time.Second}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Info implements stage.Stage.
func (s *Stage) Info() stage.Info {
	return stage.Info{
		ID:          stageID,
		Name:        "Event Scout",
		Description: "Searches for industry events matching the configured topic.",
		Output:      "events",
	}
}

// Run queries the research service, merges the optional manual seed file,
// dedupes by name+date, and persists the events artifact. The external query
// is retried a bounded number of times with backoff, then the stage fails
// fast rather than emitting partial data.
func (s *Stage) Run(ctx context.Context, env *stage.Context) (stage.Result, error) {
	if env.Research == nil {
		return stage.Result{Status: stage.StatusFailed}, fmt.Errorf("scout: research client is not configured")
	}
	log := env.Log(stageID)

	events, err := s.search(ctx, env)
	if err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}

	manual, err := loadManualEvents(env.Config.ManualEventsPath())
	if err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	if len(manual) > 0 {
		log.Info("merged %d manually curated events", len(manual))
	}

	merged := dedupe(append(manual, events...))
	if len(merged) == 0 {
		return stage.Result{Status: stage.StatusFailed}, faults.Service("research", "event search", 0, errors.New("no events discovered"))
	}
	for i := range merged {
		merged[i].Priority = lead.PriorityFor(merged[i].RelevanceScore)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].RelevanceScore != merged[j].RelevanceScore {
			return merged[i].RelevanceScore > merged[j].RelevanceScore
		}
		return merged[i].Name < merged[j].Name
	})

	if err := env.Artifacts.WriteEvents(merged); err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	log.Info("discovered %d events for topic %q", len(merged), env.Config.Topic())
	return stage.Result{
		Status:    stage.StatusSucceeded,
		Processed: len(merged),
		Message:   fmt.Sprintf("%d events", len(merged)),
	}, nil
}

// search calls the research service with bounded retries.
func (s *Stage) search(ctx context.Context, env *stage.Context) ([]lead.Event, error) {
	attempts := env.Config.Project.Limits.ScoutRetries
	if attempts < 1 {
		attempts = 1
	}
	timeout := env.Config.Project.Limits.CallTimeout()
	log := env.Log(stageID)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			log.Warn("event search attempt %d failed, retrying: %v", attempt, lastErr)
			select {
			case <-time.After(s.backoff << uint(attempt-1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		content, err := env.Research.Complete(callCtx, llm.Request{
			System:      systemPrompt,
			Prompt:      searchPrompt(env.Config.Topic()),
			Temperature: 0.2,
		})
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		events := parseEvents(content)
		if len(events) == 0 {
			lastErr = faults.Service("research", "event search", 0, errors.New("response contained no parsable event rows"))
			continue
		}
		return events, nil
	}
	return nil, lastErr
}

func searchPrompt(topic string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Find upcoming expos or trade shows relevant to: %s.\n\n", topic)
	b.WriteString("For each event respond with one CSV row in this exact format:\n\n")
	b.WriteString("name,url,location,start_date,end_date,relevance_score,reasoning\n")
	b.WriteString("Example Expo,https://example.com,Las Vegas NV,2026-04-23,2026-04-25,8.5,Major gathering of target buyers.\n\n")
	fmt.Fprintf(&b, "Dates are ISO (YYYY-MM-DD), relevance_score is 0-10. Return at most %d rows and nothing else.", maxEvents)
	return b.String()
}

// parseEvents decodes CSV rows from the model response, skipping echoes of
// the header and rows without a usable name and URL.
func parseEvents(content string) []lead.Event {
	var events []lead.Event
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(strings.ToLower(line), "name,") {
			continue
		}
		fields, err := csv.NewReader(strings.NewReader(line)).Read()
		if err != nil || len(fields) < 7 {
			continue
		}
		name := strings.TrimSpace(fields[0])
		url := strings.TrimSpace(fields[1])
		if name == "" || !strings.HasPrefix(url, "http") {
			continue
		}
		events = append(events, lead.Event{
			ID:             lead.EventID(name, url),
			Name:           name,
			URL:            url,
			Location:       strings.TrimSpace(fields[2]),
			StartDate:      strings.TrimSpace(fields[3]),
			EndDate:        strings.TrimSpace(fields[4]),
			Source:         "search",
			RelevanceScore: lead.ParseScore(fields[5]),
			Reasoning:      strings.TrimSpace(fields[6]),
		})
	}
	if len(events) > maxEvents {
		events = events[:maxEvents]
	}
	return events
}

// loadManualEvents reads the optional curated seed file. Columns are matched
// by header name so hand-edited files stay forgiving; only name and url are
// required.
func loadManualEvents(path string) ([]lead.Event, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scout: open %s: %w", path, err)
	}
	defer file.Close()
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("scout: parse %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil
	}
	index := map[string]int{}
	for i, name := range records[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	var events []lead.Event
	for _, row := range records[1:] {
		name := cell(row, "name")
		url := cell(row, "url")
		if name == "" || url == "" {
			continue
		}
		events = append(events, lead.Event{
			ID:             lead.EventID(name, url),
			Name:           name,
			URL:            url,
			Location:       cell(row, "location"),
			StartDate:      cell(row, "start_date"),
			EndDate:        cell(row, "end_date"),
			Source:         "manual",
			RelevanceScore: lead.ParseScore(cell(row, "relevance_score")),
			Reasoning:      cell(row, "reasoning"),
		})
	}
	return events, nil
}

// dedupe keeps the first event seen for each normalized name+date identity.
// Manual events come first in the input, so curation wins over search.
func dedupe(events []lead.Event) []lead.Event {
	seen := map[string]struct{}{}
	out := make([]lead.Event, 0, len(events))
	for _, e := range events {
		key := e.DedupeKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}
