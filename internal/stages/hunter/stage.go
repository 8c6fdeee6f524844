package hunter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/prospector/internal/faults"
	"github.com/kingrea/prospector/internal/lead"
	"github.com/kingrea/prospector/internal/llm"
	"github.com/kingrea/prospector/internal/stage"
)

const (
	stageID = "hunter"

	systemPrompt = "You are a trade-show analyst. Respond only with one company name per line, no commentary."

	maxCompaniesPerEvent = 25
	minNameLength        = 3
	maxNameLength        = 60
)

// Names that page scrapes and model answers commonly emit instead of real
// exhibitors.
var junkNames = map[string]struct{}{
	"home": {}, "faq": {}, "contact": {}, "register": {}, "events": {},
	"about": {}, "info": {}, "policy": {}, "exhibitors": {}, "sponsors": {},
	"none": {}, "n/a": {}, "unknown": {},
}

// Stage looks up exhibiting companies for every scouted event and writes the
// companies artifact.
type Stage struct{}

// New creates the hunter stage.
func New() *Stage {
	return &Stage{}
}

// Info implements stage.Stage.
func (s *Stage) Info() stage.Info {
	return stage.Info{
		ID:          stageID,
		Name:        "Company Hunter",
		Description: "Finds exhibiting and attending companies for each scouted event.",
		Input:       "events",
		Output:      "companies",
	}
}

// Run issues one research lookup per event with bounded concurrency. A failed
// lookup is logged and skipped; the stage only fails when every event fails.
// Companies dedupe by normalized name, with event link sets unioned.
func (s *Stage) Run(ctx context.Context, env *stage.Context) (stage.Result, error) {
	if env.Research == nil {
		return stage.Result{Status: stage.StatusFailed}, fmt.Errorf("hunter: research client is not configured")
	}
	events, err := env.Artifacts.ReadEvents()
	if err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	if len(events) == 0 {
		return stage.Result{Status: stage.StatusFailed}, faults.Integrity("events", "no events to hunt companies for")
	}
	log := env.Log(stageID)
	limits := env.Config.Project.Limits

	type eventHit struct {
		event lead.Event
		names []string
	}
	outcomes := stage.FanOut(ctx, limits.MaxParallel, limits.CallTimeout(), events,
		func(callCtx context.Context, event lead.Event) (eventHit, error) {
			content, err := env.Research.Complete(callCtx, llm.Request{
				System:      systemPrompt,
				Prompt:      lookupPrompt(event),
				Temperature: 0.2,
			})
			if err != nil {
				return eventHit{}, err
			}
			return eventHit{event: event, names: parseCompanyNames(content)}, nil
		})

	byID := map[string]*lead.Company{}
	failed := 0
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			log.Warn("lookup failed for event %q: %v", events[i].Name, outcome.Err)
			continue
		}
		for _, name := range outcome.Value.names {
			id := lead.CompanyID(name)
			company, ok := byID[id]
			if !ok {
				company = &lead.Company{ID: id, Name: name}
				byID[id] = company
			}
			company.AddEvent(outcome.Value.event.ID)
		}
	}
	if failed == len(events) {
		return stage.Result{Status: stage.StatusFailed, Failed: failed},
			faults.Service("research", "company lookup", 0, fmt.Errorf("all %d event lookups failed", failed))
	}

	companies := make([]lead.Company, 0, len(byID))
	for _, c := range byID {
		companies = append(companies, *c)
	}
	sort.Slice(companies, func(i, j int) bool { return companies[i].Name < companies[j].Name })

	if err := env.Artifacts.WriteCompanies(companies); err != nil {
		return stage.Result{Status: stage.StatusFailed, Failed: failed}, err
	}

	status := stage.StatusSucceeded
	if failed > 0 {
		status = stage.StatusPartiallySucceeded
	}
	log.Info("discovered %d companies across %d events (%d lookups failed)", len(companies), len(events), failed)
	return stage.Result{
		Status:    status,
		Processed: len(companies),
		Failed:    failed,
		Message:   fmt.Sprintf("%d companies from %d events", len(companies), len(events)-failed),
	}, nil
}

func lookupPrompt(event lead.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "List companies exhibiting at or attending %q", event.Name)
	if event.Location != "" {
		fmt.Fprintf(&b, " (%s)", event.Location)
	}
	if event.URL != "" {
		fmt.Fprintf(&b, ", website %s", event.URL)
	}
	b.WriteString(".\n")
	fmt.Fprintf(&b, "Return at most %d company names, one per line, nothing else.", maxCompaniesPerEvent)
	return b.String()
}

// parseCompanyNames extracts plausible company names, dropping bullets,
// navigation junk, and truncated fragments.
func parseCompanyNames(content string) []string {
	var names []string
	for _, line := range strings.Split(content, "\n") {
		name := strings.Trim(strings.TrimSpace(line), "-*• \t")
		name = strings.TrimSpace(strings.TrimPrefix(name, "\""))
		name = strings.TrimSuffix(name, "\"")
		if len(name) < minNameLength || len(name) > maxNameLength {
			continue
		}
		if _, junk := junkNames[lead.Normalize(name)]; junk {
			continue
		}
		if !strings.ContainsFunc(name, func(r rune) bool { return r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' }) {
			continue
		}
		names = append(names, name)
		if len(names) >= maxCompaniesPerEvent {
			break
		}
	}
	return names
}
