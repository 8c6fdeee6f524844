package enrich

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/prospector/internal/faults"
	"github.com/kingrea/prospector/internal/lead"
	"github.com/kingrea/prospector/internal/llm"
	"github.com/kingrea/prospector/internal/stage"
)

const (
	stageID = "enrich"

	systemPrompt = "You are a firmographics researcher. Respond only with the requested labelled lines, no commentary."
)

var revenuePattern = regexp.MustCompile(`(?i)\$?\s*([\d][\d,]*\.?\d*)\s*([bmk])?`)

// Stage fills firmographic gaps on hunted company stubs.
type Stage struct{}

// New creates the enrichment stage.
func New() *Stage {
	return &Stage{}
}

// Info implements stage.Stage.
func (s *Stage) Info() stage.Info {
	return stage.Info{
		ID:          stageID,
		Name:        "Company Enricher",
		Description: "Looks up firmographic detail and merges it into company records.",
		Input:       "companies",
		Output:      "companies",
	}
}

// Run looks up each company and merges returned fields without overwriting
// anything already populated, so a second pass over enriched records is a
// no-op. Per-company lookup failures are logged and skipped; the stage fails
// only when every lookup fails.
func (s *Stage) Run(ctx context.Context, env *stage.Context) (stage.Result, error) {
	if env.Research == nil {
		return stage.Result{Status: stage.StatusFailed}, fmt.Errorf("enrich: research client is not configured")
	}
	events, err := env.Artifacts.ReadEvents()
	if err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	companies, err := env.Artifacts.ReadCompanies(events)
	if err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	if len(companies) == 0 {
		return stage.Result{Status: stage.StatusFailed}, faults.Integrity("companies", "no companies to enrich")
	}
	log := env.Log(stageID)
	limits := env.Config.Project.Limits

	outcomes := stage.FanOut(ctx, limits.MaxParallel, limits.CallTimeout(), companies,
		func(callCtx context.Context, company lead.Company) (lead.Company, error) {
			content, err := env.Research.Complete(callCtx, llm.Request{
				System:      systemPrompt,
				Prompt:      intelPrompt(company.Name),
				Temperature: 0.2,
			})
			if err != nil {
				return lead.Company{}, err
			}
			return parseIntel(content), nil
		})

	failed := 0
	enriched := 0
	now := env.Now().UTC().Format(time.RFC3339)
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			log.Warn("lookup failed for company %q: %v", companies[i].Name, outcome.Err)
			continue
		}
		if companies[i].Merge(outcome.Value) {
			companies[i].EnrichedAt = now
			enriched++
		}
	}
	if failed == len(companies) {
		return stage.Result{Status: stage.StatusFailed, Failed: failed},
			faults.Service("research", "company intel", 0, fmt.Errorf("all %d company lookups failed", failed))
	}

	if err := env.Artifacts.WriteCompanies(companies); err != nil {
		return stage.Result{Status: stage.StatusFailed, Failed: failed}, err
	}

	status := stage.StatusSucceeded
	if failed > 0 {
		status = stage.StatusPartiallySucceeded
	}
	log.Info("enriched %d of %d companies (%d lookups failed)", enriched, len(companies), failed)
	return stage.Result{
		Status:    status,
		Processed: len(companies),
		Failed:    failed,
		Message:   fmt.Sprintf("%d companies enriched", enriched),
	}, nil
}

func intelPrompt(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Provide concise company info for %q as labelled lines:\n\n", name)
	b.WriteString("industry: <primary industry focus>\n")
	b.WriteString("size_band: <employee range, e.g. 201-500>\n")
	b.WriteString("website: <https URL>\n")
	b.WriteString("revenue: <estimated annual revenue in USD, e.g. $120M>\n")
	b.WriteString("employees: <count>\n")
	b.WriteString("summary: <one sentence on key products and recent activity>\n")
	return b.String()
}

// parseIntel decodes the labelled-line reply into a partial company record.
// Unrecognized lines are ignored at the boundary rather than propagated.
func parseIntel(content string) lead.Company {
	var intel lead.Company
	for _, line := range strings.Split(content, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(label)) {
		case "industry":
			intel.Industry = value
		case "size_band", "size":
			intel.SizeBand = value
		case "website":
			if strings.HasPrefix(value, "http") {
				intel.Website = value
			}
		case "revenue", "revenue_usd":
			intel.RevenueUSD = parseRevenue(value)
		case "employees":
			if n, err := strconv.Atoi(strings.ReplaceAll(value, ",", "")); err == nil && n > 0 {
				intel.Employees = n
			}
		case "summary":
			intel.Summary = value
		}
	}
	return intel
}

// parseRevenue reads "$1.2B" / "350M" / plain integer forms into USD.
func parseRevenue(value string) int64 {
	match := revenuePattern.FindStringSubmatch(value)
	if match == nil {
		return 0
	}
	number, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(match[2]) {
	case "b":
		number *= 1e9
	case "m":
		number *= 1e6
	case "k":
		number *= 1e3
	}
	if number < 0 {
		return 0
	}
	return int64(number)
}
