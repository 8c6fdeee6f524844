package stakeholders

import (
	"context"
	"fmt"
	"sort"

	"github.com/kingrea/prospector/internal/faults"
	"github.com/kingrea/prospector/internal/lead"
	"github.com/kingrea/prospector/internal/stage"
)

const stageID = "stakeholders"

// Stage resolves decision-maker contacts for every enriched company.
type Stage struct{}

// New creates the stakeholder stage.
func New() *Stage {
	return &Stage{}
}

// Info implements stage.Stage.
func (s *Stage) Info() stage.Info {
	return stage.Info{
		ID:          stageID,
		Name:        "Stakeholder Finder",
		Description: "Resolves named contacts at each company through the contact directory.",
		Input:       "companies",
		Output:      "stakeholders",
	}
}

// Run queries the directory once per company. A company with zero contacts is
// a valid outcome, not a failure; only directory errors count against the
// stage. All-errors fails the stage outright. Processed counts stakeholder
// rows written, not companies queried.
func (s *Stage) Run(ctx context.Context, env *stage.Context) (stage.Result, error) {
	if env.Directory == nil {
		return stage.Result{Status: stage.StatusFailed}, fmt.Errorf("stakeholders: directory is not configured")
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
		return stage.Result{Status: stage.StatusFailed}, faults.Integrity("companies", "no companies to find stakeholders for")
	}
	log := env.Log(stageID)
	limits := env.Config.Project.Limits

	outcomes := stage.FanOut(ctx, limits.MaxParallel, limits.CallTimeout(), companies,
		func(callCtx context.Context, company lead.Company) ([]lead.Stakeholder, error) {
			return env.Directory.Lookup(callCtx, company)
		})

	var contacts []lead.Stakeholder
	failed := 0
	empty := 0
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			log.Warn("directory lookup failed for %q: %v", companies[i].Name, outcome.Err)
			continue
		}
		if len(outcome.Value) == 0 {
			empty++
			continue
		}
		contacts = append(contacts, outcome.Value...)
	}
	if failed == len(companies) {
		return stage.Result{Status: stage.StatusFailed, Failed: failed},
			faults.Service("directory", "stakeholder lookup", 0, fmt.Errorf("all %d directory lookups failed", failed))
	}

	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].CompanyID != contacts[j].CompanyID {
			return contacts[i].CompanyID < contacts[j].CompanyID
		}
		return contacts[i].Name < contacts[j].Name
	})
	if err := env.Artifacts.WriteStakeholders(contacts); err != nil {
		return stage.Result{Status: stage.StatusFailed, Failed: failed}, err
	}

	status := stage.StatusSucceeded
	if failed > 0 {
		status = stage.StatusPartiallySucceeded
	}
	log.Info("found %d stakeholders across %d companies (%d without contacts, %d lookups failed)",
		len(contacts), len(companies), empty, failed)
	return stage.Result{
		Status:    status,
		Processed: len(contacts),
		Failed:    failed,
		Message:   fmt.Sprintf("%d stakeholders found across %d companies", len(contacts), len(companies)),
	}, nil
}
