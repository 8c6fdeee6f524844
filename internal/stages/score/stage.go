package score

import (
	"context"
	"fmt"
	"sort"

	"github.com/kingrea/prospector/internal/faults"
	"github.com/kingrea/prospector/internal/lead"
	"github.com/kingrea/prospector/internal/stage"
)

const stageID = "score"

// Stage ranks every (company, stakeholder, message) tuple with the rubric.
type Stage struct{}

// New creates the lead scoring stage.
func New() *Stage {
	return &Stage{}
}

// Info implements stage.Stage.
func (s *Stage) Info() stage.Info {
	return stage.Info{
		ID:          stageID,
		Name:        "Lead Scorer",
		Description: "Scores and ranks leads with a deterministic weighted rubric.",
		Input:       "messages",
		Output:      "leads",
	}
}

// Run scores one tuple per stakeholder. Ordering is total: score descending,
// ties broken by company name ascending, then stakeholder ID so equal-name
// companies still rank stably.
func (s *Stage) Run(ctx context.Context, env *stage.Context) (stage.Result, error) {
	events, err := env.Artifacts.ReadEvents()
	if err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	companies, err := env.Artifacts.ReadCompanies(events)
	if err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	contacts, err := env.Artifacts.ReadStakeholders(companies)
	if err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	if len(contacts) == 0 {
		return stage.Result{Status: stage.StatusFailed}, faults.Integrity("stakeholders", "no stakeholders to score")
	}
	messages, err := env.Artifacts.ReadMessages(contacts)
	if err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}

	byCompany := make(map[string]lead.Company, len(companies))
	for _, c := range companies {
		byCompany[c.ID] = c
	}
	byContact := make(map[string]lead.Message, len(messages))
	for _, m := range messages {
		byContact[m.StakeholderID] = m
	}

	topicWords := TopicWords(env.Config.Topic())
	leads := make([]lead.ScoredLead, 0, len(contacts))
	for _, contact := range contacts {
		company := byCompany[contact.CompanyID]
		leads = append(leads, lead.ScoredLead{
			CompanyID:     company.ID,
			StakeholderID: contact.ID,
			Score: Score(topicWords, Tuple{
				Company:     company,
				Stakeholder: contact,
				Message:     byContact[contact.ID],
			}),
			CompanyName: company.Name,
		})
	}

	sort.Slice(leads, func(i, j int) bool {
		if leads[i].Score != leads[j].Score {
			return leads[i].Score > leads[j].Score
		}
		if leads[i].CompanyName != leads[j].CompanyName {
			return leads[i].CompanyName < leads[j].CompanyName
		}
		return leads[i].StakeholderID < leads[j].StakeholderID
	})
	for i := range leads {
		leads[i].Rank = i + 1
	}

	if err := env.Artifacts.WriteLeads(leads); err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	env.Log(stageID).Info("scored %d leads, top score %d", len(leads), leads[0].Score)
	return stage.Result{
		Status:    stage.StatusSucceeded,
		Processed: len(leads),
		Message:   fmt.Sprintf("%d leads ranked", len(leads)),
	}, nil
}
