package artifact

import (
	"strconv"
	"time"

	"github.com/kingrea/prospector/internal/faults"
	"github.com/kingrea/prospector/internal/lead"
)

// ReadEvents decodes the events artifact.
func (s *Store) ReadEvents() ([]lead.Event, error) {
	rows, err := s.Rows(Events)
	if err != nil {
		return nil, err
	}
	events := make([]lead.Event, 0, len(rows))
	for _, row := range rows {
		if row.Get("event_id") == "" || row.Get("name") == "" {
			return nil, faults.Integrity(Events.ID, "row missing event_id or name")
		}
		events = append(events, lead.Event{
			ID:             row.Get("event_id"),
			Name:           row.Get("name"),
			URL:            row.Get("url"),
			Location:       row.Get("location"),
			StartDate:      row.Get("start_date"),
			EndDate:        row.Get("end_date"),
			Source:         row.Get("source"),
			RelevanceScore: lead.ParseScore(row.Get("relevance_score")),
			Reasoning:      row.Get("reasoning"),
			Priority:       lead.Priority(row.Get("priority")),
		})
	}
	return events, nil
}

// WriteEvents encodes and persists the events artifact.
func (s *Store) WriteEvents(events []lead.Event) error {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.ID, e.Name, e.URL, e.Location, e.StartDate, e.EndDate,
			e.Source, lead.FormatScore(e.RelevanceScore), e.Reasoning, string(e.Priority),
		})
	}
	return s.WriteRows(Events, rows)
}

// ReadCompanies decodes the companies artifact. When events is non-nil every
// event link is verified against it; a broken link is an IntegrityError.
func (s *Store) ReadCompanies(events []lead.Event) ([]lead.Company, error) {
	rows, err := s.Rows(Companies)
	if err != nil {
		return nil, err
	}
	var known map[string]struct{}
	if events != nil {
		known = make(map[string]struct{}, len(events))
		for _, e := range events {
			known[e.ID] = struct{}{}
		}
	}
	companies := make([]lead.Company, 0, len(rows))
	for _, row := range rows {
		if row.Get("company_id") == "" || row.Get("name") == "" {
			return nil, faults.Integrity(Companies.ID, "row missing company_id or name")
		}
		eventIDs := lead.SplitIDs(row.Get("event_ids"))
		if len(eventIDs) == 0 {
			return nil, faults.Integrity(Companies.ID, "company %s has no event links", row.Get("name"))
		}
		if known != nil {
			for _, id := range eventIDs {
				if _, ok := known[id]; !ok {
					return nil, faults.Integrity(Companies.ID, "company %s references unknown event %s", row.Get("name"), id)
				}
			}
		}
		revenue, err := lead.ParseInt64(row.Get("revenue_usd"))
		if err != nil {
			return nil, faults.Integrity(Companies.ID, "company %s: %v", row.Get("name"), err)
		}
		employees, err := lead.ParseInt64(row.Get("employees"))
		if err != nil {
			return nil, faults.Integrity(Companies.ID, "company %s: %v", row.Get("name"), err)
		}
		companies = append(companies, lead.Company{
			ID:         row.Get("company_id"),
			Name:       row.Get("name"),
			EventIDs:   eventIDs,
			Industry:   row.Get("industry"),
			SizeBand:   row.Get("size_band"),
			Website:    row.Get("website"),
			RevenueUSD: revenue,
			Employees:  int(employees),
			Summary:    row.Get("summary"),
			EnrichedAt: row.Get("enriched_at"),
		})
	}
	return companies, nil
}

// WriteCompanies encodes and persists the companies artifact.
func (s *Store) WriteCompanies(companies []lead.Company) error {
	rows := make([][]string, 0, len(companies))
	for _, c := range companies {
		rows = append(rows, []string{
			c.ID, c.Name, lead.JoinIDs(c.EventIDs), c.Industry, c.SizeBand, c.Website,
			strconv.FormatInt(c.RevenueUSD, 10), strconv.Itoa(c.Employees), c.Summary, c.EnrichedAt,
		})
	}
	return s.WriteRows(Companies, rows)
}

// ReadStakeholders decodes the stakeholders artifact, verifying company links
// when companies is non-nil.
func (s *Store) ReadStakeholders(companies []lead.Company) ([]lead.Stakeholder, error) {
	rows, err := s.Rows(Stakeholders)
	if err != nil {
		return nil, err
	}
	var known map[string]struct{}
	if companies != nil {
		known = make(map[string]struct{}, len(companies))
		for _, c := range companies {
			known[c.ID] = struct{}{}
		}
	}
	stakeholders := make([]lead.Stakeholder, 0, len(rows))
	for _, row := range rows {
		if row.Get("stakeholder_id") == "" || row.Get("company_id") == "" {
			return nil, faults.Integrity(Stakeholders.ID, "row missing stakeholder_id or company_id")
		}
		if known != nil {
			if _, ok := known[row.Get("company_id")]; !ok {
				return nil, faults.Integrity(Stakeholders.ID, "stakeholder %s references unknown company %s", row.Get("stakeholder_id"), row.Get("company_id"))
			}
		}
		stakeholders = append(stakeholders, lead.Stakeholder{
			ID:        row.Get("stakeholder_id"),
			CompanyID: row.Get("company_id"),
			Name:      row.Get("name"),
			Title:     row.Get("title"),
			Email:     row.Get("email"),
			LinkedIn:  row.Get("linkedin"),
		})
	}
	return stakeholders, nil
}

// WriteStakeholders encodes and persists the stakeholders artifact.
func (s *Store) WriteStakeholders(stakeholders []lead.Stakeholder) error {
	rows := make([][]string, 0, len(stakeholders))
	for _, sh := range stakeholders {
		rows = append(rows, []string{sh.ID, sh.CompanyID, sh.Name, sh.Title, sh.Email, sh.LinkedIn})
	}
	return s.WriteRows(Stakeholders, rows)
}

// ReadMessages decodes the messages artifact, verifying stakeholder links
// when stakeholders is non-nil.
func (s *Store) ReadMessages(stakeholders []lead.Stakeholder) ([]lead.Message, error) {
	rows, err := s.Rows(Messages)
	if err != nil {
		return nil, err
	}
	var known map[string]struct{}
	if stakeholders != nil {
		known = make(map[string]struct{}, len(stakeholders))
		for _, sh := range stakeholders {
			known[sh.ID] = struct{}{}
		}
	}
	messages := make([]lead.Message, 0, len(rows))
	for _, row := range rows {
		id := row.Get("stakeholder_id")
		if id == "" {
			return nil, faults.Integrity(Messages.ID, "row missing stakeholder_id")
		}
		if known != nil {
			if _, ok := known[id]; !ok {
				return nil, faults.Integrity(Messages.ID, "message references unknown stakeholder %s", id)
			}
		}
		degraded := row.Get("degraded") == "true"
		generatedAt, _ := time.Parse(time.RFC3339, row.Get("generated_at"))
		messages = append(messages, lead.Message{
			StakeholderID: id,
			Text:          row.Get("text"),
			Degraded:      degraded,
			GeneratedAt:   generatedAt,
		})
	}
	return messages, nil
}

// WriteMessages encodes and persists the messages artifact.
func (s *Store) WriteMessages(messages []lead.Message) error {
	rows := make([][]string, 0, len(messages))
	for _, m := range messages {
		rows = append(rows, []string{
			m.StakeholderID, m.Text, strconv.FormatBool(m.Degraded), m.GeneratedAt.UTC().Format(time.RFC3339),
		})
	}
	return s.WriteRows(Messages, rows)
}

// ReadLeads decodes the terminal scored-leads artifact.
func (s *Store) ReadLeads() ([]lead.ScoredLead, error) {
	rows, err := s.Rows(Leads)
	if err != nil {
		return nil, err
	}
	leads := make([]lead.ScoredLead, 0, len(rows))
	for _, row := range rows {
		rank, err := lead.ParseInt64(row.Get("rank"))
		if err != nil {
			return nil, faults.Integrity(Leads.ID, "%v", err)
		}
		score, err := lead.ParseInt64(row.Get("score"))
		if err != nil {
			return nil, faults.Integrity(Leads.ID, "%v", err)
		}
		leads = append(leads, lead.ScoredLead{
			Rank:          int(rank),
			CompanyID:     row.Get("company_id"),
			StakeholderID: row.Get("stakeholder_id"),
			Score:         int(score),
			CompanyName:   row.Get("company_name"),
		})
	}
	return leads, nil
}

// WriteLeads encodes and persists the scored-leads artifact.
func (s *Store) WriteLeads(leads []lead.ScoredLead) error {
	rows := make([][]string, 0, len(leads))
	for _, l := range leads {
		rows = append(rows, []string{
			strconv.Itoa(l.Rank), l.CompanyID, l.StakeholderID, strconv.Itoa(l.Score), l.CompanyName,
		})
	}
	return s.WriteRows(Leads, rows)
}
