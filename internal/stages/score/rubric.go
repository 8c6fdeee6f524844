package score

import (
	"strings"

	"github.com/kingrea/prospector/internal/lead"
)

// Rubric weights. The per-tuple maximum is 85.
const (
	industryFitMax    = 15
	revenueMax        = 15
	employeesMax      = 10
	strategicMax      = 15
	engagementMax     = 10
	marketActivityMax = 10
	contactMax        = 10
)

var strategicSignals = []string{
	"expansion", "partnership", "acquisition", "national", "enterprise",
	"multi-site", "franchise", "rollout",
}

var activitySignals = []string{
	"launch", "new ", "recent", "invest", "announc", "opened", "hiring",
}

var seniorTitles = []string{
	"chief", "ceo", "coo", "cfo", "cmo", "president", "owner", "founder",
	"vp", "vice president", "director", "head of",
}

// Tuple is one scoring input: a stakeholder with their company and drafted
// message. Message may be zero when drafting failed for this contact.
type Tuple struct {
	Company     lead.Company
	Stakeholder lead.Stakeholder
	Message     lead.Message
}

// Score evaluates the weighted rubric for one tuple. Pure and deterministic:
// identical inputs always produce the identical score.
func Score(topicWords []string, t Tuple) int {
	total := industryFit(topicWords, t.Company.Industry)
	total += revenuePoints(t.Company.RevenueUSD)
	total += employeePoints(t.Company.Employees)
	total += signalPoints(t.Company.Summary, strategicSignals, strategicMax)
	total += engagementPoints(len(t.Company.EventIDs))
	total += signalPoints(t.Company.Summary, activitySignals, marketActivityMax)
	total += contactPoints(t.Stakeholder, t.Message)
	return total
}

// TopicWords splits the configured topic into match terms, dropping short
// connective words.
func TopicWords(topic string) []string {
	var words []string
	for _, w := range strings.Fields(lead.Normalize(topic)) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}

func industryFit(topicWords []string, industry string) int {
	if industry == "" {
		return 0
	}
	normalized := lead.Normalize(industry)
	for _, w := range topicWords {
		if strings.Contains(normalized, w) {
			return industryFitMax
		}
	}
	return 6
}

func revenuePoints(revenueUSD int64) int {
	switch {
	case revenueUSD >= 100_000_000:
		return revenueMax
	case revenueUSD >= 25_000_000:
		return 10
	case revenueUSD >= 5_000_000:
		return 5
	case revenueUSD > 0:
		return 2
	default:
		return 0
	}
}

func employeePoints(employees int) int {
	switch {
	case employees >= 500:
		return employeesMax
	case employees >= 100:
		return 7
	case employees >= 20:
		return 4
	case employees > 0:
		return 2
	default:
		return 0
	}
}

// signalPoints awards a share of max per matched signal, capped at max.
func signalPoints(summary string, signals []string, max int) int {
	if summary == "" {
		return 0
	}
	normalized := lead.Normalize(summary)
	points := 0
	for _, s := range signals {
		if strings.Contains(normalized, s) {
			points += 5
		}
	}
	if points > max {
		return max
	}
	return points
}

func engagementPoints(eventCount int) int {
	points := eventCount * 5
	if points > engagementMax {
		return engagementMax
	}
	return points
}

// contactPoints rewards an identified contact, with full credit reserved for
// senior titles backed by a clean draft. A degraded or missing message caps
// the component.
func contactPoints(contact lead.Stakeholder, message lead.Message) int {
	if contact.ID == "" {
		return 0
	}
	points := 6
	title := lead.Normalize(contact.Title)
	for _, t := range seniorTitles {
		if strings.Contains(title, t) {
			points = contactMax
			break
		}
	}
	if message.Text == "" || message.Degraded {
		if points > 4 {
			points = 4
		}
	}
	return points
}
