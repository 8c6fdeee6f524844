// Package lead defines the records that flow between pipeline stages.
//
// Each record type maps onto one row of its stage's CSV artifact. Records are
// immutable once written, with a single exception: Company gains enrichment
// fields in the enrich stage (non-empty values never get overwritten).
package lead

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Priority bands events by relevance score.
type Priority string

const (
	PriorityHigh    Priority = "High"
	PriorityMedium  Priority = "Medium"
	PriorityLow     Priority = "Low"
	PriorityUnknown Priority = "Unknown"
)

// PriorityFor maps a 0-10 relevance score to a band.
func PriorityFor(score float64) Priority {
	switch {
	case score >= 9:
		return PriorityHigh
	case score >= 7:
		return PriorityMedium
	case score >= 0:
		return PriorityLow
	default:
		return PriorityUnknown
	}
}

// Event is one discovered industry event. Created by the scout stage and
// immutable afterwards.
type Event struct {
	ID             string
	Name           string
	URL            string
	Location       string
	StartDate      string // ISO date, may be empty when the source omits it
	EndDate        string
	Source         string // "search" or "manual"
	RelevanceScore float64
	Reasoning      string
	Priority       Priority
}

// DedupeKey returns the normalized name+date identity used by scout dedupe.
func (e Event) DedupeKey() string {
	return Normalize(e.Name) + "|" + strings.TrimSpace(e.StartDate)
}

// Company is one exhibitor/attendee stub, later enriched in place.
type Company struct {
	ID         string
	Name       string
	EventIDs   []string // every event the company was discovered at
	Industry   string
	SizeBand   string
	Website    string
	RevenueUSD int64
	Employees  int
	Summary    string
	EnrichedAt string // RFC3339, empty until enrichment lands new fields
}

// AddEvent links the company to a discovering event, keeping the set sorted
// and free of duplicates.
func (c *Company) AddEvent(eventID string) {
	for _, id := range c.EventIDs {
		if id == eventID {
			return
		}
	}
	c.EventIDs = append(c.EventIDs, eventID)
	sort.Strings(c.EventIDs)
}

// Merge fills gaps in the receiver from other. Populated fields win over
// incoming ones, so applying the same enrichment twice is a no-op.
// Reports whether any field actually changed.
func (c *Company) Merge(other Company) bool {
	changed := false
	if c.Industry == "" && other.Industry != "" {
		c.Industry = other.Industry
		changed = true
	}
	if c.SizeBand == "" && other.SizeBand != "" {
		c.SizeBand = other.SizeBand
		changed = true
	}
	if c.Website == "" && other.Website != "" {
		c.Website = other.Website
		changed = true
	}
	if c.RevenueUSD == 0 && other.RevenueUSD != 0 {
		c.RevenueUSD = other.RevenueUSD
		changed = true
	}
	if c.Employees == 0 && other.Employees != 0 {
		c.Employees = other.Employees
		changed = true
	}
	if c.Summary == "" && other.Summary != "" {
		c.Summary = other.Summary
		changed = true
	}
	return changed
}

// Stakeholder is one contact at a company.
type Stakeholder struct {
	ID        string
	CompanyID string
	Name      string
	Title     string
	Email     string
	LinkedIn  string
}

// Message is the generated outreach draft for one stakeholder.
type Message struct {
	StakeholderID string
	Text          string
	Degraded      bool // text failed length bounds even after the strict retry
	GeneratedAt   time.Time
}

// ScoredLead is the terminal record: one (company, stakeholder, message)
// tuple with its rubric score and position in the final ordering.
type ScoredLead struct {
	Rank          int
	CompanyID     string
	StakeholderID string
	Score         int
	CompanyName   string
}

// Normalize lowercases, trims, and strips quotes so name-based identities
// survive formatting noise from external services.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, `"`, "")))
}

// EventID derives a stable identifier from the normalized name and URL.
func EventID(name, url string) string {
	return contentID(Normalize(name) + Normalize(url))
}

// CompanyID derives a stable identifier from the normalized company name.
func CompanyID(name string) string {
	return contentID(Normalize(name))
}

func contentID(seed string) string {
	sum := md5.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// ParseScore converts a textual relevance score, clamping to the 0-10 band.
func ParseScore(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// FormatScore renders a relevance score the way the CSV artifacts expect.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// JoinIDs renders a link set as the ';'-separated CSV cell.
func JoinIDs(ids []string) string {
	return strings.Join(ids, ";")
}

// SplitIDs parses a ';'-separated CSV cell back into a link set.
func SplitIDs(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ParseInt64 reads an integer cell, tolerating blanks.
func ParseInt64(cell string) (int64, error) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("lead: parse integer %q: %w", cell, err)
	}
	return v, nil
}
