// Package directory models the contact-lookup capability behind the
// stakeholder stage.
//
// The real data source (a sales-intelligence or people-search API) is left
// pluggable. The shipped implementation is a deterministic stub that stands
// in for it: lookups derive entirely from the company name, so repeated runs
// produce identical rosters.
package directory

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/google/uuid"

	"github.com/kingrea/prospector/internal/lead"
)

// Directory returns zero or more contacts for a company. An empty slice with
// a nil error means the company has no discoverable contacts; that is a valid
// outcome, not a failure.
type Directory interface {
	Lookup(ctx context.Context, company lead.Company) ([]lead.Stakeholder, error)
}

// Func adapts a function into a Directory.
type Func func(ctx context.Context, company lead.Company) ([]lead.Stakeholder, error)

// Lookup implements Directory.
func (f Func) Lookup(ctx context.Context, company lead.Company) ([]lead.Stakeholder, error) {
	return f(ctx, company)
}

var (
	firstNames = []string{"Alex", "Taylor", "Jordan", "Dana", "Morgan", "Harper", "Casey", "Cameron", "Riley", "Avery"}
	lastNames  = []string{"Smith", "Jones", "Lee", "Brown", "Garcia", "Wilson", "Davis", "Green", "Clark", "Miller"}
	titles     = []string{
		"VP of Sales", "Director of Innovation", "Head of R&D", "Procurement Manager",
		"Marketing Lead", "Sales Manager", "Senior Product Manager", "Chief Materials Engineer",
	}
)

// Stub is the deterministic placeholder directory.
type Stub struct {
	// MaxContacts caps contacts per company; zero means the default of 3.
	MaxContacts int
}

// Lookup derives 0..MaxContacts contacts from a hash of the company name.
// Roughly one in four companies resolves to no contacts at all.
func (s Stub) Lookup(_ context.Context, company lead.Company) ([]lead.Stakeholder, error) {
	max := s.MaxContacts
	if max <= 0 {
		max = 3
	}
	seed := hashName(company.Name)
	count := int(seed % uint64(max+1)) // 0..max inclusive
	if count == 0 {
		return []lead.Stakeholder{}, nil
	}
	domain := emailDomain(company.Name)
	contacts := make([]lead.Stakeholder, 0, count)
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		first := firstNames[(seed>>uint(4*i))%uint64(len(firstNames))]
		last := lastNames[(seed>>uint(4*i+2))%uint64(len(lastNames))]
		title := titles[(seed>>uint(4*i+1))%uint64(len(titles))]
		name := first + " " + last
		// Overlapping shift windows can repeat a (name, title) pair,
		// which would hash to a duplicate stakeholder ID.
		if _, dup := seen[name+"|"+title]; dup {
			continue
		}
		seen[name+"|"+title] = struct{}{}
		slug := strings.ToLower(first) + "-" + strings.ToLower(last)
		contacts = append(contacts, lead.Stakeholder{
			ID:        stakeholderID(company.ID, name, title),
			CompanyID: company.ID,
			Name:      name,
			Title:     title,
			Email:     strings.ToLower(first) + "." + strings.ToLower(last) + "@" + domain,
			LinkedIn:  "https://www.linkedin.com/in/" + slug,
		})
	}
	return contacts, nil
}

// stakeholderID keeps IDs stable across runs for the same (company, person).
func stakeholderID(companyID, name, title string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(companyID+"|"+name+"|"+title)).String()
}

func hashName(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(lead.Normalize(name)))
	sum := h.Sum64()
	if sum == 0 {
		return 1
	}
	return sum
}

func emailDomain(company string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(company) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "example.com"
	}
	return b.String() + ".com"
}
