package directory

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/kingrea/prospector/internal/lead"
)

func TestStubLookupIsDeterministic(t *testing.T) {
	company := lead.Company{ID: "c1", Name: "Acme Graphics"}
	first, err := Stub{}.Lookup(context.Background(), company)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	second, err := Stub{}.Lookup(context.Background(), company)
	if err != nil {
		t.Fatalf("second lookup failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("contact counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("contact %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestStubLookupRespectsMaxContacts(t *testing.T) {
	companies := []string{"Acme Graphics", "Summit Signs", "Vista Print Co", "Banner Works", "Mural Masters"}
	for _, name := range companies {
		contacts, err := Stub{MaxContacts: 2}.Lookup(context.Background(), lead.Company{ID: "x", Name: name})
		if err != nil {
			t.Fatalf("lookup %s failed: %v", name, err)
		}
		if len(contacts) > 2 {
			t.Fatalf("%s returned %d contacts, cap is 2", name, len(contacts))
		}
	}
}

func TestStubLookupEmptyIsNotAnError(t *testing.T) {
	// With a cap of 1 some normalized names hash to zero contacts; sweep until
	// one does to pin the empty-but-valid contract.
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	for _, name := range names {
		contacts, err := Stub{MaxContacts: 1}.Lookup(context.Background(), lead.Company{ID: "x", Name: name})
		if err != nil {
			t.Fatalf("lookup %s returned error: %v", name, err)
		}
		if len(contacts) == 0 {
			return
		}
	}
	t.Skip("no zero-contact company in sweep; determinism covered elsewhere")
}

func TestStubLookupRostersHaveNoDuplicates(t *testing.T) {
	// Sweep enough names that at least some hashes would repeat a
	// (name, title) slot pair without deduplication.
	for i := 0; i < 500; i++ {
		name := fmt.Sprintf("Test Signs Co %d", i)
		contacts, err := Stub{}.Lookup(context.Background(), lead.Company{ID: "x", Name: name})
		if err != nil {
			t.Fatalf("lookup %s failed: %v", name, err)
		}
		people := make(map[string]bool, len(contacts))
		ids := make(map[string]bool, len(contacts))
		for _, c := range contacts {
			if people[c.Name+"|"+c.Title] {
				t.Fatalf("%s roster repeats %s (%s)", name, c.Name, c.Title)
			}
			people[c.Name+"|"+c.Title] = true
			if ids[c.ID] {
				t.Fatalf("%s roster repeats stakeholder ID %s", name, c.ID)
			}
			ids[c.ID] = true
		}
	}
}

func TestStubContactShape(t *testing.T) {
	company := lead.Company{ID: "c1", Name: "Acme Graphics & Signs, Inc."}
	contacts, err := Stub{MaxContacts: 3}.Lookup(context.Background(), company)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	for _, contact := range contacts {
		if contact.CompanyID != "c1" {
			t.Fatalf("wrong company link: %+v", contact)
		}
		if contact.ID == "" || contact.Name == "" || contact.Title == "" {
			t.Fatalf("incomplete contact: %+v", contact)
		}
		if !strings.HasSuffix(contact.Email, "@acmegraphicssignsinc.com") {
			t.Fatalf("email domain not derived from company name: %q", contact.Email)
		}
		if !strings.HasPrefix(contact.LinkedIn, "https://www.linkedin.com/in/") {
			t.Fatalf("unexpected linkedin url: %q", contact.LinkedIn)
		}
	}
}
