package lead

import "testing"

func TestPriorityForBands(t *testing.T) {
	cases := []struct {
		score float64
		want  Priority
	}{
		{9.5, PriorityHigh},
		{9, PriorityHigh},
		{8.9, PriorityMedium},
		{7, PriorityMedium},
		{6.9, PriorityLow},
		{0, PriorityLow},
		{-1, PriorityUnknown},
	}
	for _, tc := range cases {
		if got := PriorityFor(tc.score); got != tc.want {
			t.Fatalf("PriorityFor(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestEventDedupeKeyIgnoresFormattingNoise(t *testing.T) {
	a := Event{Name: `  "ISA Sign Expo"  `, StartDate: "2026-04-22"}
	b := Event{Name: "isa sign expo", StartDate: "2026-04-22"}
	if a.DedupeKey() != b.DedupeKey() {
		t.Fatalf("keys differ: %q vs %q", a.DedupeKey(), b.DedupeKey())
	}
	c := Event{Name: "isa sign expo", StartDate: "2026-04-23"}
	if a.DedupeKey() == c.DedupeKey() {
		t.Fatalf("different dates must not collide")
	}
}

func TestCompanyAddEventDeduplicatesAndSorts(t *testing.T) {
	var c Company
	c.AddEvent("b")
	c.AddEvent("a")
	c.AddEvent("b")
	if len(c.EventIDs) != 2 {
		t.Fatalf("expected 2 event links, got %v", c.EventIDs)
	}
	if c.EventIDs[0] != "a" || c.EventIDs[1] != "b" {
		t.Fatalf("links not sorted: %v", c.EventIDs)
	}
}

func TestCompanyMergeFillsOnlyGaps(t *testing.T) {
	c := Company{Name: "Acme Graphics", Industry: "Signage"}
	changed := c.Merge(Company{Industry: "Printing", SizeBand: "201-500", Employees: 320})
	if !changed {
		t.Fatalf("merge with new fields should report a change")
	}
	if c.Industry != "Signage" {
		t.Fatalf("populated industry was overwritten: %q", c.Industry)
	}
	if c.SizeBand != "201-500" || c.Employees != 320 {
		t.Fatalf("gaps not filled: %+v", c)
	}
}

func TestCompanyMergeIsIdempotent(t *testing.T) {
	intel := Company{Industry: "Signage", SizeBand: "201-500", Website: "https://acme.example"}
	c := Company{Name: "Acme Graphics"}
	if !c.Merge(intel) {
		t.Fatalf("first merge should change the record")
	}
	first := c
	if c.Merge(intel) {
		t.Fatalf("second merge must be a no-op")
	}
	if c.Industry != first.Industry || c.SizeBand != first.SizeBand || c.Website != first.Website {
		t.Fatalf("second merge mutated the record: %+v vs %+v", c, first)
	}
}

func TestCompanyIDStableUnderNormalization(t *testing.T) {
	if CompanyID("  Acme Graphics ") != CompanyID("acme graphics") {
		t.Fatalf("normalized names must hash identically")
	}
	if CompanyID("acme graphics") == CompanyID("acme signs") {
		t.Fatalf("distinct names must not collide")
	}
}

func TestParseScoreClamps(t *testing.T) {
	if got := ParseScore("11.5"); got != 10 {
		t.Fatalf("expected clamp to 10, got %v", got)
	}
	if got := ParseScore("-3"); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
	if got := ParseScore(" 8.5 "); got != 8.5 {
		t.Fatalf("expected 8.5, got %v", got)
	}
	if got := ParseScore("junk"); got != 0 {
		t.Fatalf("unparsable scores default to 0, got %v", got)
	}
}

func TestSplitJoinIDsRoundTrip(t *testing.T) {
	ids := SplitIDs("a; b;;c ")
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Fatalf("unexpected split: %v", ids)
	}
	if JoinIDs(ids) != "a;b;c" {
		t.Fatalf("unexpected join: %q", JoinIDs(ids))
	}
	if SplitIDs("  ") != nil {
		t.Fatalf("blank cell should split to nil")
	}
}
