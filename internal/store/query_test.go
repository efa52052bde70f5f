package store

import (
	"context"
	"strings"
	"testing"
)

func TestSearchKeywordMatchesSubsetOnly(t *testing.T) {
	s := openTestStore(t)
	loadSample(t, s)

	got, err := s.Search(context.Background(), Filter{Query: "covid"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("covid matches = %d, want 2 of 10", len(got))
	}
	for _, c := range got {
		if !strings.Contains(strings.ToLower(c.AwardTitle), "covid") {
			t.Errorf("unexpected match %q", c.AwardTitle)
		}
	}

	n, err := s.Count(context.Background(), Filter{Query: "covid"})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestSearchMatchesAwardeeAndOrganization(t *testing.T) {
	s := openTestStore(t)
	loadSample(t, s)

	byAwardee, err := s.Search(context.Background(), Filter{Query: "buildright"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(byAwardee) != 2 {
		t.Errorf("awardee matches = %d, want 2", len(byAwardee))
	}

	byOrg, err := s.Search(context.Background(), Filter{Query: "department of health"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(byOrg) != 2 {
		t.Errorf("organization matches = %d, want 2", len(byOrg))
	}
}

func TestSearchDefaultOrderIsAmountDescending(t *testing.T) {
	s := openTestStore(t)
	loadSample(t, s)

	got, err := s.Search(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Amount > got[i-1].Amount {
			t.Fatalf("row %d amount %v exceeds previous %v", i, got[i].Amount, got[i-1].Amount)
		}
	}
	if got[0].AwardID != "A-002" {
		t.Errorf("largest contract = %s, want A-002", got[0].AwardID)
	}
}

func TestSearchSortByDateAscending(t *testing.T) {
	s := openTestStore(t)
	loadSample(t, s)

	got, err := s.Search(context.Background(), Filter{SortKey: "date", SortAsc: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got[0].AwardID != "A-001" {
		t.Errorf("earliest = %s, want A-001", got[0].AwardID)
	}
	if got[len(got)-1].AwardID != "A-010" {
		t.Errorf("latest = %s, want A-010", got[len(got)-1].AwardID)
	}
}

func TestSearchUnknownSortKeyFallsBackToAmount(t *testing.T) {
	s := openTestStore(t)
	loadSample(t, s)

	got, err := s.Search(context.Background(), Filter{SortKey: "amount; DROP TABLE contracts"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got[0].AwardID != "A-002" {
		t.Errorf("fallback order wrong, first = %s", got[0].AwardID)
	}

	// Table must still be intact.
	if n, err := s.Count(context.Background(), Filter{}); err != nil || n != 10 {
		t.Fatalf("Count after hostile sort key = %d, %v", n, err)
	}
}

func TestSearchLikeMetacharactersAreLiteral(t *testing.T) {
	csv := "award_id,award_title,amount\n" +
		"P-1,Discount 50% Supplies,100\n" +
		"P-2,Discount 500 Supplies,200\n" +
		"P-3,under_score title,300\n" +
		"P-4,underXscore title,400\n"
	s := openTestStore(t)
	if _, err := s.LoadReader(strings.NewReader(csv)); err != nil {
		t.Fatalf("LoadReader: %v", err)
	}

	got, err := s.Search(context.Background(), Filter{Query: "50%"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].AwardID != "P-1" {
		t.Errorf("%% search matched %d rows, want only P-1", len(got))
	}

	got, err = s.Search(context.Background(), Filter{Query: "under_score"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].AwardID != "P-3" {
		t.Errorf("_ search matched %d rows, want only P-3", len(got))
	}
}

func TestSearchFiltersCombine(t *testing.T) {
	s := openTestStore(t)
	loadSample(t, s)

	got, err := s.Search(context.Background(), Filter{Area: "NCR", Category: "medical"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].AwardID != "A-001" {
		t.Errorf("combined filter matched %d rows, want only A-001", len(got))
	}
}

func TestSearchPagination(t *testing.T) {
	s := openTestStore(t)
	loadSample(t, s)

	page1, err := s.Search(context.Background(), Filter{Limit: 4, SortKey: "date", SortAsc: true})
	if err != nil {
		t.Fatalf("Search page 1: %v", err)
	}
	page2, err := s.Search(context.Background(), Filter{Limit: 4, Offset: 4, SortKey: "date", SortAsc: true})
	if err != nil {
		t.Fatalf("Search page 2: %v", err)
	}
	if len(page1) != 4 || len(page2) != 4 {
		t.Fatalf("page sizes = %d, %d, want 4, 4", len(page1), len(page2))
	}
	if page1[3].AwardID == page2[0].AwardID {
		t.Error("pages overlap")
	}
	if page1[0].AwardID != "A-001" || page2[0].AwardID != "A-005" {
		t.Errorf("page boundaries wrong: %s / %s", page1[0].AwardID, page2[0].AwardID)
	}
}

func TestAggregateByAreaOrdersByTotal(t *testing.T) {
	s := openTestStore(t)
	loadSample(t, s)

	buckets, err := s.AggregateByArea(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("AggregateByArea: %v", err)
	}
	if len(buckets) == 0 {
		t.Fatal("no buckets")
	}
	if buckets[0].Label != "CALABARZON" {
		t.Errorf("largest area = %s, want CALABARZON", buckets[0].Label)
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i].TotalAmount > buckets[i-1].TotalAmount {
			t.Fatalf("bucket %d out of order", i)
		}
	}

	var ncr *Bucket
	for i := range buckets {
		if buckets[i].Label == "NCR" {
			ncr = &buckets[i]
		}
	}
	if ncr == nil {
		t.Fatal("NCR bucket missing")
	}
	if ncr.Count != 4 {
		t.Errorf("NCR count = %d, want 4", ncr.Count)
	}
}

func TestAggregateByCategoryRespectsFilter(t *testing.T) {
	s := openTestStore(t)
	loadSample(t, s)

	buckets, err := s.AggregateByCategory(context.Background(), Filter{Area: "NCR"})
	if err != nil {
		t.Fatalf("AggregateByCategory: %v", err)
	}
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	if total != 4 {
		t.Errorf("filtered bucket counts sum to %d, want 4", total)
	}
}

func TestAggregateLabelsEmptyAsUnspecified(t *testing.T) {
	csv := "award_id,area,amount\nU-1,,100\nU-2,NCR,200\n"
	s := openTestStore(t)
	if _, err := s.LoadReader(strings.NewReader(csv)); err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	buckets, err := s.AggregateByArea(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("AggregateByArea: %v", err)
	}
	found := false
	for _, b := range buckets {
		if b.Label == "(unspecified)" {
			found = true
		}
	}
	if !found {
		t.Error("empty area not bucketed as (unspecified)")
	}
}

func TestTopAwardees(t *testing.T) {
	s := openTestStore(t)
	loadSample(t, s)

	top, err := s.TopAwardees(context.Background(), Filter{}, 3)
	if err != nil {
		t.Fatalf("TopAwardees: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("len = %d, want 3", len(top))
	}
	if top[0].Label != "BuildRight Inc" {
		t.Errorf("top awardee = %s, want BuildRight Inc", top[0].Label)
	}
	if top[0].Count != 2 {
		t.Errorf("top awardee count = %d, want 2", top[0].Count)
	}
}

func TestStats(t *testing.T) {
	s := openTestStore(t)
	loadSample(t, s)

	st, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Rows != 10 {
		t.Errorf("Rows = %d, want 10", st.Rows)
	}
	want := 1500000.00 + 25000000.50 + 85000 + 3200000 + 4750000 + 2100000 + 8900000 + 5400000 + 1200000 + 960000
	if st.TotalValue != want {
		t.Errorf("TotalValue = %v, want %v", st.TotalValue, want)
	}
	if st.AverageValue != want/10 {
		t.Errorf("AverageValue = %v, want %v", st.AverageValue, want/10)
	}
	if st.Organizations != 9 {
		t.Errorf("Organizations = %d, want 9", st.Organizations)
	}
	if st.EarliestAward != "2021-03-15" || st.LatestAward != "2022-02-14" {
		t.Errorf("date range = %s..%s", st.EarliestAward, st.LatestAward)
	}
}

func TestStatsEmptyStore(t *testing.T) {
	s := openTestStore(t)
	st, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Rows != 0 || st.TotalValue != 0 || st.AverageValue != 0 {
		t.Errorf("empty stats = %+v", st)
	}
}
