package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bidwatch/internal/store"
)

const sampleCSV = `award_id,award_title,awardee,organization,area_of_delivery,business_category,contract_amount,award_date
D-001,Supply of COVID-19 Test Kits,MedSupply Corp,Department of Health,NCR,Medical Supplies,1500000,2021-03-15
D-002,Road Widening Project,BuildRight Inc,DPWH,CALABARZON,Infrastructure,25000000,2021-06-01
D-003,Office Supplies Q3,PaperTrail Trading,City of Cebu,Central Visayas,Office Supplies,85000,2021-07-20
D-004,Covid Vaccination Logistics,CargoMove PH,Department of Health,NCR,Logistics,3200000,2021-08-02
D-005,School Building Repair,BuildRight Inc,DepEd,Central Luzon,Infrastructure,4750000,2021-09-11
D-006,IT Equipment,TechHub Solutions,DICT,NCR,ICT Equipment,2100000,2021-10-05
D-007,Rice Distribution,GrainFlow Corp,DSWD,Ilocos Region,Food Supplies,8900000,2021-11-18
`

func loadedDataSession(t *testing.T, pageSize int) *DataSession {
	t.Helper()

	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	path := filepath.Join(t.TempDir(), "awards.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	ds := NewDataSession(st, pageSize)
	rows, err := ds.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rows != 7 {
		t.Fatalf("Load rows = %d, want 7", rows)
	}
	return ds
}

func TestLoadComputesStatsAndBreakdowns(t *testing.T) {
	ds := loadedDataSession(t, 0)

	stats := ds.Stats()
	if stats.Rows != 7 {
		t.Errorf("Stats.Rows = %d, want 7", stats.Rows)
	}
	if stats.Organizations != 6 {
		t.Errorf("Stats.Organizations = %d, want 6", stats.Organizations)
	}

	areas := ds.AreaBreakdown()
	if len(areas) == 0 {
		t.Fatal("no area breakdown")
	}
	if areas[0].Label != "CALABARZON" {
		t.Errorf("largest area = %s, want CALABARZON", areas[0].Label)
	}

	cats := ds.CategoryBreakdown()
	if len(cats) == 0 {
		t.Fatal("no category breakdown")
	}
	if cats[0].Label != "Infrastructure" {
		t.Errorf("largest category = %s, want Infrastructure", cats[0].Label)
	}
}

func TestCategoryBreakdownExactBuckets(t *testing.T) {
	ds := loadedDataSession(t, 0)

	want := []store.Bucket{
		{Label: "Infrastructure", Count: 2, TotalAmount: 29750000},
		{Label: "Food Supplies", Count: 1, TotalAmount: 8900000},
		{Label: "Logistics", Count: 1, TotalAmount: 3200000},
		{Label: "ICT Equipment", Count: 1, TotalAmount: 2100000},
		{Label: "Medical Supplies", Count: 1, TotalAmount: 1500000},
		{Label: "Office Supplies", Count: 1, TotalAmount: 85000},
	}
	if diff := cmp.Diff(want, ds.CategoryBreakdown()); diff != "" {
		t.Errorf("category breakdown mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterChangeResetsPage(t *testing.T) {
	ds := loadedDataSession(t, 2)
	ctx := context.Background()

	if err := ds.SetPage(ctx, 3); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	if ds.Page().Number != 3 {
		t.Fatalf("page = %d, want 3", ds.Page().Number)
	}

	if err := ds.SetQuery(ctx, "covid"); err != nil {
		t.Fatalf("SetQuery: %v", err)
	}
	if ds.Page().Number != 1 {
		t.Errorf("page = %d after filter change, want 1", ds.Page().Number)
	}
	if ds.Total() != 2 {
		t.Errorf("Total = %d, want 2", ds.Total())
	}
}

func TestUnchangedFilterKeepsPage(t *testing.T) {
	ds := loadedDataSession(t, 2)
	ctx := context.Background()

	if err := ds.SetQuery(ctx, "covid"); err != nil {
		t.Fatalf("SetQuery: %v", err)
	}
	if err := ds.SetPage(ctx, 1); err != nil {
		t.Fatalf("SetPage: %v", err)
	}

	// Setting the same value again must not disturb anything.
	if err := ds.SetQuery(ctx, "covid"); err != nil {
		t.Fatalf("SetQuery repeat: %v", err)
	}
	if ds.Total() != 2 {
		t.Errorf("Total = %d, want 2", ds.Total())
	}
}

func TestPaginationClampsToRange(t *testing.T) {
	ds := loadedDataSession(t, 3)
	ctx := context.Background()

	if err := ds.SetPage(ctx, 99); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	p := ds.Page()
	if p.Number != p.TotalPages {
		t.Errorf("page = %d, want clamped to %d", p.Number, p.TotalPages)
	}
	if len(ds.Results()) == 0 {
		t.Error("clamped page has no results")
	}

	if err := ds.PrevPage(ctx); err != nil {
		t.Fatalf("PrevPage: %v", err)
	}
	if err := ds.SetPage(ctx, -5); err != nil {
		t.Fatalf("SetPage negative: %v", err)
	}
	if ds.Page().Number != 1 {
		t.Errorf("negative page clamped to %d, want 1", ds.Page().Number)
	}
}

func TestNextPrevPageWalkResults(t *testing.T) {
	ds := loadedDataSession(t, 3)
	ctx := context.Background()

	if err := ds.SetSort(ctx, "date", true); err != nil {
		t.Fatalf("SetSort: %v", err)
	}
	first := ds.Results()
	if first[0].AwardID != "D-001" {
		t.Fatalf("first page starts at %s", first[0].AwardID)
	}

	if err := ds.NextPage(ctx); err != nil {
		t.Fatalf("NextPage: %v", err)
	}
	second := ds.Results()
	if second[0].AwardID != "D-004" {
		t.Errorf("second page starts at %s, want D-004", second[0].AwardID)
	}

	if err := ds.PrevPage(ctx); err != nil {
		t.Fatalf("PrevPage: %v", err)
	}
	if ds.Results()[0].AwardID != "D-001" {
		t.Errorf("back on page 1, starts at %s", ds.Results()[0].AwardID)
	}
}

func TestAreaFilterNarrowsResults(t *testing.T) {
	ds := loadedDataSession(t, 0)
	ctx := context.Background()

	if err := ds.SetArea(ctx, "ncr"); err != nil {
		t.Fatalf("SetArea: %v", err)
	}
	if ds.Total() != 3 {
		t.Errorf("NCR total = %d, want 3", ds.Total())
	}
	for _, c := range ds.Results() {
		if c.Area != "NCR" {
			t.Errorf("stray area %s in filtered results", c.Area)
		}
	}
}
