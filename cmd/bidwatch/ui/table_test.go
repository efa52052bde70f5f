package ui

import (
	"strings"
	"testing"
)

func TestTableRendersHeadersAndRows(t *testing.T) {
	table := NewTable("Top areas", "Area", "Total")
	table.AlignRight(1)
	table.AddRow("NCR", "₱7,760,000.00")
	table.AddRow("CALABARZON", "₱25,000,000.50")

	out := table.View(NewStyles(LightTheme()))
	for _, want := range []string{"Top areas", "Area", "Total", "NCR", "CALABARZON", "₱25,000,000.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestTableEmpty(t *testing.T) {
	table := NewTable("", "A", "B")
	out := table.View(NewStyles(LightTheme()))
	if !strings.Contains(out, "no rows") {
		t.Errorf("empty table output = %q", out)
	}
}

func TestDetectThemeHonorsOverride(t *testing.T) {
	t.Setenv("BIDWATCH_LIGHT_MODE", "1")
	if DetectTheme().IsDark {
		t.Error("override ignored")
	}
}
