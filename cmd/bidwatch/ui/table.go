package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders static tabular data: search results, aggregate breakdowns,
// stats.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// RightAlign marks columns rendered flush right (amounts, counts).
	RightAlign map[int]bool
}

// NewTable creates a table with the given title and headers.
func NewTable(title string, headers ...string) *Table {
	return &Table{
		Title:      title,
		Headers:    headers,
		RightAlign: make(map[int]bool),
	}
}

// AddRow appends one row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// AlignRight marks a column as right-aligned.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.RightAlign[c] = true
	}
	return t
}

// View renders the table.
func (t *Table) View(styles Styles) string {
	if len(t.Rows) == 0 {
		return styles.Muted.Render("(no rows)") + "\n"
	}

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				if w := lipgloss.Width(cell); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	for i := range widths {
		widths[i] += 2
	}

	headerStyle := styles.Bold.Padding(0, 1)
	rowStyle := styles.Body.Padding(0, 1)
	sep := styles.Muted.Render("|")

	cellStyle := func(base lipgloss.Style, col int) lipgloss.Style {
		s := base.Width(widths[col])
		if t.RightAlign[col] {
			s = s.Align(lipgloss.Right)
		}
		return s
	}

	for i, h := range t.Headers {
		sb.WriteString(cellStyle(headerStyle, i).Render(h))
		if i < len(t.Headers)-1 {
			sb.WriteString(sep)
		}
	}
	sb.WriteString("\n")

	total := len(t.Headers) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", total)) + "\n")

	for _, row := range t.Rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			sb.WriteString(cellStyle(rowStyle, i).Render(cell))
			if i < len(row)-1 && i < len(t.Headers)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
