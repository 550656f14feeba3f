// Package layout rebuilds table rows from positioned text fragments.
package layout

import (
	"sort"
	"strings"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/template"
)

// Reconstruct groups the fragments of page into lines and assigns each
// fragment of a line to the column band containing its left edge. Lines are
// numbered from 1 in top-down order.
//
// A line collects every fragment whose Y lies within the template's line
// tolerance of the first fragment of the line.
func Reconstruct(tpl *template.Template, page journal.Page) []journal.Row {
	if len(page.Fragments) == 0 {
		return nil
	}

	frags := make([]journal.TextFragment, len(page.Fragments))
	copy(frags, page.Fragments)
	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].Y != frags[j].Y {
			return frags[i].Y < frags[j].Y
		}
		return frags[i].X < frags[j].X
	})

	var (
		rows  []journal.Row
		line  []journal.TextFragment
		lineY float64
	)
	emit := func() {
		if len(line) == 0 {
			return
		}
		rows = append(rows, buildRow(tpl, page.Number, len(rows)+1, line))
		line = line[:0]
	}

	for _, f := range frags {
		if len(line) > 0 && f.Y-lineY > tpl.LineTolerance {
			emit()
		}
		if len(line) == 0 {
			lineY = f.Y
		}
		line = append(line, f)
	}
	emit()

	return rows
}

func buildRow(tpl *template.Template, page, number int, line []journal.TextFragment) journal.Row {
	sorted := make([]journal.TextFragment, len(line))
	copy(sorted, line)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	parts := make([][]string, len(tpl.Columns))
	for _, f := range sorted {
		i := tpl.Column(f.X)
		parts[i] = append(parts[i], f.Text)
	}

	cells := make([]journal.Cell, len(tpl.Columns))
	for i, c := range tpl.Columns {
		cells[i] = journal.Cell{Column: c.Name, Text: clean(strings.Join(parts[i], " "))}
	}
	return journal.Row{Page: page, Line: number, Cells: cells}
}

// clean drops box-drawing characters and collapses runs of whitespace.
func clean(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '|' || (r >= 0x2500 && r <= 0x257F) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
