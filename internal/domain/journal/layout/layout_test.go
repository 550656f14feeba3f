package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/template"
)

func frag(text string, x, y float64) journal.TextFragment {
	return journal.TextFragment{Text: text, Page: 1, X: x, Y: y, FontSize: 9, Height: 9}
}

func TestReconstruct(t *testing.T) {
	tpl := template.Default()

	page := journal.Page{Number: 2, Fragments: []journal.TextFragment{
		frag("3.000,00", 400, 101),
		frag("01/03/2024", 25, 100),
		frag("Gross", 165, 100.5),
		frag("001", 100, 99.5),
		frag("salary", 200, 100),
		frag("Total page", 165, 140),
		frag("3.000,00", 400, 140),
	}}

	rows := Reconstruct(tpl, page)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 2, first.Page)
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, "01/03/2024", first.Text(template.ColDate))
	assert.Equal(t, "001", first.Text(template.ColAccount))
	assert.Equal(t, "Gross salary", first.Text(template.ColDescription))
	assert.Equal(t, "3.000,00", first.Text(template.ColDebit))
	assert.Equal(t, "", first.Text(template.ColCredit))
	require.Len(t, first.Cells, 5)

	second := rows[1]
	assert.Equal(t, 2, second.Line)
	assert.Equal(t, "Total page", second.FirstText())
	assert.Equal(t, "Total page 3.000,00", second.Raw())
}

func TestReconstruct_LineTolerance(t *testing.T) {
	tpl := template.Default()

	// Each fragment is within tolerance of its neighbour but the third is
	// beyond tolerance of the first, so it starts a new line.
	rows := Reconstruct(tpl, journal.Page{Number: 1, Fragments: []journal.TextFragment{
		frag("a", 25, 100),
		frag("b", 100, 102.5),
		frag("c", 165, 105),
	}})

	require.Len(t, rows, 2)
	assert.Equal(t, "a b", rows[0].Raw())
	assert.Equal(t, "c", rows[1].Raw())
}

func TestReconstruct_OutOfBandGoesToNearest(t *testing.T) {
	tpl := template.Default()

	rows := Reconstruct(tpl, journal.Page{Number: 1, Fragments: []journal.TextFragment{
		frag("left", 2, 50),
		frag("right", 590, 50),
	}})

	require.Len(t, rows, 1)
	assert.Equal(t, "left", rows[0].Text(template.ColDate))
	assert.Equal(t, "right", rows[0].Text(template.ColCredit))
}

func TestReconstruct_CleansBoxDrawing(t *testing.T) {
	tpl := template.Default()

	rows := Reconstruct(tpl, journal.Page{Number: 1, Fragments: []journal.TextFragment{
		frag("│", 165, 50),
		frag("Meal  vouchers", 170, 50),
		frag("|", 300, 50),
	}})

	require.Len(t, rows, 1)
	assert.Equal(t, "Meal vouchers", rows[0].Text(template.ColDescription))
}

func TestReconstruct_Empty(t *testing.T) {
	assert.Nil(t, Reconstruct(template.Default(), journal.Page{Number: 1}))
}

func TestReconstruct_DoesNotMutateInput(t *testing.T) {
	tpl := template.Default()
	page := journal.Page{Number: 1, Fragments: []journal.TextFragment{
		frag("second", 25, 200),
		frag("first", 25, 100),
	}}

	rows := Reconstruct(tpl, page)
	require.Len(t, rows, 2)
	assert.Equal(t, "first", rows[0].Raw())
	assert.Equal(t, "second", page.Fragments[0].Text)
}
