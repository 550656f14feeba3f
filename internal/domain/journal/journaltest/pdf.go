// Package journaltest builds small, valid payroll journal PDFs in memory so
// the loader, service and handler tests can run without binary fixtures.
package journaltest

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

const (
	pageWidth  = 595
	pageHeight = 842
	fontSize   = 9
)

// X positions inside the default template's column bands.
const (
	DateX        = 25
	AccountX     = 100
	DescriptionX = 165
	DebitX       = 400
	CreditX      = 500
)

// Cell is a run of text drawn at X.
type Cell struct {
	X    float64
	Text string
}

// Line is a set of cells on one baseline, Y measured from the top of the page.
type Line struct {
	Y     float64
	Cells []Cell
}

// Page is the list of lines drawn on one page.
type Page []Line

// Text returns a single-cell line.
func Text(y, x float64, text string) Line {
	return Line{Y: y, Cells: []Cell{{X: x, Text: text}}}
}

// Entry returns a journal entry line with the cells placed in the default
// template's column bands. Empty strings are not drawn.
func Entry(y float64, date, account, description, debit, credit string) Line {
	l := Line{Y: y}
	for _, c := range []Cell{
		{DateX, date},
		{AccountX, account},
		{DescriptionX, description},
		{DebitX, debit},
		{CreditX, credit},
	} {
		if c.Text != "" {
			l.Cells = append(l.Cells, c)
		}
	}
	return l
}

// Header returns the French column header line.
func Header(y float64) Line {
	return Entry(y, "Date", "Compte", "Libellé", "Débit", "Crédit")
}

// Total returns a total line with its label in the description band.
func Total(y float64, label, debit, credit string) Line {
	return Entry(y, "", "", label, debit, credit)
}

// SampleJournal returns a balanced one-page journal with three entries, a
// page total and the usual banner and footer lines.
func SampleJournal() Page {
	return Page{
		Text(40, DateX, "Journal de paie"),
		Text(55, DateX, "N° 0042 du 31/03/2024"),
		Header(80),
		Entry(100, "01/03/2024", "001", "Gross salary", "3.000,00", ""),
		Entry(115, "", "455000", "Net pay", "", "2.100,00"),
		Entry(130, "", "453000", "Withholding tax", "", "900,00"),
		Total(150, "Total page", "3.000,00", "3.000,00"),
		Text(800, DateX, "Page 1 / 1"),
	}
}

// PDF renders pages into a PDF 1.4 document using Helvetica with
// WinAnsiEncoding. Every glyph is 0.5em wide.
func PDF(pages ...Page) []byte {
	if len(pages) == 0 {
		pages = []Page{{}}
	}

	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	catalog := add("") // patched below
	tree := add("")
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding " +
		"/FirstChar 32 /LastChar 255 /Widths [" + strings.TrimSpace(strings.Repeat("500 ", 224)) + "] >>")

	kids := make([]string, 0, len(pages))
	for _, p := range pages {
		stream := content(p)
		contents := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
		page := add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			tree, font, contents))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}
	objects[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", tree)
	objects[tree-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %d %d] >>",
		strings.Join(kids, " "), len(kids), pageWidth, pageHeight)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, catalog, xref)
	return buf.Bytes()
}

func content(p Page) string {
	var b strings.Builder
	for _, line := range p {
		for _, c := range line.Cells {
			fmt.Fprintf(&b, "BT /F1 %d Tf 1 0 0 1 %.2f %.2f Tm (%s) Tj ET\n",
				fontSize, c.X, pageHeight-line.Y, escape(c.Text))
		}
	}
	return b.String()
}

func escape(s string) string {
	enc, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		enc = s
	}
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(enc)
}
