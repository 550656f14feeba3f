// Package journal holds the types shared by the payroll journal conversion
// pipeline: positioned text, reconstructed rows, journal entries and the
// diagnostics collected while turning a PDF into CSV rows.
package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnreadableDocument marks a document whose PDF container could not be
// opened. It is fatal for that document only.
var ErrUnreadableDocument = errors.New("unreadable document")

// TextFragment is one run of text positioned on a page. Y grows downwards
// from the top edge of the page.
type TextFragment struct {
	Text     string
	Page     int
	X        float64
	Y        float64
	Width    float64
	Height   float64
	FontSize float64
}

// Page is the ordered fragment list of one page (1-based Number).
type Page struct {
	Number    int
	Fragments []TextFragment
}

// Cell is the concatenated text of one column band within a row.
type Cell struct {
	Column string
	Text   string
}

// Row is one reconstructed line of a page, cells ordered by column band.
type Row struct {
	Page  int
	Line  int
	Cells []Cell
}

// Text returns the text of the named column, or "" when absent.
func (r Row) Text(column string) string {
	for _, c := range r.Cells {
		if c.Column == column {
			return c.Text
		}
	}
	return ""
}

// FirstText returns the first non-empty cell text.
func (r Row) FirstText() string {
	for _, c := range r.Cells {
		if c.Text != "" {
			return c.Text
		}
	}
	return ""
}

// Raw joins all non-empty cells with a single space.
func (r Row) Raw() string {
	parts := make([]string, 0, len(r.Cells))
	for _, c := range r.Cells {
		if c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, " ")
}

// IsBlank reports whether the row carries no text at all.
func (r Row) IsBlank() bool {
	return r.FirstText() == ""
}

// JournalEntry is one debit or credit line of a payroll journal. Exactly one
// of Debit and Credit is non-zero.
type JournalEntry struct {
	Date        time.Time
	Account     string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Currency    string
	// Staff is the employee identifier of the enclosing staff header, if any.
	Staff string

	// Page and Line locate the source row.
	Page int
	Line int
}

// Amount returns the signed value of the entry, debit positive.
func (e JournalEntry) Amount() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

// Label is the description qualified with the staff identifier, e.g.
// "Gross salary [123456]".
func (e JournalEntry) Label() string {
	if e.Staff == "" {
		return e.Description
	}
	return strings.TrimSpace(e.Description + " [" + e.Staff + "]")
}

// TotalKind distinguishes the declared totals printed in a journal.
type TotalKind int

const (
	Subtotal TotalKind = iota
	PageTotal
	GrandTotal
)

func (k TotalKind) String() string {
	switch k {
	case Subtotal:
		return "subtotal"
	case PageTotal:
		return "page total"
	case GrandTotal:
		return "grand total"
	}
	return "total"
}

// DeclaredTotal is a total row captured during parsing. It covers the
// entries in [From, To) of the document's entry list. A side left blank on
// the page declares nothing and has its Has flag unset.
type DeclaredTotal struct {
	Kind      TotalKind
	Page      int
	Line      int
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	HasDebit  bool
	HasCredit bool
	From      int
	To        int
}

// Severity of a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Kind classifies a diagnostic.
type Kind string

const (
	KindUnreadableDocument       Kind = "UnreadableDocument"
	KindRowClassificationWarning Kind = "RowClassificationWarning"
	KindFieldParseError          Kind = "FieldParseError"
	KindBalanceMismatchError     Kind = "BalanceMismatchError"
	KindNoEntries                Kind = "NoEntries"
)

// Diagnostic is a warning or error attributed to a document and optionally
// to a page and row. Page and Line are 0 when not applicable.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Document string
	Page     int
	Line     int
	Message  string
}

// String renders the diagnostic for end users, e.g.
// "journal.pdf p.2 row 14: warning: row does not match any known shape".
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Document)
	if d.Page > 0 {
		fmt.Fprintf(&b, " p.%d", d.Page)
	}
	if d.Line > 0 {
		fmt.Fprintf(&b, " row %d", d.Line)
	}
	fmt.Fprintf(&b, ": %s: %s", d.Severity, d.Message)
	return b.String()
}

// Warning builds a warning-severity diagnostic.
func Warning(kind Kind, doc string, page, line int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Kind: kind, Document: doc, Page: page, Line: line, Message: fmt.Sprintf(format, args...)}
}

// Error builds an error-severity diagnostic.
func Error(kind Kind, doc string, page, line int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Kind: kind, Document: doc, Page: page, Line: line, Message: fmt.Sprintf(format, args...)}
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// DocumentResult is the outcome of converting one uploaded document.
type DocumentResult struct {
	Document    string
	Entries     []JournalEntry
	Diagnostics []Diagnostic
	// Ignored holds the raw text of rows skipped as unknown.
	Ignored []string
	Success bool
}

// BatchResult is the merged outcome of a conversion request. CSV is nil
// when no document contributed entries.
type BatchResult struct {
	BatchID     string
	Entries     []JournalEntry
	Diagnostics []Diagnostic
	Ignored     []string
	CSV         []byte
	Documents   []DocumentResult
}

// Success reports whether a CSV was produced.
func (b *BatchResult) Success() bool {
	return b.CSV != nil
}

// Errors renders every diagnostic in order.
func (b *BatchResult) Errors() []string {
	out := make([]string, 0, len(b.Diagnostics))
	for _, d := range b.Diagnostics {
		out = append(out, d.String())
	}
	return out
}
