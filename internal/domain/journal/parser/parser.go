package parser

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/template"
	"github.com/FACorreiaa/payroll-journal-converter/pkg/money"
)

// Result is the parser output for one document.
type Result struct {
	Entries     []journal.JournalEntry
	Totals      []journal.DeclaredTotal
	Diagnostics []journal.Diagnostic
	// Ignored holds the raw text of rows classified as Unknown.
	Ignored []string
	// Currency is the document currency after any currency header.
	Currency string
}

// state carries the running context of a parse: the period date used for
// undated entries, the current employee, the negative section flag and total
// boundaries.
type state struct {
	doc      string
	tpl      *template.Template
	res      Result
	period   time.Time
	staff    string
	negative bool
	page     int
	// index of the first entry on the current page
	pageStart int
	// index of the first entry not yet covered by a subtotal
	subStart int
}

// Parse classifies rows in order and builds the document's entries. Rows
// matching no shape are skipped with a warning; recognised rows with
// malformed fields are skipped with an error. Parsing never stops early.
func Parse(doc string, tpl *template.Template, rows []journal.Row) Result {
	s := &state{doc: doc, tpl: tpl}
	s.res.Currency = tpl.Currency

	for _, row := range rows {
		if row.Page != s.page {
			s.page = row.Page
			s.pageStart = len(s.res.Entries)
		}
		s.apply(Classify(tpl, row), row)
	}
	return s.res
}

func (s *state) apply(shape Shape, row journal.Row) {
	switch shape {
	case Blank, Header:
		s.negative = false
	case Noise:
	case Period:
		s.periodRow(row)
	case Currency:
		s.currencyRow(row)
	case Negative:
		s.negative = true
	case Staff:
		s.staff, _, _ = s.tpl.Staff(row.Raw())
		s.negative = false
	case GrandTotal:
		s.totalRow(row, journal.GrandTotal, 0)
		s.subStart = len(s.res.Entries)
	case PageTotal:
		s.totalRow(row, journal.PageTotal, s.pageStart)
	case Subtotal:
		s.totalRow(row, journal.Subtotal, s.subStart)
		s.subStart = len(s.res.Entries)
	case Entry:
		s.entryRow(row)
	default:
		s.warn(row, journal.KindRowClassificationWarning, "row does not match any known shape: %q", row.Raw())
		s.res.Ignored = append(s.res.Ignored, row.Raw())
	}
}

func (s *state) periodRow(row journal.Row) {
	d, _, err := s.tpl.Period(row.Raw())
	if err != nil {
		s.warn(row, journal.KindRowClassificationWarning, "period header ignored: %v", err)
		return
	}
	s.period = d
}

func (s *state) currencyRow(row journal.Row) {
	code, _ := s.tpl.CurrencyHeader(row.Raw())
	normalized, err := money.NormalizeCurrency(code)
	if err != nil {
		s.warn(row, journal.KindRowClassificationWarning, "currency header ignored, keeping %s: %v", s.res.Currency, err)
		return
	}
	s.res.Currency = normalized
}

func (s *state) totalRow(row journal.Row, kind journal.TotalKind, from int) {
	s.negative = false

	debit, ok := s.amount(row, template.ColDebit)
	if !ok {
		return
	}
	credit, ok := s.amount(row, template.ColCredit)
	if !ok {
		return
	}
	s.res.Totals = append(s.res.Totals, journal.DeclaredTotal{
		Kind:      kind,
		Page:      row.Page,
		Line:      row.Line,
		Debit:     debit,
		Credit:    credit,
		HasDebit:  row.Text(template.ColDebit) != "",
		HasCredit: row.Text(template.ColCredit) != "",
		From:      from,
		To:        len(s.res.Entries),
	})
}

func (s *state) entryRow(row journal.Row) {
	if s.tpl.StaffRequired && s.staff == "" {
		s.fail(row, "entry precedes the first staff header")
		return
	}
	date, ok := s.date(row)
	if !ok {
		return
	}
	debit, ok := s.amount(row, template.ColDebit)
	if !ok {
		return
	}
	credit, ok := s.amount(row, template.ColCredit)
	if !ok {
		return
	}

	switch {
	case debit.IsZero() && credit.IsZero():
		s.fail(row, "entry has neither a debit nor a credit amount")
		return
	case !debit.IsZero() && !credit.IsZero():
		s.fail(row, "entry has both a debit and a credit amount")
		return
	}

	if s.negative {
		debit, credit = debit.Neg(), credit.Neg()
	}

	account := row.Text(template.ColAccount)
	description := row.Text(template.ColDescription)
	if description == "" {
		if l, found := s.tpl.CodeLabel(account); found {
			description = l
		} else {
			s.warn(row, journal.KindRowClassificationWarning, "unknown pay code %s has no description", account)
		}
	}

	s.res.Entries = append(s.res.Entries, journal.JournalEntry{
		Date:        date,
		Account:     account,
		Description: description,
		Debit:       debit,
		Credit:      credit,
		Currency:    s.res.Currency,
		Staff:       s.staff,
		Page:        row.Page,
		Line:        row.Line,
	})
}

func (s *state) date(row journal.Row) (time.Time, bool) {
	text := row.Text(template.ColDate)
	if text == "" {
		if s.period.IsZero() {
			s.fail(row, "entry has no date and no period header precedes it")
			return time.Time{}, false
		}
		return s.period, true
	}
	d, err := s.tpl.ParseDate(text)
	if err != nil {
		s.fail(row, "malformed date: %v", err)
		return time.Time{}, false
	}
	return d, true
}

// amount parses the named amount cell. An empty cell is zero. Amounts finer
// than the currency's minor unit are rejected.
func (s *state) amount(row journal.Row, column string) (decimal.Decimal, bool) {
	text := row.Text(column)
	if text == "" {
		return decimal.Zero, true
	}
	d, err := money.ParseAmount(text, s.tpl.DecimalComma)
	if err != nil {
		s.fail(row, "malformed %s amount: %v", column, err)
		return decimal.Zero, false
	}
	if !money.FitsPrecision(d, s.res.Currency) {
		s.fail(row, "malformed %s amount: %q has more decimals than %s allows", column, text, s.res.Currency)
		return decimal.Zero, false
	}
	return d, true
}

func (s *state) warn(row journal.Row, kind journal.Kind, format string, args ...any) {
	s.res.Diagnostics = append(s.res.Diagnostics, journal.Warning(kind, s.doc, row.Page, row.Line, format, args...))
}

func (s *state) fail(row journal.Row, format string, args ...any) {
	s.res.Diagnostics = append(s.res.Diagnostics, journal.Error(journal.KindFieldParseError, s.doc, row.Page, row.Line, format, args...))
}
