// Package parser interprets reconstructed rows against the payroll journal
// row grammar and emits journal entries, declared totals and row-level
// diagnostics.
package parser

import (
	"strings"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/template"
)

// Shape is the grammar variant a row was classified as.
type Shape int

const (
	Unknown Shape = iota
	Blank
	Period
	Currency
	Header
	GrandTotal
	PageTotal
	Subtotal
	Negative
	Staff
	Entry
	Noise
)

func (s Shape) String() string {
	switch s {
	case Blank:
		return "blank"
	case Period:
		return "period"
	case Currency:
		return "currency"
	case Header:
		return "header"
	case GrandTotal:
		return "grand total"
	case PageTotal:
		return "page total"
	case Subtotal:
		return "subtotal"
	case Negative:
		return "negative"
	case Staff:
		return "staff"
	case Entry:
		return "entry"
	case Noise:
		return "noise"
	}
	return "unknown"
}

type rule struct {
	shape Shape
	match func(tpl *template.Template, row journal.Row) bool
}

// grammar is evaluated in order; the first matching rule wins. The final
// rule always matches.
var grammar = []rule{
	{Blank, func(_ *template.Template, row journal.Row) bool {
		return row.IsBlank()
	}},
	{Period, func(tpl *template.Template, row journal.Row) bool {
		_, ok, _ := tpl.Period(row.Raw())
		return ok
	}},
	{Currency, func(tpl *template.Template, row journal.Row) bool {
		_, ok := tpl.CurrencyHeader(row.Raw())
		return ok
	}},
	{Header, func(tpl *template.Template, row journal.Row) bool {
		return tpl.IsHeader(cellMap(row))
	}},
	{GrandTotal, labelRule(func(l template.Labels) []string { return l.GrandTotal })},
	{PageTotal, labelRule(func(l template.Labels) []string { return l.PageTotal })},
	{Subtotal, labelRule(func(l template.Labels) []string { return l.Subtotal })},
	{Negative, func(tpl *template.Template, row journal.Row) bool {
		return !hasAmounts(row) && row.Text(template.ColAccount) == "" &&
			tpl.MatchLabel(tpl.Labels.Negative, label(row))
	}},
	{Staff, func(tpl *template.Template, row journal.Row) bool {
		if hasAmounts(row) {
			return false
		}
		_, _, ok := tpl.Staff(row.Raw())
		return ok
	}},
	{Entry, func(tpl *template.Template, row journal.Row) bool {
		return tpl.IsAccount(row.Text(template.ColAccount)) && hasAmounts(row)
	}},
	{Noise, func(tpl *template.Template, row journal.Row) bool {
		return tpl.IsNoise(row.Raw())
	}},
	{Unknown, func(*template.Template, journal.Row) bool { return true }},
}

// Classify returns the shape of row.
func Classify(tpl *template.Template, row journal.Row) Shape {
	for _, r := range grammar {
		if r.match(tpl, row) {
			return r.shape
		}
	}
	return Unknown
}

// labelRule matches total rows: no account, a label from the list, and at
// least one amount.
func labelRule(labels func(template.Labels) []string) func(*template.Template, journal.Row) bool {
	return func(tpl *template.Template, row journal.Row) bool {
		return hasAmounts(row) && row.Text(template.ColAccount) == "" &&
			tpl.MatchLabel(labels(tpl.Labels), label(row))
	}
}

func hasAmounts(row journal.Row) bool {
	return row.Text(template.ColDebit) != "" || row.Text(template.ColCredit) != ""
}

// label is the first non-empty cell with a trailing colon removed.
func label(row journal.Row) string {
	return strings.TrimSpace(strings.TrimSuffix(row.FirstText(), ":"))
}

func cellMap(row journal.Row) map[string]string {
	m := make(map[string]string, len(row.Cells))
	for _, c := range row.Cells {
		if c.Text != "" {
			m[c.Column] = c.Text
		}
	}
	return m
}
