package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal"
)

func entry(debit, credit string) journal.JournalEntry {
	return journal.JournalEntry{
		Debit:    decimal.RequireFromString(debit),
		Credit:   decimal.RequireFromString(credit),
		Currency: "EUR",
	}
}

func total(kind journal.TotalKind, line int, debit, credit string, from, to int) journal.DeclaredTotal {
	return journal.DeclaredTotal{
		Kind:      kind,
		Page:      1,
		Line:      line,
		Debit:     decimal.RequireFromString(debit),
		Credit:    decimal.RequireFromString(credit),
		HasDebit:  true,
		HasCredit: true,
		From:      from,
		To:        to,
	}
}

func TestValidate_Balanced(t *testing.T) {
	entries := []journal.JournalEntry{
		entry("3000", "0"),
		entry("0", "2100"),
		entry("0", "900"),
		entry("120.50", "0"),
		entry("0", "120.50"),
	}
	totals := []journal.DeclaredTotal{
		total(journal.Subtotal, 7, "3000", "3000", 0, 3),
		total(journal.PageTotal, 8, "3000", "3000", 0, 3),
		total(journal.GrandTotal, 12, "3120.50", "3120.5", 0, 5),
	}

	assert.Empty(t, Validate("journal.pdf", "EUR", entries, totals))
}

func TestValidate_Unbalanced(t *testing.T) {
	entries := []journal.JournalEntry{entry("100", "0"), entry("0", "99.99")}

	diags := Validate("journal.pdf", "EUR", entries, nil)
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, journal.SeverityError, d.Severity)
	assert.Equal(t, journal.KindBalanceMismatchError, d.Kind)
	assert.Equal(t, 0, d.Page)
	assert.Contains(t, d.Message, "100.00")
	assert.Contains(t, d.Message, "99.99")
	assert.Contains(t, d.Message, "0.01")
}

func TestValidate_PrecisionTolerance(t *testing.T) {
	entries := []journal.JournalEntry{entry("100.001", "0"), entry("0", "100.004")}
	assert.Empty(t, Validate("journal.pdf", "EUR", entries, nil))
}

func TestValidate_DeclaredTotalMismatch(t *testing.T) {
	entries := []journal.JournalEntry{entry("50", "0"), entry("0", "50")}
	totals := []journal.DeclaredTotal{
		total(journal.PageTotal, 3, "50", "50", 0, 2),
		total(journal.GrandTotal, 4, "60", "50", 0, 2),
	}

	diags := Validate("journal.pdf", "EUR", entries, totals)
	require.Len(t, diags, 1)
	assert.Equal(t, journal.KindBalanceMismatchError, diags[0].Kind)
	assert.Equal(t, 1, diags[0].Page)
	assert.Equal(t, 4, diags[0].Line)
	assert.Contains(t, diags[0].Message, "grand total")
}

func TestValidate_OneSidedTotal(t *testing.T) {
	entries := []journal.JournalEntry{entry("100", "0"), entry("0", "100")}

	debitOnly := total(journal.Subtotal, 3, "100", "0", 0, 2)
	debitOnly.HasCredit = false
	creditOnly := total(journal.PageTotal, 4, "0", "100", 0, 2)
	creditOnly.HasDebit = false
	assert.Empty(t, Validate("journal.pdf", "EUR", entries, []journal.DeclaredTotal{debitOnly, creditOnly}))

	wrong := total(journal.Subtotal, 5, "90", "0", 0, 2)
	wrong.HasCredit = false
	diags := Validate("journal.pdf", "EUR", entries, []journal.DeclaredTotal{wrong})
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "declared subtotal 90.00 / - does not match entries 100.00 / 100.00")
}

func TestValidate_DoesNotModifyEntries(t *testing.T) {
	entries := []journal.JournalEntry{entry("10", "0")}
	before := entries[0]

	diags := Validate("journal.pdf", "EUR", entries, []journal.DeclaredTotal{total(journal.Subtotal, 2, "1", "1", 0, 5)})
	assert.Len(t, diags, 2)
	assert.Equal(t, before, entries[0])
}

func TestValidate_Empty(t *testing.T) {
	assert.Empty(t, Validate("journal.pdf", "EUR", nil, nil))

	// A declared total over no entries must be zero.
	diags := Validate("journal.pdf", "EUR", nil, []journal.DeclaredTotal{total(journal.PageTotal, 1, "10", "10", 0, 0)})
	assert.Len(t, diags, 1)
}
