// Package validator cross-checks a document's parsed entries against the
// balance rule and the totals the journal declares.
package validator

import (
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal"
	"github.com/FACorreiaa/payroll-journal-converter/pkg/money"
)

// Validate returns a BalanceMismatchError diagnostic for every failed check.
// Amounts are compared at the precision of currency; only the sides a total
// row prints are checked. Entries are never modified.
func Validate(doc, currency string, entries []journal.JournalEntry, totals []journal.DeclaredTotal) []journal.Diagnostic {
	var diags []journal.Diagnostic

	if len(entries) > 0 {
		debit, credit := sum(entries)
		if !money.Equal(debit, credit, currency) {
			diags = append(diags, journal.Error(journal.KindBalanceMismatchError, doc, 0, 0,
				"journal does not balance: debits %s, credits %s (difference %s %s)",
				money.Format(debit, currency), money.Format(credit, currency),
				money.Format(debit.Sub(credit), currency), currency))
		}
	}

	for _, t := range totals {
		from, to := clamp(t.From, t.To, len(entries))
		debit, credit := sum(entries[from:to])
		debitOK := !t.HasDebit || money.Equal(debit, t.Debit, currency)
		creditOK := !t.HasCredit || money.Equal(credit, t.Credit, currency)
		if debitOK && creditOK {
			continue
		}
		diags = append(diags, journal.Error(journal.KindBalanceMismatchError, doc, t.Page, t.Line,
			"declared %s %s / %s does not match entries %s / %s",
			t.Kind, declared(t.HasDebit, t.Debit, currency), declared(t.HasCredit, t.Credit, currency),
			money.Format(debit, currency), money.Format(credit, currency)))
	}

	return diags
}

// declared renders one side of a total row, "-" when the cell was blank.
func declared(printed bool, d decimal.Decimal, currency string) string {
	if !printed {
		return "-"
	}
	return money.Format(d, currency)
}

func sum(entries []journal.JournalEntry) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, e := range entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	return debit, credit
}

func clamp(from, to, n int) (int, int) {
	if from < 0 {
		from = 0
	}
	if to > n {
		to = n
	}
	if from > to {
		from = to
	}
	return from, to
}
