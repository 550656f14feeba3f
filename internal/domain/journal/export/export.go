// Package export renders journal entries as CSV for accounting imports and
// as an XLSX workbook for spreadsheet users. Both formats share one column
// schema: date, account, description, debit, credit, currency.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal"
	"github.com/FACorreiaa/payroll-journal-converter/pkg/money"
)

// DateLayout is the canonical output date format.
const DateLayout = "2006-01-02"

// SheetName is the worksheet holding the entries in XLSX output.
const SheetName = "Journal"

// Record is one CSV row.
type Record struct {
	Date        string `csv:"date"`
	Account     string `csv:"account"`
	Description string `csv:"description"`
	Debit       string `csv:"debit"`
	Credit      string `csv:"credit"`
	Currency    string `csv:"currency"`
}

// Header returns the fixed column names in output order.
func Header() []string {
	return []string{"date", "account", "description", "debit", "credit", "currency"}
}

// NewRecord renders e with ISO dates and amounts at the precision of its
// currency. The zero side is rendered as zero at the same precision and the
// description carries the staff identifier when there is one.
func NewRecord(e journal.JournalEntry) Record {
	return Record{
		Date:        e.Date.Format(DateLayout),
		Account:     e.Account,
		Description: e.Label(),
		Debit:       money.Format(e.Debit, e.Currency),
		Credit:      money.Format(e.Credit, e.Currency),
		Currency:    e.Currency,
	}
}

// CSV renders the header row followed by one row per entry.
func CSV(entries []journal.JournalEntry) ([]byte, error) {
	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, NewRecord(e))
	}
	out, err := gocsv.MarshalBytes(&records)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal CSV: %w", err)
	}
	return out, nil
}

// ReadCSV parses CSV produced by CSV back into records.
func ReadCSV(data []byte) ([]Record, error) {
	var records []Record
	if err := gocsv.UnmarshalBytes(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return records, nil
}

// XLSX renders the entries into a single-sheet workbook. Amounts are stored
// as numbers formatted at the precision of their currency.
func XLSX(entries []journal.JournalEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, 0, len(Header()))
	for _, h := range Header() {
		header = append(header, h)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	styles := make(map[int32]int)
	for i, e := range entries {
		precision := money.Precision(e.Currency)
		style, ok := styles[precision]
		if !ok {
			format := "0"
			if precision > 0 {
				format += "." + strings.Repeat("0", int(precision))
			}
			var err error
			style, err = f.NewStyle(&excelize.Style{CustomNumFmt: &format})
			if err != nil {
				return nil, fmt.Errorf("failed to create amount style: %w", err)
			}
			styles[precision] = style
		}

		rowIdx := i + 2
		row := []any{
			e.Date.Format(DateLayout),
			e.Account,
			e.Label(),
			money.Round(e.Debit, e.Currency).InexactFloat64(),
			money.Round(e.Credit, e.Currency).InexactFloat64(),
			e.Currency,
		}
		first, _ := excelize.CoordinatesToCellName(1, rowIdx)
		if err := f.SetSheetRow(SheetName, first, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", rowIdx, err)
		}
		debitCell, _ := excelize.CoordinatesToCellName(4, rowIdx)
		creditCell, _ := excelize.CoordinatesToCellName(5, rowIdx)
		if err := f.SetCellStyle(SheetName, debitCell, creditCell, style); err != nil {
			return nil, fmt.Errorf("failed to style row %d: %w", rowIdx, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}
