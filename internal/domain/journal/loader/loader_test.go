package loader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/journaltest"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/template"
)

func newLoader() *Loader {
	return New(template.Default(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func texts(frags []journal.TextFragment) []string {
	out := make([]string, 0, len(frags))
	for _, f := range frags {
		out = append(out, f.Text)
	}
	return out
}

func TestLoad_Fragments(t *testing.T) {
	data := journaltest.PDF(journaltest.Page{
		journaltest.Entry(100, "01/03/2024", "001", "Gross salary", "3.000,00", ""),
	})

	pages, err := newLoader().Load(context.Background(), "journal.pdf", data)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	page := pages[0]
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, []string{"01/03/2024", "001", "Gross salary", "3.000,00"}, texts(page.Fragments))

	first := page.Fragments[0]
	assert.Equal(t, 1, first.Page)
	assert.InDelta(t, journaltest.DateX, first.X, 0.01)
	assert.InDelta(t, 100, first.Y, 0.01)
	assert.InDelta(t, 9, first.FontSize, 0.01)
	assert.Greater(t, first.Width, 0.0)
}

func TestLoad_TopDownOrder(t *testing.T) {
	data := journaltest.PDF(journaltest.Page{
		journaltest.Text(300, 30, "lower"),
		journaltest.Text(100, 30, "upper"),
	})

	pages, err := newLoader().Load(context.Background(), "journal.pdf", data)
	require.NoError(t, err)
	require.Len(t, pages[0].Fragments, 2)

	// Fragments keep content-stream order; Y is measured from the top.
	lower, upper := pages[0].Fragments[0], pages[0].Fragments[1]
	assert.Equal(t, "lower", lower.Text)
	assert.Greater(t, lower.Y, upper.Y)
}

func TestLoad_SeparatorsSplitFragments(t *testing.T) {
	data := journaltest.PDF(journaltest.Page{
		journaltest.Text(100, 30, "Gross|salary"),
	})

	pages, err := newLoader().Load(context.Background(), "journal.pdf", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gross", "salary"}, texts(pages[0].Fragments))
}

func TestLoad_AccentedText(t *testing.T) {
	data := journaltest.PDF(journaltest.Page{
		journaltest.Text(50, 30, "N° 12 du 31/03/2024"),
		journaltest.Header(80),
	})

	pages, err := newLoader().Load(context.Background(), "journal.pdf", data)
	require.NoError(t, err)
	got := texts(pages[0].Fragments)
	assert.Contains(t, got, "N° 12 du 31/03/2024")
	assert.Contains(t, got, "Libellé")
	assert.Contains(t, got, "Crédit")
}

func TestLoad_MultiplePages(t *testing.T) {
	data := journaltest.PDF(
		journaltest.Page{journaltest.Text(100, 30, "first")},
		journaltest.Page{journaltest.Text(100, 30, "second")},
		journaltest.Page{},
	)

	pages, err := newLoader().Load(context.Background(), "journal.pdf", data)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, 2, pages[1].Number)
	assert.Equal(t, "second", pages[1].Fragments[0].Text)
	assert.Equal(t, 2, pages[1].Fragments[0].Page)
	assert.Empty(t, pages[2].Fragments)
}

func TestLoad_Unreadable(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"plain text", []byte("date;account;amount\n01/01/2024;001;12,00\n")},
		{"png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")},
		{"truncated pdf", []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := newLoader().Load(context.Background(), "broken.pdf", tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, journal.ErrUnreadableDocument), "got %v", err)
			assert.Nil(t, pages)
		})
	}
}

func TestLoad_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newLoader().Load(ctx, "journal.pdf", journaltest.PDF(journaltest.Page{journaltest.Text(100, 30, "x")}))
	assert.ErrorIs(t, err, context.Canceled)
}
