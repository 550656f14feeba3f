// Package loader opens uploaded PDF documents and extracts positioned text
// fragments page by page.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/dslipak/pdf"
	"github.com/gabriel-vasile/mimetype"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/template"
)

const (
	pdfMIME           = "application/pdf"
	defaultPageHeight = 842 // A4 portrait
	defaultGlyphGap   = 1.0
	// Gaps wider than this share of the font size read as a word space.
	spaceGap = 0.15
	// Baselines closer than this are the same baseline.
	baselineEpsilon = 0.5
	maxTreeDepth    = 32
)

// Loader turns raw PDF bytes into pages of text fragments.
type Loader struct {
	tpl    *template.Template
	logger *slog.Logger
}

// New creates a loader using the glyph gap of tpl.
func New(tpl *template.Template, logger *slog.Logger) *Loader {
	return &Loader{tpl: tpl, logger: logger}
}

// Load extracts the text fragments of every page of the named document.
// Any failure to open or read the container is reported as
// journal.ErrUnreadableDocument.
func (l *Loader) Load(ctx context.Context, name string, data []byte) (pages []journal.Page, err error) {
	mtype := mimetype.Detect(data)
	if !mtype.Is(pdfMIME) {
		return nil, fmt.Errorf("%w: expected %s, got %s", journal.ErrUnreadableDocument, pdfMIME, mtype.String())
	}

	// The PDF library panics on some malformed object graphs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", journal.ErrUnreadableDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", journal.ErrUnreadableDocument, err)
	}

	n := reader.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("%w: document has no pages", journal.ErrUnreadableDocument)
	}

	pages = make([]journal.Page, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := reader.Page(i)
		if p.V.IsNull() {
			return nil, fmt.Errorf("%w: page %d is missing", journal.ErrUnreadableDocument, i)
		}
		pages = append(pages, journal.Page{
			Number:    i,
			Fragments: l.fragments(i, pageTop(p), p.Content().Text),
		})
	}

	l.logger.Debug("document loaded", slog.String("document", name), slog.Int("pages", n))
	return pages, nil
}

// fragments merges glyphs into word runs. Glyphs join the current run when
// they sit on the same baseline and start no further than glyph_gap font
// sizes after it ends. Box-drawing characters end the current run.
func (l *Loader) fragments(page int, top float64, glyphs []pdf.Text) []journal.TextFragment {
	gap := defaultGlyphGap
	if l.tpl != nil && l.tpl.GlyphGap > 0 {
		gap = l.tpl.GlyphGap
	}

	var (
		out     []journal.TextFragment
		cur     *journal.TextFragment
		text    strings.Builder
		end     float64
		baseY   float64
		pending bool
	)
	flush := func() {
		if cur != nil {
			cur.Text = strings.TrimSpace(text.String())
			cur.Width = end - cur.X
			if cur.Text != "" {
				out = append(out, *cur)
			}
		}
		cur = nil
		text.Reset()
		pending = false
	}

	for _, g := range glyphs {
		if isSeparator(g.S) {
			flush()
			continue
		}
		if strings.TrimSpace(g.S) == "" {
			pending = true
			continue
		}

		size := g.FontSize
		if size <= 0 {
			size = 1
		}
		if cur != nil {
			dx := g.X - end
			sameLine := math.Abs(g.Y-baseY) < baselineEpsilon
			if !sameLine || dx > gap*size || dx < -size {
				flush()
			} else if pending || dx > spaceGap*size {
				text.WriteByte(' ')
			}
		}
		if cur == nil {
			cur = &journal.TextFragment{
				Page:     page,
				X:        g.X,
				Y:        top - g.Y,
				Height:   size,
				FontSize: size,
			}
			baseY = g.Y
		}
		pending = false
		text.WriteString(g.S)
		end = g.X + g.W
	}
	flush()
	return out
}

func isSeparator(s string) bool {
	for _, r := range s {
		if r == '|' || (r >= 0x2500 && r <= 0x257F) {
			return true
		}
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return false
}

// pageTop returns the upper edge of the page's MediaBox, inherited through
// the page tree when the page itself has none.
func pageTop(p pdf.Page) float64 {
	v := p.V
	for depth := 0; depth < maxTreeDepth && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			return box.Index(3).Float64()
		}
		v = v.Key("Parent")
	}
	return defaultPageHeight
}
