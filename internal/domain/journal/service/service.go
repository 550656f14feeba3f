// Package service runs the conversion pipeline for a batch of uploaded
// payroll journals and merges the per-document results.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/export"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/layout"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/loader"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/parser"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/template"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/validator"
	"github.com/FACorreiaa/payroll-journal-converter/pkg/metrics"
)

const tracerName = "github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/service"

// Upload is one document of a batch as received.
type Upload struct {
	Filename string
	Data     []byte
}

// Loader extracts the pages of a document.
type Loader interface {
	Load(ctx context.Context, name string, data []byte) ([]journal.Page, error)
}

// ConverterService converts batches of payroll journal PDFs into CSV
type ConverterService struct {
	tpl     *template.Template
	loader  Loader
	workers int
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewConverterService creates a converter using the PDF loader and one
// worker per available CPU.
func NewConverterService(tpl *template.Template, logger *slog.Logger) *ConverterService {
	return &ConverterService{
		tpl:     tpl,
		loader:  loader.New(tpl, logger),
		workers: runtime.GOMAXPROCS(0),
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
	}
}

// WithLoader replaces the document loader
func (s *ConverterService) WithLoader(l Loader) *ConverterService {
	s.loader = l
	return s
}

// WithWorkers bounds the number of documents converted concurrently.
// Values below 1 keep the default.
func (s *ConverterService) WithWorkers(n int) *ConverterService {
	if n > 0 {
		s.workers = n
	}
	return s
}

// WithMetrics records document and batch metrics
func (s *ConverterService) WithMetrics(m *metrics.Metrics) *ConverterService {
	s.metrics = m
	return s
}

// Template returns the layout template the service converts with.
func (s *ConverterService) Template() *template.Template {
	return s.tpl
}

// Convert runs every upload through the pipeline and merges the results in
// upload order. Documents with an error diagnostic keep their diagnostics in
// the batch but contribute no entries. CSV is set only when at least one
// document contributed entries.
//
// When ctx is done before all documents finish, Convert returns ctx.Err()
// and no result.
func (s *ConverterService) Convert(ctx context.Context, uploads []Upload) (*journal.BatchResult, error) {
	batchID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "journal.Convert", trace.WithAttributes(
		attribute.String("batch.id", batchID),
		attribute.Int("batch.documents", len(uploads)),
	))
	defer span.End()

	results := make([]journal.DocumentResult, len(uploads))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, u := range uploads {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.ConvertDocument(ctx, u)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	batch := &journal.BatchResult{BatchID: batchID, Documents: results}
	for _, r := range results {
		batch.Diagnostics = append(batch.Diagnostics, r.Diagnostics...)
		for _, raw := range r.Ignored {
			batch.Ignored = append(batch.Ignored, fmt.Sprintf("%s: %s", r.Document, raw))
		}
		if r.Success {
			batch.Entries = append(batch.Entries, r.Entries...)
		}
	}

	if len(batch.Entries) > 0 {
		out, err := export.CSV(batch.Entries)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to render CSV: %w", err)
		}
		batch.CSV = out
	}

	span.SetAttributes(
		attribute.Int("batch.entries", len(batch.Entries)),
		attribute.Int("batch.diagnostics", len(batch.Diagnostics)),
	)
	s.metrics.ObserveBatch(batch.Success(), len(batch.Entries))
	s.logger.Info("batch converted",
		slog.String("batch_id", batchID),
		slog.Int("documents", len(uploads)),
		slog.Int("entries", len(batch.Entries)),
		slog.Int("diagnostics", len(batch.Diagnostics)),
		slog.Bool("success", batch.Success()),
	)
	return batch, nil
}

// ConvertDocument runs one upload through load, layout, parse and validate.
// It never fails: every problem is reported as a diagnostic.
func (s *ConverterService) ConvertDocument(ctx context.Context, u Upload) journal.DocumentResult {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "journal.ConvertDocument", trace.WithAttributes(
		attribute.String("document.name", u.Filename),
		attribute.Int("document.bytes", len(u.Data)),
	))
	defer span.End()

	result := journal.DocumentResult{Document: u.Filename}

	pages, err := s.loader.Load(ctx, u.Filename, u.Data)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics,
			journal.Error(journal.KindUnreadableDocument, u.Filename, 0, 0, "%v", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "unreadable document")
		s.logger.Warn("document unreadable", slog.String("document", u.Filename), slog.Any("error", err))
		s.observe(result, metrics.OutcomeUnreadable, start)
		return result
	}

	var rows []journal.Row
	for _, p := range pages {
		rows = append(rows, layout.Reconstruct(s.tpl, p)...)
	}

	parsed := parser.Parse(u.Filename, s.tpl, rows)
	result.Entries = parsed.Entries
	result.Ignored = parsed.Ignored
	result.Diagnostics = append(result.Diagnostics, parsed.Diagnostics...)
	result.Diagnostics = append(result.Diagnostics,
		validator.Validate(u.Filename, parsed.Currency, parsed.Entries, parsed.Totals)...)

	if len(result.Entries) == 0 && !journal.HasErrors(result.Diagnostics) {
		result.Diagnostics = append(result.Diagnostics,
			journal.Error(journal.KindNoEntries, u.Filename, 0, 0, "document yielded no rows that could be parsed"))
	}
	result.Success = len(result.Entries) > 0 && !journal.HasErrors(result.Diagnostics)

	outcome := metrics.OutcomeConverted
	if !result.Success {
		outcome = metrics.OutcomeRejected
		span.SetStatus(codes.Error, "document rejected")
	}
	span.SetAttributes(
		attribute.Int("document.pages", len(pages)),
		attribute.Int("document.rows", len(rows)),
		attribute.Int("document.entries", len(result.Entries)),
	)
	s.logger.Debug("document converted",
		slog.String("document", u.Filename),
		slog.Int("pages", len(pages)),
		slog.Int("entries", len(result.Entries)),
		slog.Int("diagnostics", len(result.Diagnostics)),
		slog.Bool("success", result.Success),
	)
	s.observe(result, outcome, start)
	return result
}

func (s *ConverterService) observe(r journal.DocumentResult, outcome string, start time.Time) {
	s.metrics.ObserveDocument(outcome, time.Since(start))
	for _, d := range r.Diagnostics {
		s.metrics.ObserveDiagnostic(string(d.Kind), string(d.Severity))
	}
}
