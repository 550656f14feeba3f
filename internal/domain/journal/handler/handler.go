// Package handler exposes the converter over HTTP: a multipart upload
// endpoint for the browser form and a Connect RPC for programmatic clients.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/export"
	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/service"
	"github.com/FACorreiaa/payroll-journal-converter/pkg/storage"
)

// FormField is the multipart field holding the uploaded PDFs.
const FormField = "pdf"

// Archived batch outputs.
const (
	CSVName  = "journal.csv"
	XLSXName = "journal.xlsx"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// multipart parts above this size are spooled to disk
	formMemory = 8 << 20
)

// ConvertResponse is the JSON body returned by the upload endpoints.
type ConvertResponse struct {
	BatchID string   `json:"batchId,omitempty"`
	CSV     *string  `json:"csv,omitempty"`
	Errors  []string `json:"errors"`
	Ignored []string `json:"ignored"`
}

// ConverterHandler handles conversion uploads
type ConverterHandler struct {
	svc            *service.ConverterService
	maxUploadBytes int64
	archive        storage.Storage
	logger         *slog.Logger
}

// NewConverterHandler creates a new converter handler
func NewConverterHandler(svc *service.ConverterService, maxUploadBytes int64, logger *slog.Logger) *ConverterHandler {
	return &ConverterHandler{
		svc:            svc,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// WithArchive keeps the outputs of successful batches in store and
// serves them back under /batches/{id}.
func (h *ConverterHandler) WithArchive(store storage.Storage) *ConverterHandler {
	h.archive = store
	return h
}

// Register mounts the upload, Connect and health endpoints on mux.
func (h *ConverterHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /convert", h.Convert)
	mux.HandleFunc("POST /convert.xlsx", h.ConvertXLSX)
	mux.HandleFunc("GET /healthz", h.Health)
	path, rpc := h.ConnectHandler()
	mux.Handle(path, rpc)
	if h.archive != nil {
		mux.HandleFunc("GET /batches/{id}", h.ListBatch)
		mux.HandleFunc("GET /batches/{id}/{name}", h.DownloadBatchFile)
	}
}

// Convert converts the uploaded PDFs and answers with the CSV and the
// rendered diagnostics. It responds 200 when a CSV was produced and 422
// when none could be.
func (h *ConverterHandler) Convert(w http.ResponseWriter, r *http.Request) {
	res, ok := h.convert(w, r)
	if !ok {
		return
	}
	if res.Success() {
		h.archiveOutput(r.Context(), res.BatchID, CSVName, csvContentType, res.CSV)
	}
	h.writeResult(w, res)
}

// ConvertXLSX is Convert with the entries returned as an XLSX workbook.
// Failures are answered with the JSON body of Convert.
func (h *ConverterHandler) ConvertXLSX(w http.ResponseWriter, r *http.Request) {
	res, ok := h.convert(w, r)
	if !ok {
		return
	}
	if !res.Success() {
		h.writeResult(w, res)
		return
	}

	out, err := export.XLSX(res.Entries)
	if err != nil {
		h.logger.Error("failed to render workbook", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, ConvertResponse{Errors: []string{"failed to render workbook"}})
		return
	}
	h.archiveOutput(r.Context(), res.BatchID, XLSXName, xlsxContentType, out)

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="journal.xlsx"`)
	w.Header().Set("X-Batch-Id", res.BatchID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// Health reports liveness.
func (h *ConverterHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ConverterHandler) convert(w http.ResponseWriter, r *http.Request) (*journal.BatchResult, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ConvertResponse{
				Errors: []string{fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)},
			})
			return nil, false
		}
		writeJSON(w, http.StatusBadRequest, ConvertResponse{Errors: []string{"No file part in the request"}})
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File[FormField]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, ConvertResponse{Errors: []string{"No file part in the request"}})
		return nil, false
	}

	uploads := make([]service.Upload, 0, len(files))
	for _, fh := range files {
		data, err := readPart(fh)
		if err != nil {
			h.logger.Error("failed to read upload", slog.String("filename", fh.Filename), slog.Any("error", err))
			writeJSON(w, http.StatusBadRequest, ConvertResponse{
				Errors: []string{fmt.Sprintf("'%s' could not be read", fh.Filename)},
			})
			return nil, false
		}
		uploads = append(uploads, service.Upload{Filename: fh.Filename, Data: data})
	}

	res, err := h.svc.Convert(r.Context(), uploads)
	if err != nil {
		h.logger.Error("conversion aborted", slog.Any("error", err))
		writeJSON(w, http.StatusServiceUnavailable, ConvertResponse{Errors: []string{"conversion aborted"}})
		return nil, false
	}
	return res, true
}

func (h *ConverterHandler) writeResult(w http.ResponseWriter, res *journal.BatchResult) {
	status := http.StatusOK
	if !res.Success() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, newConvertResponse(res))
}

func newConvertResponse(res *journal.BatchResult) ConvertResponse {
	out := ConvertResponse{
		BatchID: res.BatchID,
		Errors:  res.Errors(),
		Ignored: res.Ignored,
	}
	if res.Success() {
		csv := string(res.CSV)
		out.CSV = &csv
	}
	if out.Ignored == nil {
		out.Ignored = []string{}
	}
	return out
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
