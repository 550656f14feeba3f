package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/FACorreiaa/payroll-journal-converter/pkg/storage"
)

// ListBatch returns the archived files of a batch.
func (h *ConverterHandler) ListBatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid batch id"})
		return
	}

	files, err := h.archive.List(r.Context(), id)
	if err != nil {
		h.archiveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batchId": id, "files": files})
}

// DownloadBatchFile streams one archived file.
func (h *ConverterHandler) DownloadBatchFile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid batch id"})
		return
	}

	rc, info, err := h.archive.Open(r.Context(), id, r.PathValue("name"))
	if err != nil {
		h.archiveError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+info.Name+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream archived file", slog.String("batch_id", id.String()), slog.Any("error", err))
	}
}

func (h *ConverterHandler) archiveError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	h.logger.Error("failed to read archive", slog.Any("error", err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "archive unavailable"})
}

// archiveOutput stores a batch output. A failure is logged and does not
// fail the conversion.
func (h *ConverterHandler) archiveOutput(ctx context.Context, batchID, name, contentType string, data []byte) {
	if h.archive == nil {
		return
	}
	id, err := uuid.Parse(batchID)
	if err != nil {
		h.logger.Warn("batch id is not a uuid, not archiving", slog.String("batch_id", batchID))
		return
	}
	if _, err := h.archive.Put(ctx, id, name, contentType, bytes.NewReader(data)); err != nil {
		h.logger.Error("failed to archive batch output",
			slog.String("batch_id", batchID),
			slog.String("name", name),
			slog.Any("error", err),
		)
	}
}
