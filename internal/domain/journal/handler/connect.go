package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/FACorreiaa/payroll-journal-converter/internal/domain/journal/service"
)

// ConvertProcedure is the fully qualified Connect procedure for Convert.
const ConvertProcedure = "/journal.v1.ConverterService/Convert"

// Document is one PDF submitted over Connect. Content is base64 in JSON.
type Document struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

// ConvertRequest is the Connect request message.
type ConvertRequest struct {
	Documents []Document `json:"documents"`
}

// ConvertReply is the Connect response message.
type ConvertReply struct {
	BatchID string   `json:"batchId"`
	CSV     string   `json:"csv,omitempty"`
	Errors  []string `json:"errors"`
	Ignored []string `json:"ignored"`
	Success bool     `json:"success"`
}

// JSONCodec lets Connect carry plain Go structs as JSON. It replaces the
// protobuf JSON codec registered under the same name.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// ConnectHandler returns the path and handler for the Convert RPC.
func (h *ConverterHandler) ConnectHandler() (string, *connect.Handler) {
	return ConvertProcedure, connect.NewUnaryHandler(
		ConvertProcedure,
		h.ConvertRPC,
		connect.WithCodec(JSONCodec{}),
		connect.WithReadMaxBytes(int(h.maxUploadBytes)),
	)
}

// ConvertRPC converts the documents of a Connect request.
func (h *ConverterHandler) ConvertRPC(ctx context.Context, req *connect.Request[ConvertRequest]) (*connect.Response[ConvertReply], error) {
	docs := req.Msg.Documents
	if len(docs) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("no documents in the request"))
	}

	uploads := make([]service.Upload, 0, len(docs))
	for i, d := range docs {
		name := d.Filename
		if name == "" {
			name = fmt.Sprintf("document-%d.pdf", i+1)
		}
		uploads = append(uploads, service.Upload{Filename: name, Data: d.Content})
	}

	res, err := h.svc.Convert(ctx, uploads)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, connect.NewError(connect.CodeCanceled, err)
		}
		h.logger.Error("failed to convert batch", slog.Any("error", err))
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	reply := &ConvertReply{
		BatchID: res.BatchID,
		Errors:  res.Errors(),
		Ignored: res.Ignored,
		Success: res.Success(),
	}
	if reply.Success {
		reply.CSV = string(res.CSV)
		h.archiveOutput(ctx, res.BatchID, CSVName, csvContentType, res.CSV)
	}
	if reply.Ignored == nil {
		reply.Ignored = []string{}
	}

	resp := connect.NewResponse(reply)
	resp.Header().Set("X-Batch-Id", res.BatchID)
	return resp, nil
}
