// Package httpadapter exposes the pipeline over HTTP: a synchronous process
// endpoint, an async batch surface backed by the queue, and read access to
// recorded documents and report files.
package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lawpaw/lawpaw/internal/core/domain"
	"github.com/lawpaw/lawpaw/internal/core/ports"
)

type Router struct {
	processor ports.BatchProcessor
	documents ports.DocumentStore
	batches   ports.BatchStore
	queue     ports.MessageQueue
	logger    *slog.Logger

	maxInFlight int
	gateWait    time.Duration
}

type Options struct {
	MaxInFlight int           // concurrent requests allowed through the gate
	GateWait    time.Duration // how long a request waits for a slot before 503
}

func NewRouter(
	processor ports.BatchProcessor,
	documents ports.DocumentStore,
	batches ports.BatchStore,
	queue ports.MessageQueue,
	logger *slog.Logger,
	opts Options,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 8
	}
	if opts.GateWait <= 0 {
		opts.GateWait = 100 * time.Millisecond
	}
	return &Router{
		processor:   processor,
		documents:   documents,
		batches:     batches,
		queue:       queue,
		logger:      logger,
		maxInFlight: opts.MaxInFlight,
		gateWait:    opts.GateWait,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/process", rt.processSync)
	mux.HandleFunc("/v1/batches", rt.enqueueBatch)
	mux.HandleFunc("/v1/batches/", rt.getBatch)
	mux.HandleFunc("/v1/documents", rt.listDocuments)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/reports/", rt.downloadReport)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.maxInFlight, rt.gateWait)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeBatchRequest(w http.ResponseWriter, r *http.Request) (domain.BatchRequest, bool) {
	var req domain.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return req, false
	}
	if strings.TrimSpace(req.InputDir) == "" || strings.TrimSpace(req.OutputDir) == "" || strings.TrimSpace(req.Keyword) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "input_location, output_location and keyword are required",
		})
		return req, false
	}
	return req, true
}

// processSync runs the whole batch inline and returns the finished report.
func (rt *Router) processSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req, ok := decodeBatchRequest(w, r)
	if !ok {
		return
	}

	report, err := rt.processor.Process(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	// Keep the durable batch record even for sync runs; a failure here is an
	// audit gap, not a failed batch.
	if err := rt.batches.Create(r.Context(), report.ID, req); err != nil {
		rt.logger.Error("batch.record.create_failed", "batch_id", report.ID, "error", err)
	} else if err := rt.batches.Finish(r.Context(), report); err != nil {
		rt.logger.Error("batch.record.finish_failed", "batch_id", report.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, report)
}

// enqueueBatch records a pending batch and hands it to the worker fleet.
func (rt *Router) enqueueBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req, ok := decodeBatchRequest(w, r)
	if !ok {
		return
	}

	batchID := uuid.NewString()
	if err := rt.batches.Create(r.Context(), batchID, req); err != nil {
		writeError(w, err)
		return
	}
	if err := rt.queue.PublishBatchRequested(r.Context(), batchID, req); err != nil {
		rt.logger.Error("batch.enqueue.failed", "batch_id", batchID, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"batch_id": batchID,
		"status":   string(domain.BatchPending),
	})
}

func (rt *Router) getBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/batches/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "batch id is required"})
		return
	}

	report, err := rt.batches.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	docs, err := rt.documents.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.LegalDocument{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id must be a positive integer"})
		return
	}

	doc, err := rt.documents.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// downloadReport streams a report file by name. Names are resolved against
// the batch output roots recorded in finished batches; the path is rebuilt
// here, never taken from the client, so traversal is structurally impossible.
func (rt *Router) downloadReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/reports/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "batch id is required"})
		return
	}

	report, err := rt.batches.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if report.ReportPath == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "batch has no report"})
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(report.ReportPath)+`"`)
	http.ServeFile(w, r, report.ReportPath)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
