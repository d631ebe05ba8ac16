package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/snsreport/internal/ingest"
	"github.com/hyperengineering/snsreport/internal/kpi"
	"github.com/hyperengineering/snsreport/internal/report"
	"github.com/hyperengineering/snsreport/internal/stats"
	"github.com/hyperengineering/snsreport/internal/store"
	"github.com/hyperengineering/snsreport/internal/types"
	"github.com/hyperengineering/snsreport/internal/validation"
)

// DefaultMaxUploadBytes caps upload bodies when Options leaves it unset.
const DefaultMaxUploadBytes = 10 << 20

// uploadHistoryLimit is how many uploads the history endpoint returns.
const uploadHistoryLimit = 50

// Options configures a Handler.
type Options struct {
	APIKey         string
	Version        string
	MaxUploadBytes int64
	SampleRows     int
}

// Handler implements the API handlers
type Handler struct {
	store          store.Store
	ingest         *ingest.Pipeline
	stats          *stats.Service
	kpi            *kpi.Evaluator
	reports        *report.Generator
	apiKey         string
	version        string
	maxUploadBytes int64
}

// NewHandler creates a Handler over s. reports carries the narrative and
// archive wiring chosen by the caller.
func NewHandler(s store.Store, reports *report.Generator, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if reports == nil {
		reports = report.NewGenerator(s, nil, nil)
	}
	return &Handler{
		store:          s,
		ingest:         ingest.NewPipeline(s, opts.SampleRows),
		stats:          stats.NewService(s),
		kpi:            kpi.NewEvaluator(s),
		reports:        reports,
		apiKey:         opts.APIKey,
		version:        opts.Version,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// decodeJSON decodes the request body into v, writing a 400 problem on
// malformed input. Returns false when the handler should stop.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err))
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter. Missing means 0.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, validation.New(name, "must be an integer")
	}
	return n, nil
}

// queryRange reads an optional {prefix}start/{prefix}end pair. Both absent
// means no range.
func queryRange(r *http.Request, prefix string) *types.DateRange {
	q := r.URL.Query()
	start, end := q.Get(prefix+"start"), q.Get(prefix+"end")
	if start == "" && end == "" {
		return nil
	}
	return &types.DateRange{Start: start, End: end}
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.GetStats(r.Context())
	if err != nil {
		slog.Error("health check failed", "component", "api", "error", err)
		WriteProblem(w, r, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:      "healthy",
		Version:     h.version,
		ClientCount: st.ClientCount,
		RecordCount: st.RecordCount,
	})
}

// CreateClient handles POST /api/v1/clients
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req types.NewClient
	if !decodeJSON(w, r, &req) {
		return
	}

	var c validation.Collector
	if err := validation.ValidateRequired("name", req.Name); err != nil {
		c.Add(err)
	} else {
		c.Add(validation.ValidateMaxLength("name", req.Name, validation.MaxNameLength))
		c.Add(validation.ValidateUTF8("name", req.Name))
		c.Add(validation.ValidateNoNullBytes("name", req.Name))
	}
	if req.Industry != nil {
		c.Add(validation.ValidateMaxLength("industry", *req.Industry, validation.MaxNameLength))
	}
	if err := c.Err(); err != nil {
		MapError(w, r, err)
		return
	}

	client, err := h.store.CreateClient(r.Context(), req)
	if err != nil {
		MapError(w, r, err)
		return
	}

	slog.Info("client created", "component", "api", "client_id", client.ID)
	writeJSON(w, http.StatusCreated, client)
}

// ListClients handles GET /api/v1/clients
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.ListClients(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

// GetClient handles GET /api/v1/clients/{clientID}
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MustClientFromContext(r.Context()))
}

// DeleteClient handles DELETE /api/v1/clients/{clientID}.
// Every upload, record, KPI and report of the client goes with it.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())
	if err := h.store.DeleteClient(r.Context(), client.ID); err != nil {
		MapError(w, r, err)
		return
	}

	slog.Info("client deleted", "component", "api", "client_id", client.ID)
	w.WriteHeader(http.StatusNoContent)
}

// pathID reads a ULID path parameter, reporting failures against field.
func pathID(r *http.Request, param, field string) (string, error) {
	id := chi.URLParam(r, param)
	if vErr := validation.ValidateULID(field, id); vErr != nil {
		return "", vErr.Err()
	}
	return id, nil
}
