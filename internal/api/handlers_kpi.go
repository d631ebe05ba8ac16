package api

import (
	"net/http"

	"github.com/hyperengineering/snsreport/internal/types"
)

// ListKPIs handles GET /api/v1/kpi/{clientID}?type&period
func (h *Handler) ListKPIs(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())
	q := r.URL.Query()

	settings, err := h.kpi.List(r.Context(), client.ID, types.KPIType(q.Get("type")), q.Get("period"))
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// UpsertKPI handles POST /api/v1/kpi/{clientID}
func (h *Handler) UpsertKPI(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())

	var in types.KPIInput
	if !decodeJSON(w, r, &in) {
		return
	}

	id, err := h.kpi.Upsert(r.Context(), client.ID, in)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// kpiBatchRequest is the body of a batch KPI upsert.
type kpiBatchRequest struct {
	Settings []types.KPIInput `json:"settings"`
}

// UpsertKPIBatch handles POST /api/v1/kpi/{clientID}/batch.
// Either every setting is written or none is.
func (h *Handler) UpsertKPIBatch(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())

	var req kpiBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ids, err := h.kpi.UpsertBatch(r.Context(), client.ID, req.Settings)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ids": ids})
}

// KPIProgress handles GET /api/v1/kpi/{clientID}/progress?type&period
func (h *Handler) KPIProgress(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())
	q := r.URL.Query()

	progress, err := h.kpi.Progress(r.Context(), client.ID, types.KPIType(q.Get("type")), q.Get("period"))
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": progress})
}

// DeleteKPI handles DELETE /api/v1/kpi/{clientID}/{kpiID}
func (h *Handler) DeleteKPI(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())
	id, err := pathID(r, "kpiID", "kpi_id")
	if err != nil {
		MapError(w, r, err)
		return
	}

	if err := h.kpi.Delete(r.Context(), client.ID, id); err != nil {
		MapError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
