package api

import (
	"net/http"
	"time"

	"github.com/hyperengineering/snsreport/internal/archive"
	"github.com/hyperengineering/snsreport/internal/report"
)

// GenerateReport handles POST /api/v1/reports/{clientID}/generate
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())

	var req report.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ClientID = client.ID

	generated, err := h.reports.Generate(r.Context(), req)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, generated)
}

// ListReports handles GET /api/v1/reports/{clientID}
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())
	reports, err := h.reports.List(r.Context(), client.ID)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

// GetReport handles GET /api/v1/reports/{clientID}/{reportID}
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())
	id, err := pathID(r, "reportID", "report_id")
	if err != nil {
		MapError(w, r, err)
		return
	}

	rep, err := h.reports.Get(r.Context(), client.ID, id)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// DeleteReport handles DELETE /api/v1/reports/{clientID}/{reportID}
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())
	id, err := pathID(r, "reportID", "report_id")
	if err != nil {
		MapError(w, r, err)
		return
	}

	if err := h.reports.Delete(r.Context(), client.ID, id); err != nil {
		MapError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// downloadResponse carries a pre-signed archive URL.
type downloadResponse struct {
	URL       string    `json:"url"`
	Format    string    `json:"format"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DownloadReport handles GET /api/v1/reports/{clientID}/{reportID}/download?format=md|html.
// Responds 503 when no archive is configured.
func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())
	id, err := pathID(r, "reportID", "report_id")
	if err != nil {
		MapError(w, r, err)
		return
	}

	format := archive.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = archive.FormatHTML
	}

	url, expiry, err := h.reports.DownloadURL(r.Context(), client.ID, id, format)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, downloadResponse{URL: url, Format: string(format), ExpiresAt: expiry.UTC()})
}
