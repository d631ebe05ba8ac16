package api

import (
	"net/http"

	"github.com/hyperengineering/snsreport/internal/types"
)

// Statistics handles GET /api/v1/stats/{clientID}?start&end | month | week
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())
	q := r.URL.Query()

	filter := types.DateFilter{
		Range: queryRange(r, ""),
		Month: q.Get("month"),
		Week:  q.Get("week"),
	}

	st, err := h.stats.Aggregate(r.Context(), client.ID, filter)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// TopPosts handles GET /api/v1/stats/{clientID}/top-posts?metric&limit&start&end
func (h *Handler) TopPosts(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())

	limit, err := queryInt(r, "limit")
	if err != nil {
		MapError(w, r, err)
		return
	}

	posts, err := h.stats.TopPosts(r.Context(), client.ID, r.URL.Query().Get("metric"), limit, queryRange(r, ""))
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// Comparison handles
// GET /api/v1/stats/{clientID}/comparison?current_start&current_end&previous_start&previous_end
func (h *Handler) Comparison(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())
	q := r.URL.Query()

	current := types.DateRange{Start: q.Get("current_start"), End: q.Get("current_end")}
	previous := types.DateRange{Start: q.Get("previous_start"), End: q.Get("previous_end")}

	cmp, err := h.stats.Compare(r.Context(), client.ID, current, previous)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// WeeklyTrend handles GET /api/v1/stats/{clientID}/weekly-trend?limit&start&end
func (h *Handler) WeeklyTrend(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())

	limit, err := queryInt(r, "limit")
	if err != nil {
		MapError(w, r, err)
		return
	}

	points, err := h.stats.WeeklyTrend(r.Context(), client.ID, queryRange(r, ""), limit)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trend": points})
}

// DailyTrend handles GET /api/v1/stats/{clientID}/daily-trend?limit&start&end
func (h *Handler) DailyTrend(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())

	limit, err := queryInt(r, "limit")
	if err != nil {
		MapError(w, r, err)
		return
	}

	points, err := h.stats.DailyTrend(r.Context(), client.ID, queryRange(r, ""), limit)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trend": points})
}
