package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/snsreport/internal/archive"
	"github.com/hyperengineering/snsreport/internal/store"
	"github.com/hyperengineering/snsreport/internal/validation"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

type problemType struct {
	typeURI string
	title   string
}

const problemBase = "https://snsreport.dev/errors/"

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]problemType{
	http.StatusBadRequest:            {problemBase + "bad-request", "Bad Request"},
	http.StatusUnauthorized:          {problemBase + "unauthorized", "Unauthorized"},
	http.StatusNotFound:              {problemBase + "not-found", "Not Found"},
	http.StatusRequestEntityTooLarge: {problemBase + "payload-too-large", "Payload Too Large"},
	http.StatusUnprocessableEntity:   {problemBase + "validation-error", "Validation Error"},
	http.StatusInternalServerError:   {problemBase + "internal-error", "Internal Server Error"},
	http.StatusServiceUnavailable:    {problemBase + "service-unavailable", "Service Unavailable"},
}

func newProblem(r *http.Request, status int, detail string) Problem {
	pt, ok := problemTypes[status]
	if !ok {
		pt = problemType{typeURI: problemBase + "unknown", title: http.StatusText(status)}
	}
	return Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblemBody(w, status, newProblem(r, status, detail))
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	writeProblemBody(w, http.StatusUnprocessableEntity, ProblemWithErrors{
		Problem: newProblem(r, http.StatusUnprocessableEntity, detail),
		Errors:  errs,
	})
}

func writeProblemBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapError converts domain errors to Problem Details responses.
func MapError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *validation.Error
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &vErr):
		WriteProblemWithErrors(w, r, "Request contains invalid fields", vErr.Fields)
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, store.ErrInvalidMetric):
		WriteProblem(w, r, http.StatusBadRequest, "Unsupported ranking metric")
	case errors.Is(err, archive.ErrNotConfigured):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Report archive not configured")
	case errors.As(err, &tooLarge):
		WriteProblem(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
	default:
		slog.Error("request failed",
			"component", "api",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
