package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/hyperengineering/snsreport/internal/ingest"
	"github.com/hyperengineering/snsreport/internal/types"
	"github.com/hyperengineering/snsreport/internal/validation"
)

// uploadRequest is the JSON body of an upload.
type uploadRequest struct {
	CSVData       string              `json:"csv_data"`
	Filename      string              `json:"filename"`
	ColumnMapping types.ColumnMapping `json:"column_mapping"`
}

// Upload handles POST /api/v1/uploads/{clientID}.
//
// The CSV arrives either as a JSON body {csv_data, filename, column_mapping}
// or as multipart/form-data with a "file" part and a "column_mapping" field
// holding the mapping as JSON.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	client := MustClientFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	req, err := h.readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		var vErr *validation.Error
		if errors.As(err, &tooLarge) || errors.As(err, &vErr) {
			MapError(w, r, err)
			return
		}
		WriteProblem(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req.ClientID = client.ID
	result, err := h.ingest.Ingest(r.Context(), req)
	if err != nil {
		MapError(w, r, err)
		return
	}

	slog.Info("upload accepted",
		"component", "api",
		"client_id", client.ID,
		"upload_id", result.UploadID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) readUpload(r *http.Request) (ingest.Request, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var body uploadRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return ingest.Request{}, fmt.Errorf("invalid JSON: %w", err)
		}
		return ingest.Request{
			Filename: body.Filename,
			CSV:      body.CSVData,
			Mapping:  body.ColumnMapping,
		}, nil
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return ingest.Request{}, fmt.Errorf("invalid multipart form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return ingest.Request{}, validation.New("file", "is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return ingest.Request{}, fmt.Errorf("read upload: %w", err)
	}

	var mapping types.ColumnMapping
	if raw := r.FormValue("column_mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			return ingest.Request{}, validation.New("column_mapping", "must be a JSON object")
		}
	}

	filename := r.FormValue("filename")
	if filename == "" {
		filename = header.Filename
	}

	return ingest.Request{
		Filename: filename,
		CSV:      string(data),
		Mapping:  mapping,
	}, nil
}

// UploadHistory handles GET /api/v1/uploads/{clientID}/history
func (h *Handler) UploadHistory(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())
	uploads, err := h.store.ListUploads(r.Context(), client.ID, uploadHistoryLimit)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": uploads})
}

// UploadLogs handles GET /api/v1/uploads/{clientID}/{uploadID}/logs
func (h *Handler) UploadLogs(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())
	uploadID, err := pathID(r, "uploadID", "upload_id")
	if err != nil {
		MapError(w, r, err)
		return
	}

	logs, err := h.store.ListLogs(r.Context(), client.ID, uploadID)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// mappingRequest is the body of a mapping template save.
type mappingRequest struct {
	Name      string              `json:"mapping_name"`
	Mapping   types.ColumnMapping `json:"mapping_config"`
	IsDefault bool                `json:"is_default"`
}

// SaveMapping handles POST /api/v1/uploads/{clientID}/mappings
func (h *Handler) SaveMapping(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())

	var req mappingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var c validation.Collector
	if err := validation.ValidateRequired("mapping_name", req.Name); err != nil {
		c.Add(err)
	} else {
		c.Add(validation.ValidateMaxLength("mapping_name", req.Name, validation.MaxNameLength))
	}
	if vErr := validation.ValidateMapping("mapping_config", req.Mapping); vErr != nil {
		for i := range vErr.Fields {
			c.Add(&vErr.Fields[i])
		}
	}
	if err := c.Err(); err != nil {
		MapError(w, r, err)
		return
	}

	saved, err := h.store.SaveMapping(r.Context(), types.NewSavedMapping{
		ClientID:  client.ID,
		Name:      req.Name,
		Mapping:   req.Mapping,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// ListMappings handles GET /api/v1/uploads/{clientID}/mappings
func (h *Handler) ListMappings(w http.ResponseWriter, r *http.Request) {
	client := MustClientFromContext(r.Context())
	mappings, err := h.store.ListMappings(r.Context(), client.ID)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mappings": mappings})
}
