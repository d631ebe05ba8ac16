// Package ingest turns an uploaded CSV document into stored post records
// and an audit trail of per-row log entries.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/snsreport/internal/csvparse"
	"github.com/hyperengineering/snsreport/internal/normalize"
	"github.com/hyperengineering/snsreport/internal/types"
	"github.com/hyperengineering/snsreport/internal/validation"
)

// DefaultSampleRows is how many raw rows are kept on the upload header.
const DefaultSampleRows = 10

// Store is the persistence surface the pipeline needs.
type Store interface {
	GetClient(ctx context.Context, id string) (*types.Client, error)
	CreateUpload(ctx context.Context, u types.NewUpload) (*types.Upload, error)
	InsertRecords(ctx context.Context, records []types.Record) error
	InsertLogs(ctx context.Context, logs []types.DataLog) error
}

// Pipeline ingests CSV uploads for a client.
type Pipeline struct {
	store      Store
	sampleRows int
}

// NewPipeline creates a pipeline. sampleRows <= 0 selects DefaultSampleRows.
func NewPipeline(store Store, sampleRows int) *Pipeline {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	return &Pipeline{store: store, sampleRows: sampleRows}
}

// Request is one ingestion run.
type Request struct {
	ClientID string
	Filename string
	CSV      string
	Mapping  types.ColumnMapping
}

// Ingest parses, normalizes and stores req.CSV.
//
// Input problems (empty CSV, bad mapping, no data rows) return a
// *validation.Error and an unknown client returns the store's not-found
// error; nothing is written in either case. Once validated, rows that fail
// to normalize are logged and skipped, never aborting the batch.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (*types.IngestResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if _, err := p.store.GetClient(ctx, req.ClientID); err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}

	table, err := csvparse.Parse(req.CSV)
	if err != nil {
		return nil, validation.New("csv_data", err.Error())
	}
	if len(table.Rows) == 0 {
		return nil, validation.New("csv_data", "contains no data rows")
	}

	upload, err := p.store.CreateUpload(ctx, types.NewUpload{
		ClientID:      req.ClientID,
		Filename:      req.Filename,
		Sample:        sample(table.Rows, p.sampleRows),
		ColumnMapping: req.Mapping,
		RowCount:      len(table.Rows),
	})
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}

	result := &types.IngestResult{
		UploadID:  upload.ID,
		TotalRows: len(table.Rows),
		Logs:      []types.DataLog{},
	}

	for _, col := range missingColumns(table.Header, req.Mapping) {
		result.Logs = append(result.Logs, types.DataLog{
			Type:    types.LogWarning,
			Message: fmt.Sprintf("mapped column %q for %s not found in CSV header", col.name, col.key),
		})
	}

	records := make([]types.Record, 0, len(table.Rows))
	for i, row := range table.Rows {
		// Header is line 1.
		rec, warnings, err := normalize.NormalizeRow(row, req.Mapping, i+2)
		if err != nil {
			var rowErr *normalize.RowError
			if !errors.As(err, &rowErr) {
				return nil, fmt.Errorf("normalize row %d: %w", i+2, err)
			}
			result.Errors++
			result.Logs = append(result.Logs, types.DataLog{
				Type:    types.LogError,
				Message: rowErr.Error(),
				Row:     row,
			})
			continue
		}

		rec.ClientID = req.ClientID
		rec.UploadID = upload.ID
		records = append(records, rec)
		result.Logs = append(result.Logs, warnings...)
	}

	for _, l := range result.Logs {
		if l.Type == types.LogWarning {
			result.Warnings++
		}
	}
	result.ProcessedRows = result.TotalRows - result.Errors

	result.Logs = append(result.Logs, types.DataLog{
		Type: types.LogInfo,
		Message: fmt.Sprintf("processed %d of %d rows (%d errors, %d warnings)",
			result.ProcessedRows, result.TotalRows, result.Errors, result.Warnings),
	})

	if err := p.store.InsertRecords(ctx, records); err != nil {
		return nil, fmt.Errorf("insert records: %w", err)
	}

	for i := range result.Logs {
		result.Logs[i].UploadID = upload.ID
	}
	if err := p.store.InsertLogs(ctx, result.Logs); err != nil {
		return nil, fmt.Errorf("insert logs: %w", err)
	}

	slog.Info("upload ingested",
		"component", "ingest",
		"client_id", req.ClientID,
		"upload_id", upload.ID,
		"total_rows", result.TotalRows,
		"processed_rows", result.ProcessedRows,
		"errors", result.Errors,
		"warnings", result.Warnings,
	)

	return result, nil
}

func validateRequest(req Request) error {
	var c validation.Collector
	c.Add(validation.ValidateRequired("client_id", req.ClientID))
	c.Add(validation.ValidateMaxLength("filename", req.Filename, validation.MaxFilenameLength))
	if err := validation.ValidateRequired("csv_data", req.CSV); err != nil {
		c.Add(err)
	} else {
		c.Add(validation.ValidateUTF8("csv_data", req.CSV))
		c.Add(validation.ValidateNoNullBytes("csv_data", req.CSV))
	}
	if err := validation.ValidateMapping("column_mapping", req.Mapping); err != nil {
		for _, f := range err.Fields {
			c.Add(&f)
		}
	}
	return c.Err()
}

func sample(rows []types.RawRow, n int) []types.RawRow {
	if len(rows) < n {
		n = len(rows)
	}
	out := make([]types.RawRow, n)
	copy(out, rows[:n])
	return out
}

type mappedColumn struct {
	key  types.MetricKey
	name string
}

// missingColumns lists mapped source columns absent from header, in
// mapping-key display order.
func missingColumns(header []string, m types.ColumnMapping) []mappedColumn {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var missing []mappedColumn
	for _, k := range types.MappingKeys {
		name := m.Column(k)
		if name != "" && !present[name] {
			missing = append(missing, mappedColumn{key: k, name: name})
		}
	}
	return missing
}
