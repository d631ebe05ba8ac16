package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hyperengineering/snsreport/internal/types"
)

// CreateUpload inserts an upload header. The sample rows and mapping are
// stored as JSON text.
func (s *SQLiteStore) CreateUpload(ctx context.Context, in types.NewUpload) (*types.Upload, error) {
	sample := in.Sample
	if sample == nil {
		sample = []types.RawRow{}
	}
	sampleJSON, err := marshalJSON(sample)
	if err != nil {
		return nil, fmt.Errorf("marshal sample: %w", err)
	}
	mappingJSON, err := marshalJSON(in.ColumnMapping)
	if err != nil {
		return nil, fmt.Errorf("marshal mapping: %w", err)
	}

	now := formatTime(nowUTC())
	u := &types.Upload{
		ID:            newID(),
		ClientID:      in.ClientID,
		Filename:      in.Filename,
		Sample:        sample,
		ColumnMapping: in.ColumnMapping,
		RowCount:      in.RowCount,
		UploadedAt:    parseTime(now),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO uploads (id, client_id, filename, original_data, column_mapping, row_count, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.ClientID, u.Filename, sampleJSON, mappingJSON, u.RowCount, now)
	if err != nil {
		return nil, fmt.Errorf("insert upload: %w", err)
	}

	return u, nil
}

// InsertRecords stores normalized records in a single transaction.
// Either every record is written or none is.
func (s *SQLiteStore) InsertRecords(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sns_data (
			id, client_id, upload_id, date, title, link,
			views, likes, comments, shares, saves, reach, impressions,
			watch_time_sec, avg_view_duration_sec, vcr, profile_views, follows, outbound_clicks,
			engagement, engagement_rate, week_iso, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	now := formatTime(nowUTC())
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = newID()
		}
		m := r.Metrics
		_, err := stmt.ExecContext(ctx,
			id, r.ClientID, r.UploadID, r.Date, nullString(r.Title), nullString(r.Link),
			m.Views, m.Likes, m.Comments, m.Shares, m.Saves, m.Reach, m.Impressions,
			m.WatchTimeSec, m.AvgViewDurationSec, m.VCR, m.ProfileViews, m.Follows, m.OutboundClicks,
			r.Engagement, r.EngagementRate, r.WeekISO, now,
		)
		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// InsertLogs stores ingestion log entries in a single transaction.
func (s *SQLiteStore) InsertLogs(ctx context.Context, logs []types.DataLog) error {
	if len(logs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO data_logs (id, upload_id, log_type, message, row_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	now := formatTime(nowUTC())
	for _, l := range logs {
		id := l.ID
		if id == "" {
			id = newID()
		}
		var rowData any
		if l.Row != nil {
			data, err := marshalJSON(l.Row)
			if err != nil {
				return fmt.Errorf("marshal row data: %w", err)
			}
			rowData = data
		}
		if _, err := stmt.ExecContext(ctx, id, l.UploadID, string(l.Type), l.Message, rowData, now); err != nil {
			return fmt.Errorf("insert log: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListUploads returns the most recent uploads for a client, newest first.
func (s *SQLiteStore) ListUploads(ctx context.Context, clientID string, limit int) ([]types.Upload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, filename, original_data, column_mapping, row_count, uploaded_at
		FROM uploads
		WHERE client_id = ?
		ORDER BY uploaded_at DESC, id DESC
		LIMIT ?
	`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	uploads := []types.Upload{}
	for rows.Next() {
		var u types.Upload
		var sampleJSON, mappingJSON, uploadedAt string
		if err := rows.Scan(&u.ID, &u.ClientID, &u.Filename, &sampleJSON, &mappingJSON, &u.RowCount, &uploadedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		if err := json.Unmarshal([]byte(sampleJSON), &u.Sample); err != nil {
			return nil, fmt.Errorf("parse sample JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(mappingJSON), &u.ColumnMapping); err != nil {
			return nil, fmt.Errorf("parse mapping JSON: %w", err)
		}
		u.UploadedAt = parseTime(uploadedAt)
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// ListLogs returns the log entries of one upload belonging to clientID.
// An upload owned by another client reads as ErrNotFound.
func (s *SQLiteStore) ListLogs(ctx context.Context, clientID, uploadID string) ([]types.DataLog, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT client_id FROM uploads WHERE id = ?`, uploadID).Scan(&owner)
	if err == sql.ErrNoRows || (err == nil && owner != clientID) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query upload: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, upload_id, log_type, message, row_data, created_at
		FROM data_logs
		WHERE upload_id = ?
		ORDER BY created_at, id
	`, uploadID)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	logs := []types.DataLog{}
	for rows.Next() {
		var l types.DataLog
		var logType, createdAt string
		var rowData sql.NullString
		if err := rows.Scan(&l.ID, &l.UploadID, &logType, &l.Message, &rowData, &createdAt); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		l.Type = types.LogType(logType)
		if rowData.Valid {
			if err := json.Unmarshal([]byte(rowData.String), &l.Row); err != nil {
				return nil, fmt.Errorf("parse row JSON: %w", err)
			}
		}
		l.CreatedAt = parseTime(createdAt)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
