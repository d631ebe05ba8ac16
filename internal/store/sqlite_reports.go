package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperengineering/snsreport/internal/types"
)

// CreateReport persists a rendered report with its metadata snapshot.
func (s *SQLiteStore) CreateReport(ctx context.Context, in types.NewReport) (*types.Report, error) {
	metaJSON, err := marshalJSON(in.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	now := formatTime(nowUTC())
	meta := in.Metadata
	r := &types.Report{
		ID:              newID(),
		ClientID:        in.ClientID,
		ReportType:      in.ReportType,
		PeriodStart:     in.PeriodStart,
		PeriodEnd:       in.PeriodEnd,
		Title:           in.Title,
		ContentMarkdown: in.ContentMarkdown,
		ContentHTML:     in.ContentHTML,
		Metadata:        &meta,
		CreatedAt:       parseTime(now),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (
			id, client_id, report_type, period_start, period_end, title,
			content_markdown, content_html, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.ClientID, string(r.ReportType), r.PeriodStart, r.PeriodEnd, r.Title,
		r.ContentMarkdown, r.ContentHTML, metaJSON, now)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return r, nil
}

// GetReport returns one report of a client, with content and metadata.
func (s *SQLiteStore) GetReport(ctx context.Context, clientID, id string) (*types.Report, error) {
	var r types.Report
	var reportType, metaJSON, createdAt string
	var archivedAt sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, report_type, period_start, period_end, title,
		       content_markdown, content_html, metadata, created_at, archived_at
		FROM reports
		WHERE id = ? AND client_id = ?
	`, id, clientID).Scan(&r.ID, &r.ClientID, &reportType, &r.PeriodStart, &r.PeriodEnd, &r.Title,
		&r.ContentMarkdown, &r.ContentHTML, &metaJSON, &createdAt, &archivedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}

	r.ReportType = types.ReportType(reportType)
	r.CreatedAt = parseTime(createdAt)
	if archivedAt.Valid {
		t := parseTime(archivedAt.String)
		r.ArchivedAt = &t
	}
	var meta types.ReportMetadata
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, fmt.Errorf("parse metadata JSON: %w", err)
	}
	r.Metadata = &meta
	return &r, nil
}

// ListReports returns report headers for a client, newest first.
// Content and metadata are omitted.
func (s *SQLiteStore) ListReports(ctx context.Context, clientID string, limit int) ([]types.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, report_type, period_start, period_end, title, created_at
		FROM reports
		WHERE client_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := []types.Report{}
	for rows.Next() {
		var r types.Report
		var reportType, createdAt string
		if err := rows.Scan(&r.ID, &r.ClientID, &reportType, &r.PeriodStart, &r.PeriodEnd, &r.Title, &createdAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.ReportType = types.ReportType(reportType)
		r.CreatedAt = parseTime(createdAt)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// DeleteReport removes one report of a client.
func (s *SQLiteStore) DeleteReport(ctx context.Context, clientID, id string) error {
	return s.deleteOne(ctx, `DELETE FROM reports WHERE id = ? AND client_id = ?`, id, clientID)
}

// ListUnarchivedReports returns up to limit reports of any client that have
// not been archived yet, oldest first, with their content.
func (s *SQLiteStore) ListUnarchivedReports(ctx context.Context, limit int) ([]types.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, report_type, period_start, period_end, title,
		       content_markdown, content_html, created_at
		FROM reports
		WHERE archived_at IS NULL
		ORDER BY archive_attempted_at, created_at, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unarchived reports: %w", err)
	}
	defer rows.Close()

	reports := []types.Report{}
	for rows.Next() {
		var r types.Report
		var reportType, createdAt string
		if err := rows.Scan(&r.ID, &r.ClientID, &reportType, &r.PeriodStart, &r.PeriodEnd, &r.Title,
			&r.ContentMarkdown, &r.ContentHTML, &createdAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.ReportType = types.ReportType(reportType)
		r.CreatedAt = parseTime(createdAt)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// MarkReportArchived records that a report has been copied to the archive.
func (s *SQLiteStore) MarkReportArchived(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reports SET archived_at = ? WHERE id = ?`, formatTime(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("mark report archived: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkReportArchiveAttempted records a failed archive attempt. Reports are
// listed for archiving by least recent attempt, never-attempted first.
func (s *SQLiteStore) MarkReportArchiveAttempted(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reports SET archive_attempted_at = ? WHERE id = ?`, formatTime(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("mark report archive attempted: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
