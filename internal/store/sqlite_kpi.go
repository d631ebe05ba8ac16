package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperengineering/snsreport/internal/types"
)

// ListKPISettings returns a client's KPI targets. Empty kpiType or period
// match any value.
func (s *SQLiteStore) ListKPISettings(ctx context.Context, clientID string, kpiType types.KPIType, period string) ([]types.KPISetting, error) {
	conds := []string{"client_id = ?"}
	args := []any{clientID}
	if kpiType != "" {
		conds = append(conds, "kpi_type = ?")
		args = append(args, string(kpiType))
	}
	if period != "" {
		conds = append(conds, "period = ?")
		args = append(args, period)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, kpi_type, period, metric_name, metric_label,
		       target_value, formula, created_at, updated_at
		FROM kpi_settings
		WHERE `+strings.Join(conds, " AND ")+`
		ORDER BY period DESC, created_at, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query kpi settings: %w", err)
	}
	defer rows.Close()

	settings := []types.KPISetting{}
	for rows.Next() {
		var k types.KPISetting
		var kt, createdAt, updatedAt string
		var label, formula sql.NullString
		var target sql.NullFloat64
		if err := rows.Scan(&k.ID, &k.ClientID, &kt, &k.Period, &k.MetricName, &label,
			&target, &formula, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan kpi setting: %w", err)
		}
		k.KPIType = types.KPIType(kt)
		k.MetricLabel = stringPtr(label)
		k.TargetValue = floatPtr(target)
		k.Formula = stringPtr(formula)
		k.CreatedAt = parseTime(createdAt)
		k.UpdatedAt = parseTime(updatedAt)
		settings = append(settings, k)
	}
	return settings, rows.Err()
}

// UpsertKPISettings creates or updates KPI targets keyed by
// (client, kpi_type, period, metric_name), all within one transaction.
// It returns the setting IDs in input order.
func (s *SQLiteStore) UpsertKPISettings(ctx context.Context, clientID string, inputs []types.KPIInput) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(nowUTC())
	ids := make([]string, 0, len(inputs))

	for _, in := range inputs {
		var id string
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM kpi_settings
			WHERE client_id = ? AND kpi_type = ? AND period = ? AND metric_name = ?
		`, clientID, string(in.KPIType), in.Period, in.MetricName).Scan(&id)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			id = newID()
			_, err = tx.ExecContext(ctx, `
				INSERT INTO kpi_settings (
					id, client_id, kpi_type, period, metric_name, metric_label,
					target_value, formula, created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, id, clientID, string(in.KPIType), in.Period, in.MetricName,
				nullString(in.MetricLabel), nullFloat(in.TargetValue), nullString(in.Formula), now, now)
			if err != nil {
				return nil, fmt.Errorf("insert kpi setting: %w", err)
			}
		case err != nil:
			return nil, fmt.Errorf("query kpi setting: %w", err)
		default:
			_, err = tx.ExecContext(ctx, `
				UPDATE kpi_settings
				SET metric_label = ?, target_value = ?, formula = ?, updated_at = ?
				WHERE id = ?
			`, nullString(in.MetricLabel), nullFloat(in.TargetValue), nullString(in.Formula), now, id)
			if err != nil {
				return nil, fmt.Errorf("update kpi setting: %w", err)
			}
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return ids, nil
}

// DeleteKPISetting removes one KPI target of a client.
func (s *SQLiteStore) DeleteKPISetting(ctx context.Context, clientID, id string) error {
	return s.deleteOne(ctx, `DELETE FROM kpi_settings WHERE id = ? AND client_id = ?`, id, clientID)
}
