package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hyperengineering/snsreport/internal/types"
)

// SaveMapping stores a column mapping template. Saving a default clears the
// default flag on the client's other templates in the same transaction.
func (s *SQLiteStore) SaveMapping(ctx context.Context, in types.NewSavedMapping) (*types.SavedMapping, error) {
	mappingJSON, err := marshalJSON(in.Mapping)
	if err != nil {
		return nil, fmt.Errorf("marshal mapping: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if in.IsDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE column_mappings SET is_default = 0 WHERE client_id = ?`, in.ClientID); err != nil {
			return nil, fmt.Errorf("clear default mapping: %w", err)
		}
	}

	now := formatTime(nowUTC())
	m := &types.SavedMapping{
		ID:        newID(),
		ClientID:  in.ClientID,
		Name:      in.Name,
		Mapping:   in.Mapping,
		IsDefault: in.IsDefault,
		CreatedAt: parseTime(now),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO column_mappings (id, client_id, mapping_name, mapping_config, is_default, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.ClientID, m.Name, mappingJSON, boolToInt(m.IsDefault), now)
	if err != nil {
		return nil, fmt.Errorf("insert mapping: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return m, nil
}

// ListMappings returns a client's templates, default first, then newest first.
func (s *SQLiteStore) ListMappings(ctx context.Context, clientID string) ([]types.SavedMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, mapping_name, mapping_config, is_default, created_at
		FROM column_mappings
		WHERE client_id = ?
		ORDER BY is_default DESC, created_at DESC, id DESC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	mappings := []types.SavedMapping{}
	for rows.Next() {
		var m types.SavedMapping
		var configJSON, createdAt string
		var isDefault int
		if err := rows.Scan(&m.ID, &m.ClientID, &m.Name, &configJSON, &isDefault, &createdAt); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		if err := json.Unmarshal([]byte(configJSON), &m.Mapping); err != nil {
			return nil, fmt.Errorf("parse mapping JSON: %w", err)
		}
		m.IsDefault = isDefault != 0
		m.CreatedAt = parseTime(createdAt)
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
