package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hyperengineering/snsreport/internal/types"
)

const clientColumns = `id, name, industry, memo, created_at, updated_at`

func scanClient(scanner interface{ Scan(...any) error }) (*types.Client, error) {
	var c types.Client
	var industry, memo sql.NullString
	var createdAt, updatedAt string

	if err := scanner.Scan(&c.ID, &c.Name, &industry, &memo, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	c.Industry = stringPtr(industry)
	c.Memo = stringPtr(memo)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

// CreateClient inserts a new client.
func (s *SQLiteStore) CreateClient(ctx context.Context, in types.NewClient) (*types.Client, error) {
	now := formatTime(nowUTC())
	c := &types.Client{
		ID:        newID(),
		Name:      in.Name,
		Industry:  in.Industry,
		Memo:      in.Memo,
		CreatedAt: parseTime(now),
		UpdatedAt: parseTime(now),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (`+clientColumns+`) VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, nullString(c.Industry), nullString(c.Memo), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}

	return c, nil
}

// GetClient returns the client with the given ID or ErrNotFound.
func (s *SQLiteStore) GetClient(ctx context.Context, id string) (*types.Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan client: %w", err)
	}
	return c, nil
}

// ListClients returns all clients ordered by name.
func (s *SQLiteStore) ListClients(ctx context.Context) ([]types.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	clients := []types.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

// DeleteClient removes a client and, by cascade, all of its data.
func (s *SQLiteStore) DeleteClient(ctx context.Context, id string) error {
	return s.deleteOne(ctx, `DELETE FROM clients WHERE id = ?`, id)
}

// deleteOne executes a single-row delete and maps zero affected rows to ErrNotFound.
func (s *SQLiteStore) deleteOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
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
