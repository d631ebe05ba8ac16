//go:build integration

package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestRunMigrations_FreshDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	for _, table := range []string{"clients", "uploads", "sns_data", "data_logs", "kpi_settings", "reports", "column_mappings"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not created: %v", table, err)
		}
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("first migration failed: %v", err)
	}
	if err := RunMigrations(db); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestRunMigrations_ConstraintsEnforced(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO clients (id, name, created_at, updated_at) VALUES ('c1', 'Acme', 'x', 'x')`); err != nil {
		t.Fatalf("insert client: %v", err)
	}

	_, err = db.Exec(`INSERT INTO kpi_settings (id, client_id, kpi_type, period, metric_name, created_at, updated_at)
		VALUES ('k1', 'c1', 'yearly', '2025', 'views', 'x', 'x')`)
	if err == nil {
		t.Error("expected CHECK constraint to reject kpi_type 'yearly'")
	}

	_, err = db.Exec(`INSERT INTO reports (id, client_id, report_type, period_start, period_end, title,
		content_markdown, content_html, metadata, created_at)
		VALUES ('r1', 'c1', 'daily', 'a', 'b', 't', '', '', '{}', 'x')`)
	if err == nil {
		t.Error("expected CHECK constraint to reject report_type 'daily'")
	}
}
