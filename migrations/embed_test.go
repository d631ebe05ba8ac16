package migrations

import (
	"strings"
	"testing"
)

func TestEmbeddedFS_ContainsMigrationFiles(t *testing.T) {
	entries, err := FS.ReadDir(".")
	if err != nil {
		t.Fatalf("failed to read embedded FS: %v", err)
	}

	found := false
	for _, entry := range entries {
		if entry.Name() == "001_initial_schema.sql" {
			found = true
			break
		}
	}

	if !found {
		t.Error("001_initial_schema.sql not found in embedded FS")
	}
}

func TestEmbeddedFS_InitialSchemaCreatesAllTables(t *testing.T) {
	content, err := FS.ReadFile("001_initial_schema.sql")
	if err != nil {
		t.Fatalf("failed to read migration file: %v", err)
	}
	sql := string(content)

	for _, directive := range []string{"-- +goose Up", "-- +goose Down"} {
		if !strings.Contains(sql, directive) {
			t.Errorf("migration missing %q directive", directive)
		}
	}

	tables := []string{"clients", "uploads", "sns_data", "data_logs", "kpi_settings", "reports", "column_mappings"}
	for _, table := range tables {
		if !strings.Contains(sql, "CREATE TABLE "+table+" (") {
			t.Errorf("migration missing %s table creation", table)
		}
	}
}
