package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperengineering/snsreport/internal/types"
)

const exportCSV = "Date,Title,Views,Reach,Likes\n" +
	"2025-11-03,Launch,3000,1500,120\n" +
	"not-a-date,Broken,10,5,1\n" +
	"2025-11-12,Recap,800,400,30\n"

// executeCmd runs the root command against the database at dbPath with
// captured output.
func executeCmd(t *testing.T, dbPath string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	// Keep a developer's config and credentials out of the run.
	t.Setenv("SNSREPORT_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("SNSREPORT_DB_PATH", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SNSREPORT_ARCHIVE_BUCKET", "")

	// Cobra parses into package-level variables; reset them so values
	// from a previous test do not leak.
	dbPathOverride = ""
	jsonOutput = false
	clientIndustry = ""
	ingestMap = map[string]string{}
	ingestMappingName = ""
	ingestSaveAs = ""
	reportType = string(types.ReportMonthlyClient)
	reportStart = ""
	reportEnd = ""
	reportTitle = ""
	reportFormat = "md"
	reportOutput = ""

	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(errBuf)
	rootCmd.SetArgs(append(args, "--db", dbPath))

	err = rootCmd.Execute()

	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetArgs(nil)

	return outBuf.String(), errBuf.String(), err
}

// createClient creates a client through the CLI and returns its ID.
func createClient(t *testing.T, dbPath, name string) string {
	t.Helper()
	stdout, _, err := executeCmd(t, dbPath, "clients", "create", name, "--json")
	if err != nil {
		t.Fatalf("clients create: %v", err)
	}
	var c types.Client
	if err := json.Unmarshal([]byte(stdout), &c); err != nil {
		t.Fatalf("decode client %q: %v", stdout, err)
	}
	return c.ID
}

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "november.csv")
	if err := os.WriteFile(path, []byte(exportCSV), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClients_CreateAndList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "snsreport.db")

	stdout, _, err := executeCmd(t, db, "clients", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "No clients found.") {
		t.Errorf("stdout = %q", stdout)
	}

	stdout, _, err = executeCmd(t, db, "clients", "create", "Acme", "--industry", "Retail")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `Created client "Acme"`) {
		t.Errorf("stdout = %q", stdout)
	}

	stdout, _, err = executeCmd(t, db, "clients", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Acme") || !strings.Contains(stdout, "Retail") {
		t.Errorf("stdout = %q", stdout)
	}

	stdout, _, err = executeCmd(t, db, "clients", "list", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var list struct {
		Clients []types.Client `json:"clients"`
		Total   int            `json:"total"`
	}
	if err := json.Unmarshal([]byte(stdout), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 1 || list.Clients[0].Name != "Acme" {
		t.Errorf("list = %+v", list)
	}
}

func TestClients_CreateRequiresName(t *testing.T) {
	db := filepath.Join(t.TempDir(), "snsreport.db")
	if _, _, err := executeCmd(t, db, "clients", "create", "  "); err == nil {
		t.Error("expected error for blank name")
	}
}

func TestIngest_MapFlagsThenSavedDefault(t *testing.T) {
	db := filepath.Join(t.TempDir(), "snsreport.db")
	clientID := createClient(t, db, "Acme")
	csvPath := writeCSV(t)

	stdout, _, err := executeCmd(t, db, "ingest", clientID, csvPath,
		"--map", "date=Date", "--map", "title=Title", "--map", "views=Views",
		"--map", "reach=Reach", "--map", "likes=Likes",
		"--save-mapping", "Instagram")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "2 of 3 rows processed (1 errors, 0 warnings)") {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stdout, "error:") {
		t.Errorf("expected the failing row to be listed, stdout = %q", stdout)
	}

	stdout, _, err = executeCmd(t, db, "ingest", clientID, csvPath, "--json")
	if err != nil {
		t.Fatalf("ingest with default mapping: %v", err)
	}
	var result types.IngestResult
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.ProcessedRows != 2 {
		t.Errorf("processed = %d, want 2", result.ProcessedRows)
	}

	if _, _, err := executeCmd(t, db, "ingest", clientID, csvPath, "--mapping-name", "TikTok"); err == nil {
		t.Error("expected error for unknown mapping name")
	}
}

func TestIngest_Errors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "snsreport.db")
	clientID := createClient(t, db, "Acme")
	csvPath := writeCSV(t)

	_, _, err := executeCmd(t, db, "ingest", clientID, csvPath)
	if err == nil || !strings.Contains(err.Error(), "no column mapping") {
		t.Errorf("err = %v, want no column mapping", err)
	}

	_, _, err = executeCmd(t, db, "ingest", clientID, filepath.Join(t.TempDir(), "missing.csv"), "--map", "date=Date")
	if err == nil {
		t.Error("expected error for missing file")
	}

	_, _, err = executeCmd(t, db, "ingest", "01ARZ3NDEKTSV4RRFFQ69G5FAV", csvPath, "--map", "date=Date")
	if err == nil {
		t.Error("expected error for unknown client")
	}
}

func TestReportGenerate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "snsreport.db")
	clientID := createClient(t, db, "Acme")
	if _, _, err := executeCmd(t, db, "ingest", clientID, writeCSV(t),
		"--map", "date=Date", "--map", "views=Views", "--map", "reach=Reach"); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	stdout, _, err := executeCmd(t, db, "report", "generate", clientID,
		"--start", "2025-11-01", "--end", "2025-11-30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(stdout, "# Monthly Report") || !strings.Contains(stdout, "**3,800**") {
		t.Errorf("markdown = %q", stdout)
	}

	out := filepath.Join(t.TempDir(), "weekly.html")
	_, stderr, err := executeCmd(t, db, "report", "generate", clientID,
		"--type", "weekly_internal", "--start", "2025-11-10", "--end", "2025-11-16",
		"--format", "html", "-o", out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stderr, "written to") {
		t.Errorf("stderr = %q", stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<h1>Weekly Report</h1>") {
		t.Errorf("html = %q", data)
	}
}

func TestReportGenerate_Rejections(t *testing.T) {
	db := filepath.Join(t.TempDir(), "snsreport.db")
	clientID := createClient(t, db, "Acme")

	if _, _, err := executeCmd(t, db, "report", "generate", clientID,
		"--start", "2025-11-01", "--end", "2025-11-30", "--format", "pdf"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, _, err := executeCmd(t, db, "report", "generate", clientID,
		"--type", "quarterly", "--start", "2025-11-01", "--end", "2025-11-30"); err == nil {
		t.Error("expected error for unknown report type")
	}
}
