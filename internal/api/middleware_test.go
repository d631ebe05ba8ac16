package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const testAPIKey = "test-secret-key-12345"

// mockHandler is a simple handler that records if it was called
func mockHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}), &called
}

// captureLogs routes the default slog logger into a JSON buffer for the
// duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantCalled bool
		wantStatus int
	}{
		{"valid token", "Bearer " + testAPIKey, true, http.StatusOK},
		{"missing header", "", false, http.StatusUnauthorized},
		{"wrong token", "Bearer wrong-token", false, http.StatusUnauthorized},
		{"no bearer prefix", testAPIKey, false, http.StatusUnauthorized},
		{"lowercase bearer", "bearer " + testAPIKey, false, http.StatusUnauthorized},
		{"empty token", "Bearer ", false, http.StatusUnauthorized},
		{"whitespace token", "Bearer    ", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureLogs(t)
			handler, called := mockHandler()
			mw := AuthMiddleware(testAPIKey)(handler)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			mw.ServeHTTP(w, req)

			if *called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", *called, tt.wantCalled)
			}
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthMiddleware_EmptyKeyAllowsAll(t *testing.T) {
	handler, called := mockHandler()
	mw := AuthMiddleware("")(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)

	if !*called || w.Code != http.StatusOK {
		t.Errorf("dev mode should let requests through: called=%v status=%d", *called, w.Code)
	}
}

func TestAuthMiddleware_ProblemResponseWithoutKey(t *testing.T) {
	logs := captureLogs(t)
	handler, _ := mockHandler()
	mw := AuthMiddleware(testAPIKey)(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", ct)
	}

	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal problem: %v", err)
	}
	if p.Type != problemBase+"unauthorized" || p.Status != http.StatusUnauthorized {
		t.Errorf("problem = %+v", p)
	}
	if p.Instance != "/api/v1/clients" {
		t.Errorf("instance = %q, want /api/v1/clients", p.Instance)
	}

	if strings.Contains(w.Body.String(), testAPIKey) || strings.Contains(logs.String(), testAPIKey) {
		t.Error("API key leaked into response or logs")
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"Bearer  abc  ", "abc"},
		{"Basic abc", ""},
		{"", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := extractBearerToken(req); got != tt.want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestConstantTimeEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"secret", "secret", true},
		{"secret", "Secret", false},
		{"short", "longer-value", false},
		{"", "", true},
	}
	for _, tt := range tests {
		if got := constantTimeEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("constantTimeEqual(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLogLevelForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   slog.Level
	}{
		{200, slog.LevelInfo},
		{201, slog.LevelInfo},
		{304, slog.LevelInfo},
		{400, slog.LevelWarn},
		{404, slog.LevelWarn},
		{422, slog.LevelWarn},
		{500, slog.LevelError},
		{503, slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			if got := logLevelForStatus(tt.status); got != tt.want {
				t.Errorf("logLevelForStatus(%d) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestLoggingMiddleware_Fields(t *testing.T) {
	logs := captureLogs(t)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(LoggingMiddleware)
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.100:54321"
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log as JSON: %v", err)
	}

	if entry["msg"] != "request completed" {
		t.Errorf("msg = %v, want request completed", entry["msg"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN for 404", entry["level"])
	}
	if entry["remote_addr"] != "192.168.1.100:54321" {
		t.Errorf("remote_addr = %v", entry["remote_addr"])
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Error("request_id missing or empty")
	}
	for _, field := range []string{"method", "path", "status", "duration_ms"} {
		if _, ok := entry[field]; !ok {
			t.Errorf("missing field %q", field)
		}
	}
	if strings.Contains(logs.String(), testAPIKey) {
		t.Error("log output contains the API key")
	}
}

func TestGetRequestID_NoContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("GetRequestID without middleware = %q, want empty", id)
	}
}

func TestRecoveryMiddleware_NoPanic(t *testing.T) {
	handler, called := mockHandler()
	w := httptest.NewRecorder()
	RecoveryMiddleware(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if !*called || w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("called=%v status=%d body=%q", *called, w.Code, w.Body.String())
	}
}

func TestRecoveryMiddleware_PanicNoLeak(t *testing.T) {
	logs := captureLogs(t)

	secret := "super-secret-database-password-12345"
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(secret)
	})

	w := httptest.NewRecorder()
	RecoveryMiddleware(panicking).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}

	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if p.Type != problemBase+"internal-error" || p.Detail != "Internal Server Error" {
		t.Errorf("problem = %+v", p)
	}
	if strings.Contains(w.Body.String(), secret) {
		t.Error("response body contains panic message")
	}
	if !strings.Contains(logs.String(), "panic recovered") || !strings.Contains(logs.String(), secret) {
		t.Error("expected panic details in logs")
	}
}
