package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperengineering/snsreport/internal/config"
)

// logCapture captures slog output for testing
type logCapture struct {
	mu      sync.Mutex
	entries []map[string]any
}

func (c *logCapture) handler() slog.Handler {
	return slog.NewJSONHandler(c, &slog.HandlerOptions{Level: slog.LevelDebug})
}

func (c *logCapture) Write(p []byte) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var entry map[string]any
	if err := json.Unmarshal(p, &entry); err == nil {
		c.entries = append(c.entries, entry)
	}
	return len(p), nil
}

func (c *logCapture) hasMessage(msg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e["msg"] == msg {
			return true
		}
	}
	return false
}

func captureDefault(t *testing.T) *logCapture {
	t.Helper()
	capture := &logCapture{}
	old := slog.Default()
	slog.SetDefault(slog.New(capture.handler()))
	t.Cleanup(func() { slog.SetDefault(old) })
	return capture
}

func TestStartWorker_LaunchesGoroutineAndTracksCompletion(t *testing.T) {
	capture := captureDefault(t)

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	startWorker(ctx, &wg, "archive-sweep", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("worker function was not called")
	}

	cancel()
	wg.Wait()

	if !capture.hasMessage("worker started") || !capture.hasMessage("worker stopped") {
		t.Error("expected worker started and stopped log messages")
	}

	capture.mu.Lock()
	defer capture.mu.Unlock()
	found := false
	for _, e := range capture.entries {
		if e["worker"] == "archive-sweep" {
			found = true
		}
	}
	if !found {
		t.Error("expected log entry with worker='archive-sweep'")
	}
}

func TestWorkerWaitGroupIntegration(t *testing.T) {
	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())

	completed := atomic.Bool{}
	startWorker(ctx, &wg, "slow-worker", func(ctx context.Context) {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		completed.Store(true)
	})

	cancel()
	wg.Wait()

	if !completed.Load() {
		t.Error("wg.Wait() returned before worker completed")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, config.LogConfig{Level: "info", Format: "json"}).Info("hello", "component", "main")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("json format produced %q: %v", buf.String(), err)
	}
	if entry["component"] != "main" {
		t.Errorf("entry = %v", entry)
	}

	buf.Reset()
	newLogger(&buf, config.LogConfig{Level: "info", Format: "text"}).Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text format produced %q", buf.String())
	}

	buf.Reset()
	newLogger(&buf, config.LogConfig{Level: "warn"}).Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
}
