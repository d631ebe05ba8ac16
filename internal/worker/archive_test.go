package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/snsreport/internal/archive"
	"github.com/hyperengineering/snsreport/internal/types"
)

// mockArchiveStore implements ArchiveStore over an in-memory list.
type mockArchiveStore struct {
	mu        sync.Mutex
	pending   []types.Report
	listErr   error
	listCalls int
	marked    []string
	attempted []string
}

func (m *mockArchiveStore) ListUnarchivedReports(ctx context.Context, limit int) ([]types.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	n := len(m.pending)
	if n > limit {
		n = limit
	}
	return append([]types.Report(nil), m.pending[:n]...), nil
}

func (m *mockArchiveStore) MarkReportArchived(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, id)
	for i, r := range m.pending {
		if r.ID == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
	return nil
}

// MarkReportArchiveAttempted moves the report behind the other pending
// reports, as the SQLite store orders by last attempt.
func (m *mockArchiveStore) MarkReportArchiveAttempted(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempted = append(m.attempted, id)
	for i, r := range m.pending {
		if r.ID == id {
			m.pending = append(append(m.pending[:i:i], m.pending[i+1:]...), r)
			break
		}
	}
	return nil
}

func (m *mockArchiveStore) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// mockArchiver fails Put for the report IDs in failFor.
type mockArchiver struct {
	mu      sync.Mutex
	failFor map[string]bool
	err     error
	puts    []archive.Document
}

func (m *mockArchiver) Put(ctx context.Context, doc archive.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.failFor[doc.ReportID] {
		return errors.New("connection reset")
	}
	m.puts = append(m.puts, doc)
	return nil
}

func (m *mockArchiver) PresignedURL(ctx context.Context, clientID, reportID string, format archive.Format) (string, time.Time, error) {
	return "", time.Time{}, nil
}

func reports(ids ...string) []types.Report {
	out := make([]types.Report, len(ids))
	for i, id := range ids {
		out[i] = types.Report{ID: id, ClientID: "c1", ContentMarkdown: "# " + id, ContentHTML: "<h1>" + id + "</h1>"}
	}
	return out
}

func TestArchiveSweeper_ArchivesPending(t *testing.T) {
	store := &mockArchiveStore{pending: reports("r1", "r2", "r3")}
	arch := &mockArchiver{}
	w := NewArchiveSweeper(store, arch, time.Hour, 0)

	if got := w.Sweep(context.Background()); got != 3 {
		t.Errorf("Sweep() = %d, want 3", got)
	}
	if len(store.marked) != 3 || len(store.pending) != 0 {
		t.Errorf("marked = %v, pending = %v", store.marked, store.pending)
	}
	if arch.puts[0].Markdown != "# r1" || arch.puts[0].HTML != "<h1>r1</h1>" || arch.puts[0].ClientID != "c1" {
		t.Errorf("first document = %+v", arch.puts[0])
	}
}

func TestArchiveSweeper_FailureLeavesReportPending(t *testing.T) {
	store := &mockArchiveStore{pending: reports("r1", "r2")}
	arch := &mockArchiver{failFor: map[string]bool{"r1": true}}
	w := NewArchiveSweeper(store, arch, time.Hour, 0)

	if got := w.Sweep(context.Background()); got != 1 {
		t.Errorf("Sweep() = %d, want 1", got)
	}
	if len(store.pending) != 1 || store.pending[0].ID != "r1" {
		t.Errorf("pending = %+v, want r1 only", store.pending)
	}
	if len(store.attempted) != 1 || store.attempted[0] != "r1" {
		t.Errorf("attempted = %v, want [r1]", store.attempted)
	}
}

func TestArchiveSweeper_FailingReportDoesNotBlockNewer(t *testing.T) {
	store := &mockArchiveStore{pending: reports("r1", "r2")}
	arch := &mockArchiver{failFor: map[string]bool{"r1": true}}
	w := NewArchiveSweeper(store, arch, time.Hour, 1)

	if got := w.Sweep(context.Background()); got != 0 {
		t.Errorf("first Sweep() = %d, want 0", got)
	}
	if got := w.Sweep(context.Background()); got != 1 {
		t.Errorf("second Sweep() = %d, want 1", got)
	}
	if len(store.marked) != 1 || store.marked[0] != "r2" {
		t.Errorf("marked = %v, want [r2]", store.marked)
	}
}

func TestArchiveSweeper_RespectsBatch(t *testing.T) {
	store := &mockArchiveStore{pending: reports("r1", "r2", "r3")}
	w := NewArchiveSweeper(store, &mockArchiver{}, time.Hour, 2)

	if got := w.Sweep(context.Background()); got != 2 {
		t.Errorf("Sweep() = %d, want 2", got)
	}
}

func TestArchiveSweeper_NotConfiguredStops(t *testing.T) {
	store := &mockArchiveStore{pending: reports("r1", "r2")}
	arch := &mockArchiver{err: archive.ErrNotConfigured}
	w := NewArchiveSweeper(store, arch, time.Hour, 0)

	if got := w.Sweep(context.Background()); got != 0 {
		t.Errorf("Sweep() = %d, want 0", got)
	}
	if len(store.marked) != 0 || len(store.attempted) != 0 {
		t.Errorf("marked = %v, attempted = %v, want none", store.marked, store.attempted)
	}
}

func TestArchiveSweeper_ListError(t *testing.T) {
	store := &mockArchiveStore{listErr: errors.New("database is locked")}
	w := NewArchiveSweeper(store, &mockArchiver{}, time.Hour, 0)

	if got := w.Sweep(context.Background()); got != 0 {
		t.Errorf("Sweep() = %d, want 0", got)
	}
}

func TestArchiveSweeper_SweepsOnStartAndInterval(t *testing.T) {
	store := &mockArchiveStore{}
	w := NewArchiveSweeper(store, &mockArchiver{}, 50*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	// Initial sweep plus at least two ticks.
	time.Sleep(150 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}

	if calls := store.ListCalls(); calls < 3 {
		t.Errorf("list calls = %d, want at least 3", calls)
	}
}
