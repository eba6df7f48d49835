package monitor

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"hirevox/api"
)

type regPoll struct {
	status api.RegistrationStatus
	err    error
}

type MockRegistrationAPI struct {
	mu    sync.Mutex
	polls []regPoll
	n     int
}

func (m *MockRegistrationAPI) RegistrationStatus(
	ctx context.Context,
) (api.RegistrationStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	poll := m.polls[m.n]
	if m.n < len(m.polls)-1 {
		m.n++
	}
	return poll.status, poll.err
}

func (m *MockRegistrationAPI) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestRegistrationWatcher(client RegistrationAPI) *RegistrationWatcher {
	w := NewRegistrationWatcher(client, testLogger())
	w.interval = time.Millisecond
	return w
}

func TestWatchUntilCompleted(t *testing.T) {
	client := &MockRegistrationAPI{polls: []regPoll{
		{status: api.RegistrationStatus{Status: "recording"}},
		{status: api.RegistrationStatus{Status: "processing"}},
		{status: api.RegistrationStatus{Status: "completed", Success: true}},
	}}
	w := newTestRegistrationWatcher(client)

	outcome, err := w.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if !outcome.Success {
		t.Error("expected a successful outcome")
	}
	if outcome.Message != "Voice registered successfully" {
		t.Errorf("unexpected message: %q", outcome.Message)
	}
}

func TestWatchCompletedWithoutSuccess(t *testing.T) {
	client := &MockRegistrationAPI{polls: []regPoll{
		{status: api.RegistrationStatus{Status: "completed", Success: false}},
	}}
	w := newTestRegistrationWatcher(client)

	outcome, err := w.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if outcome.Success {
		t.Error("expected a failed outcome")
	}
	if outcome.Message != "Voice registration failed" {
		t.Errorf("unexpected message: %q", outcome.Message)
	}
}

func TestWatchErrorStatus(t *testing.T) {
	client := &MockRegistrationAPI{polls: []regPoll{
		{status: api.RegistrationStatus{
			Status: "error",
			Error:  "microphone unavailable",
		}},
	}}
	w := newTestRegistrationWatcher(client)

	outcome, err := w.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if outcome.Success {
		t.Error("expected a failed outcome")
	}
	if outcome.Message != "microphone unavailable" {
		t.Errorf("unexpected message: %q", outcome.Message)
	}
}

func TestWatchKeepsPollingThroughErrors(t *testing.T) {
	client := &MockRegistrationAPI{polls: []regPoll{
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
		{status: api.RegistrationStatus{Status: "completed", Success: true}},
	}}
	w := newTestRegistrationWatcher(client)

	outcome, err := w.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if !outcome.Success {
		t.Error("expected success after transient poll errors")
	}
	if client.calls() < 2 {
		t.Errorf("expected polling to continue past errors, saw %d calls", client.calls())
	}
}

func TestWatchCancellation(t *testing.T) {
	client := &MockRegistrationAPI{polls: []regPoll{
		{status: api.RegistrationStatus{Status: "recording"}},
	}}
	w := newTestRegistrationWatcher(client)

	ctx, cancel := context.WithTimeout(
		context.Background(), 20*time.Millisecond,
	)
	defer cancel()

	_, err := w.Watch(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context error, got %v", err)
	}
}

func TestWatchInProgressGuard(t *testing.T) {
	client := &MockRegistrationAPI{polls: []regPoll{
		{status: api.RegistrationStatus{Status: "recording"}},
	}}
	w := newTestRegistrationWatcher(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		close(started)
		w.Watch(ctx)
		close(finished)
	}()

	<-started
	time.Sleep(5 * time.Millisecond)

	if _, err := w.Watch(ctx); !errors.Is(err, ErrWatchInProgress) {
		t.Errorf("expected ErrWatchInProgress, got %v", err)
	}

	cancel()
	<-finished

	// The slot frees up once the first watch returns.
	client.mu.Lock()
	client.polls = []regPoll{
		{status: api.RegistrationStatus{Status: "completed", Success: true}},
	}
	client.n = 0
	client.mu.Unlock()

	if _, err := w.Watch(context.Background()); err != nil {
		t.Errorf("expected the watcher to be reusable, got %v", err)
	}
}
