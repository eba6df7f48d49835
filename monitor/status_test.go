package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hirevox/api"
)

type statusPoll struct {
	warnings    api.Warnings
	warningsErr error
	status      api.InterviewStatus
	statusErr   error
}

type MockStatusAPI struct {
	mu    sync.Mutex
	polls []statusPoll
	n     int
}

func (m *MockStatusAPI) current() statusPoll {
	poll := m.polls[m.n]
	if m.n < len(m.polls)-1 {
		m.n++
	}
	return poll
}

func (m *MockStatusAPI) VoiceWarnings(
	ctx context.Context,
) (api.Warnings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	poll := m.polls[m.n]
	return poll.warnings, poll.warningsErr
}

func (m *MockStatusAPI) InterviewStatus(
	ctx context.Context,
) (api.InterviewStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	poll := m.current()
	return poll.status, poll.statusErr
}

func TestTickReplacesSnapshot(t *testing.T) {
	client := &MockStatusAPI{polls: []statusPoll{
		{
			warnings: api.Warnings{
				Warnings:         1,
				MaxWarnings:      3,
				MalpracticeCount: 0,
				MaxMalpractice:   2,
			},
			status: api.InterviewStatus{Status: "active"},
		},
	}}
	w := NewStatusWatcher(client, testLogger())

	w.tick(context.Background())

	got := w.Snapshot()
	want := Flags{
		Warnings:        1,
		MaxWarnings:     3,
		MaxMalpractice:  2,
		InterviewStatus: "active",
	}
	if got != want {
		t.Errorf("expected snapshot %+v, got %+v", want, got)
	}
}

func TestFailedTickKeepsSnapshot(t *testing.T) {
	client := &MockStatusAPI{polls: []statusPoll{
		{
			warnings: api.Warnings{Warnings: 2, MaxWarnings: 3},
			status:   api.InterviewStatus{Status: "active"},
		},
		{
			warningsErr: errors.New("backend unreachable"),
		},
	}}
	w := NewStatusWatcher(client, testLogger())

	w.tick(context.Background())
	before := w.Snapshot()

	w.tick(context.Background())
	after := w.Snapshot()

	if after != before {
		t.Errorf("a failed tick must keep the snapshot, got %+v", after)
	}
}

func TestPartialTickKeepsSnapshot(t *testing.T) {
	client := &MockStatusAPI{polls: []statusPoll{
		{
			warnings: api.Warnings{Warnings: 1, MaxWarnings: 3},
			status:   api.InterviewStatus{Status: "active"},
		},
		{
			warnings:  api.Warnings{Warnings: 2, MaxWarnings: 3},
			statusErr: errors.New("backend unreachable"),
		},
	}}
	w := NewStatusWatcher(client, testLogger())

	w.tick(context.Background())
	w.tick(context.Background())

	// The second tick read warnings fine but the status read failed, so
	// none of it lands.
	if got := w.Snapshot().Warnings; got != 1 {
		t.Errorf("expected warnings 1, got %d", got)
	}
}

func TestCancellationAnnouncedOnce(t *testing.T) {
	client := &MockStatusAPI{polls: []statusPoll{
		{
			status: api.InterviewStatus{
				Status: "cancelled",
				Reason: "Too many violations",
			},
		},
	}}
	w := NewStatusWatcher(client, testLogger())

	var notices []string
	w.OnCancelled = func(message string) {
		notices = append(notices, message)
	}

	w.tick(context.Background())
	w.tick(context.Background())
	w.tick(context.Background())

	if len(notices) != 1 {
		t.Fatalf("expected exactly one notice, got %d", len(notices))
	}
	want := "Interview cancelled: Too many violations"
	if notices[0] != want {
		t.Errorf("expected %q, got %q", want, notices[0])
	}

	if !w.Snapshot().Cancelled() {
		t.Error("snapshot must keep reporting the cancellation")
	}
}

func TestOnUpdateSeesEveryTick(t *testing.T) {
	client := &MockStatusAPI{polls: []statusPoll{
		{
			warnings: api.Warnings{Warnings: 1},
			status:   api.InterviewStatus{Status: "active"},
		},
		{
			warnings: api.Warnings{Warnings: 2},
			status:   api.InterviewStatus{Status: "active"},
		},
	}}
	w := NewStatusWatcher(client, testLogger())

	var seen []Flags
	w.OnUpdate = func(flags Flags) {
		seen = append(seen, flags)
	}

	w.tick(context.Background())
	w.tick(context.Background())

	if len(seen) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(seen))
	}
	if seen[0].Warnings != 1 || seen[1].Warnings != 2 {
		t.Errorf("unexpected update sequence: %+v", seen)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	client := &MockStatusAPI{polls: []statusPoll{
		{status: api.InterviewStatus{Status: "active"}},
	}}
	w := NewStatusWatcher(client, testLogger())
	w.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	if w.Snapshot().InterviewStatus != "active" {
		t.Error("expected at least one tick before shutdown")
	}
}
