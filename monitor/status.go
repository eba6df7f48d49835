package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"hirevox/api"
)

// Flags is the monitoring snapshot, replaced wholesale on every
// successful tick. A failed tick leaves the previous snapshot in place.
type Flags struct {
	Warnings         int
	MaxWarnings      int
	MalpracticeCount int
	MaxMalpractice   int
	InterviewStatus  string
	CancelReason     string
}

func (f Flags) Cancelled() bool {
	return f.InterviewStatus == "cancelled"
}

type StatusAPI interface {
	VoiceWarnings(ctx context.Context) (api.Warnings, error)
	InterviewStatus(ctx context.Context) (api.InterviewStatus, error)
}

// StatusWatcher refreshes the monitoring snapshot on a fixed cadence for
// the lifetime of the session. Tick failures are logged only; they never
// surface to the user. An observed cancellation is reported exactly
// once, but the loop keeps running.
type StatusWatcher struct {
	client   StatusAPI
	logger   *log.Logger
	interval time.Duration

	// OnCancelled receives the one-shot cancellation notice.
	OnCancelled func(message string)
	// OnUpdate receives every replaced snapshot, for display.
	OnUpdate func(flags Flags)

	mu        sync.RWMutex
	flags     Flags
	announced bool
}

func NewStatusWatcher(client StatusAPI, logger *log.Logger) *StatusWatcher {
	return &StatusWatcher{
		client:   client,
		logger:   logger,
		interval: 2 * time.Second,
	}
}

// Run polls until ctx is cancelled. It never returns an error: no
// failure inside a tick may stop the loop.
func (w *StatusWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// Snapshot returns the latest complete monitoring snapshot.
func (w *StatusWatcher) Snapshot() Flags {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.flags
}

func (w *StatusWatcher) tick(ctx context.Context) {
	warnings, err := w.client.VoiceWarnings(ctx)
	if err != nil {
		w.logger.Error("voice warnings", "error", err)
		return
	}

	status, err := w.client.InterviewStatus(ctx)
	if err != nil {
		w.logger.Error("interview status", "error", err)
		return
	}

	next := Flags{
		Warnings:         warnings.Warnings,
		MaxWarnings:      warnings.MaxWarnings,
		MalpracticeCount: warnings.MalpracticeCount,
		MaxMalpractice:   warnings.MaxMalpractice,
		InterviewStatus:  status.Status,
		CancelReason:     status.Reason,
	}

	w.mu.Lock()
	w.flags = next
	announce := next.Cancelled() && !w.announced
	if announce {
		w.announced = true
	}
	w.mu.Unlock()

	if w.OnUpdate != nil {
		w.OnUpdate(next)
	}
	if announce && w.OnCancelled != nil {
		w.OnCancelled(fmt.Sprintf("Interview cancelled: %s", next.CancelReason))
	}
}
