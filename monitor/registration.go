package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"hirevox/api"
)

var ErrWatchInProgress = errors.New("registration watch already in progress")

// RegistrationOutcome is the terminal report of one registration attempt.
type RegistrationOutcome struct {
	Success bool
	Message string
}

type RegistrationAPI interface {
	RegistrationStatus(ctx context.Context) (api.RegistrationStatus, error)
}

// RegistrationWatcher polls the registration-status endpoint until the
// attempt reaches a terminal state. At most one poll is outstanding at a
// time, and at most one watch runs per attempt.
type RegistrationWatcher struct {
	client   RegistrationAPI
	logger   *log.Logger
	interval time.Duration

	mu     chan struct{}
	active bool
}

func NewRegistrationWatcher(
	client RegistrationAPI,
	logger *log.Logger,
) *RegistrationWatcher {
	return &RegistrationWatcher{
		client:   client,
		logger:   logger,
		interval: time.Second,
		mu:       make(chan struct{}, 1),
	}
}

// Watch blocks until the registration attempt completes, fails, or ctx
// is cancelled. Poll errors are logged and polling continues; only a
// terminal status or cancellation ends the loop.
func (w *RegistrationWatcher) Watch(
	ctx context.Context,
) (RegistrationOutcome, error) {
	select {
	case w.mu <- struct{}{}:
	default:
		return RegistrationOutcome{}, ErrWatchInProgress
	}
	defer func() { <-w.mu }()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return RegistrationOutcome{}, ctx.Err()
		case <-ticker.C:
			status, err := w.client.RegistrationStatus(ctx)
			if err != nil {
				w.logger.Error("registration status", "error", err)
				continue
			}

			w.logger.Info("registration", "status", status.Status)
			switch status.Status {
			case "completed":
				if status.Success {
					return RegistrationOutcome{
						Success: true,
						Message: "Voice registered successfully",
					}, nil
				}
				return RegistrationOutcome{
					Message: "Voice registration failed",
				}, nil
			case "failed", "error":
				return RegistrationOutcome{Message: status.Error}, nil
			}
		}
	}
}
