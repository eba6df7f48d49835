package vox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"hirevox/stt"
	"hirevox/tts"
)

const (
	// settleDelay lets a synthesis cancellation take effect before the
	// replacement utterance starts. Starting earlier produces overlapping
	// audio in the underlying engine.
	settleDelay = 200 * time.Millisecond

	// defaultListenTimeout is the hard wall-clock limit on one recognition
	// session, counted from session start regardless of speech activity.
	defaultListenTimeout = 60 * time.Second
)

var ErrEmptyText = errors.New("empty text")
var ErrUnavailable = errors.New("speech channel unavailable")

// Channel wraps one voice-synthesis path and one voice-recognition path.
// At most one synthesis and one recognition session exist at a time, and
// never simultaneously: Speak fully completes before Listen is issued.
type Channel struct {
	generator tts.SpeechGenerator
	engine    stt.Engine
	sink      io.Writer
	logger    *log.Logger

	// ListenTimeout overrides the 60-second session limit; tests shorten it.
	ListenTimeout time.Duration

	mu          sync.Mutex
	cancelSpeak context.CancelFunc
	speakGen    int
	active      stt.Recognizer
}

func New(
	generator tts.SpeechGenerator,
	engine stt.Engine,
	sink io.Writer,
	logger *log.Logger,
) *Channel {
	return &Channel{
		generator: generator,
		engine:    engine,
		sink:      sink,
		logger:    logger,
	}
}

// Supported reports whether recognition sessions can be started at all.
func (c *Channel) Supported() bool {
	return c.engine != nil
}

// Speak synthesizes text and returns when the utterance has fully
// completed or failed. Blank text fails fast with ErrEmptyText, never
// stalling the caller. Any in-flight synthesis is cancelled first and
// given the settle delay before the new utterance begins.
func (c *Channel) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	c.mu.Lock()
	cancel := c.cancelSpeak
	c.cancelSpeak = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-time.After(settleDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if c.generator == nil {
		// No synthesis engine configured; the question is still presented
		// through the display path, so completion is immediate.
		return nil
	}

	speakCtx, cancelThis := context.WithCancel(ctx)
	c.mu.Lock()
	c.speakGen++
	gen := c.speakGen
	c.cancelSpeak = cancelThis
	c.mu.Unlock()
	defer func() {
		cancelThis()
		c.mu.Lock()
		// A later Speak may already own the slot.
		if c.speakGen == gen {
			c.cancelSpeak = nil
		}
		c.mu.Unlock()
	}()

	if err := c.generator.TextToSpeechStreaming(speakCtx, text, c.sink); err != nil {
		return fmt.Errorf("speech synthesis: %w", err)
	}
	return nil
}

// Listen runs one recognition session and returns the committed
// transcript: final results concatenated in arrival order. Interim
// results go to onInterim for display only. The session is force-stopped
// at the hard timeout even if Stop is never called. Stop is cooperative,
// so the transcript accumulated before it still comes back, possibly
// alongside a session error.
func (c *Channel) Listen(
	ctx context.Context,
	onInterim func(text string),
) (string, error) {
	if c.engine == nil {
		return "", ErrUnavailable
	}

	timeout := c.ListenTimeout
	if timeout <= 0 {
		timeout = defaultListenTimeout
	}

	recognizer, err := c.engine.Start(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.active = recognizer
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.active = nil
		c.mu.Unlock()
	}()

	finished := make(chan struct{})
	defer close(finished)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	go func() {
		select {
		case <-timer.C:
			c.logger.Info("listen timeout, force-stopping recognition")
			if err := recognizer.Stop(); err != nil {
				c.logger.Error("stop recognition", "error", err)
			}
		case <-ctx.Done():
			recognizer.Stop()
		case <-finished:
		}
	}()

	var parts []string
	for result := range recognizer.Results() {
		if !result.Final {
			if onInterim != nil {
				onInterim(result.Text)
			}
			continue
		}
		parts = append(parts, result.Text)
	}

	transcript := strings.Join(parts, " ")
	if err := recognizer.Err(); err != nil {
		return transcript, err
	}
	return transcript, nil
}

// Stop requests termination of the active recognition session, if any.
// The session still delivers its accumulated transcript through Listen.
func (c *Channel) Stop() {
	c.mu.Lock()
	recognizer := c.active
	c.mu.Unlock()

	if recognizer != nil {
		if err := recognizer.Stop(); err != nil {
			c.logger.Error("stop recognition", "error", err)
		}
	}
}
