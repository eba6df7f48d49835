package stt

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"hirevox/etc"
)

const (
	pingInterval = 30 * time.Second
	pongTimeout  = 60 * time.Second
)

// RealtimeEngine runs recognition sessions against a realtime ASR
// websocket endpoint: one StartRecognition message, binary audio frames,
// JSON transcript messages back, EndOfStream to finish.
type RealtimeEngine struct {
	URL      string
	APIKey   string
	Language string

	logger *log.Logger
}

func NewRealtimeEngine(
	url, apiKey string,
	logger *log.Logger,
) *RealtimeEngine {
	return &RealtimeEngine{
		URL:      url,
		APIKey:   apiKey,
		Language: "en-US",
		logger:   logger,
	}
}

type startRecognitionMessage struct {
	Message   string            `json:"message"`
	SessionID string            `json:"session_id"`
	Config    recognitionConfig `json:"recognition_config"`
}

type recognitionConfig struct {
	Language       string `json:"language"`
	EnablePartials bool   `json:"enable_partials"`
	Punctuate      bool   `json:"punctuate"`
}

type endOfStreamMessage struct {
	Message string `json:"message"`
}

type transcriptMessage struct {
	Message    string  `json:"message"`
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

func (e *RealtimeEngine) Start(ctx context.Context) (Recognizer, error) {
	dialer := websocket.DefaultDialer
	header := http.Header{}
	header.Set("Authorization", fmt.Sprintf("Bearer %s", e.APIKey))

	conn, _, err := dialer.DialContext(ctx, e.URL, header)
	if err != nil {
		return nil, &RecognitionError{
			Kind: Classify(err),
			Err:  fmt.Errorf("failed to connect to recognition service: %w", err),
		}
	}

	session := &realtimeSession{
		conn:    conn,
		results: make(chan Result, 16),
		done:    make(chan struct{}),
		logger:  e.logger,
	}

	startMsg := startRecognitionMessage{
		Message:   "StartRecognition",
		SessionID: etc.NewFreshID(),
		Config: recognitionConfig{
			Language:       e.Language,
			EnablePartials: true,
			Punctuate:      true,
		},
	}
	if err := conn.WriteJSON(startMsg); err != nil {
		conn.Close()
		return nil, &RecognitionError{
			Kind: Classify(err),
			Err:  fmt.Errorf("failed to send StartRecognition: %w", err),
		}
	}

	go session.readLoop()
	go session.keepAlive(ctx)

	return session, nil
}

type realtimeSession struct {
	conn    *websocket.Conn
	results chan Result
	done    chan struct{}
	logger  *log.Logger

	mu      sync.Mutex
	stopped bool
	err     error
}

func (s *realtimeSession) SendAudio(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("recognition session already stopped")
	}

	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("failed to send audio data: %w", err)
	}
	return nil
}

func (s *realtimeSession) Results() <-chan Result {
	return s.results
}

func (s *realtimeSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop is cooperative: it asks the service to flush and close, and the
// read loop keeps delivering whatever final results are still in flight.
func (s *realtimeSession) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true

	err := s.conn.WriteJSON(endOfStreamMessage{Message: "EndOfStream"})
	s.mu.Unlock()

	if err != nil {
		// The service will never acknowledge; tear down the transport so
		// the read loop terminates and the accumulated transcript flows.
		s.conn.Close()
		return fmt.Errorf("failed to send EndOfStream: %w", err)
	}
	return nil
}

func (s *realtimeSession) readLoop() {
	defer close(s.results)
	defer close(s.done)
	defer s.conn.Close()

	for {
		var msg transcriptMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			s.mu.Lock()
			stopped := s.stopped
			if !stopped {
				s.err = &RecognitionError{
					Kind: Classify(err),
					Err:  err,
				}
			}
			s.mu.Unlock()
			return
		}

		switch msg.Message {
		case "AddPartialTranscript":
			text := strings.TrimSpace(msg.Transcript)
			if text == "" {
				continue
			}
			s.deliver(Result{Text: text, Confidence: msg.Confidence})
		case "AddTranscript":
			text := strings.TrimSpace(msg.Transcript)
			if text == "" {
				continue
			}
			s.logger.Info("hear", "txt", text, "confidence", msg.Confidence)
			s.deliver(Result{
				Text:       text,
				Final:      true,
				Confidence: msg.Confidence,
			})
		case "EndOfTranscript":
			return
		case "Error":
			s.mu.Lock()
			s.err = &RecognitionError{
				Kind: classifyReason(msg.Reason),
				Err:  fmt.Errorf("recognition service error: %s", msg.Reason),
			}
			s.mu.Unlock()
			return
		default:
			s.logger.Debug("unhandled message", "type", msg.Message)
		}
	}
}

// deliver hands a segment to the consumer. Final results are part of
// the committed transcript and must all arrive in order, so they block
// until the consumer keeps up; partials are advisory and may be shed
// when the buffer is full.
func (s *realtimeSession) deliver(result Result) {
	if result.Final {
		s.results <- result
		return
	}
	select {
	case s.results <- result:
	default:
		s.logger.Debug("result buffer full, dropping partial", "txt", result.Text)
	}
}

func (s *realtimeSession) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(pongTimeout)
			s.mu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, []byte{}, deadline)
			s.mu.Unlock()
			if err != nil {
				s.logger.Error("failed to send ping", "error", err)
				return
			}
		}
	}
}

// classifyReason maps the service's error reason strings onto the closed
// ErrorKind enumeration.
func classifyReason(reason string) ErrorKind {
	switch strings.ToLower(reason) {
	case "no_speech", "no-speech":
		return KindNoSpeech
	case "audio_capture", "no_audio_device":
		return KindAudioCapture
	case "not_authorised", "not_allowed", "quota_exceeded":
		return KindNotAllowed
	case "timeout", "connection_lost":
		return KindNetwork
	default:
		return KindOther
	}
}
