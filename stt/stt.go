package stt

import (
	"context"
)

// Result is one recognition segment. Non-final results are advisory and
// may be revised; final results will not change and are safe to commit.
type Result struct {
	Text       string
	Final      bool
	Confidence float64
}

// Recognizer is one live recognition session. Results is closed when the
// session terminates; Err reports the session fault, if any, after that.
type Recognizer interface {
	SendAudio(data []byte) error
	Results() <-chan Result
	Stop() error
	Err() error
}

type Engine interface {
	Start(ctx context.Context) (Recognizer, error)
}
