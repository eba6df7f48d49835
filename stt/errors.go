package stt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind is the closed classification of recognition faults. The
// engine's native error reporting is mapped onto it at this boundary;
// nothing upstream ever inspects engine-specific error strings.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindNoSpeech
	KindAudioCapture
	KindNotAllowed
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoSpeech:
		return "no-speech"
	case KindAudioCapture:
		return "audio-capture"
	case KindNotAllowed:
		return "not-allowed"
	case KindNetwork:
		return "network"
	default:
		return "other"
	}
}

// Message returns the user-facing description for a recognition fault.
func (k ErrorKind) Message() string {
	switch k {
	case KindNoSpeech:
		return "No speech detected. Please try again."
	case KindAudioCapture:
		return "Microphone not found. Please check your microphone."
	case KindNotAllowed:
		return "Microphone access denied. Please allow microphone access."
	case KindNetwork:
		return "Network error. Please check your internet connection."
	default:
		return "Speech recognition error."
	}
}

type RecognitionError struct {
	Kind ErrorKind
	Err  error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition error (%s): %v", e.Kind, e.Err)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// KindOf extracts the classification from err, classifying on the fly
// when err did not originate as a RecognitionError.
func KindOf(err error) ErrorKind {
	var re *RecognitionError
	if errors.As(err, &re) {
		return re.Kind
	}
	return Classify(err)
}

// Classify maps an engine error onto the closed ErrorKind enumeration.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindOther
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no-speech"),
		strings.Contains(msg, "no speech"):
		return KindNoSpeech
	case strings.Contains(msg, "audio-capture"),
		strings.Contains(msg, "no audio device"),
		strings.Contains(msg, "microphone"):
		return KindAudioCapture
	case strings.Contains(msg, "not-allowed"),
		strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "forbidden"):
		return KindNotAllowed
	case strings.Contains(msg, "websocket"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "network"):
		return KindNetwork
	default:
		return KindOther
	}
}
