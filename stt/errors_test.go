package stt

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"Nil", nil, KindOther},
		{"NoSpeech", errors.New("session ended: no-speech"), KindNoSpeech},
		{"NoSpeechSpaced", errors.New("no speech detected"), KindNoSpeech},
		{"AudioCapture", errors.New("no audio device found"), KindAudioCapture},
		{"Microphone", errors.New("microphone disconnected"), KindAudioCapture},
		{"NotAllowed", errors.New("permission denied"), KindNotAllowed},
		{"Unauthorized", errors.New("401 unauthorized"), KindNotAllowed},
		{"Websocket", errors.New("websocket: close 1006"), KindNetwork},
		{"ConnRefused", errors.New("dial tcp: connection refused"), KindNetwork},
		{"Deadline", context.DeadlineExceeded, KindNetwork},
		{"Other", errors.New("something else entirely"), KindOther},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Errorf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestKindOfPrefersWrappedKind(t *testing.T) {
	// The embedded kind wins over what string matching would say.
	err := fmt.Errorf("listen: %w", &RecognitionError{
		Kind: KindNoSpeech,
		Err:  errors.New("websocket: close 1000"),
	})

	if got := KindOf(err); got != KindNoSpeech {
		t.Errorf("KindOf = %v, want %v", got, KindNoSpeech)
	}
}

func TestKindOfClassifiesPlainErrors(t *testing.T) {
	if got := KindOf(errors.New("connection reset by peer")); got != KindNetwork {
		t.Errorf("KindOf = %v, want %v", got, KindNetwork)
	}
}

func TestMessages(t *testing.T) {
	for _, kind := range []ErrorKind{
		KindOther, KindNoSpeech, KindAudioCapture, KindNotAllowed, KindNetwork,
	} {
		if kind.Message() == "" {
			t.Errorf("kind %v has no user-facing message", kind)
		}
	}
}
