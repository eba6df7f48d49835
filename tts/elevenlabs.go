package tts

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/haguro/elevenlabs-go"
)

const (
	defaultVoiceID = "pKLLpypGseGMUjkb5fEZ"
	defaultModelID = "eleven_turbo_v2_5"
)

type ElevenLabsSpeechGenerator struct {
	apiKey  string
	voiceID string
	modelID string
}

func NewElevenLabsSpeechGenerator(apiKey string) *ElevenLabsSpeechGenerator {
	return &ElevenLabsSpeechGenerator{
		apiKey:  apiKey,
		voiceID: defaultVoiceID,
		modelID: defaultModelID,
	}
}

// WithVoice overrides the default voice for subsequent utterances.
func (e *ElevenLabsSpeechGenerator) WithVoice(voiceID string) *ElevenLabsSpeechGenerator {
	e.voiceID = voiceID
	return e
}

func (e *ElevenLabsSpeechGenerator) TextToSpeechStreaming(
	ctx context.Context,
	text string,
	writer io.Writer,
) error {
	client := elevenlabs.NewClient(ctx, e.apiKey, 30*time.Second)
	ttsReq := elevenlabs.TextToSpeechRequest{
		Text:    text,
		ModelID: e.modelID,
	}

	err := client.TextToSpeechStream(
		writer,
		e.voiceID,
		ttsReq,
	)
	if err != nil {
		return fmt.Errorf("failed to generate speech: %w", err)
	}
	return nil
}
