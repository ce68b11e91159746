package speech

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// GroqAPI is the subset of the Groq client used for audio
type GroqAPI interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	Speech(ctx context.Context, text, outPath string) error
}

// GroqTranscriber transcribes with the hosted Whisper endpoint
type GroqTranscriber struct {
	api GroqAPI
}

func NewGroqTranscriber(api GroqAPI) *GroqTranscriber {
	return &GroqTranscriber{api: api}
}

func (t *GroqTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	text, err := t.api.Transcribe(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("transcription is empty")
	}
	log.Printf("[Speech] Transcribed %d characters", len(text))
	return text, nil
}

// GroqSynthesizer narrates text with the hosted speech endpoint
type GroqSynthesizer struct {
	api GroqAPI
}

func NewGroqSynthesizer(api GroqAPI) *GroqSynthesizer {
	return &GroqSynthesizer{api: api}
}

func (s *GroqSynthesizer) Synthesize(ctx context.Context, text, outPath string) error {
	if err := s.api.Speech(ctx, text, outPath); err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}
	return nil
}
