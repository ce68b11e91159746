// Package speech holds the audio-to-text and text-to-audio backends used by
// the debate pipeline.
package speech

import (
	"context"
	"fmt"
	"time"

	"github.com/rebuttal/api/internal/transcoder"
)

// PlaceholderText is returned by PlaceholderTranscriber.
const PlaceholderText = "This is a placeholder transcription of the debate argument."

// Transcriber turns an audio file into text
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Synthesizer renders text to an audio file at outPath
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) error
}

// PlaceholderTranscriber ignores the audio and returns a fixed string.
type PlaceholderTranscriber struct {
	Text string
}

func (p PlaceholderTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if p.Text != "" {
		return p.Text, nil
	}
	return PlaceholderText, nil
}

// SilentSynthesizer produces a silent track of fixed length regardless of text.
type SilentSynthesizer struct {
	tc       transcoder.Transcoder
	duration time.Duration
}

// NewSilentSynthesizer creates a synthesizer emitting d of silence
func NewSilentSynthesizer(tc transcoder.Transcoder, d time.Duration) *SilentSynthesizer {
	if d <= 0 {
		d = 10 * time.Second
	}
	return &SilentSynthesizer{tc: tc, duration: d}
}

func (s *SilentSynthesizer) Synthesize(ctx context.Context, text, outPath string) error {
	if err := s.tc.GenerateSilence(ctx, outPath, s.duration); err != nil {
		return fmt.Errorf("failed to generate silence: %w", err)
	}
	return nil
}
