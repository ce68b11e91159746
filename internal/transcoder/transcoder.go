// Package transcoder wraps the external audio/video tool behind a small
// capability interface so the pipeline can run against ffmpeg in production
// and an in-memory fake in tests.
package transcoder

import (
	"context"
	"time"

	"github.com/rebuttal/api/internal/caption"
)

// Transcoder defines the media operations the pipeline needs
type Transcoder interface {
	// ExtractAudio writes a mono 16kHz 16-bit PCM WAV track of videoPath to audioPath.
	ExtractAudio(ctx context.Context, videoPath, audioPath string) error
	// RenderCaptions writes a silent caption video exactly caption.TotalDuration(len(cues)) long.
	RenderCaptions(ctx context.Context, cues []caption.Cue, outPath string) error
	// Mux copies the video stream of videoPath, re-encodes audioPath to AAC and
	// stops at the shorter of the two.
	Mux(ctx context.Context, videoPath, audioPath, outPath string) error
	// GenerateSilence writes a silent stereo track of length d.
	GenerateSilence(ctx context.Context, outPath string, d time.Duration) error
	// Duration probes the container duration of path.
	Duration(ctx context.Context, path string) (time.Duration, error)
}
