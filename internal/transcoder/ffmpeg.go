package transcoder

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rebuttal/api/internal/caption"
	"github.com/rebuttal/api/pkg/executor"
)

// FFmpeg implements Transcoder by shelling out to ffmpeg and ffprobe
type FFmpeg struct {
	exec        executor.Executor
	ffmpegPath  string
	ffprobePath string
	style       caption.Style
}

// NewFFmpeg creates an ffmpeg backed transcoder
func NewFFmpeg(exec executor.Executor, ffmpegPath, ffprobePath, fontFile string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	style := caption.DefaultStyle
	style.FontFile = fontFile

	return &FFmpeg{
		exec:        exec,
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		style:       style,
	}
}

// ExtractAudio extracts audio from video file and converts to 16kHz mono WAV
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	args := []string{
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		audioPath,
	}

	if _, err := f.exec.Execute(ctx, f.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w", err)
	}
	return nil
}

// RenderCaptions draws each cue over a black canvas
func (f *FFmpeg) RenderCaptions(ctx context.Context, cues []caption.Cue, outPath string) error {
	filter, err := caption.Filter(cues, f.style)
	if err != nil {
		return err
	}
	duration := caption.Seconds(caption.TotalDuration(len(cues)))

	args := []string{
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s", caption.Width, caption.Height, caption.FrameRate, duration),
		"-vf", filter,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(caption.FrameRate),
		"-t", duration,
		"-y",
		outPath,
	}

	if _, err := f.exec.Execute(ctx, f.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg render captions: %w", err)
	}
	return nil
}

// Mux combines the caption video with the narration track
func (f *FFmpeg) Mux(ctx context.Context, videoPath, audioPath, outPath string) error {
	args := []string{
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		"-y",
		outPath,
	}

	if _, err := f.exec.Execute(ctx, f.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg mux: %w", err)
	}
	return nil
}

// GenerateSilence renders a silent stereo track
func (f *FFmpeg) GenerateSilence(ctx context.Context, outPath string, d time.Duration) error {
	args := []string{
		"-f", "lavfi",
		"-i", "anullsrc=r=44100:cl=stereo",
		"-t", caption.Seconds(d),
		"-c:a", "pcm_s16le",
		"-y",
		outPath,
	}

	if _, err := f.exec.Execute(ctx, f.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg generate silence: %w", err)
	}
	return nil
}

// Duration reads the container duration with ffprobe
func (f *FFmpeg) Duration(ctx context.Context, path string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	out, err := f.exec.Execute(ctx, f.ffprobePath, args...)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", strings.TrimSpace(out), err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
