package transcoder

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rebuttal/api/internal/caption"
	"github.com/rebuttal/api/pkg/executor"
)

// Media describes what the fake believes a file contains.
type Media struct {
	Duration time.Duration
	HasVideo bool
	HasAudio bool
	Cues     []caption.Cue
}

// Fake is an in-memory Transcoder. It writes a small placeholder file for every
// output so downstream stages can open it, and records the media it "produced".
type Fake struct {
	// InputDuration is assumed for input videos the fake has not produced.
	InputDuration time.Duration
	// Failures maps an operation name (extract, captions, mux, silence, probe)
	// to the error it should return.
	Failures map[string]error

	mu    sync.Mutex
	media map[string]Media
	calls []string
}

// NewFake creates a fake transcoder
func NewFake() *Fake {
	return &Fake{
		InputDuration: 30 * time.Second,
		Failures:      make(map[string]error),
		media:         make(map[string]Media),
	}
}

// FailWith makes op fail with a tool-style error carrying stderr.
func (f *Fake) FailWith(op, stderr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Failures[op] = &executor.ExitError{Name: "ffmpeg", ExitCode: 1, Stderr: stderr, Err: fmt.Errorf("exit status 1")}
}

// Media returns what the fake recorded for path.
func (f *Fake) Media(path string) (Media, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.media[path]
	return m, ok
}

// Calls returns the operations invoked so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	if err := f.begin("extract"); err != nil {
		return err
	}
	if _, err := os.Stat(videoPath); err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w", err)
	}

	in, ok := f.Media(videoPath)
	if !ok {
		in = Media{Duration: f.InputDuration, HasVideo: true, HasAudio: true}
	}
	return f.produce(audioPath, Media{Duration: in.Duration, HasAudio: true})
}

func (f *Fake) RenderCaptions(ctx context.Context, cues []caption.Cue, outPath string) error {
	if err := f.begin("captions"); err != nil {
		return err
	}
	if len(cues) == 0 {
		return caption.ErrNoSentences
	}
	return f.produce(outPath, Media{
		Duration: caption.TotalDuration(len(cues)),
		HasVideo: true,
		Cues:     append([]caption.Cue(nil), cues...),
	})
}

func (f *Fake) Mux(ctx context.Context, videoPath, audioPath, outPath string) error {
	if err := f.begin("mux"); err != nil {
		return err
	}
	video, ok := f.Media(videoPath)
	if !ok || !video.HasVideo {
		return fmt.Errorf("ffmpeg mux: no video stream in %s", videoPath)
	}
	audio, ok := f.Media(audioPath)
	if !ok || !audio.HasAudio {
		return fmt.Errorf("ffmpeg mux: no audio stream in %s", audioPath)
	}

	d := video.Duration
	if audio.Duration < d {
		d = audio.Duration
	}
	return f.produce(outPath, Media{Duration: d, HasVideo: true, HasAudio: true, Cues: video.Cues})
}

func (f *Fake) GenerateSilence(ctx context.Context, outPath string, d time.Duration) error {
	if err := f.begin("silence"); err != nil {
		return err
	}
	return f.produce(outPath, Media{Duration: d, HasAudio: true})
}

func (f *Fake) Duration(ctx context.Context, path string) (time.Duration, error) {
	if err := f.begin("probe"); err != nil {
		return 0, err
	}
	m, ok := f.Media(path)
	if !ok {
		return 0, fmt.Errorf("ffprobe duration: unknown file %s", path)
	}
	return m.Duration, nil
}

// Register tells the fake what an externally created file contains.
func (f *Fake) Register(path string, m Media) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.media[path] = m
}

func (f *Fake) begin(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	return f.Failures[op]
}

func (f *Fake) produce(path string, m Media) error {
	if err := os.WriteFile(path, []byte("fake media"), 0644); err != nil {
		return err
	}
	f.Register(path, m)
	return nil
}
