package transcoder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rebuttal/api/internal/caption"
	"github.com/rebuttal/api/pkg/executor"
)

// recordingExecutor captures invocations instead of running them.
type recordingExecutor struct {
	name   string
	args   []string
	stdout string
	err    error
}

func (r *recordingExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	r.name = name
	r.args = args
	return r.stdout, r.err
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestFFmpeg_ExtractAudio(t *testing.T) {
	rec := &recordingExecutor{}
	ff := NewFFmpeg(rec, "", "", "")

	if err := ff.ExtractAudio(context.Background(), "/tmp/abc_input.mp4", "/tmp/abc_audio.wav"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.name != "ffmpeg" {
		t.Errorf("expected ffmpeg, got %s", rec.name)
	}
	if argValue(rec.args, "-ar") != "16000" || argValue(rec.args, "-ac") != "1" || argValue(rec.args, "-acodec") != "pcm_s16le" {
		t.Errorf("unexpected audio args: %v", rec.args)
	}
	if rec.args[len(rec.args)-1] != "/tmp/abc_audio.wav" {
		t.Errorf("output path should be last: %v", rec.args)
	}
}

func TestFFmpeg_RenderCaptions(t *testing.T) {
	rec := &recordingExecutor{}
	ff := NewFFmpeg(rec, "/usr/bin/ffmpeg", "", "")

	cues := caption.BuildCues([]string{"First", "Second"})
	if err := ff.RenderCaptions(context.Background(), cues, "/tmp/abc_captions.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.name != "/usr/bin/ffmpeg" {
		t.Errorf("configured binary not used: %s", rec.name)
	}
	if got := argValue(rec.args, "-t"); got != "6" {
		t.Errorf("expected duration 6, got %s", got)
	}
	if got := argValue(rec.args, "-i"); got != "color=c=black:s=1280x720:r=30:d=6" {
		t.Errorf("unexpected canvas: %s", got)
	}
	if !strings.Contains(argValue(rec.args, "-vf"), "between(t,3,5.5)") {
		t.Errorf("filter missing second cue window: %s", argValue(rec.args, "-vf"))
	}
}

func TestFFmpeg_RenderCaptions_NoCues(t *testing.T) {
	rec := &recordingExecutor{}
	ff := NewFFmpeg(rec, "", "", "")

	err := ff.RenderCaptions(context.Background(), nil, "/tmp/x.mp4")
	if !errors.Is(err, caption.ErrNoSentences) {
		t.Fatalf("expected ErrNoSentences, got %v", err)
	}
	if rec.name != "" {
		t.Error("ffmpeg must not be invoked for an empty caption track")
	}
}

func TestFFmpeg_Mux(t *testing.T) {
	rec := &recordingExecutor{}
	ff := NewFFmpeg(rec, "", "", "")

	if err := ff.Mux(context.Background(), "v.mp4", "a.wav", "out.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	joined := strings.Join(rec.args, " ")
	for _, want := range []string{"-c:v copy", "-c:a aac", "-shortest"} {
		if !strings.Contains(joined, want) {
			t.Errorf("mux args missing %q: %s", want, joined)
		}
	}
}

func TestFFmpeg_FailureKeepsDiagnostic(t *testing.T) {
	rec := &recordingExecutor{err: &executor.ExitError{Name: "ffmpeg", ExitCode: 1, Stderr: "moov atom not found", Err: errors.New("exit status 1")}}
	ff := NewFFmpeg(rec, "", "", "")

	err := ff.ExtractAudio(context.Background(), "in.mp4", "out.wav")
	var exitErr *executor.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected wrapped *executor.ExitError, got %v", err)
	}
	if exitErr.Stderr != "moov atom not found" {
		t.Errorf("unexpected stderr: %s", exitErr.Stderr)
	}
}

func TestFFmpeg_Duration(t *testing.T) {
	rec := &recordingExecutor{stdout: "6.016000\n"}
	ff := NewFFmpeg(rec, "", "", "")

	d, err := ff.Duration(context.Background(), "out.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.name != "ffprobe" {
		t.Errorf("expected ffprobe, got %s", rec.name)
	}
	if d != 6016*time.Millisecond {
		t.Errorf("expected 6.016s, got %v", d)
	}
}

func TestFFmpeg_GenerateSilence(t *testing.T) {
	rec := &recordingExecutor{}
	ff := NewFFmpeg(rec, "", "", "")

	if err := ff.GenerateSilence(context.Background(), "s.wav", 10*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if argValue(rec.args, "-i") != "anullsrc=r=44100:cl=stereo" || argValue(rec.args, "-t") != "10" {
		t.Errorf("unexpected silence args: %v", rec.args)
	}
}
