package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rebuttal/api/internal/caption"
	"github.com/rebuttal/api/internal/client"
	"github.com/rebuttal/api/internal/model"
	"github.com/rebuttal/api/internal/notify"
	"github.com/rebuttal/api/internal/speech"
	"github.com/rebuttal/api/internal/transcoder"
)

// Pipeline stages, in order
const (
	StageFetch      = "fetch"
	StageExtract    = "extract"
	StageTranscribe = "transcribe"
	StageGenerate   = "generate"
	StageSynthesize = "synthesize"
	StageCaptions   = "captions"
	StageMux        = "mux"
	StagePublish    = "publish"
	StageDone       = "done"
)

var stageProgress = map[string]int{
	StageFetch:      5,
	StageExtract:    15,
	StageTranscribe: 30,
	StageGenerate:   45,
	StageSynthesize: 60,
	StageCaptions:   70,
	StageMux:        80,
	StagePublish:    90,
	StageDone:       100,
}

// Fetcher copies a remote video into a local file
type Fetcher interface {
	Fetch(ctx context.Context, src, dst string) error
}

// ProgressReporter receives stage updates for a job
type ProgressReporter interface {
	Progress(jobID string, percent int, stage string)
	Complete(jobID, finalVideoURL string)
	Fail(jobID string, kind Kind, message string)
}

// Deps are the collaborators of a DebateService. Progress and Tracker are
// optional.
type Deps struct {
	WorkDir       string
	MaxConcurrent int

	Fetcher     Fetcher
	Transcoder  transcoder.Transcoder
	Transcriber speech.Transcriber
	Generator   client.TextGenerator
	Synthesizer speech.Synthesizer
	Store       client.ObjectStore
	Notifier    notify.Notifier
	Tracker     ArtifactTracker
	Progress    ProgressReporter
}

// DebateService runs the debate response pipeline
type DebateService struct {
	workDir     string
	fetcher     Fetcher
	transcoder  transcoder.Transcoder
	transcriber speech.Transcriber
	generator   client.TextGenerator
	synthesizer speech.Synthesizer
	publisher   *Publisher
	notifier    notify.Notifier
	tracker     ArtifactTracker
	progress    ProgressReporter
	sem         *semaphore
}

func NewDebateService(d Deps) *DebateService {
	s := &DebateService{
		workDir:     d.WorkDir,
		fetcher:     d.Fetcher,
		transcoder:  d.Transcoder,
		transcriber: d.Transcriber,
		generator:   d.Generator,
		synthesizer: d.Synthesizer,
		publisher:   NewPublisher(d.Store),
		notifier:    d.Notifier,
		tracker:     d.Tracker,
		progress:    d.Progress,
	}
	if s.workDir == "" {
		s.workDir = os.TempDir()
	}
	if s.notifier == nil {
		s.notifier = notify.LogNotifier{}
	}
	if s.tracker == nil {
		s.tracker = NewMemoryTracker()
	}
	if d.MaxConcurrent > 0 {
		s.sem = newSemaphore(d.MaxConcurrent)
	}
	return s
}

// ArtifactPath returns the temp path for a job's stage output
func (s *DebateService) ArtifactPath(jobID, stage, ext string) string {
	return filepath.Join(s.workDir, fmt.Sprintf("%s_%s%s", jobID, stage, ext))
}

// ProcessVideo runs every stage for job and blocks until it finishes.
// Failures are returned as *StageError.
func (s *DebateService) ProcessVideo(ctx context.Context, job *model.Job) (*model.JobResult, error) {
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now()
	}

	if s.sem != nil {
		if err := s.sem.acquire(ctx); err != nil {
			return nil, fmt.Errorf("failed waiting for a pipeline slot: %w", err)
		}
		defer s.sem.release()
	}

	r := &run{
		svc:   s,
		job:   job,
		runID: uuid.NewString()[:8],
		live:  make(map[string]bool),
	}
	defer r.cleanup()

	log.Printf("[Pipeline] job=%s run=%s started", job.ID, r.runID)
	if err := s.tracker.Begin(ctx, job.ID); err != nil {
		log.Printf("[Pipeline] job=%s run=%s failed to stamp start: %v", job.ID, r.runID, err)
	}

	result, err := r.execute(ctx)
	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			log.Printf("[Pipeline] job=%s run=%s failed at %s (%s): %v", job.ID, r.runID, se.Stage, se.Kind, se.Err)
			s.reportFail(job.ID, se.Kind, se.Message)
		} else {
			log.Printf("[Pipeline] job=%s run=%s failed: %v", job.ID, r.runID, err)
		}
		return nil, err
	}

	log.Printf("[Pipeline] job=%s run=%s done in %s: %s", job.ID, r.runID, result.ProcessingTime, result.FinalVideoURL)
	s.reportProgress(job.ID, StageDone)
	if s.progress != nil {
		s.progress.Complete(job.ID, result.FinalVideoURL)
	}
	return result, nil
}

func (s *DebateService) reportProgress(jobID, stage string) {
	if s.progress != nil {
		s.progress.Progress(jobID, stageProgress[stage], stage)
	}
}

func (s *DebateService) reportFail(jobID string, kind Kind, message string) {
	if s.progress != nil {
		s.progress.Fail(jobID, kind, message)
	}
}

// run is the state of one ProcessVideo call
type run struct {
	svc   *DebateService
	job   *model.Job
	runID string
	live  map[string]bool
}

func (r *run) execute(ctx context.Context) (*model.JobResult, error) {
	s := r.svc
	job := r.job

	// 1. Fetch
	s.reportProgress(job.ID, StageFetch)
	inputPath := r.artifact(ctx, "input", inputExt(job))
	if err := r.fetch(ctx, inputPath); err != nil {
		return nil, stageErr(FetchFailure, StageFetch, "Failed to fetch input video", err)
	}

	// 2. Extract audio
	s.reportProgress(job.ID, StageExtract)
	audioPath := r.artifact(ctx, "audio", ".wav")
	if err := s.transcoder.ExtractAudio(ctx, inputPath, audioPath); err != nil {
		return nil, stageErr(TranscodeFailure, StageExtract, "Failed to extract audio", err)
	}
	r.remove(ctx, inputPath)

	// 3. Transcribe
	s.reportProgress(job.ID, StageTranscribe)
	transcript, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, stageErr(TranscriptionFailure, StageTranscribe, "Failed to transcribe audio", err)
	}
	r.remove(ctx, audioPath)

	// 4. Generate
	s.reportProgress(job.ID, StageGenerate)
	response, err := s.generator.Generate(ctx, BuildPrompt(transcript, job.Topic))
	if err != nil {
		return nil, stageErr(GenerationFailure, StageGenerate, "Failed to generate AI response", err)
	}
	response = strings.TrimSpace(response)
	sentences := caption.SplitSentences(response)
	if len(sentences) == 0 {
		return nil, stageErr(GenerationFailure, StageGenerate, "generated response contains no sentences", caption.ErrNoSentences)
	}

	// 5. Synthesize
	s.reportProgress(job.ID, StageSynthesize)
	speechPath := r.artifact(ctx, "speech", ".wav")
	if err := s.synthesizer.Synthesize(ctx, response, speechPath); err != nil {
		return nil, stageErr(SynthesisFailure, StageSynthesize, "Failed to synthesize speech", err)
	}

	// 6. Captions
	s.reportProgress(job.ID, StageCaptions)
	captionsPath := r.artifact(ctx, "captions", ".mp4")
	if err := s.transcoder.RenderCaptions(ctx, caption.BuildCues(sentences), captionsPath); err != nil {
		if errors.Is(err, caption.ErrNoSentences) {
			return nil, stageErr(GenerationFailure, StageCaptions, "generated response contains no sentences", err)
		}
		return nil, stageErr(TranscodeFailure, StageCaptions, "Failed to render captions", err)
	}

	// 7. Mux
	s.reportProgress(job.ID, StageMux)
	finalPath := r.artifact(ctx, "final", ".mp4")
	if err := s.transcoder.Mux(ctx, captionsPath, speechPath, finalPath); err != nil {
		return nil, stageErr(TranscodeFailure, StageMux, "Failed to combine captions and audio", err)
	}
	r.remove(ctx, captionsPath)
	r.remove(ctx, speechPath)

	outputDuration, err := s.transcoder.Duration(ctx, finalPath)
	if err != nil {
		log.Printf("[Pipeline] job=%s run=%s could not probe output duration: %v", job.ID, r.runID, err)
		outputDuration = 0
	}

	// 8. Publish
	s.reportProgress(job.ID, StagePublish)
	finalURL, err := s.publisher.Publish(ctx, finalPath, job.ID, job.UserEmail)
	if err != nil {
		return nil, stageErr(PublishFailure, StagePublish, "Failed to upload response video", err)
	}
	r.remove(ctx, finalPath)

	// 9. Notify, never fatal
	if err := s.notifier.Notify(ctx, job.UserEmail, finalURL, job.FileName); err != nil {
		log.Printf("[Pipeline] job=%s run=%s %v", job.ID, r.runID,
			stageErr(NotificationFailure, "notify", "Failed to notify requester", err))
	}

	return &model.JobResult{
		FinalVideoURL:  finalURL,
		Transcription:  transcript,
		AIResponse:     response,
		ProcessingTime: time.Since(job.StartedAt),
		OutputDuration: outputDuration,
	}, nil
}

func (r *run) fetch(ctx context.Context, dst string) error {
	if r.job.Video != nil {
		return client.WriteFile(dst, r.job.Video, 0)
	}
	if r.svc.fetcher == nil {
		return fmt.Errorf("no fetcher configured for %s", r.job.VideoURL)
	}
	return r.svc.fetcher.Fetch(ctx, r.job.VideoURL, dst)
}

// artifact reserves and tracks a stage path
func (r *run) artifact(ctx context.Context, stage, ext string) string {
	p := r.svc.ArtifactPath(r.job.ID, stage, ext)
	r.live[p] = true
	if err := r.svc.tracker.Track(ctx, r.job.ID, p); err != nil {
		log.Printf("[Pipeline] job=%s run=%s failed to track %s: %v", r.job.ID, r.runID, p, err)
	}
	return p
}

// remove deletes a stage file, ignoring failures. Files that could not be
// removed stay tracked for the sweep.
func (r *run) remove(ctx context.Context, p string) {
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return
	}
	delete(r.live, p)
	if err := r.svc.tracker.Forget(ctx, r.job.ID, p); err != nil {
		log.Printf("[Pipeline] job=%s run=%s failed to untrack %s: %v", r.job.ID, r.runID, p, err)
	}
}

func (r *run) cleanup() {
	// The request context may already be cancelled; cleanup must still run.
	ctx := context.Background()
	for p := range r.live {
		r.remove(ctx, p)
	}
	if err := r.svc.tracker.Finish(ctx, r.job.ID); err != nil {
		log.Printf("[Pipeline] job=%s run=%s failed to finish tracking: %v", r.job.ID, r.runID, err)
	}
}

func inputExt(job *model.Job) string {
	name := job.FileName
	if name == "" && job.VideoURL != "" {
		if u, err := url.Parse(job.VideoURL); err == nil {
			name = u.Path
		}
	}
	ext := strings.ToLower(path.Ext(name))
	if len(ext) < 2 || len(ext) > 5 {
		return ".mp4"
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ".mp4"
		}
	}
	return ext
}
