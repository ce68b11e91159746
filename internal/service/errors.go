package service

import (
	"errors"
	"fmt"

	"github.com/rebuttal/api/pkg/executor"
)

// Kind classifies why a pipeline run failed
type Kind string

const (
	ValidationFailure    Kind = "ValidationFailure"
	FetchFailure         Kind = "FetchFailure"
	TranscodeFailure     Kind = "TranscodeFailure"
	TranscriptionFailure Kind = "TranscriptionFailure"
	GenerationFailure    Kind = "GenerationFailure"
	SynthesisFailure     Kind = "SynthesisFailure"
	PublishFailure       Kind = "PublishFailure"
	NotificationFailure  Kind = "NotificationFailure"
)

// StageError is returned by DebateService when a stage aborts the run.
// Message is safe to show to the caller; Err keeps the diagnostic.
type StageError struct {
	Kind    Kind
	Stage   string
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Details returns the underlying diagnostic. For transcoder failures this is
// the tool's stderr.
func (e *StageError) Details() string {
	if e.Err == nil {
		return ""
	}
	var exitErr *executor.ExitError
	if errors.As(e.Err, &exitErr) && exitErr.Stderr != "" {
		return exitErr.Stderr
	}
	return e.Err.Error()
}

func stageErr(kind Kind, stage, message string, err error) *StageError {
	return &StageError{Kind: kind, Stage: stage, Message: message, Err: err}
}
