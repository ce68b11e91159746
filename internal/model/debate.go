package model

import (
	"io"
	"time"
)

// Job is one debate-response pipeline run. ID is the caller supplied fileId.
type Job struct {
	ID        string
	VideoURL  string
	Video     io.Reader // uploaded bytes; takes precedence over VideoURL
	FileName  string
	UserEmail string
	Topic     string
	StartedAt time.Time
}

// JobResult is what a successful run hands back to the caller
type JobResult struct {
	FinalVideoURL  string
	Transcription  string
	AIResponse     string
	ProcessingTime time.Duration
	OutputDuration time.Duration // zero when the probe failed
}

// ProcessRequest is the body of POST /processDebateVideo
type ProcessRequest struct {
	VideoURL  string `json:"videoUrl" form:"videoUrl" validate:"required_without=HasVideo"`
	FileID    string `json:"fileId" form:"fileId" validate:"required,jobid"`
	FileName  string `json:"fileName" form:"fileName"`
	UserEmail string `json:"userEmail" form:"userEmail" validate:"required"`
	Topic     string `json:"topic" form:"topic"`

	// HasVideo is set by the handler when a multipart video part is present
	HasVideo bool `json:"-" form:"-"`
}

// ProcessResponse is returned when the pipeline completes
type ProcessResponse struct {
	Success        bool   `json:"success"`
	FileID         string `json:"fileId"`
	FinalVideoURL  string `json:"finalVideoUrl"`
	ProcessingTime string `json:"processingTime"`
	Transcription  string `json:"transcription"`
	AIResponse     string `json:"aiResponse"`
}

// HealthResponse is returned by GET /
type HealthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ServicesHealthResponse is returned by GET /health
type ServicesHealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}
