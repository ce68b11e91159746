package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/rebuttal/api/internal/middleware"
	"github.com/rebuttal/api/internal/model"
	"github.com/rebuttal/api/internal/service"
	"github.com/rebuttal/api/pkg/response"
)

const previewLength = 200

// VideoProcessor runs the debate pipeline for one job
type VideoProcessor interface {
	ProcessVideo(ctx context.Context, job *model.Job) (*model.JobResult, error)
}

type DebateHandler struct {
	service   VideoProcessor
	validator *validator.Validate
}

func NewDebateHandler(svc VideoProcessor, v *validator.Validate) *DebateHandler {
	return &DebateHandler{
		service:   svc,
		validator: v,
	}
}

// Process handles POST /processDebateVideo. Accepts JSON, or multipart form
// data with an optional "video" file part.
func (h *DebateHandler) Process(c *fiber.Ctx) error {
	var req model.ProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	var video io.Reader
	if form, err := c.MultipartForm(); err == nil {
		if files := form.File["video"]; len(files) > 0 {
			f, err := files[0].Open()
			if err != nil {
				return response.ValidationError(c, "Unable to read uploaded video", nil)
			}
			defer f.Close()

			video = f
			req.HasVideo = true
			if req.FileName == "" {
				req.FileName = files[0].Filename
			}
		}
	}

	if err := h.validator.Struct(&req); err != nil {
		message := "Invalid request fields"
		if missing := missingFields(err); len(missing) > 0 {
			message = "Missing required fields: " + strings.Join(missing, ", ")
		}
		return response.ValidationError(c, message, formatValidationErrors(err))
	}

	job := &model.Job{
		ID:        req.FileID,
		VideoURL:  req.VideoURL,
		Video:     video,
		FileName:  req.FileName,
		UserEmail: req.UserEmail,
		Topic:     req.Topic,
		StartedAt: time.Now(),
	}

	log.Printf("[Debate] request=%s processing fileId=%s", middleware.GetRequestID(c), job.ID)

	result, err := h.service.ProcessVideo(c.Context(), job)
	if err != nil {
		var se *service.StageError
		if errors.As(err, &se) {
			return response.Failure(c, string(se.Kind), se.Message, se.Details())
		}
		return response.ServiceError(c, "Failed to process video", err.Error())
	}

	return response.OK(c, model.ProcessResponse{
		Success:        true,
		FileID:         job.ID,
		FinalVideoURL:  result.FinalVideoURL,
		ProcessingTime: fmt.Sprintf("%dms", result.ProcessingTime.Milliseconds()),
		Transcription:  preview(result.Transcription),
		AIResponse:     preview(result.AIResponse),
	})
}

// preview returns the first previewLength characters followed by "..."
func preview(s string) string {
	if utf8.RuneCountInString(s) <= previewLength {
		return s + "..."
	}
	return string([]rune(s)[:previewLength]) + "..."
}
