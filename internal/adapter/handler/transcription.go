package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/callscopehq/callscope/errors"
	dto "github.com/callscopehq/callscope/internal/adapter/dto/transcription"
	"github.com/callscopehq/callscope/internal/domain/entities"
	"github.com/callscopehq/callscope/internal/infrastructure/http/middleware"
	"github.com/callscopehq/callscope/internal/usecase/transcription"
)

// Transcription handles the transcription API surface
type Transcription struct {
	service *transcription.Service
	logger  *zap.Logger
}

// NewTranscription creates a new transcription handler
func NewTranscription(service *transcription.Service, logger *zap.Logger) *Transcription {
	return &Transcription{
		service: service,
		logger:  logger,
	}
}

// Transcribe godoc
// @Summary Start transcription for a call
// @Description Admits an asynchronous transcription job for the call's recording
// @Tags transcription
// @Accept json
// @Produce json
// @Param id path string true "Call ID"
// @Param request body dto.TranscribeRequest false "Transcription options"
// @Success 202 {object} dto.TranscribeResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /v1/calls/{id}/transcribe [post]
func (h *Transcription) Transcribe(c echo.Context) error {
	userID, ok := middleware.CallerID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid call id"))
	}

	var req dto.TranscribeRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	result, err := h.service.StartTranscription(c.Request().Context(), userID, callID, transcription.StartRequest{
		Language:          req.Language,
		Prompt:            req.Prompt,
		ForceRetranscribe: req.ForceRetranscribe,
	})
	if err != nil {
		return HandleError(h.logger, c, h.mapDomainError(err, callID))
	}

	return HandleSuccess(h.logger, c, http.StatusAccepted, dto.TranscribeResponse{
		JobID:   result.Job.ID.String(),
		CallID:  callID.String(),
		Status:  string(result.Job.Status),
		Message: result.Message,
	})
}

// Status godoc
// @Summary Get transcription status for a call
// @Description Returns current job status with live progress while running
// @Tags transcription
// @Produce json
// @Param id path string true "Call ID"
// @Success 200 {object} dto.StatusResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /v1/calls/{id}/transcription/status [get]
func (h *Transcription) Status(c echo.Context) error {
	userID, ok := middleware.CallerID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid call id"))
	}

	status, err := h.service.GetStatus(c.Request().Context(), userID, callID)
	if err != nil {
		return HandleError(h.logger, c, h.mapDomainError(err, callID))
	}

	return HandleSuccess(h.logger, c, http.StatusOK, dto.StatusResponse{
		Status:       string(status.Status),
		Stage:        status.Stage,
		Progress:     status.Progress,
		ErrorMessage: status.ErrorMessage,
	})
}

// Cancel godoc
// @Summary Cancel the active transcription for a call
// @Tags transcription
// @Produce json
// @Param id path string true "Call ID"
// @Success 200 {object} dto.CancelResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /v1/calls/{id}/transcription/cancel [post]
func (h *Transcription) Cancel(c echo.Context) error {
	userID, ok := middleware.CallerID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid call id"))
	}

	job, err := h.service.Cancel(c.Request().Context(), userID, callID)
	if err != nil {
		return HandleError(h.logger, c, h.mapDomainError(err, callID))
	}

	return HandleSuccess(h.logger, c, http.StatusOK, dto.CancelResponse{
		JobID:  job.ID.String(),
		CallID: callID.String(),
		Status: string(job.Status),
	})
}

// mapDomainError translates domain sentinels into API errors.
func (h *Transcription) mapDomainError(err error, callID uuid.UUID) error {
	switch {
	case stdErrors.Is(err, entities.ErrCallNotFound):
		return errors.ErrCallNotFound(callID.String())
	case stdErrors.Is(err, entities.ErrAccessDenied):
		return errors.ErrCallAccessDenied(callID.String())
	case stdErrors.Is(err, entities.ErrTranscriptConflict):
		return errors.ErrTranscriptionConflict(callID.String())
	case stdErrors.Is(err, entities.ErrJobNotFound), stdErrors.Is(err, entities.ErrNoActiveJob):
		return errors.ErrTranscriptionJobNotFound(callID.String())
	case stdErrors.Is(err, entities.ErrStorageUnavailable):
		return errors.ErrStorageUnavailable(err)
	default:
		return errors.ErrInternal(err)
	}
}
