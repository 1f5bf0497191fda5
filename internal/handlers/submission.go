package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/promptly/client/internal/middleware"
	"github.com/promptly/client/internal/models"
	"github.com/promptly/client/internal/orchestrator"
	"go.uber.org/zap"
)

// SubmissionHandler exposes the orchestrator over HTTP
type SubmissionHandler struct {
	orch        *orchestrator.Orchestrator
	logger      *zap.Logger
	waitTimeout time.Duration
}

// NewSubmissionHandler creates a new submission handler. waitTimeout bounds
// the wait endpoint and should exceed the generation timeout.
func NewSubmissionHandler(orch *orchestrator.Orchestrator, logger *zap.Logger, waitTimeout time.Duration) *SubmissionHandler {
	return &SubmissionHandler{orch: orch, logger: logger, waitTimeout: waitTimeout}
}

// SubmitResponse is returned when a submission is accepted
type SubmitResponse struct {
	SubmissionID uint64             `json:"submission_id"`
	State        orchestrator.State `json:"state"`
}

// Submit accepts form input and starts a generation
// @Summary Submit a generation request
// @Tags submissions
// @Accept json
// @Produce json
// @Param input body models.FormInput true "Form input"
// @Success 202 {object} SubmitResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 429 {object} middleware.ErrorResponse
// @Security Bearer
// @Router /submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var input models.FormInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	id, err := h.orch.Submit(input)
	switch {
	case errors.Is(err, orchestrator.ErrEmptyText):
		middleware.RespondError(c, http.StatusBadRequest, middleware.ErrCodeEmptyText, "text must not be empty")
		return
	case errors.Is(err, orchestrator.ErrClosed):
		middleware.RespondError(c, http.StatusServiceUnavailable, middleware.ErrCodeClosed, "service is shutting down")
		return
	case err != nil:
		h.logger.Error("submit failed", zap.Error(err), zap.String("request_id", middleware.GetRequestID(c)))
		middleware.InternalError(c, "failed to submit")
		return
	}

	h.logger.Info("submission accepted",
		zap.Uint64("submission_id", id),
		zap.String("request_id", middleware.GetRequestID(c)),
	)
	c.JSON(http.StatusAccepted, SubmitResponse{SubmissionID: id, State: h.orch.State()})
}

// Reset returns the state to idle, cancelling a loading submission
// @Summary Reset to idle
// @Tags submissions
// @Produce json
// @Success 200 {object} map[string]orchestrator.State
// @Security Bearer
// @Router /reset [post]
func (h *SubmissionHandler) Reset(c *gin.Context) {
	h.orch.Reset()
	c.JSON(http.StatusOK, gin.H{"state": h.orch.State()})
}

// State returns the current state snapshot
// @Summary Current state
// @Tags submissions
// @Produce json
// @Success 200 {object} orchestrator.State
// @Security Bearer
// @Router /state [get]
func (h *SubmissionHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.State())
}

// Stream sends the current state and every later transition as SSE events
// @Summary Stream state transitions
// @Tags submissions
// @Produce text/event-stream
// @Success 200 {object} orchestrator.State
// @Security Bearer
// @Router /state/stream [get]
func (h *SubmissionHandler) Stream(c *gin.Context) {
	ch, unsubscribe := h.orch.Subscribe()
	defer unsubscribe()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case st, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("state", st)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// Wait blocks until the given submission ends and returns its terminal state
// @Summary Wait for a submission to finish
// @Tags submissions
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} orchestrator.State
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 504 {object} middleware.ErrorResponse
// @Security Bearer
// @Router /submissions/{id}/wait [get]
func (h *SubmissionHandler) Wait(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		middleware.BadRequest(c, "invalid submission id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.waitTimeout)
	defer cancel()

	st, err := h.orch.Wait(ctx, id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, st)
	case errors.Is(err, orchestrator.ErrSuperseded), errors.Is(err, orchestrator.ErrReset):
		c.JSON(http.StatusConflict, gin.H{
			"error": middleware.APIError{Code: middleware.ErrCodeConflict, Message: err.Error()},
			"state": st,
		})
	case errors.Is(err, orchestrator.ErrUnknownSubmission):
		middleware.RespondError(c, http.StatusNotFound, middleware.ErrCodeNotFound, "no such submission")
	case errors.Is(err, context.DeadlineExceeded):
		middleware.RespondError(c, http.StatusGatewayTimeout, middleware.ErrCodeTimeout, "submission still loading")
	case errors.Is(err, orchestrator.ErrClosed):
		middleware.RespondError(c, http.StatusServiceUnavailable, middleware.ErrCodeClosed, "service is shutting down")
	default:
		// Client went away.
		c.Status(499)
	}
}
