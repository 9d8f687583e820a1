package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dance-board-api/internal/dto"
	"github.com/noah-isme/dance-board-api/internal/models"
	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
	"github.com/noah-isme/dance-board-api/pkg/response"
)

type scheduleService interface {
	List(ctx context.Context, filter models.ClassFilter) []dto.ClassView
	Get(ctx context.Context, id string) (*dto.ClassView, error)
	Filters(ctx context.Context, region string) models.RegionFilters
}

type submissionService interface {
	SubmitAddition(ctx context.Context, req dto.ClassSubmissionRequest) (*models.SubmissionReceipt, error)
	SubmitEdit(ctx context.Context, classID string, req dto.ClassSubmissionRequest) (*models.SubmissionReceipt, error)
	SubmitDeletion(ctx context.Context, classID string) (*models.SubmissionReceipt, error)
}

type pendingReader interface {
	Pending() models.PendingSnapshot
}

// ClassHandler exposes the schedule and its change submissions.
type ClassHandler struct {
	schedule    scheduleService
	submissions submissionService
	pending     pendingReader
}

// NewClassHandler builds a new handler.
func NewClassHandler(schedule scheduleService, submissions submissionService, pending pendingReader) *ClassHandler {
	return &ClassHandler{schedule: schedule, submissions: submissions, pending: pending}
}

// List godoc
// @Summary List committed classes
// @Tags Classes
// @Produce json
// @Param region query string false "nyc or bayarea (default nyc)"
// @Param teacher query []string false "Teacher filter, repeatable or comma separated"
// @Param style query []string false "Style filter, repeatable or comma separated"
// @Param from query string false "First date, YYYY-MM-DD"
// @Param to query string false "Last date, YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	if h.schedule == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	query := dto.ClassQuery{
		Region:   c.Query("region"),
		Teachers: splitValues(c.QueryArray("teacher")),
		Styles:   splitValues(c.QueryArray("style")),
		From:     c.Query("from"),
		To:       c.Query("to"),
	}
	items := h.schedule.List(c.Request.Context(), models.ClassFilter{
		Region:   query.Region,
		Teachers: query.Teachers,
		Styles:   query.Styles,
		From:     query.From,
		To:       query.To,
	})
	response.JSON(c, http.StatusOK, items, map[string]interface{}{
		"region": models.NormalizeRegion(query.Region),
		"count":  len(items),
	})
}

// Get godoc
// @Summary Get one class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	if h.schedule == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	item, err := h.schedule.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// SubmitAddition godoc
// @Summary Submit a new class for approval
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body dto.ClassSubmissionRequest true "Class"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) SubmitAddition(c *gin.Context) {
	if h.submissions == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.ClassSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	receipt, err := h.submissions.SubmitAddition(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, receipt, nil)
}

// SubmitEdit godoc
// @Summary Submit an edit of a class for approval
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.ClassSubmissionRequest true "Replacement class"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/edits [post]
func (h *ClassHandler) SubmitEdit(c *gin.Context) {
	if h.submissions == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.ClassSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	receipt, err := h.submissions.SubmitEdit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, receipt, nil)
}

// SubmitDeletion godoc
// @Summary Request deletion of a class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/deletions [post]
func (h *ClassHandler) SubmitDeletion(c *gin.Context) {
	if h.submissions == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	receipt, err := h.submissions.SubmitDeletion(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, receipt, nil)
}

// Pending godoc
// @Summary List records awaiting approval
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pending [get]
func (h *ClassHandler) Pending(c *gin.Context) {
	if h.pending == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	snapshot := h.pending.Pending()
	response.JSON(c, http.StatusOK, snapshot, map[string]interface{}{
		"additions": len(snapshot.Additions),
		"edits":     len(snapshot.Edits),
		"deletions": len(snapshot.Deletions),
	})
}

// Filters godoc
// @Summary Teachers and styles present in a region
// @Tags Classes
// @Produce json
// @Param region query string false "nyc or bayarea (default nyc)"
// @Success 200 {object} response.Envelope
// @Router /filters [get]
func (h *ClassHandler) Filters(c *gin.Context) {
	if h.schedule == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, h.schedule.Filters(c.Request.Context(), c.Query("region")), nil)
}

// splitValues accepts both repeated and comma separated query values.
func splitValues(raw []string) []string {
	var out []string
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
