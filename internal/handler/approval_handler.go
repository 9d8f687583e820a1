package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/dance-board-api/internal/dto"
	"github.com/noah-isme/dance-board-api/internal/models"
	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
	"github.com/noah-isme/dance-board-api/pkg/middleware/requestid"
	"github.com/noah-isme/dance-board-api/pkg/response"
)

// NoticeCookie carries the one-shot notification across the approval redirect.
const NoticeCookie = "board_notice"

const noticeMaxAge = 60

type approvalResolver interface {
	Resolve(ctx context.Context, rawAction, token string) (*models.ApprovalOutcome, error)
}

type classLister interface {
	List(ctx context.Context, filter models.ClassFilter) []dto.ClassView
}

// ApprovalHandler resolves approval links and serves the board landing pages.
type ApprovalHandler struct {
	approvals approvalResolver
	classes   classLister
	logger    *zap.Logger
}

// NewApprovalHandler builds a new handler.
func NewApprovalHandler(approvals approvalResolver, classes classLister, logger *zap.Logger) *ApprovalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalHandler{approvals: approvals, classes: classes, logger: logger}
}

// Board godoc
// @Summary Board landing page and approval link target
// @Description With approvalAction and approvalToken the link is resolved and the client is redirected to the same path without the query; the outcome is carried in the board_notice cookie.
// @Tags Approvals
// @Produce json
// @Param approvalAction query string false "approve or reject"
// @Param approvalToken query string false "Approval token"
// @Success 200 {object} response.Envelope
// @Router / [get]
func (h *ApprovalHandler) Board(region string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query dto.ApprovalQuery
		_ = c.ShouldBindQuery(&query)
		if query.Present() {
			h.redirectWithNotice(c, query)
			return
		}

		notice, _ := c.Cookie(NoticeCookie)
		if notice != "" {
			c.SetCookie(NoticeCookie, "", -1, c.Request.URL.Path, "", false, true)
		}
		var classes []dto.ClassView
		if h.classes != nil {
			classes = h.classes.List(c.Request.Context(), models.ClassFilter{Region: region})
		}
		response.JSON(c, http.StatusOK, gin.H{
			"region":  models.NormalizeRegion(region),
			"notice":  notice,
			"classes": classes,
		}, nil)
	}
}

func (h *ApprovalHandler) redirectWithNotice(c *gin.Context, query dto.ApprovalQuery) {
	notice := ""
	if h.approvals == nil {
		notice = appErrors.ErrInternal.Message
	} else if outcome, err := h.approvals.Resolve(c.Request.Context(), query.Action, query.Token); err != nil {
		notice = noticeFromError(err)
		requestid.Logger(c, h.logger).Info("approval link not applied", zap.Error(err))
	} else {
		notice = outcome.Notification
	}
	path := c.Request.URL.Path
	c.SetCookie(NoticeCookie, notice, noticeMaxAge, path, "", false, true)
	c.Redirect(http.StatusSeeOther, path)
}

// Resolve godoc
// @Summary Resolve an approval token
// @Tags Approvals
// @Produce json
// @Param approvalAction query string true "approve or reject"
// @Param approvalToken query string true "Approval token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /approvals [get]
func (h *ApprovalHandler) Resolve(c *gin.Context) {
	if h.approvals == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var query dto.ApprovalQuery
	if err := c.ShouldBindQuery(&query); err != nil || !query.Present() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "approvalAction and approvalToken are required"))
		return
	}
	outcome, err := h.approvals.Resolve(c.Request.Context(), query.Action, query.Token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

func noticeFromError(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return appErrors.ErrInternal.Message
}
