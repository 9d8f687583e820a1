package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dance-board-api/internal/dto"
	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
	"github.com/noah-isme/dance-board-api/pkg/response"
)

const (
	suggestionSentNotice     = "Thank you! Your suggestion has been sent."
	suggestionReceivedNotice = "Thank you for your suggestion!"
)

type suggestionSender interface {
	SendSuggestion(ctx context.Context, message string) bool
}

// SuggestionHandler forwards visitor feedback.
type SuggestionHandler struct {
	sender suggestionSender
}

// NewSuggestionHandler builds a new handler.
func NewSuggestionHandler(sender suggestionSender) *SuggestionHandler {
	return &SuggestionHandler{sender: sender}
}

// Send godoc
// @Summary Send a suggestion
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param payload body dto.SuggestionRequest true "Suggestion"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /suggestions [post]
func (h *SuggestionHandler) Send(c *gin.Context) {
	if h.sender == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.SuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "suggestion message is required"))
		return
	}
	sent := h.sender.SendSuggestion(c.Request.Context(), strings.TrimSpace(req.Message))
	notice := suggestionReceivedNotice
	if sent {
		notice = suggestionSentNotice
	}
	response.JSON(c, http.StatusOK, gin.H{"sent": sent, "notification": notice}, nil)
}
