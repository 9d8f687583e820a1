package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dance-board-api/internal/dto"
	"github.com/noah-isme/dance-board-api/internal/models"
	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
	"github.com/noah-isme/dance-board-api/pkg/response"
)

type styleService interface {
	Catalog() models.StyleCatalog
	AssignCustomColor(ctx context.Context, name string) (string, error)
}

// StyleHandler serves the style legend.
type StyleHandler struct {
	styles styleService
}

// NewStyleHandler builds a new handler.
func NewStyleHandler(styles styleService) *StyleHandler {
	return &StyleHandler{styles: styles}
}

// Catalog godoc
// @Summary Predefined styles, legend and custom colours
// @Tags Styles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /styles [get]
func (h *StyleHandler) Catalog(c *gin.Context) {
	if h.styles == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, h.styles.Catalog(), nil)
}

// AssignCustom godoc
// @Summary Assign a colour to a custom style
// @Tags Styles
// @Accept json
// @Produce json
// @Param payload body dto.CustomStyleRequest true "Style"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /styles/custom [post]
func (h *StyleHandler) AssignCustom(c *gin.Context) {
	if h.styles == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.CustomStyleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid style payload"))
		return
	}
	color, err := h.styles.AssignCustomColor(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, models.StyleColor{Style: req.Name, Color: color}, nil)
}
