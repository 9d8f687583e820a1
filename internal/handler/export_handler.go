package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dance-board-api/internal/dto"
	"github.com/noah-isme/dance-board-api/internal/service"
	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
	"github.com/noah-isme/dance-board-api/pkg/response"
)

type exportService interface {
	Export(ctx context.Context, query dto.ExportQuery) (*service.ExportFile, error)
}

// ExportHandler serves month downloads.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler builds a new handler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Download godoc
// @Summary Download a month of classes
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param region query string false "nyc or bayarea (default nyc)"
// @Param month query string false "YYYY-MM (default current month)"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /export [get]
func (h *ExportHandler) Download(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	file, err := h.exports.Export(c.Request.Context(), dto.ExportQuery{
		Region: c.Query("region"),
		Month:  c.Query("month"),
		Format: c.Query("format"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
