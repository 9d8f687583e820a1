package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dance-board-api/internal/dto"
	"github.com/noah-isme/dance-board-api/internal/models"
	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
	"github.com/noah-isme/dance-board-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

const exportMonthLayout = "2006-01"

var exportHeaders = []string{"Date", "Time", "Class", "Teacher", "Style", "Level", "Location", "Duration", "Tickets", "Status"}

var exportWidths = []float64{1.1, 0.7, 2, 1.5, 1.3, 1, 1.8, 0.8, 1.8, 0.9}

var regionTitles = map[string]string{
	models.RegionNYC:     "NYC",
	models.RegionBayArea: "Bay Area",
}

type classLister interface {
	List(ctx context.Context, filter models.ClassFilter) []dto.ClassView
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
}

// ExportFile is a rendered month export.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService renders one region's month of classes as CSV or PDF.
type ExportService struct {
	classes classLister
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers use the defaults.
func NewExportService(classes classLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter(export.WithLandscape())
	}
	return &ExportService{classes: classes, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Export renders the requested month, defaulting to the current month in CSV.
func (s *ExportService) Export(ctx context.Context, query dto.ExportQuery) (*ExportFile, error) {
	region := models.NormalizeRegion(query.Region)
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	month := s.now().UTC()
	if raw := strings.TrimSpace(query.Month); raw != "" {
		parsed, err := time.Parse(exportMonthLayout, raw)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "month must be formatted as YYYY-MM")
		}
		month = parsed
	}
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	views := s.classes.List(ctx, models.ClassFilter{
		Region: region,
		From:   first.Format("2006-01-02"),
		To:     last.Format("2006-01-02"),
	})
	dataset := export.Dataset{Headers: exportHeaders, Widths: exportWidths}
	for _, v := range views {
		dataset.Rows = append(dataset.Rows, exportRow(v.ClassRecord))
	}

	title := fmt.Sprintf("%s Dance Classes - %s", regionTitles[region], first.Format("January 2006"))
	base := fmt.Sprintf("dance-classes-%s-%s", region, first.Format(exportMonthLayout))

	var (
		data        []byte
		err         error
		contentType string
	)
	switch format {
	case ExportFormatPDF:
		data, err = s.pdf.Render(dataset, title)
		contentType = s.pdf.ContentType()
	default:
		data, err = s.csv.Render(dataset)
		contentType = s.csv.ContentType()
	}
	if err != nil {
		s.logger.Error("render export", zap.String("format", format), zap.String("region", region), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    base + "." + format,
		ContentType: contentType,
		Data:        data,
		Rows:        len(dataset.Rows),
	}, nil
}

func exportRow(c models.ClassRecord) map[string]string {
	duration := ""
	if c.Duration != nil {
		duration = strconv.Itoa(*c.Duration) + " min"
	}
	var status []string
	if c.SoldOut {
		status = append(status, "Sold out")
	}
	if c.OnSale {
		status = append(status, "On sale")
	}
	return map[string]string{
		"Date":     c.Date,
		"Time":     c.Time,
		"Class":    c.Name,
		"Teacher":  c.Teacher,
		"Style":    c.Style,
		"Level":    c.Level,
		"Location": c.Location,
		"Duration": duration,
		"Tickets":  c.TicketLink,
		"Status":   strings.Join(status, ", "),
	}
}
