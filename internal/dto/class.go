package dto

import "github.com/noah-isme/dance-board-api/internal/models"

// ClassSubmissionRequest carries the class form for additions and edits.
type ClassSubmissionRequest struct {
	Name             string `json:"name" validate:"required"`
	Teacher          string `json:"teacher" validate:"required"`
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	Time             string `json:"time" validate:"required,datetime=15:04"`
	Duration         *int   `json:"duration" validate:"omitempty,min=0"`
	Style            string `json:"style"`
	CustomStyle      string `json:"customStyle"`
	Level            string `json:"level"`
	Location         string `json:"location"`
	TicketLink       string `json:"ticketLink" validate:"required"`
	TeacherBioURL    string `json:"teacherBioUrl"`
	TeacherInstagram string `json:"teacherInstagram"`
	Region           string `json:"region" validate:"omitempty,oneof=nyc bayarea"`
	SoldOut          bool   `json:"soldOut"`
	OnSale           bool   `json:"onSale"`
}

// ClassQuery mirrors listing filters from the query string.
type ClassQuery struct {
	Region   string
	Teachers []string
	Styles   []string
	From     string
	To       string
}

// ClassView decorates a committed class for display.
type ClassView struct {
	models.ClassRecord
	Region     string `json:"region"`
	StyleClass string `json:"styleClass"`
	Color      string `json:"color"`
}

// SuggestionRequest carries free-text feedback.
type SuggestionRequest struct {
	Message string `json:"message" validate:"required"`
}

// CustomStyleRequest registers a custom style colour.
type CustomStyleRequest struct {
	Name string `json:"name" validate:"required"`
}

// ExportQuery selects the export window and format.
type ExportQuery struct {
	Region string
	Month  string
	Format string
}
