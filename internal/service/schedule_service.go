package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dance-board-api/internal/dto"
	"github.com/noah-isme/dance-board-api/internal/models"
	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
)

type styleColors interface {
	ColorFor(style string) string
}

// ScheduleService answers read queries over the committed collection.
type ScheduleService struct {
	state   *BoardState
	records *RecordStore
	styles  styleColors
	events  boardEvents
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

// NewScheduleService constructs the query service.
func NewScheduleService(state *BoardState, records *RecordStore, styles styleColors, events boardEvents, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		state:   state,
		records: records,
		styles:  styles,
		events:  events,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// List returns the classes of a region that pass the filter, ordered by date then time.
func (s *ScheduleService) List(ctx context.Context, filter models.ClassFilter) []dto.ClassView {
	region := models.NormalizeRegion(filter.Region)
	teachers := toSet(filter.Teachers)
	styles := toSet(filter.Styles)

	var out []models.ClassRecord
	for _, c := range s.state.Classes() {
		if c.EffectiveRegion() != region {
			continue
		}
		if len(teachers) > 0 {
			if _, ok := teachers[c.Teacher]; !ok {
				continue
			}
		}
		if len(styles) > 0 {
			if _, ok := styles[c.Style]; !ok {
				continue
			}
		}
		if filter.From != "" && c.Date < filter.From {
			continue
		}
		if filter.To != "" && c.Date > filter.To {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})

	views := make([]dto.ClassView, 0, len(out))
	for _, c := range out {
		views = append(views, s.view(c))
	}
	return views
}

// Get returns one committed class.
func (s *ScheduleService) Get(ctx context.Context, id string) (*dto.ClassView, error) {
	classes := s.state.Classes()
	idx := models.IndexOfClass(classes, id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	view := s.view(classes[idx])
	return &view, nil
}

// Filters lists the teachers and styles present in a region.
func (s *ScheduleService) Filters(ctx context.Context, region string) models.RegionFilters {
	region = models.NormalizeRegion(region)
	teacherSet := map[string]struct{}{}
	styleSet := map[string]struct{}{}
	for _, c := range s.state.Classes() {
		if c.EffectiveRegion() != region {
			continue
		}
		if c.Teacher != "" {
			teacherSet[c.Teacher] = struct{}{}
		}
		if c.Style != "" {
			styleSet[c.Style] = struct{}{}
		}
	}

	teachers := make([]string, 0, len(teacherSet))
	for t := range teacherSet {
		teachers = append(teachers, t)
	}
	sort.Strings(teachers)

	styles := make([]string, 0, len(styleSet))
	for st := range styleSet {
		styles = append(styles, st)
	}
	return models.RegionFilters{Region: region, Teachers: teachers, Styles: SortStylesByLegend(styles)}
}

// SeedSample adds one sample class dated tomorrow when the board is empty.
// The sample stays local; it is not pushed to the shared schedule.
func (s *ScheduleService) SeedSample(ctx context.Context) bool {
	duration := 75
	seeded := false
	s.state.update(func(c *boardCollections) {
		if len(c.Classes) > 0 {
			return
		}
		c.Classes = []models.ClassRecord{{
			ID:         s.newID(),
			Name:       "Bollywood Fusion",
			Teacher:    "Rupal Nahar",
			Date:       s.now().Add(24 * time.Hour).UTC().Format("2006-01-02"),
			Time:       "14:00",
			Duration:   &duration,
			Style:      "Bollywood Fusion",
			Level:      "Intermediate",
			Location:   "Ripley Grier, Studio B",
			TicketLink: "Venmo @rupalnahar $25",
		}}
		stamp, _ := s.records.SaveClasses(ctx, c.Classes)
		c.LastModified = stamp
		seeded = true
	})
	if seeded {
		s.logger.Info("seeded sample class into empty board")
		if s.events != nil {
			s.events.Publish(models.BoardEvent{Type: models.BoardEventClassesChanged, Reason: "sample_data", Count: 1, At: s.now().UTC()})
		}
	}
	return seeded
}

func (s *ScheduleService) view(c models.ClassRecord) dto.ClassView {
	styleClass := ""
	if strings.TrimSpace(c.Style) != "" {
		styleClass = "other"
		if IsPredefinedStyle(c.Style) {
			styleClass = StyleClassName(c.Style)
		}
	}
	color := LegendColor(c.Style)
	if s.styles != nil {
		color = s.styles.ColorFor(c.Style)
	}
	return dto.ClassView{
		ClassRecord: c,
		Region:      c.EffectiveRegion(),
		StyleClass:  styleClass,
		Color:       color,
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
