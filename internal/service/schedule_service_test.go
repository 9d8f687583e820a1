package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dance-board-api/internal/models"
	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
)

func newScheduleFixture(t *testing.T, classes ...models.ClassRecord) (*ScheduleService, *BoardState, *eventRecorder, *memoryBackend) {
	t.Helper()
	state := NewBoardState()
	state.update(func(c *boardCollections) {
		c.Classes = models.CloneClasses(classes)
	})
	backend := newMemoryBackend()
	records := NewRecordStore(backend, nil)
	events := &eventRecorder{}
	styles := NewStyleService(records, nil)
	return NewScheduleService(state, records, styles, events, nil), state, events, backend
}

func styled(c models.ClassRecord, style, region string) models.ClassRecord {
	c.Style = style
	c.Region = region
	return c
}

func TestScheduleListFiltersByRegionAndSorts(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t,
		styled(class("b", "Late", "2024-06-02", "18:00"), "Bhangra", ""),
		styled(class("a", "Early", "2024-06-02", "09:00"), "Bollywood", "nyc"),
		styled(class("c", "West", "2024-06-01", "10:00"), "Heels", "bayarea"),
	)

	nyc := svc.List(context.Background(), models.ClassFilter{})
	require.Len(t, nyc, 2)
	require.Equal(t, "a", nyc[0].ID)
	require.Equal(t, "b", nyc[1].ID)
	require.Equal(t, "nyc", nyc[1].Region)

	bay := svc.List(context.Background(), models.ClassFilter{Region: "bayarea"})
	require.Len(t, bay, 1)
	require.Equal(t, "heels", bay[0].StyleClass)
	require.Equal(t, "#BE123C", bay[0].Color)
}

func TestScheduleListAppliesTeacherStyleAndDateFilters(t *testing.T) {
	other := class("x", "Other teacher", "2024-06-05", "10:00")
	other.Teacher = "Vinita Hazari"
	svc, _, _, _ := newScheduleFixture(t,
		styled(class("a", "One", "2024-06-01", "10:00"), "Bollywood", ""),
		styled(class("b", "Two", "2024-06-10", "10:00"), "Bhangra", ""),
		styled(other, "Bhangra", ""),
	)

	byTeacher := svc.List(context.Background(), models.ClassFilter{Teachers: []string{"Vinita Hazari"}})
	require.Len(t, byTeacher, 1)
	require.Equal(t, "x", byTeacher[0].ID)

	byStyle := svc.List(context.Background(), models.ClassFilter{Styles: []string{"Bhangra"}, To: "2024-06-09"})
	require.Len(t, byStyle, 1)
	require.Equal(t, "x", byStyle[0].ID)

	byRange := svc.List(context.Background(), models.ClassFilter{From: "2024-06-05", To: "2024-06-10"})
	require.Len(t, byRange, 2)
}

func TestScheduleViewMarksCustomStyles(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t,
		styled(class("a", "Custom", "2024-06-01", "10:00"), "Kuchipudi", ""),
		class("b", "Plain", "2024-06-01", "11:00"),
	)
	views := svc.List(context.Background(), models.ClassFilter{})
	require.Equal(t, "other", views[0].StyleClass)
	require.Equal(t, fallbackStyleColor, views[0].Color)
	require.Empty(t, views[1].StyleClass)
}

func TestScheduleGet(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t, class("a", "One", "2024-06-01", "10:00"))

	view, err := svc.Get(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, "One", view.Name)

	_, err = svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestScheduleFilters(t *testing.T) {
	second := class("b", "Two", "2024-06-02", "10:00")
	second.Teacher = "Akshay Jain"
	svc, _, _, _ := newScheduleFixture(t,
		styled(class("a", "One", "2024-06-01", "10:00"), "Heels", ""),
		styled(second, "Bollywood", ""),
		styled(class("c", "West", "2024-06-01", "10:00"), "IMGE", "bayarea"),
	)

	filters := svc.Filters(context.Background(), "")
	require.Equal(t, "nyc", filters.Region)
	require.Equal(t, []string{"Akshay Jain", "Rupal Nahar"}, filters.Teachers)
	require.Equal(t, []models.StyleColor{{Style: "Bollywood", Color: "#F97316"}, {Style: "Heels", Color: "#BE123C"}}, filters.Styles)
}

func TestSeedSampleOnlyWhenEmpty(t *testing.T) {
	svc, state, events, backend := newScheduleFixture(t)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "sample" }

	require.True(t, svc.SeedSample(context.Background()))
	classes := state.Classes()
	require.Len(t, classes, 1)
	require.Equal(t, "Bollywood Fusion", classes[0].Name)
	require.Equal(t, "2024-06-02", classes[0].Date)
	require.Equal(t, 75, *classes[0].Duration)
	require.NotEmpty(t, state.LastModified())
	require.Contains(t, backend.raw(models.RecordKeyClasses), "Rupal Nahar")
	require.Equal(t, 1, events.count(models.BoardEventClassesChanged))

	require.False(t, svc.SeedSample(context.Background()))
	require.Len(t, state.Classes(), 1)
}
