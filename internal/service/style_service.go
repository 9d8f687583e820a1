package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode/utf16"

	"go.uber.org/zap"

	"github.com/noah-isme/dance-board-api/internal/models"
	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
)

const fallbackStyleColor = "#64748B"

// styleLegend is consulted top to bottom; the first entry with a keyword
// contained in the lowercased style wins.
var styleLegend = []models.LegendEntry{
	{Label: "Bollywood", Color: "#F97316", Keywords: []string{"bollywood", "street jazz"}},
	{Label: "Folk", Color: "#22C55E", Keywords: []string{"bhangra", "garba", "raas"}},
	{Label: "Classical", Color: "#7C3AED", Keywords: []string{"bharatnatyam", "semiclassical", "kathak"}},
	{Label: "Contemporary", Color: "#2DD4BF", Keywords: []string{"contemporary"}},
	{Label: "Hip Hop", Color: "#0891B2", Keywords: []string{"hiphop", "hip hop"}},
	{Label: "Heels", Color: "#BE123C", Keywords: []string{"heel", "femme"}},
	{Label: "IMGE", Color: "#312E81", Keywords: []string{"imge"}},
}

// legendColorOrder is the display order of legend colours in style filters.
var legendColorOrder = []string{"#F97316", "#22C55E", "#7C3AED", "#2DD4BF", "#0891B2", "#312E81", "#BE123C", fallbackStyleColor}

var customStylePalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7", "#DDA0DD",
	"#F7DC6F", "#85C1E9", "#F8C471", "#BB8FCE", "#82E0AA", "#F1948A",
	"#F9E79F", "#D7BDE2", "#A9DFBF", "#F5B7B1", "#AED6F1", "#FCF3CF",
	"#E8DAEF", "#ABEBC6", "#FADBD8", "#D6EAF8", "#EBDEF0", "#D5F4E6",
}

// LegendColor maps a style to its legend colour.
func LegendColor(style string) string {
	lower := strings.ToLower(style)
	for _, entry := range styleLegend {
		for _, keyword := range entry.Keywords {
			if strings.Contains(lower, keyword) {
				return entry.Color
			}
		}
	}
	return fallbackStyleColor
}

// StyleClassName derives the CSS class used for a style.
func StyleClassName(style string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(style) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsPredefinedStyle reports whether style is one of the selectable styles.
func IsPredefinedStyle(style string) bool {
	for _, s := range models.PredefinedStyles {
		if s == style {
			return true
		}
	}
	return false
}

// SortStylesByLegend orders distinct styles by legend colour, then name.
func SortStylesByLegend(styles []string) []models.StyleColor {
	out := make([]models.StyleColor, 0, len(styles))
	for _, s := range styles {
		out = append(out, models.StyleColor{Style: s, Color: LegendColor(s)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := colorRank(out[i].Color), colorRank(out[j].Color)
		if ri != rj {
			return ri < rj
		}
		li, lj := strings.ToLower(out[i].Style), strings.ToLower(out[j].Style)
		if li != lj {
			return li < lj
		}
		return out[i].Style < out[j].Style
	})
	return out
}

func colorRank(color string) int {
	for i, c := range legendColorOrder {
		if c == color {
			return i
		}
	}
	return len(legendColorOrder)
}

// StyleService manages the legend and the custom style colour assignments.
type StyleService struct {
	records *RecordStore
	logger  *zap.Logger

	mu     sync.Mutex
	custom map[string]string
}

// NewStyleService constructs the service.
func NewStyleService(records *RecordStore, logger *zap.Logger) *StyleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StyleService{records: records, logger: logger, custom: map[string]string{}}
}

// Load restores persisted custom colours.
func (s *StyleService) Load(ctx context.Context) {
	stored := s.records.LoadCustomStyles(ctx)
	s.mu.Lock()
	s.custom = stored
	s.mu.Unlock()
}

// Catalog returns the predefined styles, the legend and the custom colours.
func (s *StyleService) Catalog() models.StyleCatalog {
	s.mu.Lock()
	custom := make(map[string]string, len(s.custom))
	for k, v := range s.custom {
		custom[k] = v
	}
	s.mu.Unlock()

	legend := append([]models.LegendEntry{}, styleLegend...)
	legend = append(legend, models.LegendEntry{Label: "Other", Color: fallbackStyleColor})
	return models.StyleCatalog{
		Predefined:   append([]string{}, models.PredefinedStyles...),
		Legend:       legend,
		CustomColors: custom,
	}
}

// ColorFor returns the custom colour assigned to style, else its legend colour.
func (s *StyleService) ColorFor(style string) string {
	s.mu.Lock()
	color, ok := s.custom[style]
	s.mu.Unlock()
	if ok {
		return color
	}
	return LegendColor(style)
}

// AssignCustomColor returns the colour for a custom style, assigning and
// persisting one on first use.
func (s *StyleService) AssignCustomColor(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "style name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if color, ok := s.custom[name]; ok {
		return color, nil
	}
	color := pickCustomColor(name, s.custom)
	s.custom[name] = color
	if err := s.records.SaveCustomStyles(ctx, s.custom); err != nil {
		s.logger.Warn("custom style colour kept in memory only", zap.String("style", name), zap.Error(err))
	}
	return color, nil
}

// pickCustomColor takes the first palette colour not yet used, falling back
// to a hash of the name once the palette is exhausted.
func pickCustomColor(name string, assigned map[string]string) string {
	used := make(map[string]struct{}, len(assigned))
	for _, c := range assigned {
		used[c] = struct{}{}
	}
	for _, c := range customStylePalette {
		if _, taken := used[c]; !taken {
			return c
		}
	}
	return customStylePalette[styleNameHash(name)%int64(len(customStylePalette))]
}

// styleNameHash reproduces the classic 31-multiplier string hash over UTF-16
// code units with 32-bit shifts, returning its absolute value.
func styleNameHash(name string) int64 {
	var hash int32
	for _, unit := range utf16.Encode([]rune(name)) {
		shifted := int64(int32(uint32(hash) << 5))
		hash = int32(shifted - int64(hash) + int64(unit))
	}
	out := int64(hash)
	if out < 0 {
		out = -out
	}
	return out
}
