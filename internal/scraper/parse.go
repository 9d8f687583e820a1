package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/dance-board-api/internal/models"
)

const (
	defaultLevel    = "All Levels"
	defaultLocation = "NYC (TBA)"
)

var (
	vinitaPattern  = regexp.MustCompile(`(?i)(\d{2})/(\d{2})\s+([^|]+)\|\s*([^|]+)\|\s*(\d{1,2})-(\d{1,2})(AM|PM)`)
	imgePattern    = regexp.MustCompile(`(?i)<h1[^>]*class="eventlist-title"[^>]*>([^<]+)</h1>[\s\S]*?<time[^>]*datetime="(\d{4}-\d{2}-\d{2})"[^>]*>[\s\S]*?(\d{1,2}):(\d{2})\s*(AM|PM)`)
	tushitaPattern = regexp.MustCompile(`(?i)class="product-title"[^>]*>([^<]+)<[\s\S]*?(\d{1,2})/(\d{1,2})\s*@?\s*(\d{1,2})\s*(AM|PM)`)

	imgeSkip        = regexp.MustCompile(`(?i)gala|festival|kinetic`)
	imgeRegionTag   = regexp.MustCompile(`(?i)NYC:|SF:`)
	imgeSF          = regexp.MustCompile(`(?i)SF:`)
	imgeIntensive   = regexp.MustCompile(`(?i)intensive`)
	imgeMaddieShiv  = regexp.MustCompile(`(?i)maddie.*shiv`)
	imgeRamitaIshta = regexp.MustCompile(`(?i)ramita.*ishita`)

	tushitaSkip    = regexp.MustCompile(`(?i)gift card|performance lab|bundle`)
	tushitaRound   = regexp.MustCompile(`(?i)ROUND\s*\d+`)
	tushitaPrefix  = regexp.MustCompile(`(?i)BOLLY\s*(FUSION|BADDIES):`)
	tushitaBhangra = regexp.MustCompile(`(?i)bhangra`)
	tushitaBaddies = regexp.MustCompile(`(?i)baddies`)
)

// ParseVinitaHazari reads "MM/DD Song | Style | 7-9PM" product lines.
func ParseVinitaHazari(html string, src Source, now time.Time) []models.ClassRecord {
	var out []models.ClassRecord
	for _, m := range vinitaPattern.FindAllStringSubmatch(html, -1) {
		out = append(out, baseRecord(src, models.ClassRecord{
			Name:     strings.TrimSpace(m[3]),
			Date:     fmt.Sprintf("%d-%s-%s", now.Year(), m[1], pad2(m[2])),
			Time:     clock(m[5], "00", m[7]),
			Duration: minutes(120),
			Style:    MapStyle(strings.TrimSpace(m[4])),
		}))
	}
	return out
}

// ParseIMGE reads the event list page, skipping shows and galas.
func ParseIMGE(html string, src Source, _ time.Time) []models.ClassRecord {
	var out []models.ClassRecord
	for _, m := range imgePattern.FindAllStringSubmatch(html, -1) {
		title := m[1]
		if imgeSkip.MatchString(title) {
			continue
		}
		teacher := src.Teacher
		if imgeMaddieShiv.MatchString(title) {
			teacher = "Maddie & Shiv"
		}
		if imgeRamitaIshta.MatchString(title) {
			teacher = "Ramita & Ishita"
		}
		duration := 120
		if imgeIntensive.MatchString(title) {
			duration = 180
		}
		location, region := "NYC", src.Region
		if imgeSF.MatchString(title) {
			location, region = "San Francisco", models.RegionBayArea
		}

		record := baseRecord(src, models.ClassRecord{
			Name:     strings.TrimSpace(imgeRegionTag.ReplaceAllString(title, "")),
			Date:     m[2],
			Time:     clock(m[3], m[4], m[5]),
			Duration: minutes(duration),
			Style:    "IMGE",
		})
		record.Teacher = teacher
		record.Location = location
		record.Region = region
		out = append(out, record)
	}
	return out
}

// ParseTushita reads workshop product cards, skipping gift cards and bundles.
func ParseTushita(html string, src Source, now time.Time) []models.ClassRecord {
	var out []models.ClassRecord
	for _, m := range tushitaPattern.FindAllStringSubmatch(html, -1) {
		title := m[1]
		if tushitaSkip.MatchString(title) {
			continue
		}
		style := "Bollywood Fusion"
		if tushitaBhangra.MatchString(title) {
			style = "Bhangra"
		}
		if tushitaBaddies.MatchString(title) {
			style = "Bolly Femme"
		}
		name := tushitaPrefix.ReplaceAllString(tushitaRound.ReplaceAllString(title, ""), "")
		out = append(out, baseRecord(src, models.ClassRecord{
			Name:     strings.TrimSpace(name),
			Date:     fmt.Sprintf("%d-%s-%s", now.Year(), pad2(m[2]), pad2(m[3])),
			Time:     clock(m[4], "00", m[5]),
			Duration: minutes(120),
			Style:    style,
		}))
	}
	return out
}

// MapStyle folds a free-text style into the predefined list.
func MapStyle(style string) string {
	s := strings.ToLower(style)
	switch {
	case strings.Contains(s, "semi-classical"):
		return "Semiclassical"
	case strings.Contains(s, "femme"):
		return "Bolly Femme"
	case strings.Contains(s, "bhangra"):
		return "Bhangra"
	case strings.Contains(s, "fusion"):
		return "Bollywood Fusion"
	}
	return "Bollywood"
}

func baseRecord(src Source, c models.ClassRecord) models.ClassRecord {
	c.Teacher = src.Teacher
	c.TeacherInstagram = src.Instagram
	c.Level = defaultLevel
	c.Location = defaultLocation
	c.TicketLink = src.URL
	c.Region = src.Region
	return c
}

// clock converts a 12-hour time to HH:MM.
func clock(hour, minute, meridiem string) string {
	h, _ := strconv.Atoi(hour)
	if strings.EqualFold(meridiem, "PM") && h != 12 {
		h += 12
	}
	return fmt.Sprintf("%02d:%s", h, minute)
}

func pad2(v string) string {
	if len(v) == 1 {
		return "0" + v
	}
	return v
}

func minutes(n int) *int {
	return &n
}
