package scraper

import (
	"time"

	"github.com/noah-isme/dance-board-api/internal/models"
)

// ParseFunc extracts classes from a fetched page. now anchors year-less dates.
type ParseFunc func(html string, src Source, now time.Time) []models.ClassRecord

// Source is one teacher site.
type Source struct {
	Name         string
	URL          string
	Teacher      string
	Instagram    string
	Region       string
	NeedsBrowser bool
	Parse        ParseFunc
}

// DefaultSources lists the sites the scraper knows how to read.
func DefaultSources() []Source {
	return []Source{
		{
			Name:      "Vinita Hazari",
			URL:       "https://vinihazari.com/shop/sort/new-york-classes/",
			Teacher:   "Vinita Hazari",
			Instagram: "vinihazari",
			Region:    models.RegionNYC,
			Parse:     ParseVinitaHazari,
		},
		{
			Name:         "IMGE Dance",
			URL:          "https://www.imgedance.com/events",
			Teacher:      "Ishita Mili",
			Instagram:    "imaboringartist",
			Region:       models.RegionNYC,
			NeedsBrowser: true,
			Parse:        ParseIMGE,
		},
		{
			Name:         "Dance With Tushita",
			URL:          "https://www.dancewithtushita.com/workshops",
			Teacher:      "Tushita Shrivastav",
			Instagram:    "tushita.shrivastav",
			Region:       models.RegionNYC,
			NeedsBrowser: true,
			Parse:        ParseTushita,
		},
	}
}
