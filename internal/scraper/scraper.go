package scraper

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dance-board-api/internal/models"
)

// Scraper collects upcoming classes from teacher sites.
type Scraper struct {
	sources []Source
	http    Fetcher
	browser Fetcher
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

// New builds a scraper. A nil browser fetcher skips sources that need one.
func New(sources []Source, httpFetcher, browserFetcher Fetcher, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		sources: sources,
		http:    httpFetcher,
		browser: browserFetcher,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// ScrapeAll fetches every source, keeps named classes dated today or later,
// assigns ids and drops duplicates. A failing source is logged and skipped.
func (s *Scraper) ScrapeAll(ctx context.Context) []models.ClassRecord {
	now := s.now()
	today := now.UTC().Format("2006-01-02")

	var all []models.ClassRecord
	for _, src := range s.sources {
		log := s.logger.With(zap.String("source", src.Name))
		fetcher := s.http
		if src.NeedsBrowser {
			fetcher = s.browser
		}
		if fetcher == nil {
			log.Info("source skipped, no fetcher available")
			continue
		}
		html, err := fetcher.Fetch(ctx, src.URL)
		if err != nil {
			log.Warn("source fetch failed", zap.Error(err))
			continue
		}

		upcoming := 0
		for _, c := range src.Parse(html, src, now) {
			if c.Date < today || c.Name == "" {
				continue
			}
			c.ID = s.newID()
			all = append(all, c)
			upcoming++
		}
		log.Info("source scraped", zap.Int("upcoming", upcoming))
	}
	return Dedupe(all)
}

// ClassKey identifies a class occurrence across sources.
func ClassKey(c models.ClassRecord) string {
	return c.Date + "|" + c.Time + "|" + c.Teacher
}

// Dedupe keeps the first class for each key.
func Dedupe(classes []models.ClassRecord) []models.ClassRecord {
	seen := make(map[string]struct{}, len(classes))
	out := make([]models.ClassRecord, 0, len(classes))
	for _, c := range classes {
		key := ClassKey(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// FindNewClasses returns the scraped classes not already in existing.
func FindNewClasses(scraped, existing []models.ClassRecord) []models.ClassRecord {
	known := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		known[ClassKey(c)] = struct{}{}
	}
	var out []models.ClassRecord
	for _, c := range scraped {
		if _, ok := known[ClassKey(c)]; !ok {
			out = append(out, c)
		}
	}
	return out
}
