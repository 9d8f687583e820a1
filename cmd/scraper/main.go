package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/noah-isme/dance-board-api/internal/models"
	"github.com/noah-isme/dance-board-api/internal/repository"
	"github.com/noah-isme/dance-board-api/internal/scraper"
	"github.com/noah-isme/dance-board-api/pkg/cache"
	"github.com/noah-isme/dance-board-api/pkg/config"
	"github.com/noah-isme/dance-board-api/pkg/logger"
)

func main() {
	var (
		savePath   string
		upload     bool
		useBrowser bool
	)
	flag.StringVar(&savePath, "save", "", "Write new classes as JSON to this file")
	flag.BoolVar(&upload, "upload", false, "Merge new classes into the shared schedule")
	flag.BoolVar(&useBrowser, "browser", true, "Render script-driven sites with headless Chrome")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var docs *repository.DocumentRepository
	if client, err := cache.NewRedis(ctx, cfg.Redis); err == nil {
		defer client.Close() //nolint:errcheck
		docs = repository.NewDocumentRepository(client, logr)
	} else {
		logr.Warn("shared schedule unavailable, comparing against nothing", zap.Error(err))
	}

	existing, err := loadExisting(ctx, docs)
	if err != nil {
		logr.Warn("could not read shared schedule", zap.Error(err))
	}
	logr.Info("existing classes", zap.Int("count", len(existing)))

	var browser scraper.Fetcher
	if useBrowser {
		browser = scraper.NewBrowserFetcher(cfg.Scraper.BrowserTimeout, cfg.Scraper.UserAgent)
	}
	s := scraper.New(scraper.DefaultSources(), scraper.NewHTTPFetcher(cfg.Scraper.HTTPTimeout, cfg.Scraper.UserAgent), browser, logr)

	found := s.ScrapeAll(ctx)
	fresh := scraper.FindNewClasses(found, existing)
	logr.Info("scrape finished",
		zap.Int("scraped", len(found)),
		zap.Int("already_listed", len(found)-len(fresh)),
		zap.Int("new", len(fresh)),
	)
	if len(fresh) == 0 {
		return
	}

	out, _ := json.MarshalIndent(fresh, "", "  ")
	fmt.Println(string(out))

	if savePath != "" {
		if err := os.WriteFile(savePath, out, 0o644); err != nil {
			logr.Error("save new classes", zap.String("path", savePath), zap.Error(err))
		} else {
			logr.Info("new classes saved", zap.String("path", savePath))
		}
	}

	if !upload {
		logr.Info("run with -upload to add new classes to the shared schedule")
		return
	}
	if docs == nil {
		logr.Error("upload requested but shared schedule is unavailable")
		os.Exit(1)
	}
	merged := append(models.CloneClasses(existing), fresh...)
	doc, err := docs.Set(ctx, models.DocumentKeySchedule, models.ScheduleDocument{UserID: cfg.Remote.UserID, Classes: merged})
	if err != nil {
		logr.Error("upload failed", zap.Error(err))
		os.Exit(1)
	}
	logr.Info("new classes uploaded", zap.Int("added", len(fresh)), zap.String("last_updated", doc.LastUpdated))
}

func loadExisting(ctx context.Context, docs *repository.DocumentRepository) ([]models.ClassRecord, error) {
	if docs == nil {
		return nil, nil
	}
	doc, err := docs.Get(ctx, models.DocumentKeySchedule)
	if err != nil || doc == nil {
		return nil, err
	}
	var schedule models.ScheduleDocument
	if err := json.Unmarshal(doc.Data, &schedule); err != nil {
		return nil, fmt.Errorf("decode shared schedule: %w", err)
	}
	return schedule.Classes, nil
}
