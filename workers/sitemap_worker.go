// workers/sitemap_worker.go
package workers

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"tips-publish-system/models"
	"tips-publish-system/services"
	"tips-publish-system/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// BuildSitemap renders the home page, the results page and every prediction page.
func BuildSitemap(baseURL string, matches []models.Match, now time.Time) ([]byte, error) {
	set := sitemapURLSet{
		XMLNS: sitemapNamespace,
		URLs: []sitemapURL{
			{Loc: baseURL + "/", LastMod: now.UTC().Format("2006-01-02"), ChangeFreq: "hourly", Priority: "1.0"},
			{Loc: baseURL + "/results", LastMod: now.UTC().Format("2006-01-02"), ChangeFreq: "daily", Priority: "0.8"},
		},
	}

	for _, m := range matches {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        baseURL + "/prediction/" + m.Slug,
			LastMod:    m.UpdatedAt.UTC().Format("2006-01-02"),
			ChangeFreq: "daily",
			Priority:   "0.6",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render sitemap: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// SitemapWorker periodically regenerates sitemap.xml.
type SitemapWorker struct {
	store      services.MatchStore
	baseURL    string
	outputPath string
	interval   time.Duration
	scheduler  gocron.Scheduler
}

func NewSitemapWorker(store services.MatchStore, baseURL, outputPath string, interval time.Duration) *SitemapWorker {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &SitemapWorker{
		store:      store,
		baseURL:    baseURL,
		outputPath: outputPath,
		interval:   interval,
	}
}

// Start schedules the job and runs it once immediately.
func (w *SitemapWorker) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := w.Generate(ctx); err != nil {
				log.Error().Err(err).Msg("[Sitemap] generation failed")
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule sitemap job: %w", err)
	}

	sched.Start()
	w.scheduler = sched
	log.Info().Dur("interval", w.interval).Msg("🗺️ Sitemap worker running")
	return nil
}

// Stop shuts the scheduler down.
func (w *SitemapWorker) Stop() error {
	if w.scheduler == nil {
		return nil
	}
	return w.scheduler.Shutdown()
}

// Generate writes the sitemap to disk and mirrors it to R2 when configured.
func (w *SitemapWorker) Generate(ctx context.Context) error {
	matches, _, err := w.store.List(ctx, models.MatchQuery{Sort: models.SortKickoffDesc})
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}

	data, err := BuildSitemap(w.baseURL, matches, time.Now())
	if err != nil {
		return err
	}

	if err := utils.WriteFileAtomic(w.outputPath, data); err != nil {
		return fmt.Errorf("write %s: %w", w.outputPath, err)
	}

	if utils.R2Enabled() {
		if _, err := utils.PutObjectToR2(ctx, "sitemap.xml", data, "application/xml"); err != nil {
			return err
		}
	}

	log.Debug().Int("urls", len(matches)+2).Str("path", w.outputPath).Msg("[Sitemap] written")
	return nil
}
