package scraper

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stylescrape/stylescrape/config"
	"github.com/stylescrape/stylescrape/media"
	"github.com/stylescrape/stylescrape/models"
	"github.com/stylescrape/stylescrape/parser"
	"github.com/stylescrape/stylescrape/pipeline"
	"github.com/stylescrape/stylescrape/sites"
)

// Runner drives the whole run: one work unit at a time against a single page
// session, records streamed into the pipeline, images mirrored on a bounded
// worker pool. It owns the RunSummary; no failure short of cancellation stops
// the loop.
type Runner struct {
	cfg      *config.Config
	adapter  *sites.Adapter
	session  Session
	fetcher  *media.Fetcher
	scroller *Scroller
	units    []models.WorkUnit
	paths    config.RunPaths

	Metrics *Metrics
}

// NewRunner wires a runner. fetcher may be nil to disable image mirroring.
func NewRunner(cfg *config.Config, adapter *sites.Adapter, session Session, fetcher *media.Fetcher, units []models.WorkUnit, paths config.RunPaths) *Runner {
	metrics := NewMetrics()
	return &Runner{
		cfg:      cfg,
		adapter:  adapter,
		session:  session,
		fetcher:  fetcher,
		scroller: NewScroller(cfg.ScrollPause, cfg.ScrollJitter, cfg.StableCycles, cfg.MaxScrollTries, metrics),
		units:    units,
		paths:    paths,
		Metrics:  metrics,
	}
}

// Run processes every work unit and returns the summary. The returned error is
// non-nil only for cancellation; per-unit failures degrade to logged,
// counted gaps. Partial results stay in the pipeline either way, so the caller
// persists whatever was gathered before the stop.
func (r *Runner) Run(ctx context.Context, p *pipeline.Pipeline) (*models.RunSummary, error) {
	summary := models.NewRunSummary()
	defer func() { summary.EndTime = time.Now() }()

	for _, unit := range r.units {
		if ctx.Err() != nil {
			break
		}

		unitStart := time.Now()
		url := r.adapter.SearchURL(unit.Keyword)
		slog.Info("scraping work unit",
			slog.String("category", unit.Category),
			slog.String("gender", unit.Gender),
			slog.String("keyword", unit.Keyword),
			slog.String("url", url),
		)

		if err := r.session.Navigate(ctx, url); err != nil {
			if ctx.Err() != nil {
				break
			}
			r.skipUnit(summary, unit, NavigationError{URL: url, Err: err})
			continue
		}

		res, err := r.scroller.LoadAll(ctx, r.session)
		if err != nil {
			// A collaborator error caused by run cancellation is not a
			// navigation failure; whatever already rendered still gets
			// snapshotted below.
			if ctx.Err() == nil {
				r.skipUnit(summary, unit, NavigationError{URL: url, Err: err})
				continue
			}
			res.Outcome = ScrollCancelled
		}
		if res.Outcome == ScrollExhausted {
			slog.Warn("scroll attempts exhausted, item set may be incomplete",
				slog.String("keyword", unit.Keyword),
				slog.Int("cycles", res.Cycles),
				slog.Int("items", res.ItemCount),
			)
		}

		qctx, qcancel := snapshotContext(ctx, r.cfg.NavTimeout)
		raws, err := r.session.QueryItems(qctx)
		qcancel()
		if err != nil {
			if ctx.Err() != nil {
				slog.Warn("snapshot failed during shutdown",
					slog.String("keyword", unit.Keyword),
					slog.Any("error", err),
				)
				break
			}
			r.skipUnit(summary, unit, NavigationError{URL: url, Err: err})
			continue
		}

		accepted := r.processItems(ctx, unit, raws, p, summary)
		summary.PerKeyword[unit.Keyword] = accepted
		r.Metrics.IncUnit("completed")
		r.Metrics.ObserveUnitDuration(time.Since(unitStart))

		slog.Info("work unit done",
			slog.String("keyword", unit.Keyword),
			slog.Int("found", len(raws)),
			slog.Int("accepted", accepted),
			slog.String("scroll_outcome", res.Outcome.String()),
		)

		if res.Outcome == ScrollCancelled {
			break
		}
	}

	return summary, ctx.Err()
}

// snapshotContext returns ctx while the run is live. Once the run context has
// ended it returns a detached, deadline-bound context instead, so the items
// already rendered on the page can still be read off and persisted.
func snapshotContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx.Err() == nil {
		return ctx, func() {}
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// skipUnit records a unit-level collaborator failure: logged, counted, run
// continues with zero yield for the unit.
func (r *Runner) skipUnit(summary *models.RunSummary, unit models.WorkUnit, navErr NavigationError) {
	slog.Warn("work unit skipped",
		slog.String("keyword", unit.Keyword),
		slog.Any("error", navErr),
	)
	r.Metrics.IncNavigationFailure(errorTypeLabel(navErr.Err))
	r.Metrics.IncUnit("skipped")
	summary.SkippedUnits++
	summary.PerKeyword[unit.Keyword] = 0
}

// processItems extracts every raw item, drops nameless ones as failed
// extractions, mirrors images, and submits the survivors in discovery order.
func (r *Runner) processItems(ctx context.Context, unit models.WorkUnit, raws []models.RawItem, p *pipeline.Pipeline, summary *models.RunSummary) int {
	records := make([]*models.ProductRecord, 0, len(raws))
	for _, raw := range raws {
		record := parser.Extract(raw, unit, r.adapter.Name, r.adapter.BaseURL, r.adapter.ProductPathMarker)
		if record.ProductName == "" {
			summary.FailedExtractions++
			r.Metrics.IncExtractionFailure()
			continue
		}
		records = append(records, &record)
	}

	if r.fetcher != nil {
		r.fetchImages(ctx, unit, records, summary)
	}

	if err := p.Process(records); err != nil && !errors.Is(err, pipeline.ErrPipelineClosed) {
		slog.Error("pipeline process error", slog.Any("error", err))
	}

	for _, record := range records {
		summary.TotalScraped++
		summary.PerCategory[record.Category]++
		if record.Brand != "" {
			summary.PerBrand[record.Brand]++
		}
		r.Metrics.IncItems()
	}
	return len(records)
}

// fetchImages mirrors each record's image on a bounded pool, filling in
// image_local_path on success. Records without an image URL, and records whose
// fetch exhausts its retries, are kept as-is.
func (r *Runner) fetchImages(ctx context.Context, unit models.WorkUnit, records []*models.ProductRecord, summary *models.RunSummary) {
	sem := make(chan struct{}, r.cfg.MediaWorkers)
	var wg sync.WaitGroup
	var downloaded int64

	folder := media.FolderFor(r.paths.ImagesDir, unit.Category, unit.Gender)
	for _, record := range records {
		if record.ImageURL == "" {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(record *models.ProductRecord) {
			defer wg.Done()
			defer func() { <-sem }()

			filename := media.DeriveName(record.ProductName, record.Brand, record.ProductID)
			if _, err := r.fetcher.Fetch(ctx, record.ImageURL, filepath.Join(folder, filename)); err != nil {
				if !errors.Is(err, media.ErrCancelled) {
					slog.Debug("image fetch failed",
						slog.String("url", record.ImageURL),
						slog.Any("error", err),
					)
					r.Metrics.IncImage("failed")
				}
				return
			}
			record.ImageLocalPath = media.RelativePath(unit.Category, unit.Gender, filename)
			atomic.AddInt64(&downloaded, 1)
			r.Metrics.IncImage("downloaded")
		}(record)
	}
	wg.Wait()

	summary.ImagesDownloaded += int(atomic.LoadInt64(&downloaded))
}
