package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stylescrape/stylescrape/browser"
	"github.com/stylescrape/stylescrape/config"
	"github.com/stylescrape/stylescrape/media"
	"github.com/stylescrape/stylescrape/models"
	"github.com/stylescrape/stylescrape/pipeline"
	"github.com/stylescrape/stylescrape/scraper"
	"github.com/stylescrape/stylescrape/sites"
)

func main() {
	godotenv.Load()

	defaultCfg := config.DefaultConfig()
	platformDefault := defaultCfg.Platform
	if value, ok := config.EnvString("SCRAPER_PLATFORM"); ok {
		platformDefault = value
	}
	outputDefault := defaultCfg.OutputRoot
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		outputDefault = value
	}
	workersDefault := defaultCfg.MediaWorkers
	if value, ok, err := config.EnvInt("SCRAPER_MEDIA_WORKERS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_MEDIA_WORKERS: %v\n", err)
		os.Exit(1)
	} else if ok {
		workersDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	platform := flag.String("platform", platformDefault, "Target platform: ajio or culturecircle")
	outputRoot := flag.String("output", outputDefault, "Directory holding the timestamped run folder")
	unitsFile := flag.String("units", "", "JSON file of category/gender/keyword work units")
	headless := flag.Bool("headless", defaultCfg.Headless, "Run the browser headless")
	downloadImages := flag.Bool("download-images", defaultCfg.DownloadImages, "Mirror product images locally")
	mediaWorkers := flag.Int("media-workers", workersDefault, "Concurrent image download workers")
	scrollTries := flag.Int("scroll-tries", defaultCfg.MaxScrollTries, "Maximum scroll cycles per work unit")
	stableCycles := flag.Int("stable-cycles", defaultCfg.StableCycles, "No-growth cycles required to call a page converged")
	deadline := flag.Duration("deadline", defaultCfg.RunDeadline, "Run deadline (0 disables)")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.Platform = *platform
	cfg.OutputRoot = *outputRoot
	cfg.WorkUnitsFile = *unitsFile
	cfg.Headless = *headless
	cfg.DownloadImages = *downloadImages
	cfg.MediaWorkers = *mediaWorkers
	cfg.MaxScrollTries = *scrollTries
	cfg.StableCycles = *stableCycles
	cfg.RunDeadline = *deadline
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	adapter, err := sites.Lookup(cfg.Platform)
	if err != nil {
		slog.Error("unknown platform", slog.Any("error", err))
		os.Exit(1)
	}

	units, err := config.LoadWorkUnits(cfg.WorkUnitsFile)
	if err != nil {
		slog.Error("loading work units", slog.Any("error", err))
		os.Exit(1)
	}

	paths := config.NewRunPaths(cfg.OutputRoot, adapter.OutPrefix, time.Now())
	if err := paths.Ensure(); err != nil {
		slog.Error("creating run directories", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting scrape",
		slog.String("platform", adapter.Name),
		slog.Int("work_units", len(units)),
		slog.String("run_dir", paths.RunDir),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.RunDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunDeadline)
		defer cancel()
	}
	go func() {
		<-ctx.Done()
		slog.Info("shutdown requested, finishing current work and persisting")
	}()

	b, err := browser.Launch(cfg.Headless)
	if err != nil {
		slog.Error("launching browser", slog.Any("error", err))
		os.Exit(1)
	}
	defer b.Close()

	session, err := browser.NewSession(b, adapter, cfg.NavTimeout)
	if err != nil {
		slog.Error("opening browser session", slog.Any("error", err))
		os.Exit(1)
	}
	defer session.Close()

	writer, err := pipeline.NewDualWriter(paths.CSVFile, paths.JSONFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}

	p, err := pipeline.NewPipeline(writer, cfg.PipelineBufferSize, cfg.BatchSize, cfg.DedupCacheSize)
	if err != nil {
		slog.Error("creating pipeline", slog.Any("error", err))
		os.Exit(1)
	}
	// One worker keeps output order equal to discovery order.
	p.Start(1)

	var fetcher *media.Fetcher
	if cfg.DownloadImages {
		fetcher = media.NewFetcher(cfg.ImageMaxAttempts, cfg.ImageTimeout)
	}

	runner := scraper.NewRunner(cfg, adapter, session, fetcher, units, paths)

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(runner.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	summary, runErr := runner.Run(ctx, p)
	if runErr != nil {
		slog.Warn("run ended early", slog.Any("error", runErr))
	}

	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		slog.Error("close writer", slog.Any("error", err))
		os.Exit(1)
	}
	if summary.TotalScraped > 0 {
		if err := writer.Validate(); err != nil {
			slog.Error("output validation failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(summary, paths)
}

func printSummary(summary *models.RunSummary, paths config.RunPaths) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")
	fmt.Printf("  Total products:     %d\n", summary.TotalScraped)
	fmt.Printf("  Failed extractions: %d\n", summary.FailedExtractions)
	fmt.Printf("  Success rate:       %.2f%%\n", summary.SuccessRate())
	fmt.Printf("  Images downloaded:  %d\n", summary.ImagesDownloaded)
	fmt.Printf("  Skipped units:      %d\n", summary.SkippedUnits)
	fmt.Printf("  Elapsed:            %v\n", summary.Elapsed().Round(time.Second))
	fmt.Printf("  Products/minute:    %.2f\n", summary.PerMinute())
	fmt.Printf("  CSV file:           %s\n", paths.CSVFile)
	fmt.Printf("  JSON file:          %s\n", paths.JSONFile)

	if len(summary.PerKeyword) > 0 {
		fmt.Println("\n  Per keyword:")
		keywords := make([]string, 0, len(summary.PerKeyword))
		for k := range summary.PerKeyword {
			keywords = append(keywords, k)
		}
		sort.Strings(keywords)
		for _, k := range keywords {
			fmt.Printf("    %s: %d\n", k, summary.PerKeyword[k])
		}
	}

	if top := topBrands(summary.PerBrand, 10); len(top) > 0 {
		fmt.Println("\n  Top brands:")
		for _, b := range top {
			fmt.Printf("    %s: %d\n", b.name, b.count)
		}
	}
	fmt.Println(separator)
}

type brandCount struct {
	name  string
	count int
}

func topBrands(tally map[string]int, n int) []brandCount {
	out := make([]brandCount, 0, len(tally))
	for name, count := range tally {
		out = append(out, brandCount{name: name, count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
