// Package config holds the immutable run configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds scraper configuration. It is built once in main and passed
// down; nothing mutates it after Validate.
type Config struct {
	Platform       string
	Headless       bool
	WorkUnitsFile  string
	OutputRoot     string
	DownloadImages bool

	ScrollPause    time.Duration
	ScrollJitter   time.Duration
	MaxScrollTries int
	StableCycles   int

	NavTimeout time.Duration

	ImageMaxAttempts int
	ImageTimeout     time.Duration
	MediaWorkers     int

	PipelineBufferSize int
	BatchSize          int
	DedupCacheSize     int

	RunDeadline time.Duration // 0 means no deadline
	MetricsAddr string
	Verbose     bool
}

// DefaultConfig returns the defaults observed to work against the supported
// storefronts.
func DefaultConfig() *Config {
	return &Config{
		Platform:           "ajio",
		Headless:           true,
		OutputRoot:         ".",
		DownloadImages:     true,
		ScrollPause:        1500 * time.Millisecond,
		ScrollJitter:       800 * time.Millisecond,
		MaxScrollTries:     80,
		StableCycles:       5,
		NavTimeout:         60 * time.Second,
		ImageMaxAttempts:   2,
		ImageTimeout:       12 * time.Second,
		MediaWorkers:       4,
		PipelineBufferSize: 512,
		BatchSize:          64,
		DedupCacheSize:     10000,
		RunDeadline:        0,
		MetricsAddr:        "",
		Verbose:            false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Platform == "" {
		return fmt.Errorf("platform cannot be empty")
	}
	if c.OutputRoot == "" {
		return fmt.Errorf("output root cannot be empty")
	}
	if c.ScrollPause < 0 {
		return fmt.Errorf("scroll pause cannot be negative")
	}
	if c.ScrollJitter < 0 {
		return fmt.Errorf("scroll jitter cannot be negative")
	}
	if c.MaxScrollTries <= 0 {
		return fmt.Errorf("max scroll tries must be positive")
	}
	if c.StableCycles <= 0 {
		return fmt.Errorf("stable cycles must be positive")
	}
	if c.StableCycles >= c.MaxScrollTries {
		return fmt.Errorf("stable cycles (%d) must be below max scroll tries (%d)", c.StableCycles, c.MaxScrollTries)
	}
	if c.NavTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be positive")
	}
	if c.ImageMaxAttempts <= 0 {
		return fmt.Errorf("image max attempts must be positive")
	}
	if c.ImageTimeout <= 0 {
		return fmt.Errorf("image timeout must be positive")
	}
	if c.MediaWorkers <= 0 {
		return fmt.Errorf("media workers must be positive")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupCacheSize <= 0 {
		return fmt.Errorf("dedup cache size must be positive")
	}
	if c.RunDeadline < 0 {
		return fmt.Errorf("run deadline cannot be negative")
	}
	return nil
}

// EnvInt reads an integer environment variable. The second return reports
// whether the variable was set.
func EnvInt(key string) (int, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, true, nil
}

// EnvString reads a string environment variable, reporting whether it was set.
func EnvString(key string) (string, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}

// RunPaths locates everything a single run writes: the timestamped output
// root, the image tree, and the two record files.
type RunPaths struct {
	RunDir    string
	ImagesDir string
	CSVFile   string
	JSONFile  string
}

// NewRunPaths derives the run's filesystem layout from the platform prefix and
// the run timestamp.
func NewRunPaths(root, prefix string, ts time.Time) RunPaths {
	stamp := ts.Format("20060102_150405")
	runDir := filepath.Join(root, fmt.Sprintf("%s_scrape_%s", prefix, stamp))
	return RunPaths{
		RunDir:    runDir,
		ImagesDir: filepath.Join(runDir, "images"),
		CSVFile:   filepath.Join(runDir, fmt.Sprintf("%s_products_%s.csv", prefix, stamp)),
		JSONFile:  filepath.Join(runDir, fmt.Sprintf("%s_products_%s.json", prefix, stamp)),
	}
}

// Ensure creates the run directories.
func (p RunPaths) Ensure() error {
	if err := os.MkdirAll(p.ImagesDir, 0o755); err != nil {
		return fmt.Errorf("create run directories: %w", err)
	}
	return nil
}
