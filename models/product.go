// Package models defines data structures shared across the scraper.
package models

import "time"

// Tier buckets a product by its current price.
type Tier string

const (
	TierUnknown    Tier = "unknown"
	TierAffordable Tier = "affordable"
	TierMid        Tier = "mid"
	TierExpensive  Tier = "expensive"
)

// WorkUnit identifies one (category, gender, keyword) search to scrape.
// Units are enumerated once from configuration and never mutated.
type WorkUnit struct {
	Category string `json:"category"`
	Gender   string `json:"gender"`
	Keyword  string `json:"keyword"`
}

// RawItem is the opaque snapshot of a single listing entry as exposed by the
// page session. Every field may be empty; no invariants hold here.
type RawItem struct {
	Href          string
	Name          string
	Brand         string
	Price         string
	OriginalPrice string
	Discount      string
	Rating        string
	Reviews       string
	ImageURL      string
	ImageAlt      string
}

// ProductRecord is the canonical, immutable product row written to the outputs.
// Price holds the current (possibly discounted) price; OriginalPrice the
// struck-through one when the listing shows both.
type ProductRecord struct {
	ProductID      string   `csv:"product_id" json:"product_id"`
	Category       string   `csv:"category" json:"category"`
	Gender         string   `csv:"gender" json:"gender"`
	ProductURL     string   `csv:"product_url" json:"product_url"`
	ProductName    string   `csv:"product_name" json:"product_name"`
	Brand          string   `csv:"brand" json:"brand"`
	Price          *float64 `csv:"price" json:"price"`
	OriginalPrice  *float64 `csv:"original_price" json:"original_price"`
	DiscountText   string   `csv:"discount_percent" json:"discount_percent"`
	Rating         string   `csv:"rating" json:"rating"`
	ReviewCount    string   `csv:"review_count" json:"review_count"`
	PriceTier      Tier     `csv:"price_tier" json:"price_tier"`
	ImageURL       string   `csv:"image_url" json:"image_url"`
	ImageLocalPath string   `csv:"image_local_path" json:"image_local_path"`
	SourcePlatform string   `csv:"source_platform" json:"source_platform"`
}

// RunSummary accumulates counters over a whole run. It is owned by the runner;
// callers read it only after Run returns.
type RunSummary struct {
	TotalScraped      int
	FailedExtractions int
	ImagesDownloaded  int
	SkippedUnits      int
	PerKeyword        map[string]int
	PerCategory       map[string]int
	PerBrand          map[string]int
	StartTime         time.Time
	EndTime           time.Time
}

// NewRunSummary initialises the tally maps and stamps the start time.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		PerKeyword:  make(map[string]int),
		PerCategory: make(map[string]int),
		PerBrand:    make(map[string]int),
		StartTime:   time.Now(),
	}
}

// SuccessRate returns accepted/(accepted+failed) as a percentage, 0 when the
// run produced nothing at all.
func (s *RunSummary) SuccessRate() float64 {
	total := s.TotalScraped + s.FailedExtractions
	if total == 0 {
		return 0
	}
	return float64(s.TotalScraped) / float64(total) * 100
}

// Elapsed returns the wall-clock duration of the run.
func (s *RunSummary) Elapsed() time.Duration {
	end := s.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.StartTime)
}

// PerMinute returns accepted records per elapsed minute, 0-safe.
func (s *RunSummary) PerMinute() float64 {
	minutes := s.Elapsed().Minutes()
	if minutes <= 0 {
		return 0
	}
	return float64(s.TotalScraped) / minutes
}
