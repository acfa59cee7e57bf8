package parser

import (
	"testing"

	"github.com/stylescrape/stylescrape/models"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "plain", input: "Nike Air Max", expected: "Nike Air Max"},
		{name: "internal runs", input: "Nike   Air \t Max", expected: "Nike Air Max"},
		{name: "surrounding whitespace", input: "  Nike Air Max \n", expected: "Nike Air Max"},
		{name: "newlines", input: "Nike\nAir\nMax", expected: "Nike Air Max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.expected {
				t.Fatalf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *float64
	}{
		{name: "rupee with separators", input: "₹3,499.00", expected: f(3499)},
		{name: "plain digits", input: "2999", expected: f(2999)},
		{name: "currency prefix", input: "Rs. 1,250", expected: f(1250)},
		{name: "currency prefix no space", input: "Rs.999", expected: f(999)},
		{name: "labelled price", input: "MRP Rs. 2,500.50", expected: f(2500.50)},
		{name: "currency marker only", input: "Rs.", expected: nil},
		{name: "empty", input: "", expected: nil},
		{name: "words only", input: "Free", expected: nil},
		{name: "separators only", input: ",,", expected: nil},
		{name: "multiple dots", input: "1.2.3", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.input)
			if (got == nil) != (tt.expected == nil) {
				t.Fatalf("ParsePrice(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			if got != nil && *got != *tt.expected {
				t.Fatalf("ParsePrice(%q) = %v, want %v", tt.input, *got, *tt.expected)
			}
		})
	}
}

func TestClassifyTierBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		price    *float64
		expected models.Tier
	}{
		{name: "absent", price: nil, expected: models.TierUnknown},
		{name: "zero", price: f(0), expected: models.TierAffordable},
		{name: "just below mid", price: f(2999.99), expected: models.TierAffordable},
		{name: "mid lower bound", price: f(3000), expected: models.TierMid},
		{name: "just below expensive", price: f(7999.99), expected: models.TierMid},
		{name: "expensive lower bound", price: f(8000), expected: models.TierExpensive},
		{name: "well above", price: f(125000), expected: models.TierExpensive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTier(tt.price); got != tt.expected {
				t.Fatalf("ClassifyTier(%v) = %q, want %q", tt.price, got, tt.expected)
			}
		})
	}
}

func TestClassifyTierMonotonic(t *testing.T) {
	order := map[models.Tier]int{
		models.TierAffordable: 0,
		models.TierMid:        1,
		models.TierExpensive:  2,
	}
	prev := -1
	for _, price := range []float64{0, 1, 1500, 2999, 3000, 4500, 7999, 8000, 20000} {
		tier := ClassifyTier(f(price))
		rank, ok := order[tier]
		if !ok {
			t.Fatalf("ClassifyTier(%v) = %q, not a priced tier", price, tier)
		}
		if rank < prev {
			t.Fatalf("tier rank decreased at price %v", price)
		}
		prev = rank
	}
}

func TestExtractProductID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{name: "marker with query", url: "https://www.ajio.com/x/p/460123456_blue?src=search", expected: "460123456_blue"},
		{name: "marker no query", url: "https://www.ajio.com/x/p/460123456", expected: "460123456"},
		{name: "no marker", url: "https://www.ajio.com/search/shoes", expected: ""},
		{name: "empty url", url: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractProductID(tt.url, "/p/"); got != tt.expected {
				t.Fatalf("ExtractProductID(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestExtractFullItem(t *testing.T) {
	unit := models.WorkUnit{Category: "Shoes", Gender: "Women", Keyword: "women+heels"}
	raw := models.RawItem{
		Href:          "/brandx/p/12345?src=search",
		Name:          "  Block  Heel   Sandals ",
		Brand:         "BrandX",
		Price:         "₹2,999.00",
		OriginalPrice: "₹4,999.00",
		Discount:      "40% off",
		Rating:        "4.2",
		Reviews:       "118",
		ImageURL:      "https://img.example.com/12345.jpg",
	}

	record := Extract(raw, unit, "Ajio", "https://www.ajio.com", "/p/")

	if record.ProductID != "12345" {
		t.Fatalf("product id = %q, want 12345", record.ProductID)
	}
	if record.ProductURL != "https://www.ajio.com/brandx/p/12345?src=search" {
		t.Fatalf("product url = %q", record.ProductURL)
	}
	if record.ProductName != "Block Heel Sandals" {
		t.Fatalf("product name = %q", record.ProductName)
	}
	if record.Price == nil || *record.Price != 2999 {
		t.Fatalf("price = %v, want 2999", record.Price)
	}
	if record.OriginalPrice == nil || *record.OriginalPrice != 4999 {
		t.Fatalf("original price = %v, want 4999", record.OriginalPrice)
	}
	if record.PriceTier != models.TierAffordable {
		t.Fatalf("tier = %q, want affordable", record.PriceTier)
	}
	if record.Category != "Shoes" || record.Gender != "Women" {
		t.Fatalf("unit fields not carried: %q/%q", record.Category, record.Gender)
	}
	if record.SourcePlatform != "Ajio" {
		t.Fatalf("platform = %q", record.SourcePlatform)
	}
}

func TestExtractDegradesOnEmptyInput(t *testing.T) {
	unit := models.WorkUnit{Category: "Bags", Gender: "Men", Keyword: "men+sling+bag"}

	record := Extract(models.RawItem{}, unit, "Ajio", "https://www.ajio.com", "/p/")

	if record.ProductName != "" {
		t.Fatalf("product name = %q, want empty", record.ProductName)
	}
	if record.Price != nil {
		t.Fatalf("price = %v, want nil", record.Price)
	}
	if record.PriceTier != models.TierUnknown {
		t.Fatalf("tier = %q, want unknown", record.PriceTier)
	}
	if record.Rating != "0" || record.ReviewCount != "0" {
		t.Fatalf("rating/reviews = %q/%q, want 0/0", record.Rating, record.ReviewCount)
	}
}

func TestExtractFallsBackToOriginalPrice(t *testing.T) {
	unit := models.WorkUnit{Category: "Shoes", Gender: "Men", Keyword: "men+sneakers"}
	raw := models.RawItem{
		Name:          "Runner",
		OriginalPrice: "₹9,000",
	}

	record := Extract(raw, unit, "Ajio", "https://www.ajio.com", "/p/")

	if record.Price == nil || *record.Price != 9000 {
		t.Fatalf("price = %v, want 9000", record.Price)
	}
	if record.OriginalPrice != nil {
		t.Fatalf("original price should move into price when price is absent")
	}
	if record.PriceTier != models.TierExpensive {
		t.Fatalf("tier = %q, want expensive", record.PriceTier)
	}
}

func f(v float64) *float64 {
	return &v
}
