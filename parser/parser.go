// Package parser normalizes raw listing fields and builds canonical records.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/stylescrape/stylescrape/models"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonPriceRe   = regexp.MustCompile(`[^\d.]`)
)

// NormalizeText collapses internal whitespace runs to a single space and trims
// the ends. Empty input yields an empty string.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ParsePrice extracts a decimal price from free-form text such as "₹3,499.00".
// Thousands separators are stripped first, then everything except digits and
// dots. Abbreviated currency markers ("Rs. 1,250") leave a stray leading dot
// behind; those are trimmed so the prefix cannot shift the decimal point.
// Unparsable input is reported as nil, never as an error.
func ParsePrice(s string) *float64 {
	if s == "" {
		return nil
	}
	cleaned := nonPriceRe.ReplaceAllString(strings.ReplaceAll(s, ",", ""), "")
	cleaned = strings.TrimLeft(cleaned, ".")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ClassifyTier maps a price to its tier. The boundaries are inclusive lower
// bounds: 3000 is mid, 8000 is expensive.
func ClassifyTier(price *float64) models.Tier {
	switch {
	case price == nil:
		return models.TierUnknown
	case *price < 3000:
		return models.TierAffordable
	case *price < 8000:
		return models.TierMid
	default:
		return models.TierExpensive
	}
}

// ExtractProductID returns the URL path segment following the product-path
// marker (e.g. "/p/"), stripped of query parameters. Empty when the marker is
// not present.
func ExtractProductID(rawURL, marker string) string {
	if rawURL == "" || marker == "" {
		return ""
	}
	idx := strings.Index(rawURL, marker)
	if idx < 0 {
		return ""
	}
	id := rawURL[idx+len(marker):]
	if q := strings.IndexByte(id, '?'); q >= 0 {
		id = id[:q]
	}
	return id
}

// Extract maps one raw listing snapshot into a canonical record. It is total:
// every missing or malformed field degrades to an empty/absent value and the
// function always returns a record. Callers drop records with an empty
// product_name as failed extractions.
func Extract(raw models.RawItem, unit models.WorkUnit, platform, baseURL, idMarker string) models.ProductRecord {
	productURL := raw.Href
	if productURL != "" && strings.HasPrefix(productURL, "/") {
		productURL = baseURL + productURL
	}

	rating := NormalizeText(raw.Rating)
	if rating == "" {
		rating = "0"
	}
	reviews := NormalizeText(raw.Reviews)
	if reviews == "" {
		reviews = "0"
	}

	price := ParsePrice(raw.Price)
	original := ParsePrice(raw.OriginalPrice)
	if price == nil {
		// Listings sometimes expose only the struck-through price.
		price = original
		original = nil
	}

	return models.ProductRecord{
		ProductID:      ExtractProductID(productURL, idMarker),
		Category:       unit.Category,
		Gender:         unit.Gender,
		ProductURL:     productURL,
		ProductName:    NormalizeText(raw.Name),
		Brand:          NormalizeText(raw.Brand),
		Price:          price,
		OriginalPrice:  original,
		DiscountText:   NormalizeText(raw.Discount),
		Rating:         rating,
		ReviewCount:    reviews,
		PriceTier:      ClassifyTier(price),
		ImageURL:       raw.ImageURL,
		SourcePlatform: platform,
	}
}
