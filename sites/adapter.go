// Package sites holds the per-site extraction adapters: the CSS bindings that
// tie the generic pipeline to one storefront's markup.
package sites

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/stylescrape/stylescrape/models"
)

// Selectors names the elements inside one listing item.
type Selectors struct {
	Link          string
	LinkAttr      string
	Name          string
	Brand         string
	Price         string
	OriginalPrice string
	Discount      string
	Rating        string
	Reviews       string
	Image         string
	ImageAttr     string
	ImageFallback string // attribute tried when ImageAttr is empty (lazy loading)
}

// Adapter describes everything site-specific the pipeline needs: where items
// live on the listing page, how to turn one into a RawItem, and how search
// URLs are built.
type Adapter struct {
	Name              string
	OutPrefix         string
	BaseURL           string
	SearchURLFormat   string // fmt format with one %s verb for the keyword
	ItemSelector      string
	ProductPathMarker string
	Selectors         Selectors

	// ExtractHook can post-process the raw item against its selection, e.g.
	// to derive a missing brand or split discounted/original prices that
	// share a selector. Optional.
	ExtractHook func(*goquery.Selection, *models.RawItem)
}

// SearchURL builds the listing URL for a work unit's keyword. Keywords are
// already URL-encoded in configuration ("women+ankle+boots"), so they are
// interpolated as-is.
func (a *Adapter) SearchURL(keyword string) string {
	return fmt.Sprintf(a.SearchURLFormat, keyword)
}

// ExtractRaw reads one listing item selection into a RawItem. Missing elements
// and attributes degrade to empty strings; this never fails.
func (a *Adapter) ExtractRaw(s *goquery.Selection) models.RawItem {
	sel := a.Selectors
	raw := models.RawItem{
		Href:          attrOr(s, sel.Link, sel.LinkAttr),
		Name:          text(s, sel.Name),
		Brand:         text(s, sel.Brand),
		Price:         text(s, sel.Price),
		OriginalPrice: text(s, sel.OriginalPrice),
		Discount:      text(s, sel.Discount),
		Rating:        text(s, sel.Rating),
		Reviews:       text(s, sel.Reviews),
	}

	raw.ImageURL = attrOr(s, sel.Image, sel.ImageAttr)
	raw.ImageAlt = attrOr(s, sel.Image, "alt")
	if raw.ImageURL == "" && sel.ImageFallback != "" {
		raw.ImageURL = attrOr(s, sel.Image, sel.ImageFallback)
	}
	if raw.ImageURL != "" && !strings.HasPrefix(raw.ImageURL, "http") {
		raw.ImageURL = ""
	}

	if a.ExtractHook != nil {
		a.ExtractHook(s, &raw)
	}
	return raw
}

func text(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return s.Find(selector).First().Text()
}

// attrOr reads attr from the first match of selector, or from the item
// element itself when selector is empty (some sites make the item its own
// link).
func attrOr(s *goquery.Selection, selector, attr string) string {
	if attr == "" {
		return ""
	}
	target := s
	if selector != "" {
		target = s.Find(selector).First()
	}
	v, _ := target.Attr(attr)
	return v
}

// Lookup returns the adapter registered under name.
func Lookup(name string) (*Adapter, error) {
	switch strings.ToLower(name) {
	case "ajio":
		return Ajio(), nil
	case "culturecircle", "culture-circle":
		return CultureCircle(), nil
	default:
		return nil, fmt.Errorf("sites: unknown platform %q", name)
	}
}
