package sites

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/stylescrape/stylescrape/models"
)

// CultureCircle binds the pipeline to the Culture Circle listing markup. Items
// there are bare anchors carrying their own href, the product name only exists
// as the image alt text, and discounted/original prices share one selector,
// told apart by a line-through class.
func CultureCircle() *Adapter {
	return &Adapter{
		Name:              "Culture Circle",
		OutPrefix:         "culturecircle",
		BaseURL:           "https://culture-circle.com",
		SearchURLFormat:   "https://culture-circle.com/search?q=%s",
		ItemSelector:      "a.flex.flex-col.gap-3.w-full",
		ProductPathMarker: "/p/",
		Selectors: Selectors{
			LinkAttr:  "href",
			Image:     "img",
			ImageAttr: "src",
		},
		ExtractHook: func(s *goquery.Selection, raw *models.RawItem) {
			if raw.Name == "" {
				raw.Name = raw.ImageAlt
			}
			if raw.Brand == "" && raw.Name != "" {
				raw.Brand = strings.Fields(raw.Name)[0]
			}
			s.Find("div.flex.items-baseline.gap-1 span").Each(func(_ int, sp *goquery.Selection) {
				txt := strings.TrimSpace(sp.Text())
				if txt == "" {
					return
				}
				if cls, _ := sp.Attr("class"); strings.Contains(cls, "line-through") {
					raw.OriginalPrice = txt
				} else {
					raw.Price = txt
				}
			})
		},
	}
}
