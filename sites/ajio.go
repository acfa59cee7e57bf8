package sites

// Ajio binds the pipeline to the Ajio listing markup.
func Ajio() *Adapter {
	return &Adapter{
		Name:              "Ajio",
		OutPrefix:         "ajio",
		BaseURL:           "https://www.ajio.com",
		SearchURLFormat:   "https://www.ajio.com/search/%s",
		ItemSelector:      "div.rilrtl-products-list__item",
		ProductPathMarker: "/p/",
		Selectors: Selectors{
			Link:          "a.rilrtl-products-list__link.desktop",
			LinkAttr:      "href",
			Name:          "div.nameCls",
			Brand:         "div.brand strong",
			Price:         "span.price strong",
			OriginalPrice: "span.original-price",
			Discount:      "span.discount",
			Rating:        "p._3I65V",
			Reviews:       "div._2mae- p[aria-label*='reviews']",
			Image:         "img.rilrtl-lazy-img",
			ImageAttr:     "src",
			ImageFallback: "data-src",
		},
	}
}
