// Package media derives deterministic image paths and mirrors remote images
// to local storage.
package media

import (
	"path/filepath"
	"regexp"
	"strings"
)

const imageExt = ".jpg"

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9\s]+`)

// slug lowercases s, strips non-alphanumeric characters, collapses whitespace
// runs into single hyphens, and truncates to maxLen.
func slug(s string, maxLen int) string {
	s = nonAlnumRe.ReplaceAllString(strings.ToLower(s), "")
	s = strings.Join(strings.Fields(s), "-")
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}

// DeriveName builds the image filename for a product. The derivation is
// deterministic: identical inputs always produce the identical name, which is
// what lets Fetch short-circuit on files from earlier runs. When productID is
// non-empty it is prefixed to keep near-duplicate name+brand pairs apart.
func DeriveName(productName, brand, productID string) string {
	name := slug(productName, 60)
	b := slug(brand, 30)
	if b == "" {
		b = "nobrand"
	}
	if productID != "" {
		return productID + "-" + name + "-" + b + imageExt
	}
	return name + "-" + b + imageExt
}

// FolderFor returns the absolute destination directory for a unit's images.
func FolderFor(imagesRoot, category, gender string) string {
	return filepath.Join(imagesRoot, category, gender)
}

// RelativePath returns the image path stored in the record, relative to the
// run's output root.
func RelativePath(category, gender, filename string) string {
	return filepath.Join("images", category, gender, filename)
}
