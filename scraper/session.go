package scraper

import (
	"context"

	"github.com/stylescrape/stylescrape/models"
)

// ContentSource is the narrow view of a page session the scroller needs: a way
// to ask for more content and a way to count what is currently visible.
type ContentSource interface {
	TriggerMoreContent(ctx context.Context) error
	ItemCount(ctx context.Context) (int, error)
}

// Session is the page-loading collaborator driven by the runner. The browser
// package provides the production implementation; tests substitute fakes.
type Session interface {
	ContentSource
	Navigate(ctx context.Context, url string) error
	QueryItems(ctx context.Context) ([]models.RawItem, error)
}
