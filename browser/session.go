// Package browser implements the page-loading collaborator on top of a
// headless Chromium instance driven through go-rod.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/stylescrape/stylescrape/media"
	"github.com/stylescrape/stylescrape/models"
	"github.com/stylescrape/stylescrape/sites"
)

// Launch starts a browser instance. The caller owns the returned browser and
// must Close it.
func Launch(headless bool) (*rod.Browser, error) {
	url, err := launcher.New().
		Headless(headless).
		NoSandbox(true).
		Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	return b, nil
}

// Session is one browsing tab bound to a site adapter. It implements
// scraper.Session. Not safe for concurrent use; the runner drives it from a
// single goroutine.
type Session struct {
	page       *rod.Page
	adapter    *sites.Adapter
	navTimeout time.Duration
}

// NewSession opens a page with a rotated client identity.
func NewSession(b *rod.Browser, adapter *sites.Adapter, navTimeout time.Duration) (*Session, error) {
	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("browser: open page: %w", err)
	}

	err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: media.RandomUserAgent(),
	})
	if err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: set user agent: %w", err)
	}

	return &Session{
		page:       page,
		adapter:    adapter,
		navTimeout: navTimeout,
	}, nil
}

// Navigate loads url and waits for the initial render.
func (s *Session) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx).Timeout(s.navTimeout)
	if err := page.Navigate(url); err != nil {
		return err
	}
	return page.WaitLoad()
}

// TriggerMoreContent scrolls the viewport to the bottom of the document,
// which is what makes these listings load their next chunk.
func (s *Session) TriggerMoreContent(ctx context.Context) error {
	_, err := s.page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

// ItemCount reports how many listing items are currently rendered.
func (s *Session) ItemCount(ctx context.Context) (int, error) {
	elements, err := s.page.Context(ctx).Elements(s.adapter.ItemSelector)
	if err != nil {
		return 0, err
	}
	return len(elements), nil
}

// QueryItems snapshots the rendered page and extracts every listing item
// through the adapter's field bindings.
func (s *Session) QueryItems(ctx context.Context) ([]models.RawItem, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("browser: parse page html: %w", err)
	}

	var items []models.RawItem
	doc.Find(s.adapter.ItemSelector).Each(func(_ int, sel *goquery.Selection) {
		items = append(items, s.adapter.ExtractRaw(sel))
	})
	return items, nil
}

// Close shuts the tab down.
func (s *Session) Close() error {
	return s.page.Close()
}
