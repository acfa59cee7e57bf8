package media

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
)

var (
	// ErrUnavailable is returned when every download attempt failed.
	ErrUnavailable = errors.New("media: unavailable after all attempts")
	// ErrCancelled is returned when the run context ended mid-fetch.
	ErrCancelled = errors.New("media: fetch cancelled")
)

// Fetcher downloads remote images with bounded retries. A fetch is idempotent
// on its destination path: files left by earlier runs are returned without any
// network traffic.
type Fetcher struct {
	client      *resty.Client
	maxAttempts int
	backoffBase time.Duration
}

// NewFetcher builds a fetcher issuing up to maxAttempts tries per image.
func NewFetcher(maxAttempts int, timeout time.Duration) *Fetcher {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return &Fetcher{
		client:      client,
		maxAttempts: maxAttempts,
		backoffBase: time.Second,
	}
}

// Client exposes the underlying HTTP client so tests can install a mock
// transport.
func (f *Fetcher) Client() *resty.Client {
	return f.client
}

// Fetch mirrors url to destPath and returns the path actually on disk. Each
// attempt carries a freshly rotated User-Agent; failed attempts back off for a
// randomized interval before retrying. The body is written to a temp file and
// renamed into place only once the payload checks out, so a failed fetch never
// leaves a corrupt file at destPath.
func (f *Fetcher) Fetch(ctx context.Context, url, destPath string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("media: empty url")
	}
	if _, err := os.Stat(destPath); err == nil {
		return destPath, nil
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", fmt.Errorf("media: create destination dir: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := f.sleep(ctx); err != nil {
				return "", err
			}
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}

		resp, err := f.client.R().
			SetContext(ctx).
			SetHeader("User-Agent", RandomUserAgent()).
			Get(url)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			}
			lastErr = err
			continue
		}
		if resp.StatusCode() != http.StatusOK {
			lastErr = fmt.Errorf("status %d", resp.StatusCode())
			continue
		}

		body := resp.Body()
		if len(body) == 0 || !isImage(body) {
			lastErr = fmt.Errorf("payload is not an image")
			continue
		}

		if err := commit(body, destPath); err != nil {
			lastErr = err
			continue
		}
		return destPath, nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	}
	return "", ErrUnavailable
}

// sleep waits out the randomized retry backoff, aborting early on ctx.
func (f *Fetcher) sleep(ctx context.Context) error {
	delay := f.backoffBase + time.Duration(rand.Int63n(int64(time.Second)))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func isImage(body []byte) bool {
	return strings.HasPrefix(mimetype.Detect(body).String(), "image/")
}

// commit writes body next to destPath and renames it into place.
func commit(body []byte, destPath string) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, destPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
