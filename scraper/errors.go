package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// NavigationError marks a work unit whose listing page could not be loaded.
// The run continues; the unit yields zero items.
type NavigationError struct {
	URL string
	Err error
}

func (e NavigationError) Error() string {
	return fmt.Sprintf("navigate %s: %v", e.URL, e.Err)
}

func (e NavigationError) Unwrap() error {
	return e.Err
}

// errorTypeLabel classifies an error for the navigation-failure metric.
func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "connection"
	}
	return "other"
}
