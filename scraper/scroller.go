package scraper

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// ScrollOutcome is the terminal state of one convergence loop.
type ScrollOutcome int

const (
	// ScrollConverged means the item count held steady long enough.
	ScrollConverged ScrollOutcome = iota
	// ScrollExhausted means the attempt ceiling was hit while the count was
	// possibly still growing. Not an error, only a coverage-risk signal.
	ScrollExhausted
	// ScrollCancelled means the run context ended mid-loop.
	ScrollCancelled
)

func (o ScrollOutcome) String() string {
	switch o {
	case ScrollConverged:
		return "converged"
	case ScrollExhausted:
		return "exhausted"
	case ScrollCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ScrollResult reports how a convergence loop ended and what it saw.
type ScrollResult struct {
	Outcome   ScrollOutcome
	ItemCount int
	Cycles    int
}

// scrollState tracks convergence progress for a single work unit.
type scrollState struct {
	previousCount int
	stableCycles  int
	attempts      int
}

// Scroller drives a content source until the visible item set stabilizes.
// Stability is decided over stabilityThreshold consecutive no-growth samples
// rather than a single one, so a transient render stall does not end the loop
// early.
type Scroller struct {
	pause              time.Duration
	jitter             time.Duration
	stabilityThreshold int
	maxAttempts        int
	metrics            *Metrics
}

// NewScroller builds a scroller; metrics may be nil.
func NewScroller(pause, jitter time.Duration, stabilityThreshold, maxAttempts int, metrics *Metrics) *Scroller {
	if stabilityThreshold <= 0 {
		stabilityThreshold = 1
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Scroller{
		pause:              pause,
		jitter:             jitter,
		stabilityThreshold: stabilityThreshold,
		maxAttempts:        maxAttempts,
		metrics:            metrics,
	}
}

// LoadAll loops: trigger more content, pause with jitter, sample the item
// count. It returns once the count has been stable for the threshold, the
// attempt ceiling is reached, or the context ends; all three leave the page
// holding the snapshot the caller should extract.
func (s *Scroller) LoadAll(ctx context.Context, src ContentSource) (ScrollResult, error) {
	state := scrollState{}

	for state.attempts < s.maxAttempts && state.stableCycles < s.stabilityThreshold {
		if ctx.Err() != nil {
			return ScrollResult{Outcome: ScrollCancelled, ItemCount: state.previousCount, Cycles: state.attempts}, nil
		}

		if err := src.TriggerMoreContent(ctx); err != nil {
			return ScrollResult{ItemCount: state.previousCount, Cycles: state.attempts}, err
		}
		if err := s.wait(ctx); err != nil {
			return ScrollResult{Outcome: ScrollCancelled, ItemCount: state.previousCount, Cycles: state.attempts}, nil
		}

		count, err := src.ItemCount(ctx)
		if err != nil {
			return ScrollResult{ItemCount: state.previousCount, Cycles: state.attempts}, err
		}

		if count == state.previousCount {
			state.stableCycles++
		} else {
			state.stableCycles = 0
			state.previousCount = count
		}
		state.attempts++
		s.metrics.IncScrollCycles()

		slog.Debug("scroll cycle",
			slog.Int("attempt", state.attempts),
			slog.Int("items", count),
			slog.Int("stable_cycles", state.stableCycles),
		)
	}

	outcome := ScrollConverged
	if state.stableCycles < s.stabilityThreshold {
		outcome = ScrollExhausted
	}
	return ScrollResult{Outcome: outcome, ItemCount: state.previousCount, Cycles: state.attempts}, nil
}

// wait sleeps for the base pause plus bounded random jitter, aborting on ctx.
func (s *Scroller) wait(ctx context.Context) error {
	delay := s.pause
	if s.jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(s.jitter)))
	}
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
