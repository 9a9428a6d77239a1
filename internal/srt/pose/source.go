// Package pose connects the pipeline to the external keypoint model.
//
// The model is reached through a Source. In production an ExecEstimator
// drives a long-lived worker process; in development a FixtureSource
// replays recorded poses. A Handle owns the model for the lifetime of the
// process: it is built on first use, shared by concurrent runs and
// released on shutdown.
package pose

import (
	"context"
	"errors"
	"sync"

	"github.com/banshee-data/sitrise/internal/monitoring"
	"github.com/banshee-data/sitrise/internal/srt"
)

// ErrClosed is returned by a Handle after Close.
var ErrClosed = errors.New("pose: estimator closed")

// Source estimates at most one pose per frame. A nil pose with a nil error
// means the frame had no detection.
type Source interface {
	Estimate(ctx context.Context, framePath string) (*srt.Pose, error)
}

// Readier is implemented by sources that load their model lazily. Ready
// loads it if needed and reports whether it is usable.
type Readier interface {
	Ready() error
}

// Estimator is a Source that holds model resources.
type Estimator interface {
	Source
	Close() error
}

// Factory builds the estimator behind a Handle.
type Factory func() (Estimator, error)

// Handle lazily constructs an Estimator at most once and shares it.
type Handle struct {
	factory Factory

	once sync.Once
	est  Estimator
	err  error

	mu     sync.Mutex
	closed bool
}

// NewHandle returns a Handle that will call factory on first use.
func NewHandle(factory Factory) *Handle {
	return &Handle{factory: factory}
}

// Acquire returns the shared estimator, constructing it if needed.
// Concurrent first callers block until the single construction finishes.
func (h *Handle) Acquire() (Estimator, error) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	h.once.Do(func() {
		h.est, h.err = h.factory()
		if h.err != nil {
			monitoring.Logf("pose: estimator init failed: %v", h.err)
			return
		}
		monitoring.Logf("pose: estimator ready")
	})
	return h.est, h.err
}

// Ready implements Readier.
func (h *Handle) Ready() error {
	_, err := h.Acquire()
	return err
}

// Estimate implements Source through the shared estimator.
func (h *Handle) Estimate(ctx context.Context, framePath string) (*srt.Pose, error) {
	est, err := h.Acquire()
	if err != nil {
		return nil, err
	}
	return est.Estimate(ctx, framePath)
}

// Close releases the estimator. A Handle that was never used will not
// construct one afterwards.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	h.once.Do(func() { h.err = ErrClosed })
	if h.est == nil {
		return nil
	}
	return h.est.Close()
}
