// Package sampler selects the bounded, ordered set of frames that a run
// analyses. The extraction rate adapts to the video duration so short and
// long clips both land near the frame budget.
package sampler

import (
	"context"
	"fmt"
	"math"

	"github.com/banshee-data/sitrise/internal/config"
	"github.com/banshee-data/sitrise/internal/monitoring"
	"github.com/banshee-data/sitrise/internal/srt/video"
)

// Result describes one sampling pass.
type Result struct {
	Frames    []string // sampled frame files in order
	Extracted int      // frames produced by the decoder before downsampling
	Duration  float64  // seconds
	FPS       float64  // extraction rate requested
}

// DurationError reports that the video duration could not be determined.
type DurationError struct {
	Path string
	Err  error
}

func (e *DurationError) Error() string {
	return fmt.Sprintf("cannot determine duration of %s: %v", e.Path, e.Err)
}

func (e *DurationError) Unwrap() error { return e.Err }

// Sampler extracts and downsamples frames.
type Sampler struct {
	params  config.Params
	decoder video.Decoder
}

// New returns a Sampler over decoder.
func New(params config.Params, decoder video.Decoder) *Sampler {
	return &Sampler{params: params, decoder: decoder}
}

// Sample extracts frames from path into outDir. Fewer than MinFrames
// extracted frames is logged, not failed: usable poses are counted later.
func (s *Sampler) Sample(ctx context.Context, path, outDir string) (Result, error) {
	duration, err := s.decoder.Duration(ctx, path)
	if err != nil {
		return Result{}, &DurationError{Path: path, Err: err}
	}

	fps := TargetFPS(duration, s.params)
	f := s.params.Filters
	frames, err := s.decoder.Extract(ctx, path, outDir, video.ExtractOptions{
		FPS:        fps,
		Scale:      f.Scale,
		Brightness: f.Brightness,
		Contrast:   f.Contrast,
		Denoise:    f.Denoise,
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Frames:    Downsample(frames, s.params.MaxFrames),
		Extracted: len(frames),
		Duration:  duration,
		FPS:       fps,
	}
	if res.Extracted < s.params.MinFrames {
		monitoring.Warnf("sampler: only %d frames extracted from %s (%.2fs at %.2f fps), want at least %d",
			res.Extracted, path, duration, fps, s.params.MinFrames)
	}
	monitoring.Logf("sampler: %s duration=%.2fs fps=%.2f extracted=%d sampled=%d",
		path, duration, fps, res.Extracted, len(res.Frames))
	return res, nil
}

// TargetFPS returns MaxFrames/duration clamped to [BaseFPS, MaxFPS].
func TargetFPS(duration float64, p config.Params) float64 {
	if duration <= 0 || math.IsNaN(duration) {
		return p.BaseFPS
	}
	return math.Max(p.BaseFPS, math.Min(p.MaxFPS, float64(p.MaxFrames)/duration))
}

// Downsample keeps at most max frames. The first frame is always kept,
// intermediate frames are taken every ceil(len/max) and the last frame is
// appended explicitly.
func Downsample(frames []string, max int) []string {
	n := len(frames)
	if n <= max {
		out := make([]string, n)
		copy(out, frames)
		return out
	}
	if max < 2 {
		return []string{frames[0]}
	}

	stride := int(math.Ceil(float64(n) / float64(max)))
	out := make([]string, 0, max)
	out = append(out, frames[0])
	for i := stride; i < n-1 && len(out) < max-1; i += stride {
		out = append(out, frames[i])
	}
	return append(out, frames[n-1])
}
