// Package analysis runs one sit-to-rise analysis end to end: sample frames,
// estimate poses, segment phases, detect support, score and write feedback.
// It is the only package that knows the order of the stages.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/sitrise/internal/config"
	"github.com/banshee-data/sitrise/internal/fsutil"
	"github.com/banshee-data/sitrise/internal/monitoring"
	"github.com/banshee-data/sitrise/internal/security"
	"github.com/banshee-data/sitrise/internal/srt"
	"github.com/banshee-data/sitrise/internal/srt/feedback"
	"github.com/banshee-data/sitrise/internal/srt/phase"
	"github.com/banshee-data/sitrise/internal/srt/pose"
	"github.com/banshee-data/sitrise/internal/srt/sampler"
	"github.com/banshee-data/sitrise/internal/srt/scoring"
	"github.com/banshee-data/sitrise/internal/srt/support"
	"github.com/banshee-data/sitrise/internal/srt/video"
	"github.com/banshee-data/sitrise/internal/timeutil"
	"github.com/banshee-data/sitrise/internal/version"
)

// Options configures an Analyzer. Decoder and Poses are required.
type Options struct {
	Params  config.Params
	Decoder video.Decoder
	Poses   pose.Source
	FS      fsutil.FileSystem // defaults to the OS filesystem
	Clock   timeutil.Clock    // defaults to the wall clock
	WorkDir string            // parent of per-run frame directories; defaults to os.TempDir()
}

// Analyzer scores sit-to-rise videos. It is safe for concurrent use; runs
// share nothing but the pose source.
type Analyzer struct {
	params  config.Params
	sampler *sampler.Sampler
	poses   pose.Source
	fs      fsutil.FileSystem
	clock   timeutil.Clock
	workDir string
	workers int
	timeout time.Duration

	segmenter  *phase.Segmenter
	support    *support.Detector
	scorer     *scoring.Scorer
	aggregator *scoring.Aggregator
}

// New builds an Analyzer from opts.
func New(opts Options) *Analyzer {
	a := &Analyzer{
		params:  opts.Params,
		sampler: sampler.New(opts.Params, opts.Decoder),
		poses:   opts.Poses,
		fs:      opts.FS,
		clock:   opts.Clock,
		workDir: opts.WorkDir,
		workers: opts.Params.Workers,
		timeout: opts.Params.RunTimeout,

		segmenter:  phase.New(opts.Params),
		support:    support.New(opts.Params),
		scorer:     scoring.NewScorer(opts.Params),
		aggregator: scoring.NewAggregator(opts.Params),
	}
	if a.fs == nil {
		a.fs = fsutil.OSFileSystem{}
	}
	if a.clock == nil {
		a.clock = timeutil.RealClock{}
	}
	if a.workDir == "" {
		a.workDir = os.TempDir()
	}
	if a.workers <= 0 {
		a.workers = runtime.NumCPU()
	}
	if a.timeout <= 0 {
		a.timeout = config.DefaultParams().RunTimeout
	}
	return a
}

// run carries the state of one Analyze call.
type run struct {
	id       string
	dir      string
	warnings []string
	cleaned  bool
}

func (r *run) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	monitoring.Warnf("analysis %s: %s", r.id, msg)
	r.warnings = append(r.warnings, msg)
}

// Analyze scores the video at videoPath. It returns a completed Report, or
// a *DecodeError or *InsufficientFramesError for the video, or an
// *EstimatorError when the pose model is unusable. Cancelling parent aborts
// the run with the context's error; a run longer than the configured
// RunTimeout returns a *TimeoutError.
func (a *Analyzer) Analyze(parent context.Context, videoPath string) (*Report, error) {
	if rd, ok := a.poses.(pose.Readier); ok {
		if err := rd.Ready(); err != nil {
			return nil, &EstimatorError{Err: err}
		}
	}
	ctx, cancel := context.WithTimeout(parent, a.timeout)
	defer cancel()

	total := timeutil.StartStopwatch(a.clock)
	id := NewReportID()
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	r := &run{
		id:       id,
		dir:      filepath.Join(a.workDir, fmt.Sprintf("srt-%s-%s", security.SanitizeFilename(base), id[:8])),
		warnings: []string{},
	}
	defer a.cleanup(r)

	sw := timeutil.StartStopwatch(a.clock)
	sample, err := a.sampler.Sample(ctx, videoPath, r.dir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, a.interrupted(parent, ctx)
		}
		return nil, &DecodeError{Path: videoPath, Err: err}
	}
	samplingMS := sw.Millis()

	sw = timeutil.StartStopwatch(a.clock)
	poses, slowest, err := a.estimate(ctx, r, sample.Frames)
	if err != nil {
		if ctx.Err() != nil {
			return nil, a.interrupted(parent, ctx)
		}
		return nil, err
	}
	estimationMS := sw.Millis()

	// Frames are no longer needed once poses are in hand.
	a.cleanup(r)

	required := 2 * a.params.MinFramesPerPhase
	if len(poses) < required {
		err := &InsufficientFramesError{Poses: len(poses), Required: required}
		monitoring.Logf("analysis %s: %v", id, err)
		return nil, err
	}

	sw = timeutil.StartStopwatch(a.clock)
	seg := a.segmenter.Segment(poses)
	sitSupport := a.support.Summarize(seg.Sitting)
	riseSupport := a.support.Summarize(seg.Rising)
	sitting := a.scorer.SittingFrames(seg.Sitting)
	rising := a.scorer.RisingFrames(seg.Rising)
	scores := a.aggregator.Aggregate(sitting, rising, sitSupport.Penalty, riseSupport.Penalty)
	fb := feedback.Synthesize(a.params, scores, sitSupport.Types.Union(riseSupport.Types))
	scoringMS := sw.Millis()

	if elapsed := total.Elapsed(); elapsed > a.params.RunBudget {
		r.warn("run took %dms, over the %s budget", elapsed.Milliseconds(), a.params.RunBudget)
	}

	frames := make([]string, len(sample.Frames))
	for i, f := range sample.Frames {
		frames[i] = filepath.Base(f)
	}

	report := &Report{
		ID:              id,
		Status:          StatusCompleted,
		VideoPath:       videoPath,
		SitScore:        scores.SitScore,
		RiseScore:       scores.RiseScore,
		TotalScore:      scores.TotalScore,
		PosturalControl: scores.PosturalControl,
		Balance:         scores.Balance,
		Coordination:    scores.Coordination,
		SittingMetrics:  scores.Sitting,
		RisingMetrics:   scores.Rising,
		Support:         PhaseSupport{Sitting: sitSupport, Rising: riseSupport},
		Feedback:        fb,
		Frames:          frames,
		Performance: Performance{
			FrameCount:       len(sample.Frames),
			ExtractedFrames:  sample.Extracted,
			PoseCount:        len(poses),
			VideoDuration:    sample.Duration,
			SampleFPS:        sample.FPS,
			TransitionIndex:  seg.Transition,
			TransitionMethod: string(seg.Method),
			HipSide:          seg.Side.String(),
			Timings: Timings{
				Sampling:     samplingMS,
				Estimation:   estimationMS,
				Scoring:      scoringMS,
				Total:        total.Millis(),
				SlowestFrame: float64(slowest) / float64(time.Millisecond),
			},
			Warnings: r.warnings,
		},
		Series:        &Series{Hip: seg.Hip, Sitting: sitting, Rising: rising},
		CreatedAt:     a.clock.Now().UTC(),
		EngineVersion: version.Version,
	}
	monitoring.Logf("analysis %s: %s sit=%.2f rise=%.2f total=%.2f poses=%d/%d transition=%d (%s)",
		id, videoPath, report.SitScore, report.RiseScore, report.TotalScore,
		len(poses), len(sample.Frames), seg.Transition, seg.Method)
	return report, nil
}

// interrupted returns the error for a run whose context ended: the
// caller's own error, or a TimeoutError when the run's deadline fired.
func (a *Analyzer) interrupted(parent, ctx context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Limit: a.timeout}
	}
	return ctx.Err()
}

// estimate runs the pose source over frames with bounded concurrency and
// returns the detected poses in frame order. Wait is the barrier: nothing
// downstream sees a partial sequence. A source that fails on every frame is
// reported as an EstimatorError.
func (a *Analyzer) estimate(ctx context.Context, r *run, frames []string) ([]srt.Pose, time.Duration, error) {
	detected := make([]*srt.Pose, len(frames))
	took := make([]time.Duration, len(frames))
	failed := make([]error, len(frames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, frame := range frames {
		g.Go(func() error {
			sw := timeutil.StartStopwatch(a.clock)
			p, err := a.poses.Estimate(gctx, frame)
			took[i] = sw.Elapsed()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				monitoring.Logf("analysis %s: pose estimation failed for %s: %v", r.id, filepath.Base(frame), err)
				failed[i] = err
				return nil
			}
			if p != nil {
				attributed := p.WithFrame(i, filepath.Base(frame))
				detected[i] = &attributed
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if len(frames) > 0 && !slices.ContainsFunc(failed, func(err error) bool { return err == nil }) {
		return nil, 0, &EstimatorError{Err: failed[0]}
	}

	poses := make([]srt.Pose, 0, len(frames))
	for _, p := range detected {
		if p != nil {
			poses = append(poses, *p)
		}
	}

	var slow int
	var slowest time.Duration
	for _, d := range took {
		if d > a.params.FrameBudget {
			slow++
		}
		slowest = max(slowest, d)
	}
	if slow > 0 {
		r.warn("%d of %d frames exceeded the %s per-frame budget (slowest %dms)",
			slow, len(frames), a.params.FrameBudget, slowest.Milliseconds())
	}
	return poses, slowest, nil
}

// cleanup removes the run's frame directory once. Failure is a warning.
func (a *Analyzer) cleanup(r *run) {
	if r.cleaned {
		return
	}
	r.cleaned = true
	if err := a.fs.RemoveAll(r.dir); err != nil {
		r.warn("could not remove frame directory %s: %v", r.dir, err)
	}
}
