package scoring

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sitrise/internal/config"
	"github.com/banshee-data/sitrise/internal/srt"
	"github.com/banshee-data/sitrise/internal/testutil"
)

func valid(score float64) Measurement {
	return Measurement{Score: score, Valid: true}
}

func sittingRun(n int, kf, hc, sa Measurement) []SittingMetrics {
	out := make([]SittingMetrics, n)
	for i := range out {
		out[i] = SittingMetrics{Frame: i, KneeFlexion: kf, HipControl: hc, SpinalAlignment: sa}
	}
	return out
}

func risingRun(n int, ke, hd, st Measurement) []RisingMetrics {
	out := make([]RisingMetrics, n)
	for i := range out {
		out[i] = RisingMetrics{Frame: i, KneeExtension: ke, HipDrive: hd, Stability: st}
	}
	return out
}

func TestAverage(t *testing.T) {
	assert.Equal(t, 0.3, Average(nil, 3, 0.3))
	assert.Equal(t, 0.3, Average([]Measurement{valid(1), valid(1)}, 3, 0.3), "too few samples")
	assert.InDelta(t, 0.5, Average([]Measurement{valid(0), valid(0.5), valid(1)}, 3, 0.3), 1e-12)

	mixed := []Measurement{
		valid(0.9), valid(0.6), valid(0.3),
		{Score: 0.3},      // missing-signal default
		valid(math.NaN()), // never produced by the metrics, still ignored
		{Score: 0, Valid: false},
	}
	assert.InDelta(t, 0.6, Average(mixed, 3, 0.3), 1e-12)
}

func TestRisingAverages_MissingHipDriveIsSkipped(t *testing.T) {
	p := config.DefaultParams()
	agg := NewAggregator(p)
	missing := HipDrive(srt.Pose{}, p.ConfidenceThreshold, p.MissingDefault)
	require.False(t, missing.Valid)
	assert.Equal(t, p.MissingDefault, missing.Score, "shown per frame")

	frames := append(risingRun(5, valid(1), valid(1), valid(1)),
		risingRun(5, valid(1), missing, valid(1))...)
	assert.Equal(t, 1.0, agg.RisingAverages(frames).HipDrive, "missing frames do not dilute the mean")

	sparse := append(risingRun(2, valid(1), valid(1), valid(1)),
		risingRun(8, valid(1), missing, valid(1))...)
	assert.Equal(t, p.MissingDefault, agg.RisingAverages(sparse).HipDrive, "too few valid frames")
}

func TestAggregate_PerfectRise(t *testing.T) {
	p := config.DefaultParams()
	a := NewAggregator(p)

	ke := KneeExtension(leg(t, 170), th)
	assert.InDelta(t, 1.0, ke.Score, 1e-9)

	rising := risingRun(20, ke, Measurement{Angle: 180, Score: 1, Valid: true}, valid(1))
	sitting := sittingRun(20, valid(1), valid(1), valid(1))

	s := a.Aggregate(sitting, rising, 0, 0)
	assert.InDelta(t, 1.0, s.Rising.KneeExtension, 1e-9)
	assert.InDelta(t, 1.0, s.Rising.HipDrive, 1e-9)
	assert.Equal(t, 5.0, s.RiseScore)
	assert.Equal(t, 5.0, s.SitScore)
	assert.Equal(t, 10.0, s.TotalScore)
	assert.Equal(t, 1.0, s.PosturalControl)
	assert.Equal(t, 1.0, s.Balance)
	assert.Equal(t, 1.0, s.Coordination)
}

func TestAggregate_NoSignalUsesDefaults(t *testing.T) {
	a := NewAggregator(config.DefaultParams())

	s := a.Aggregate(
		sittingRun(12, Measurement{}, Measurement{}, Measurement{}),
		risingRun(12, Measurement{}, Measurement{Score: 0.3}, Measurement{}),
		0, 0,
	)
	assert.Equal(t, SittingAverages{0.3, 0.3, 0.3}, s.Sitting)
	assert.Equal(t, RisingAverages{0.3, 0.3, 0.3}, s.Rising)
	assert.Equal(t, 1.5, s.SitScore)
	assert.Equal(t, 1.5, s.RiseScore)
	assert.Equal(t, 3.0, s.TotalScore)
	assert.InDelta(t, 0.375, s.PosturalControl, 1e-9)
	assert.InDelta(t, 0.405, s.Balance, 1e-9)
	assert.InDelta(t, 0.34, s.Coordination, 1e-9)
}

func TestAggregate_Penalty(t *testing.T) {
	a := NewAggregator(config.DefaultParams())
	sitting := sittingRun(15, valid(1), valid(1), valid(1))
	rising := risingRun(15, valid(0.8), valid(0.8), valid(0.8))

	clean := a.Aggregate(sitting, rising, 0, 0)
	hand := a.Aggregate(sitting, rising, 1.0, 1.0)
	both := a.Aggregate(sitting, rising, 1.5, 1.5)

	assert.Equal(t, 5.0, clean.SitScore)
	assert.Equal(t, 4.4, hand.SitScore)
	assert.Equal(t, 4.1, both.SitScore)
	assert.Equal(t, 4.0, clean.RiseScore)
	assert.Equal(t, 3.4, hand.RiseScore)

	assert.LessOrEqual(t, hand.SitScore, clean.SitScore)
	assert.LessOrEqual(t, both.RiseScore, hand.RiseScore)
	assert.Equal(t, clean.Balance, both.Balance, "penalties do not touch composites")
}

func TestAggregate_Bounds(t *testing.T) {
	a := NewAggregator(config.DefaultParams())
	rng := rand.New(rand.NewSource(42))
	rnd := func() Measurement {
		return Measurement{Score: rng.Float64(), Valid: rng.Intn(5) > 0}
	}
	penalties := []float64{0, 0.5, 1, 1.5}

	for i := 0; i < 500; i++ {
		sitting := make([]SittingMetrics, 10+rng.Intn(20))
		for j := range sitting {
			sitting[j] = SittingMetrics{KneeFlexion: rnd(), HipControl: rnd(), SpinalAlignment: rnd()}
		}
		rising := make([]RisingMetrics, 10+rng.Intn(20))
		for j := range rising {
			rising[j] = RisingMetrics{KneeExtension: rnd(), HipDrive: rnd(), Stability: rnd()}
		}

		s := a.Aggregate(sitting, rising, penalties[rng.Intn(4)], penalties[rng.Intn(4)])
		for _, v := range []float64{s.SitScore, s.RiseScore} {
			assert.GreaterOrEqual(t, v, 1.5)
			assert.LessOrEqual(t, v, 5.0)
		}
		assert.GreaterOrEqual(t, s.TotalScore, 2.0)
		assert.LessOrEqual(t, s.TotalScore, 10.0)
		for _, v := range []float64{s.PosturalControl, s.Balance, s.Coordination} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	p := config.DefaultParams()
	poses := testutil.SitToStand(t, 24, 11)
	scorer := NewScorer(p)
	a := NewAggregator(p)

	sitting := scorer.SittingFrames(poses[:12])
	rising := scorer.RisingFrames(poses[11:])

	first := a.Aggregate(sitting, rising, 0.5, 0)
	second := a.Aggregate(scorer.SittingFrames(poses[:12]), scorer.RisingFrames(poses[11:]), 0.5, 0)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Aggregate not deterministic (-first +second):\n%s", diff)
	}
}

func TestScorer_FrameIndexes(t *testing.T) {
	poses := testutil.SitToStand(t, 6, 3)
	s := NewScorer(config.DefaultParams())

	rising := s.RisingFrames(poses[2:])
	assert.Len(t, rising, 4)
	assert.Equal(t, 2, rising[0].Frame)

	sitting := s.SittingFrames(poses)
	for _, m := range sitting {
		assert.True(t, m.KneeFlexion.Valid)
		assert.True(t, m.SpinalAlignment.Valid)
	}
}
