package scoring

import (
	"math"
	"testing"

	"github.com/banshee-data/sitrise/internal/srt"
	"github.com/banshee-data/sitrise/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const th = 0.3

type joint struct {
	l   srt.Landmark
	p   srt.Point
	cfg float64
}

func rightSide(t *testing.T, joints ...joint) srt.Pose {
	t.Helper()
	kps := make([]srt.NamedKeypoint, 0, len(joints))
	for _, j := range joints {
		conf := j.cfg
		if conf == 0 {
			conf = 0.95
		}
		kps = append(kps, srt.NamedKeypoint{Landmark: j.l, Keypoint: srt.Keypoint{X: j.p.X, Y: j.p.Y, Confidence: conf}})
	}
	p, err := srt.NewPose(0, "", testutil.FrameWidth, testutil.FrameHeight, kps)
	require.NoError(t, err)
	return p
}

// leg places the ankle so the hip-knee-ankle angle equals deg.
func leg(t *testing.T, deg float64) srt.Pose {
	hip := srt.Point{X: 300, Y: 220}
	knee := srt.Point{X: 300, Y: 320}
	rad := (180 - deg) * math.Pi / 180
	ankle := srt.Point{X: knee.X + 100*math.Sin(rad), Y: knee.Y + 100*math.Cos(rad)}
	return rightSide(t,
		joint{l: srt.RightHip, p: hip},
		joint{l: srt.RightKnee, p: knee},
		joint{l: srt.RightAnkle, p: ankle},
	)
}

// trunk places the shoulder so the shoulder-hip-knee angle equals deg.
func trunk(t *testing.T, deg float64) srt.Pose {
	hip := srt.Point{X: 300, Y: 300}
	knee := srt.Point{X: 400, Y: 300}
	rad := deg * math.Pi / 180
	shoulder := srt.Point{X: hip.X + 100*math.Cos(rad), Y: hip.Y - 100*math.Sin(rad)}
	return rightSide(t,
		joint{l: srt.RightShoulder, p: shoulder},
		joint{l: srt.RightHip, p: hip},
		joint{l: srt.RightKnee, p: knee},
	)
}

func TestKneeFlexion(t *testing.T) {
	tests := []struct {
		deg, want float64
	}{
		{45, 0.5},
		{90, 1},
		{120, 1},
		{180, 1},
	}
	for _, tt := range tests {
		m := KneeFlexion(leg(t, tt.deg), th)
		assert.True(t, m.Valid)
		assert.InDelta(t, tt.deg, m.Angle, 1e-6)
		assert.InDelta(t, tt.want, m.Score, 1e-6, "angle %v", tt.deg)
	}
}

func TestKneeExtension(t *testing.T) {
	m := KneeExtension(leg(t, 170), th)
	assert.True(t, m.Valid)
	assert.InDelta(t, 170, m.Angle, 1e-6)
	assert.Equal(t, 1.0, m.Score)

	m = KneeExtension(leg(t, 80), th)
	assert.InDelta(t, 0.5, m.Score, 1e-6)
}

func TestSpinalAlignmentAndHipControl(t *testing.T) {
	tests := []struct {
		deg         float64
		wantSpinal  float64
		wantControl float64
	}{
		{20, 160.0 / 180, 1},
		{60, 120.0 / 180, 0.5},
		{90, 0.5, 0},
		{120, 60.0 / 180, 0},
		{180, 0, 0},
	}
	for _, tt := range tests {
		p := trunk(t, tt.deg)
		sa := SpinalAlignment(p, th)
		hc := HipControl(p, th)
		assert.True(t, sa.Valid)
		assert.True(t, hc.Valid)
		assert.InDelta(t, tt.wantSpinal, sa.Score, 1e-6, "spinal at %v", tt.deg)
		assert.InDelta(t, tt.wantControl, hc.Score, 1e-6, "control at %v", tt.deg)
	}
}

func TestHipDrive(t *testing.T) {
	t.Run("ideal drive", func(t *testing.T) {
		p := rightSide(t,
			joint{l: srt.RightShoulder, p: srt.Point{X: 100, Y: 300}},
			joint{l: srt.RightHip, p: srt.Point{X: 300, Y: 300}},
			joint{l: srt.RightKnee, p: srt.Point{X: 500, Y: 300}},
			joint{l: srt.RightAnkle, p: srt.Point{X: 300, Y: 420}},
		)
		m := HipDrive(p, th, 0.3)
		assert.True(t, m.Valid)
		assert.InDelta(t, 180, m.Angle, 1e-9)
		assert.InDelta(t, 1.0, m.Score, 1e-9)
	})

	t.Run("standing", func(t *testing.T) {
		m := HipDrive(testutil.Standing().Pose(t, 0), th, 0.3)
		assert.True(t, m.Valid)
		assert.InDelta(t, 0.5*0.625+0.3+0.2, m.Score, 1e-9)
	})

	t.Run("zero body height", func(t *testing.T) {
		p := rightSide(t,
			joint{l: srt.RightShoulder, p: srt.Point{X: 300, Y: 400}},
			joint{l: srt.RightHip, p: srt.Point{X: 300, Y: 250}},
			joint{l: srt.RightKnee, p: srt.Point{X: 350, Y: 300}},
			joint{l: srt.RightAnkle, p: srt.Point{X: 300, Y: 400}},
		)
		m := HipDrive(p, th, 0.3)
		assert.False(t, m.Valid)
		assert.Equal(t, 0.3, m.Score)
		assert.False(t, math.IsNaN(m.Score))
	})

	t.Run("missing knee", func(t *testing.T) {
		b := testutil.Standing()
		b.Omit = []srt.Landmark{srt.RightKnee}
		m := HipDrive(b.Pose(t, 0), th, 0.3)
		assert.False(t, m.Valid)
		assert.Equal(t, 0.3, m.Score)
	})

	t.Run("low confidence ankle", func(t *testing.T) {
		p := rightSide(t,
			joint{l: srt.RightShoulder, p: srt.Point{X: 300, Y: 100}},
			joint{l: srt.RightHip, p: srt.Point{X: 300, Y: 220}},
			joint{l: srt.RightKnee, p: srt.Point{X: 300, Y: 320}},
			joint{l: srt.RightAnkle, p: srt.Point{X: 300, Y: 420}, cfg: 0.29},
		)
		assert.False(t, HipDrive(p, th, 0.3).Valid)
	})
}

func TestStability(t *testing.T) {
	assert.Equal(t, Measurement{Score: 1, Valid: true}, Stability(testutil.Standing().Pose(t, 0), th))

	p := rightSide(t,
		joint{l: srt.RightShoulder, p: srt.Point{X: 270, Y: 100}},
		joint{l: srt.RightHip, p: srt.Point{X: 300, Y: 220}},
		joint{l: srt.RightAnkle, p: srt.Point{X: 320, Y: 420}},
	)
	assert.InDelta(t, 0.5, Stability(p, th).Score, 1e-9)

	p = rightSide(t,
		joint{l: srt.RightShoulder, p: srt.Point{X: 100, Y: 100}},
		joint{l: srt.RightHip, p: srt.Point{X: 300, Y: 220}},
		joint{l: srt.RightAnkle, p: srt.Point{X: 320, Y: 420}},
	)
	assert.Equal(t, 0.0, Stability(p, th).Score)
}

func TestMetrics_MissingLandmarksAreUnavailable(t *testing.T) {
	b := testutil.Standing()
	b.Omit = []srt.Landmark{srt.RightHip}
	p := b.Pose(t, 0)

	for name, m := range map[string]Measurement{
		"knee flexion":     KneeFlexion(p, th),
		"knee extension":   KneeExtension(p, th),
		"spinal alignment": SpinalAlignment(p, th),
		"hip control":      HipControl(p, th),
		"stability":        Stability(p, th),
	} {
		assert.Equal(t, Measurement{}, m, name)
	}
}

func TestMetrics_DegenerateAngleScoresLow(t *testing.T) {
	// Hip and knee coincide: the angle is degenerate and reads as 0.
	p := rightSide(t,
		joint{l: srt.RightHip, p: srt.Point{X: 300, Y: 300}},
		joint{l: srt.RightKnee, p: srt.Point{X: 300, Y: 300.5}},
		joint{l: srt.RightAnkle, p: srt.Point{X: 300, Y: 400}},
	)
	m := KneeExtension(p, th)
	assert.True(t, m.Valid)
	assert.Equal(t, 0.0, m.Angle)
	assert.Equal(t, 0.0, m.Score)
}
