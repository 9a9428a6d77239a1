// Package testutil provides shared test utilities and fixtures.
//
// It centralises the HTTP assertions used by the API tests and the synthetic
// body builders used across the pipeline stage tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/sitrise/internal/srt"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// Frame dimensions used by synthetic poses.
const (
	FrameWidth  = 640.0
	FrameHeight = 480.0
)

// Body describes a side-on subject with both sides of the body at the same
// image positions. Zero-valued wrist or nose positions are placed relative to
// the shoulder.
type Body struct {
	Shoulder srt.Point
	Hip      srt.Point
	Knee     srt.Point
	Ankle    srt.Point
	Wrist    srt.Point
	Nose     srt.Point

	// Confidence applied to every landmark; 0 means 0.95.
	Confidence float64
	// LimbConfidence, when set, overrides Confidence for wrists and knees.
	LimbConfidence float64
	// Omit lists landmarks to leave out of the pose.
	Omit []srt.Landmark
}

// Standing is an upright subject with a vertical trunk and straight legs.
func Standing() Body {
	return Body{
		Shoulder: srt.Point{X: 300, Y: 100},
		Hip:      srt.Point{X: 300, Y: 220},
		Knee:     srt.Point{X: 300, Y: 320},
		Ankle:    srt.Point{X: 300, Y: 420},
		Wrist:    srt.Point{X: 300, Y: 230},
	}
}

// Seated is a subject sitting on a chair: hip level with the knee and the
// shank vertical, hands resting on the thighs.
func Seated() Body {
	return Body{
		Shoulder: srt.Point{X: 280, Y: 190},
		Hip:      srt.Point{X: 280, Y: 310},
		Knee:     srt.Point{X: 380, Y: 320},
		Ankle:    srt.Point{X: 380, Y: 420},
		Wrist:    srt.Point{X: 330, Y: 300},
	}
}

// WithHipY returns a copy of b with the hip moved vertically.
func (b Body) WithHipY(y float64) Body {
	b.Hip.Y = y
	return b
}

// Pose renders b as an srt.Pose for the given frame index.
func (b Body) Pose(t testing.TB, index int) srt.Pose {
	t.Helper()

	conf := b.Confidence
	if conf == 0 {
		conf = 0.95
	}
	limb := b.LimbConfidence
	if limb == 0 {
		limb = conf
	}
	nose := b.Nose
	if nose == (srt.Point{}) {
		nose = srt.Point{X: b.Shoulder.X, Y: b.Shoulder.Y - 40}
	}

	at := func(l srt.Landmark, p srt.Point, c float64) srt.NamedKeypoint {
		return srt.NamedKeypoint{Landmark: l, Keypoint: srt.Keypoint{X: p.X, Y: p.Y, Confidence: c}}
	}
	all := []srt.NamedKeypoint{
		at(srt.Nose, nose, conf),
		at(srt.LeftShoulder, b.Shoulder, conf),
		at(srt.RightShoulder, b.Shoulder, conf),
		at(srt.LeftWrist, b.Wrist, limb),
		at(srt.RightWrist, b.Wrist, limb),
		at(srt.LeftHip, b.Hip, conf),
		at(srt.RightHip, b.Hip, conf),
		at(srt.LeftKnee, b.Knee, limb),
		at(srt.RightKnee, b.Knee, limb),
		at(srt.LeftAnkle, b.Ankle, conf),
		at(srt.RightAnkle, b.Ankle, conf),
	}

	kps := all[:0]
	for _, kp := range all {
		if !omitted(b.Omit, kp.Landmark) {
			kps = append(kps, kp)
		}
	}

	p, err := srt.NewPose(index, "", FrameWidth, FrameHeight, kps)
	if err != nil {
		t.Fatalf("build pose: %v", err)
	}
	return p
}

func omitted(list []srt.Landmark, l srt.Landmark) bool {
	for _, o := range list {
		if o == l {
			return true
		}
	}
	return false
}

// Sequence renders one pose per body, indexed in order.
func Sequence(t testing.TB, bodies ...Body) []srt.Pose {
	t.Helper()
	out := make([]srt.Pose, len(bodies))
	for i, b := range bodies {
		out[i] = b.Pose(t, i)
	}
	return out
}

// SitToStand builds an n-frame movement: the hip descends from standing to a
// seated low point at bottom, then rises back. The hip y follows a V with its
// apex at index bottom.
func SitToStand(t testing.TB, n, bottom int) []srt.Pose {
	t.Helper()
	stand, seat := Standing(), Seated()
	bodies := make([]Body, n)
	for i := range bodies {
		var frac float64
		switch {
		case i <= bottom && bottom > 0:
			frac = float64(i) / float64(bottom)
		case i > bottom && n-1 > bottom:
			frac = 1 - float64(i-bottom)/float64(n-1-bottom)
		default:
			frac = 1
		}
		b := seat
		if frac < 0.5 {
			b = stand
		}
		b.Hip.Y = stand.Hip.Y + frac*(seat.Hip.Y+20-stand.Hip.Y)
		bodies[i] = b
	}
	return Sequence(t, bodies...)
}
