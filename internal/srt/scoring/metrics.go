// Package scoring measures movement quality from pose geometry and folds
// the per-frame measurements into the sit, rise and total scores.
//
// Per-frame metrics use the right side of the body. A metric whose
// landmarks are unavailable yields an invalid Measurement; invalid
// measurements never contribute to phase averages.
package scoring

import (
	"math"

	"github.com/banshee-data/sitrise/internal/srt"
)

// Measurement is one metric evaluated on one frame. Angle is in degrees
// and is zero for metrics that are not angle based.
type Measurement struct {
	Angle float64 `json:"angle"`
	Score float64 `json:"score"`
	Valid bool    `json:"valid"`
}

func unavailable() Measurement { return Measurement{} }

func points(p srt.Pose, threshold float64, landmarks ...srt.Landmark) ([]srt.Point, bool) {
	out := make([]srt.Point, len(landmarks))
	for i, l := range landmarks {
		kp, ok := p.Usable(l, threshold)
		if !ok {
			return nil, false
		}
		out[i] = kp.Point()
	}
	return out, true
}

// KneeFlexion scores the knee bend while seated: full marks past 90°.
func KneeFlexion(p srt.Pose, threshold float64) Measurement {
	pts, ok := points(p, threshold, srt.RightHip, srt.RightKnee, srt.RightAnkle)
	if !ok {
		return unavailable()
	}
	a := srt.Angle(pts[0], pts[1], pts[2])
	score := 1.0
	if a <= 90 {
		score = a / 90
	}
	return Measurement{Angle: a, Score: score, Valid: true}
}

// KneeExtension scores how straight the leg gets when rising: full marks
// past 160°.
func KneeExtension(p srt.Pose, threshold float64) Measurement {
	pts, ok := points(p, threshold, srt.RightHip, srt.RightKnee, srt.RightAnkle)
	if !ok {
		return unavailable()
	}
	a := srt.Angle(pts[0], pts[1], pts[2])
	score := 1.0
	if a <= 160 {
		score = a / 160
	}
	return Measurement{Angle: a, Score: score, Valid: true}
}

// SpinalAlignment scores the shoulder-hip-knee angle by its distance from
// a straight line.
func SpinalAlignment(p srt.Pose, threshold float64) Measurement {
	pts, ok := points(p, threshold, srt.RightShoulder, srt.RightHip, srt.RightKnee)
	if !ok {
		return unavailable()
	}
	a := srt.Angle(pts[0], pts[1], pts[2])
	return Measurement{Angle: a, Score: math.Abs(180-a) / 180, Valid: true}
}

// HipControl rewards a closed hip angle: full marks under 30°, falling to
// zero at 90°.
func HipControl(p srt.Pose, threshold float64) Measurement {
	pts, ok := points(p, threshold, srt.RightShoulder, srt.RightHip, srt.RightKnee)
	if !ok {
		return unavailable()
	}
	a := srt.Angle(pts[0], pts[1], pts[2])
	score := 1.0
	if a >= 30 {
		score = srt.Clamp((90-a)/60, 0, 1)
	}
	return Measurement{Angle: a, Score: score, Valid: true}
}

// HipDrive combines vertical hip progress, trunk angle and horizontal
// hip-over-ankle alignment. When a landmark is missing, or the geometry
// gives no finite result, it returns fallback as an invalid measurement.
// That fallback only fills the per-frame series for display: Average skips
// invalid frames, and the phase default applies once too few valid frames
// remain.
func HipDrive(p srt.Pose, threshold, fallback float64) Measurement {
	missing := Measurement{Score: fallback}
	pts, ok := points(p, threshold, srt.RightShoulder, srt.RightHip, srt.RightKnee, srt.RightAnkle)
	if !ok {
		return missing
	}
	shoulder, hip, knee, ankle := pts[0], pts[1], pts[2], pts[3]

	progress := (ankle.Y - hip.Y) / (ankle.Y - shoulder.Y)
	misalignment := math.Abs(hip.X-ankle.X) / p.Width()
	trunk := srt.Angle(shoulder, hip, knee)
	if !finite(progress) || !finite(misalignment) {
		return missing
	}

	score := 0.5*srt.Clamp(progress, 0, 1) + 0.3*(trunk/180) + 0.2*(1-misalignment)
	if !finite(score) {
		return missing
	}
	return Measurement{Angle: trunk, Score: srt.Clamp(score, 0, 1), Valid: true}
}

// Stability penalises horizontal drift of shoulder and hip away from the
// ankle: zero once the combined drift reaches 100 px.
func Stability(p srt.Pose, threshold float64) Measurement {
	pts, ok := points(p, threshold, srt.RightShoulder, srt.RightHip, srt.RightAnkle)
	if !ok {
		return unavailable()
	}
	deviation := math.Abs(pts[0].X-pts[1].X) + math.Abs(pts[1].X-pts[2].X)
	return Measurement{Score: math.Max(0, 1-deviation/100), Valid: true}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
