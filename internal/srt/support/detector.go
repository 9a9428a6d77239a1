// Package support flags frames in which the subject leaned on a hand or a
// knee, and turns the support seen in a phase into a score penalty.
package support

import (
	"encoding/json"
	"math"

	"github.com/banshee-data/sitrise/internal/config"
	"github.com/banshee-data/sitrise/internal/srt"
)

// Detector classifies support from keypoint heights relative to the
// lowest confident keypoint, which stands in for the floor.
type Detector struct {
	threshold   float64
	handRatio   float64
	kneeRatio   float64
	handPenalty float64
	kneePenalty float64
}

// New returns a Detector configured from p.
func New(p config.Params) *Detector {
	return &Detector{
		threshold:   p.ConfidenceThreshold,
		handRatio:   p.HandSupportRatio,
		kneeRatio:   p.KneeSupportRatio,
		handPenalty: p.HandPenalty,
		kneePenalty: p.KneePenalty,
	}
}

// Summary is the support observed over one phase.
type Summary struct {
	Types   srt.SupportSet `json:"-"`
	Names   []string       `json:"types"`
	Penalty float64        `json:"penalty"`
	Frames  int            `json:"frames"` // frames with any support
}

// UnmarshalJSON restores Types from the stored names.
func (s *Summary) UnmarshalJSON(data []byte) error {
	type plain Summary
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Summary(p)
	s.Types = srt.ParseSupportSet(s.Names)
	return nil
}

// Frame returns the support types visible in a single pose.
func (d *Detector) Frame(p srt.Pose) srt.SupportSet {
	ground, top := math.Inf(-1), math.Inf(1)
	for l := srt.Landmark(0); l < srt.NumLandmarks; l++ {
		if kp, ok := p.Usable(l, d.threshold); ok {
			ground = math.Max(ground, kp.Y)
			top = math.Min(top, kp.Y)
		}
	}
	height := ground - top
	if math.IsInf(ground, 0) || !(height > 0) {
		return 0
	}

	var set srt.SupportSet
	if d.near(p, ground, d.handRatio*height, srt.LeftWrist, srt.RightWrist) {
		set = set.Add(srt.HandSupport)
	}
	if d.near(p, ground, d.kneeRatio*height, srt.LeftKnee, srt.RightKnee) {
		set = set.Add(srt.KneeSupport)
	}
	return set
}

func (d *Detector) near(p srt.Pose, ground, band float64, landmarks ...srt.Landmark) bool {
	for _, l := range landmarks {
		if kp, ok := p.Usable(l, d.threshold); ok && kp.Y > ground-band {
			return true
		}
	}
	return false
}

// Phase returns the union of support seen in any pose of a phase.
func (d *Detector) Phase(poses []srt.Pose) srt.SupportSet {
	return d.Summarize(poses).Types
}

// Summarize returns the phase support union, its penalty and the number of
// supported frames.
func (d *Detector) Summarize(poses []srt.Pose) Summary {
	var s Summary
	for _, p := range poses {
		set := d.Frame(p)
		if !set.Empty() {
			s.Frames++
		}
		s.Types = s.Types.Union(set)
	}
	s.Names = s.Types.Names()
	s.Penalty = d.Penalty(s.Types)
	return s
}

// Penalty is the additive score penalty for a support set.
func (d *Detector) Penalty(set srt.SupportSet) float64 {
	var p float64
	if set.Has(srt.HandSupport) {
		p += d.handPenalty
	}
	if set.Has(srt.KneeSupport) {
		p += d.kneePenalty
	}
	return p
}
