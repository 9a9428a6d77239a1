package scoring

import (
	"github.com/banshee-data/sitrise/internal/config"
	"github.com/banshee-data/sitrise/internal/srt"
)

// SittingMetrics are the sitting-phase measurements of one frame.
type SittingMetrics struct {
	Frame           int         `json:"frame"`
	KneeFlexion     Measurement `json:"knee_flexion"`
	HipControl      Measurement `json:"hip_control"`
	SpinalAlignment Measurement `json:"spinal_alignment"`
}

// RisingMetrics are the rising-phase measurements of one frame.
type RisingMetrics struct {
	Frame         int         `json:"frame"`
	KneeExtension Measurement `json:"knee_extension"`
	HipDrive      Measurement `json:"hip_drive"`
	Stability     Measurement `json:"stability"`
}

// Scorer evaluates the per-frame metrics of each phase.
type Scorer struct {
	threshold float64
	fallback  float64
}

// NewScorer returns a Scorer configured from p.
func NewScorer(p config.Params) *Scorer {
	return &Scorer{threshold: p.ConfidenceThreshold, fallback: p.MissingDefault}
}

// Sitting measures one sitting-phase pose.
func (s *Scorer) Sitting(p srt.Pose) SittingMetrics {
	return SittingMetrics{
		Frame:           p.FrameIndex(),
		KneeFlexion:     KneeFlexion(p, s.threshold),
		HipControl:      HipControl(p, s.threshold),
		SpinalAlignment: SpinalAlignment(p, s.threshold),
	}
}

// Rising measures one rising-phase pose.
func (s *Scorer) Rising(p srt.Pose) RisingMetrics {
	return RisingMetrics{
		Frame:         p.FrameIndex(),
		KneeExtension: KneeExtension(p, s.threshold),
		HipDrive:      HipDrive(p, s.threshold, s.fallback),
		Stability:     Stability(p, s.threshold),
	}
}

// SittingFrames measures every pose of the sitting phase.
func (s *Scorer) SittingFrames(poses []srt.Pose) []SittingMetrics {
	out := make([]SittingMetrics, len(poses))
	for i, p := range poses {
		out[i] = s.Sitting(p)
	}
	return out
}

// RisingFrames measures every pose of the rising phase.
func (s *Scorer) RisingFrames(poses []srt.Pose) []RisingMetrics {
	out := make([]RisingMetrics, len(poses))
	for i, p := range poses {
		out[i] = s.Rising(p)
	}
	return out
}
