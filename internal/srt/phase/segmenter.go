// Package phase splits a pose sequence into its sitting and rising parts
// using the trajectory of one hip.
package phase

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/sitrise/internal/config"
	"github.com/banshee-data/sitrise/internal/srt"
)

// Method records which heuristic chose the transition frame.
type Method string

const (
	LowestHip       Method = "lowest_hip"
	MaxDisplacement Method = "max_displacement"
	Midpoint        Method = "midpoint"
)

// HipSample is the tracked hip height in one pose. Index is the position
// in the pose sequence, Frame the sampled frame it came from.
type HipSample struct {
	Index int     `json:"index"`
	Frame int     `json:"frame"`
	Y     float64 `json:"y"`
}

// Segmentation is the result of Segment. Sitting and Rising share the
// underlying pose slice and overlap around the transition on short input.
type Segmentation struct {
	Sitting    []srt.Pose
	Rising     []srt.Pose
	Transition int
	Method     Method
	Side       srt.Side
	Hip        []HipSample
}

// Segmenter locates the bottom of the movement.
type Segmenter struct {
	threshold float64
	window    int
	minFrames int
}

// New returns a Segmenter configured from p.
func New(p config.Params) *Segmenter {
	return &Segmenter{
		threshold: p.ConfidenceThreshold,
		window:    p.TransitionWindow,
		minFrames: p.MinFramesPerPhase,
	}
}

// Segment picks the transition index and slices poses around it.
func (s *Segmenter) Segment(poses []srt.Pose) Segmentation {
	n := len(poses)
	side := HipSide(poses)
	hip := side.Hip()

	ys := make([]float64, n)
	ok := make([]bool, n)
	var samples []HipSample
	for i, p := range poses {
		if kp, usable := p.Usable(hip, s.threshold); usable {
			ys[i], ok[i] = kp.Y, true
			samples = append(samples, HipSample{Index: i, Frame: p.FrameIndex(), Y: kp.Y})
		}
	}

	maxIdx, lowIdx := -1, -1
	maxDisp, lowY := math.Inf(-1), math.Inf(-1)
	for i := 1; i < n-1; i++ {
		if !ok[i-1] || !ok[i] || !ok[i+1] {
			continue
		}
		if d := math.Abs(ys[i]-ys[i-1]) + math.Abs(ys[i+1]-ys[i]); d > maxDisp {
			maxDisp, maxIdx = d, i
		}
		if ys[i] > lowY {
			lowY, lowIdx = ys[i], i
		}
	}

	var t int
	var method Method
	switch {
	case maxIdx < 0:
		t, method = n/2, Midpoint
	case absInt(maxIdx-lowIdx) <= s.window:
		t, method = lowIdx, LowestHip
	default:
		t, method = maxIdx, MaxDisplacement
	}

	sitEnd := min(max(s.minFrames, t), n)
	riseStart := max(min(n-s.minFrames, t), 0)

	return Segmentation{
		Sitting:    poses[:sitEnd],
		Rising:     poses[riseStart:],
		Transition: t,
		Method:     method,
		Side:       side,
		Hip:        samples,
	}
}

// HipSide returns the side whose hip has the higher mean confidence across
// poses. Ties go to the right side.
func HipSide(poses []srt.Pose) srt.Side {
	if len(poses) == 0 {
		return srt.Right
	}
	right := make([]float64, len(poses))
	left := make([]float64, len(poses))
	for i, p := range poses {
		right[i] = p.Confidence(srt.RightHip)
		left[i] = p.Confidence(srt.LeftHip)
	}
	if stat.Mean(left, nil) > stat.Mean(right, nil) {
		return srt.Left
	}
	return srt.Right
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
