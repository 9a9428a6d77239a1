package srt

import (
	"encoding/json"
	"fmt"
)

// Keypoint is one detected landmark position in frame pixels.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Point returns the keypoint position.
func (k Keypoint) Point() Point {
	return Point{X: k.X, Y: k.Y}
}

// NamedKeypoint pairs a keypoint with its landmark, used on the wire.
type NamedKeypoint struct {
	Landmark Landmark `json:"name"`
	Keypoint
}

// Pose is the set of keypoints detected in a single sampled frame. A Pose
// is immutable once built: landmarks that the model did not report stay
// absent and are never zero-filled.
type Pose struct {
	frameIndex int
	frameRef   string
	width      float64
	height     float64
	points     [NumLandmarks]Keypoint
	present    uint32
}

// NewPose builds a Pose for the sampled frame at frameIndex.
func NewPose(frameIndex int, frameRef string, width, height float64, keypoints []NamedKeypoint) (Pose, error) {
	p := Pose{
		frameIndex: frameIndex,
		frameRef:   frameRef,
		width:      width,
		height:     height,
	}
	for _, kp := range keypoints {
		if kp.Landmark >= NumLandmarks {
			return Pose{}, fmt.Errorf("invalid landmark %d", uint8(kp.Landmark))
		}
		p.points[kp.Landmark] = kp.Keypoint
		p.present |= 1 << kp.Landmark
	}
	return p, nil
}

// FrameIndex is the position of the source frame in the sampled sequence.
func (p Pose) FrameIndex() int { return p.frameIndex }

// FrameRef is the reference (usually a file name) of the source frame.
func (p Pose) FrameRef() string { return p.frameRef }

// Width of the source frame in pixels.
func (p Pose) Width() float64 { return p.width }

// Height of the source frame in pixels.
func (p Pose) Height() float64 { return p.height }

// WithFrame returns a copy of p attributed to another sampled frame.
func (p Pose) WithFrame(frameIndex int, frameRef string) Pose {
	p.frameIndex = frameIndex
	p.frameRef = frameRef
	return p
}

// MeanConfidence averages the confidence of the reported keypoints.
func (p Pose) MeanConfidence() float64 {
	var sum float64
	var n int
	for l := Landmark(0); l < NumLandmarks; l++ {
		if kp, ok := p.Keypoint(l); ok {
			sum += kp.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Keypoint returns the keypoint for l and whether the model reported it.
func (p Pose) Keypoint(l Landmark) (Keypoint, bool) {
	if l >= NumLandmarks || p.present&(1<<l) == 0 {
		return Keypoint{}, false
	}
	return p.points[l], true
}

// Usable returns the keypoint for l when it is present and its confidence
// reaches threshold.
func (p Pose) Usable(l Landmark, threshold float64) (Keypoint, bool) {
	kp, ok := p.Keypoint(l)
	if !ok || kp.Confidence < threshold {
		return Keypoint{}, false
	}
	return kp, true
}

// Confidence returns the confidence of l, or 0 when absent.
func (p Pose) Confidence(l Landmark) float64 {
	kp, _ := p.Keypoint(l)
	return kp.Confidence
}

// Keypoints returns the reported keypoints in landmark order.
func (p Pose) Keypoints() []NamedKeypoint {
	out := make([]NamedKeypoint, 0, NumLandmarks)
	for l := Landmark(0); l < NumLandmarks; l++ {
		if kp, ok := p.Keypoint(l); ok {
			out = append(out, NamedKeypoint{Landmark: l, Keypoint: kp})
		}
	}
	return out
}

type poseJSON struct {
	FrameIndex int             `json:"frame_index"`
	Frame      string          `json:"frame,omitempty"`
	Width      float64         `json:"width"`
	Height     float64         `json:"height"`
	Keypoints  []NamedKeypoint `json:"keypoints"`
}

// MarshalJSON encodes the pose with named keypoints.
func (p Pose) MarshalJSON() ([]byte, error) {
	return json.Marshal(poseJSON{
		FrameIndex: p.frameIndex,
		Frame:      p.frameRef,
		Width:      p.width,
		Height:     p.height,
		Keypoints:  p.Keypoints(),
	})
}

// UnmarshalJSON decodes a pose encoded by MarshalJSON.
func (p *Pose) UnmarshalJSON(data []byte) error {
	var raw poseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := NewPose(raw.FrameIndex, raw.Frame, raw.Width, raw.Height, raw.Keypoints)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}
