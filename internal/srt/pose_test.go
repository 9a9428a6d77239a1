package srt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPose_KeypointLookup(t *testing.T) {
	p, err := NewPose(3, "frame_0004.jpg", 640, 480, []NamedKeypoint{
		{Landmark: RightHip, Keypoint: Keypoint{X: 100, Y: 200, Confidence: 0.9}},
		{Landmark: RightKnee, Keypoint: Keypoint{X: 110, Y: 300, Confidence: 0.2}},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, p.FrameIndex())
	assert.Equal(t, "frame_0004.jpg", p.FrameRef())
	assert.Equal(t, 640.0, p.Width())
	assert.Equal(t, 480.0, p.Height())

	hip, ok := p.Keypoint(RightHip)
	require.True(t, ok)
	assert.Equal(t, 200.0, hip.Y)

	_, ok = p.Keypoint(RightAnkle)
	assert.False(t, ok, "absent landmark must not be reported")

	_, ok = p.Usable(RightKnee, 0.3)
	assert.False(t, ok, "sub-threshold keypoint is unavailable")
	_, ok = p.Usable(RightHip, 0.3)
	assert.True(t, ok)

	assert.Equal(t, 0.0, p.Confidence(LeftHip))
	assert.Len(t, p.Keypoints(), 2)
}

func TestPose_InvalidLandmark(t *testing.T) {
	_, err := NewPose(0, "", 1, 1, []NamedKeypoint{{Landmark: NumLandmarks}})
	assert.Error(t, err)
}

func TestPose_JSONRoundTrip(t *testing.T) {
	raw := `{"frame_index":2,"frame":"f.jpg","width":320,"height":240,
		"keypoints":[{"name":"left_wrist","x":1,"y":2,"confidence":0.5}]}`

	var p Pose
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	kp, ok := p.Keypoint(LeftWrist)
	require.True(t, ok)
	assert.Equal(t, Keypoint{X: 1, Y: 2, Confidence: 0.5}, kp)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"name":"left_wrist"`)

	err = json.Unmarshal([]byte(`{"keypoints":[{"name":"tail"}]}`), &p)
	assert.Error(t, err)
}

func TestLandmarkNames(t *testing.T) {
	for l := Landmark(0); l < NumLandmarks; l++ {
		parsed, err := ParseLandmark(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, parsed)
	}
	assert.Equal(t, "landmark(99)", Landmark(99).String())
	assert.Equal(t, LeftHip, Left.Hip())
	assert.Equal(t, RightHip, Right.Hip())
}

func TestSupportSet(t *testing.T) {
	var s SupportSet
	assert.True(t, s.Empty())
	assert.Equal(t, "NONE", s.String())

	s = s.Add(KneeSupport)
	assert.True(t, s.Has(KneeSupport))
	assert.False(t, s.Has(HandSupport))

	s = s.Union(SupportSet(0).Add(HandSupport))
	assert.Equal(t, []string{"HAND", "KNEE"}, s.Names())
	assert.Equal(t, "HAND+KNEE", s.String())

	assert.Equal(t, s, ParseSupportSet([]string{"knee", "HAND", "ELBOW"}))
	assert.True(t, ParseSupportSet(nil).Empty())
}

func TestPose_WithFrameAndMeanConfidence(t *testing.T) {
	p, err := NewPose(0, "", 640, 480, []NamedKeypoint{
		{Landmark: Nose, Keypoint: Keypoint{Confidence: 0.4}},
		{Landmark: RightHip, Keypoint: Keypoint{Confidence: 0.8}},
	})
	require.NoError(t, err)

	moved := p.WithFrame(7, "frame_0008.jpg")
	assert.Equal(t, 7, moved.FrameIndex())
	assert.Equal(t, "frame_0008.jpg", moved.FrameRef())
	assert.Equal(t, 0, p.FrameIndex(), "original is unchanged")

	assert.InDelta(t, 0.6, p.MeanConfidence(), 1e-9)

	empty, err := NewPose(0, "", 1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty.MeanConfidence())
}
