package srt

import (
	"encoding/json"
	"fmt"
)

// Landmark identifies an anatomical keypoint produced by the pose model.
type Landmark uint8

// COCO body landmarks, in model output order.
const (
	Nose Landmark = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle

	NumLandmarks
)

var landmarkNames = [NumLandmarks]string{
	"nose",
	"left_eye",
	"right_eye",
	"left_ear",
	"right_ear",
	"left_shoulder",
	"right_shoulder",
	"left_elbow",
	"right_elbow",
	"left_wrist",
	"right_wrist",
	"left_hip",
	"right_hip",
	"left_knee",
	"right_knee",
	"left_ankle",
	"right_ankle",
}

// String returns the wire name of the landmark.
func (l Landmark) String() string {
	if l < NumLandmarks {
		return landmarkNames[l]
	}
	return fmt.Sprintf("landmark(%d)", uint8(l))
}

// ParseLandmark resolves a wire name such as "right_hip".
func ParseLandmark(name string) (Landmark, error) {
	for i, n := range landmarkNames {
		if n == name {
			return Landmark(i), nil
		}
	}
	return 0, fmt.Errorf("unknown landmark %q", name)
}

// MarshalJSON encodes the landmark by name.
func (l Landmark) MarshalJSON() ([]byte, error) {
	if l >= NumLandmarks {
		return nil, fmt.Errorf("invalid landmark %d", uint8(l))
	}
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a landmark name.
func (l *Landmark) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseLandmark(name)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Side selects the left or right half of the body.
type Side uint8

const (
	Right Side = iota
	Left
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Hip returns the hip landmark on this side.
func (s Side) Hip() Landmark {
	if s == Left {
		return LeftHip
	}
	return RightHip
}
