package pose

import (
	"github.com/banshee-data/sitrise/internal/srt"
)

// request is one line written to the worker.
type request struct {
	Frame string `json:"frame"`
}

// response is one line read back from the worker. The model may report
// several people; the most confident one is taken as the subject.
type response struct {
	Frame  string      `json:"frame"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Poses  []detection `json:"poses"`
	Error  string      `json:"error,omitempty"`
}

type detection struct {
	Score     float64             `json:"score"`
	Keypoints []srt.NamedKeypoint `json:"keypoints"`
}

// subject picks the detection with the highest score, falling back to the
// mean keypoint confidence when the model leaves scores at zero. It
// returns nil when nothing was detected.
func (r response) subject(framePath string) (*srt.Pose, error) {
	var best *srt.Pose
	bestScore := -1.0
	for _, d := range r.Poses {
		if len(d.Keypoints) == 0 {
			continue
		}
		p, err := srt.NewPose(0, framePath, r.Width, r.Height, d.Keypoints)
		if err != nil {
			return nil, err
		}
		score := d.Score
		if score == 0 {
			score = p.MeanConfidence()
		}
		if score > bestScore {
			bestScore = score
			best = &p
		}
	}
	return best, nil
}
