package analysis

import (
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/sitrise/internal/srt/feedback"
	"github.com/banshee-data/sitrise/internal/srt/phase"
	"github.com/banshee-data/sitrise/internal/srt/scoring"
	"github.com/banshee-data/sitrise/internal/srt/support"
	"github.com/banshee-data/sitrise/internal/version"
)

// Status is the outcome of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// PhaseSupport is the support summary of both phases.
type PhaseSupport struct {
	Sitting support.Summary `json:"sitting"`
	Rising  support.Summary `json:"rising"`
}

// Timings are stage durations in milliseconds.
type Timings struct {
	Sampling     float64 `json:"sampling"`
	Estimation   float64 `json:"estimation"`
	Scoring      float64 `json:"scoring"`
	Total        float64 `json:"total"`
	SlowestFrame float64 `json:"slowest_frame"`
}

// Performance describes how a run went.
type Performance struct {
	FrameCount       int      `json:"frame_count"`
	ExtractedFrames  int      `json:"extracted_frames"`
	PoseCount        int      `json:"pose_count"`
	VideoDuration    float64  `json:"video_duration_s"`
	SampleFPS        float64  `json:"sample_fps"`
	TransitionIndex  int      `json:"transition_index"`
	TransitionMethod string   `json:"transition_method"`
	HipSide          string   `json:"hip_side"`
	Timings          Timings  `json:"timings_ms"`
	Warnings         []string `json:"warnings"`
}

// Series holds per-frame data for diagnostic charts.
type Series struct {
	Hip     []phase.HipSample        `json:"hip_y"`
	Sitting []scoring.SittingMetrics `json:"sitting"`
	Rising  []scoring.RisingMetrics  `json:"rising"`
}

// Report is the result of one analysis run. It is built once and not
// modified afterwards.
type Report struct {
	ID        string `json:"id"`
	Status    Status `json:"status"`
	VideoPath string `json:"video_path"`

	SitScore        float64 `json:"sit_score"`
	RiseScore       float64 `json:"rise_score"`
	TotalScore      float64 `json:"total_score"`
	PosturalControl float64 `json:"postural_control"`
	Balance         float64 `json:"balance"`
	Coordination    float64 `json:"coordination"`

	SittingMetrics scoring.SittingAverages `json:"sitting_metrics"`
	RisingMetrics  scoring.RisingAverages  `json:"rising_metrics"`
	Support        PhaseSupport            `json:"support"`
	Feedback       feedback.Feedback       `json:"feedback"`

	Frames      []string    `json:"frames"`
	Performance Performance `json:"performance"`
	Series      *Series     `json:"series,omitempty"`

	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	EngineVersion string    `json:"engine_version"`
}

// NewReportID returns a fresh report identifier.
func NewReportID() string {
	return uuid.NewString()
}

// NewFailedReport returns the record kept for a run that aborted: every
// score is zero and Error carries the cause.
func NewFailedReport(id, videoPath string, cause error, at time.Time) *Report {
	if id == "" {
		id = NewReportID()
	}
	msg := "analysis failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &Report{
		ID:        id,
		Status:    StatusFailed,
		VideoPath: videoPath,
		Support: PhaseSupport{
			Sitting: support.Summary{Names: []string{}},
			Rising:  support.Summary{Names: []string{}},
		},
		Feedback: feedback.Feedback{
			Strengths:       []string{},
			Improvements:    []string{},
			Recommendations: []string{},
		},
		Frames:        []string{},
		Performance:   Performance{Warnings: []string{}},
		Error:         msg,
		CreatedAt:     at.UTC(),
		EngineVersion: version.Version,
	}
}
