package pose

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/sitrise/internal/fsutil"
	"github.com/banshee-data/sitrise/internal/srt"
	"github.com/banshee-data/sitrise/internal/srt/video"
)

// FixtureSource replays recorded poses keyed by frame file name. Frames
// that are not in the recording have no detection.
type FixtureSource struct {
	poses map[string]srt.Pose
}

// NewFixtureSource indexes poses by the base name of their frame
// reference, or by the extractor's name for their frame index when the
// reference is empty.
func NewFixtureSource(poses []srt.Pose) *FixtureSource {
	m := make(map[string]srt.Pose, len(poses))
	for _, p := range poses {
		key := filepath.Base(p.FrameRef())
		if p.FrameRef() == "" {
			key = video.FrameName(p.FrameIndex())
		}
		m[key] = p
	}
	return &FixtureSource{poses: m}
}

// LoadFixture reads a JSON array of poses.
func LoadFixture(fsys fsutil.FileSystem, path string) (*FixtureSource, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pose fixture: %w", err)
	}
	var poses []srt.Pose
	if err := json.Unmarshal(data, &poses); err != nil {
		return nil, fmt.Errorf("parse pose fixture %s: %w", path, err)
	}
	return NewFixtureSource(poses), nil
}

// Len is the number of recorded frames.
func (f *FixtureSource) Len() int { return len(f.poses) }

// Estimate returns the recorded pose for framePath.
func (f *FixtureSource) Estimate(ctx context.Context, framePath string) (*srt.Pose, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := f.poses[filepath.Base(framePath)]
	if !ok {
		return nil, nil
	}
	p = p.WithFrame(p.FrameIndex(), framePath)
	return &p, nil
}

// Close is a no-op.
func (f *FixtureSource) Close() error { return nil }
