package pose

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/banshee-data/sitrise/internal/fsutil"
	"github.com/banshee-data/sitrise/internal/srt"
	"github.com/banshee-data/sitrise/internal/srt/video"
	"github.com/banshee-data/sitrise/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixtureSource_ByFrameName(t *testing.T) {
	poses := testutil.SitToStand(t, 4, 2)
	src := NewFixtureSource(poses)
	assert.Equal(t, 4, src.Len())

	third := "/tmp/run/" + video.FrameName(2)
	p, err := src.Estimate(context.Background(), third)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.FrameIndex())
	assert.Equal(t, third, p.FrameRef())

	p, err = src.Estimate(context.Background(), "/tmp/run/"+video.FrameName(8))
	require.NoError(t, err)
	assert.Nil(t, p, "unrecorded frame has no detection")
}

func TestFixtureSource_CancelledContext(t *testing.T) {
	src := NewFixtureSource(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Estimate(ctx, "frame_0001.jpg")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, src.Close())
}

func TestLoadFixture(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	poses := []srt.Pose{testutil.Standing().Pose(t, 0).WithFrame(0, "clip/frame_0001.jpg")}
	data, err := json.Marshal(poses)
	require.NoError(t, err)
	require.NoError(t, mfs.WriteFile("/fixtures/poses.json", data, 0644))

	src, err := LoadFixture(mfs, "/fixtures/poses.json")
	require.NoError(t, err)
	p, err := src.Estimate(context.Background(), "/work/frame_0001.jpg")
	require.NoError(t, err)
	require.NotNil(t, p)
	_, ok := p.Usable(srt.RightHip, 0.3)
	assert.True(t, ok)

	_, err = LoadFixture(mfs, "/fixtures/missing.json")
	assert.Error(t, err)

	require.NoError(t, mfs.WriteFile("/fixtures/bad.json", []byte("{"), 0644))
	_, err = LoadFixture(mfs, "/fixtures/bad.json")
	assert.Error(t, err)
}
