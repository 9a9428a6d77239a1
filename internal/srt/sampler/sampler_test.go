package sampler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/banshee-data/sitrise/internal/config"
	"github.com/banshee-data/sitrise/internal/srt/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDecoder struct {
	duration    float64
	durationErr error
	frames      int
	extractErr  error
	gotOpts     video.ExtractOptions
}

func (f *fakeDecoder) Duration(context.Context, string) (float64, error) {
	return f.duration, f.durationErr
}

func (f *fakeDecoder) Extract(_ context.Context, _, outDir string, opts video.ExtractOptions) ([]string, error) {
	f.gotOpts = opts
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return frameNames(outDir, f.frames), nil
}

func frameNames(dir string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s/frame_%04d.jpg", dir, i+1)
	}
	return out
}

func TestTargetFPS(t *testing.T) {
	p := config.DefaultParams()
	tests := []struct {
		duration float64
		want     float64
	}{
		{2, 10},   // 40/2 = 20, capped
		{5, 8},    // 40/5
		{8, 5},    // 40/8
		{30, 5},   // floor at base rate
		{0, 5},    // unknown duration
		{4.0, 10}, // exactly max
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, TargetFPS(tt.duration, p), 1e-9, "duration %v", tt.duration)
	}
}

func TestDownsample(t *testing.T) {
	t.Run("short input untouched", func(t *testing.T) {
		in := frameNames("d", 25)
		out := Downsample(in, 40)
		assert.Equal(t, in, out)
	})

	for _, n := range []int{41, 50, 79, 80, 81, 100, 120, 333} {
		n := n
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			in := frameNames("d", n)
			out := Downsample(in, 40)

			require.LessOrEqual(t, len(out), 40)
			assert.Equal(t, in[0], out[0], "first frame kept")
			assert.Equal(t, in[n-1], out[len(out)-1], "last frame kept")

			// Order is preserved and no frame repeats.
			for i := 1; i < len(out); i++ {
				assert.Less(t, out[i-1], out[i])
			}
		})
	}

	t.Run("stride", func(t *testing.T) {
		in := frameNames("d", 60)
		out := Downsample(in, 40)
		// stride = ceil(60/40) = 2 → 0,2,...,58 then 59
		assert.Len(t, out, 31)
		assert.Equal(t, in[2], out[1])
		assert.Equal(t, in[58], out[29])
	})
}

func TestSampler_Sample(t *testing.T) {
	p := config.DefaultParams()
	dec := &fakeDecoder{duration: 6, frames: 60}
	s := New(p, dec)

	res, err := s.Sample(context.Background(), "clip.mp4", "/work/run")
	require.NoError(t, err)

	assert.InDelta(t, 40.0/6, res.FPS, 1e-9)
	assert.Equal(t, 60, res.Extracted)
	assert.LessOrEqual(t, len(res.Frames), p.MaxFrames)
	assert.Equal(t, "/work/run/frame_0001.jpg", res.Frames[0])
	assert.Equal(t, "/work/run/frame_0060.jpg", res.Frames[len(res.Frames)-1])

	assert.Equal(t, p.Filters.Contrast, dec.gotOpts.Contrast)
	assert.Equal(t, p.Filters.Denoise, dec.gotOpts.Denoise)
}

func TestSampler_FewFramesIsNotAnError(t *testing.T) {
	s := New(config.DefaultParams(), &fakeDecoder{duration: 1, frames: 8})
	res, err := s.Sample(context.Background(), "clip.mp4", "/work/run")
	require.NoError(t, err)
	assert.Len(t, res.Frames, 8)
}

func TestSampler_Errors(t *testing.T) {
	probeErr := errors.New("moov atom not found")
	_, err := New(config.DefaultParams(), &fakeDecoder{durationErr: probeErr}).
		Sample(context.Background(), "bad.mp4", "/work/run")

	var de *DurationError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "bad.mp4", de.Path)
	assert.ErrorIs(t, err, probeErr)

	extractErr := errors.New("decoder crashed")
	_, err = New(config.DefaultParams(), &fakeDecoder{duration: 5, extractErr: extractErr}).
		Sample(context.Background(), "bad.mp4", "/work/run")
	assert.ErrorIs(t, err, extractErr)
	assert.False(t, errors.As(err, &de))
}
