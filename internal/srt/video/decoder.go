// Package video wraps the external decoding tools (ffprobe and ffmpeg) that
// the frame sampler relies on. Decoding is never done in-process.
package video

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/banshee-data/sitrise/internal/fsutil"
)

// FramePattern is the file name pattern of extracted frames.
const FramePattern = "frame_*.jpg"

// frameFormat is the ffmpeg output template. Numbers wider than six digits
// still sort correctly through frameNumber.
const frameFormat = "frame_%06d.jpg"

// FrameName returns the file name ffmpeg gives the i-th extracted frame,
// counting from zero.
func FrameName(i int) string {
	return fmt.Sprintf(frameFormat, i+1)
}

// frameNumber parses the sequence number out of an extracted frame path,
// or returns -1.
func frameNumber(path string) int {
	var n int
	if _, err := fmt.Sscanf(filepath.Base(path), "frame_%d.jpg", &n); err != nil {
		return -1
	}
	return n
}

// ExtractOptions selects the extraction rate and image filters.
type ExtractOptions struct {
	FPS        float64
	Scale      float64
	Brightness float64
	Contrast   float64
	Denoise    float64
}

// Decoder is the video decoding collaborator used by the sampler.
type Decoder interface {
	// Duration returns the video duration in seconds.
	Duration(ctx context.Context, path string) (float64, error)

	// Extract writes frames for path into outDir and returns their paths in
	// presentation order.
	Extract(ctx context.Context, path, outDir string, opts ExtractOptions) ([]string, error)
}

// FFmpeg implements Decoder with the ffprobe and ffmpeg binaries.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
	Commands    CommandBuilder
	FS          fsutil.FileSystem
}

// NewFFmpeg returns a decoder using binaries found on PATH.
func NewFFmpeg() *FFmpeg {
	return &FFmpeg{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Commands:    RealCommandBuilder{},
		FS:          fsutil.OSFileSystem{},
	}
}

// Duration probes the container duration.
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	out, err := f.Commands.BuildCommand(ctx, f.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	raw := strings.TrimSpace(string(out))
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", raw, err)
	}
	if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("invalid duration %v", d)
	}
	return d, nil
}

// Extract runs ffmpeg with the fps, scale, eq and hqdn3d filters.
func (f *FFmpeg) Extract(ctx context.Context, path, outDir string, opts ExtractOptions) ([]string, error) {
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("invalid extraction rate %v", opts.FPS)
	}
	if err := f.FS.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}

	_, err := f.Commands.BuildCommand(ctx, f.FFmpegPath,
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", path,
		"-vf", FilterGraph(opts),
		"-q:v", "2",
		filepath.Join(outDir, frameFormat),
	).Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg %s: %w", path, err)
	}

	frames, err := f.FS.ListFiles(outDir, FramePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list extracted frames: %w", err)
	}
	slices.SortStableFunc(frames, func(a, b string) int {
		return frameNumber(a) - frameNumber(b)
	})
	return frames, nil
}

// FilterGraph renders the -vf argument for opts. Filters with a zero value
// are left out, except fps.
func FilterGraph(opts ExtractOptions) string {
	filters := []string{"fps=" + formatFloat(opts.FPS)}
	if opts.Scale > 0 && opts.Scale != 1 {
		s := formatFloat(opts.Scale)
		filters = append(filters, fmt.Sprintf("scale=trunc(iw*%s/2)*2:trunc(ih*%s/2)*2", s, s))
	}
	if opts.Brightness != 0 || (opts.Contrast != 0 && opts.Contrast != 1) {
		contrast := opts.Contrast
		if contrast == 0 {
			contrast = 1
		}
		filters = append(filters, fmt.Sprintf("eq=contrast=%s:brightness=%s", formatFloat(contrast), formatFloat(opts.Brightness)))
	}
	if opts.Denoise > 0 {
		filters = append(filters, "hqdn3d="+formatFloat(opts.Denoise))
	}
	return strings.Join(filters, ",")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
