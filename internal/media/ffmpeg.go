// Package media extracts video frames for timeline analysis using the
// ffmpeg and ffprobe binaries.
package media

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FFmpegSampler shells out to ffprobe/ffmpeg. Binaries must be on PATH
// unless overridden.
type FFmpegSampler struct {
	FFprobePath string
	FFmpegPath  string
}

// NewFFmpegSampler returns a sampler using the default binary names.
func NewFFmpegSampler() *FFmpegSampler {
	return &FFmpegSampler{FFprobePath: "ffprobe", FFmpegPath: "ffmpeg"}
}

// Probe reads the container's frame rate and frame count. A missing or
// unparsable frame rate is reported as zero, letting the caller apply its
// configured default.
func (s *FFmpegSampler) Probe(ctx context.Context, path string) (float64, int, error) {
	out, err := exec.CommandContext(ctx, s.FFprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate,nb_frames",
		"-of", "csv=p=0",
		path,
	).Output()
	if err != nil {
		return 0, 0, fmt.Errorf("probing %s: %w", path, err)
	}

	fields := strings.Split(strings.TrimSpace(string(out)), ",")
	var fps float64
	var totalFrames int
	if len(fields) > 0 {
		fps = parseFrameRate(fields[0])
	}
	if len(fields) > 1 {
		totalFrames, _ = strconv.Atoi(strings.TrimSpace(fields[1]))
	}
	return fps, totalFrames, nil
}

// Sample extracts one frame every strideFrames frames into dir and returns
// the written image paths in timeline order.
func (s *FFmpegSampler) Sample(ctx context.Context, path string, strideFrames int, dir string) ([]string, error) {
	if strideFrames < 1 {
		strideFrames = 1
	}
	pattern := filepath.Join(dir, "frame_%06d.jpg")
	cmd := exec.CommandContext(ctx, s.FFmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-vf", fmt.Sprintf("select=not(mod(n\\,%d))", strideFrames),
		"-vsync", "vfr",
		"-q:v", "2",
		pattern,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("extracting frames from %s: %w (%s)", path, err, strings.TrimSpace(string(out)))
	}

	frames, err := filepath.Glob(filepath.Join(dir, "frame_*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("listing extracted frames: %w", err)
	}
	sort.Strings(frames)
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted from %s", path)
	}
	return frames, nil
}

// parseFrameRate handles ffprobe's rational notation ("30000/1001") as well
// as plain decimals.
func parseFrameRate(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0
		}
		return n / d
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}
