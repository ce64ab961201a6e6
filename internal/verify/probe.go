package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/streamscan/stream-scan/internal/catalog"
)

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	BitRate      string `json:"bit_rate"`
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  struct {
		BitRate string `json:"bit_rate"`
	} `json:"format"`
}

// runFFprobe inspects a stream with ffprobe under a hard deadline. Missing
// binary, timeout and non-zero exit all come back as errors so the caller
// keeps its HTTP verdict.
func runFFprobe(ctx context.Context, streamURL string, timeout time.Duration) (*catalog.ProbeInfo, error) {
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not installed: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultProbeWindow
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		"-v", "error", "-nostdin",
		"-rw_timeout", "5000000",
		"-show_streams", "-show_format",
		"-of", "json",
		streamURL,
	}
	out, err := exec.CommandContext(ctx, ffprobePath, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("ffprobe output: %w", err)
	}

	info := &catalog.ProbeInfo{}
	for _, s := range parsed.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.Width = s.Width
		info.Height = s.Height
		info.VideoCodec = s.CodecName
		info.FPS = parseFrameRate(s.AvgFrameRate)
		if s.BitRate != "" {
			info.BitRate, _ = strconv.Atoi(s.BitRate)
		}
		break
	}
	if info.BitRate == 0 && parsed.Format.BitRate != "" {
		info.BitRate, _ = strconv.Atoi(parsed.Format.BitRate)
	}
	if info.Width == 0 && info.Height == 0 {
		return nil, fmt.Errorf("ffprobe: no video stream in %s", streamURL)
	}
	return info, nil
}

// parseFrameRate parses ffprobe's "num/den" rational form.
func parseFrameRate(raw string) float64 {
	num, den, found := strings.Cut(raw, "/")
	if !found {
		f, _ := strconv.ParseFloat(raw, 64)
		return f
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
