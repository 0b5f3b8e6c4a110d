package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"movie-maker/internal/apperr"
	"movie-maker/internal/engine"
	"movie-maker/internal/logging"
	"movie-maker/internal/metrics"
)

// Result is the normalized description of a media file.
type Result struct {
	Duration float64      `json:"duration"`
	Size     int64        `json:"size"`
	BitRate  int64        `json:"bitRate"`
	Format   string       `json:"format"`
	Video    *VideoStream `json:"video"`
	Audio    *AudioStream `json:"audio"`
}

// VideoStream describes the first video stream.
type VideoStream struct {
	Codec       string  `json:"codec"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	FrameRate   float64 `json:"frameRate"`
	PixelFormat string  `json:"pixelFormat"`
}

// AudioStream describes the first audio stream.
type AudioStream struct {
	Codec      string `json:"codec"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// rawOutput mirrors the subset of ffprobe's JSON that is used.
type rawOutput struct {
	Streams []rawStream `json:"streams"`
	Format  rawFormat   `json:"format"`
}

type rawStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	PixFmt       string `json:"pix_fmt"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
}

type rawFormat struct {
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Prober runs ffprobe.
type Prober struct {
	Binary string
	// Timeout bounds a single run. Zero means no limit beyond the caller's context.
	Timeout time.Duration
	// StderrTail is how much of ffprobe's stderr is kept for error reports.
	StderrTail int
}

// New returns a Prober for binary with a 30 second timeout.
func New(binary string) *Prober {
	return &Prober{Binary: binary, Timeout: 30 * time.Second, StderrTail: 4096}
}

// Probe inspects the file at path.
func (p *Prober) Probe(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	result, err := p.probe(ctx, path)

	metrics.ProbeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProbesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ProbesTotal.WithLabelValues("success").Inc()
	return result, nil
}

func (p *Prober) probe(ctx context.Context, path string) (*Result, error) {
	if strings.TrimSpace(path) == "" {
		return nil, apperr.Validation("probe", "empty path")
	}

	binary := strings.TrimSpace(p.Binary)
	if binary == "" {
		binary = "ffprobe"
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	tail := engine.NewTailBuffer(p.StderrTail)
	var stdout bytes.Buffer
	cmd := engine.Command(ctx, binary,
		[]string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path},
		tail)
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, apperr.Cancelled("probe", "probe cancelled")
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out: %w", err)
		}
		logging.Debug("ffprobe failed for %s: %v: %s", path, err, tail.String())
		return nil, apperr.Engine("probe", err, tail.String())
	}

	return Parse(stdout.Bytes())
}

// Parse normalizes ffprobe JSON output.
func Parse(data []byte) (*Result, error) {
	var raw rawOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperr.Engine("probe", fmt.Errorf("unreadable ffprobe output: %w", err), "")
	}

	result := &Result{
		Duration: parseFloat(raw.Format.Duration),
		Size:     parseInt(raw.Format.Size),
		BitRate:  parseInt(raw.Format.BitRate),
		Format:   raw.Format.FormatName,
	}

	for _, s := range raw.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			if result.Video != nil {
				continue
			}
			rate, err := ParseFrameRate(s.RFrameRate)
			if err != nil || rate == 0 {
				rate, _ = ParseFrameRate(s.AvgFrameRate)
			}
			result.Video = &VideoStream{
				Codec:       s.CodecName,
				Width:       s.Width,
				Height:      s.Height,
				FrameRate:   rate,
				PixelFormat: s.PixFmt,
			}
		case "audio":
			if result.Audio != nil {
				continue
			}
			result.Audio = &AudioStream{
				Codec:      s.CodecName,
				SampleRate: int(parseInt(s.SampleRate)),
				Channels:   s.Channels,
			}
		}
	}

	return result, nil
}

// ParseFrameRate parses "num/den" or a plain decimal. ffprobe reports an
// unknown rate as "0/0", which yields 0 and no error.
func ParseFrameRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	num, den, isRatio := strings.Cut(s, "/")
	if !isRatio {
		r, ok := new(big.Rat).SetString(s)
		if !ok {
			return 0, fmt.Errorf("invalid frame rate %q", s)
		}
		f, _ := r.Float64()
		return f, nil
	}

	n, ok := new(big.Int).SetString(strings.TrimSpace(num), 10)
	if !ok {
		return 0, fmt.Errorf("invalid frame rate %q", s)
	}
	d, ok := new(big.Int).SetString(strings.TrimSpace(den), 10)
	if !ok {
		return 0, fmt.Errorf("invalid frame rate %q", s)
	}
	if d.Sign() == 0 {
		return 0, nil
	}

	f, _ := new(big.Rat).SetFrac(n, d).Float64()
	return f, nil
}

func parseFloat(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func parseInt(value string) int64 {
	v := parseFloat(value)
	if v > math.MaxInt64 {
		return 0
	}
	return int64(v)
}
