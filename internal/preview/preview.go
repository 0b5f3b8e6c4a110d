package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"movie-maker/internal/apperr"
	"movie-maker/internal/engine"
	"movie-maker/internal/logging"
	"movie-maker/internal/mediatypes"
	"movie-maker/internal/metrics"
	"movie-maker/internal/workers"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultWidth is used when no width is requested.
	DefaultWidth = 320
	// MaxWidth is the widest preview that will be rendered.
	MaxWidth = 1280

	// Quality is the JPEG quality of rendered previews.
	Quality = 80

	// frameOffset is where frames are grabbed from, in seconds. Clips
	// shorter than this fall back to the first frame.
	frameOffset = "1"
)

// Pressure reports whether the process is short of memory.
type Pressure interface {
	IsPaused() bool
}

// Generator renders JPEG previews of uploaded images and videos.
type Generator struct {
	binary   string
	timeout  time.Duration
	sem      chan struct{}
	pressure Pressure
}

// New creates a Generator that grabs video frames with the given ffmpeg
// binary. Frame grabs run at most workers.ForIO(2) at a time.
func New(binary string) *Generator {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Generator{
		binary:  binary,
		timeout: 30 * time.Second,
		sem:     make(chan struct{}, workers.ForIO(2)),
	}
}

// SetPressure makes Generate refuse work while p reports memory pressure.
func (g *Generator) SetPressure(p Pressure) {
	g.pressure = p
}

// Generate renders a preview of the file at path no wider than width. A
// width of 0 selects DefaultWidth. Images narrower than width are not
// upscaled.
func (g *Generator) Generate(ctx context.Context, path string, width int) ([]byte, error) {
	if width == 0 {
		width = DefaultWidth
	}
	if width < 0 || width > MaxWidth {
		return nil, apperr.Validation("preview", "width must be between 1 and %d", MaxWidth)
	}

	kind := mediatypes.KindOf(path)
	if g.pressure != nil && g.pressure.IsPaused() {
		metrics.PreviewGenerationsTotal.WithLabelValues(string(kind), "refused").Inc()
		return nil, apperr.ResourceExhausted("preview", "server is low on memory")
	}

	start := time.Now()

	data, err := g.generate(ctx, path, kind, width)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.PreviewGenerationsTotal.WithLabelValues(string(kind), status).Inc()
	metrics.PreviewGenerationDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	return data, err
}

func (g *Generator) generate(ctx context.Context, path string, kind mediatypes.Kind, width int) ([]byte, error) {
	var img image.Image
	var err error

	switch kind {
	case mediatypes.KindImage:
		img, err = imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			return nil, apperr.Engine("preview", err, "could not decode image")
		}
	case mediatypes.KindVideo:
		img, err = g.grabFrame(ctx, path)
		if err != nil {
			return nil, err
		}
	default:
		return nil, apperr.Validation("preview", "no preview available for this file type")
	}

	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, apperr.Internal("preview", fmt.Errorf("encode preview: %w", err))
	}

	logging.Debug("Preview rendered for %s (%d bytes, width %d)", path, buf.Len(), width)
	return buf.Bytes(), nil
}

func (g *Generator) grabFrame(ctx context.Context, path string) (image.Image, error) {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, apperr.Cancelled("preview", "request ended while waiting for a frame grab slot")
	}
	defer func() { <-g.sem }()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	img, err := g.runGrab(ctx, "-ss", frameOffset, "-i", path)
	if err == nil {
		return img, nil
	}
	if ctx.Err() != nil {
		return nil, g.grabError(ctx, err)
	}

	logging.Debug("Frame grab at %ss failed for %s: %v, retrying from the start", frameOffset, path, err)

	img, err = g.runGrab(ctx, "-i", path)
	if err != nil {
		return nil, g.grabError(ctx, err)
	}
	return img, nil
}

func (g *Generator) runGrab(ctx context.Context, input ...string) (image.Image, error) {
	args := append([]string{"-hide_banner", "-nostdin", "-v", "error"}, input...)
	args = append(args, "-frames:v", "1", "-f", "image2pipe", "-vcodec", "png", "-")

	tail := engine.NewTailBuffer(0)
	var stdout bytes.Buffer
	cmd := engine.Command(ctx, g.binary, args, tail)
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		if detail := tail.String(); detail != "" {
			return nil, fmt.Errorf("%w: %s", err, detail)
		}
		return nil, err
	}
	if stdout.Len() == 0 {
		return nil, errors.New("ffmpeg produced no frame")
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

func (g *Generator) grabError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperr.Engine("preview", err, "frame grab timed out")
	case ctx.Err() != nil:
		return apperr.Cancelled("preview", "request ended during frame grab")
	}
	return apperr.Engine("preview", err, "could not extract a frame")
}
