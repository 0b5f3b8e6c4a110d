package preview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"movie-maker/internal/apperr"
	"movie-maker/internal/enginetest"
)

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("preview is not a JPEG: %v", err)
	}
	return img
}

func TestGenerate_Image(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	enginetest.WritePNG(t, path, 800, 400)

	g := New("ffmpeg-not-needed")

	tests := []struct {
		name      string
		width     int
		wantWidth int
		wantH     int
	}{
		{"default width", 0, DefaultWidth, 160},
		{"explicit width", 200, 200, 100},
		{"no upscale", 1000, 800, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := g.Generate(context.Background(), path, tt.width)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			b := decodeJPEG(t, data).Bounds()
			if b.Dx() != tt.wantWidth || b.Dy() != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantWidth, tt.wantH)
			}
		})
	}
}

func TestGenerate_InvalidWidth(t *testing.T) {
	g := New("ffmpeg")
	for _, w := range []int{-1, MaxWidth + 1} {
		if _, err := g.Generate(context.Background(), "x.png", w); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("width %d: expected Validation, got %v", w, err)
		}
	}
}

type fixedPressure bool

func (p fixedPressure) IsPaused() bool { return bool(p) }

func TestGenerate_RefusedUnderMemoryPressure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	enginetest.WritePNG(t, path, 64, 48)

	g := New("ffmpeg")
	g.SetPressure(fixedPressure(true))
	if _, err := g.Generate(context.Background(), path, 0); !errors.Is(err, apperr.ErrResourceExhausted) {
		t.Fatalf("expected ResourceExhausted, got %v", err)
	}

	g.SetPressure(fixedPressure(false))
	if _, err := g.Generate(context.Background(), path, 0); err != nil {
		t.Fatalf("Generate after pressure cleared: %v", err)
	}
}

func TestGenerate_UnsupportedKind(t *testing.T) {
	g := New("ffmpeg")
	if _, err := g.Generate(context.Background(), "notes.txt", 0); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected Validation, got %v", err)
	}
}

func TestGenerate_CorruptImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New("ffmpeg").Generate(context.Background(), path, 0)
	if !errors.Is(err, apperr.ErrEngine) {
		t.Errorf("expected Engine error, got %v", err)
	}
}

func TestGenerate_VideoFrame(t *testing.T) {
	ff := enginetest.NewFFmpeg(t, 0)
	g := New(ff.Path)

	data, err := g.Generate(context.Background(), "/media/clip.mp4", 32)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b := decodeJPEG(t, data).Bounds()
	if b.Dx() != 32 || b.Dy() != 24 {
		t.Errorf("size = %dx%d, want 32x24", b.Dx(), b.Dy())
	}

	calls := ff.Calls(t)
	if len(calls) != 1 {
		t.Fatalf("calls = %v", calls)
	}
	if !strings.Contains(calls[0], "-ss 1 -i /media/clip.mp4 -frames:v 1 -f image2pipe -vcodec png -") {
		t.Errorf("args = %q", calls[0])
	}
}

func TestGenerate_VideoFallsBackToFirstFrame(t *testing.T) {
	ff := enginetest.NewFFmpeg(t, 0)
	g := New(ff.Path)

	_, err := g.Generate(context.Background(), "/media/EMPTY.mp4", 0)
	if !errors.Is(err, apperr.ErrEngine) {
		t.Fatalf("expected Engine error, got %v", err)
	}

	calls := ff.Calls(t)
	if len(calls) != 2 {
		t.Fatalf("expected a retry, calls = %v", calls)
	}
	if strings.Contains(calls[1], "-ss") {
		t.Errorf("retry should start from the first frame: %q", calls[1])
	}
}

func TestGenerate_VideoFailureIncludesStderr(t *testing.T) {
	ff := enginetest.NewFFmpeg(t, 0)

	_, err := New(ff.Path).Generate(context.Background(), "/media/FAIL.mov", 0)
	if !errors.Is(err, apperr.ErrEngine) {
		t.Fatalf("expected Engine error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Errorf("error lacks engine output: %v", err)
	}
}

func TestGenerate_VideoCancelled(t *testing.T) {
	ff := enginetest.NewFFmpeg(t, 0)
	g := New(ff.Path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Generate(ctx, "/media/SLOW.mp4", 0); !errors.Is(err, apperr.ErrCancelled) {
		t.Errorf("expected Cancelled, got %v", err)
	}
}
