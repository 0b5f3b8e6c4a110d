// Package enginetest provides stand-ins for ffmpeg and ffprobe so packages
// that launch the engine can be tested without it installed.
//
// The fakes are POSIX shell scripts; tests using them are skipped on Windows.
package enginetest

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"
)

// FFmpeg is a fake ffmpeg. Its behaviour is keyed off words in the argument
// list:
//
//	FAIL   writes a partial output, prints an error to stderr and exits 1
//	SLOW   writes a partial output and sleeps until killed
//	EMPTY  exits 0 without writing anything
//
// Concat runs copy the list file into the output. A final argument of "-"
// writes a small PNG to stdout (frame grabs). Anything else writes the
// argument list into the output after sleeping for the given delay.
type FFmpeg struct {
	Path string

	active  string
	levels  string
	argsLog string
}

// NewFFmpeg writes a fake ffmpeg into a temporary directory.
func NewFFmpeg(t testing.TB, delay time.Duration) *FFmpeg {
	t.Helper()
	skipWindows(t)

	dir := t.TempDir()
	f := &FFmpeg{
		Path:    filepath.Join(dir, "ffmpeg"),
		active:  filepath.Join(dir, "active"),
		levels:  filepath.Join(dir, "levels"),
		argsLog: filepath.Join(dir, "args"),
	}
	if err := os.Mkdir(f.active, 0o755); err != nil {
		t.Fatal(err)
	}

	framePath := filepath.Join(dir, "frame.png")
	writePNG(t, framePath, 64, 48)

	script := fmt.Sprintf(`#!/bin/sh
for last; do :; done
echo "$*" >> %[1]q
case "$*" in
*FAIL*)
	[ "$last" = "-" ] || echo partial > "$last"
	echo "Invalid data found when processing input" >&2
	exit 1 ;;
*SLOW*)
	[ "$last" = "-" ] || echo partial > "$last"
	exec sleep 30 ;;
*EMPTY*)
	exit 0 ;;
esac
if [ "$last" = "-" ]; then
	cat %[2]q
	exit 0
fi
touch %[3]q/$$
ls %[3]q | wc -l >> %[4]q
sleep %[5]s
rm -f %[3]q/$$
if [ "$5" = "concat" ]; then
	cat "$9" > "$last"
	exit 0
fi
echo "$*" > "$last"
`, f.argsLog, framePath, f.active, f.levels, strconv.FormatFloat(delay.Seconds(), 'f', 3, 64))

	if err := os.WriteFile(f.Path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return f
}

// Calls returns the argument list of every invocation so far.
func (f *FFmpeg) Calls(t testing.TB) []string {
	t.Helper()
	return readLines(t, f.argsLog)
}

// MaxConcurrent returns the highest number of simultaneously running
// invocations observed.
func (f *FFmpeg) MaxConcurrent(t testing.TB) int {
	t.Helper()
	peak := 0
	for _, line := range readLines(t, f.levels) {
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			t.Fatalf("bad level line %q", line)
		}
		if n > peak {
			peak = n
		}
	}
	return peak
}

// NewFFprobe writes a fake ffprobe that prints stdout and exits 0, or
// prints stderr and exits 1 when stdout is empty.
func NewFFprobe(t testing.TB, stdout, stderr string) string {
	t.Helper()
	skipWindows(t)

	dir := t.TempDir()
	out := filepath.Join(dir, "stdout")
	if err := os.WriteFile(out, []byte(stdout), 0o644); err != nil {
		t.Fatal(err)
	}

	script := fmt.Sprintf("#!/bin/sh\ncat %q\n", out)
	if stdout == "" {
		script = fmt.Sprintf("#!/bin/sh\necho %q >&2\nexit 1\n", stderr)
	}

	path := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// ProbeJSON is a representative ffprobe result for a 1280x720 H.264 clip
// with AAC audio.
const ProbeJSON = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720,
     "r_frame_rate": "25/1", "avg_frame_rate": "25/1", "pix_fmt": "yuv420p"},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "sample_rate": "44100", "channels": 2}
  ],
  "format": {"duration": "8.000000", "size": "524288", "bit_rate": "524288", "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
}`

// WritePNG writes a w×h test image to path.
func WritePNG(t testing.TB, path string, w, h int) {
	t.Helper()
	writePNG(t, path, w, h)
}

func writePNG(t testing.TB, path string, w, h int) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func readLines(t testing.TB, path string) []string {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func skipWindows(t testing.TB) {
	if runtime.GOOS == "windows" {
		t.Skip("engine fakes need a POSIX shell")
	}
}
