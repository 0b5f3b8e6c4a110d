// Package engine holds helpers shared by everything that launches ffmpeg or
// ffprobe as a child process.
package engine

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// WaitDelay bounds how long Wait blocks on a killed process whose
// grandchildren still hold its output pipes.
const WaitDelay = 5 * time.Second

// TailBuffer is an io.Writer that keeps only the last Limit bytes written.
type TailBuffer struct {
	mu        sync.Mutex
	limit     int
	buf       []byte
	truncated bool
}

// NewTailBuffer returns a buffer keeping at most limit bytes. A limit of 0
// or less keeps 4096.
func NewTailBuffer(limit int) *TailBuffer {
	if limit <= 0 {
		limit = 4096
	}
	return &TailBuffer{limit: limit}
}

func (t *TailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(p)
	if n >= t.limit {
		t.buf = append(t.buf[:0], p[n-t.limit:]...)
		t.truncated = true
		return n, nil
	}

	if over := len(t.buf) + n - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
		t.truncated = true
	}
	t.buf = append(t.buf, p...)
	return n, nil
}

// String returns the retained bytes, trimmed of surrounding whitespace. A
// truncated tail starts at the next full line.
func (t *TailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.buf
	if t.truncated {
		if i := bytes.IndexByte(b, '\n'); i >= 0 && i+1 < len(b) {
			b = b[i+1:]
		}
	}
	return strings.TrimSpace(string(b))
}

// Version runs "binary -version" and returns the first line of its output.
func Version(ctx context.Context, binary string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, "-hide_banner", "-version")
	cmd.WaitDelay = WaitDelay
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s -version: %w", binary, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", fmt.Errorf("%s -version: empty output", binary)
}

// Command builds an exec.Cmd bound to ctx with stderr captured into tail.
func Command(ctx context.Context, binary string, args []string, tail *TailBuffer) *exec.Cmd {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stderr = tail
	cmd.WaitDelay = WaitDelay
	return cmd
}
