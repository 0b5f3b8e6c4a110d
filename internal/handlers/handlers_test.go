package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"movie-maker/internal/apperr"
	"movie-maker/internal/assets"
	"movie-maker/internal/editor"
	"movie-maker/internal/enginetest"
	"movie-maker/internal/jobs"
	"movie-maker/internal/middleware"
	"movie-maker/internal/plan"
	"movie-maker/internal/preview"
	"movie-maker/internal/probe"
	"movie-maker/internal/startup"
)

// =============================================================================
// Fixture
// =============================================================================

type fixture struct {
	h       *Handlers
	router  *mux.Router
	svc     *editor.Service
	uploads *assets.Store
	outputs *assets.Store
	ffmpeg  *enginetest.FFmpeg
	exec    *jobs.Executor
}

func newFixture(t *testing.T, workers, backlog int) *fixture {
	t.Helper()
	base := t.TempDir()

	uploads, err := assets.New(filepath.Join(base, "uploads"), "uploads")
	if err != nil {
		t.Fatal(err)
	}
	outputs, err := assets.New(filepath.Join(base, "output"), "output")
	if err != nil {
		t.Fatal(err)
	}

	ff := enginetest.NewFFmpeg(t, 0)
	exec := jobs.New(jobs.Config{Workers: workers, Backlog: backlog, Binary: ff.Path, StderrTail: 4096}, outputs)
	exec.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		exec.Stop(ctx)
	})

	svc := editor.New(uploads, outputs, plan.NewBuilder(outputs.Dir()), exec,
		probe.New(enginetest.NewFFprobe(t, enginetest.ProbeJSON, "")))

	config := &startup.Config{MaxUploadBytes: 1 << 20}
	engines := startup.EngineInfo{FFmpeg: "6.1", FFprobe: "6.1"}
	h := New(svc, preview.New(ff.Path), config, engines)

	return &fixture{
		h:       h,
		router:  NewRouter(h),
		svc:     svc,
		uploads: uploads,
		outputs: outputs,
		ffmpeg:  ff,
		exec:    exec,
	}
}

func (f *fixture) upload(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(f.uploads.Path(name), []byte("media"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, httptest.NewRequest(http.MethodGet, target, http.NoBody))
}

func (f *fixture) postJSON(t *testing.T, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return f.do(t, req)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decode(t, w, &resp)
	return resp.Error
}

func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func waitRunning(t *testing.T, exec *jobs.Executor, id string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, info := range exec.Active() {
			if info.ID == id && info.State == jobs.StateRunning {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never started", id)
}

// =============================================================================
// Uploads
// =============================================================================

func TestRoot(t *testing.T) {
	f := newFixture(t, 1, 1)

	w := f.get(t, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp MessageResponse
	decode(t, w, &resp)
	if resp.Message != "Movie Maker API Server" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestUploadAndList(t *testing.T) {
	f := newFixture(t, 1, 1)

	body, contentType := multipartBody(t, "file", "Holiday Clip.MP4", "video/mp4", []byte("0123456789"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := f.do(t, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp UploadResponse
	decode(t, w, &resp)
	if resp.Message != "File uploaded successfully" {
		t.Errorf("message = %q", resp.Message)
	}
	if !strings.HasPrefix(resp.File.Filename, "file-") || !strings.HasSuffix(resp.File.Filename, ".mp4") {
		t.Errorf("filename = %q", resp.File.Filename)
	}
	if resp.File.OriginalName != "Holiday Clip.MP4" || resp.File.Size != 10 {
		t.Errorf("file = %+v", resp.File)
	}
	if resp.File.Path != "/uploads/"+resp.File.Filename {
		t.Errorf("path = %q", resp.File.Path)
	}

	w = f.get(t, "/api/files")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var files []FileEntry
	decode(t, w, &files)
	if len(files) != 1 || files[0].Filename != resp.File.Filename || files[0].Kind != "video" || files[0].Size != 10 {
		t.Errorf("files = %+v", files)
	}
}

func TestUploadRejections(t *testing.T) {
	tests := []struct {
		name        string
		field       string
		filename    string
		contentType string
		size        int
		wantStatus  int
		wantError   string
	}{
		{"wrong field", "video", "clip.mp4", "video/mp4", 10, http.StatusBadRequest, "No file uploaded"},
		{"disallowed extension", "file", "notes.txt", "text/plain", 10, http.StatusUnsupportedMediaType, "Only images and videos are allowed"},
		{"mismatched content type", "file", "clip.mp4", "application/x-msdownload", 10, http.StatusUnsupportedMediaType, "Only images and videos are allowed"},
		{"over limit", "file", "clip.mp4", "video/mp4", 2048, http.StatusRequestEntityTooLarge, "File too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 1, 1)
			f.h.maxUpload = 1024

			body, contentType := multipartBody(t, tt.field, tt.filename, tt.contentType, bytes.Repeat([]byte("x"), tt.size))
			req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
			req.Header.Set("Content-Type", contentType)

			w := f.do(t, req)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if got := errorMessage(t, w); got != tt.wantError {
				t.Errorf("error = %q, want %q", got, tt.wantError)
			}

			list, err := f.uploads.List(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != 0 {
				t.Errorf("rejected upload left files behind: %+v", list)
			}
		})
	}
}

func TestUploadNotMultipart(t *testing.T) {
	f := newFixture(t, 1, 1)

	w := f.postJSON(t, "/api/upload", `{"file":"clip.mp4"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	if got := errorMessage(t, w); got != "No file uploaded" {
		t.Errorf("error = %q", got)
	}
}

func TestDeleteFile(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.upload(t, "clip.mp4")

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"existing", "/api/files/clip.mp4", http.StatusOK, `"File deleted successfully"`},
		{"already gone", "/api/files/clip.mp4", http.StatusNotFound, `"File not found: clip.mp4"`},
		{"dot file", "/api/files/.movie-maker.lock", http.StatusBadRequest, `"Invalid filename"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, httptest.NewRequest(http.MethodDelete, tt.target, http.NoBody))
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want it to contain %s", w.Body.String(), tt.wantBody)
			}
		})
	}
}

// =============================================================================
// Probe
// =============================================================================

func TestVideoInfo(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.upload(t, "clip.mp4")

	w := f.get(t, "/api/video/info/clip.mp4")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var info probe.Result
	decode(t, w, &info)
	if info.Duration != 8 || info.Video == nil || info.Video.Width != 1280 || info.Audio == nil {
		t.Errorf("info = %+v", info)
	}

	w = f.get(t, "/api/video/info/missing.mp4")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
}

func TestVideoInfoEngineFailure(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.upload(t, "clip.mp4")
	failing := probe.New(enginetest.NewFFprobe(t, "", "moov atom not found"))
	f.h.editor = editor.New(f.uploads, f.outputs, plan.NewBuilder(f.outputs.Dir()), f.exec, failing)

	w := f.get(t, "/api/video/info/clip.mp4")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	var resp ErrorResponse
	decode(t, w, &resp)
	if resp.Error != "Failed to get video information" || !strings.Contains(resp.Details, "moov atom not found") {
		t.Errorf("response = %+v", resp)
	}
}

// =============================================================================
// Edits
// =============================================================================

func TestTrim(t *testing.T) {
	f := newFixture(t, 2, 4)
	f.upload(t, "clip.mp4")

	w := f.postJSON(t, "/api/video/trim", `{"filename":"clip.mp4","startTime":"1.5","endTime":4}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp EditResponse
	decode(t, w, &resp)
	if resp.Message != "Video trimmed successfully" {
		t.Errorf("message = %q", resp.Message)
	}
	if !strings.HasPrefix(resp.OutputFile, "trimmed-") || !strings.HasSuffix(resp.OutputFile, "-clip.mp4") {
		t.Errorf("outputFile = %q", resp.OutputFile)
	}
	if resp.OutputPath != "/output/"+resp.OutputFile {
		t.Errorf("outputPath = %q", resp.OutputPath)
	}
	if resp.JobID == "" || w.Header().Get(middleware.JobIDHeader) != resp.JobID {
		t.Errorf("job id = %q, header %q", resp.JobID, w.Header().Get(middleware.JobIDHeader))
	}

	calls := f.ffmpeg.Calls(t)
	if len(calls) != 1 || !strings.Contains(calls[0], "-ss 1.5 -i") || !strings.Contains(calls[0], "-t 2.5") {
		t.Errorf("engine calls = %q", calls)
	}

	w = f.get(t, "/api/output")
	var outputs []OutputEntry
	decode(t, w, &outputs)
	if len(outputs) != 1 || outputs[0].Filename != resp.OutputFile || outputs[0].Operation != plan.OpTrim {
		t.Errorf("outputs = %+v", outputs)
	}
}

func TestConcatConvertFilter(t *testing.T) {
	f := newFixture(t, 2, 4)
	f.upload(t, "a.mp4", "b.mp4")

	tests := []struct {
		name        string
		target      string
		body        string
		wantMessage string
		wantPrefix  string
	}{
		{"concat", "/api/video/concat", `{"filenames":["b.mp4","a.mp4"]}`, "Videos concatenated successfully", "concat-"},
		{"convert", "/api/video/convert", `{"filename":"a.mp4","format":"webm","quality":"low"}`, "Video converted successfully", "converted-"},
		{"filter", "/api/video/filter", `{"filename":"a.mp4","brightness":0.1,"saturation":"1.5"}`, "Video filter applied successfully", "filtered-"},
		{"filter without parameters", "/api/video/filter", `{"filename":"a.mp4"}`, "Video filter applied successfully", "filtered-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.postJSON(t, tt.target, tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			var resp EditResponse
			decode(t, w, &resp)
			if resp.Message != tt.wantMessage || !strings.HasPrefix(resp.OutputFile, tt.wantPrefix) {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestConcatPreservesOrder(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.upload(t, "a.mp4", "b.mp4")

	w := f.postJSON(t, "/api/video/concat", `{"filenames":["b.mp4","a.mp4"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp EditResponse
	decode(t, w, &resp)

	// The fake engine copies the concat list into the output.
	data, err := os.ReadFile(f.outputs.Path(resp.OutputFile))
	if err != nil {
		t.Fatal(err)
	}
	listing := string(data)
	if strings.Index(listing, "b.mp4") > strings.Index(listing, "a.mp4") {
		t.Errorf("concat order lost:\n%s", listing)
	}
}

func TestEditValidationHappensBeforeEngine(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.upload(t, "clip.mp4")

	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
		wantError  string
	}{
		{"trim missing end", "/api/video/trim", `{"filename":"clip.mp4","startTime":0}`, http.StatusBadRequest, "Missing required parameters"},
		{"trim missing filename", "/api/video/trim", `{"startTime":0,"endTime":1}`, http.StatusBadRequest, "Missing required parameters"},
		{"trim end before start", "/api/video/trim", `{"filename":"clip.mp4","startTime":5,"endTime":2}`, http.StatusBadRequest, ""},
		{"trim non-numeric", "/api/video/trim", `{"filename":"clip.mp4","startTime":"soon","endTime":2}`, http.StatusBadRequest, "Invalid request body"},
		{"trim traversal", "/api/video/trim", `{"filename":"../etc/passwd","startTime":0,"endTime":1}`, http.StatusBadRequest, "Invalid filename"},
		{"trim missing source", "/api/video/trim", `{"filename":"gone.mp4","startTime":0,"endTime":1}`, http.StatusNotFound, "File not found: gone.mp4"},
		{"concat one file", "/api/video/concat", `{"filenames":["clip.mp4"]}`, http.StatusBadRequest, "At least 2 files are required"},
		{"concat no files", "/api/video/concat", `{}`, http.StatusBadRequest, "At least 2 files are required"},
		{"concat missing second", "/api/video/concat", `{"filenames":["clip.mp4","gone.mp4"]}`, http.StatusNotFound, "File not found: gone.mp4"},
		{"convert missing format", "/api/video/convert", `{"filename":"clip.mp4"}`, http.StatusBadRequest, "Missing required parameters"},
		{"convert unknown format", "/api/video/convert", `{"filename":"clip.mp4","format":"exe"}`, http.StatusBadRequest, ""},
		{"convert unknown quality", "/api/video/convert", `{"filename":"clip.mp4","format":"mp4","quality":"best"}`, http.StatusBadRequest, ""},
		{"filter missing filename", "/api/video/filter", `{"brightness":0.2}`, http.StatusBadRequest, "Missing filename parameter"},
		{"filter negative contrast", "/api/video/filter", `{"filename":"clip.mp4","contrast":-1}`, http.StatusBadRequest, ""},
		{"malformed json", "/api/video/filter", `{"filename":`, http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.postJSON(t, tt.target, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			got := errorMessage(t, w)
			if tt.wantError != "" && got != tt.wantError {
				t.Errorf("error = %q, want %q", got, tt.wantError)
			}
			if got == "" {
				t.Error("error message is empty")
			}
			if w.Header().Get(middleware.JobIDHeader) != "" {
				t.Error("rejected request was assigned a job")
			}
		})
	}

	if calls := f.ffmpeg.Calls(t); len(calls) != 0 {
		t.Errorf("engine was invoked for invalid requests: %q", calls)
	}
}

func TestTrimEngineFailure(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.upload(t, "FAIL.mp4")

	w := f.postJSON(t, "/api/video/trim", `{"filename":"FAIL.mp4","startTime":0,"endTime":1}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get(middleware.JobIDHeader) == "" {
		t.Error("failed job should still report its id")
	}

	var resp ErrorResponse
	decode(t, w, &resp)
	if resp.Error != "Failed to trim video" || !strings.Contains(resp.Details, "Invalid data found") {
		t.Errorf("response = %+v", resp)
	}

	w = f.get(t, "/api/output")
	var outputs []OutputEntry
	decode(t, w, &outputs)
	if len(outputs) != 0 {
		t.Errorf("failed job left outputs: %+v", outputs)
	}
}

func TestEditRequestGone(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.upload(t, "clip.mp4")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/video/trim",
		strings.NewReader(`{"filename":"clip.mp4","startTime":0,"endTime":1}`)).WithContext(ctx)

	w := f.do(t, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d: %s", w.Code, w.Body.String())
	}
}

// =============================================================================
// Jobs and outputs
// =============================================================================

func TestBacklogFullAndCancel(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.upload(t, "SLOW.mp4", "clip.mp4")
	ctx := context.Background()

	running, err := f.svc.Submit(ctx, plan.Trim{Source: "SLOW.mp4", Start: 0, End: 1})
	if err != nil {
		t.Fatal(err)
	}
	waitRunning(t, f.exec, running.ID)

	queued, err := f.svc.Submit(ctx, plan.Trim{Source: "SLOW.mp4", Start: 1, End: 2})
	if err != nil {
		t.Fatal(err)
	}

	w := f.postJSON(t, "/api/video/trim", `{"filename":"clip.mp4","startTime":0,"endTime":1}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Retry-After") != retryAfterSeconds {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}

	w = f.get(t, "/api/jobs")
	var active []JobEntry
	decode(t, w, &active)
	if len(active) != 2 {
		t.Fatalf("active jobs = %+v", active)
	}
	if active[0].ID != running.ID || active[0].State != jobs.StateRunning || active[0].StartedAt == nil {
		t.Errorf("running job = %+v", active[0])
	}
	if active[1].ID != queued.ID || active[1].State != jobs.StateQueued || active[1].StartedAt != nil {
		t.Errorf("queued job = %+v", active[1])
	}

	// The running job's output is on disk but not complete.
	w = f.get(t, "/api/output")
	var outputs []OutputEntry
	decode(t, w, &outputs)
	if len(outputs) != 0 {
		t.Errorf("in-progress output listed: %+v", outputs)
	}
	if w := f.get(t, "/output/"+active[0].OutputFile); w.Code != http.StatusNotFound {
		t.Errorf("in-progress output served with status %d", w.Code)
	}

	for _, id := range []string{queued.ID, running.ID} {
		w := f.do(t, httptest.NewRequest(http.MethodDelete, "/api/jobs/"+id, http.NoBody))
		if w.Code != http.StatusOK {
			t.Fatalf("cancel %s: status %d: %s", id, w.Code, w.Body.String())
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	for _, h := range []*jobs.Handle{queued, running} {
		res, err := h.Wait(waitCtx)
		if err != nil {
			t.Fatal(err)
		}
		if !errors.Is(res.Err, apperr.ErrCancelled) {
			t.Errorf("job %s err = %v, want cancelled", h.ID, res.Err)
		}
	}

	w = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/jobs/"+running.ID, http.NoBody))
	if w.Code != http.StatusNotFound {
		t.Errorf("cancel finished job: status %d", w.Code)
	}
}

func TestDeleteOutput(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.upload(t, "clip.mp4")

	w := f.postJSON(t, "/api/video/trim", `{"filename":"clip.mp4","startTime":0,"endTime":1}`)
	var resp EditResponse
	decode(t, w, &resp)

	w = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/output/"+resp.OutputFile, http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	w = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/output/"+resp.OutputFile, http.NoBody))
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
}

// =============================================================================
// Static files and previews
// =============================================================================

func TestServeUpload(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.upload(t, "clip.mp4")
	if err := os.WriteFile(f.uploads.Path(".hidden.mp4"), []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := f.get(t, "/uploads/clip.mp4")
	if w.Code != http.StatusOK || w.Body.String() != "media" {
		t.Fatalf("status %d, body %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Errorf("Content-Type = %q", ct)
	}

	req := httptest.NewRequest(http.MethodGet, "/uploads/clip.mp4", http.NoBody)
	req.Header.Set("Range", "bytes=1-2")
	w = f.do(t, req)
	if w.Code != http.StatusPartialContent || w.Body.String() != "ed" {
		t.Errorf("range: status %d, body %q", w.Code, w.Body.String())
	}

	for _, target := range []string{"/uploads/.hidden.mp4", "/uploads/missing.mp4"} {
		if w := f.get(t, target); w.Code != http.StatusNotFound {
			t.Errorf("%s: status %d, want 404", target, w.Code)
		}
	}
}

func TestGetPreview(t *testing.T) {
	f := newFixture(t, 1, 1)
	enginetest.WritePNG(t, f.uploads.Path("pic.png"), 800, 400)

	w := f.get(t, "/api/preview/pic.png?width=100")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	img, err := jpeg.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("preview size = %dx%d", b.Dx(), b.Dy())
	}

	tests := []struct {
		target     string
		wantStatus int
	}{
		{"/api/preview/pic.png?width=abc", http.StatusBadRequest},
		{"/api/preview/pic.png?width=5000", http.StatusBadRequest},
		{"/api/preview/missing.png", http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := f.get(t, tt.target); w.Code != tt.wantStatus {
			t.Errorf("%s: status %d, want %d", tt.target, w.Code, tt.wantStatus)
		}
	}
}

// =============================================================================
// Health, version and errors
// =============================================================================

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, 2, 4)

	w := f.get(t, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp HealthResponse
	decode(t, w, &resp)
	if resp.Status != statusHealthy || !resp.Ready || resp.Workers != 2 || resp.FFmpeg != "6.1" {
		t.Errorf("health = %+v", resp)
	}

	f.h.engines = startup.EngineInfo{FFmpeg: "6.1"}
	w = f.get(t, "/healthz")
	decode(t, w, &resp)
	if w.Code != http.StatusOK || resp.Status != statusDegraded {
		t.Errorf("without ffprobe: status %d, health %q", w.Code, resp.Status)
	}

	f.h.SetShuttingDown()
	w = f.get(t, "/health")
	decode(t, w, &resp)
	if w.Code != http.StatusServiceUnavailable || resp.Status != statusStopping || resp.Ready {
		t.Errorf("shutting down: status %d, health %+v", w.Code, resp)
	}
}

func TestReadinessAndLiveness(t *testing.T) {
	f := newFixture(t, 1, 1)

	if w := f.get(t, "/readyz"); w.Code != http.StatusOK {
		t.Errorf("readyz: status %d", w.Code)
	}
	f.h.SetShuttingDown()
	if w := f.get(t, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz after shutdown: status %d", w.Code)
	}
	if w := f.get(t, "/livez"); w.Code != http.StatusOK {
		t.Errorf("livez: status %d", w.Code)
	}

	w := f.do(t, httptest.NewRequest(http.MethodHead, "/livez", http.NoBody))
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("HEAD livez: status %d, body %q", w.Code, w.Body.String())
	}
}

func TestGetVersion(t *testing.T) {
	t.Parallel()

	h := &Handlers{engines: startup.EngineInfo{FFmpeg: "6.1", FFprobe: "6.0"}}

	w := httptest.NewRecorder()
	h.GetVersion(w, httptest.NewRequest(http.MethodGet, "/version", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var result map[string]interface{}
	decode(t, w, &result)
	for _, field := range []string{"version", "commit", "buildTime", "goVersion", "engines"} {
		if _, ok := result[field]; !ok {
			t.Errorf("Expected field %q in response", field)
		}
	}
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	h := &Handlers{}
	w := httptest.NewRecorder()
	h.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("metrics output is missing the Go collector")
	}
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantError   string
		wantDetails string
		retryAfter  bool
	}{
		{"not found", apperr.NotFound("stat", "file not found: %s", "a.mp4"), http.StatusNotFound, "File not found: a.mp4", "", false},
		{"invalid name", apperr.InvalidName("stat", "name contains a path separator"), http.StatusBadRequest, "Invalid filename", "", false},
		{"validation", apperr.Validation("build", "at least 2 files are required"), http.StatusBadRequest, "At least 2 files are required", "", false},
		{"busy", apperr.ResourceExhausted("submit", "job backlog is full (4 queued)"), http.StatusServiceUnavailable, "Server is busy, try again later", "", true},
		{"cancelled", apperr.Cancelled("job 1", "cancelled while running"), http.StatusConflict, "Cancelled while running", "", false},
		{"engine", apperr.Engine("job 1", io.ErrUnexpectedEOF, "codec not supported"), http.StatusInternalServerError, "Failed to convert video", "codec not supported", false},
		{"internal", apperr.Internal("register", os.ErrPermission), http.StatusInternalServerError, "Failed to convert video", "", false},
		{"plain error", io.ErrClosedPipe, http.StatusInternalServerError, "Failed to convert video", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err, "Failed to convert video")

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			decode(t, w, &resp)
			if resp.Error != tt.wantError || resp.Details != tt.wantDetails {
				t.Errorf("response = %+v", resp)
			}
			if got := w.Header().Get("Retry-After") != ""; got != tt.retryAfter {
				t.Errorf("Retry-After present = %v", got)
			}
		})
	}
}

func TestNumberUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{`1.5`, 1.5, false},
		{`"2.25"`, 2.25, false},
		{`" 3 "`, 3, false},
		{`-0.5`, -0.5, false},
		{`"abc"`, 0, true},
		{`true`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var n number
			err := json.Unmarshal([]byte(tt.input), &n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && float64(n) != tt.want {
				t.Errorf("got %v, want %v", float64(n), tt.want)
			}
		})
	}
}

func TestCappedReader(t *testing.T) {
	t.Parallel()

	r := &cappedReader{r: strings.NewReader("12345"), remaining: 5}
	if data, err := io.ReadAll(r); err != nil || string(data) != "12345" {
		t.Errorf("at limit: %q, %v", data, err)
	}

	r = &cappedReader{r: strings.NewReader("123456"), remaining: 5}
	if _, err := io.ReadAll(r); !errors.Is(err, errFileTooLarge) {
		t.Errorf("over limit: err = %v", err)
	}
}
