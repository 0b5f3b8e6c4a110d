package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"movie-maker/internal/logging"
	"movie-maker/internal/mediatypes"
	"movie-maker/internal/metrics"
)

// multipartOverhead is allowed on top of the file limit for boundaries,
// part headers and other form fields.
const multipartOverhead = 1 << 20

var errFileTooLarge = errors.New("file exceeds upload limit")

// UploadedFile describes a freshly stored upload.
type UploadedFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
}

// UploadResponse is returned by Upload.
type UploadResponse struct {
	Message string       `json:"message"`
	File    UploadedFile `json:"file"`
}

// FileEntry is one row of the upload listing.
type FileEntry struct {
	Filename   string          `json:"filename"`
	Size       int64           `json:"size"`
	UploadedAt time.Time       `json:"uploadedAt"`
	Kind       mediatypes.Kind `json:"kind"`
}

// Upload stores the multipart field "file". The body is streamed straight
// to disk; nothing is buffered in memory beyond the part headers.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		writeJSONError(w, "No file uploaded", http.StatusBadRequest)
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.uploadFailed(w, err)
			return
		}

		if part.FormName() != "file" || part.FileName() == "" {
			part.Close()
			continue
		}

		filename := part.FileName()
		if !mediatypes.IsAllowedUpload(filename, part.Header.Get("Content-Type")) {
			part.Close()
			logging.Debug("Rejected upload %q (%s)", filename, part.Header.Get("Content-Type"))
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			writeJSONError(w, "Only images and videos are allowed", http.StatusUnsupportedMediaType)
			return
		}

		asset, err := h.editor.Uploads().Register(filename, &cappedReader{r: part, remaining: h.maxUpload})
		part.Close()
		if err != nil {
			h.uploadFailed(w, err)
			return
		}

		metrics.UploadsTotal.WithLabelValues("success").Inc()
		metrics.UploadBytes.Add(float64(asset.Size))
		logging.Info("Uploaded %s as %s (%d bytes)", filename, asset.Name, asset.Size)

		writeJSONStatus(w, http.StatusOK, UploadResponse{
			Message: "File uploaded successfully",
			File: UploadedFile{
				Filename:     asset.Name,
				OriginalName: asset.OriginalName,
				Size:         asset.Size,
				Path:         "/uploads/" + asset.Name,
			},
		})
		return
	}

	metrics.UploadsTotal.WithLabelValues("rejected").Inc()
	writeJSONError(w, "No file uploaded", http.StatusBadRequest)
}

func (h *Handlers) uploadFailed(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.Is(err, errFileTooLarge) || errors.As(err, &tooLarge) {
		metrics.UploadsTotal.WithLabelValues("too_large").Inc()
		writeJSONError(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	metrics.UploadsTotal.WithLabelValues("error").Inc()
	writeError(w, err, "Upload failed")
}

// cappedReader fails with errFileTooLarge once more than remaining bytes
// are read, so an oversized upload never completes.
type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		var probe [1]byte
		n, err := c.r.Read(probe[:])
		if n > 0 {
			return 0, errFileTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	return n, err
}

// ListFiles returns every upload, oldest first.
func (h *Handlers) ListFiles(w http.ResponseWriter, r *http.Request) {
	assets, err := h.editor.Uploads().List(r.Context())
	if err != nil {
		writeError(w, err, "Failed to read files")
		return
	}

	files := make([]FileEntry, 0, len(assets))
	for _, a := range assets {
		files = append(files, FileEntry{
			Filename:   a.Name,
			Size:       a.Size,
			UploadedAt: a.CreatedAt,
			Kind:       a.Kind,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, files)
}

// DeleteFile removes an upload.
func (h *Handlers) DeleteFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.editor.Uploads().Delete(name); err != nil {
		writeError(w, err, "Failed to delete file")
		return
	}
	writeMessage(w, "File deleted successfully")
}
