package mediatypes

import (
	"path/filepath"
	"strings"
)

// Kind is the media kind of a stored file, inferred from its extension.
type Kind string

const (
	// KindVideo represents a video file.
	KindVideo Kind = "video"
	// KindImage represents an image file.
	KindImage Kind = "image"
	// KindUnknown represents anything else (including audio-only outputs).
	KindUnknown Kind = "unknown"
)

// ImageExtensions maps file extensions to whether they are recognised image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// VideoExtensions maps file extensions to whether they are recognised video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// UploadExtensions is the set of extensions accepted by the upload endpoint.
var UploadExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
}

// UploadMimeTypes is the set of declared content types accepted by the upload endpoint.
var UploadMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/gif":       true,
	"video/mp4":       true,
	"video/avi":       true,
	"video/x-msvideo": true,
	"video/quicktime": true,
	"video/x-ms-wmv":  true,
	"video/wmv":       true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",

	// Videos
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",

	// Audio (convert targets)
	".mp3": "audio/mpeg",
	".m4a": "audio/mp4",
	".ogg": "audio/ogg",
	".wav": "audio/wav",
}

// Ext returns the lowercase extension of name, including the leading dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// KindOf returns the Kind for a file name based on its extension.
func KindOf(name string) Kind {
	ext := Ext(name)
	switch {
	case VideoExtensions[ext]:
		return KindVideo
	case ImageExtensions[ext]:
		return KindImage
	default:
		return KindUnknown
	}
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsAllowedUpload reports whether a file with the given client-supplied name
// and declared content type may be uploaded. Both must be in the allowed set.
func IsAllowedUpload(name, contentType string) bool {
	if !UploadExtensions[Ext(name)] {
		return false
	}
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(mediaType, ";"); idx != -1 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	return UploadMimeTypes[mediaType]
}
