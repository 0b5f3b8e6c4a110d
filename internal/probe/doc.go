// Package probe inspects media files with ffprobe.
//
// ffprobe is run with JSON output and the result is normalized into a
// Result holding container duration, size, bitrate and format name plus the
// first video and first audio stream. A missing stream is a nil pointer and
// encodes as JSON null.
//
// Frame rates arrive as rationals ("30000/1001") and are divided exactly
// with math/big; "0/0" means unknown and becomes 0.
//
// Results are not cached: every call runs ffprobe again, so a replaced file
// is never described from stale data.
package probe
