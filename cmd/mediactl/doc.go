// Command mediactl inspects and maintains the movie maker upload and output
// directories without going through the HTTP server.
//
// Usage:
//
//	mediactl files list [--json]
//	mediactl files rm NAME...
//	mediactl outputs list [--json]
//	mediactl outputs rm NAME...
//	mediactl probe NAME
//	mediactl version
//
// Directories and the ffprobe binary default to UPLOAD_DIR, OUTPUT_DIR and
// FFPROBE_PATH, falling back to the server defaults. The same name rules
// apply as over HTTP, so a name with a path separator or a leading dot is
// refused.
package main
