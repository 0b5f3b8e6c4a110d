// Package assets manages the upload and output directories.
//
// A Store is a flat directory where the directory listing is the index:
// every List rescans, so files added or removed outside the server show up
// on the next call. Hidden files (temporary uploads, lock files, concat
// lists) and subdirectories are never listed.
//
// Names are validated before any filesystem access. Anything empty, hidden,
// containing a path separator, NUL or "..", is rejected with an InvalidName
// error, so a name can never resolve outside its store.
//
// Uploads are written to a hidden temporary file and then linked into place
// under a generated name, file-{unixMillis}-{32 hex}{ext}. Engine outputs are
// written by ffmpeg directly into the output directory and registered with
// Adopt once the job succeeds.
package assets
