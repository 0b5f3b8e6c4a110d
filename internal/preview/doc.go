// Package preview renders small JPEG previews of uploaded media.
//
// Images are decoded with imaging (EXIF orientation applied) and resized to
// the requested width. Videos get a single frame grabbed through ffmpeg,
// one second in, falling back to the first frame for very short clips.
// Frame grabs share a small semaphore so previews cannot crowd out the
// transcode pool. Nothing is cached; every request renders afresh.
package preview
