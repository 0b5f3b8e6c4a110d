// Package plan maps edit requests onto ffmpeg invocations.
//
// A Request (Trim, Concat, Convert or Filter) plus the resolved paths of its
// sources becomes a Plan: the output name, the output path and everything
// needed to render the argument vector. Building a plan never touches the
// filesystem or starts a process, so every rule here is checked by plain
// unit tests.
//
// Output names carry the operation tag and a uniqueness token:
//
//	trimmed-{token}-{source}
//	concat-{token}.mp4
//	converted-{token}.{format}
//	filtered-{token}-{source}
//
// The token is {unixMillis}-{8 hex digits}, so concurrent requests for the
// same source never share an output path.
package plan
