// Package editor is the entry point for edit operations.
//
// A Service ties the stores, the plan builder, the job executor and the
// prober together. Submit checks everything that can be checked without the
// engine (names, existence, parameters, backlog space) and returns those
// errors synchronously; engine failures only ever arrive through the job's
// Handle. Run is Submit followed by a wait, for callers that respond on
// completion.
package editor
