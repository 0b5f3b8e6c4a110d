// Package handlers provides the HTTP handlers of the movie maker API.
//
// It includes handlers for:
//   - Uploading, listing and deleting source media
//   - Probing uploads and rendering JPEG previews
//   - Trim, concat, convert and filter edits, answered when the job finishes
//   - Listing and deleting outputs, listing and cancelling jobs
//   - Serving uploads and outputs with range support
//   - Health checks and version information
//
// Errors are returned as {"error": message}. Engine failures add a
// "details" field holding the tail of the engine's diagnostic output.
package handlers
