// Package mediatypes provides shared type definitions and utilities for media file
// handling across the movie-maker server.
//
// This package exists as a dependency-free foundation that can be imported by other
// packages without creating import cycles. It contains primitive types, constants,
// and pure utility functions with no external dependencies beyond the standard library.
//
// # Media Kinds
//
// Every stored file has a Kind inferred from its extension:
//
//	mediatypes.KindVideo   // mp4, mov, avi, wmv, mkv, ...
//	mediatypes.KindImage   // jpg, png, gif, ...
//	mediatypes.KindUnknown // everything else
//
// # Upload Policy
//
// IsAllowedUpload checks both the client-supplied extension and the declared
// content type against the upload allow-list (jpeg, jpg, png, gif, mp4, avi,
// mov, wmv). Both must match.
//
// # MIME Types
//
// Use GetMimeType to get the appropriate MIME type for HTTP responses:
//
//	mimeType := mediatypes.GetMimeType(mediatypes.Ext(name)) // e.g., "video/mp4"
package mediatypes
