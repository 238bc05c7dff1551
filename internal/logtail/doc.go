// Package logtail reads the tail of swapp's own log file for the activity
// view.
//
// Read keeps a ring buffer of maxLines entries so the file is scanned once
// and memory stays bounded regardless of file size. Parse understands the
// key=value lines written by slog's TextHandler:
//
//	time=2026-03-01T12:00:00.000Z level=INFO msg="login succeeded" username=marlow
package logtail
