// Package logging configures the structured logger used by a tracking run.
//
// Logging is set up once, explicitly, by the command's main function. Setup
// returns the logger together with a close function that flushes and releases
// any file sink; nothing in this package mutates global state unless the caller
// installs the logger with slog.SetDefault.
//
// # Sinks
//
// Records always go to stderr through a tint handler (colourised text). An
// optional file sink, configured in YAML, receives the same records as JSON or
// plain text:
//
//	level: info          # debug | info | warn | error
//	format: json         # json | text (file sink only)
//	file: logs/run.log   # optional; appended to, created if missing
//	no_color: false      # disable ANSI colours on stderr
//
// LoadConfig lets the ORGANOID_LOG_LEVEL environment variable replace the
// level from the file; a command-line flag applied afterwards wins over both.
package logging
