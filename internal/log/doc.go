// Package log provides logging for lorescan on top of the standard slog
// package.
//
// The SnippetHandler keeps manuscript prose out of the logs: chapter
// bodies and context snippets attached as log attributes are truncated
// to a short preview, and credential-like attributes are masked. Authors
// share logs when reporting problems, and a full manuscript does not
// belong in them.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log
