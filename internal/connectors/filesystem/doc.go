// Package filesystem watches and reads the source document.
//
// The Watcher observes the file's parent directory rather than the file
// itself, so editors that save by writing a temp file and renaming it over
// the original, or by deleting and recreating it, are followed without
// re-adding a watch. Bursts of notifications are debounced into a single
// domain.WatchEvent per quiet window.
package filesystem
