// Package driven holds the interfaces the mdr core calls out through.
//
// The coordinator needs a SourceWatcher and SourceReader for the watched
// file, a Parser, a DiagramRenderer per diagram kind and any number of
// Backends. Settings live behind ConfigStore.
//
// A Highlighter is optional. Without one, code blocks render unstyled.
//
// Only the domain package may be imported from here.
package driven
