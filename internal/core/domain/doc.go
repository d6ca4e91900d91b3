// Package domain defines the core entities of the mdr live document pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An immutable, generation-numbered parse of the source file
//   - Block: One structural unit of a Document with a stable identity
//   - DiagramSpec / RenderedDiagram: An embedded diagram and its render outcome
//   - ScrollAnchor: A content-addressed scroll position
//   - WatchEvent: A debounced change notification from the source watcher
//   - Snapshot: What presentation backends receive
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
