// Package renderers routes diagram render requests to the engine registered
// for each diagram kind.
//
// Engines live in sub-packages (see renderers/mermaid). The Registry itself
// implements driven.DiagramRenderer so the diagram service never needs to
// know which engine serves which kind.
package renderers
