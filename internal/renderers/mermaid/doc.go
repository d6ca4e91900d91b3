// Package mermaid renders mermaid diagrams to SVG through a pluggable engine.
//
// The Renderer first tries a preprocessed copy of the source that removes
// constructs engines commonly reject, then falls back to the untouched
// source. Every payload is checked to be an SVG document before it is
// returned. Engines live in the cli and browser sub-packages.
package mermaid
