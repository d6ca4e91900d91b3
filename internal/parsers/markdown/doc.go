// Package markdown implements the document parser on top of goldmark.
//
// The parser maps goldmark's block tree onto domain blocks and gives each
// one an identity derived from its heading path, kind and ordinal among
// siblings of the same kind under that path. Parsing never fails: anything
// goldmark cannot express as a known block becomes a raw block, and
// anomalies such as an unterminated code fence are recorded as markers on
// the affected block.
package markdown
