package driven

import "github.com/niraj-khatiwada/mdr/internal/core/domain"

// Parser converts document source into blocks.
// Parse is total: malformed input yields marked blocks, never an error.
type Parser interface {
	Parse(content []byte) *domain.ParseResult
}
