package driving

import (
	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

// DocumentService answers read-only questions about the current document.
type DocumentService interface {
	// Snapshot returns the current snapshot or ErrNoDocument.
	Snapshot() (domain.Snapshot, error)

	// Outline returns the table of contents.
	Outline() ([]domain.TocEntry, error)

	// Search finds text occurrences across blocks.
	Search(query string, opts domain.SearchOptions) ([]domain.SearchMatch, error)
}
