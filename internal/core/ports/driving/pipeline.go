package driving

import (
	"context"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

// Pipeline runs the live document pipeline for one file.
type Pipeline interface {
	// Run loads the file, then follows watch events until ctx is cancelled.
	// It returns ErrBackendUnavailable immediately when no backend is registered.
	Run(ctx context.Context) error

	// Current returns the latest published snapshot.
	// The second value is false before the first publish.
	Current() (domain.Snapshot, bool)

	// State returns the pipeline state.
	State() domain.PipelineState
}
