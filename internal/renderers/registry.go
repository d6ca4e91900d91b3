package renderers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.DiagramRenderer = (*Registry)(nil)

// Registry maps diagram kinds to the engines that render them.
type Registry struct {
	mu      sync.RWMutex
	engines map[domain.DiagramKind]driven.DiagramRenderer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		engines: make(map[domain.DiagramKind]driven.DiagramRenderer),
	}
}

// Register sets the engine for a kind, replacing any previous one.
func (r *Registry) Register(kind domain.DiagramKind, engine driven.DiagramRenderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[kind] = engine
}

// Has returns true if an engine is registered for the kind.
func (r *Registry) Has(kind domain.DiagramKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.engines[kind]
	return ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []domain.DiagramKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.DiagramKind, 0, len(r.engines))
	for k := range r.engines {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Render dispatches to the engine for kind.
// Returns ErrUnsupportedDiagram if no engine is registered.
func (r *Registry) Render(ctx context.Context, kind domain.DiagramKind, source string) ([]byte, error) {
	r.mu.RLock()
	engine, ok := r.engines[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedDiagram, kind)
	}
	return engine.Render(ctx, kind, source)
}
