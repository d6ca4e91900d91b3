package tui

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/services"
)

// MockPipeline serves a fixed snapshot.
type MockPipeline struct {
	mu   sync.Mutex
	snap domain.Snapshot
	ok   bool
}

func (m *MockPipeline) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (m *MockPipeline) Current() (domain.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, m.ok
}

func (m *MockPipeline) State() domain.PipelineState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.State
}

func (m *MockPipeline) Set(snap domain.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.ok = true
}

func newTestPorts() (*Ports, *MockPipeline) {
	pipeline := &MockPipeline{}
	return NewPorts(pipeline, services.NewDocumentService(pipeline), nil), pipeline
}

func TestNewPorts(t *testing.T) {
	ports, pipeline := newTestPorts()

	require.NotNil(t, ports)
	assert.Equal(t, pipeline, ports.Pipeline)
	assert.NotNil(t, ports.Document)
	assert.Nil(t, ports.Highlighter)
}

func TestPorts_Validate_AllSet(t *testing.T) {
	ports, _ := newTestPorts()

	assert.NoError(t, ports.Validate())
}

func TestPorts_Validate_MissingPipeline(t *testing.T) {
	ports, _ := newTestPorts()
	ports.Pipeline = nil

	assert.ErrorIs(t, ports.Validate(), ErrMissingPipeline)
}

func TestPorts_Validate_MissingDocument(t *testing.T) {
	ports, _ := newTestPorts()
	ports.Document = nil

	assert.ErrorIs(t, ports.Validate(), ErrMissingDocumentService)
}

func TestPorts_Validate_Nil(t *testing.T) {
	var ports *Ports

	assert.ErrorIs(t, ports.Validate(), ErrInvalidPorts)
}
