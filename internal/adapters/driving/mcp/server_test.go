package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("nil document service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingDocumentService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server := newTestServer(t, domain.Snapshot{})
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil document service returns error", func(t *testing.T) {
		ports := &Ports{}
		assert.ErrorIs(t, ports.Validate(), ErrMissingDocumentService)
	})
}

func TestServer_Backend(t *testing.T) {
	server := newTestServer(t, domain.Snapshot{})

	assert.Equal(t, BackendName, server.Name())

	_, ok := server.ReportAnchor()
	assert.False(t, ok, "headless server has no viewport")

	server.OnSnapshot(domain.Snapshot{Revision: 9}, nil)
	assert.Equal(t, uint64(9), server.Revision())
}
