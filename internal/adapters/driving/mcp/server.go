package mcp

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
	"github.com/niraj-khatiwada/mdr/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// BackendName is the name the server registers under with the dispatcher.
const BackendName = "mcp"

// Ensure Server implements the backend interface.
var _ driven.Backend = (*Server)(nil)

// Server is the MCP server for mdr.
// It is also a headless backend, so the pipeline can run without a view.
type Server struct {
	ports  *Ports
	server *mcp.Server
	log    logger.Logger

	// revision is the revision of the last snapshot delivered by the pipeline.
	revision atomic.Uint64
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "mdr",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, nil),
		log:    logger.For("mcp"),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Name identifies the backend.
func (s *Server) Name() string {
	return BackendName
}

// OnSnapshot records the revision of the newest snapshot. Clients always
// read the current document through the document service.
func (s *Server) OnSnapshot(snap domain.Snapshot, _ *domain.ScrollAnchor) {
	s.revision.Store(snap.Revision)
	s.log.Debug("snapshot revision %d (generation %d)", snap.Revision, snap.Generation())
}

// ReportAnchor reports nothing: the server has no viewport.
func (s *Server) ReportAnchor() (domain.ScrollAnchor, bool) {
	return domain.ScrollAnchor{}, false
}

// Revision returns the revision of the last delivered snapshot.
func (s *Server) Revision() uint64 {
	return s.revision.Load()
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
