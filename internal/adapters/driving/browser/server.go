package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
	"github.com/niraj-khatiwada/mdr/internal/logger"
)

// BackendName is the name the browser backend registers under.
const BackendName = "browser"

// keepAlive is how often an idle event stream gets a comment line.
const keepAlive = 15 * time.Second

// Ensure Backend implements the interface.
var _ driven.Backend = (*Backend)(nil)

// SnapshotPayload is the JSON body of GET /snapshot.
type SnapshotPayload struct {
	Revision   uint64         `json:"revision"`
	Generation uint64         `json:"generation"`
	Title      string         `json:"title"`
	State      string         `json:"state"`
	Error      string         `json:"error,omitempty"`
	HTML       string         `json:"html"`
	Anchor     *AnchorPayload `json:"anchor,omitempty"`
}

// AnchorPayload is a scroll anchor on the wire.
type AnchorPayload struct {
	BlockID string  `json:"block_id"`
	Offset  float64 `json:"offset"`
}

// Backend serves the live document over HTTP.
type Backend struct {
	addr     string
	hub      *hub
	renderer *renderer
	router   chi.Router
	log      logger.Logger

	mu       sync.RWMutex
	snapshot domain.Snapshot
	html     string
	restore  *domain.ScrollAnchor
	reported *domain.ScrollAnchor
	received bool
}

// NewBackend creates a browser backend listening on addr when run.
func NewBackend(addr string) *Backend {
	b := &Backend{
		addr:     addr,
		hub:      newHub(),
		renderer: newRenderer(),
		log:      logger.For("browser"),
	}
	b.router = b.routes()
	return b
}

func (b *Backend) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", b.handleIndex)
	r.Get("/snapshot", b.handleSnapshot)
	r.Get("/events", b.handleEvents)
	r.Get("/diagrams/{hash}.svg", b.handleDiagram)
	r.Post("/anchor", b.handleAnchor)
	return r
}

// Name identifies the backend.
func (b *Backend) Name() string {
	return BackendName
}

// Handler returns the HTTP handler.
func (b *Backend) Handler() http.Handler {
	return b.router
}

// Addr returns the listen address.
func (b *Backend) Addr() string {
	return b.addr
}

// OnSnapshot renders the snapshot and notifies connected pages.
func (b *Backend) OnSnapshot(snap domain.Snapshot, anchor *domain.ScrollAnchor) {
	rendered := b.renderer.document(snap)

	b.mu.Lock()
	b.snapshot = snap
	b.html = rendered
	b.restore = anchor
	if anchor != nil {
		a := *anchor
		b.reported = &a
	}
	b.received = true
	b.mu.Unlock()

	b.hub.notify(snap.Revision)
}

// ReportAnchor returns the position last reported by a page.
func (b *Backend) ReportAnchor() (domain.ScrollAnchor, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.reported == nil {
		return domain.ScrollAnchor{}, false
	}
	return *b.reported, true
}

// Run serves HTTP until ctx is cancelled.
func (b *Backend) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              b.addr,
		Handler:           b.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	b.log.Info("serving on http://%s", b.addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (b *Backend) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexPage)
}

func (b *Backend) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	b.mu.RLock()
	if !b.received {
		b.mu.RUnlock()
		http.Error(w, domain.ErrNoDocument.Error(), http.StatusServiceUnavailable)
		return
	}
	snap := b.snapshot
	payload := SnapshotPayload{
		Revision:   snap.Revision,
		Generation: snap.Generation(),
		State:      snap.State.String(),
		HTML:       b.html,
	}
	if b.restore != nil {
		payload.Anchor = &AnchorPayload{BlockID: string(b.restore.BlockID), Offset: b.restore.Offset}
	}
	b.mu.RUnlock()

	if snap.Document != nil {
		payload.Title = snap.Document.Title
	}
	if snap.Err != nil {
		payload.Error = snap.Err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		b.log.Warn("encoding snapshot: %v", err)
	}
}

func (b *Backend) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := b.hub.subscribe()
	defer b.hub.unsubscribe(ch)

	b.mu.RLock()
	current, received := b.snapshot.Revision, b.received
	b.mu.RUnlock()
	if received {
		fmt.Fprintf(w, "event: snapshot\ndata: %d\n\n", current)
	}
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case rev := <-ch:
			fmt.Fprintf(w, "event: snapshot\ndata: %d\n\n", rev)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

func (b *Backend) handleDiagram(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	b.mu.RLock()
	rd, ok := b.snapshot.Diagrams[hash]
	b.mu.RUnlock()

	if !ok || rd.Status != domain.DiagramSucceeded {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "max-age=31536000, immutable")
	w.Write(rd.Payload) //nolint:errcheck
}

func (b *Backend) handleAnchor(w http.ResponseWriter, r *http.Request) {
	var in AnchorPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&in); err != nil {
		http.Error(w, fmt.Sprintf("%v: %v", domain.ErrInvalidInput, err), http.StatusBadRequest)
		return
	}
	if in.BlockID == "" {
		http.Error(w, domain.ErrInvalidInput.Error()+": block_id is required", http.StatusBadRequest)
		return
	}

	anchor := domain.ScrollAnchor{
		BlockID: domain.BlockID(in.BlockID),
		Offset:  min(max(in.Offset, 0), 1),
	}
	b.mu.Lock()
	b.reported = &anchor
	b.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}
