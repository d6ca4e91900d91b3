package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
)

// mockConfigStore is a map-backed driven.ConfigStore.
type mockConfigStore struct {
	mu      sync.RWMutex
	values  map[string]any
	saved   int
	saveErr error
}

var _ driven.ConfigStore = (*mockConfigStore)(nil)

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	v, _ := m.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

func (m *mockConfigStore) GetBool(key string) bool {
	v, _ := m.Get(key)
	b, _ := v.(bool)
	return b
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	v, _ := m.Get(key)
	s, _ := v.([]string)
	return s
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Save() error {
	m.saved++
	return m.saveErr
}

func (m *mockConfigStore) Load() error  { return nil }
func (m *mockConfigStore) Path() string { return ":memory:" }

// mockRenderer renders diagrams on demand and counts invocations.
// Sources containing "invalid" fail; a non-nil gate blocks renders until closed.
type mockRenderer struct {
	calls atomic.Int64
	delay time.Duration
	gate  chan struct{}

	mu      sync.Mutex
	sources []string
}

var _ driven.DiagramRenderer = (*mockRenderer)(nil)

func (m *mockRenderer) Render(ctx context.Context, kind domain.DiagramKind, source string) ([]byte, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.sources = append(m.sources, source)
	m.mu.Unlock()

	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if source == "panic" {
		panic("renderer exploded")
	}
	if strings.Contains(source, "invalid") {
		return nil, errors.New("Parse error on line 1: unexpected token")
	}
	return []byte(fmt.Sprintf("<svg data-kind=%q>%s</svg>", kind, source)), nil
}

// mockBackend records every snapshot it receives.
type mockBackend struct {
	name string

	mu        sync.Mutex
	snapshots []domain.Snapshot
	anchors   []*domain.ScrollAnchor
	anchor    *domain.ScrollAnchor
	block     chan struct{}
	received  chan struct{}
}

var _ driven.Backend = (*mockBackend)(nil)

func newMockBackend(name string) *mockBackend {
	return &mockBackend{name: name, received: make(chan struct{}, 128)}
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) OnSnapshot(snap domain.Snapshot, anchor *domain.ScrollAnchor) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	m.snapshots = append(m.snapshots, snap)
	m.anchors = append(m.anchors, anchor)
	m.mu.Unlock()
	select {
	case m.received <- struct{}{}:
	default:
	}
}

func (m *mockBackend) ReportAnchor() (domain.ScrollAnchor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.anchor == nil {
		return domain.ScrollAnchor{}, false
	}
	return *m.anchor, true
}

func (m *mockBackend) setAnchor(a *domain.ScrollAnchor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.anchor = a
}

func (m *mockBackend) last() (domain.Snapshot, *domain.ScrollAnchor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snapshots) == 0 {
		return domain.Snapshot{}, nil, false
	}
	return m.snapshots[len(m.snapshots)-1], m.anchors[len(m.anchors)-1], true
}

func (m *mockBackend) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots)
}

// mockWatcher is a SourceWatcher driven by the test.
type mockWatcher struct {
	events chan domain.WatchEvent
	errs   chan error
	seq    atomic.Uint64
	err    error
}

var _ driven.SourceWatcher = (*mockWatcher)(nil)

func newMockWatcher() *mockWatcher {
	return &mockWatcher{
		events: make(chan domain.WatchEvent, 1),
		errs:   make(chan error, 1),
	}
}

func (m *mockWatcher) Watch(context.Context) (<-chan domain.WatchEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.events, nil
}

func (m *mockWatcher) Errors() <-chan error { return m.errs }
func (m *mockWatcher) Close() error         { return nil }

func (m *mockWatcher) fire() {
	m.events <- domain.WatchEvent{
		Seq:       m.seq.Add(1),
		Op:        domain.WatchChanged,
		Timestamp: time.Now(),
	}
}

// mockReader serves file contents from memory.
type mockReader struct {
	mu      sync.Mutex
	content []byte
	err     error
	delays  []time.Duration
	reads   int
}

var _ driven.SourceReader = (*mockReader)(nil)

func (m *mockReader) Read(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	var delay time.Duration
	if m.reads < len(m.delays) {
		delay = m.delays[m.reads]
	}
	m.reads++
	content, err := m.content, m.err
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFileUnavailable, err)
	}
	return content, nil
}

func (m *mockReader) set(content string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = []byte(content)
	m.err = err
}

// lineParser is a tiny Parser for tests: "# X" is a heading, "mermaid: src"
// is a diagram, anything else is a paragraph. Ids are the line text.
type lineParser struct{}

var _ driven.Parser = lineParser{}

func (lineParser) Parse(content []byte) *domain.ParseResult {
	res := &domain.ParseResult{ContentHash: fmt.Sprintf("%x", len(content))}
	for _, line := range splitLines(string(content)) {
		switch {
		case len(line) > 2 && line[:2] == "# ":
			res.Blocks = append(res.Blocks, domain.Block{ID: domain.BlockID(line), Kind: domain.BlockHeading, Level: 1, Text: line[2:]})
		case len(line) > 9 && line[:9] == "mermaid: ":
			spec := domain.NewDiagramSpec(domain.DiagramMermaid, line[9:])
			res.Blocks = append(res.Blocks, domain.Block{ID: domain.BlockID(line), Kind: domain.BlockDiagram, Diagram: &spec})
			res.Diagrams = append(res.Diagrams, spec)
		default:
			res.Blocks = append(res.Blocks, domain.Block{ID: domain.BlockID(line), Kind: domain.BlockParagraph, Text: line})
		}
	}
	return res
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// trackingRenderer runs enter before succeeding.
type trackingRenderer struct {
	enter func()
}

func (r *trackingRenderer) Render(_ context.Context, _ domain.DiagramKind, source string) ([]byte, error) {
	r.enter()
	return []byte("<svg>" + source + "</svg>"), nil
}

// panickyBackend panics whenever it is asked anything.
type panickyBackend struct{}

func (panickyBackend) Name() string                                     { return "panicky" }
func (panickyBackend) OnSnapshot(domain.Snapshot, *domain.ScrollAnchor) { panic("boom") }
func (panickyBackend) ReportAnchor() (domain.ScrollAnchor, bool)        { panic("boom") }
