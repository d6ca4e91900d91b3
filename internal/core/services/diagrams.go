package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
	"github.com/niraj-khatiwada/mdr/internal/logger"
)

// DiagramCompletion receives a finished render together with the newest
// document generation that asked for it.
type DiagramCompletion func(result domain.RenderedDiagram, generation uint64)

// DiagramService renders diagrams asynchronously through the cache.
//
// A cache miss starts exactly one render per hash no matter how many
// generations request it while it is in flight. The flight carries the
// newest requesting generation so the coordinator can tell a live result
// from a superseded one.
type DiagramService struct {
	renderer driven.DiagramRenderer
	cache    *DiagramCache
	sem      *semaphore.Weighted
	timeout  time.Duration
	log      logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	inflight   map[string]uint64
	onComplete DiagramCompletion

	invocations atomic.Uint64
}

// NewDiagramService creates a diagram service backed by the given cache.
func NewDiagramService(renderer driven.DiagramRenderer, cache *DiagramCache, cfg domain.DiagramConfig) *DiagramService {
	workers := cfg.MaxConcurrent
	if workers <= 0 {
		workers = domain.DefaultMaxConcurrent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultRenderTimeout
	}
	if cache == nil {
		cache = NewDiagramCache(cfg.CacheCapacity)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &DiagramService{
		renderer: renderer,
		cache:    cache,
		sem:      semaphore.NewWeighted(int64(workers)),
		timeout:  timeout,
		log:      logger.For("diagrams"),
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]uint64),
	}
}

// OnComplete sets the completion hook. It is called from render goroutines.
func (s *DiagramService) OnComplete(fn DiagramCompletion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = fn
}

// Cache returns the underlying cache.
func (s *DiagramService) Cache() *DiagramCache {
	return s.cache
}

// Invocations returns how many times the rendering collaborator was called.
func (s *DiagramService) Invocations() uint64 {
	return s.invocations.Load()
}

// Render returns the cached result for spec or Pending while a render runs.
// It never blocks on the collaborator.
func (s *DiagramService) Render(spec domain.DiagramSpec, generation uint64) domain.RenderedDiagram {
	if cached, ok := s.cache.Get(spec.Hash); ok {
		return cached
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen, ok := s.inflight[spec.Hash]; ok {
		if generation > gen {
			s.inflight[spec.Hash] = generation
		}
		return domain.PendingDiagram(spec)
	}

	// The flight may have finished between the cache miss and taking the lock.
	if cached, ok := s.cache.Peek(spec.Hash); ok {
		return cached
	}

	if s.ctx.Err() != nil {
		return failedDiagram(spec, domain.ErrDiagramRender)
	}

	s.inflight[spec.Hash] = generation
	s.wg.Add(1)
	go s.run(spec)

	return domain.PendingDiagram(spec)
}

// Wait blocks until every started render has completed.
func (s *DiagramService) Wait() {
	s.wg.Wait()
}

// Close cancels queued and running renders and waits for them to finish.
func (s *DiagramService) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *DiagramService) run(spec domain.DiagramSpec) {
	defer s.wg.Done()

	if err := s.sem.Acquire(s.ctx, 1); err != nil {
		s.mu.Lock()
		delete(s.inflight, spec.Hash)
		s.mu.Unlock()
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	s.invocations.Add(1)
	start := time.Now()
	payload, err := s.invoke(ctx, spec)

	var result domain.RenderedDiagram
	if err != nil {
		s.log.Warn("%s diagram %s failed after %s: %v", spec.Kind, shortHash(spec.Hash), time.Since(start).Round(time.Millisecond), err)
		result = failedDiagram(spec, err)
	} else {
		s.log.Debug("%s diagram %s rendered in %s", spec.Kind, shortHash(spec.Hash), time.Since(start).Round(time.Millisecond))
		result = domain.RenderedDiagram{
			Hash:       spec.Hash,
			Kind:       spec.Kind,
			Status:     domain.DiagramSucceeded,
			Payload:    payload,
			Source:     spec.Source,
			RenderedAt: time.Now(),
		}
	}

	// Cancelled by Close: nothing is waiting for the result.
	if s.ctx.Err() != nil {
		s.mu.Lock()
		delete(s.inflight, spec.Hash)
		s.mu.Unlock()
		return
	}

	s.cache.Put(result)

	s.mu.Lock()
	generation := s.inflight[spec.Hash]
	delete(s.inflight, spec.Hash)
	hook := s.onComplete
	s.mu.Unlock()

	if hook != nil {
		hook(result, generation)
	}
}

// invoke calls the collaborator on its own goroutine so a renderer that
// ignores ctx still yields a timeout. The semaphore slot is held until the
// collaborator actually returns.
func (s *DiagramService) invoke(ctx context.Context, spec domain.DiagramSpec) ([]byte, error) {
	type outcome struct {
		payload []byte
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		defer s.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: renderer panicked: %v", domain.ErrDiagramRender, r)}
			}
		}()
		payload, err := s.renderer.Render(ctx, spec.Kind, spec.Source)
		done <- outcome{payload: payload, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", domain.ErrDiagramTimeout, s.timeout)
		}
		return out.payload, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", domain.ErrDiagramTimeout, s.timeout)
		}
		return nil, ctx.Err()
	}
}

func failedDiagram(spec domain.DiagramSpec, err error) domain.RenderedDiagram {
	return domain.RenderedDiagram{
		Hash:       spec.Hash,
		Kind:       spec.Kind,
		Status:     domain.DiagramFailed,
		Err:        err.Error(),
		Source:     spec.Source,
		RenderedAt: time.Now(),
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
