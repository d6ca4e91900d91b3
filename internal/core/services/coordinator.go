package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driving"
	"github.com/niraj-khatiwada/mdr/internal/logger"
)

// Ensure Coordinator implements the interface.
var _ driving.Pipeline = (*Coordinator)(nil)

const inboxSize = 64

// parseDone carries the outcome of one read+parse request.
type parseDone struct {
	seq    uint64
	result *domain.ParseResult
	err    error
	took   time.Duration
}

// diagramDone carries a finished render back to the coordinator.
type diagramDone struct {
	result     domain.RenderedDiagram
	generation uint64
}

// Coordinator owns the current document and drives the pipeline.
//
// Everything below the inbox is touched only by the Run goroutine.
// Readers go through Current, which loads an immutable snapshot.
type Coordinator struct {
	path       string
	watcher    driven.SourceWatcher
	reader     driven.SourceReader
	parser     driven.Parser
	diagrams   *DiagramService
	dispatcher *Dispatcher
	tracker    *AnchorTracker
	log        logger.Logger

	inbox   chan any
	current atomic.Pointer[domain.Snapshot]
	state   atomic.Int32
	running atomic.Bool

	doc        *domain.Document
	rendered   map[string]domain.RenderedDiagram
	generation uint64
	revision   uint64
	parseSeq   uint64
	lastErr    error
}

// NewCoordinator wires the pipeline for one file.
func NewCoordinator(
	path string,
	watcher driven.SourceWatcher,
	reader driven.SourceReader,
	parser driven.Parser,
	diagrams *DiagramService,
	dispatcher *Dispatcher,
) *Coordinator {
	c := &Coordinator{
		path:       path,
		watcher:    watcher,
		reader:     reader,
		parser:     parser,
		diagrams:   diagrams,
		dispatcher: dispatcher,
		tracker:    NewAnchorTracker(dispatcher.Active),
		log:        logger.For("pipeline"),
		inbox:      make(chan any, inboxSize),
		rendered:   make(map[string]domain.RenderedDiagram),
	}
	c.state.Store(int32(domain.StateIdle))
	return c
}

// Tracker returns the scroll anchor tracker.
func (c *Coordinator) Tracker() *AnchorTracker {
	return c.tracker
}

// Current returns the latest published snapshot.
func (c *Coordinator) Current() (domain.Snapshot, bool) {
	snap := c.current.Load()
	if snap == nil {
		return domain.Snapshot{}, false
	}
	return *snap, true
}

// State returns the pipeline state.
func (c *Coordinator) State() domain.PipelineState {
	return domain.PipelineState(c.state.Load())
}

// Run loads the document and follows the watcher until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	if c.dispatcher.Len() == 0 {
		return fmt.Errorf("%w: no backend registered", domain.ErrBackendUnavailable)
	}
	if !c.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: pipeline already running", domain.ErrInvalidInput)
	}
	defer c.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := c.watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching %s: %w", c.path, err)
	}

	c.diagrams.OnComplete(func(result domain.RenderedDiagram, generation uint64) {
		c.post(ctx, diagramDone{result: result, generation: generation})
	})
	defer c.diagrams.OnComplete(nil)

	c.setState(domain.StateLoading)
	c.log.Info("loading %s", c.path)
	c.requestParse(ctx)

	watchErrs := c.watcher.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				c.log.Debug("watcher closed")
				return nil
			}
			c.handleWatch(ctx, ev)

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			c.handleWatchError(err)

		case msg := <-c.inbox:
			switch m := msg.(type) {
			case parseDone:
				c.handleParse(m)
			case diagramDone:
				c.handleDiagram(m)
			}
		}
	}
}

// post delivers a message to the Run loop unless it has exited.
func (c *Coordinator) post(ctx context.Context, msg any) {
	select {
	case c.inbox <- msg:
	case <-ctx.Done():
	}
}

func (c *Coordinator) setState(s domain.PipelineState) {
	prev := domain.PipelineState(c.state.Swap(int32(s)))
	if prev != s {
		c.log.Debug("state %s -> %s", prev, s)
	}
}

// requestParse reads and parses the file off the Run goroutine.
// Only the result of the newest request is ever applied.
func (c *Coordinator) requestParse(ctx context.Context) {
	c.parseSeq++
	seq := c.parseSeq
	go func() {
		start := time.Now()
		data, err := c.reader.Read(ctx, c.path)
		if err != nil {
			c.post(ctx, parseDone{seq: seq, err: err, took: time.Since(start)})
			return
		}
		result := c.parser.Parse(data)
		c.post(ctx, parseDone{seq: seq, result: result, took: time.Since(start)})
	}()
}

func (c *Coordinator) handleWatch(ctx context.Context, ev domain.WatchEvent) {
	c.log.Debug("watch event #%d %s at %s", ev.Seq, ev.Op, ev.Timestamp.Format(time.RFC3339Nano))
	switch c.State() {
	case domain.StateReady, domain.StateError:
		c.setState(domain.StateReparsing)
	}
	c.requestParse(ctx)
}

func (c *Coordinator) handleWatchError(err error) {
	c.log.Warn("%v", err)
	if !errors.Is(err, domain.ErrFileUnavailable) {
		return
	}
	c.fail(err)
}

func (c *Coordinator) handleParse(m parseDone) {
	if m.seq < c.parseSeq {
		c.log.Debug("discarding parse #%d, #%d is newer", m.seq, c.parseSeq)
		return
	}
	if m.err != nil {
		c.fail(m.err)
		return
	}
	c.replace(m.result)
	c.log.Debug("generation %d parsed in %s", c.generation, m.took.Round(time.Microsecond))
}

// fail enters the error state and keeps the last good document on screen.
func (c *Coordinator) fail(err error) {
	if !errors.Is(err, domain.ErrFileUnavailable) {
		err = fmt.Errorf("%w: %v", domain.ErrFileUnavailable, err)
	}
	c.lastErr = err
	c.setState(domain.StateError)
	c.publish(c.tracker.Capture())
}

// replace installs a freshly parsed document as the next generation.
func (c *Coordinator) replace(result *domain.ParseResult) {
	anchor := c.tracker.Capture()

	c.generation++
	next := domain.NewDocument(c.generation, c.path, result, time.Now())

	rendered := make(map[string]domain.RenderedDiagram, len(next.Diagrams))
	for _, spec := range next.Diagrams {
		if _, ok := rendered[spec.Hash]; ok {
			continue
		}
		rendered[spec.Hash] = c.diagrams.Render(spec, next.Generation)
	}

	resolved := c.tracker.Resolve(c.doc, next, anchor)

	c.doc = next
	c.rendered = rendered
	c.lastErr = nil
	c.setState(domain.StateReady)
	c.log.Info("generation %d: %d blocks, %d diagrams", next.Generation, len(next.Blocks), len(next.Diagrams))
	c.publish(resolved)
}

// handleDiagram patches one diagram result into the current snapshot.
// Results for superseded generations already sit in the cache and are not pushed.
func (c *Coordinator) handleDiagram(m diagramDone) {
	if m.generation != c.generation || !c.doc.References(m.result.Hash) {
		c.log.Debug("diagram %s finished for generation %d, current is %d; cached only",
			shortHash(m.result.Hash), m.generation, c.generation)
		return
	}

	patched := make(map[string]domain.RenderedDiagram, len(c.rendered))
	for k, v := range c.rendered {
		patched[k] = v
	}
	patched[m.result.Hash] = m.result
	c.rendered = patched

	c.publish(c.tracker.Capture())
}

func (c *Coordinator) publish(anchor *domain.ScrollAnchor) {
	c.revision++
	snap := domain.Snapshot{
		Document: c.doc,
		Diagrams: c.rendered,
		State:    c.State(),
		Revision: c.revision,
	}
	if snap.State == domain.StateError {
		snap.Err = c.lastErr
	}
	c.current.Store(&snap)
	c.dispatcher.Publish(snap, anchor)
}
