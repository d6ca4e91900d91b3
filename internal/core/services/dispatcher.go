package services

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
	"github.com/niraj-khatiwada/mdr/internal/logger"
)

type delivery struct {
	snap   domain.Snapshot
	anchor *domain.ScrollAnchor
}

// subscription is one registered backend with its single-slot mailbox.
type subscription struct {
	id      string
	backend driven.Backend
	slot    chan delivery
	done    chan struct{}
}

// DispatcherStats reports delivery counters.
type DispatcherStats struct {
	Published uint64
	Delivered uint64
	Replaced  uint64
	Panicked  uint64
}

// Dispatcher hands snapshots to backends without ever blocking the publisher.
//
// Each backend owns a one-slot channel drained by its own goroutine. A newer
// snapshot replaces one the backend has not picked up yet.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   map[string]*subscription
	order  []string
	active string
	last   *delivery
	wg     sync.WaitGroup
	log    logger.Logger

	published atomic.Uint64
	delivered atomic.Uint64
	replaced  atomic.Uint64
	panicked  atomic.Uint64
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		subs: make(map[string]*subscription),
		log:  logger.For("dispatch"),
	}
}

// Register adds a backend and returns its handle.
// The first registered backend becomes active. A backend registered after
// the first publish immediately receives the latest snapshot.
func (d *Dispatcher) Register(b driven.Backend) string {
	sub := &subscription{
		id:      uuid.NewString(),
		backend: b,
		slot:    make(chan delivery, 1),
		done:    make(chan struct{}),
	}

	d.mu.Lock()
	d.subs[sub.id] = sub
	d.order = append(d.order, sub.id)
	if d.active == "" {
		d.active = sub.id
	}
	if d.last != nil {
		sub.slot <- *d.last
	}
	d.mu.Unlock()

	d.wg.Add(1)
	go d.pump(sub)

	d.log.Debug("registered backend %s as %s", b.Name(), sub.id)
	return sub.id
}

// Unregister removes a backend. It returns false for unknown handles.
func (d *Dispatcher) Unregister(id string) bool {
	d.mu.Lock()
	sub, ok := d.subs[id]
	if !ok {
		d.mu.Unlock()
		return false
	}
	delete(d.subs, id)
	for i, v := range d.order {
		if v == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	if d.active == id {
		d.active = ""
		if len(d.order) > 0 {
			d.active = d.order[0]
		}
	}
	d.mu.Unlock()

	close(sub.done)
	return true
}

// SetActive selects which backend is asked for its scroll anchor.
func (d *Dispatcher) SetActive(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.subs[id]; !ok {
		return fmt.Errorf("%w: no backend registered as %s", domain.ErrBackendUnavailable, id)
	}
	d.active = id
	return nil
}

// Active returns the active backend.
func (d *Dispatcher) Active() (driven.Backend, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sub, ok := d.subs[d.active]
	if !ok {
		return nil, false
	}
	return sub.backend, true
}

// Len returns the number of registered backends.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

// Publish offers a snapshot to every registered backend. It never blocks.
func (d *Dispatcher) Publish(snap domain.Snapshot, anchor *domain.ScrollAnchor) {
	msg := delivery{snap: snap, anchor: anchor}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = &msg
	d.published.Add(1)
	for _, id := range d.order {
		d.offer(d.subs[id], msg)
	}
}

// offer puts msg into the slot, discarding whatever the backend has not read yet.
// Callers hold d.mu, so offer is the only sender on the slot.
func (d *Dispatcher) offer(sub *subscription, msg delivery) {
	for {
		select {
		case sub.slot <- msg:
			return
		default:
		}
		select {
		case <-sub.slot:
			d.replaced.Add(1)
		default:
		}
	}
}

func (d *Dispatcher) pump(sub *subscription) {
	defer d.wg.Done()
	for {
		select {
		case <-sub.done:
			return
		case msg := <-sub.slot:
			d.deliver(sub, msg)
		}
	}
}

func (d *Dispatcher) deliver(sub *subscription, msg delivery) {
	defer func() {
		if r := recover(); r != nil {
			d.panicked.Add(1)
			d.log.Error("backend %s panicked: %v\n%s", sub.backend.Name(), r, debug.Stack())
		}
	}()
	sub.backend.OnSnapshot(msg.snap, msg.anchor)
	d.delivered.Add(1)
}

// Close unregisters every backend and waits for their pumps to exit.
func (d *Dispatcher) Close() {
	d.mu.RLock()
	ids := append([]string(nil), d.order...)
	d.mu.RUnlock()

	for _, id := range ids {
		d.Unregister(id)
	}
	d.wg.Wait()
}

// Stats returns delivery counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Published: d.published.Load(),
		Delivered: d.delivered.Load(),
		Replaced:  d.replaced.Load(),
		Panicked:  d.panicked.Load(),
	}
}
