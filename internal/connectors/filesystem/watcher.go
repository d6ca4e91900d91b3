package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/ports/driven"
	"github.com/niraj-khatiwada/mdr/internal/logger"
)

// Ensure Watcher implements the interfaces.
var (
	_ driven.SourceWatcher = (*Watcher)(nil)
	_ driven.SourceReader  = (*Watcher)(nil)
)

const errorBufferSize = 16

// Stats reports watcher activity.
type Stats struct {
	RawEvents  uint64
	Emitted    uint64
	Replaced   uint64
	Errors     uint64
	Reattached uint64
	Watching   bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet window. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithRetryInterval sets how often a lost directory watch is re-added.
func WithRetryInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.retry = d
		}
	}
}

// Watcher emits debounced change events for one file.
type Watcher struct {
	path     string
	dir      string
	base     string
	debounce time.Duration
	retry    time.Duration
	log      logger.Logger

	mu       sync.Mutex
	started  bool
	closed   bool
	closeCh  chan struct{}
	errs     chan error
	errsOnce sync.Once
	wg       sync.WaitGroup

	seq      atomic.Uint64
	watching atomic.Bool

	rawEvents  atomic.Uint64
	emitted    atomic.Uint64
	replaced   atomic.Uint64
	errCount   atomic.Uint64
	reattached atomic.Uint64
}

// New creates a watcher for path. Nothing is observed until Watch is called.
func New(path string, opts ...Option) *Watcher {
	clean := filepath.Clean(path)
	if abs, err := filepath.Abs(clean); err == nil {
		clean = abs
	}
	w := &Watcher{
		path:     clean,
		dir:      filepath.Dir(clean),
		base:     filepath.Base(clean),
		debounce: domain.DefaultDebounce,
		retry:    domain.DefaultRetryInterval,
		log:      logger.For("watcher"),
		closeCh:  make(chan struct{}),
		errs:     make(chan error, errorBufferSize),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Watch starts observing the file. The returned channel carries at most one
// pending event and is closed when ctx is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.WatchEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, domain.ErrWatcherClosed
	}
	if w.started {
		return nil, fmt.Errorf("%w: watch already started for %s", domain.ErrInvalidInput, w.path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	w.started = true

	l := newLoop(w, fsw)

	if err := fsw.Add(w.dir); err != nil {
		w.report(fmt.Errorf("%w: watching %s: %v", domain.ErrFileUnavailable, w.dir, err))
	} else {
		w.watching.Store(true)
		w.log.Debug("watching %s for %s", w.dir, w.base)
	}

	w.wg.Add(1)
	go l.run(ctx)

	return l.out, nil
}

// Errors returns transient failures. The channel is closed after the watch loop exits.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	started := w.started
	w.mu.Unlock()

	w.wg.Wait()
	if !started {
		w.closeErrors()
	}
	return nil
}

// Read returns the file contents.
func (w *Watcher) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFileUnavailable, err)
	}
	return data, nil
}

// Stats returns a point-in-time view of watcher counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		RawEvents:  w.rawEvents.Load(),
		Emitted:    w.emitted.Load(),
		Replaced:   w.replaced.Load(),
		Errors:     w.errCount.Load(),
		Reattached: w.reattached.Load(),
		Watching:   w.watching.Load(),
	}
}

// report forwards a transient error without blocking. Excess errors are dropped.
func (w *Watcher) report(err error) {
	w.errCount.Add(1)
	w.log.Warn("%v", err)
	select {
	case w.errs <- err:
	default:
	}
}

func (w *Watcher) closeErrors() {
	w.errsOnce.Do(func() { close(w.errs) })
}

// loop is the state owned by the watch goroutine.
type loop struct {
	w       *Watcher
	fsw     *fsnotify.Watcher
	out     chan domain.WatchEvent
	fire    chan uint64
	limiter *rate.Limiter

	timer   *time.Timer
	token   uint64
	lastRaw time.Time
	retry   *time.Ticker
}

func newLoop(w *Watcher, fsw *fsnotify.Watcher) *loop {
	return &loop{
		w:       w,
		fsw:     fsw,
		out:     make(chan domain.WatchEvent, 1),
		fire:    make(chan uint64, 1),
		limiter: rate.NewLimiter(rate.Every(w.retry), 1),
	}
}

func (l *loop) run(ctx context.Context) {
	w := l.w
	defer w.wg.Done()
	defer w.closeErrors()
	defer close(l.out)
	defer l.fsw.Close()
	defer l.stopRetry()
	defer func() {
		if l.timer != nil {
			l.timer.Stop()
		}
	}()

	if !w.watching.Load() {
		l.startRetry()
	}

	for {
		var retryC <-chan time.Time
		if l.retry != nil {
			retryC = l.retry.C
		}

		select {
		case <-ctx.Done():
			return
		case <-w.closeCh:
			return

		case ev, ok := <-l.fsw.Events:
			if !ok {
				return
			}
			l.handle(ev)

		case err, ok := <-l.fsw.Errors:
			if !ok {
				return
			}
			l.handleError(err)

		case <-retryC:
			l.reattach()

		case token := <-l.fire:
			if token == l.token {
				l.emit()
			}
		}
	}
}

func (l *loop) handle(ev fsnotify.Event) {
	w := l.w
	name := filepath.Clean(ev.Name)

	if name == w.dir && (ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)) {
		l.lost(fmt.Errorf("%w: directory %s went away", domain.ErrFileUnavailable, w.dir))
		return
	}
	if filepath.Base(name) != w.base || filepath.Dir(name) != w.dir {
		return
	}
	if ev.Op == fsnotify.Chmod {
		return
	}

	w.rawEvents.Add(1)
	l.touch()
}

// touch records a raw change and restarts the quiet window.
func (l *loop) touch() {
	l.lastRaw = time.Now()
	l.token++
	token := l.token
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = time.AfterFunc(l.w.debounce, func() {
		select {
		case l.fire <- token:
		default:
			// A stale token is sitting in the slot; replace it.
			select {
			case <-l.fire:
			default:
			}
			select {
			case l.fire <- token:
			default:
			}
		}
	})
}

func (l *loop) emit() {
	w := l.w
	op := domain.WatchChanged
	if _, err := os.Stat(w.path); errors.Is(err, os.ErrNotExist) {
		op = domain.WatchRemoved
	}
	ev := domain.WatchEvent{
		Seq:       w.seq.Add(1),
		Path:      w.path,
		Op:        op,
		Timestamp: l.lastRaw,
	}
	w.emitted.Add(1)
	w.log.Debug("event #%d %s", ev.Seq, ev.Op)

	for {
		select {
		case l.out <- ev:
			return
		default:
		}
		select {
		case <-l.out:
			w.replaced.Add(1)
		default:
		}
	}
}

// handleError decides what an fsnotify error means for the file. With the
// directory gone the watch is lost. Otherwise events may have been dropped
// (queue overflow), so the file is rescanned instead of being reported
// as unavailable.
func (l *loop) handleError(err error) {
	if !l.checkDir() {
		return
	}
	l.w.errCount.Add(1)
	l.w.log.Warn("watching %s: %v, rescanning %s", l.w.dir, err, l.w.base)
	l.touch()
}

// checkDir marks the watch lost when the parent directory no longer exists.
func (l *loop) checkDir() bool {
	if _, err := os.Stat(l.w.dir); err != nil {
		l.lost(fmt.Errorf("%w: %v", domain.ErrFileUnavailable, err))
		return false
	}
	return true
}

func (l *loop) lost(err error) {
	w := l.w
	if !w.watching.Swap(false) {
		return
	}
	_ = l.fsw.Remove(w.dir)
	w.report(err)
	l.startRetry()
}

func (l *loop) reattach() {
	w := l.w
	if w.watching.Load() || !l.limiter.Allow() {
		return
	}
	if err := l.fsw.Add(w.dir); err != nil {
		w.log.Debug("reattach %s: %v", w.dir, err)
		return
	}
	w.watching.Store(true)
	w.reattached.Add(1)
	w.log.Info("watch on %s restored", w.dir)
	l.stopRetry()

	// The file may have been recreated while nothing was watching.
	l.touch()
}

func (l *loop) startRetry() {
	if l.retry == nil {
		l.retry = time.NewTicker(l.w.retry)
	}
}

func (l *loop) stopRetry() {
	if l.retry != nil {
		l.retry.Stop()
		l.retry = nil
	}
}
