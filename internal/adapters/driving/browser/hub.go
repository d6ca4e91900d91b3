package browser

import "sync"

// hub fans revision notifications out to connected pages.
// Every subscriber holds at most one pending revision; a newer one replaces it.
type hub struct {
	mu   sync.Mutex
	subs map[chan uint64]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan uint64]struct{})}
}

func (h *hub) subscribe() chan uint64 {
	ch := make(chan uint64, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(ch chan uint64) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

func (h *hub) notify(revision uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- revision:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- revision
		}
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
