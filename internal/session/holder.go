package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// Holder publishes the current snapshot of a session. Snapshots are swapped
// atomically; the holder never merges concurrent flows, the last Store wins.
type Holder struct {
	cur atomic.Pointer[State]

	mu   sync.Mutex
	subs []func(State)

	now func() time.Time
}

// NewHolder returns a holder publishing initial.
func NewHolder(initial State) *Holder {
	h := &Holder{now: time.Now}
	h.cur.Store(&initial)
	return h
}

// Load returns the current snapshot.
func (h *Holder) Load() State {
	return *h.cur.Load()
}

// Subscribe registers fn to be called with every stored snapshot, including
// the one produced when a success flag expires.
func (h *Holder) Subscribe(fn func(State)) {
	h.mu.Lock()
	h.subs = append(h.subs, fn)
	h.mu.Unlock()
}

// Store replaces the current snapshot with st. When st carries a success
// flag a timer clears it on expiry, unless st has been replaced by then.
func (h *Holder) Store(st State) {
	p := &st
	h.cur.Store(p)
	h.notify(st)

	until := st.SuccessUntil()
	if until.IsZero() {
		return
	}
	wait := until.Sub(h.now())
	if wait < 0 {
		wait = 0
	}
	time.AfterFunc(wait, func() {
		cleared := p.WithoutSuccess()
		if h.cur.CompareAndSwap(p, &cleared) {
			h.notify(cleared)
		}
	})
}

func (h *Holder) notify(st State) {
	h.mu.Lock()
	subs := make([]func(State), len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}
