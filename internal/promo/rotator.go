package promo

import (
	"sync"
	"time"
)

// State is the rotator's display state.
type State string

const (
	// StateInactive means no eligible items; the consumer shows the
	// placeholder call-to-action.
	StateInactive State = "inactive"
	// StateDisplaying means one item is on screen.
	StateDisplaying State = "displaying"
	// StateTransitioning means a cross-fade between two items is in
	// progress. Display-only; data correctness does not depend on it.
	StateTransitioning State = "transitioning"
)

// Status is a snapshot of the rotator for consumers.
type Status struct {
	State       State `json:"state"`
	Index       int   `json:"index"`
	NextIndex   int   `json:"next_index,omitempty"`
	ActiveCount int   `json:"active_count"`
	Item        *Item `json:"item,omitempty"`
}

// task is a cancellable one-shot scheduled call. All rotator timing goes
// through it so Stop can deterministically cancel pending work instead of
// relying on cleanup-callback discipline.
type task struct {
	timer *time.Timer
}

func schedule(d time.Duration, fn func()) *task {
	return &task{timer: time.AfterFunc(d, fn)}
}

func (t *task) cancel() {
	if t != nil {
		t.timer.Stop()
	}
}

const (
	defaultInterval   = 5 * time.Second
	defaultTransition = 500 * time.Millisecond
	defaultReeval     = 30 * time.Second
)

// Rotator selects which promotional item is visible and advances it on a
// fixed cadence. The active set is recomputed on every list change and on
// a periodic wall-clock tick, since items can expire mid-session with no
// mutation at all. Cooperative timers only; a new rotation schedule always
// cancels the previous one, so no two timers ever advance concurrently.
type Rotator struct {
	mu      sync.Mutex
	items   []Item
	active  []Item
	idx     int
	nextIdx int
	state   State

	interval   time.Duration
	transition time.Duration
	reeval     time.Duration
	now        func() time.Time

	rotate  *task
	fade    *task
	done    chan struct{}
	running bool

	onChange func(Status)
}

// RotatorOption configures a Rotator.
type RotatorOption func(*Rotator)

// WithInterval sets the rotation cadence.
func WithInterval(d time.Duration) RotatorOption {
	return func(r *Rotator) { r.interval = d }
}

// WithTransition sets the cross-fade hold.
func WithTransition(d time.Duration) RotatorOption {
	return func(r *Rotator) { r.transition = d }
}

// WithReevalInterval sets the wall-clock re-evaluation tick.
func WithReevalInterval(d time.Duration) RotatorOption {
	return func(r *Rotator) { r.reeval = d }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) RotatorOption {
	return func(r *Rotator) { r.now = now }
}

// WithOnChange registers a callback invoked (outside the rotator's lock)
// whenever the visible state changes.
func WithOnChange(fn func(Status)) RotatorOption {
	return func(r *Rotator) { r.onChange = fn }
}

// NewRotator creates a stopped rotator with no items.
func NewRotator(opts ...RotatorOption) *Rotator {
	r := &Rotator{
		state:      StateInactive,
		interval:   defaultInterval,
		transition: defaultTransition,
		reeval:     defaultReeval,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins rotation and periodic re-evaluation. Calling Start on a
// running rotator is a no-op.
func (r *Rotator) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.done = make(chan struct{})
	done := r.done
	r.reevaluateLocked()
	status := r.statusLocked()
	r.mu.Unlock()
	r.notify(status)

	go func() {
		ticker := time.NewTicker(r.reeval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Reevaluate()
			case <-done:
				return
			}
		}
	}()
}

// Stop cancels all pending timers and the re-evaluation loop. The rotator
// can be restarted with Start.
func (r *Rotator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	r.rotate.cancel()
	r.fade.cancel()
	close(r.done)
}

// SetItems replaces the underlying item list and recomputes the active set.
func (r *Rotator) SetItems(items []Item) {
	r.mu.Lock()
	r.items = append([]Item(nil), items...)
	r.reevaluateLocked()
	status := r.statusLocked()
	r.mu.Unlock()
	r.notify(status)
}

// Reevaluate recomputes the active set against the current clock.
func (r *Rotator) Reevaluate() {
	r.mu.Lock()
	r.reevaluateLocked()
	status := r.statusLocked()
	r.mu.Unlock()
	r.notify(status)
}

// Status returns a snapshot of the current display state.
func (r *Rotator) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusLocked()
}

// Current returns the item on display, if any.
func (r *Rotator) Current() (Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateInactive || r.idx >= len(r.active) {
		return Item{}, false
	}
	return r.active[r.idx], true
}

// reevaluateLocked recomputes the active set. If the previously displayed
// index fell out of bounds (set shrank), it resets to 0.
func (r *Rotator) reevaluateLocked() {
	r.active = ActiveSet(r.items, r.now())

	if len(r.active) == 0 {
		r.state = StateInactive
		r.idx = 0
		r.rotate.cancel()
		r.fade.cancel()
		return
	}

	if r.idx >= len(r.active) {
		r.idx = 0
	}
	if r.state == StateInactive || r.state == StateTransitioning {
		r.state = StateDisplaying
		r.fade.cancel()
	}
	r.scheduleRotationLocked()
}

// scheduleRotationLocked arms the next rotation, cancelling any previous
// timer first. Single-item sets do not rotate.
func (r *Rotator) scheduleRotationLocked() {
	r.rotate.cancel()
	if !r.running || len(r.active) < 2 {
		return
	}
	r.rotate = schedule(r.interval, r.advance)
}

// advance begins a transition to the next item (wrapping) and arms the
// timer that completes it.
func (r *Rotator) advance() {
	r.mu.Lock()
	if !r.running || len(r.active) < 2 {
		r.mu.Unlock()
		return
	}
	// A still-pending fade is completed first so the index never skips.
	if r.state == StateTransitioning {
		r.idx = r.nextIdx
	}
	r.state = StateTransitioning
	r.nextIdx = (r.idx + 1) % len(r.active)
	r.fade.cancel()
	r.fade = schedule(r.transition, r.finishTransition)
	r.scheduleRotationLocked()
	status := r.statusLocked()
	r.mu.Unlock()
	r.notify(status)
}

// finishTransition lands the pending advance.
func (r *Rotator) finishTransition() {
	r.mu.Lock()
	if r.state != StateTransitioning {
		r.mu.Unlock()
		return
	}
	r.idx = r.nextIdx
	r.state = StateDisplaying
	status := r.statusLocked()
	r.mu.Unlock()
	r.notify(status)
}

func (r *Rotator) statusLocked() Status {
	st := Status{
		State:       r.state,
		Index:       r.idx,
		ActiveCount: len(r.active),
	}
	if r.state == StateTransitioning {
		st.NextIndex = r.nextIdx
	}
	if r.state != StateInactive && r.idx < len(r.active) {
		item := r.active[r.idx]
		st.Item = &item
	}
	return st
}

func (r *Rotator) notify(st Status) {
	if r.onChange != nil {
		r.onChange(st)
	}
}
