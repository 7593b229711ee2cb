package realtime

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is how long a refresh waits for further triggers
// before firing.
const DefaultDebounceWindow = 500 * time.Millisecond

// Debouncer collapses bursts of triggers per key into one trailing-edge
// callback. A trigger arriving while a timer is pending restarts the window.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	fn     func(key string)
	timers map[string]*time.Timer
}

func NewDebouncer(window time.Duration, fn func(key string)) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{window: window, fn: fn, timers: map[string]*time.Timer{}}
}

// Trigger schedules (or reschedules) the callback for key after the window.
func (d *Debouncer) Trigger(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		d.fn(key)
	})
}

// Cancel drops any pending callback for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
	d.mu.Unlock()
}

// Stop cancels every pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	for k, t := range d.timers {
		t.Stop()
		delete(d.timers, k)
	}
	d.mu.Unlock()
}

// Pending reports whether a callback is scheduled for key.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[key]
	return ok
}
