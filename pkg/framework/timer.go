package framework

import (
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultTimerInterval is the interval of a newly created Timer.
const DefaultTimerInterval = 100 * time.Millisecond

// Timer is a periodic task executed on the loop goroutine.
// The ticker goroutine only marks the timer pending and wakes the loop,
// so a tick overrunning its interval leaves at most one more tick queued.
type Timer struct {
	name string
	loop *Loop
	fn   TickFunc

	lock     sync.Mutex
	interval time.Duration
	ticker   *time.Ticker
	stopCh   chan struct{}
	pending  bool
}

// Name implements Named.
func (t *Timer) Name() string {
	return t.name
}

// Interval returns the current interval.
func (t *Timer) Interval() time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.interval
}

// SetInterval changes the interval, taking effect immediately if the
// timer is running. Intervals below MinTimerInterval are clamped.
func (t *Timer) SetInterval(d time.Duration) time.Duration {
	if d < MinTimerInterval {
		d = MinTimerInterval
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.interval = d
	if t.ticker != nil {
		t.ticker.Reset(d)
	}
	return d
}

// IsActive indicates the timer is started.
func (t *Timer) IsActive() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.stopCh != nil
}

// Start starts the timer. It's a no-op if already started.
func (t *Timer) Start() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.stopCh != nil {
		return
	}
	t.ticker = time.NewTicker(t.interval)
	t.stopCh = make(chan struct{})
	go t.run(t.ticker, t.stopCh)
	glog.V(4).Infof("timer %s started (%v)", t.name, t.interval)
}

// Stop stops the timer and discards a pending tick.
// It's a no-op if already stopped.
func (t *Timer) Stop() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.pending = false
	if t.stopCh == nil {
		return
	}
	t.ticker.Stop()
	close(t.stopCh)
	t.ticker, t.stopCh = nil, nil
	glog.V(4).Infof("timer %s stopped", t.name)
}

func (t *Timer) run(ticker *time.Ticker, stopCh chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			t.lock.Lock()
			if t.stopCh == stopCh {
				t.pending = true
			}
			t.lock.Unlock()
			t.loop.TriggerNext()
		}
	}
}

func (t *Timer) takePending() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	pending := t.pending
	t.pending = false
	return pending
}
