package async

import (
	"sync"
	"time"
)

// DefaultFlashTTL is how long confirmation messages stay visible.
const DefaultFlashTTL = 3000 * time.Millisecond

type Timer interface {
	Stop() bool
}

type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

var SystemClock Clock = systemClock{}

// Flash is a message that clears itself ttl after it was shown.
type Flash struct {
	clock  Clock
	ttl    time.Duration
	notify func()

	mu      sync.Mutex
	msg     string
	seq     uint64
	timer   Timer
	stopped bool
}

func NewFlash(clock Clock, ttl time.Duration, notify func()) *Flash {
	if clock == nil {
		clock = SystemClock
	}
	if ttl <= 0 {
		ttl = DefaultFlashTTL
	}
	if notify == nil {
		notify = func() {}
	}
	return &Flash{clock: clock, ttl: ttl, notify: notify}
}

func (f *Flash) Show(msg string) {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return
	}
	if f.timer != nil {
		f.timer.Stop()
	}
	f.seq++
	seq := f.seq
	f.msg = msg
	f.timer = f.clock.AfterFunc(f.ttl, func() { f.expire(seq) })
	f.mu.Unlock()
	f.notify()
}

func (f *Flash) expire(seq uint64) {
	f.mu.Lock()
	if f.stopped || seq != f.seq {
		f.mu.Unlock()
		return
	}
	f.msg = ""
	f.timer = nil
	f.mu.Unlock()
	f.notify()
}

func (f *Flash) Clear() {
	f.mu.Lock()
	changed := f.msg != ""
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.seq++
	f.msg = ""
	f.mu.Unlock()
	if changed {
		f.notify()
	}
}

func (f *Flash) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msg
}

// Stop clears the message without notifying and ignores later Show calls.
func (f *Flash) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	f.msg = ""
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
