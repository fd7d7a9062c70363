package transport

import (
	"sort"
	"sync"
	"time"
)

// Clock is the audio clock notes are scheduled against.
type Clock interface {
	Now() float64
}

// Timer is a pending callback.
type Timer interface {
	Stop() bool
}

// Timers arms wall-clock callbacks. The scheduling loop only uses them to
// decide when to look ahead; note times always come from the Clock.
type Timers interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealTimers arms timers with time.AfterFunc.
type RealTimers struct{}

func (RealTimers) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type wallClock struct{ start time.Time }

func (c wallClock) Now() float64 { return time.Since(c.start).Seconds() }

// ManualTimers fires callbacks only when Advance is called. Offline
// rendering and tests drive the scheduling loop with it.
type ManualTimers struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	owner *ManualTimers
	due   time.Duration
	seq   uint64
	f     func()
}

func NewManualTimers() *ManualTimers { return &ManualTimers{} }

func (m *ManualTimers) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{owner: m, due: m.now + max(d, 0), seq: m.seq, f: f}
	m.pending = append(m.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	m := t.owner
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.pending {
		if p == t {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves manual time forward by d, firing every timer that comes due
// in order, including timers armed by the callbacks themselves. It returns
// the number of callbacks fired.
func (m *ManualTimers) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	fired := 0
	for {
		m.mu.Lock()
		sort.Slice(m.pending, func(i, j int) bool {
			if m.pending[i].due != m.pending[j].due {
				return m.pending[i].due < m.pending[j].due
			}
			return m.pending[i].seq < m.pending[j].seq
		})
		if len(m.pending) == 0 || m.pending[0].due > target {
			m.now = target
			m.mu.Unlock()
			return fired
		}
		t := m.pending[0]
		m.pending = m.pending[1:]
		m.now = t.due
		m.mu.Unlock()

		t.f()
		fired++
	}
}

// Pending returns the number of armed timers.
func (m *ManualTimers) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Elapsed returns the manual time advanced so far.
func (m *ManualTimers) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}
