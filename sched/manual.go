package sched

import (
	"sort"
	"time"
)

// Manual is a virtual clock. Callbacks only run inside Advance or
// RunPending, on the caller's goroutine.
type Manual struct {
	now   time.Duration
	seq   uint64
	queue []*manualTimer
}

type manualTimer struct {
	m       *Manual
	at      time.Duration
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
}

// NewManual returns a virtual clock at t=0.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc schedules fn at Now()+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{m: m, at: m.now + d, seq: m.seq, fn: fn}
	m.queue = append(m.queue, t)
	return t
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.m.remove(t)
	return true
}

// Now returns the virtual elapsed time.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending returns the number of callbacks waiting to run.
func (m *Manual) Pending() int {
	return len(m.queue)
}

// NextIn returns the delay until the earliest pending callback.
func (m *Manual) NextIn() (time.Duration, bool) {
	t := m.next()
	if t == nil {
		return 0, false
	}
	return t.at - m.now, true
}

// Advance moves the clock forward by d, running every callback that falls
// due in timestamp order. Callbacks scheduled while advancing run too if
// they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	end := m.now + d
	for {
		t := m.next()
		if t == nil || t.at > end {
			break
		}
		m.now = t.at
		m.fire(t)
	}
	m.now = end
}

// RunPending runs callbacks until the queue is empty or limit callbacks ran,
// jumping the clock to each one. It returns the number of callbacks run.
func (m *Manual) RunPending(limit int) int {
	n := 0
	for n < limit {
		t := m.next()
		if t == nil {
			break
		}
		if t.at > m.now {
			m.now = t.at
		}
		m.fire(t)
		n++
	}
	return n
}

func (m *Manual) fire(t *manualTimer) {
	m.remove(t)
	t.fired = true
	t.fn()
}

func (m *Manual) next() *manualTimer {
	if len(m.queue) == 0 {
		return nil
	}
	sort.SliceStable(m.queue, func(i, j int) bool {
		if m.queue[i].at == m.queue[j].at {
			return m.queue[i].seq < m.queue[j].seq
		}
		return m.queue[i].at < m.queue[j].at
	})
	return m.queue[0]
}

func (m *Manual) remove(t *manualTimer) {
	for i, q := range m.queue {
		if q == t {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}
