// Package sched abstracts delayed execution so the controller's debounce and
// retry timing can be driven deterministically in tests.
package sched

import (
	"sort"
	"sync"
	"time"
)

// Handle is a scheduled task that can be stopped before it fires.
type Handle interface {
	// Stop cancels the task. It reports whether the cancellation prevented
	// the task from running.
	Stop() bool
}

// Scheduler runs a function after a delay.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Handle
}

// Timer is the wall-clock scheduler used in production.
type Timer struct{}

// NewTimer builds a wall-clock scheduler.
func NewTimer() *Timer {
	return &Timer{}
}

type timerHandle struct {
	timer *time.Timer
}

func (h *timerHandle) Stop() bool {
	return h.timer.Stop()
}

// Schedule runs fn on its own goroutine after delay.
func (t *Timer) Schedule(delay time.Duration, fn func()) Handle {
	return &timerHandle{timer: time.AfterFunc(delay, fn)}
}

// Manual is a deterministic scheduler driven by explicit Advance calls. Tasks
// fire in due-time order; ties fire in scheduling order.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	owner   *Manual
	due     time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTask) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewManual builds a manual scheduler starting at elapsed time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Schedule registers fn to run once the manual clock has advanced past delay.
func (m *Manual) Schedule(delay time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if delay < 0 {
		delay = 0
	}
	m.seq++
	task := &manualTask{owner: m, due: m.now + delay, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, task)
	return task
}

// Advance moves the manual clock forward, running every due task. Tasks run
// without the scheduler lock held, so they may schedule further tasks; tasks
// scheduled at zero delay during Advance run within the same call.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()

	for {
		task := m.takeDue()
		if task == nil {
			return
		}
		task.fn()
	}
}

// Pending reports the number of live scheduled tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, task := range m.tasks {
		if !task.fired && !task.stopped {
			count++
		}
	}
	return count
}

func (m *Manual) takeDue() *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due != m.tasks[j].due {
			return m.tasks[i].due < m.tasks[j].due
		}
		return m.tasks[i].seq < m.tasks[j].seq
	})
	for _, task := range m.tasks {
		if task.fired || task.stopped || task.due > m.now {
			continue
		}
		task.fired = true
		return task
	}
	return nil
}
