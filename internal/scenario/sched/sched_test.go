package sched

import (
	"testing"
	"time"
)

func TestManualRunsTasksInDueOrder(t *testing.T) {
	t.Parallel()

	m := NewManual()
	var order []string
	m.Schedule(300*time.Millisecond, func() { order = append(order, "late") })
	m.Schedule(100*time.Millisecond, func() { order = append(order, "early") })
	m.Schedule(100*time.Millisecond, func() { order = append(order, "early-second") })

	m.Advance(50 * time.Millisecond)
	if len(order) != 0 {
		t.Fatalf("nothing should fire before its due time, got %v", order)
	}

	m.Advance(250 * time.Millisecond)
	if len(order) != 3 {
		t.Fatalf("expected all tasks fired, got %v", order)
	}
	if order[0] != "early" || order[1] != "early-second" || order[2] != "late" {
		t.Fatalf("expected due order with stable ties, got %v", order)
	}
}

func TestManualStopPreventsFiring(t *testing.T) {
	t.Parallel()

	m := NewManual()
	fired := false
	h := m.Schedule(100*time.Millisecond, func() { fired = true })

	if !h.Stop() {
		t.Fatalf("expected Stop to win before the task fired")
	}
	m.Advance(time.Second)
	if fired {
		t.Fatalf("stopped task must not fire")
	}
	if h.Stop() {
		t.Fatalf("second Stop must report false")
	}
}

func TestManualTasksCanScheduleFollowups(t *testing.T) {
	t.Parallel()

	m := NewManual()
	var order []string
	m.Schedule(100*time.Millisecond, func() {
		order = append(order, "first")
		m.Schedule(0, func() { order = append(order, "followup") })
	})

	m.Advance(100 * time.Millisecond)
	if len(order) != 2 || order[1] != "followup" {
		t.Fatalf("zero-delay followups must run within the same Advance, got %v", order)
	}
}

func TestManualPendingCountsLiveTasks(t *testing.T) {
	t.Parallel()

	m := NewManual()
	h := m.Schedule(time.Second, func() {})
	m.Schedule(time.Second, func() {})
	if m.Pending() != 2 {
		t.Fatalf("expected 2 pending, got %d", m.Pending())
	}
	h.Stop()
	if m.Pending() != 1 {
		t.Fatalf("expected 1 pending after stop, got %d", m.Pending())
	}
	m.Advance(time.Second)
	if m.Pending() != 0 {
		t.Fatalf("expected 0 pending after advance, got %d", m.Pending())
	}
}

func TestTimerFires(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	NewTimer().Schedule(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timer task did not fire")
	}
}

func TestTimerStop(t *testing.T) {
	t.Parallel()

	h := NewTimer().Schedule(time.Hour, func() { t.Errorf("stopped timer fired") })
	if !h.Stop() {
		t.Fatalf("expected Stop to cancel the pending timer")
	}
}
