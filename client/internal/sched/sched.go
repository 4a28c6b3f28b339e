// Package sched provides the cooperative "park a task, then wake it up when
// it's your turn" primitive spec §5 asks for. The original describes fibers
// parking themselves on a scheduler and being rescheduled by whoever holds
// the connection's write or read turn next; Go has no native fiber, so this
// package plays that role with a goroutine-safe, single-slot wakeup channel,
// grounded on the notifier-channel handoff the teacher's own legacy request
// processor used to hand a connection from one goroutine to the next.
package sched

import "context"

// Task is a single-shot wakeup gate: exactly one goroutine calls Park, and
// any number of others may call Schedule, but only the first Schedule after
// a Park actually wakes it — extra Schedule calls before the matching Park
// are coalesced into the one pending wakeup, matching how a request that
// becomes runnable more than once before it's actually run still runs once.
type Task struct {
	ready chan struct{}
}

// NewTask returns a Task that is not yet scheduled.
func NewTask() *Task {
	return &Task{ready: make(chan struct{}, 1)}
}

// Schedule marks the task as runnable. Safe to call before Park, any number
// of times, from any goroutine; it never blocks.
func (t *Task) Schedule() {
	select {
	case t.ready <- struct{}{}:
	default:
	}
}

// Park blocks until Schedule has been called (possibly already, before this
// call), or ctx is done first.
func (t *Task) Park(ctx context.Context) error {
	select {
	case <-t.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
