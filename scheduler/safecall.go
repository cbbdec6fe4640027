package scheduler

import (
	"github.com/cmdctl/sched/core"
)

// The user-implemented contracts in §4.1/§4.2 have no error return except
// Execute; a misbehaving Poll/Initialize/IsFinished/End is modeled the same
// way §7 treats it — as a recoverable failure that degrades to a warning,
// never a crash of the tick loop. These wrappers are the single place that
// recovers from such a panic.

func (obj *Scheduler) pollAction(a core.Action, warn func(string, ...interface{})) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			warn("action poll failed, treated as false: %v", r)
			result = false
		}
	}()
	return a.Poll()
}

func (obj *Scheduler) safeInitialize(c core.Command, warn func(string, ...interface{})) (ok bool) {
	ok = true
	defer func() {
		if r := recover(); r != nil {
			warn("%s: initialize failed, discarded: %v", c, r)
			ok = false
		}
	}()
	c.Initialize()
	return ok
}

func (obj *Scheduler) safeIsFinished(c core.Command, warn func(string, ...interface{})) (finished, ok bool) {
	ok = true
	defer func() {
		if r := recover(); r != nil {
			warn("%s: is_finished failed, removed from tracking: %v", c, r)
			ok = false
		}
	}()
	finished = c.IsFinished()
	return finished, ok
}

// safeExecute recovers from a panicking Execute the same way a lifecycle
// failure is handled (§7's "Command lifecycle failure" kind; Execute itself
// only has a dedicated exception-gate for the error it *returns*, described
// separately in §7's "Command execute failure").
func (obj *Scheduler) safeExecute(c core.Command, warn func(string, ...interface{})) (err error, ok bool) {
	ok = true
	defer func() {
		if r := recover(); r != nil {
			warn("%s: execute panicked, removed from tracking: %v", c, r)
			ok = false
		}
	}()
	err = c.Execute()
	return err, ok
}

func (obj *Scheduler) safeHandleException(c core.Command, execErr error, warn func(string, ...interface{})) (absorbed bool) {
	defer func() {
		if r := recover(); r != nil {
			// Open Question 3 (SPEC_FULL.md §9): a panicking
			// handle_exception is treated as a non-true return.
			warn("%s: handle_exception panicked while handling %v: %v", c, execErr, r)
			absorbed = false
		}
	}()
	return c.HandleException(execErr)
}

func (obj *Scheduler) safeEnd(c core.Command, interrupted bool, warn func(string, ...interface{})) {
	defer func() {
		if r := recover(); r != nil {
			warn("%s: end(%v) failed: %v", c, interrupted, r)
		}
	}()
	c.End(interrupted)
}
