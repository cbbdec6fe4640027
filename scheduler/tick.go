package scheduler

import (
	"fmt"
	"time"

	"github.com/cmdctl/sched/core"
	"github.com/cmdctl/sched/util/errwrap"
)

// RunOnce performs one full phase sequence (§4.7) and returns the aggregate
// of every warning raised during it (nil if none). The returned error is
// also retained and available afterwards from Warnings().
//
// It never blocks; the fixed-rate pacing lives in Driver, not here, so
// run_once can also be driven directly by a test or an embedder with its
// own clock.
func (obj *Scheduler) RunOnce() error {
	obj.mu.Lock()
	defer obj.mu.Unlock()

	start := time.Now()
	obj.warnings = nil
	warn := func(format string, args ...interface{}) {
		obj.warnf(format, args...)
	}

	// --- Phases 1-2: poll actions, classify intents into cancels and
	// schedule candidates (§4.5). ---
	interruptSet := obj.pendingInterrupted
	endSet := obj.pendingEnded
	obj.pendingInterrupted = nil
	obj.pendingEnded = nil

	inInterrupt := make(map[core.Command]bool, len(interruptSet))
	for _, c := range interruptSet {
		inInterrupt[c] = true
	}
	addInterrupt := func(c core.Command) {
		if inInterrupt[c] {
			return
		}
		inInterrupt[c] = true
		interruptSet = append(interruptSet, c)
	}

	scheduledCheck := func(c core.Command) bool { return obj.scheduled[c] }

	var candidates []core.Command
	for _, action := range obj.reg.Actions() {
		now := obj.pollAction(action, warn)
		intents := obj.edge.poll(obj.reg, action, now, scheduledCheck)
		for _, it := range intents {
			switch it.kind {
			case intentCancel:
				if obj.scheduled[it.command] {
					addInterrupt(it.command)
				}
				// otherwise a no-op, per §4.5.
			case intentSchedule:
				candidates = append(candidates, it.command)
			}
		}
	}

	// taken reflects scheduled_prev \ interrupted, the arbiter's starting
	// point (§4.6 step 1).
	taken := make(map[core.Subsystem]core.Command)
	for c := range obj.scheduled {
		if inInterrupt[c] {
			continue
		}
		for _, r := range c.Requirements() {
			taken[r] = c
		}
	}

	accepted, displaced := resolveConflicts(candidates, taken, warn)
	conflictsDropped := len(candidates) - len(accepted)
	for _, c := range displaced {
		addInterrupt(c)
	}

	// --- Phase 3: default fill (§4.6 step 3). ---
	claimed := make(map[core.Subsystem]bool, len(accepted))
	acceptedSet := make(map[core.Command]bool, len(accepted))
	for _, c := range accepted {
		acceptedSet[c] = true
		for _, r := range c.Requirements() {
			claimed[r] = true
		}
	}

	var defaults []core.Command
	seenDefault := make(map[core.Command]bool)
	for _, sub := range obj.subsystems {
		if _, ok := taken[sub]; ok {
			continue
		}
		if claimed[sub] {
			continue
		}
		def := sub.DefaultCommand()
		if def == nil {
			continue
		}
		if obj.scheduled[def] || acceptedSet[def] || seenDefault[def] {
			continue
		}
		seenDefault[def] = true
		defaults = append(defaults, def)
	}
	accepted = append(accepted, resolveDefaults(defaults, taken)...)

	incoming := accepted

	// --- Phase 4: interrupt. ---
	for _, c := range interruptSet {
		obj.safeEnd(c, true, warn)
		obj.dropScheduled(c)
	}

	// --- Phase 5: end finishers (queued by phase 7 of the previous tick). ---
	for _, c := range endSet {
		obj.safeEnd(c, false, warn)
		obj.dropScheduled(c)
	}

	// --- Phase 6: initialize incoming. ---
	justInitialized := make(map[core.Command]bool, len(incoming))
	for _, c := range incoming {
		if !obj.safeInitialize(c, warn) {
			continue // lifecycle failure: warned, never promoted, discarded.
		}
		obj.addScheduled(c)
		justInitialized[c] = true
	}

	// --- Phase 7: execute survivors, exception gate (§7). ---
	// Iterate a snapshot of scheduledOrder, not obj.scheduled directly: the
	// loop body drops entries as commands finish or fail, and §5 makes
	// registry/population order authoritative wherever a tie-break is
	// observable, not Go's unspecified map order.
	absorbed, unabsorbed := 0, 0
	survivors := append([]core.Command(nil), obj.scheduledOrder...)
	for _, c := range survivors {
		if justInitialized[c] {
			continue
		}
		finished, ok := obj.safeIsFinished(c, warn)
		if !ok {
			obj.dropScheduled(c) // lifecycle failure: no further callbacks this tick.
			continue
		}
		if finished {
			obj.pendingEnded = append(obj.pendingEnded, c)
			continue
		}
		execErr, ok := obj.safeExecute(c, warn)
		if !ok {
			obj.dropScheduled(c)
			continue
		}
		if execErr == nil {
			continue
		}
		if obj.safeHandleException(c, execErr, warn) {
			absorbed++
			warn("%s: execute failed and was absorbed by handle_exception: %v", c, execErr)
			continue
		}
		unabsorbed++
		obj.pendingInterrupted = append(obj.pendingInterrupted, c)
		warn("%s: execute failed and was not absorbed: %v", c, execErr)
	}

	// --- Phase 8: commit. ---
	obj.commitCurrentCommands()

	elapsed := time.Since(start)
	obj.metrics.ObserveTick(elapsed)
	obj.metrics.SetScheduledCount(len(obj.scheduled))
	obj.metrics.AddConflictsDropped(conflictsDropped)
	obj.metrics.AddAbsorbed(absorbed)
	obj.metrics.AddUnabsorbed(unabsorbed)

	return obj.warnings
}

// warnf folds a newly-formatted warning into the per-call aggregate (via
// util/errwrap.Append) and routes it through Logf, exactly mirroring how
// engine/graph.Engine logs a resource-prefixed line while also keeping a
// chain the caller can inspect via Warnings().
func (obj *Scheduler) warnf(format string, args ...interface{}) {
	obj.warnings = errwrap.Append(obj.warnings, fmt.Errorf(format, args...))
	obj.logf(format, args...)
}

// commitCurrentCommands implements §4.3's CurrentCommand update: the
// scheduled command requiring this subsystem, or its default if that's what
// is scheduled, or nil.
func (obj *Scheduler) commitCurrentCommands() {
	for _, sub := range obj.subsystems {
		var current core.Command
		for _, c := range obj.scheduledOrder {
			for _, r := range c.Requirements() {
				if r == sub {
					current = c
					break
				}
			}
			if current != nil {
				break
			}
		}
		if current == nil {
			if def := sub.DefaultCommand(); def != nil && obj.scheduled[def] {
				current = def
			}
		}
		sub.SetCurrentCommand(current)
	}
}
