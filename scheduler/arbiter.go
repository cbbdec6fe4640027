package scheduler

import "github.com/cmdctl/sched/core"

// resolveConflicts implements the conflict arbiter (§4.6). candidates is the
// ordered list of provisionally-scheduled commands for this tick (registry
// iteration order is the tie-break). taken reflects the subsystems held by
// commands that are scheduled and NOT already marked interrupted this tick;
// it is mutated in place as candidates are accepted.
//
// It returns the candidates accepted into *incoming* this tick, and the
// running commands that had to be displaced (added by RunOnce to this tick's
// *interrupted* set and ended in this same tick's phase 4). A dropped candidate produces a
// warning via warn.
func resolveConflicts(
	candidates []core.Command,
	taken map[core.Subsystem]core.Command,
	warn func(format string, args ...interface{}),
) (accepted []core.Command, displaced []core.Command) {

	acceptedThisRound := make(map[core.Subsystem]core.Command) // requirement -> candidate, this call only
	alreadyDisplaced := make(map[core.Command]bool)

	for _, cand := range candidates {
		conflict := false
		for _, req := range cand.Requirements() {
			if holder, ok := acceptedThisRound[req]; ok && holder != cand {
				warn("conflict: %s dropped, %s already claimed subsystem %s this tick", cand, holder, req)
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}

		for _, req := range cand.Requirements() {
			acceptedThisRound[req] = cand
			if running, ok := taken[req]; ok && running != cand {
				if !alreadyDisplaced[running] {
					displaced = append(displaced, running)
					alreadyDisplaced[running] = true
				}
			}
			taken[req] = cand
		}
		accepted = append(accepted, cand)
	}

	// A displaced running command may have held other requirements that
	// no accepted candidate this tick happened to claim; those entries
	// are now stale (taken still points at a command moving to
	// *interrupted*) and must be freed so the default-fill step (§4.6
	// step 3) sees them as available.
	for req, c := range taken {
		if alreadyDisplaced[c] {
			delete(taken, req)
		}
	}

	return accepted, displaced
}

// resolveDefaults implements §4.6 step 3: default commands never displace a
// non-default candidate; if any of a default's requirements is already
// taken, it is skipped silently (no warning — this is expected, not a
// conflict).
func resolveDefaults(
	defaults []core.Command,
	taken map[core.Subsystem]core.Command,
) (accepted []core.Command) {

	acceptedThisRound := make(map[core.Subsystem]core.Command)

	for _, cand := range defaults {
		blocked := false
		for _, req := range cand.Requirements() {
			if _, ok := taken[req]; ok {
				blocked = true
				break
			}
			if holder, ok := acceptedThisRound[req]; ok && holder != cand {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		for _, req := range cand.Requirements() {
			acceptedThisRound[req] = cand
			taken[req] = cand
		}
		accepted = append(accepted, cand)
	}

	return accepted
}
