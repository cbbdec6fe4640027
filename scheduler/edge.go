package scheduler

import (
	"sync"

	"github.com/cmdctl/sched/core"
	"github.com/cmdctl/sched/registry"
)

// intentKind distinguishes the two kinds of scheduling intent an action's
// poll can produce in a single tick (§4.5).
type intentKind int

const (
	intentSchedule intentKind = iota
	intentCancel
)

type intent struct {
	kind    intentKind
	command core.Command
}

// edgeDetector tracks, for every action, the previous tick's poll result,
// and, for every (action, command) pair bound under toggle_when_activated,
// a latch bit that survives across ticks. Its bookkeeping style — a map
// guarded by a mutex, keyed by an opaque identity, touched only through
// narrow methods — is patterned on github.com/purpleidea/mgmt's
// converger.converger status map.
type edgeDetector struct {
	mu   sync.Mutex
	prev map[core.Action]bool

	// latch is keyed by (action, command) since the same command may be
	// toggle-bound under more than one action independently.
	latch map[togglekey]bool
}

type togglekey struct {
	action  core.Action
	command core.Command
}

func newEdgeDetector() *edgeDetector {
	return &edgeDetector{
		prev:  make(map[core.Action]bool),
		latch: make(map[togglekey]bool),
	}
}

// poll computes intents for one action given its current poll result and the
// registry's bindings, per the fixed condition visit order in §4.5. It
// updates prev and any toggled latch as a side effect and must be called
// exactly once per action per tick.
func (d *edgeDetector) poll(reg *registry.Registry, action core.Action, now bool, scheduled func(core.Command) bool) []intent {
	d.mu.Lock()
	prev := d.prev[action]
	d.mu.Unlock()

	var intents []intent

	rising := !prev && now
	held := prev && now
	falling := prev && !now

	for _, cond := range core.ConditionOrder {
		commands := reg.Commands(action, cond)
		switch cond {
		case core.CancelWhenActivated:
			if rising {
				for _, c := range commands {
					intents = append(intents, intent{kind: intentCancel, command: c})
				}
			}
		case core.ToggleWhenActivated:
			if rising {
				for _, c := range commands {
					key := togglekey{action: action, command: c}
					d.mu.Lock()
					d.latch[key] = !d.latch[key]
					latched := d.latch[key]
					d.mu.Unlock()
					if latched {
						intents = append(intents, intent{kind: intentSchedule, command: c})
					} else {
						intents = append(intents, intent{kind: intentCancel, command: c})
					}
				}
			}
		case core.WhenDeactivated:
			if falling {
				for _, c := range commands {
					intents = append(intents, intent{kind: intentSchedule, command: c})
				}
			}
		case core.WhenActivated:
			if rising {
				for _, c := range commands {
					intents = append(intents, intent{kind: intentSchedule, command: c})
				}
			}
		case core.WhenHeld:
			if rising {
				for _, c := range commands {
					intents = append(intents, intent{kind: intentSchedule, command: c})
				}
			} else if held {
				for _, c := range commands {
					// Open Question 1 (SPEC_FULL.md §9): only
					// re-schedule on held ticks if not already
					// scheduled.
					if !scheduled(c) {
						intents = append(intents, intent{kind: intentSchedule, command: c})
					}
				}
			}
		}
	}

	d.mu.Lock()
	d.prev[action] = now
	d.mu.Unlock()

	return intents
}
