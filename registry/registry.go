// Package registry implements the binding registry (§4.4): the mapping from
// Action to (Condition to ordered Command list) that the edge detector reads
// every tick. Its shape and the "rebinding atomically removes the prior
// entry" rule is patterned on the registration bookkeeping in
// github.com/purpleidea/mgmt's converger.converger (a map guarded by a
// mutex, keyed by an opaque identity, mutated only through narrow methods).
package registry

import (
	"sync"

	"github.com/cmdctl/sched/core"
)

// binding records which condition a command is currently bound to under one
// action, plus its position for deterministic ordering.
type binding struct {
	command   core.Command
	condition core.Condition
}

// Registry stores the (action -> condition -> ordered command list) mapping
// and enforces the "one condition per command per action" invariant.
//
// It is safe for concurrent use, though the scheduler itself only ever calls
// it from the single tick goroutine; the mutex exists because Bind may
// legitimately be called from outside the tick loop (e.g. a setup goroutine
// wiring up bindings while the driver is also running).
type Registry struct {
	mu    sync.Mutex
	data  map[core.Action][]binding
	order []core.Action // first-bound order, for Actions()'s tie-break (§4.6, §5)
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		data: make(map[core.Action][]binding),
	}
}

// Bind associates command with condition under action. If command was
// already bound to a different condition under the same action, that prior
// entry is atomically removed first (§4.4 step 2), preserving the order of
// the remaining elements. Rebinding to the exact same (action, command,
// condition) triple is a complete no-op: no list mutation occurs at all.
// condition must be one of
// the five defined values or Bind panics: an invalid Condition can only
// reach here through a programming error, not user input.
func (r *Registry) Bind(action core.Action, command core.Command, condition core.Condition) {
	if !condition.Valid() {
		panic("registry: invalid condition")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list, seen := r.data[action]
	for _, b := range list {
		if b.command == command && b.condition == condition {
			return // exact rebind of the same triple: no-op
		}
	}
	if !seen {
		r.order = append(r.order, action)
	}

	out := list[:0:0] // fresh backing array; never alias the old slice
	for _, b := range list {
		if b.command == command {
			continue // drop the prior entry for this command
		}
		out = append(out, b)
	}
	out = append(out, binding{command: command, condition: condition})
	r.data[action] = out
}

// Commands returns the ordered command list bound to (action, condition). It
// never returns nil; an unbound pair yields an empty slice. The returned
// slice is a copy and safe for the caller to iterate without holding a lock.
func (r *Registry) Commands(action core.Action, condition core.Condition) []core.Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []core.Command{}
	for _, b := range r.data[action] {
		if b.condition == condition {
			out = append(out, b.command)
		}
	}
	return out
}

// Actions returns every action that has at least one binding, in the order
// each action was first bound. The tick engine polls these every tick, and
// that same order is the conflict arbiter's tie-break (§4.6, §5), so it must
// be stable across calls rather than Go's unspecified map iteration order.
func (r *Registry) Actions() []core.Action {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]core.Action, 0, len(r.order))
	for _, a := range r.order {
		if len(r.data[a]) > 0 {
			out = append(out, a)
		}
	}
	return out
}
