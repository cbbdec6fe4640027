package registry

import (
	"testing"

	"github.com/cmdctl/sched/core"
	"github.com/cmdctl/sched/core/traits"
)

type fakeAction struct{ id string }

func (*fakeAction) Poll() bool { return false }

type fakeCommand struct {
	traits.CommandBase
}

func (c *fakeCommand) IsFinished() bool { return false }

func newFakeCommand(name string) *fakeCommand {
	c := &fakeCommand{}
	c.SetName(name)
	return c
}

// S1 from spec.md: rebinding the same command under a new condition removes
// the prior entry and leaves the old condition's list empty.
func TestRebindingSameCommand(t *testing.T) {
	a := &fakeAction{}
	c := newFakeCommand("C")

	r := New()
	r.Bind(a, c, core.WhenActivated)
	r.Bind(a, c, core.WhenDeactivated)

	if got := r.Commands(a, core.WhenActivated); len(got) != 0 {
		t.Errorf("expected when_activated list to be empty, got %v", got)
	}
	got := r.Commands(a, core.WhenDeactivated)
	if len(got) != 1 || got[0] != core.Command(c) {
		t.Errorf("expected when_deactivated list to contain C, got %v", got)
	}
}

// S2 from spec.md: two distinct commands bound to the same (action,
// condition) appear in insertion order.
func TestMultiCommandSameAction(t *testing.T) {
	a := &fakeAction{}
	c1 := newFakeCommand("C1")
	c2 := newFakeCommand("C2")

	r := New()
	r.Bind(a, c1, core.WhenActivated)
	r.Bind(a, c2, core.WhenActivated)

	got := r.Commands(a, core.WhenActivated)
	if len(got) != 2 || got[0] != core.Command(c1) || got[1] != core.Command(c2) {
		t.Errorf("expected [C1 C2] in order, got %v", got)
	}
}

// Rebinding atomicity (§8): after Bind(a, c, newCond), c appears under
// exactly one (a, *) list.
func TestRebindingAtomicity(t *testing.T) {
	a := &fakeAction{}
	c := newFakeCommand("C")

	r := New()
	r.Bind(a, c, core.CancelWhenActivated)
	r.Bind(a, c, core.ToggleWhenActivated)
	r.Bind(a, c, core.WhenHeld)

	count := 0
	for _, cond := range core.ConditionOrder {
		for _, bound := range r.Commands(a, cond) {
			if bound == core.Command(c) {
				count++
			}
		}
	}
	if count != 1 {
		t.Errorf("expected C bound under exactly one condition, found %d", count)
	}
}

// Rebinding the identical (action, command, condition) triple is a pure
// no-op: no duplicate entries, no reordering of siblings.
func TestRebindIdenticalTripleIsNoop(t *testing.T) {
	a := &fakeAction{}
	c1 := newFakeCommand("C1")
	c2 := newFakeCommand("C2")

	r := New()
	r.Bind(a, c1, core.WhenActivated)
	r.Bind(a, c2, core.WhenActivated)
	r.Bind(a, c1, core.WhenActivated) // identical triple, repeated

	got := r.Commands(a, core.WhenActivated)
	if len(got) != 2 || got[0] != core.Command(c1) || got[1] != core.Command(c2) {
		t.Errorf("expected [C1 C2] unchanged, got %v", got)
	}
}

func TestActionsOnlyListsBoundActions(t *testing.T) {
	a1 := &fakeAction{}
	a2 := &fakeAction{}
	c := newFakeCommand("C")

	r := New()
	r.Bind(a1, c, core.WhenActivated)

	actions := r.Actions()
	if len(actions) != 1 || actions[0] != core.Action(a1) {
		t.Errorf("expected only a1 to be listed, got %v", actions)
	}
	_ = a2
}

// Actions() must return actions in first-bound order, deterministically
// across calls: the tick engine's conflict tie-break (§4.6) depends on it.
func TestActionsOrderIsStableAndInsertionOrdered(t *testing.T) {
	a1 := &fakeAction{id: "1"}
	a2 := &fakeAction{id: "2"}
	a3 := &fakeAction{id: "3"}
	c := newFakeCommand("C")

	r := New()
	r.Bind(a3, c, core.WhenActivated)
	r.Bind(a1, c, core.WhenDeactivated)
	r.Bind(a2, c, core.WhenHeld)

	want := []core.Action{core.Action(a3), core.Action(a1), core.Action(a2)}
	for i := 0; i < 5; i++ {
		got := r.Actions()
		if len(got) != len(want) {
			t.Fatalf("call %d: expected %d actions, got %d", i, len(want), len(got))
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("call %d: expected order %v, got %v", i, want, got)
			}
		}
	}
}
