package scheduler

import (
	"testing"

	"github.com/cmdctl/sched/core"
	"github.com/cmdctl/sched/registry"
)

func neverScheduled(core.Command) bool { return false }

func TestEdgeWhenActivatedRisingEdge(t *testing.T) {
	a := &testAction{id: "a"}
	c := newTestCommand("C")
	reg := registry.New()
	reg.Bind(a, c, core.WhenActivated)

	d := newEdgeDetector()

	intents := d.poll(reg, a, false, neverScheduled)
	if len(intents) != 0 {
		t.Fatalf("idle tick should emit no intents, got %v", intents)
	}
	intents = d.poll(reg, a, true, neverScheduled)
	if len(intents) != 1 || intents[0].kind != intentSchedule || intents[0].command != core.Command(c) {
		t.Fatalf("expected a schedule intent for C on rising edge, got %v", intents)
	}
}

func TestEdgeWhenDeactivatedFallingEdge(t *testing.T) {
	a := &testAction{id: "a"}
	c := newTestCommand("C")
	reg := registry.New()
	reg.Bind(a, c, core.WhenDeactivated)

	d := newEdgeDetector()
	d.poll(reg, a, true, neverScheduled) // establish prev=true
	intents := d.poll(reg, a, false, neverScheduled)
	if len(intents) != 1 || intents[0].kind != intentSchedule {
		t.Fatalf("expected a schedule intent on falling edge, got %v", intents)
	}
}

func TestEdgeCancelWhenActivated(t *testing.T) {
	a := &testAction{id: "a"}
	c := newTestCommand("C")
	reg := registry.New()
	reg.Bind(a, c, core.CancelWhenActivated)

	d := newEdgeDetector()
	intents := d.poll(reg, a, true, neverScheduled)
	if len(intents) != 1 || intents[0].kind != intentCancel {
		t.Fatalf("expected a cancel intent on rising edge, got %v", intents)
	}
}

// S5 from spec.md: toggle semantics, latch surviving intermediate ticks.
func TestEdgeToggleWhenActivated(t *testing.T) {
	a := &testAction{id: "a"}
	c := newTestCommand("T")
	reg := registry.New()
	reg.Bind(a, c, core.ToggleWhenActivated)

	d := newEdgeDetector()

	// first rising edge: latch flips true -> schedule
	intents := d.poll(reg, a, true, neverScheduled)
	if len(intents) != 1 || intents[0].kind != intentSchedule {
		t.Fatalf("expected schedule on first toggle rising edge, got %v", intents)
	}

	// held tick: toggle doesn't react to held, no intents from it
	intents = d.poll(reg, a, true, neverScheduled)
	if len(intents) != 0 {
		t.Fatalf("expected no intents during held tick for toggle, got %v", intents)
	}

	// falling edge then second rising edge: latch flips false -> cancel
	d.poll(reg, a, false, neverScheduled)
	intents = d.poll(reg, a, true, neverScheduled)
	if len(intents) != 1 || intents[0].kind != intentCancel {
		t.Fatalf("expected cancel on second toggle rising edge, got %v", intents)
	}

	// third rising edge: latch flips true again -> schedule
	d.poll(reg, a, false, neverScheduled)
	intents = d.poll(reg, a, true, neverScheduled)
	if len(intents) != 1 || intents[0].kind != intentSchedule {
		t.Fatalf("expected schedule on third toggle rising edge, got %v", intents)
	}
}

// Open Question 1: when_held only re-schedules on held ticks if the command
// isn't already scheduled.
func TestEdgeWhenHeldDoesNotReScheduleIfAlreadyScheduled(t *testing.T) {
	a := &testAction{id: "a"}
	c := newTestCommand("H")
	reg := registry.New()
	reg.Bind(a, c, core.WhenHeld)

	d := newEdgeDetector()
	d.poll(reg, a, true, neverScheduled) // rising edge: schedule

	alreadyScheduled := func(cmd core.Command) bool { return cmd == core.Command(c) }
	intents := d.poll(reg, a, true, alreadyScheduled)
	if len(intents) != 0 {
		t.Fatalf("expected no re-schedule while already scheduled, got %v", intents)
	}

	intents = d.poll(reg, a, true, neverScheduled)
	if len(intents) != 1 || intents[0].kind != intentSchedule {
		t.Fatalf("expected a re-schedule once not-scheduled, got %v", intents)
	}
}
