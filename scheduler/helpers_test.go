package scheduler

import (
	"fmt"

	"github.com/cmdctl/sched/core"
	"github.com/cmdctl/sched/core/traits"
	"github.com/cmdctl/sched/registry"
)

// testSubsystem is a fully scriptable core.Subsystem for tick/arbiter tests.
type testSubsystem struct {
	traits.SubsystemBase
	periodicCount int
}

func newTestSubsystem(name string) *testSubsystem {
	s := &testSubsystem{}
	s.SetName(name)
	s.Init(s)
	return s
}

func (s *testSubsystem) Periodic() { s.periodicCount++ }

// testCommand is a fully scriptable core.Command. Every hook is optional;
// nil hooks fall back to CommandBase's no-op defaults except IsFinished,
// which defaults to never-finished so a test must opt in explicitly.
type testCommand struct {
	traits.CommandBase

	isFinishedFn      func() bool
	executeFn         func() error
	handleExceptionFn func(error) bool

	initCount          int
	execCount          int
	endCount           int
	lastEndInterrupted bool
}

func newTestCommand(name string, reqs ...core.Subsystem) *testCommand {
	c := &testCommand{}
	c.SetName(name)
	c.AddRequirements(reqs...)
	return c
}

func (c *testCommand) Initialize() { c.initCount++ }

func (c *testCommand) IsFinished() bool {
	if c.isFinishedFn != nil {
		return c.isFinishedFn()
	}
	return false
}

func (c *testCommand) Execute() error {
	c.execCount++
	if c.executeFn != nil {
		return c.executeFn()
	}
	return nil
}

func (c *testCommand) End(interrupted bool) {
	c.endCount++
	c.lastEndInterrupted = interrupted
}

func (c *testCommand) HandleException(err error) bool {
	if c.handleExceptionFn != nil {
		return c.handleExceptionFn(err)
	}
	return false
}

// testAction is a scriptable core.Action backed by a plain function.
type testAction struct {
	id   string
	poll func() bool
}

func (a *testAction) Poll() bool {
	if a.poll == nil {
		return false
	}
	return a.poll()
}

func (a *testAction) String() string { return fmt.Sprintf("action(%s)", a.id) }

func newTestScheduler() *Scheduler {
	return &Scheduler{
		logf:         func(string, ...interface{}) {},
		reg:          registry.New(),
		edge:         newEdgeDetector(),
		subsystemSet: make(map[core.Subsystem]bool),
		scheduled:    make(map[core.Command]bool),
	}
}

// withSubsystem registers sub on obj and returns it, for fluent test setup.
func (obj *Scheduler) withSubsystem(sub core.Subsystem) core.Subsystem {
	obj.RegisterSubsystem(sub)
	return sub
}
