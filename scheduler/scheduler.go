// Package scheduler implements the command-based tick engine: binding
// registry consumption, edge detection, conflict arbitration, and the
// eight-phase run_once loop, wired together the way
// github.com/purpleidea/mgmt's engine/graph.Engine wires a resource graph's
// Init/Commit/Close lifecycle around its own state.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cmdctl/sched/core"
	"github.com/cmdctl/sched/metrics"
	"github.com/cmdctl/sched/registry"
	"github.com/cmdctl/sched/util/errwrap"
)

// Config holds the validated construction-time parameters. Mirrors
// engine/graph.Engine's exported-field-plus-Init() shape rather than a
// functional-options API, since that's what this codebase's teacher uses
// throughout.
type Config struct {
	// ClockSpeed is ticks per second. Zero defaults to 60 (§6). Negative
	// or an explicit zero set after defaulting is a configuration error
	// (§4.8, §8 "Clock domain").
	ClockSpeed float64

	// Debug makes Driver.Execute dump each tick's aggregated warnings with
	// spew.Sdump through Logf. The command populations are not dumped.
	Debug bool

	// Logf receives every warning and, if Debug, the Driver's per-tick
	// warning dump.
	// Defaults to a no-op, matching engine/graph.Engine's convention of
	// never requiring a logger.
	Logf func(format string, v ...interface{})

	// Metrics is optional; nil disables all instrumentation (§11).
	Metrics *metrics.Metrics
}

func (c *Config) period() (time.Duration, error) {
	speed := c.ClockSpeed
	if speed == 0 {
		speed = 60
	}
	if speed <= 0 {
		return 0, core.NewConfigError("Config", "clock_speed must be > 0, got %v", speed)
	}
	return time.Duration(float64(time.Second) / speed), nil
}

// Scheduler is the single process-wide tick engine. Construct with New; at
// most one may be live at a time (§4.9) — a second New call while one is
// live returns a *core.ConfigError.
type Scheduler struct {
	epoch uuid.UUID
	logf  func(format string, v ...interface{})
	debug bool

	metrics *metrics.Metrics

	reg  *registry.Registry
	edge *edgeDetector

	mu sync.Mutex

	subsystems   []core.Subsystem
	subsystemSet map[core.Subsystem]bool

	scheduled      map[core.Command]bool
	scheduledOrder []core.Command // insertion order, for deterministic iteration (§5)

	pendingEnded       []core.Command
	pendingInterrupted []core.Command

	warnings error
}

var (
	singletonMu sync.Mutex
	singleton   *Scheduler
)

// New constructs the process-wide Scheduler. Only one may be live; call Drop
// (or let the prior instance go out of scope and call Drop explicitly, since
// Go has no finalizer guarantee) before constructing another (§4.9).
func New(cfg Config) (*Scheduler, error) {
	if _, err := cfg.period(); err != nil {
		return nil, errwrap.Wrapf(err, "New")
	}

	singletonMu.Lock()
	defer singletonMu.Unlock()
	if singleton != nil {
		return nil, core.NewConfigError("New", "a scheduler instance is already live, call Drop first")
	}

	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}

	obj := &Scheduler{
		epoch:        uuid.New(),
		logf:         logf,
		debug:        cfg.Debug,
		metrics:      cfg.Metrics,
		reg:          registry.New(),
		edge:         newEdgeDetector(),
		subsystemSet: make(map[core.Subsystem]bool),
		scheduled:    make(map[core.Command]bool),
	}
	singleton = obj
	return obj, nil
}

// Instance returns the process-wide Scheduler, or nil if none has been
// constructed (or the prior one was Dropped) (§6 "instance").
func Instance() *Scheduler {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	return singleton
}

// Drop releases the singleton slot, permitting a subsequent New. It does not
// cancel any tracked command; callers that want a clean shutdown should call
// Cancel() first.
func (obj *Scheduler) Drop() {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	if singleton == obj {
		singleton = nil
	}
}

// Epoch is an opaque per-instance token, minted with google/uuid the way
// mgmt's lib/deploy.go mints deployment IDs, used only to correlate log
// lines and metrics samples across a take/drop/take cycle.
func (obj *Scheduler) Epoch() uuid.UUID {
	return obj.epoch
}

// BindCommand implements §4.4: bind(action, command, condition).
func (obj *Scheduler) BindCommand(action core.Action, command core.Command, condition core.Condition) {
	obj.reg.Bind(action, command, condition)
}

// RegisterSubsystem idempotently adds a subsystem to the set whose Periodic
// runs every tick. Subsystem constructors are expected to call this
// themselves against Instance() (§6 "auto-invoked by subsystem
// construction"); it is exported so a subsystem base type can do so without
// depending on any one embedder's constructor convention.
func (obj *Scheduler) RegisterSubsystem(sub core.Subsystem) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	if obj.subsystemSet[sub] {
		return
	}
	obj.subsystemSet[sub] = true
	obj.subsystems = append(obj.subsystems, sub)
}

// addScheduled promotes c into the scheduled population, recording its
// insertion position in scheduledOrder. A no-op if c is already scheduled.
func (obj *Scheduler) addScheduled(c core.Command) {
	if obj.scheduled[c] {
		return
	}
	obj.scheduled[c] = true
	obj.scheduledOrder = append(obj.scheduledOrder, c)
}

// dropScheduled removes c from the scheduled population and scheduledOrder.
// A no-op if c isn't scheduled.
func (obj *Scheduler) dropScheduled(c core.Command) {
	if !obj.scheduled[c] {
		return
	}
	delete(obj.scheduled, c)
	obj.scheduledOrder = removeCommand(obj.scheduledOrder, c)
}

// Warnings returns the aggregated, non-fatal error from the most recent
// RunOnce call, or nil if it raised none. Backed by util/errwrap.Append: a
// single warning is returned as is, and two or more are collected in a
// *multierror.Error, whose Errors field holds the individual warnings.
func (obj *Scheduler) Warnings() error {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return obj.warnings
}

// Cancel implements §5's cancel(commands...): end(true) on each named
// command that is scheduled or queued to be interrupted or ended, then drop
// it. With no arguments, it falls back to every such tracked command. The
// incoming population only exists inside RunOnce, which holds the same lock,
// so Cancel never sees an incoming command that was not yet initialized; a
// command that is not tracked is skipped without an End call.
func (obj *Scheduler) Cancel(commands ...core.Command) {
	obj.mu.Lock()
	defer obj.mu.Unlock()

	warn := obj.warnf
	if len(commands) == 0 {
		commands = obj.allTrackedLocked()
	}
	for _, c := range commands {
		wasTracked := obj.scheduled[c] || containsCommand(obj.pendingInterrupted, c) || containsCommand(obj.pendingEnded, c)
		if !wasTracked {
			continue // untracked command: a no-op (§8 "Cancel idempotence").
		}
		obj.safeEnd(c, true, warn)
		obj.dropScheduled(c)
		obj.pendingInterrupted = removeCommand(obj.pendingInterrupted, c)
		obj.pendingEnded = removeCommand(obj.pendingEnded, c)
	}
}

// allTrackedLocked returns every command currently in *scheduled*, followed
// by any others queued in pendingInterrupted or pendingEnded, each once.
// Called with obj.mu held.
func (obj *Scheduler) allTrackedLocked() []core.Command {
	seen := make(map[core.Command]bool)
	var out []core.Command
	for _, c := range obj.scheduledOrder {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range obj.pendingInterrupted {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range obj.pendingEnded {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func containsCommand(list []core.Command, c core.Command) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

func removeCommand(list []core.Command, c core.Command) []core.Command {
	if list == nil {
		return nil
	}
	out := list[:0:0]
	for _, x := range list {
		if x != c {
			out = append(out, x)
		}
	}
	return out
}

// String identifies this instance in log lines by its epoch, the way mgmt's
// resources identify themselves by Kind+Name.
func (obj *Scheduler) String() string {
	return fmt.Sprintf("scheduler(%s)", obj.epoch)
}
