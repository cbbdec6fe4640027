package traits

import (
	"github.com/cmdctl/sched/core"
)

// SubsystemBase is the starting point for a user-authored Subsystem. It
// supplies Name/SetName, String, the scheduler-owned CurrentCommand
// bookkeeping, and the requirement-containment check on SetDefaultCommand
// (§3's invariant, carried verbatim from the original's Subsystem.default_command
// setter — see SPEC_FULL.md §12).
type SubsystemBase struct {
	Named

	self    core.Subsystem // set by Init; needed to compare identity below
	current core.Command
	def     core.Command
}

// Init records the embedding type's own Subsystem identity. Call it once,
// from the embedder's constructor, as `obj.SubsystemBase.Init(obj)`. Without
// it, SetDefaultCommand cannot tell whether a candidate default command
// actually requires this subsystem, since Go embedding gives SubsystemBase
// no way to see the outer type on its own.
func (obj *SubsystemBase) Init(self core.Subsystem) {
	obj.self = self
}

// String falls back to the type name convention mgmt's traits.Base uses,
// minus the kind (subsystems have no kind here).
func (obj *SubsystemBase) String() string {
	if obj.Name() == "" {
		return "subsystem"
	}
	return obj.Name()
}

// Periodic is a no-op default; override it to do the subsystem's per-tick
// work (reading a sensor, refreshing cached state, and so on).
func (obj *SubsystemBase) Periodic() {}

// CurrentCommand returns the scheduler-owned current command, or nil.
func (obj *SubsystemBase) CurrentCommand() core.Command {
	return obj.current
}

// SetCurrentCommand is called only by the tick engine, during phase 8
// (commit); user code should treat CurrentCommand as read-only.
func (obj *SubsystemBase) SetCurrentCommand(c core.Command) {
	obj.current = c
}

// DefaultCommand returns the user-set default command, or nil.
func (obj *SubsystemBase) DefaultCommand() core.Command {
	return obj.def
}

// SetDefaultCommand assigns the default command run whenever this subsystem
// is otherwise idle. The candidate must already list this subsystem in its
// own Requirements(), or this is a configuration error (§3). Panics if Init
// was never called, since that's a programmer error in the embedder's
// constructor, not a runtime condition callers can recover from.
func (obj *SubsystemBase) SetDefaultCommand(command core.Command) error {
	if obj.self == nil {
		panic("traits.SubsystemBase used before Init(self) was called")
	}
	if command == nil {
		obj.def = nil
		return nil
	}
	found := false
	for _, s := range command.Requirements() {
		if s == obj.self {
			found = true
			break
		}
	}
	if !found {
		return core.NewConfigError(
			"SetDefaultCommand",
			"%s must have %s as a requirement before being assigned as a default",
			command.Name(), obj.self.Name(),
		)
	}
	obj.def = command
	return nil
}
