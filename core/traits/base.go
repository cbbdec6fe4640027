package traits

import (
	"fmt"

	"github.com/cmdctl/sched/core"
)

// CommandBase is the starting point for a user-authored Command. It supplies
// Name/SetName, String, Requirements, and AddRequirements, and no-op
// implementations of the lifecycle hooks so an embedder only needs to
// override IsFinished (required) and whichever of Initialize/Execute/End/
// HandleException it actually cares about.
type CommandBase struct {
	Named

	requirements []core.Subsystem
}

// String returns a representation consistent with how mgmt's traits.Base
// renders resources: kind-less here since commands have no kind, so just the
// name, falling back to "command" if unset.
func (obj *CommandBase) String() string {
	if obj.Name() == "" {
		return "command"
	}
	return obj.Name()
}

// AddRequirements registers any number of subsystems as requirements. Meant
// to be called only during construction, before the command is ever bound or
// scheduled; the scheduler treats the requirement set as immutable from that
// point on.
func (obj *CommandBase) AddRequirements(subsystems ...core.Subsystem) {
	obj.requirements = append(obj.requirements, subsystems...)
}

// Requirements returns the immutable set of required subsystems.
func (obj *CommandBase) Requirements() []core.Subsystem {
	return obj.requirements
}

// Initialize is a no-op default; override it if setup is needed.
func (obj *CommandBase) Initialize() {}

// Execute is a no-op default; override it to do the command's actual work.
func (obj *CommandBase) Execute() error { return nil }

// End is a no-op default; override it for cleanup.
func (obj *CommandBase) End(interrupted bool) {}

// HandleException defaults to never absorbing: any execute error interrupts
// the command. Override to return true for recoverable errors.
func (obj *CommandBase) HandleException(err error) bool { return false }

var _ fmt.Stringer = (*CommandBase)(nil)
