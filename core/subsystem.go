package core

import "fmt"

// Subsystem is an exclusive resource. At most one scheduled command may have
// a given subsystem in its requirement set at any time; the scheduler
// enforces this via the conflict arbiter.
//
// Periodic is called once per tick for every registered subsystem,
// regardless of whether any command currently requires it.
type Subsystem interface {
	fmt.Stringer

	// Name is a stable, human-readable identifier. Only unique by
	// convention; the scheduler keys subsystems by identity, not name.
	Name() string

	// Periodic is the always-on per-tick hook (§4.3).
	Periodic()

	// CurrentCommand is scheduler-owned: it is nil, the unique scheduled
	// command requiring this subsystem, or the scheduled default command.
	// SetCurrentCommand is called only by the tick engine (phase 8,
	// commit); user code should treat it as read-only.
	CurrentCommand() Command
	SetCurrentCommand(Command)

	// DefaultCommand is user-settable. Setting one that doesn't list this
	// subsystem in its own Requirements() is a configuration error.
	DefaultCommand() Command
	SetDefaultCommand(Command) error
}
