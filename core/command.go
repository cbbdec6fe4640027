package core

import "fmt"

// Command is a long-lived unit of work that acts on an immutable set of
// Subsystems while scheduled. See §4.2 for the full lifecycle contract.
type Command interface {
	fmt.Stringer

	// Name is a stable, human-readable identifier, used in log lines and
	// warnings. Not required to be unique.
	Name() string

	// Requirements is the immutable set of subsystems this command needs
	// exclusively while scheduled. Established at construction time; the
	// scheduler treats a Command whose Requirements() changes after it
	// first enters a population as undefined behavior.
	Requirements() []Subsystem

	// Initialize is called exactly once per scheduling episode, before
	// the first Execute.
	Initialize()

	// IsFinished is called each tick, before Execute, after the tick the
	// command was initialized. Returning true skips Execute this tick and
	// ends the command normally (End(false)) at the start of the next tick.
	IsFinished() bool

	// Execute is called each tick the command remains scheduled and is
	// not finishing.
	Execute() error

	// End is called exactly once per scheduling episode: after IsFinished
	// returns true (interrupted=false), or after a scheduler-forced
	// termination (interrupted=true).
	End(interrupted bool)

	// HandleException is invoked when Execute returns a non-nil error.
	// Returning true absorbs the error and keeps the command scheduled;
	// any other outcome queues the command for interruption (End(true)) at
	// the start of the next tick.
	HandleException(err error) bool
}
