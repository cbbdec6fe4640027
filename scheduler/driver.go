package scheduler

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/davecgh/go-spew/spew"

	"github.com/cmdctl/sched/util"
	"github.com/cmdctl/sched/util/errwrap"
)

// Driver owns the fixed-rate execute() loop (§4.8) around a Scheduler. It is
// a separate type from Scheduler so run_once can be driven directly (by a
// test, or an embedder with its own clock) without ever constructing a
// Driver at all.
type Driver struct {
	sched *Scheduler
	cfg   Config

	// PrestartSetup is called once, before the first tick, if set (§6).
	PrestartSetup func()

	exit *util.EasyExit // the stop signal Shutdown triggers
	done *util.EasyAck  // acked by Execute right before it returns
}

// NewDriver wraps sched with a fixed-rate loop paced by cfg.ClockSpeed. The
// stop/done coordination is the same util.EasyExit/util.EasyAck pairing mgmt
// uses to build a close switch around a long-running loop, rather than a
// hand-rolled channel-plus-sync.Once.
func NewDriver(sched *Scheduler, cfg Config) *Driver {
	return &Driver{
		sched: sched,
		cfg:   cfg,
		exit:  util.NewEasyExit(),
		done:  util.NewEasyAck(),
	}
}

// Execute runs the fixed-rate loop until Shutdown is called. Instead of
// hand-rolling a time.Sleep(period - elapsed) clamp, it reuses
// golang.org/x/time/rate the way engine/graph/actions.go builds a limiter
// from a resource's Limit/Burst meta-params: a single-token bucket refilled
// once per period, and Reserve().Delay() for the wait, which folds the
// previous tick's elapsed time into the next wait automatically.
func (obj *Driver) Execute() error {
	defer obj.done.Ack()

	period, err := obj.cfg.period()
	if err != nil {
		return errwrap.Wrapf(err, "Execute")
	}

	if obj.PrestartSetup != nil {
		obj.PrestartSetup()
	}

	limiter := rate.NewLimiter(rate.Every(period), 1)

	for {
		select {
		case <-obj.exit.Signal():
			obj.sched.Cancel()
			return nil
		default:
		}

		reservation := limiter.Reserve()
		if delay := reservation.Delay(); delay > 0 {
			select {
			case <-time.After(delay):
			case <-obj.exit.Signal():
				reservation.Cancel()
				obj.sched.Cancel()
				return nil
			}
		}

		if err := obj.sched.RunOnce(); err != nil && obj.cfg.Debug {
			obj.sched.logf("tick warnings: %s", spew.Sdump(err))
		}
	}
}

// Shutdown sets the stop flag; on the next loop boundary Execute cancels
// every tracked command and returns. Per §4.8, calling Shutdown from the
// same goroutine running Execute is a deadlock hazard the spec forbids
// rather than defends against — this Driver does not attempt to detect it.
func (obj *Driver) Shutdown() {
	obj.exit.Done(nil)
	<-obj.done.Wait()
}
