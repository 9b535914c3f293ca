// Package engine runs an ordered list of page states, one action per tick.
//
// States are tried in priority order every tick. The first state whose
// detector matches runs its action; nothing else runs that tick. Detector
// failures count as a miss. Action failures are logged and absorbed unless
// they wrap ErrFatal.
//
// Actions run while the caller holds the session. States that need to block
// (sleeping, waiting for an operator) implement Waiter; Tick hands the wait
// back in Result so the caller runs it after releasing the session.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianoliveira/messenger-mirror/internal/logging"
	"github.com/cristianoliveira/messenger-mirror/internal/session"
	"github.com/cristianoliveira/messenger-mirror/internal/storage"
)

var (
	// ErrFatal marks action errors that must stop the watcher.
	ErrFatal = errors.New("fatal state")
	// ErrNoState is returned when no state matched. A state list ending
	// in an always-matching fallback never returns it.
	ErrNoState = errors.New("no state matched")
)

// Action performs a matched state's effect. It closes over whatever element
// handles the detector captured, which are only valid for the current tick.
type Action func(ctx context.Context, sess session.Session, queue storage.Queue) error

// State is one page condition the watcher knows how to handle.
type State interface {
	Name() string
	// Detect uses read-only queries. It returns a non-nil Action on a match,
	// (nil, nil) on a miss, and an error when a probe failed.
	Detect(ctx context.Context, sess session.Session) (Action, error)
}

// Waiter is implemented by states whose action is followed by a blocking
// wait that must not hold the session.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Result describes one tick.
type Result struct {
	// State is the name of the state that ran.
	State string
	// Err is the action error, if any. Non-fatal errors are reported here only.
	Err error
	// Wait, when set, must be run by the caller once the session is released.
	Wait func(ctx context.Context) error
}

// Engine evaluates states in a fixed order.
type Engine struct {
	states []State
	log    logging.Logger
}

// New returns an Engine trying states in the given order.
func New(states ...State) *Engine {
	return &Engine{states: states, log: logging.Nop()}
}

// WithLogger sets the logger and returns the engine.
func (e *Engine) WithLogger(l logging.Logger) *Engine {
	if l != nil {
		e.log = l.With("component", "engine")
	}
	return e
}

// States returns the state names in priority order.
func (e *Engine) States() []string {
	names := make([]string, 0, len(e.states))
	for _, s := range e.states {
		names = append(names, s.Name())
	}
	return names
}

// Tick selects the first matching state and runs its action.
func (e *Engine) Tick(ctx context.Context, sess session.Session, queue storage.Queue) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	for _, st := range e.states {
		action, err := st.Detect(ctx, sess)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				e.log.Debug("state probe found nothing", "state", st.Name(), "err", err)
			} else {
				e.log.Warn("state probe failed", "state", st.Name(), "err", err)
			}
			continue
		}
		if action == nil {
			continue
		}

		res := Result{State: st.Name()}
		e.log.Debug("state selected", "state", st.Name())
		if err := action(ctx, sess, queue); err != nil {
			res.Err = err
			if errors.Is(err, ErrFatal) {
				return res, fmt.Errorf("state %s: %w", st.Name(), err)
			}
			e.log.Warn("state action failed", "state", st.Name(), "err", err)
		}
		if w, ok := st.(Waiter); ok {
			res.Wait = w.Wait
		}
		return res, nil
	}
	return Result{}, ErrNoState
}
