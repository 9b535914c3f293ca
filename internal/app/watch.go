package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/cristianoliveira/messenger-mirror/internal/engine"
	"github.com/cristianoliveira/messenger-mirror/internal/logging"
	"github.com/cristianoliveira/messenger-mirror/internal/session"
	"github.com/cristianoliveira/messenger-mirror/internal/storage"
	"golang.org/x/time/rate"
)

// StateTicker runs one state machine step.
type StateTicker interface {
	Tick(ctx context.Context, sess session.Session, queue storage.Queue) (engine.Result, error)
}

// FlushTicker flushes the queue when due.
type FlushTicker interface {
	Tick(ctx context.Context) (bool, error)
}

// Notifier reports service state to the supervisor.
type Notifier interface {
	Notify(state string) error
}

// SystemdNotifier sends sd_notify messages. Outside systemd it does nothing.
type SystemdNotifier struct{}

// Notify sends state to $NOTIFY_SOCKET.
func (SystemdNotifier) Notify(state string) error {
	_, err := daemon.SdNotify(false, state)
	return err
}

// WatchOptions holds the collaborators of the watch loop.
type WatchOptions struct {
	Engine    StateTicker
	Guard     *session.Guard
	Queue     storage.Queue
	Scheduler FlushTicker
	// TickDelay is the minimum time between two ticks.
	TickDelay time.Duration
	Notifier  Notifier
	Logger    logging.Logger
}

// WatchUseCase runs the watcher loop.
type WatchUseCase struct{}

// NewWatchUseCase creates a watch use-case.
func NewWatchUseCase() *WatchUseCase {
	return &WatchUseCase{}
}

// Execute ticks the state machine and the dispatch scheduler until ctx ends,
// which returns nil, or until a state fails fatally, which returns its error.
func (u *WatchUseCase) Execute(ctx context.Context, opts WatchOptions) error {
	if opts.Engine == nil || opts.Guard == nil || opts.Scheduler == nil {
		return errors.New("watch: engine, session guard and scheduler are required")
	}
	if opts.Notifier == nil {
		opts.Notifier = SystemdNotifier{}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("component", "watch")

	limiter := rate.NewLimiter(rate.Every(opts.TickDelay), 1)
	notify(opts.Notifier, log, daemon.SdNotifyReady)
	defer notify(opts.Notifier, log, daemon.SdNotifyStopping)
	log.Info("watching inbox", "tick_delay", opts.TickDelay)

	for {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				log.Info("watch stopped")
				return nil
			}
			return fmt.Errorf("watch: pacing: %w", err)
		}

		var res engine.Result
		err := opts.Guard.Do(func(sess session.Session) error {
			var err error
			res, err = opts.Engine.Tick(ctx, sess, opts.Queue)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				log.Info("watch stopped")
				return nil
			}
			log.Error("watch stopping", "state", res.State, "err", err)
			return err
		}
		log.Info("state", "state", res.State)

		// Waits run without the guard so screenshots are served meanwhile.
		if res.Wait != nil {
			if err := res.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					log.Info("watch stopped")
					return nil
				}
				if errors.Is(err, engine.ErrFatal) {
					log.Error("watch stopping", "state", res.State, "err", err)
					return err
				}
				log.Warn("state wait failed", "state", res.State, "err", err)
			}
		}

		// Failed flushes are logged by the scheduler and retried after its retry delay.
		_, _ = opts.Scheduler.Tick(ctx)

		notify(opts.Notifier, log, daemon.SdNotifyWatchdog)
	}
}

func notify(n Notifier, log logging.Logger, state string) {
	if err := n.Notify(state); err != nil {
		log.Debug("sd_notify failed", "state", state, "err", err)
	}
}
