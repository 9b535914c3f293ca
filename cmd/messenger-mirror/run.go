package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cristianoliveira/messenger-mirror/cmd"
	"github.com/cristianoliveira/messenger-mirror/internal/app"
	"github.com/cristianoliveira/messenger-mirror/internal/debugserver"
	"github.com/cristianoliveira/messenger-mirror/internal/engine"
	"github.com/cristianoliveira/messenger-mirror/internal/keepalive"
	"github.com/cristianoliveira/messenger-mirror/internal/mirror"
	"github.com/cristianoliveira/messenger-mirror/internal/session"
	"github.com/cristianoliveira/messenger-mirror/internal/session/playwright"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	var install bool

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the inbox and send notifications",
		Long: `Open the browser profile, log in when needed, and watch the inbox.
Unread conversations are queued and delivered in batches.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			s, log, err := bootstrap("run")
			if err != nil {
				return err
			}
			defer log.Shutdown()

			if err := errors.Join(s.RequireWatcher(), s.RequireStorage(), s.RequireDelivery()); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			queue, err := openQueue(ctx, s)
			if err != nil {
				return err
			}
			defer queue.Close()

			scheduler, err := newScheduler(queue, s, log)
			if err != nil {
				return err
			}

			browser, err := playwright.Launch(playwright.Options{
				UserDataDir: s.Watcher.UserDataDir,
				Headless:    s.Watcher.Headless || !s.Watcher.Debug,
				Install:     install,
			})
			if err != nil {
				return fmt.Errorf("launch browser: %w", err)
			}
			defer browser.Close()
			guard := session.NewGuard(browser)

			if s.Debug.Enabled {
				if _, err := debugserver.New(guard, s.Watcher.ScreenshotDir, log).Start(ctx, s.Debug.Addr); err != nil {
					log.Warn("debug server disabled", "err", err)
				}
			}
			if s.Facebook.KeepAliveEnabled() {
				pinger := keepalive.New(keepalive.Options{
					PSID:      s.Facebook.UserPSID,
					PageToken: s.Facebook.PageToken,
					Text:      "Hello from " + s.Delivery.PingSenderName,
					Logger:    log,
				})
				stopPings := pinger.Start(ctx, s.Watcher.PingFrequency)
				defer stopPings()
			}

			eng := engine.New(mirror.States(mirror.OptionsFromSettings(s, log))...).WithLogger(log)
			return app.NewWatchUseCase().Execute(ctx, app.WatchOptions{
				Engine:    eng,
				Guard:     guard,
				Queue:     queue,
				Scheduler: scheduler,
				TickDelay: s.Watcher.TickDelay,
				Logger:    log,
			})
		},
	}
	runCmd.Flags().BoolVar(&install, "install", false, "download the browser driver before starting")

	return runCmd
}

func init() {
	cmd.RootCmd.AddCommand(NewRunCmd())
}
