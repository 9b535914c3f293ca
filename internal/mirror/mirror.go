// Package mirror holds the page states of the Messenger inbox watcher.
//
// States returns them in the order the engine must try them: Initial,
// LoginForm, ViewingOtherConversation, UnreadMessage, Idle, Unknown.
package mirror

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/cristianoliveira/messenger-mirror/internal/config"
	"github.com/cristianoliveira/messenger-mirror/internal/engine"
	"github.com/cristianoliveira/messenger-mirror/internal/logging"
)

// Options configures the watcher states.
type Options struct {
	BaseURL      string
	TargetUserID string
	Email        string
	Password     string

	// Debug makes Unknown wait for the operator instead of recovering.
	Debug           bool
	IdleDelay       time.Duration
	UnknownCooldown time.Duration
	ScreenshotDir   string

	Avatars AvatarFetcher
	Clock   func() time.Time
	// Stdin is read by Unknown in debug mode.
	Stdin  io.Reader
	Logger logging.Logger
}

// OptionsFromSettings maps loaded settings onto Options.
func OptionsFromSettings(s config.Settings, l logging.Logger) Options {
	return Options{
		BaseURL:         s.Watcher.BaseURL,
		TargetUserID:    s.Facebook.UserID,
		Email:           s.Facebook.Email,
		Password:        s.Facebook.Password,
		Debug:           s.Watcher.Debug,
		IdleDelay:       s.Watcher.IdleDelay,
		UnknownCooldown: s.Watcher.UnknownCooldown,
		ScreenshotDir:   s.Watcher.ScreenshotDir,
		Avatars:         NewAvatarFetcher(s.Watcher.AvatarTimeout),
		Logger:          l,
	}
}

func (o Options) withDefaults() Options {
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.BaseURL == "" {
		o.BaseURL = "https://www.messenger.com"
	}
	if o.UnknownCooldown <= 0 {
		o.UnknownCooldown = 5 * time.Minute
	}
	if o.Avatars == nil {
		o.Avatars = NewAvatarFetcher(10 * time.Second)
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	o.Logger = o.Logger.With("component", "mirror")
	return o
}

// States returns the watcher states in priority order. Unknown is last and
// always matches, so an engine built from them never reports ErrNoState.
func States(opts Options) []engine.State {
	o := opts.withDefaults()
	return []engine.State{
		&Initial{opts: o},
		&LoginForm{opts: o},
		&ViewingOtherConversation{opts: o},
		&UnreadMessage{opts: o},
		&Idle{opts: o},
		NewUnknown(o),
	}
}
