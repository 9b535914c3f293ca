package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrMissingSetting is returned when a required configuration key is empty.
var ErrMissingSetting = errors.New("missing required setting")

// Settings is the typed configuration value passed to every component.
type Settings struct {
	Facebook  FacebookSettings
	Watcher   WatcherSettings
	Delivery  DeliverySettings
	Storage   StorageSettings
	Debug     DebugServerSettings
	Logging   LoggingSettings
	ConfigDir string
	StateDir  string
}

// FacebookSettings holds the account credentials and Graph API identifiers.
type FacebookSettings struct {
	Email     string
	Password  string
	UserID    string
	UserPSID  string
	PageToken string
}

// KeepAliveEnabled reports whether the Graph API keep-alive ping can run.
func (f FacebookSettings) KeepAliveEnabled() bool {
	return f.UserPSID != "" && f.PageToken != ""
}

// WatcherSettings controls the browser and the main loop.
type WatcherSettings struct {
	BaseURL               string
	Debug                 bool
	Headless              bool
	UserDataDir           string
	TickDelay             time.Duration
	IdleDelay             time.Duration
	UnknownCooldown       time.Duration
	AvatarTimeout         time.Duration
	NotificationFrequency time.Duration
	PingFrequency         time.Duration
	ScreenshotDir         string
}

// DeliverySettings selects and configures the delivery gateway.
type DeliverySettings struct {
	Backend        string
	PingSenderName string

	SendGridAPIKey           string
	SendGridFromAddress      string
	SendGridFromName         string
	SendGridToAddress        string
	SendGridToAddressForPing string

	TelegramToken  string
	TelegramChatID int64
}

// Recipient returns the default recipient for the configured backend.
func (d DeliverySettings) Recipient() string {
	switch d.Backend {
	case "telegram":
		return strconv.FormatInt(d.TelegramChatID, 10)
	default:
		return d.SendGridToAddress
	}
}

// PingRecipient returns the recipient for ping conversations, or "" to use the default.
func (d DeliverySettings) PingRecipient() string {
	if d.Backend == "sendgrid" {
		return d.SendGridToAddressForPing
	}
	return ""
}

// StorageSettings selects the queue backend.
type StorageSettings struct {
	Backend     string
	SQLitePath  string
	PostgresDSN string
}

// DebugServerSettings configures the screenshot endpoint.
type DebugServerSettings struct {
	Enabled bool
	Addr    string
}

// LoggingSettings configures the structured logger.
type LoggingSettings struct {
	Level       string
	Format      string
	FileEnabled bool
	MaxFiles    int
	Dir         string
}

// Settings builds the typed settings value. Required keys are not checked here;
// callers pick the Require* checks that match what they are about to run.
func (c *Config) Settings() Settings {
	stateDir := c.Get("state_dir", "")
	chatID, _ := strconv.ParseInt(c.Get("telegram_chat_id", "0"), 10, 64)

	return Settings{
		ConfigDir: c.Get("config_dir", ""),
		StateDir:  stateDir,
		Facebook: FacebookSettings{
			Email:     c.Get("facebook_email", ""),
			Password:  c.Get("facebook_password", ""),
			UserID:    c.Get("facebook_user_id", ""),
			UserPSID:  c.Get("facebook_user_psid", ""),
			PageToken: c.Get("facebook_page_token", ""),
		},
		Watcher: WatcherSettings{
			BaseURL:               strings.TrimRight(c.Get("base_url", "https://www.messenger.com"), "/"),
			Debug:                 c.GetBool("debug", false),
			Headless:              c.GetBool("headless", false),
			UserDataDir:           c.Get("user_data_dir", ""),
			TickDelay:             c.GetDuration("tick_delay", time.Second),
			IdleDelay:             c.GetDuration("idle_delay", time.Minute),
			UnknownCooldown:       c.GetDuration("unknown_cooldown", 5*time.Minute),
			AvatarTimeout:         c.GetDuration("avatar_timeout", 10*time.Second),
			NotificationFrequency: c.GetDuration("notification_frequency", time.Hour),
			PingFrequency:         c.GetDuration("ping_frequency", 8*time.Hour),
			ScreenshotDir:         filepath.Join(stateDir, "screenshots"),
		},
		Delivery: DeliverySettings{
			Backend:                  c.Get("delivery_backend", "sendgrid"),
			PingSenderName:           c.Get("ping_sender_name", ""),
			SendGridAPIKey:           c.Get("sendgrid_api_key", ""),
			SendGridFromAddress:      c.Get("sendgrid_from_address", ""),
			SendGridFromName:         c.Get("sendgrid_from_name", ""),
			SendGridToAddress:        c.Get("sendgrid_to_address", ""),
			SendGridToAddressForPing: c.Get("sendgrid_to_address_for_pings", ""),
			TelegramToken:            c.Get("telegram_token", ""),
			TelegramChatID:           chatID,
		},
		Storage: StorageSettings{
			Backend:     c.Get("storage_backend", "sqlite"),
			SQLitePath:  filepath.Join(stateDir, "queue.db"),
			PostgresDSN: c.Get("postgres_dsn", ""),
		},
		Debug: DebugServerSettings{
			Enabled: c.GetBool("debug_server_enabled", true),
			Addr:    c.Get("debug_server_addr", "127.0.0.1:4209"),
		},
		Logging: LoggingSettings{
			Level:       c.Get("logging_level", "info"),
			Format:      c.Get("logging_format", "text"),
			FileEnabled: c.GetBool("logging_file_enabled", false),
			MaxFiles:    c.GetInt("logging_max_files", 10),
			Dir:         filepath.Join(stateDir, "logs"),
		},
	}
}

// RequireWatcher checks the keys the browser loop cannot start without.
func (s Settings) RequireWatcher() error {
	return missing(map[string]string{
		"facebook_email":    s.Facebook.Email,
		"facebook_password": s.Facebook.Password,
		"facebook_user_id":  s.Facebook.UserID,
		"user_data_dir":     s.Watcher.UserDataDir,
	})
}

// RequireDelivery checks the keys of the selected delivery backend.
func (s Settings) RequireDelivery() error {
	d := s.Delivery
	switch d.Backend {
	case "sendgrid":
		return missing(map[string]string{
			"sendgrid_api_key":      d.SendGridAPIKey,
			"sendgrid_from_address": d.SendGridFromAddress,
			"sendgrid_to_address":   d.SendGridToAddress,
		})
	case "telegram":
		chatID := ""
		if d.TelegramChatID != 0 {
			chatID = strconv.FormatInt(d.TelegramChatID, 10)
		}
		return missing(map[string]string{
			"telegram_token":   d.TelegramToken,
			"telegram_chat_id": chatID,
		})
	case "log":
		return nil
	default:
		return fmt.Errorf("%w: delivery_backend %q is not supported", ErrMissingSetting, d.Backend)
	}
}

// RequireStorage checks the keys of the selected storage backend.
func (s Settings) RequireStorage() error {
	switch s.Storage.Backend {
	case "sqlite":
		return missing(map[string]string{"state_dir": s.StateDir})
	case "postgres":
		return missing(map[string]string{"postgres_dsn": s.Storage.PostgresDSN})
	default:
		return fmt.Errorf("%w: storage_backend %q is not supported", ErrMissingSetting, s.Storage.Backend)
	}
}

// missing joins one ErrMissingSetting per empty key, in key order.
func missing(values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k, v := range values {
		if strings.TrimSpace(v) == "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)
	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, fmt.Errorf("%w: %s (set %s%s)", ErrMissingSetting, k, EnvPrefix, strings.ToUpper(k)))
	}
	return errors.Join(errs...)
}
