package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every directory at a temp dir so the developer's own config is never read.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	for _, env := range os.Environ() {
		key, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(key, EnvPrefix) {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), FileModeDir))
	require.NoError(t, os.WriteFile(path, []byte(content), FileModeFile))
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg := Load()

	assert.Equal(t, filepath.Join(dir, "config", "messenger-mirror"), cfg.Get("config_dir", ""))
	assert.Equal(t, filepath.Join(dir, "state", "messenger-mirror"), cfg.Get("state_dir", ""))
	assert.Equal(t, filepath.Join(dir, "state", "messenger-mirror", "browser"), cfg.Get("user_data_dir", ""))
	assert.Equal(t, time.Hour, cfg.GetDuration("notification_frequency", 0))
	assert.Equal(t, 8*time.Hour, cfg.GetDuration("ping_frequency", 0))
	assert.Equal(t, 5*time.Minute, cfg.GetDuration("unknown_cooldown", 0))
	assert.Equal(t, "sendgrid", cfg.Get("delivery_backend", ""))
	assert.Equal(t, "sqlite", cfg.Get("storage_backend", ""))
	assert.True(t, cfg.GetBool("debug_server_enabled", false))
	assert.Empty(t, cfg.Path())
}

func TestLoadTOMLFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config", "messenger-mirror", "config.toml"), `
facebook_email = "me@example.com"
facebook_user_id = "1000"
notification_frequency = 600
headless = true
logging_max_files = 3
`)

	cfg := Load()

	assert.Equal(t, "me@example.com", cfg.Get("facebook_email", ""))
	assert.Equal(t, "1000", cfg.Get("facebook_user_id", ""))
	assert.Equal(t, 10*time.Minute, cfg.GetDuration("notification_frequency", 0))
	assert.True(t, cfg.GetBool("headless", false))
	assert.Equal(t, 3, cfg.GetInt("logging_max_files", 0))
	assert.Equal(t, filepath.Join(dir, "config", "messenger-mirror", "config.toml"), cfg.Path())
}

func TestLoadYAMLFileFromConfigPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "elsewhere", "mirror.yaml")
	writeFile(t, path, `
delivery_backend: telegram
telegram_token: abc
telegram_chat_id: -1001
tick_delay: 2s
`)
	t.Setenv(EnvPrefix+"CONFIG_PATH", path)

	cfg := Load()

	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, "telegram", cfg.Get("delivery_backend", ""))
	assert.Equal(t, "-1001", cfg.Get("telegram_chat_id", ""))
	assert.Equal(t, 2*time.Second, cfg.GetDuration("tick_delay", 0))
	_, ok := cfg.values["config_path"]
	assert.False(t, ok)
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config", "messenger-mirror", "config.toml"), `
facebook_email = "file@example.com"
storage_backend = "postgres"
`)
	t.Setenv(EnvPrefix+"FACEBOOK_EMAIL", "env@example.com")

	cfg := Load()

	assert.Equal(t, "env@example.com", cfg.Get("facebook_email", ""))
	assert.Equal(t, "postgres", cfg.Get("storage_backend", ""))
}

func TestConfigDirFromEnvironmentMovesFile(t *testing.T) {
	dir := isolate(t)
	custom := filepath.Join(dir, "custom")
	writeFile(t, filepath.Join(custom, "config.yml"), "base_url: https://example.test/\n")
	t.Setenv(EnvPrefix+"CONFIG_DIR", custom)

	cfg := Load()

	assert.Equal(t, "https://example.test", cfg.Settings().Watcher.BaseURL)
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	isolate(t)
	t.Setenv(EnvPrefix+"DELIVERY_BACKEND", "carrier-pigeon")
	t.Setenv(EnvPrefix+"TICK_DELAY", "-5s")
	t.Setenv(EnvPrefix+"DEBUG", "maybe")
	t.Setenv(EnvPrefix+"LOGGING_MAX_FILES", "zero")
	t.Setenv(EnvPrefix+"STORAGE_BACKEND", "POSTGRES")

	cfg := Load()

	assert.Equal(t, "sendgrid", cfg.Get("delivery_backend", ""))
	assert.Equal(t, time.Second, cfg.GetDuration("tick_delay", 0))
	assert.False(t, cfg.GetBool("debug", true))
	assert.Equal(t, 10, cfg.GetInt("logging_max_files", 0))
	assert.Equal(t, "postgres", cfg.Get("storage_backend", ""))
}

func TestDurationValidator(t *testing.T) {
	v := DurationValidator()
	tests := []struct {
		in   string
		want string
	}{
		{"30s", "30s"},
		{"90", "1m30s"},
		{"1h", "1h0m0s"},
		{"0", "5s"},
		{"nope", "5s"},
		{"", "5s"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := v("tick_delay", tt.in, "5s")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegisterValidatorPanicsOnDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		RegisterValidator("tick_delay", DurationValidator())
	})
}

func TestSettingsMapping(t *testing.T) {
	dir := isolate(t)
	t.Setenv(EnvPrefix+"SENDGRID_TO_ADDRESS", "me@example.com")
	t.Setenv(EnvPrefix+"SENDGRID_TO_ADDRESS_FOR_PINGS", "pings@example.com")
	t.Setenv(EnvPrefix+"FACEBOOK_USER_PSID", "42")
	t.Setenv(EnvPrefix+"FACEBOOK_PAGE_TOKEN", "token")

	s := Load().Settings()

	stateDir := filepath.Join(dir, "state", "messenger-mirror")
	assert.Equal(t, stateDir, s.StateDir)
	assert.Equal(t, filepath.Join(stateDir, "queue.db"), s.Storage.SQLitePath)
	assert.Equal(t, filepath.Join(stateDir, "screenshots"), s.Watcher.ScreenshotDir)
	assert.Equal(t, filepath.Join(stateDir, "logs"), s.Logging.Dir)
	assert.Equal(t, "me@example.com", s.Delivery.Recipient())
	assert.Equal(t, "pings@example.com", s.Delivery.PingRecipient())
	assert.True(t, s.Facebook.KeepAliveEnabled())
	assert.Equal(t, "127.0.0.1:4209", s.Debug.Addr)
}

func TestRequireWatcherReportsEveryMissingKey(t *testing.T) {
	isolate(t)
	t.Setenv(EnvPrefix+"FACEBOOK_EMAIL", "me@example.com")

	err := Load().Settings().RequireWatcher()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSetting))
	assert.Contains(t, err.Error(), "facebook_password")
	assert.Contains(t, err.Error(), "facebook_user_id")
	assert.NotContains(t, err.Error(), "facebook_email")
}

func TestRequireDelivery(t *testing.T) {
	tests := []struct {
		name    string
		d       DeliverySettings
		wantErr string
	}{
		{name: "log needs nothing", d: DeliverySettings{Backend: "log"}},
		{
			name:    "sendgrid missing api key",
			d:       DeliverySettings{Backend: "sendgrid", SendGridFromAddress: "a@b", SendGridToAddress: "c@d"},
			wantErr: "sendgrid_api_key",
		},
		{
			name:    "telegram missing chat",
			d:       DeliverySettings{Backend: "telegram", TelegramToken: "t"},
			wantErr: "telegram_chat_id",
		},
		{name: "telegram complete", d: DeliverySettings{Backend: "telegram", TelegramToken: "t", TelegramChatID: 7}},
		{name: "unknown backend", d: DeliverySettings{Backend: "fax"}, wantErr: "fax"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Settings{Delivery: tt.d}.RequireDelivery()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrMissingSetting)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireStorage(t *testing.T) {
	require.NoError(t, Settings{StateDir: "/tmp/x", Storage: StorageSettings{Backend: "sqlite"}}.RequireStorage())
	require.ErrorIs(t, Settings{Storage: StorageSettings{Backend: "postgres"}}.RequireStorage(), ErrMissingSetting)
}
