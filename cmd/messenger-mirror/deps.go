package main

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/messenger-mirror/internal/colors"
	"github.com/cristianoliveira/messenger-mirror/internal/config"
	"github.com/cristianoliveira/messenger-mirror/internal/delivery"
	"github.com/cristianoliveira/messenger-mirror/internal/dispatch"
	"github.com/cristianoliveira/messenger-mirror/internal/logging"
	"github.com/cristianoliveira/messenger-mirror/internal/storage"
)

// loadSettings is replaced in tests.
var loadSettings = func() config.Settings {
	return config.Load().Settings()
}

// bootstrap resolves settings and builds the logger for command.
func bootstrap(command string) (config.Settings, logging.Logger, error) {
	s := loadSettings()
	cfg := logging.FromSettings(s.Logging, s.Watcher.Debug)
	cfg.Command = command
	log, err := logging.New(cfg)
	if err != nil {
		return s, nil, fmt.Errorf("logging: %w", err)
	}
	colors.SetDebug(s.Watcher.Debug)
	colors.SetLogger(log)
	return s, log, nil
}

func openQueue(ctx context.Context, s config.Settings) (storage.Queue, error) {
	if err := s.RequireStorage(); err != nil {
		return nil, err
	}
	q, err := storage.Open(ctx, s.Storage)
	if err != nil {
		return nil, fmt.Errorf("open queue: %w", err)
	}
	return q, nil
}

func newScheduler(queue storage.Queue, s config.Settings, log logging.Logger) (*dispatch.Scheduler, error) {
	if err := s.RequireDelivery(); err != nil {
		return nil, err
	}
	gw, err := delivery.New(s.Delivery, log)
	if err != nil {
		return nil, err
	}
	return dispatch.New(queue, gw, dispatch.Options{
		Interval:       s.Watcher.NotificationFrequency,
		Recipient:      s.Delivery.Recipient(),
		PingRecipient:  s.Delivery.PingRecipient(),
		PingSenderName: s.Delivery.PingSenderName,
		Logger:         log,
	}), nil
}
