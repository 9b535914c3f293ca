// Package keepalive periodically messages the watched account from a
// Facebook page so the conversation list keeps a recent thread.
package keepalive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cristianoliveira/messenger-mirror/internal/logging"
	"github.com/robfig/cron/v3"
)

// DefaultEndpoint is the Graph API send endpoint.
const DefaultEndpoint = "https://graph.facebook.com/v2.6/me/messages"

// Options configures a Pinger.
type Options struct {
	Endpoint  string
	PSID      string
	PageToken string
	Text      string
	Timeout   time.Duration
	Logger    logging.Logger
}

// Pinger sends the keep-alive message.
type Pinger struct {
	opts   Options
	client *http.Client
	log    logging.Logger
}

// New returns a Pinger.
func New(opts Options) *Pinger {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Text == "" {
		opts.Text = "Hello from Messenger Mirror"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Pinger{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		log:    log.With("component", "keepalive"),
	}
}

// Ping sends one message to the configured PSID.
func (p *Pinger) Ping(ctx context.Context) error {
	recipient, err := json.Marshal(map[string]string{"id": p.opts.PSID})
	if err != nil {
		return fmt.Errorf("encode recipient: %w", err)
	}
	message, err := json.Marshal(map[string]string{"text": p.opts.Text})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	q := url.Values{}
	q.Set("access_token", p.opts.PageToken)
	q.Set("recipient", string(recipient))
	q.Set("message", string(message))
	q.Set("messaging_type", "MESSAGE_TAG")
	q.Set("tag", "CONFIRMED_EVENT_UPDATE")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send ping: status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

// Start pings every interval until ctx ends or stop is called. Failures are
// logged and the schedule continues.
func (p *Pinger) Start(ctx context.Context, every time.Duration) (stop func()) {
	c := cron.New()
	c.Schedule(cron.Every(every), cron.FuncJob(func() {
		p.log.Info("sending keep-alive ping", "psid", p.opts.PSID)
		if err := p.Ping(ctx); err != nil {
			p.log.Warn("keep-alive ping failed", "err", err)
		}
	}))
	c.Start()
	p.log.Info("keep-alive pings enabled", "psid", p.opts.PSID, "every", every)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		<-c.Stop().Done()
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
