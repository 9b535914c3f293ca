package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cristianoliveira/messenger-mirror/internal/mirror"
)

// ScreenshotUseCase asks a running watcher for a screenshot through its debug server.
type ScreenshotUseCase struct {
	client *http.Client
}

// NewScreenshotUseCase creates a new screenshot use-case.
func NewScreenshotUseCase() *ScreenshotUseCase {
	return &ScreenshotUseCase{client: &http.Client{Timeout: 30 * time.Second}}
}

// Execute posts to http://<addr>/screenshot/<name> and writes the reply to w.
func (u *ScreenshotUseCase) Execute(ctx context.Context, addr, name string, w io.Writer) error {
	if !mirror.ValidScreenshotName(name) {
		return fmt.Errorf("screenshot: %w: %q", mirror.ErrInvalidScreenshotName, name)
	}
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	endpoint := strings.TrimRight(base, "/") + "/screenshot/" + url.PathEscape(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("screenshot: is the watcher running? %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("screenshot: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	_, _ = fmt.Fprintln(w, strings.TrimSpace(string(body)))
	return nil
}
