package mirror

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxAvatarBytes bounds the size of a fetched avatar.
const maxAvatarBytes = 5 << 20

// AvatarFetcher downloads a thread picture.
type AvatarFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPAvatarFetcher fetches avatars with a plain HTTP GET.
type HTTPAvatarFetcher struct {
	client *http.Client
}

// NewAvatarFetcher returns a fetcher whose requests give up after timeout.
func NewAvatarFetcher(timeout time.Duration) *HTTPAvatarFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPAvatarFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch returns the response body of a successful GET.
func (f *HTTPAvatarFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build avatar request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get avatar: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes))
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	return data, nil
}
