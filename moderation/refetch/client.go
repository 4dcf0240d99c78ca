package refetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Where fetched payloads end up. Implementations decide on storage (disk,
// object store, sample database); the client only downloads.
type BlobStore interface {
	Put(ctx context.Context, req Request, data []byte) error
}

// Client downloads message content and profile images over the platform's
// file API and hands the bytes to a BlobStore. Intended to be wired into a
// Fetcher's handler fields.
type Client struct {
	Logger  *slog.Logger
	BaseURL string
	Store   BlobStore

	httpClient *http.Client
}

func NewClient(logger *slog.Logger, baseURL string, store BlobStore) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.Logger = nil
	return &Client{
		Logger:     logger.With("component", "refetch-client"),
		BaseURL:    baseURL,
		Store:      store,
		httpClient: rc.StandardClient(),
	}
}

func (c *Client) FetchContent(ctx context.Context, req Request) error {
	return c.fetch(ctx, req, fmt.Sprintf("%s/content/%d/%s", c.BaseURL, req.TargetID, req.SubKind))
}

func (c *Client) FetchProfileImage(ctx context.Context, req Request) error {
	return c.fetch(ctx, req, fmt.Sprintf("%s/profile-image/%d/%s", c.BaseURL, req.TargetID, req.SubKind))
}

func (c *Client) fetch(ctx context.Context, req Request, url string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", req.DedupKey(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %d", req.DedupKey(), resp.StatusCode)
	}
	// cap reads; payloads beyond this are truncated rather than ballooning memory
	data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return fmt.Errorf("reading %s: %w", req.DedupKey(), err)
	}
	c.Logger.Debug("fetched payload", "key", req.DedupKey(), "bytes", len(data))
	if c.Store != nil {
		return c.Store.Put(ctx, req, data)
	}
	return nil
}
