// Package storage uploads receipt images to Supabase Storage over its REST
// API.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/acctlite/acctlite/internal/apperrors"
	portssvc "github.com/acctlite/acctlite/internal/core/ports/services"
)

// ClientConfig represents the configuration for the Supabase Storage client.
type ClientConfig struct {
	BaseURL    string // e.g. https://<project>.supabase.co
	ServiceKey string
	Bucket     string
	Timeout    time.Duration // Default: 30 seconds
}

// Client uploads objects to a single Supabase Storage bucket.
type Client struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
	bucket     string
}

// NewClient creates a new Supabase Storage client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		serviceKey: config.ServiceKey,
		bucket:     config.Bucket,
	}
}

// Ensure Client implements portssvc.BlobStorage
var _ portssvc.BlobStorage = (*Client)(nil)

// Store uploads data under path and returns the object's public URL.
// The upsert header makes re-running a failed pipeline idempotent.
func (c *Client) Store(ctx context.Context, data []byte, path string) (string, error) {
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceKey))
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("x-upsert", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: upload to %s failed: %v", apperrors.ErrStorage, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: upload to %s returned status %d: %s", apperrors.ErrStorage, path, resp.StatusCode, string(body))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, path), nil
}
