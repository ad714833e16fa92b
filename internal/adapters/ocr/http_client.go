// Package ocr extracts text from receipt images via an external OCR HTTP
// service.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/acctlite/acctlite/internal/apperrors"
	portssvc "github.com/acctlite/acctlite/internal/core/ports/services"
)

// ClientConfig represents the configuration for the OCR service client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration // Default: 30 seconds
}

// Client calls an OCR service that accepts a multipart image upload and
// responds with the recognized text.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new OCR service client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(config.BaseURL, "/"),
	}
}

// Ensure Client implements portssvc.TextExtractor
var _ portssvc.TextExtractor = (*Client)(nil)

type extractResponse struct {
	Text string `json:"text"`
}

// Extract sends the image for recognition and returns the extracted text.
// An empty result is valid; a blank receipt is not an extraction failure.
func (c *Client) Extract(ctx context.Context, image []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "receipt.jpg")
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: ocr request failed: %v", apperrors.ErrExtraction, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: ocr service returned status %d: %s", apperrors.ErrExtraction, resp.StatusCode, string(respBody))
	}

	var extracted extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&extracted); err != nil {
		return "", fmt.Errorf("%w: failed to decode ocr response: %v", apperrors.ErrExtraction, err)
	}

	return extracted.Text, nil
}
