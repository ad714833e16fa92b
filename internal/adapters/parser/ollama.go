// Package parser turns raw receipt text into structured fields using a local
// Ollama model.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/acctlite/acctlite/internal/apperrors"
	"github.com/acctlite/acctlite/internal/core/domain"
	portssvc "github.com/acctlite/acctlite/internal/core/ports/services"
)

// fallbackMerchant is used whenever the model fails to name the merchant.
const fallbackMerchant = "Unknown"

const systemPrompt = `You are a receipt parsing assistant. Extract structured data from receipt text.
Respond with ONLY a JSON object, no prose, using exactly these keys:
{"merchant_name": string or null, "transaction_date": "YYYY-MM-DD" or null, "total_amount": number or null, "category": string or null, "line_items": [{"name": string, "quantity": number, "price": number}]}
Use null for any value you cannot determine. Do not invent values.`

// ClientConfig represents the configuration for the Ollama client.
type ClientConfig struct {
	BaseURL string // e.g. http://localhost:11434
	Model   string
	Timeout time.Duration // Default: 30 seconds
}

// Client calls Ollama's chat API to parse receipt text.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// NewClient creates a new Ollama parsing client.
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
		model:   config.Model,
	}
}

// Ensure Client implements portssvc.ReceiptParser
var _ portssvc.ReceiptParser = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// rawParsed mirrors the JSON shape the model is prompted to produce.
type rawParsed struct {
	MerchantName    *string          `json:"merchant_name"`
	TransactionDate *string          `json:"transaction_date"`
	TotalAmount     *decimal.Decimal `json:"total_amount"`
	Category        *string          `json:"category"`
	LineItems       []rawLineItem    `json:"line_items"`
}

type rawLineItem struct {
	Name     string           `json:"name"`
	Quantity *decimal.Decimal `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
}

// Parse asks the model to extract structured fields from text. Model output
// that cannot be interpreted degrades to a placeholder result rather than an
// error; only transport failures are reported as errors.
func (c *Client) Parse(ctx context.Context, text string) (*domain.ParsedReceipt, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Receipt text:\n" + text},
		},
		Stream:  false,
		Options: chatOptions{Temperature: 0.1},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: chat request timed out: %v", apperrors.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: chat request failed: %v", apperrors.ErrParsing, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: chat returned status %d: %s", apperrors.ErrParsing, resp.StatusCode, string(respBody))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("%w: failed to decode chat response: %v", apperrors.ErrParsing, err)
	}

	return normalize(chat.Message.Content), nil
}

// normalize interprets the model's reply. Models often wrap the JSON in prose
// or code fences, so the first '{' through the last '}' is taken as the
// candidate object. Anything unusable yields a placeholder with the merchant
// set to Unknown and every other field empty.
func normalize(content string) *domain.ParsedReceipt {
	placeholder := func() *domain.ParsedReceipt {
		merchant := fallbackMerchant
		return &domain.ParsedReceipt{MerchantName: &merchant}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return placeholder()
	}

	var raw rawParsed
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return placeholder()
	}

	parsed := &domain.ParsedReceipt{
		MerchantName:    raw.MerchantName,
		TransactionDate: raw.TransactionDate,
		TotalAmount:     raw.TotalAmount,
		Category:        raw.Category,
	}
	if parsed.MerchantName == nil || strings.TrimSpace(*parsed.MerchantName) == "" {
		merchant := fallbackMerchant
		parsed.MerchantName = &merchant
	}
	if parsed.TotalAmount != nil && parsed.TotalAmount.IsNegative() {
		parsed.TotalAmount = nil
	}
	for _, item := range raw.LineItems {
		if item.Name == "" {
			continue
		}
		li := domain.LineItem{Name: item.Name}
		if item.Quantity != nil {
			li.Quantity = *item.Quantity
		} else {
			li.Quantity = decimal.NewFromInt(1)
		}
		if item.Price != nil {
			li.Price = *item.Price
		}
		parsed.LineItems = append(parsed.LineItems, li)
	}
	return parsed
}
