package parser_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acctlite/acctlite/internal/adapters/parser"
	"github.com/acctlite/acctlite/internal/apperrors"
)

// chatServer fakes Ollama's chat endpoint, replying with a fixed message body.
func chatServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, false, req["stream"])

		resp := map[string]any{
			"message": map[string]string{"role": "assistant", "content": reply},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestClient(baseURL string) *parser.Client {
	return parser.NewClient(parser.ClientConfig{
		BaseURL: baseURL,
		Model:   "llama3.2",
		Timeout: 2 * time.Second,
	})
}

func TestParse_CleanJSON(t *testing.T) {
	srv := chatServer(t, `{"merchant_name": "Blue Bottle Coffee", "transaction_date": "2025-01-14", "total_amount": 4.50, "category": "Meals", "line_items": [{"name": "Latte", "quantity": 1, "price": 4.50}]}`)
	defer srv.Close()

	parsed, err := newTestClient(srv.URL).Parse(context.Background(), "BLUE BOTTLE COFFEE\nTOTAL $4.50")
	require.NoError(t, err)

	require.NotNil(t, parsed.MerchantName)
	assert.Equal(t, "Blue Bottle Coffee", *parsed.MerchantName)
	require.NotNil(t, parsed.TransactionDate)
	assert.Equal(t, "2025-01-14", *parsed.TransactionDate)
	require.NotNil(t, parsed.TotalAmount)
	assert.True(t, parsed.TotalAmount.Equal(decimal.NewFromFloat(4.50)))
	require.Len(t, parsed.LineItems, 1)
	assert.Equal(t, "Latte", parsed.LineItems[0].Name)
}

func TestParse_JSONWrappedInProse(t *testing.T) {
	srv := chatServer(t, "Sure! Here is the extracted data:\n```json\n{\"merchant_name\": \"Walmart\", \"total_amount\": 52.10}\n```\nLet me know if you need anything else.")
	defer srv.Close()

	parsed, err := newTestClient(srv.URL).Parse(context.Background(), "WALMART ...")
	require.NoError(t, err)

	require.NotNil(t, parsed.MerchantName)
	assert.Equal(t, "Walmart", *parsed.MerchantName)
	require.NotNil(t, parsed.TotalAmount)
	assert.True(t, parsed.TotalAmount.Equal(decimal.NewFromFloat(52.10)))
}

func TestParse_GarbageOutputDegradesToUnknown(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no json at all", "I could not read this receipt, sorry."},
		{"malformed json", `{"merchant_name": "Oops`},
		{"braces but not an object", "weird {not json} tail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.reply)
			defer srv.Close()

			parsed, err := newTestClient(srv.URL).Parse(context.Background(), "???")
			require.NoError(t, err)

			require.NotNil(t, parsed.MerchantName)
			assert.Equal(t, "Unknown", *parsed.MerchantName)
			assert.Nil(t, parsed.TotalAmount)
			assert.Empty(t, parsed.LineItems)
		})
	}
}

func TestParse_NullAndEmptyFields(t *testing.T) {
	srv := chatServer(t, `{"merchant_name": "", "transaction_date": null, "total_amount": null, "line_items": []}`)
	defer srv.Close()

	parsed, err := newTestClient(srv.URL).Parse(context.Background(), "faded receipt")
	require.NoError(t, err)

	require.NotNil(t, parsed.MerchantName)
	assert.Equal(t, "Unknown", *parsed.MerchantName)
	assert.Nil(t, parsed.TransactionDate)
	assert.Nil(t, parsed.TotalAmount)
}

func TestParse_NegativeTotalDropped(t *testing.T) {
	srv := chatServer(t, `{"merchant_name": "Refund Hut", "total_amount": -12.00}`)
	defer srv.Close()

	parsed, err := newTestClient(srv.URL).Parse(context.Background(), "refund slip")
	require.NoError(t, err)
	assert.Nil(t, parsed.TotalAmount)
}

func TestParse_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Parse(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrParsing)
}
