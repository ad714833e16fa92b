package repositories

import (
	"context"

	"github.com/acctlite/acctlite/internal/core/domain"
)

// ReceiptReader defines read operations for receipt data
type ReceiptReader interface {
	// FindReceiptByID retrieves a receipt by its unique identifier.
	FindReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, error)
}

// ReceiptWriter defines write operations for receipt data
type ReceiptWriter interface {
	// SaveReceipt persists a receipt with upsert semantics keyed by ReceiptID.
	// The pipeline calls this once per stage transition.
	SaveReceipt(ctx context.Context, receipt domain.Receipt) error
}

// ReceiptRepository combines all receipt repository interfaces
type ReceiptRepository interface {
	ReceiptReader
	ReceiptWriter
}
