package services

import (
	"context"

	"github.com/acctlite/acctlite/internal/core/domain"
)

// ReceiptSvcFacade drives the receipt ingestion pipeline.
type ReceiptSvcFacade interface {
	// CreateReceipt persists a new receipt in PENDING and returns it. This is
	// the synchronous part of submission; the caller gets an identifier to
	// poll regardless of how later stages fare.
	CreateReceipt(ctx context.Context, filename, userID string) (*domain.Receipt, error)

	// ProcessReceipt runs the staged pipeline on a PENDING receipt. Stage
	// failures never escape: they land in the receipt's terminal failure
	// status. The returned error is non-nil only when persisting the receipt
	// itself failed.
	ProcessReceipt(ctx context.Context, receipt *domain.Receipt, image []byte) (*domain.Receipt, error)

	// GetReceiptByID retrieves a receipt for status polling.
	GetReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, error)
}
