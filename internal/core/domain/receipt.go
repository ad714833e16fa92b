package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcessingStatus tracks a receipt's position in the ingestion pipeline.
// Each fallible stage has a dedicated failure status.
type ProcessingStatus string

const (
	ReceiptPending          ProcessingStatus = "PENDING"
	ReceiptOCRProcessing    ProcessingStatus = "OCR_PROCESSING"
	ReceiptOCRCompleted     ProcessingStatus = "OCR_COMPLETED"
	ReceiptOCRFailed        ProcessingStatus = "OCR_FAILED"
	ReceiptAIParsing        ProcessingStatus = "AI_PARSING"
	ReceiptParsingCompleted ProcessingStatus = "PARSING_COMPLETED"
	ReceiptParsingFailed    ProcessingStatus = "PARSING_FAILED"
	ReceiptJournalFailed    ProcessingStatus = "JOURNAL_FAILED"
	ReceiptCompleted        ProcessingStatus = "COMPLETED"
	ReceiptPendingReview    ProcessingStatus = "PENDING_REVIEW"
)

// IsTerminal reports whether the pipeline has finished with this status,
// successfully or not.
func (s ProcessingStatus) IsTerminal() bool {
	switch s {
	case ReceiptOCRFailed, ReceiptParsingFailed, ReceiptJournalFailed, ReceiptCompleted, ReceiptPendingReview:
		return true
	}
	return false
}

// LineItem is a single purchased item extracted from a receipt.
type LineItem struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// ParsedReceipt holds the structured fields derived from receipt text by the
// parsing collaborator. All fields are best-effort; absent values stay nil.
type ParsedReceipt struct {
	MerchantName    *string          `json:"merchantName"`
	TransactionDate *string          `json:"transactionDate"` // YYYY-MM-DD
	TotalAmount     *decimal.Decimal `json:"totalAmount"`
	LineItems       []LineItem       `json:"lineItems"`
	Category        *string          `json:"category"`
}

// Receipt captures an ingested receipt image and its pipeline progress. A
// receipt is created once at pipeline start and mutated exclusively by the
// pipeline, once per stage transition.
type Receipt struct {
	ReceiptID      string           `json:"receiptID"` // Primary key (UUID)
	Filename       string           `json:"filename"`
	FilePath       *string          `json:"filePath"` // Public URL, set after upload
	FileHash       *string          `json:"fileHash"` // SHA-256 hex, set after upload
	UserID         string           `json:"userID"`   // Owner
	Status         ProcessingStatus `json:"status"`
	OCRText        *string          `json:"ocrText"`
	ParsedData     *ParsedReceipt   `json:"parsedData"`
	JournalEntryID *string          `json:"journalEntryID"` // Set once the booking stage creates an entry
	ErrorMessage   *string          `json:"errorMessage"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// NewReceipt creates a receipt in PENDING, the pipeline's start state.
func NewReceipt(receiptID, filename, userID string, now time.Time) *Receipt {
	return &Receipt{
		ReceiptID: receiptID,
		Filename:  filename,
		UserID:    userID,
		Status:    ReceiptPending,
		CreatedAt: now,
	}
}

// Fail moves the receipt to a terminal failure status with a human-readable
// message.
func (r *Receipt) Fail(status ProcessingStatus, message string) {
	r.Status = status
	r.ErrorMessage = &message
}
