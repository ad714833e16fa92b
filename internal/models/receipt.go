package models

import "time"

// ProcessingStatus tracks a receipt through the ingestion pipeline.
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

// Receipt is a persisted receipt row. ParsedData holds the structured
// extraction result as JSON.
type Receipt struct {
	ReceiptID      string           `json:"receiptID"` // Primary Key (UUID)
	Filename       string           `json:"filename"`
	FilePath       *string          `json:"filePath"`
	FileHash       *string          `json:"fileHash"`
	UserID         string           `json:"userID"`
	Status         ProcessingStatus `json:"status"`
	OCRText        *string          `json:"ocrText"`
	ParsedData     []byte           `json:"parsedData"` // JSONB payload
	JournalEntryID *string          `json:"journalEntryID"`
	ErrorMessage   *string          `json:"errorMessage"`
	CreatedAt      time.Time        `json:"createdAt"`
}
