package dto

import (
	"time"

	"github.com/acctlite/acctlite/internal/core/domain"
)

// UploadAcceptedResponse is returned when a receipt upload is accepted for
// background processing. The caller polls the receipt endpoint for progress.
type UploadAcceptedResponse struct {
	ReceiptID string `json:"receiptID"`
	Filename  string `json:"filename"`
	Status    string `json:"status"`
}

// ReceiptResponse defines the data returned for a receipt and its pipeline state.
type ReceiptResponse struct {
	ReceiptID      string                `json:"receiptID"`
	Filename       string                `json:"filename"`
	FilePath       *string               `json:"filePath,omitempty"`
	Status         string                `json:"status"`
	OCRText        *string               `json:"ocrText,omitempty"`
	ParsedData     *domain.ParsedReceipt `json:"parsedData,omitempty"`
	JournalEntryID *string               `json:"journalEntryID,omitempty"`
	ErrorMessage   *string               `json:"errorMessage,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
}

// ToReceiptResponse converts a domain.Receipt to its response DTO.
func ToReceiptResponse(r *domain.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ReceiptID:      r.ReceiptID,
		Filename:       r.Filename,
		FilePath:       r.FilePath,
		Status:         string(r.Status),
		OCRText:        r.OCRText,
		ParsedData:     r.ParsedData,
		JournalEntryID: r.JournalEntryID,
		ErrorMessage:   r.ErrorMessage,
		CreatedAt:      r.CreatedAt,
	}
}
