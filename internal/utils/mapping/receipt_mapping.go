package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/acctlite/acctlite/internal/core/domain"
	"github.com/acctlite/acctlite/internal/models"
)

// ToModelReceipt converts a domain Receipt to a model Receipt, serializing
// the parsed extraction result to JSON for the JSONB column.
func ToModelReceipt(d domain.Receipt) (models.Receipt, error) {
	var parsed []byte
	if d.ParsedData != nil {
		var err error
		parsed, err = json.Marshal(d.ParsedData)
		if err != nil {
			return models.Receipt{}, fmt.Errorf("failed to marshal parsed receipt data: %w", err)
		}
	}
	return models.Receipt{
		ReceiptID:      d.ReceiptID,
		Filename:       d.Filename,
		FilePath:       d.FilePath,
		FileHash:       d.FileHash,
		UserID:         d.UserID,
		Status:         models.ProcessingStatus(d.Status),
		OCRText:        d.OCRText,
		ParsedData:     parsed,
		JournalEntryID: d.JournalEntryID,
		ErrorMessage:   d.ErrorMessage,
		CreatedAt:      d.CreatedAt,
	}, nil
}

// ToDomainReceipt converts a model Receipt to a domain Receipt
func ToDomainReceipt(m models.Receipt) (domain.Receipt, error) {
	var parsed *domain.ParsedReceipt
	if len(m.ParsedData) > 0 {
		parsed = &domain.ParsedReceipt{}
		if err := json.Unmarshal(m.ParsedData, parsed); err != nil {
			return domain.Receipt{}, fmt.Errorf("failed to unmarshal parsed receipt data: %w", err)
		}
	}
	return domain.Receipt{
		ReceiptID:      m.ReceiptID,
		Filename:       m.Filename,
		FilePath:       m.FilePath,
		FileHash:       m.FileHash,
		UserID:         m.UserID,
		Status:         domain.ProcessingStatus(m.Status),
		OCRText:        m.OCRText,
		ParsedData:     parsed,
		JournalEntryID: m.JournalEntryID,
		ErrorMessage:   m.ErrorMessage,
		CreatedAt:      m.CreatedAt,
	}, nil
}
