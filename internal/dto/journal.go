package dto

import (
	"time"

	"github.com/acctlite/acctlite/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateJournalLineRequest is one line of a create-entry request.
type CreateJournalLineRequest struct {
	AccountID   string           `json:"accountID" binding:"required,uuid"`
	Direction   domain.Direction `json:"direction" binding:"required,direction"`
	Amount      decimal.Decimal  `json:"amount" binding:"required"`
	Description string           `json:"description"`
}

// CreateJournalEntryRequest is the payload for creating a draft journal entry.
type CreateJournalEntryRequest struct {
	EntryDate   time.Time                  `json:"entryDate" binding:"required"`
	Description string                     `json:"description" binding:"required"`
	Lines       []CreateJournalLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineID      string          `json:"lineID"`
	AccountID   string          `json:"accountID"`
	Direction   string          `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	EntryID     string                `json:"entryID"`
	EntryNumber string                `json:"entryNumber"`
	EntryDate   time.Time             `json:"entryDate"`
	Description string                `json:"description"`
	Status      string                `json:"status"`
	Lines       []JournalLineResponse `json:"lines"`
	CreatedBy   string                `json:"createdBy"`
	CreatedAt   time.Time             `json:"createdAt"`
	PostedAt    *time.Time            `json:"postedAt,omitempty"`
}

// ToJournalEntryResponse converts a domain.JournalEntry to its response DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, line := range e.Lines {
		lines[i] = JournalLineResponse{
			LineID:      line.LineID,
			AccountID:   line.AccountID,
			Direction:   string(line.Direction),
			Amount:      line.Amount,
			Description: line.Description,
		}
	}
	return JournalEntryResponse{
		EntryID:     e.EntryID,
		EntryNumber: e.EntryNumber,
		EntryDate:   e.EntryDate,
		Description: e.Description,
		Status:      string(e.Status),
		Lines:       lines,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		PostedAt:    e.PostedAt,
	}
}
