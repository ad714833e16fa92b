package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the lifecycle state of a journal entry.
type EntryStatus string

const (
	Draft  EntryStatus = "DRAFT"
	Posted EntryStatus = "POSTED"
	Void   EntryStatus = "VOID"
)

// Direction marks which side of the ledger a line sits on.
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// JournalEntry represents a single balanced financial event.
type JournalEntry struct {
	EntryID     string      `json:"entryID"`     // Primary Key (UUID)
	EntryNumber string      `json:"entryNumber"` // Unique human identifier, e.g. JE-20250101-0A1B
	EntryDate   time.Time   `json:"entryDate"`
	Description string      `json:"description"`
	Status      EntryStatus `json:"status"`
	CreatedBy   string      `json:"createdBy"`
	CreatedAt   time.Time   `json:"createdAt"`
	PostedAt    *time.Time  `json:"postedAt"` // Set when status transitions to POSTED
}

// JournalLine is one debit or credit belonging to a journal entry.
type JournalLine struct {
	LineID      string          `json:"lineID"` // Primary Key (UUID)
	EntryID     string          `json:"entryID"`
	AccountID   string          `json:"accountID"`
	Direction   Direction       `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}
