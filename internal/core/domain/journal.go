package domain

import (
	"fmt"
	"time"

	"github.com/acctlite/acctlite/internal/apperrors"
	"github.com/shopspring/decimal"
)

// EntryStatus indicates the lifecycle state of a journal entry.
type EntryStatus string

const (
	Draft  EntryStatus = "DRAFT"
	Posted EntryStatus = "POSTED"
	Void   EntryStatus = "VOID"
)

// Direction indicates whether a journal line is a debit or a credit.
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// JournalLine represents a single line item within a journal entry, affecting
// one account. A line is always owned by exactly one entry.
type JournalLine struct {
	LineID      string          `json:"lineID"`      // Primary key (UUID)
	EntryID     string          `json:"entryID"`     // FK -> JournalEntry.EntryID
	AccountID   string          `json:"accountID"`   // FK -> Account.AccountID
	Direction   Direction       `json:"direction"`   // DEBIT or CREDIT
	Amount      decimal.Decimal `json:"amount"`      // Non-negative, 2 decimal places
	Description string          `json:"description"` // Nullable
}

// JournalEntry represents a single balanced financial event. An entry can only
// be obtained through NewJournalEntry, so no caller ever observes an entry
// that violates the double-entry invariant.
type JournalEntry struct {
	EntryID     string        `json:"entryID"`     // Primary key (UUID)
	EntryNumber string        `json:"entryNumber"` // Unique, e.g. JE-20250114-A3F1
	EntryDate   time.Time     `json:"entryDate"`   // Date the event occurred
	Description string        `json:"description"`
	Lines       []JournalLine `json:"lines"`
	Status      EntryStatus   `json:"status"` // DRAFT until posted
	CreatedBy   string        `json:"createdBy"`
	CreatedAt   time.Time     `json:"createdAt"`
	PostedAt    *time.Time    `json:"postedAt"` // Nil until posted
}

// NewJournalEntry constructs a DRAFT journal entry after validating the
// double-entry invariant over the given lines. It returns a validation error
// carrying the computed debit/credit totals when the lines do not balance.
func NewJournalEntry(entryID, entryNumber string, entryDate time.Time, description string, lines []JournalLine, createdBy string, now time.Time) (*JournalEntry, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].EntryID = entryID
	}
	return &JournalEntry{
		EntryID:     entryID,
		EntryNumber: entryNumber,
		EntryDate:   entryDate,
		Description: description,
		Lines:       lines,
		Status:      Draft,
		CreatedBy:   createdBy,
		CreatedAt:   now,
	}, nil
}

// ReplaceLines swaps the entry's line set, re-validating the double-entry
// invariant. The entry is left unchanged when validation fails.
func (e *JournalEntry) ReplaceLines(lines []JournalLine) error {
	if e.Status != Draft {
		return fmt.Errorf("%w: cannot modify lines of a %s entry", apperrors.ErrInvalidState, e.Status)
	}
	if err := validateLines(lines); err != nil {
		return err
	}
	for i := range lines {
		lines[i].EntryID = e.EntryID
	}
	e.Lines = lines
	return nil
}

// Post transitions a DRAFT entry to POSTED and stamps PostedAt. Posting a
// non-draft entry fails and leaves the entry unchanged.
func (e *JournalEntry) Post(now time.Time) error {
	if e.Status != Draft {
		return fmt.Errorf("%w: only draft entries can be posted, entry %s is %s", apperrors.ErrInvalidState, e.EntryID, e.Status)
	}
	e.Status = Posted
	e.PostedAt = &now
	return nil
}

// LineTotals computes the debit and credit sums over a line set.
func LineTotals(lines []JournalLine) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, line := range lines {
		if line.Direction == Debit {
			debits = debits.Add(line.Amount)
		} else {
			credits = credits.Add(line.Amount)
		}
	}
	return debits, credits
}

// validateLines enforces the double-entry invariant: at least two lines, no
// negative amounts, and debit total exactly equal to credit total.
func validateLines(lines []JournalLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("%w: journal entry must have at least two lines, got %d", apperrors.ErrValidation, len(lines))
	}
	for _, line := range lines {
		if line.Direction != Debit && line.Direction != Credit {
			return fmt.Errorf("%w: unknown line direction %q for account %s", apperrors.ErrValidation, line.Direction, line.AccountID)
		}
		if line.Amount.IsNegative() {
			return fmt.Errorf("%w: line amount must be non-negative for account %s", apperrors.ErrValidation, line.AccountID)
		}
	}
	debits, credits := LineTotals(lines)
	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits (%s) must equal credits (%s)", apperrors.ErrValidation, debits.String(), credits.String())
	}
	return nil
}
