package services

import (
	"context"

	"github.com/acctlite/acctlite/internal/core/domain"
	"github.com/acctlite/acctlite/internal/dto"
)

// LedgerSvcFacade exposes the journal use cases and account lookups. Both
// write operations run inside a single transactional scope each: either the
// full state transition and its persistence succeed together, or nothing is
// observably changed.
type LedgerSvcFacade interface {
	// CreateJournalEntry validates the line set against the double-entry
	// invariant, generates a unique entry number and persists a DRAFT entry.
	CreateJournalEntry(ctx context.Context, req dto.CreateJournalEntryRequest, createdBy string) (*domain.JournalEntry, error)

	// PostJournalEntry transitions a DRAFT entry to POSTED exactly once.
	PostJournalEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// GetJournalEntryByID retrieves an entry with its lines.
	GetJournalEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListAccounts lists ledger accounts, optionally filtered by type.
	ListAccounts(ctx context.Context, accountType *domain.AccountType) ([]domain.Account, error)
}
