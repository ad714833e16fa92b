package repositories

import (
	"context"

	"github.com/acctlite/acctlite/internal/core/domain"
)

// JournalEntryReader defines read operations for journal entry data
type JournalEntryReader interface {
	// FindEntryByID retrieves a journal entry together with its lines.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)
}

// JournalEntryWriter defines write operations for journal entry data
type JournalEntryWriter interface {
	// SaveEntry persists an entry and its lines with upsert semantics keyed by
	// EntryID. A uniqueness violation on EntryNumber surfaces as ErrDuplicate.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error
}

// JournalEntryRepository combines all journal-entry repository interfaces
type JournalEntryRepository interface {
	JournalEntryReader
	JournalEntryWriter
}
