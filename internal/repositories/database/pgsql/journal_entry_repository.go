package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/acctlite/acctlite/internal/apperrors"
	"github.com/acctlite/acctlite/internal/core/domain"
	portsrepo "github.com/acctlite/acctlite/internal/core/ports/repositories"
	"github.com/acctlite/acctlite/internal/models"
	"github.com/acctlite/acctlite/internal/utils/mapping"
)

type PgxJournalEntryRepository struct {
	db DBTX
}

// newPgxJournalEntryRepository creates a new repository for journal entries
// and their lines.
func newPgxJournalEntryRepository(db DBTX) portsrepo.JournalEntryRepository {
	return &PgxJournalEntryRepository{db: db}
}

// Ensure PgxJournalEntryRepository implements portsrepo.JournalEntryRepository
var _ portsrepo.JournalEntryRepository = (*PgxJournalEntryRepository)(nil)

// SaveEntry persists an entry and its lines. A new entry is inserted whole;
// saving an existing entry updates the header only, since lines are immutable
// after creation. A clash on entry_number surfaces as ErrDuplicate so callers
// can regenerate the number and retry.
func (r *PgxJournalEntryRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	modelEntry := mapping.ToModelJournalEntry(entry)

	entryQuery := `
		INSERT INTO journal_entries (entry_id, entry_number, entry_date, description, status, created_by, created_at, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (entry_id) DO UPDATE SET
			status = EXCLUDED.status,
			posted_at = EXCLUDED.posted_at;
	`
	_, err := r.db.Exec(ctx, entryQuery,
		modelEntry.EntryID,
		modelEntry.EntryNumber,
		modelEntry.EntryDate,
		modelEntry.Description,
		modelEntry.Status,
		modelEntry.CreatedBy,
		modelEntry.CreatedAt,
		modelEntry.PostedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: entry number %s already exists", apperrors.ErrDuplicate, modelEntry.EntryNumber)
		}
		return fmt.Errorf("failed to save journal entry %s: %w", modelEntry.EntryID, err)
	}

	// Lines are immutable once written; re-saving an entry leaves them alone.
	lineQuery := `
		INSERT INTO journal_lines (line_id, entry_id, account_id, direction, amount, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (line_id) DO NOTHING;
	`
	for _, line := range entry.Lines {
		modelLine := mapping.ToModelJournalLine(line)
		if _, err := r.db.Exec(ctx, lineQuery,
			modelLine.LineID,
			modelLine.EntryID,
			modelLine.AccountID,
			modelLine.Direction,
			modelLine.Amount,
			modelLine.Description,
		); err != nil {
			return fmt.Errorf("failed to save journal line %s: %w", modelLine.LineID, err)
		}
	}
	return nil
}

// FindEntryByID retrieves a journal entry with its lines.
func (r *PgxJournalEntryRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entryQuery := `
		SELECT entry_id, entry_number, entry_date, description, status, created_by, created_at, posted_at
		FROM journal_entries
		WHERE entry_id = $1;
	`
	var modelEntry models.JournalEntry
	err := r.db.QueryRow(ctx, entryQuery, entryID).Scan(
		&modelEntry.EntryID,
		&modelEntry.EntryNumber,
		&modelEntry.EntryDate,
		&modelEntry.Description,
		&modelEntry.Status,
		&modelEntry.CreatedBy,
		&modelEntry.CreatedAt,
		&modelEntry.PostedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, entryID)
		}
		return nil, fmt.Errorf("failed to find journal entry %s: %w", entryID, err)
	}

	lines, err := r.findLines(ctx, entryID)
	if err != nil {
		return nil, err
	}

	entry := mapping.ToDomainJournalEntry(modelEntry)
	entry.Lines = lines
	return &entry, nil
}

func (r *PgxJournalEntryRepository) findLines(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	query := `
		SELECT line_id, entry_id, account_id, direction, amount, description
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY line_id;
	`
	rows, err := r.db.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for entry %s: %w", entryID, err)
	}
	defer rows.Close()

	var modelLines []models.JournalLine
	for rows.Next() {
		var m models.JournalLine
		if err := rows.Scan(
			&m.LineID,
			&m.EntryID,
			&m.AccountID,
			&m.Direction,
			&m.Amount,
			&m.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan line row: %w", err)
		}
		modelLines = append(modelLines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate line rows: %w", err)
	}

	return mapping.ToDomainJournalLineSlice(modelLines), nil
}
