package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acctlite/acctlite/internal/apperrors"
	"github.com/acctlite/acctlite/internal/core/domain"
	portsrepo "github.com/acctlite/acctlite/internal/core/ports/repositories"
	portssvc "github.com/acctlite/acctlite/internal/core/ports/services"
	"github.com/acctlite/acctlite/internal/dto"
	"github.com/acctlite/acctlite/internal/middleware"
)

// maxEntryNumberAttempts bounds retries when the generated entry number
// collides with an existing one. Each attempt restarts its own transaction,
// so a failed attempt is never observable.
const maxEntryNumberAttempts = 3

// ledgerService implements the journal use cases over the unit of work.
type ledgerService struct {
	uowFactory portsrepo.UnitOfWorkFactory
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(uowFactory portsrepo.UnitOfWorkFactory) portssvc.LedgerSvcFacade {
	return &ledgerService{uowFactory: uowFactory}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// generateEntryNumber produces an entry number of the form
// JE-<UTC date>-<4 uppercase hex chars>.
func generateEntryNumber(now time.Time) string {
	u := uuid.New()
	suffix := strings.ToUpper(hex.EncodeToString(u[:2]))
	return fmt.Sprintf("JE-%s-%s", now.UTC().Format("20060102"), suffix)
}

// CreateJournalEntry builds the line set, constructs a balanced DRAFT entry
// and persists it inside a single transactional scope. A duplicate entry
// number is retried with a fresh number; any other failure rolls back.
func (s *ledgerService) CreateJournalEntry(ctx context.Context, req dto.CreateJournalEntryRequest, createdBy string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	var lastErr error
	for attempt := 0; attempt < maxEntryNumberAttempts; attempt++ {
		entry, err := s.createEntryOnce(ctx, req, createdBy, now)
		if err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				logger.Warn("Entry number collision, retrying with a new number",
					slog.Int("attempt", attempt+1), slog.String("error", err.Error()))
				lastErr = err
				continue
			}
			return nil, err
		}
		logger.Info("Journal entry created", slog.String("entry_id", entry.EntryID), slog.String("entry_number", entry.EntryNumber))
		return entry, nil
	}
	return nil, fmt.Errorf("could not allocate a unique entry number after %d attempts: %w", maxEntryNumberAttempts, lastErr)
}

// createEntryOnce runs one create attempt in its own unit of work.
func (s *ledgerService) createEntryOnce(ctx context.Context, req dto.CreateJournalEntryRequest, createdBy string, now time.Time) (*domain.JournalEntry, error) {
	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback(ctx)

	lines := make([]domain.JournalLine, len(req.Lines))
	for i, lineReq := range req.Lines {
		account, err := uow.Accounts().FindAccountByID(ctx, lineReq.AccountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, lineReq.AccountID)
			}
			return nil, fmt.Errorf("failed to resolve account %s: %w", lineReq.AccountID, err)
		}
		if !account.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, account.AccountID)
		}
		lines[i] = domain.JournalLine{
			LineID:      uuid.NewString(),
			AccountID:   account.AccountID,
			Direction:   lineReq.Direction,
			Amount:      lineReq.Amount,
			Description: lineReq.Description,
		}
	}

	entry, err := domain.NewJournalEntry(uuid.NewString(), generateEntryNumber(now), req.EntryDate, req.Description, lines, createdBy, now)
	if err != nil {
		return nil, err
	}

	if err := uow.JournalEntries().SaveEntry(ctx, *entry); err != nil {
		return nil, err
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit journal entry %s: %w", entry.EntryID, err)
	}
	return entry, nil
}

// PostJournalEntry transitions a DRAFT entry to POSTED exactly once, stamping
// PostedAt. Posting a non-draft entry fails with an invalid-state error and
// leaves the entry unchanged.
func (s *ledgerService) PostJournalEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback(ctx)

	entry, err := uow.JournalEntries().FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, entryID)
		}
		return nil, fmt.Errorf("failed to find journal entry %s: %w", entryID, err)
	}

	if err := entry.Post(time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := uow.JournalEntries().SaveEntry(ctx, *entry); err != nil {
		return nil, fmt.Errorf("failed to save posted entry %s: %w", entryID, err)
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit posting of entry %s: %w", entryID, err)
	}

	logger.Info("Journal entry posted", slog.String("entry_id", entry.EntryID), slog.String("entry_number", entry.EntryNumber))
	return entry, nil
}

// GetJournalEntryByID retrieves an entry with its lines.
func (s *ledgerService) GetJournalEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback(ctx)

	entry, err := uow.JournalEntries().FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find journal entry %s: %w", entryID, err)
	}
	return entry, nil
}

// ListAccounts lists ledger accounts, optionally filtered by type.
func (s *ledgerService) ListAccounts(ctx context.Context, accountType *domain.AccountType) ([]domain.Account, error) {
	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback(ctx)

	accounts, err := uow.Accounts().ListAccounts(ctx, accountType)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}
