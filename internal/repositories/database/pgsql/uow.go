package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/acctlite/acctlite/internal/core/ports/repositories"
)

// PgxUnitOfWorkFactory begins units of work backed by pgx transactions.
type PgxUnitOfWorkFactory struct {
	pool *pgxpool.Pool
}

// NewPgxUnitOfWorkFactory creates a factory over the given pool.
func NewPgxUnitOfWorkFactory(pool *pgxpool.Pool) *PgxUnitOfWorkFactory {
	return &PgxUnitOfWorkFactory{pool: pool}
}

// Ensure PgxUnitOfWorkFactory implements portsrepo.UnitOfWorkFactory
var _ portsrepo.UnitOfWorkFactory = (*PgxUnitOfWorkFactory)(nil)

// Begin opens a transaction and wraps it in a unit of work whose repositories
// all run on that same transaction.
func (f *PgxUnitOfWorkFactory) Begin(ctx context.Context) (portsrepo.UnitOfWork, error) {
	tx, err := f.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &pgxUnitOfWork{
		tx:       tx,
		accounts: newPgxAccountRepository(tx),
		entries:  newPgxJournalEntryRepository(tx),
		receipts: newPgxReceiptRepository(tx),
	}, nil
}

type pgxUnitOfWork struct {
	tx       pgx.Tx
	accounts portsrepo.AccountRepository
	entries  portsrepo.JournalEntryRepository
	receipts portsrepo.ReceiptRepository
}

var _ portsrepo.UnitOfWork = (*pgxUnitOfWork)(nil)

func (u *pgxUnitOfWork) Accounts() portsrepo.AccountRepository {
	return u.accounts
}

func (u *pgxUnitOfWork) JournalEntries() portsrepo.JournalEntryRepository {
	return u.entries
}

func (u *pgxUnitOfWork) Receipts() portsrepo.ReceiptRepository {
	return u.receipts
}

// Commit makes all writes in this unit of work durable at once.
func (u *pgxUnitOfWork) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback discards all writes. Calling it after Commit is a no-op, which
// lets callers defer it unconditionally.
func (u *pgxUnitOfWork) Rollback(ctx context.Context) error {
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}
