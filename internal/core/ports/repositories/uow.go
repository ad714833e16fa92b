package repositories

import "context"

// UnitOfWork is a scoped transactional session. The three repository handles
// share one underlying transaction; Commit makes all writes within the scope
// durable, Rollback discards them. Abandoning the scope without Commit is
// equivalent to Rollback. A UnitOfWork holds at most one transaction, and
// repositories obtained from it must not be used after Commit or Rollback.
type UnitOfWork interface {
	Accounts() AccountRepository
	JournalEntries() JournalEntryRepository
	Receipts() ReceiptRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFactory opens fresh transactional scopes. Each use-case invocation
// acquires its own scope; scopes are never shared across goroutines.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
