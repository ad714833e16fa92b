package services_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/acctlite/acctlite/internal/apperrors"
	"github.com/acctlite/acctlite/internal/core/domain"
	portsrepo "github.com/acctlite/acctlite/internal/core/ports/repositories"
)

// fakeStore is a shared in-memory backing store for fake units of work. The
// services open a fresh unit of work per operation, so the store itself is
// what carries state across them.
type fakeStore struct {
	mu sync.Mutex

	accounts     map[string]domain.Account      // by AccountID
	entries      map[string]domain.JournalEntry // by EntryID
	entryNumbers map[string]string              // EntryNumber -> EntryID, mirrors the unique index
	receipts     map[string]domain.Receipt      // by ReceiptID

	// statusHistory records the receipt status at each SaveReceipt call, in
	// order, so tests can assert the stage-by-stage persistence sequence.
	statusHistory []domain.ProcessingStatus

	// forcedEntryDuplicates makes the next N SaveEntry calls fail with
	// ErrDuplicate regardless of the entry number.
	forcedEntryDuplicates int

	saveReceiptErr error
	commits        int
	rollbacks      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:     make(map[string]domain.Account),
		entries:      make(map[string]domain.JournalEntry),
		entryNumbers: make(map[string]string),
		receipts:     make(map[string]domain.Receipt),
	}
}

func (s *fakeStore) addAccount(a domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.AccountID] = a
}

func (s *fakeStore) entryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *fakeStore) entryByID(id string) (domain.JournalEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

func (s *fakeStore) receiptByID(id string) (domain.Receipt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.receipts[id]
	return r, ok
}

// fakeUowFactory implements portsrepo.UnitOfWorkFactory over a fakeStore.
type fakeUowFactory struct {
	store *fakeStore
}

var _ portsrepo.UnitOfWorkFactory = (*fakeUowFactory)(nil)

func (f *fakeUowFactory) Begin(ctx context.Context) (portsrepo.UnitOfWork, error) {
	return &fakeUow{store: f.store}, nil
}

type fakeUow struct {
	store *fakeStore
}

var _ portsrepo.UnitOfWork = (*fakeUow)(nil)

func (u *fakeUow) Accounts() portsrepo.AccountRepository {
	return &fakeAccountRepo{store: u.store}
}

func (u *fakeUow) JournalEntries() portsrepo.JournalEntryRepository {
	return &fakeJournalRepo{store: u.store}
}

func (u *fakeUow) Receipts() portsrepo.ReceiptRepository {
	return &fakeReceiptRepo{store: u.store}
}

func (u *fakeUow) Commit(ctx context.Context) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	u.store.commits++
	return nil
}

func (u *fakeUow) Rollback(ctx context.Context) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	u.store.rollbacks++
	return nil
}

type fakeAccountRepo struct {
	store *fakeStore
}

func (r *fakeAccountRepo) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return &a, nil
}

func (r *fakeAccountRepo) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.accounts {
		if a.Code == code {
			a := a
			return &a, nil
		}
	}
	return nil, fmt.Errorf("%w: account with code %s", apperrors.ErrNotFound, code)
}

func (r *fakeAccountRepo) ListAccounts(ctx context.Context, accountType *domain.AccountType) ([]domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Account
	for _, a := range r.store.accounts {
		if accountType == nil || a.AccountType == *accountType {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) SaveAccount(ctx context.Context, account domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.accounts[account.AccountID] = account
	return nil
}

type fakeJournalRepo struct {
	store *fakeStore
}

func (r *fakeJournalRepo) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.entries[entry.EntryID]; !exists {
		if r.store.forcedEntryDuplicates > 0 {
			r.store.forcedEntryDuplicates--
			return fmt.Errorf("%w: entry number %s already exists", apperrors.ErrDuplicate, entry.EntryNumber)
		}
		if _, taken := r.store.entryNumbers[entry.EntryNumber]; taken {
			return fmt.Errorf("%w: entry number %s already exists", apperrors.ErrDuplicate, entry.EntryNumber)
		}
	}
	r.store.entries[entry.EntryID] = entry
	r.store.entryNumbers[entry.EntryNumber] = entry.EntryID
	return nil
}

func (r *fakeJournalRepo) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.entries[entryID]
	if !ok {
		return nil, fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, entryID)
	}
	return &e, nil
}

type fakeReceiptRepo struct {
	store *fakeStore
}

func (r *fakeReceiptRepo) SaveReceipt(ctx context.Context, receipt domain.Receipt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.saveReceiptErr != nil {
		return r.store.saveReceiptErr
	}
	r.store.receipts[receipt.ReceiptID] = receipt
	r.store.statusHistory = append(r.store.statusHistory, receipt.Status)
	return nil
}

func (r *fakeReceiptRepo) FindReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.receipts[receiptID]
	if !ok {
		return nil, fmt.Errorf("%w: receipt %s", apperrors.ErrNotFound, receiptID)
	}
	return &rec, nil
}
