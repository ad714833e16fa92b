package services_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/acctlite/acctlite/internal/apperrors"
	"github.com/acctlite/acctlite/internal/core/domain"
	portssvc "github.com/acctlite/acctlite/internal/core/ports/services"
	"github.com/acctlite/acctlite/internal/core/services"
)

// Stub collaborators with swappable behavior per test.
type stubStorage struct {
	fn func(ctx context.Context, data []byte, path string) (string, error)
}

func (s *stubStorage) Store(ctx context.Context, data []byte, path string) (string, error) {
	return s.fn(ctx, data, path)
}

type stubExtractor struct {
	fn func(ctx context.Context, image []byte) (string, error)
}

func (s *stubExtractor) Extract(ctx context.Context, image []byte) (string, error) {
	return s.fn(ctx, image)
}

type stubParser struct {
	fn func(ctx context.Context, text string) (*domain.ParsedReceipt, error)
}

func (s *stubParser) Parse(ctx context.Context, text string) (*domain.ParsedReceipt, error) {
	return s.fn(ctx, text)
}

func parsedWithTotal(merchant, total string) *domain.ParsedReceipt {
	amt, _ := decimal.NewFromString(total)
	return &domain.ParsedReceipt{
		MerchantName: &merchant,
		TotalAmount:  &amt,
	}
}

type ReceiptServiceTestSuite struct {
	suite.Suite
	store     *fakeStore
	storage   *stubStorage
	extractor *stubExtractor
	parser    *stubParser
	svc       portssvc.ReceiptSvcFacade
	image     []byte
}

func (s *ReceiptServiceTestSuite) SetupTest() {
	s.store = newFakeStore()
	s.store.addAccount(domain.Account{
		AccountID:   uuid.NewString(),
		Code:        domain.ExpenseAccountCode,
		Name:        "Expenses",
		AccountType: domain.Expense,
		IsActive:    true,
	})
	s.store.addAccount(domain.Account{
		AccountID:   uuid.NewString(),
		Code:        domain.CashAccountCode,
		Name:        "Cash",
		AccountType: domain.Asset,
		IsActive:    true,
	})

	s.image = []byte("jpeg bytes")
	s.storage = &stubStorage{fn: func(ctx context.Context, data []byte, path string) (string, error) {
		return "https://storage.example.com/" + path, nil
	}}
	s.extractor = &stubExtractor{fn: func(ctx context.Context, image []byte) (string, error) {
		return "BLUE BOTTLE COFFEE\nTOTAL $4.50", nil
	}}
	s.parser = &stubParser{fn: func(ctx context.Context, text string) (*domain.ParsedReceipt, error) {
		return parsedWithTotal("Blue Bottle Coffee", "4.50"), nil
	}}

	factory := &fakeUowFactory{store: s.store}
	s.svc = services.NewReceiptService(
		factory,
		services.NewLedgerService(factory),
		s.storage,
		s.extractor,
		s.parser,
		services.NewAutoPostPolicy(decimal.NewFromInt(1000)),
		services.StageTimeouts{Storage: time.Second, Extract: time.Second, Parse: 50 * time.Millisecond},
	)
}

func (s *ReceiptServiceTestSuite) newPendingReceipt() *domain.Receipt {
	receipt, err := s.svc.CreateReceipt(context.Background(), "coffee.jpg", "user-1")
	s.Require().NoError(err)
	s.Equal(domain.ReceiptPending, receipt.Status)
	return receipt
}

func (s *ReceiptServiceTestSuite) TestProcessReceipt_AutoPostsSmallTotal() {
	receipt := s.newPendingReceipt()

	processed, err := s.svc.ProcessReceipt(context.Background(), receipt, s.image)
	s.Require().NoError(err)
	s.Equal(domain.ReceiptCompleted, processed.Status)

	// Upload artifacts.
	s.Require().NotNil(processed.FilePath)
	s.Equal("https://storage.example.com/receipts/"+receipt.ReceiptID+".jpg", *processed.FilePath)
	hash := sha256.Sum256(s.image)
	s.Require().NotNil(processed.FileHash)
	s.Equal(hex.EncodeToString(hash[:]), *processed.FileHash)

	// Extraction and parsing artifacts.
	s.Require().NotNil(processed.OCRText)
	s.Contains(*processed.OCRText, "BLUE BOTTLE")
	s.Require().NotNil(processed.ParsedData)

	// Booked entry: debit expense, credit cash, posted.
	s.Require().NotNil(processed.JournalEntryID)
	entry, ok := s.store.entryByID(*processed.JournalEntryID)
	s.Require().True(ok)
	s.Equal(domain.Posted, entry.Status)
	s.Equal("Receipt: Blue Bottle Coffee", entry.Description)
	s.Require().Len(entry.Lines, 2)
	s.Equal(domain.Debit, entry.Lines[0].Direction)
	s.True(entry.Lines[0].Amount.Equal(decimal.NewFromFloat(4.50)))
	s.Equal(domain.Credit, entry.Lines[1].Direction)
	s.True(entry.Lines[1].Amount.Equal(decimal.NewFromFloat(4.50)))

	// Each stage transition was persisted, in order.
	s.Equal([]domain.ProcessingStatus{
		domain.ReceiptPending,
		domain.ReceiptOCRProcessing,
		domain.ReceiptOCRCompleted,
		domain.ReceiptAIParsing,
		domain.ReceiptParsingCompleted,
		domain.ReceiptCompleted,
	}, s.store.statusHistory)
}

func (s *ReceiptServiceTestSuite) TestProcessReceipt_LargeTotalGoesToReview() {
	s.parser.fn = func(ctx context.Context, text string) (*domain.ParsedReceipt, error) {
		return parsedWithTotal("Dell", "1000.00"), nil
	}
	receipt := s.newPendingReceipt()

	processed, err := s.svc.ProcessReceipt(context.Background(), receipt, s.image)
	s.Require().NoError(err)
	s.Equal(domain.ReceiptPendingReview, processed.Status)

	// The entry exists but stays DRAFT until a human posts it.
	s.Require().NotNil(processed.JournalEntryID)
	entry, ok := s.store.entryByID(*processed.JournalEntryID)
	s.Require().True(ok)
	s.Equal(domain.Draft, entry.Status)
}

func (s *ReceiptServiceTestSuite) TestProcessReceipt_JustUnderLimitAutoPosts() {
	s.parser.fn = func(ctx context.Context, text string) (*domain.ParsedReceipt, error) {
		return parsedWithTotal("Dell", "999.99"), nil
	}
	receipt := s.newPendingReceipt()

	processed, err := s.svc.ProcessReceipt(context.Background(), receipt, s.image)
	s.Require().NoError(err)
	s.Equal(domain.ReceiptCompleted, processed.Status)
}

func (s *ReceiptServiceTestSuite) TestProcessReceipt_MissingTotalSkipsBooking() {
	s.parser.fn = func(ctx context.Context, text string) (*domain.ParsedReceipt, error) {
		merchant := "Unknown"
		return &domain.ParsedReceipt{MerchantName: &merchant}, nil
	}
	receipt := s.newPendingReceipt()

	processed, err := s.svc.ProcessReceipt(context.Background(), receipt, s.image)
	s.Require().NoError(err)
	s.Equal(domain.ReceiptPendingReview, processed.Status)
	s.Nil(processed.JournalEntryID, "no entry may be booked without a total")
	s.Zero(s.store.entryCount())
}

func (s *ReceiptServiceTestSuite) TestProcessReceipt_StorageFailure() {
	s.storage.fn = func(ctx context.Context, data []byte, path string) (string, error) {
		return "", errors.New("bucket unavailable")
	}
	receipt := s.newPendingReceipt()

	processed, err := s.svc.ProcessReceipt(context.Background(), receipt, s.image)
	s.Require().NoError(err)
	s.Equal(domain.ReceiptOCRFailed, processed.Status)
	s.Require().NotNil(processed.ErrorMessage)
	s.Contains(*processed.ErrorMessage, "bucket unavailable")
	s.Nil(processed.FilePath)

	stored, _ := s.store.receiptByID(receipt.ReceiptID)
	s.Equal(domain.ReceiptOCRFailed, stored.Status, "failure must be persisted")
}

func (s *ReceiptServiceTestSuite) TestProcessReceipt_OCRFailure() {
	s.extractor.fn = func(ctx context.Context, image []byte) (string, error) {
		return "", errors.New("ocr exploded")
	}
	receipt := s.newPendingReceipt()

	processed, err := s.svc.ProcessReceipt(context.Background(), receipt, s.image)
	s.Require().NoError(err)
	s.Equal(domain.ReceiptOCRFailed, processed.Status)
	s.Require().NotNil(processed.ErrorMessage)
	s.Contains(*processed.ErrorMessage, "ocr exploded")
	s.Zero(s.store.entryCount())
}

func (s *ReceiptServiceTestSuite) TestProcessReceipt_EmptyOCRTextIsNotAFailure() {
	s.extractor.fn = func(ctx context.Context, image []byte) (string, error) {
		return "", nil
	}
	s.parser.fn = func(ctx context.Context, text string) (*domain.ParsedReceipt, error) {
		s.Equal("", text)
		merchant := "Unknown"
		return &domain.ParsedReceipt{MerchantName: &merchant}, nil
	}
	receipt := s.newPendingReceipt()

	processed, err := s.svc.ProcessReceipt(context.Background(), receipt, s.image)
	s.Require().NoError(err)
	s.Equal(domain.ReceiptPendingReview, processed.Status)
	s.Nil(processed.ErrorMessage)
}

func (s *ReceiptServiceTestSuite) TestProcessReceipt_ParserTimeout() {
	s.parser.fn = func(ctx context.Context, text string) (*domain.ParsedReceipt, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	receipt := s.newPendingReceipt()

	processed, err := s.svc.ProcessReceipt(context.Background(), receipt, s.image)
	s.Require().NoError(err)
	s.Equal(domain.ReceiptParsingFailed, processed.Status)
	s.Require().NotNil(processed.ErrorMessage)
	s.Contains(*processed.ErrorMessage, "no response after")
	s.Zero(s.store.entryCount())

	// Earlier stage results survive the failure.
	s.Require().NotNil(processed.OCRText)
}

func (s *ReceiptServiceTestSuite) TestProcessReceipt_MissingSeedAccounts() {
	s.store.accounts = map[string]domain.Account{}
	receipt := s.newPendingReceipt()

	processed, err := s.svc.ProcessReceipt(context.Background(), receipt, s.image)
	s.Require().NoError(err)
	s.Equal(domain.ReceiptJournalFailed, processed.Status)
	s.Require().NotNil(processed.ErrorMessage)
	s.Contains(*processed.ErrorMessage, "seed")
}

func (s *ReceiptServiceTestSuite) TestProcessReceipt_PersistenceFailureSurfaces() {
	receipt := s.newPendingReceipt()
	s.store.saveReceiptErr = errors.New("database gone")

	_, err := s.svc.ProcessReceipt(context.Background(), receipt, s.image)
	s.Require().Error(err)
	s.Contains(err.Error(), "database gone")
}

func (s *ReceiptServiceTestSuite) TestGetReceiptByID() {
	receipt := s.newPendingReceipt()

	got, err := s.svc.GetReceiptByID(context.Background(), receipt.ReceiptID)
	s.Require().NoError(err)
	s.Equal(receipt.ReceiptID, got.ReceiptID)

	_, err = s.svc.GetReceiptByID(context.Background(), uuid.NewString())
	s.Require().Error(err)
	s.True(errors.Is(err, apperrors.ErrNotFound))
}

func TestReceiptServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReceiptServiceTestSuite))
}
