package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/acctlite/acctlite/internal/apperrors"
	"github.com/acctlite/acctlite/internal/core/domain"
	portsrepo "github.com/acctlite/acctlite/internal/core/ports/repositories"
	portssvc "github.com/acctlite/acctlite/internal/core/ports/services"
	"github.com/acctlite/acctlite/internal/dto"
	"github.com/acctlite/acctlite/internal/middleware"
)

// StageTimeouts bounds each external-service call made by the pipeline. A
// timeout is a stage failure, not a crash.
type StageTimeouts struct {
	Storage time.Duration
	Extract time.Duration
	Parse   time.Duration
}

// DefaultStageTimeouts returns the reference timeouts for pipeline stages.
func DefaultStageTimeouts() StageTimeouts {
	return StageTimeouts{
		Storage: 30 * time.Second,
		Extract: 30 * time.Second,
		Parse:   30 * time.Second,
	}
}

// receiptService drives a receipt through the five-stage ingestion pipeline,
// persisting the receipt after every stage transition. Each persistence step
// is its own committed unit of work, and no transaction is ever held open
// across an external-service call, so a crash between stages leaves the
// receipt durably at the last completed stage.
type receiptService struct {
	uowFactory portsrepo.UnitOfWorkFactory
	ledgerSvc  portssvc.LedgerSvcFacade
	storage    portssvc.BlobStorage
	extractor  portssvc.TextExtractor
	parser     portssvc.ReceiptParser
	policy     AutoPostPolicy
	timeouts   StageTimeouts
}

// NewReceiptService creates the pipeline orchestrator.
func NewReceiptService(
	uowFactory portsrepo.UnitOfWorkFactory,
	ledgerSvc portssvc.LedgerSvcFacade,
	storage portssvc.BlobStorage,
	extractor portssvc.TextExtractor,
	parser portssvc.ReceiptParser,
	policy AutoPostPolicy,
	timeouts StageTimeouts,
) portssvc.ReceiptSvcFacade {
	return &receiptService{
		uowFactory: uowFactory,
		ledgerSvc:  ledgerSvc,
		storage:    storage,
		extractor:  extractor,
		parser:     parser,
		policy:     policy,
		timeouts:   timeouts,
	}
}

var _ portssvc.ReceiptSvcFacade = (*receiptService)(nil)

// CreateReceipt persists a new receipt in PENDING. This runs synchronously at
// submission time so the caller always gets an identifier to poll.
func (s *receiptService) CreateReceipt(ctx context.Context, filename, userID string) (*domain.Receipt, error) {
	receipt := domain.NewReceipt(uuid.NewString(), filename, userID, time.Now().UTC())
	if err := s.saveReceipt(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// GetReceiptByID retrieves a receipt for status polling.
func (s *receiptService) GetReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback(ctx)

	receipt, err := uow.Receipts().FindReceiptByID(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to find receipt %s: %w", receiptID, err)
	}
	return receipt, nil
}

// ProcessReceipt runs the staged pipeline. Stage failures are converted into
// a terminal failure status on the receipt and never escape; the returned
// error is non-nil only when persisting the receipt itself failed.
func (s *receiptService) ProcessReceipt(ctx context.Context, receipt *domain.Receipt, image []byte) (*domain.Receipt, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("receipt_id", receipt.ReceiptID))
	ctx = middleware.ContextWithLogger(ctx, logger)

	// Upload to blob storage and compute the content hash.
	halted, err := s.runStage(ctx, receipt, domain.ReceiptOCRFailed, func(ctx context.Context) error {
		hash := sha256.Sum256(image)
		fileHash := hex.EncodeToString(hash[:])
		path := fmt.Sprintf("receipts/%s.jpg", receipt.ReceiptID)

		publicURL, err := callBounded(ctx, s.timeouts.Storage, func(ctx context.Context) (string, error) {
			return s.storage.Store(ctx, image, path)
		})
		if err != nil {
			return err
		}
		receipt.FilePath = &publicURL
		receipt.FileHash = &fileHash
		receipt.Status = domain.ReceiptOCRProcessing
		return nil
	})
	if halted || err != nil {
		return receipt, err
	}

	// Extract text. An empty result is a blank receipt, not an error.
	halted, err = s.runStage(ctx, receipt, domain.ReceiptOCRFailed, func(ctx context.Context) error {
		text, err := callBounded(ctx, s.timeouts.Extract, func(ctx context.Context) (string, error) {
			return s.extractor.Extract(ctx, image)
		})
		if err != nil {
			return err
		}
		receipt.OCRText = &text
		receipt.Status = domain.ReceiptOCRCompleted
		return nil
	})
	if halted || err != nil {
		return receipt, err
	}

	// Transition marker: the parsing stage is about to start.
	receipt.Status = domain.ReceiptAIParsing
	if err := s.saveReceipt(ctx, receipt); err != nil {
		return receipt, err
	}

	// Parse structured fields from the extracted text.
	halted, err = s.runStage(ctx, receipt, domain.ReceiptParsingFailed, func(ctx context.Context) error {
		parsed, err := callBounded(ctx, s.timeouts.Parse, func(ctx context.Context) (*domain.ParsedReceipt, error) {
			return s.parser.Parse(ctx, derefOrEmpty(receipt.OCRText))
		})
		if err != nil {
			return err
		}
		receipt.ParsedData = parsed
		receipt.Status = domain.ReceiptParsingCompleted
		return nil
	})
	if halted || err != nil {
		return receipt, err
	}

	// Book the journal entry and settle the terminal status.
	halted, err = s.runStage(ctx, receipt, domain.ReceiptJournalFailed, func(ctx context.Context) error {
		return s.bookJournalEntry(ctx, receipt)
	})
	if halted || err != nil {
		return receipt, err
	}

	logger.Info("Receipt pipeline finished", slog.String("status", string(receipt.Status)))
	return receipt, nil
}

// runStage executes one pipeline stage and persists the receipt on both
// paths. On stage failure the receipt moves to failStatus carrying the error
// message and the pipeline halts; only a persistence failure is returned as
// an error.
func (s *receiptService) runStage(ctx context.Context, receipt *domain.Receipt, failStatus domain.ProcessingStatus, run func(context.Context) error) (halted bool, err error) {
	if stageErr := run(ctx); stageErr != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Pipeline stage failed",
			slog.String("fail_status", string(failStatus)),
			slog.String("error", stageErr.Error()),
		)
		receipt.Fail(failStatus, stageErr.Error())
		if err := s.saveReceipt(ctx, receipt); err != nil {
			return true, err
		}
		return true, nil
	}
	if err := s.saveReceipt(ctx, receipt); err != nil {
		return true, err
	}
	return false, nil
}

// bookJournalEntry resolves the fixed expense/cash pair, creates a balanced
// entry for the parsed total and settles COMPLETED or PENDING_REVIEW per the
// auto-post policy. A receipt without a parsed total is routed to review
// without constructing any line: the line amount is never guessed.
func (s *receiptService) bookJournalEntry(ctx context.Context, receipt *domain.Receipt) error {
	parsed := receipt.ParsedData
	if parsed == nil || parsed.TotalAmount == nil {
		receipt.Status = domain.ReceiptPendingReview
		return nil
	}

	expenseAcc, cashAcc, err := s.resolveFixedAccounts(ctx)
	if err != nil {
		return err
	}

	merchant := "Unknown"
	if parsed.MerchantName != nil && *parsed.MerchantName != "" {
		merchant = *parsed.MerchantName
	}

	entryDate := time.Now().UTC()
	if parsed.TransactionDate != nil {
		if parsedDate, err := time.Parse("2006-01-02", *parsed.TransactionDate); err == nil {
			entryDate = parsedDate
		}
	}

	total := *parsed.TotalAmount
	req := dto.CreateJournalEntryRequest{
		EntryDate:   entryDate,
		Description: fmt.Sprintf("Receipt: %s", merchant),
		Lines: []dto.CreateJournalLineRequest{
			{AccountID: expenseAcc.AccountID, Direction: domain.Debit, Amount: total},
			{AccountID: cashAcc.AccountID, Direction: domain.Credit, Amount: total},
		},
	}

	entry, err := s.ledgerSvc.CreateJournalEntry(ctx, req, receipt.UserID)
	if err != nil {
		return err
	}
	receipt.JournalEntryID = &entry.EntryID

	if s.policy.ShouldAutoPost(parsed) {
		if _, err := s.ledgerSvc.PostJournalEntry(ctx, entry.EntryID); err != nil {
			return err
		}
		receipt.Status = domain.ReceiptCompleted
	} else {
		receipt.Status = domain.ReceiptPendingReview
	}
	return nil
}

// resolveFixedAccounts loads the seeded expense and cash accounts. Their
// absence is a deployment defect, reported distinctly from bad input.
func (s *receiptService) resolveFixedAccounts(ctx context.Context) (expense, cash *domain.Account, err error) {
	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback(ctx)

	expense, err = uow.Accounts().FindAccountByCode(ctx, domain.ExpenseAccountCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: expense account %s not found, run the account seed command", apperrors.ErrConfiguration, domain.ExpenseAccountCode)
		}
		return nil, nil, fmt.Errorf("failed to resolve expense account: %w", err)
	}
	cash, err = uow.Accounts().FindAccountByCode(ctx, domain.CashAccountCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: cash account %s not found, run the account seed command", apperrors.ErrConfiguration, domain.CashAccountCode)
		}
		return nil, nil, fmt.Errorf("failed to resolve cash account: %w", err)
	}
	return expense, cash, nil
}

// saveReceipt persists the receipt in its own unit of work: open, write,
// commit, close before anything else happens.
func (s *receiptService) saveReceipt(ctx context.Context, receipt *domain.Receipt) error {
	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback(ctx)

	if err := uow.Receipts().SaveReceipt(ctx, *receipt); err != nil {
		return fmt.Errorf("failed to save receipt %s: %w", receipt.ReceiptID, err)
	}
	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit receipt %s: %w", receipt.ReceiptID, err)
	}
	return nil
}

// callBounded runs an external-service call under a bounded timeout, mapping
// a deadline hit to the timeout error so it reads as a stage failure rather
// than a crash.
func callBounded[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := call(ctx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		var zero T
		return zero, fmt.Errorf("%w: no response after %s", apperrors.ErrTimeout, timeout)
	}
	return result, err
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
