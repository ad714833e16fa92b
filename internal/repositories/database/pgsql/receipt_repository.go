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

type PgxReceiptRepository struct {
	db DBTX
}

// newPgxReceiptRepository creates a new repository for receipt data.
func newPgxReceiptRepository(db DBTX) portsrepo.ReceiptRepository {
	return &PgxReceiptRepository{db: db}
}

// Ensure PgxReceiptRepository implements portsrepo.ReceiptRepository
var _ portsrepo.ReceiptRepository = (*PgxReceiptRepository)(nil)

// SaveReceipt inserts a receipt or updates its pipeline state. The pipeline
// saves after every stage, so the upsert path is the common one.
func (r *PgxReceiptRepository) SaveReceipt(ctx context.Context, receipt domain.Receipt) error {
	modelReceipt, err := mapping.ToModelReceipt(receipt)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO receipts (receipt_id, filename, file_path, file_hash, user_id, status, ocr_text, parsed_data, journal_entry_id, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (receipt_id) DO UPDATE SET
			file_path = EXCLUDED.file_path,
			file_hash = EXCLUDED.file_hash,
			status = EXCLUDED.status,
			ocr_text = EXCLUDED.ocr_text,
			parsed_data = EXCLUDED.parsed_data,
			journal_entry_id = EXCLUDED.journal_entry_id,
			error_message = EXCLUDED.error_message;
	`
	var parsedData any
	if len(modelReceipt.ParsedData) > 0 {
		parsedData = modelReceipt.ParsedData
	}

	if _, err := r.db.Exec(ctx, query,
		modelReceipt.ReceiptID,
		modelReceipt.Filename,
		modelReceipt.FilePath,
		modelReceipt.FileHash,
		modelReceipt.UserID,
		modelReceipt.Status,
		modelReceipt.OCRText,
		parsedData,
		modelReceipt.JournalEntryID,
		modelReceipt.ErrorMessage,
		modelReceipt.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to save receipt %s: %w", modelReceipt.ReceiptID, err)
	}
	return nil
}

// FindReceiptByID retrieves a receipt by its ID.
func (r *PgxReceiptRepository) FindReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	query := `
		SELECT receipt_id, filename, file_path, file_hash, user_id, status, ocr_text, parsed_data, journal_entry_id, error_message, created_at
		FROM receipts
		WHERE receipt_id = $1;
	`
	var m models.Receipt
	err := r.db.QueryRow(ctx, query, receiptID).Scan(
		&m.ReceiptID,
		&m.Filename,
		&m.FilePath,
		&m.FileHash,
		&m.UserID,
		&m.Status,
		&m.OCRText,
		&m.ParsedData,
		&m.JournalEntryID,
		&m.ErrorMessage,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: receipt %s", apperrors.ErrNotFound, receiptID)
		}
		return nil, fmt.Errorf("failed to find receipt %s: %w", receiptID, err)
	}

	receipt, err := mapping.ToDomainReceipt(m)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}
