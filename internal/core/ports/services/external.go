package services

import (
	"context"

	"github.com/acctlite/acctlite/internal/core/domain"
)

// BlobStorage stores raw receipt images and hands back a public URL.
// Failures surface as apperrors.ErrStorage.
type BlobStorage interface {
	Store(ctx context.Context, data []byte, path string) (string, error)
}

// TextExtractor runs OCR over an image. An empty result is valid (a blank
// receipt), not an error. Failures surface as apperrors.ErrExtraction.
type TextExtractor interface {
	Extract(ctx context.Context, image []byte) (string, error)
}

// ReceiptParser derives structured fields from extracted receipt text. The
// implementation must normalize partially-formed model output into a
// best-effort ParsedReceipt rather than failing on recoverable garbage.
// Hard failures surface as apperrors.ErrParsing or apperrors.ErrTimeout.
type ReceiptParser interface {
	Parse(ctx context.Context, text string) (*domain.ParsedReceipt, error)
}
