package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/acctlite/acctlite/internal/apperrors"
	portssvc "github.com/acctlite/acctlite/internal/core/ports/services"
	"github.com/acctlite/acctlite/internal/core/services"
	"github.com/acctlite/acctlite/internal/dto"
	"github.com/acctlite/acctlite/internal/middleware"
)

// maxUploadBytes caps receipt images at 10MB.
const maxUploadBytes = 10 << 20

type receiptHandler struct {
	receiptService portssvc.ReceiptSvcFacade
	pool           *services.ReceiptWorkerPool
}

// registerReceiptRoutes wires the receipt upload and polling endpoints.
func registerReceiptRoutes(rg *gin.RouterGroup, receiptService portssvc.ReceiptSvcFacade, pool *services.ReceiptWorkerPool) {
	h := &receiptHandler{receiptService: receiptService, pool: pool}

	// Uploads fan out into external OCR and parsing calls, so cap them per IP.
	rate, _ := limiter.NewRateFromFormatted("30-M")
	uploadLimiter := limiter.New(memory.NewStore(), rate)
	limit := middleware.RateLimit(uploadLimiter)

	receipts := rg.Group("/receipts")
	{
		receipts.POST("/upload", limit, h.uploadReceipt)
		receipts.POST("/upload-and-process", limit, h.uploadAndProcessReceipt)
		receipts.GET("/:receiptID", h.getReceipt)
	}
}

// uploadReceipt accepts an image, records the receipt and queues the pipeline
// in the background. The response arrives before processing starts.
func (h *receiptHandler) uploadReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	filename, image, ok := h.readImage(c)
	if !ok {
		return
	}

	receipt, err := h.receiptService.CreateReceipt(c.Request.Context(), filename, userID)
	if err != nil {
		logger.Error("Failed to create receipt", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create receipt"})
		return
	}

	if err := h.pool.Submit(c.Request.Context(), receipt, image); err != nil {
		// The receipt stays PENDING; the caller can resubmit later.
		logger.Error("Failed to queue receipt for processing", slog.String("error", err.Error()), slog.String("receipt_id", receipt.ReceiptID))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Processing queue unavailable"})
		return
	}

	logger.Info("Receipt accepted for processing", slog.String("receipt_id", receipt.ReceiptID))
	c.JSON(http.StatusAccepted, dto.UploadAcceptedResponse{
		ReceiptID: receipt.ReceiptID,
		Filename:  receipt.Filename,
		Status:    string(receipt.Status),
	})
}

// uploadAndProcessReceipt runs the whole pipeline before responding, for
// callers that prefer one round trip over polling.
func (h *receiptHandler) uploadAndProcessReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	filename, image, ok := h.readImage(c)
	if !ok {
		return
	}

	receipt, err := h.receiptService.CreateReceipt(c.Request.Context(), filename, userID)
	if err != nil {
		logger.Error("Failed to create receipt", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create receipt"})
		return
	}

	processed, err := h.receiptService.ProcessReceipt(c.Request.Context(), receipt, image)
	if err != nil {
		logger.Error("Failed to persist receipt pipeline state", slog.String("error", err.Error()), slog.String("receipt_id", receipt.ReceiptID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process receipt"})
		return
	}

	logger.Info("Receipt processed", slog.String("receipt_id", processed.ReceiptID), slog.String("status", string(processed.Status)))
	c.JSON(http.StatusOK, dto.ToReceiptResponse(processed))
}

func (h *receiptHandler) getReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	receiptID := c.Param("receiptID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	receipt, err := h.receiptService.GetReceiptByID(c.Request.Context(), receiptID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Receipt not found"})
			return
		}
		logger.Error("Failed to get receipt", slog.String("error", err.Error()), slog.String("receipt_id", receiptID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve receipt"})
		return
	}

	if receipt.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Receipt belongs to another user"})
		return
	}

	c.JSON(http.StatusOK, dto.ToReceiptResponse(receipt))
}

// readImage pulls the multipart "file" part, enforcing the image content type
// and size cap. It writes the error response itself when validation fails.
func (h *receiptHandler) readImage(c *gin.Context) (string, []byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload"})
		return "", nil, false
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be an image"})
		return "", nil, false
	}

	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds the 10MB limit"})
		return "", nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file upload"})
		return "", nil, false
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file upload"})
		return "", nil, false
	}
	if len(image) > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds the 10MB limit"})
		return "", nil, false
	}

	return fileHeader.Filename, image, true
}
