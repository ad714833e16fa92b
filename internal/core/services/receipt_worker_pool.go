package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/acctlite/acctlite/internal/core/domain"
	portssvc "github.com/acctlite/acctlite/internal/core/ports/services"
	"github.com/acctlite/acctlite/internal/middleware"
)

// ErrPoolClosed is returned when submitting to a pool that is shutting down.
var ErrPoolClosed = errors.New("receipt worker pool is closed")

// receiptJob is one background pipeline run: a PENDING receipt plus its
// image bytes.
type receiptJob struct {
	receipt *domain.Receipt
	image   []byte
}

// ReceiptWorkerPool runs receipt pipelines in the background. Each receipt is
// submitted exactly once, so ordering is per-receipt sequential by
// construction. Shutdown drains in-flight runs; a run interrupted by process
// exit leaves its receipt at the last durably committed status.
type ReceiptWorkerPool struct {
	svc    portssvc.ReceiptSvcFacade
	logger *slog.Logger
	jobs   chan receiptJob
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewReceiptWorkerPool starts a pool with the given number of workers and
// queue capacity.
func NewReceiptWorkerPool(svc portssvc.ReceiptSvcFacade, workers, queueSize int, logger *slog.Logger) *ReceiptWorkerPool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	pool := &ReceiptWorkerPool{
		svc:    svc,
		logger: logger,
		jobs:   make(chan receiptJob, queueSize),
	}
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}
	return pool
}

// Submit queues a pipeline run. It blocks while the queue is full and fails
// once ctx is done or the pool is shutting down; the receipt then simply
// stays PENDING until resubmitted.
func (p *ReceiptWorkerPool) Submit(ctx context.Context, receipt *domain.Receipt, image []byte) error {
	// The read lock is held across the send so Shutdown cannot close the
	// channel while a Submit is parked on a full queue. Shutdown takes the
	// write lock and therefore waits for in-flight Submits to land; the
	// workers keep draining until then, so the send always resolves.
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- receiptJob{receipt: receipt, image: image}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting work and waits for in-flight runs to finish, up to
// ctx's deadline.
func (p *ReceiptWorkerPool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *ReceiptWorkerPool) worker(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		logger := p.logger.With(
			slog.Int("worker", id),
			slog.String("receipt_id", job.receipt.ReceiptID),
		)
		// Background runs are detached from the submitting request; they get
		// their own context carrying the worker-scoped logger.
		ctx := middleware.ContextWithLogger(context.Background(), logger)
		if _, err := p.svc.ProcessReceipt(ctx, job.receipt, job.image); err != nil {
			logger.Error("Receipt pipeline run could not persist its state", slog.String("error", err.Error()))
		}
	}
}
