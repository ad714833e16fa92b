package services_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acctlite/acctlite/internal/core/domain"
	"github.com/acctlite/acctlite/internal/core/services"
)

// stubReceiptSvc counts pipeline runs; only ProcessReceipt matters here.
// When gate is non-nil each run waits on it first, letting tests park a
// worker mid-job.
type stubReceiptSvc struct {
	mu        sync.Mutex
	processed []string
	gate      chan struct{}
}

func (s *stubReceiptSvc) CreateReceipt(ctx context.Context, filename, userID string) (*domain.Receipt, error) {
	return domain.NewReceipt("r", filename, userID, time.Now()), nil
}

func (s *stubReceiptSvc) ProcessReceipt(ctx context.Context, receipt *domain.Receipt, image []byte) (*domain.Receipt, error) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = append(s.processed, receipt.ReceiptID)
	return receipt, nil
}

func (s *stubReceiptSvc) GetReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	return nil, nil
}

func (s *stubReceiptSvc) processedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.processed)
}

func TestReceiptWorkerPool_ProcessesSubmittedJobs(t *testing.T) {
	svc := &stubReceiptSvc{}
	pool := services.NewReceiptWorkerPool(svc, 2, 8, slog.Default())

	for i := 0; i < 5; i++ {
		receipt := domain.NewReceipt(string(rune('a'+i)), "f.jpg", "user-1", time.Now())
		require.NoError(t, pool.Submit(context.Background(), receipt, []byte("img")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	assert.Equal(t, 5, svc.processedCount())
}

// A Submit parked on a full queue must never race a concurrent Shutdown into
// a send on the closed jobs channel. The single worker is held on a gate so
// the one-slot queue stays full while Shutdown runs.
func TestReceiptWorkerPool_ShutdownDuringBlockedSubmit(t *testing.T) {
	svc := &stubReceiptSvc{gate: make(chan struct{})}
	pool := services.NewReceiptWorkerPool(svc, 1, 1, slog.Default())

	// First job occupies the worker, second fills the queue.
	require.NoError(t, pool.Submit(context.Background(), domain.NewReceipt("r1", "f.jpg", "user-1", time.Now()), nil))
	require.NoError(t, pool.Submit(context.Background(), domain.NewReceipt("r2", "f.jpg", "user-1", time.Now()), nil))

	submitDone := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("Submit panicked: %v", r)
			}
		}()
		submitDone <- pool.Submit(context.Background(), domain.NewReceipt("r3", "f.jpg", "user-1", time.Now()), nil)
	}()
	// Let the third Submit park on the full queue before Shutdown starts.
	time.Sleep(50 * time.Millisecond)

	shutdownDone := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownDone <- pool.Shutdown(ctx)
	}()
	time.Sleep(50 * time.Millisecond)
	close(svc.gate)

	select {
	case err := <-submitDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Submit did not return")
	}
	select {
	case err := <-shutdownDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not return")
	}

	assert.Equal(t, 3, svc.processedCount())
}

func TestReceiptWorkerPool_RejectsAfterShutdown(t *testing.T) {
	svc := &stubReceiptSvc{}
	pool := services.NewReceiptWorkerPool(svc, 1, 1, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	err := pool.Submit(context.Background(), domain.NewReceipt("r1", "f.jpg", "user-1", time.Now()), nil)
	assert.ErrorIs(t, err, services.ErrPoolClosed)
}
