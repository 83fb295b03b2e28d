package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"schoolaccounts/internal/log"
)

// ReconcilerConfig holds configuration for the reconciliation loop.
type ReconcilerConfig struct {
	// PollInterval is how often to mirror pending rows (default: 5m)
	PollInterval time.Duration

	// RetryInterval is how often errored rows are moved back to pending (default: 1h)
	RetryInterval time.Duration
}

// DefaultReconcilerConfig returns sensible defaults
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		PollInterval:  5 * time.Minute,
		RetryInterval: 1 * time.Hour,
	}
}

// Reconciler periodically re-mirrors pending transactions so the sheet
// converges even when events are lost or the broker is down.
type Reconciler struct {
	worker *MirrorWorker
	store  Source
	config ReconcilerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReconciler(worker *MirrorWorker, store Source, config ReconcilerConfig) *Reconciler {
	defaults := DefaultReconcilerConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = defaults.RetryInterval
	}
	return &Reconciler{
		worker: worker,
		store:  store,
		config: config,
	}
}

// Start begins the reconciliation loop. Returns an error if already running.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("reconciler is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	log.FromContext(ctx).WithComponent(log.ComponentWorker).Info("Reconciler started",
		"poll_interval", r.config.PollInterval,
		"retry_interval", r.config.RetryInterval)
	return nil
}

// Stop signals the loop and waits for the current pass to finish.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.running = false
	r.mu.Unlock()

	close(stopCh)

	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)
	select {
	case <-doneCh:
		logger.Info("Reconciler stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.Warn("Reconciler stop timed out")
		return ctx.Err()
	}
}

func (r *Reconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// RunOnce retries errored rows and mirrors one pending batch.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	r.retryErrors(ctx)
	return r.worker.ProcessPending(ctx)
}

func (r *Reconciler) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	pollTicker := time.NewTicker(r.config.PollInterval)
	defer pollTicker.Stop()
	retryTicker := time.NewTicker(r.config.RetryInterval)
	defer retryTicker.Stop()

	r.processBatch(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			r.processBatch(ctx)
		case <-retryTicker.C:
			r.retryErrors(ctx)
		}
	}
}

func (r *Reconciler) processBatch(ctx context.Context) {
	if _, err := r.worker.ProcessPending(ctx); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentWorker).Error("Reconciliation pass failed", log.FieldError, err)
	}
}

func (r *Reconciler) retryErrors(ctx context.Context) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)
	n, err := r.store.RetrySyncErrors(ctx)
	if err != nil {
		logger.Error("Failed to reset errored rows", log.FieldError, err)
		return
	}
	if n > 0 {
		logger.Info("Errored rows queued for retry", "count", n)
	}
}
