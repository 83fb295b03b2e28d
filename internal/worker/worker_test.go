package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolaccounts/internal/amqp"
	"schoolaccounts/internal/core"
	"schoolaccounts/internal/ledger"
	"schoolaccounts/internal/ledger/memory"
	sheetsmem "schoolaccounts/internal/sheets/memory"
)

// flakyMirror fails every upsert while down is set.
type flakyMirror struct {
	*sheetsmem.Mirror
	mu   sync.Mutex
	down bool
}

func (m *flakyMirror) UpsertTransaction(ctx context.Context, t core.TransactionDetail) (string, error) {
	m.mu.Lock()
	down := m.down
	m.mu.Unlock()
	if down {
		return "", errors.New("sheets quota exceeded")
	}
	return m.Mirror.UpsertTransaction(ctx, t)
}

func (m *flakyMirror) setDown(v bool) {
	m.mu.Lock()
	m.down = v
	m.mu.Unlock()
}

func newTxn(t *testing.T, s *memory.Store, amount string) core.Transaction {
	t.Helper()
	now := time.Now()
	txn := core.Transaction{
		ID:            core.NewID(),
		Type:          core.Income,
		Date:          core.NewDate(2026, 2, 1),
		Amount:        core.MustParseMoney(amount),
		CategoryID:    ledger.DefaultCategories[0].ID,
		PaymentMethod: core.Cash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, s.CreateTransaction(context.Background(), txn))
	return txn
}

func pendingIDs(t *testing.T, s *memory.Store) []string {
	t.Helper()
	items, err := s.PendingSync(context.Background(), 100)
	require.NoError(t, err)
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func TestHandleEvent_MirrorsAndMarksSynced(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDefault()
	mirror := sheetsmem.New()
	w := NewMirrorWorker(store, mirror, 10)

	txn := newTxn(t, store, "1500.50")
	require.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventCreated, txn.ID, 0)))

	row, ok := mirror.Row(txn.ID)
	require.True(t, ok)
	assert.Equal(t, "1500.50", row.Amount)
	assert.Equal(t, "Tuition Fee", row.Category)
	assert.Empty(t, pendingIDs(t, store))
}

func TestHandleEvent_SkipsStaleEvents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDefault()
	mirror := sheetsmem.New()
	w := NewMirrorWorker(store, mirror, 10)

	txn := newTxn(t, store, "10")
	changed, err := store.VoidTransaction(ctx, txn.ID)
	require.NoError(t, err)
	require.True(t, changed)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventCreated, txn.ID, 0)))
	assert.Equal(t, 0, mirror.Writes())

	require.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventVoided, txn.ID, 1)))
	row, ok := mirror.Row(txn.ID)
	require.True(t, ok)
	assert.Equal(t, "VOIDED", row.Status)
	assert.Equal(t, int64(1), row.Version)
}

func TestHandleEvent_UnknownTransactionIsDropped(t *testing.T) {
	w := NewMirrorWorker(memory.NewDefault(), sheetsmem.New(), 10)
	assert.NoError(t, w.HandleEvent(context.Background(), amqp.NewLedgerEvent(amqp.EventCreated, core.NewID(), 0)))
}

func TestHandleEvent_MirrorFailureMarksError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDefault()
	mirror := &flakyMirror{Mirror: sheetsmem.New(), down: true}
	w := NewMirrorWorker(store, mirror, 10)

	txn := newTxn(t, store, "10")
	err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventCreated, txn.ID, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets quota exceeded")
	// Errored rows leave the pending queue until retried.
	assert.Empty(t, pendingIDs(t, store))
}

func TestProcessPending(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDefault()
	mirror := sheetsmem.New()
	w := NewMirrorWorker(store, mirror, 2)

	a := newTxn(t, store, "1")
	b := newTxn(t, store, "2")
	c := newTxn(t, store, "3")

	n, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{c.ID}, pendingIDs(t, store))

	n, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	for _, id := range []string{a.ID, b.ID, c.ID} {
		_, ok := mirror.Row(id)
		assert.True(t, ok, "row %s should be mirrored", id)
	}

	n, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStartupSyncCheck_DrainsLargerBatch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDefault()
	mirror := sheetsmem.New()
	w := NewMirrorWorker(store, mirror, 1)
	for range 5 {
		newTxn(t, store, "5")
	}
	require.NoError(t, w.StartupSyncCheck(ctx))
	assert.Equal(t, 5, mirror.Writes())
	assert.Empty(t, pendingIDs(t, store))
}

func TestReconciler_RunOnceRetriesErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDefault()
	mirror := &flakyMirror{Mirror: sheetsmem.New(), down: true}
	w := NewMirrorWorker(store, mirror, 10)
	r := NewReconciler(w, store, ReconcilerConfig{})

	txn := newTxn(t, store, "42")
	n, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	mirror.setDown(false)
	n, err = r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok := mirror.Row(txn.ID)
	assert.True(t, ok)
}

func TestReconciler_Lifecycle(t *testing.T) {
	store := memory.NewDefault()
	mirror := sheetsmem.New()
	r := NewReconciler(NewMirrorWorker(store, mirror, 10), store, ReconcilerConfig{PollInterval: 10 * time.Millisecond})
	assert.Equal(t, DefaultReconcilerConfig().RetryInterval, r.config.RetryInterval)
	assert.False(t, r.IsRunning())

	txn := newTxn(t, store, "7")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Start(ctx))
	assert.True(t, r.IsRunning())
	assert.Error(t, r.Start(ctx), "second start should fail")

	require.Eventually(t, func() bool {
		_, ok := mirror.Row(txn.ID)
		return ok
	}, time.Second, 5*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, r.Stop(stopCtx))
	assert.False(t, r.IsRunning())
	assert.NoError(t, r.Stop(stopCtx), "stopping twice is a no-op")
}
