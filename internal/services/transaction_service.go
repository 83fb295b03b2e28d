package services

import (
	"context"
	"errors"
	"time"

	"schoolaccounts/internal/amqp"
	"schoolaccounts/internal/auth"
	"schoolaccounts/internal/core"
	"schoolaccounts/internal/ledger"
	"schoolaccounts/internal/log"
)

// TransactionService orchestrates ledger writes across the store, the read
// cache and the event bus.
type TransactionService struct {
	store       ledger.Store
	publisher   EventPublisher
	invalidator Invalidator
	policy      auth.Policy
	now         func() time.Time
}

// NewTransactionService wires the lifecycle manager. publisher and
// invalidator may be nil.
func NewTransactionService(store ledger.Store, publisher EventPublisher, invalidator Invalidator) *TransactionService {
	return &TransactionService{
		store:       store,
		publisher:   publisher,
		invalidator: invalidator,
		policy:      auth.DefaultPolicy,
		now:         time.Now,
	}
}

// Create records a new transaction on behalf of caller and returns its id.
func (s *TransactionService) Create(ctx context.Context, in core.TransactionInput, caller *core.Caller) (string, error) {
	if err := s.policy.Authorize(caller, auth.TransactionCreate); err != nil {
		return "", err
	}
	t, err := in.Parse()
	if err != nil {
		return "", err
	}
	if err := s.checkReferences(ctx, t); err != nil {
		return "", err
	}

	now := s.now().UTC()
	t.ID = core.NewID()
	t.CreatedByID = caller.ID
	t.CreatedByName = caller.Name
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return "", storeErr(ctx, log.ComponentTransaction, "create transaction", err)
	}
	s.afterWrite(ctx, log.OpCreate, amqp.EventCreated, t)
	return t.ID, nil
}

// Update overwrites the mutable fields of an existing transaction. Identity,
// creator, creation time and the void flag are preserved. Voided
// transactions are final.
func (s *TransactionService) Update(ctx context.Context, id string, in core.TransactionInput, caller *core.Caller) error {
	if err := s.policy.Authorize(caller, auth.TransactionUpdate); err != nil {
		return err
	}
	t, err := in.Parse()
	if err != nil {
		return err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if current.IsVoided {
		return core.Conflict("Voided transactions cannot be edited")
	}
	if err := s.checkReferences(ctx, t); err != nil {
		return err
	}

	current.Type = t.Type
	current.Date = t.Date
	current.Amount = t.Amount
	current.CategoryID = t.CategoryID
	current.StudentID = t.StudentID
	current.PaymentMethod = t.PaymentMethod
	current.ReferenceNumber = t.ReferenceNumber
	current.Description = t.Description
	current.Version++
	current.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateTransaction(ctx, current); err != nil {
		return storeErr(ctx, log.ComponentTransaction, "update transaction", err)
	}
	s.afterWrite(ctx, log.OpUpdate, amqp.EventUpdated, current)
	return nil
}

// Void marks a transaction as voided. Voiding twice succeeds and emits no
// second event.
func (s *TransactionService) Void(ctx context.Context, id string, caller *core.Caller) error {
	if err := s.policy.Authorize(caller, auth.TransactionVoid); err != nil {
		return err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if current.IsVoided {
		return nil
	}
	changed, err := s.store.VoidTransaction(ctx, id)
	if err != nil {
		return storeErr(ctx, log.ComponentTransaction, "void transaction", err)
	}
	if !changed {
		return nil
	}
	current.IsVoided = true
	current.Version++
	s.afterWrite(ctx, log.OpVoid, amqp.EventVoided, current)
	return nil
}

// Get returns one transaction with display names, voided or not.
func (s *TransactionService) Get(ctx context.Context, id string, caller *core.Caller) (core.TransactionDetail, error) {
	if err := s.policy.Authorize(caller, auth.TransactionRead); err != nil {
		return core.TransactionDetail{}, err
	}
	if !core.IsUUID(id) {
		return core.TransactionDetail{}, core.NotFound("Transaction not found")
	}
	d, err := s.store.GetTransactionDetail(ctx, id)
	if err != nil {
		return core.TransactionDetail{}, storeErr(ctx, log.ComponentTransaction, "load transaction", err)
	}
	return d, nil
}

// List returns one page of non-voided transactions matching f, newest first.
func (s *TransactionService) List(ctx context.Context, f core.TransactionFilter, p core.PageRequest, caller *core.Caller) (core.Page[core.TransactionDetail], error) {
	if err := s.policy.Authorize(caller, auth.TransactionRead); err != nil {
		return core.Page[core.TransactionDetail]{}, err
	}
	p, err := p.Normalize()
	if err != nil {
		return core.Page[core.TransactionDetail]{}, err
	}
	f.IncludeVoided = false

	items, total, err := s.store.ListTransactions(ctx, f, p)
	if err != nil {
		return core.Page[core.TransactionDetail]{}, storeErr(ctx, log.ComponentTransaction, "load transactions", err)
	}
	if items == nil {
		items = []core.TransactionDetail{}
	}
	return core.Page[core.TransactionDetail]{
		Items: items,
		Meta:  core.NewPageMeta(total, p.Page, p.Limit),
	}, nil
}

func (s *TransactionService) load(ctx context.Context, id string) (core.Transaction, error) {
	if !core.IsUUID(id) {
		return core.Transaction{}, core.NotFound("Transaction not found")
	}
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, storeErr(ctx, log.ComponentTransaction, "load transaction", err)
	}
	return t, nil
}

// checkReferences verifies that the category and optional student exist.
func (s *TransactionService) checkReferences(ctx context.Context, t core.Transaction) error {
	if _, err := s.store.GetCategory(ctx, t.CategoryID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Validation("Invalid category")
		}
		return storeErr(ctx, log.ComponentTransaction, "load category", err)
	}
	if t.StudentID == "" {
		return nil
	}
	if _, err := s.store.GetStudent(ctx, t.StudentID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Validation("Invalid student")
		}
		return storeErr(ctx, log.ComponentTransaction, "load student", err)
	}
	return nil
}

func (s *TransactionService) afterWrite(ctx context.Context, op string, kind amqp.EventKind, t core.Transaction) {
	invalidate(s.invalidator)
	log.NewStructuredLogger(log.FromContext(ctx)).LogTransaction(ctx, op,
		t.ID, string(t.Type), t.Amount.String(), t.Date.String(), t.CategoryID, t.Version)
	publish(ctx, s.publisher, amqp.NewLedgerEvent(kind, t.ID, t.Version))
}
