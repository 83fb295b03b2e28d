package services

import (
	"context"
	"time"

	"schoolaccounts/internal/auth"
	"schoolaccounts/internal/core"
	"schoolaccounts/internal/ledger"
	"schoolaccounts/internal/log"
)

// BalanceService records opening balances. The most recent one by date is
// the base of the running balance.
type BalanceService struct {
	store       ledger.BalanceStore
	invalidator Invalidator
	policy      auth.Policy
	now         func() time.Time
}

func NewBalanceService(store ledger.BalanceStore, invalidator Invalidator) *BalanceService {
	return &BalanceService{
		store:       store,
		invalidator: invalidator,
		policy:      auth.DefaultPolicy,
		now:         time.Now,
	}
}

// Set stores a new opening balance. Older balances are kept for audit.
func (s *BalanceService) Set(ctx context.Context, in core.OpeningBalanceInput, caller *core.Caller) (core.OpeningBalance, error) {
	if err := s.policy.Authorize(caller, auth.BalanceSet); err != nil {
		return core.OpeningBalance{}, err
	}
	b, err := in.Parse()
	if err != nil {
		return core.OpeningBalance{}, err
	}
	b.ID = core.NewID()
	b.CreatedAt = s.now().UTC()
	if err := s.store.SetOpeningBalance(ctx, b); err != nil {
		return core.OpeningBalance{}, storeErr(ctx, log.ComponentBalance, "save opening balance", err)
	}
	invalidate(s.invalidator)
	log.FromContext(ctx).WithComponent(log.ComponentBalance).InfoContext(ctx, "Opening balance set",
		log.FieldAmount, b.Amount.String(), log.FieldDate, b.Date.String())
	return b, nil
}

// Current returns the authoritative opening balance, or nil when none was set.
func (s *BalanceService) Current(ctx context.Context, caller *core.Caller) (*core.OpeningBalance, error) {
	if err := s.policy.Authorize(caller, auth.BalanceRead); err != nil {
		return nil, err
	}
	b, err := s.store.LatestOpeningBalance(ctx, nil)
	if err != nil {
		return nil, storeErr(ctx, log.ComponentBalance, "load opening balance", err)
	}
	return b, nil
}
