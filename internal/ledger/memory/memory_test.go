package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"schoolaccounts/internal/core"
	"schoolaccounts/internal/ledger"
)

func addTxn(t *testing.T, s *Store, typ core.TransactionType, date core.Date, amount string, created time.Time) core.Transaction {
	t.Helper()
	cat := ledger.DefaultCategories[0].ID
	if typ == core.Expense {
		cat = ledger.DefaultCategories[4].ID
	}
	txn := core.Transaction{
		ID:            core.NewID(),
		Type:          typ,
		Date:          date,
		Amount:        core.MustParseMoney(amount),
		CategoryID:    cat,
		PaymentMethod: core.Cash,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	if err := s.CreateTransaction(context.Background(), txn); err != nil {
		t.Fatalf("create: %v", err)
	}
	return txn
}

func TestSumsExcludeVoided(t *testing.T) {
	ctx := context.Background()
	s := NewDefault()
	now := time.Now()
	addTxn(t, s, core.Income, core.NewDate(2026, 2, 1), "100.00", now)
	v := addTxn(t, s, core.Income, core.NewDate(2026, 2, 2), "999.00", now)
	addTxn(t, s, core.Expense, core.NewDate(2026, 2, 3), "40.00", now)

	changed, err := s.VoidTransaction(ctx, v.ID)
	if err != nil || !changed {
		t.Fatalf("void: changed=%v err=%v", changed, err)
	}
	changed, _ = s.VoidTransaction(ctx, v.ID)
	if changed {
		t.Fatalf("second void should report no change")
	}

	inc, _ := s.SumAmount(ctx, core.TransactionFilter{Type: core.Income})
	if inc.String() != "100.00" {
		t.Fatalf("income = %s", inc)
	}
	all, _ := s.SumAmount(ctx, core.TransactionFilter{Type: core.Income, IncludeVoided: true})
	if all.String() != "1099.00" {
		t.Fatalf("audit income = %s", all)
	}
	// Voided rows still block category deletion.
	n, _ := s.CountByCategory(ctx, ledger.DefaultCategories[0].ID)
	if n != 2 {
		t.Fatalf("count = %d", n)
	}
}

func TestListTransactionsOrderAndPaging(t *testing.T) {
	ctx := context.Background()
	s := NewDefault()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := addTxn(t, s, core.Income, core.NewDate(2026, 3, 1), "1", base)
	b := addTxn(t, s, core.Income, core.NewDate(2026, 3, 2), "2", base)
	c := addTxn(t, s, core.Income, core.NewDate(2026, 3, 2), "3", base.Add(time.Minute))

	items, total, err := s.ListTransactions(ctx, core.TransactionFilter{}, core.PageRequest{Page: 1, Limit: 2})
	if err != nil || total != 3 || len(items) != 2 {
		t.Fatalf("list: total=%d len=%d err=%v", total, len(items), err)
	}
	if items[0].ID != c.ID || items[1].ID != b.ID {
		t.Fatalf("unexpected order %s, %s", items[0].ID, items[1].ID)
	}
	items, _, _ = s.ListTransactions(ctx, core.TransactionFilter{}, core.PageRequest{Page: 2, Limit: 2})
	if len(items) != 1 || items[0].ID != a.ID {
		t.Fatalf("second page = %+v", items)
	}
	if items[0].CategoryName != "Tuition Fee" {
		t.Fatalf("detail not joined: %q", items[0].CategoryName)
	}
	items, _, _ = s.ListTransactions(ctx, core.TransactionFilter{}, core.PageRequest{Page: 5, Limit: 2})
	if len(items) != 0 {
		t.Fatalf("page past the end should be empty")
	}
}

func TestCategoryAndStudentUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewDefault()
	err := s.CreateCategory(ctx, core.Category{ID: core.NewID(), Name: "Tuition Fee", Type: core.Income})
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	st := core.Student{ID: core.NewID(), Name: "A", Class: "5", RollNo: "1", Status: core.StudentActive}
	if err := s.CreateStudent(ctx, st); err != nil {
		t.Fatalf("create student: %v", err)
	}
	dup := st
	dup.ID = core.NewID()
	if err := s.CreateStudent(ctx, dup); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	dup.Class = "6"
	if err := s.CreateStudent(ctx, dup); err != nil {
		t.Fatalf("same roll in another class is fine: %v", err)
	}
}

func TestLatestOpeningBalance(t *testing.T) {
	ctx := context.Background()
	s := NewDefault()
	if b, _ := s.LatestOpeningBalance(ctx, nil); b != nil {
		t.Fatalf("expected none")
	}
	_ = s.SetOpeningBalance(ctx, core.OpeningBalance{ID: "1", Amount: core.MustParseMoney("100"), Date: core.NewDate(2025, 1, 1)})
	_ = s.SetOpeningBalance(ctx, core.OpeningBalance{ID: "2", Amount: core.MustParseMoney("200"), Date: core.NewDate(2026, 1, 1)})

	b, _ := s.LatestOpeningBalance(ctx, nil)
	if b == nil || b.ID != "2" {
		t.Fatalf("latest = %+v", b)
	}
	asOf := core.NewDate(2025, 6, 1)
	b, _ = s.LatestOpeningBalance(ctx, &asOf)
	if b == nil || b.ID != "1" {
		t.Fatalf("as of mid 2025 = %+v", b)
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cats, _ := NewFromFiles(dir).ListCategories(ctx)
	if len(cats) != len(ledger.DefaultCategories) {
		t.Fatalf("expected defaults when file missing, got %d", len(cats))
	}

	content := "# header\nincome:Bus Fee\nEXPENSE:Fuel\nINCOME:Bus Fee\nbogus line\nREFUND:Nope\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cats, _ = NewFromFiles(dir).ListCategories(ctx)
	if len(cats) != 2 {
		t.Fatalf("unexpected cats: %+v", cats)
	}
	// Ordered by type then name: EXPENSE sorts before INCOME.
	if cats[0].Name != "Fuel" || cats[1].Name != "Bus Fee" {
		t.Fatalf("unexpected order: %+v", cats)
	}
}

func TestSyncTracking(t *testing.T) {
	ctx := context.Background()
	s := NewDefault()
	a := addTxn(t, s, core.Income, core.NewDate(2026, 1, 1), "10", time.Now())
	b := addTxn(t, s, core.Income, core.NewDate(2026, 1, 2), "20", time.Now())

	items, _ := s.PendingSync(ctx, 10)
	if len(items) != 2 || items[0].ID != a.ID || items[1].ID != b.ID {
		t.Fatalf("pending = %+v", items)
	}
	if err := s.MarkSynced(ctx, a.ID, 0); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	// A stale version leaves the row pending.
	_, _ = s.VoidTransaction(ctx, b.ID)
	_ = s.MarkSynced(ctx, b.ID, 0)

	items, _ = s.PendingSync(ctx, 10)
	if len(items) != 1 || items[0].ID != b.ID || items[0].Version != 1 {
		t.Fatalf("pending after sync = %+v", items)
	}

	_ = s.MarkSyncError(ctx, b.ID)
	if items, _ = s.PendingSync(ctx, 10); len(items) != 0 {
		t.Fatalf("errored rows are not pending: %+v", items)
	}
	if n, _ := s.RetrySyncErrors(ctx); n != 1 {
		t.Fatalf("retried %d rows, want 1", n)
	}
	if items, _ = s.PendingSync(ctx, 10); len(items) != 1 {
		t.Fatalf("pending after retry = %+v", items)
	}
}
