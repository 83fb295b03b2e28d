// Package ledger declares the store ports the services depend on.
package ledger

import (
	"context"

	"schoolaccounts/internal/core"
)

// Ports for outbound adapters. Implementations return core.NotFound for
// missing rows and core.Conflict for unique violations; any other error is
// treated as a transient store failure by the services.
type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
		// UpdateTransaction overwrites the mutable fields and version of t.ID.
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		// VoidTransaction marks id voided. It reports whether the row changed.
		VoidTransaction(ctx context.Context, id string) (bool, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		GetTransactionDetail(ctx context.Context, id string) (core.TransactionDetail, error)
		// ListTransactions returns one page ordered by date desc, created desc
		// together with the total count matching f.
		ListTransactions(ctx context.Context, f core.TransactionFilter, p core.PageRequest) ([]core.TransactionDetail, int, error)
		// RecentTransactions returns the newest created non-voided rows.
		RecentTransactions(ctx context.Context, limit int) ([]core.TransactionDetail, error)
		SumAmount(ctx context.Context, f core.TransactionFilter) (core.Money, error)
		SumByCategory(ctx context.Context, f core.TransactionFilter) ([]core.CategorySum, error)
		// CountByCategory counts every transaction referencing id, voided or not.
		CountByCategory(ctx context.Context, categoryID string) (int, error)
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) error
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id string) error
		GetCategory(ctx context.Context, id string) (core.Category, error)
		// ListCategories orders by type then name.
		ListCategories(ctx context.Context) ([]core.Category, error)
		CategoriesByIDs(ctx context.Context, ids []string) (map[string]core.Category, error)
	}

	StudentStore interface {
		CreateStudent(ctx context.Context, s core.Student) error
		UpdateStudent(ctx context.Context, s core.Student) error
		GetStudent(ctx context.Context, id string) (core.Student, error)
		// ListStudents orders by class then roll number.
		ListStudents(ctx context.Context, f core.StudentFilter) ([]core.Student, error)
	}

	BalanceStore interface {
		// LatestOpeningBalance returns the most recent balance dated on or
		// before asOf, or the most recent overall when asOf is nil. It
		// returns nil when none exists.
		LatestOpeningBalance(ctx context.Context, asOf *core.Date) (*core.OpeningBalance, error)
		SetOpeningBalance(ctx context.Context, b core.OpeningBalance) error
	}

	// SyncStore tracks which transactions still need mirroring. Every
	// create, update or void resets a row to pending.
	SyncStore interface {
		PendingSync(ctx context.Context, limit int) ([]SyncItem, error)
		// MarkSynced clears the pending flag only if the row is still at version.
		MarkSynced(ctx context.Context, id string, version int64) error
		MarkSyncError(ctx context.Context, id string) error
		// RetrySyncErrors moves every errored row back to pending and
		// reports how many moved.
		RetrySyncErrors(ctx context.Context) (int, error)
	}

	// Store is everything a backend provides.
	Store interface {
		TransactionStore
		CategoryStore
		StudentStore
		BalanceStore
		SyncStore
		Ping(ctx context.Context) error
		Close() error
	}
)

// Sync states stored alongside each transaction.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

// SyncItem is the minimal data needed to re-mirror a transaction.
type SyncItem struct {
	ID      string
	Version int64
}

// DefaultCategory is a category present in every fresh ledger.
type DefaultCategory struct {
	ID   string
	Name string
	Type core.TransactionType
}

// DefaultCategories mirrors the seed migration so every backend starts with
// the same identifiers.
var DefaultCategories = []DefaultCategory{
	{ID: "6b0f8a52-1c1e-4d7a-9a0e-000000000001", Name: "Tuition Fee", Type: core.Income},
	{ID: "6b0f8a52-1c1e-4d7a-9a0e-000000000002", Name: "Admission Fee", Type: core.Income},
	{ID: "6b0f8a52-1c1e-4d7a-9a0e-000000000003", Name: "Exam Fee", Type: core.Income},
	{ID: "6b0f8a52-1c1e-4d7a-9a0e-000000000004", Name: "Donation", Type: core.Income},
	{ID: "6b0f8a52-1c1e-4d7a-9a0e-000000000005", Name: "Salary", Type: core.Expense},
	{ID: "6b0f8a52-1c1e-4d7a-9a0e-000000000006", Name: "Utilities", Type: core.Expense},
	{ID: "6b0f8a52-1c1e-4d7a-9a0e-000000000007", Name: "Maintenance", Type: core.Expense},
	{ID: "6b0f8a52-1c1e-4d7a-9a0e-000000000008", Name: "Stationery", Type: core.Expense},
}
