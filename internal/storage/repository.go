package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"schoolaccounts/internal/core"
	"schoolaccounts/internal/ledger"
)

// Repository implements ledger.Store on a SQL database.
type Repository struct {
	db      *sqlx.DB
	dialect Dialect
	sb      squirrel.StatementBuilderType
}

var _ ledger.Store = (*Repository)(nil)

// NewSQLiteRepository opens (creating if needed) the database file at dbPath
// and applies migrations.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	return open(SQLite, dsn)
}

// NewPostgresRepository connects to databaseURL and applies migrations.
func NewPostgresRepository(databaseURL string) (*Repository, error) {
	if databaseURL == "" {
		return nil, errors.New("database URL is required")
	}
	return open(Postgres, databaseURL)
}

func open(d Dialect, dsn string) (*Repository, error) {
	db, err := sqlx.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.Name, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if d.Name == SQLite.Name {
		// SQLite serialises writers; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:      db,
		dialect: d,
		sb:      squirrel.StatementBuilder.PlaceholderFormat(d.Placeholder),
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// transactionRow is the joined shape returned by detail queries.
type transactionRow struct {
	ID              string         `db:"id"`
	Type            string         `db:"type"`
	Date            string         `db:"txn_date"`
	AmountMinor     int64          `db:"amount_minor"`
	CategoryID      string         `db:"category_id"`
	StudentID       sql.NullString `db:"student_id"`
	PaymentMethod   string         `db:"payment_method"`
	ReferenceNumber string         `db:"reference_number"`
	Description     string         `db:"description"`
	IsVoided        bool           `db:"is_voided"`
	CreatedByID     string         `db:"created_by_id"`
	CreatedByName   string         `db:"created_by_name"`
	Version         int64          `db:"version"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	CategoryName    sql.NullString `db:"category_name"`
	CategoryType    sql.NullString `db:"category_type"`
	StudentName     sql.NullString `db:"student_name"`
	StudentClass    sql.NullString `db:"student_class"`
}

func (row transactionRow) toDetail() (core.TransactionDetail, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.TransactionDetail{}, fmt.Errorf("transaction %s has bad date %q: %w", row.ID, row.Date, err)
	}
	return core.TransactionDetail{
		Transaction: core.Transaction{
			ID:              row.ID,
			Type:            core.TransactionType(row.Type),
			Date:            date,
			Amount:          core.MoneyFromMinor(row.AmountMinor),
			CategoryID:      row.CategoryID,
			StudentID:       row.StudentID.String,
			PaymentMethod:   core.PaymentMethod(row.PaymentMethod),
			ReferenceNumber: row.ReferenceNumber,
			Description:     row.Description,
			IsVoided:        row.IsVoided,
			CreatedByID:     row.CreatedByID,
			CreatedByName:   row.CreatedByName,
			Version:         row.Version,
			CreatedAt:       row.CreatedAt,
			UpdatedAt:       row.UpdatedAt,
		},
		CategoryName: row.CategoryName.String,
		CategoryType: core.TransactionType(row.CategoryType.String),
		StudentName:  row.StudentName.String,
		StudentClass: row.StudentClass.String,
	}, nil
}

func (r *Repository) detailSelect() squirrel.SelectBuilder {
	return r.sb.Select(
		"t.id", "t.type", "t.txn_date", "t.amount_minor", "t.category_id", "t.student_id",
		"t.payment_method", "t.reference_number", "t.description", "t.is_voided",
		"t.created_by_id", "t.created_by_name", "t.version", "t.created_at", "t.updated_at",
		"c.name AS category_name", "c.type AS category_type",
		"s.name AS student_name", "s.class AS student_class",
	).
		From("transactions t").
		LeftJoin("categories c ON c.id = t.category_id").
		LeftJoin("students s ON s.id = t.student_id")
}

// applyFilter adds WHERE clauses for f against the "t" alias.
func applyFilter(q squirrel.SelectBuilder, f core.TransactionFilter) squirrel.SelectBuilder {
	if !f.IncludeVoided {
		q = q.Where(squirrel.Eq{"t.is_voided": false})
	}
	if !f.Range.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"t.txn_date": f.Range.From.String()})
	}
	if !f.Range.To.IsZero() {
		q = q.Where(squirrel.LtOrEq{"t.txn_date": f.Range.To.String()})
	}
	if f.Type != "" {
		q = q.Where(squirrel.Eq{"t.type": string(f.Type)})
	}
	if f.CategoryID != "" {
		q = q.Where(squirrel.Eq{"t.category_id": f.CategoryID})
	}
	if f.StudentID != "" {
		q = q.Where(squirrel.Eq{"t.student_id": f.StudentID})
	}
	if f.PaymentMethod != "" {
		q = q.Where(squirrel.Eq{"t.payment_method": string(f.PaymentMethod)})
	}
	return q
}

func (r *Repository) selectDetails(ctx context.Context, q squirrel.SelectBuilder) ([]core.TransactionDetail, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []transactionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	out := make([]core.TransactionDetail, 0, len(rows))
	for _, row := range rows {
		d, err := row.toDetail()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	query, args, err := r.sb.Insert("transactions").
		Columns("id", "type", "txn_date", "amount_minor", "category_id", "student_id",
			"payment_method", "reference_number", "description", "is_voided",
			"created_by_id", "created_by_name", "version", "sync_status", "created_at", "updated_at").
		Values(t.ID, string(t.Type), t.Date.String(), t.Amount.Minor(), t.CategoryID, nullable(t.StudentID),
			string(t.PaymentMethod), t.ReferenceNumber, t.Description, t.IsVoided,
			t.CreatedByID, t.CreatedByName, t.Version, ledger.SyncPending, t.CreatedAt.UTC(), t.UpdatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return core.Conflict("Transaction already exists")
		}
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved",
		"id", t.ID,
		"type", t.Type,
		"amount", t.Amount.String(),
		"date", t.Date.String())
	return nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	query, args, err := r.sb.Update("transactions").SetMap(map[string]any{
		"type":             string(t.Type),
		"txn_date":         t.Date.String(),
		"amount_minor":     t.Amount.Minor(),
		"category_id":      t.CategoryID,
		"student_id":       nullable(t.StudentID),
		"payment_method":   string(t.PaymentMethod),
		"reference_number": t.ReferenceNumber,
		"description":      t.Description,
		"version":          t.Version,
		"sync_status":      ledger.SyncPending,
		"updated_at":       t.UpdatedAt.UTC(),
	}).Where(squirrel.Eq{"id": t.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return r.execOne(ctx, "update transaction", "Transaction not found", query, args)
}

func (r *Repository) VoidTransaction(ctx context.Context, id string) (bool, error) {
	query, args, err := r.sb.Update("transactions").
		Set("is_voided", true).
		Set("version", squirrel.Expr("version + 1")).
		Set("sync_status", ledger.SyncPending).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id, "is_voided": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build void: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("void transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("void transaction: %w", err)
	}
	if n > 0 {
		return true, nil
	}
	// Either already voided or missing.
	if _, err := r.GetTransaction(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	d, err := r.GetTransactionDetail(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	return d.Transaction, nil
}

func (r *Repository) GetTransactionDetail(ctx context.Context, id string) (core.TransactionDetail, error) {
	query, args, err := r.detailSelect().Where(squirrel.Eq{"t.id": id}).ToSql()
	if err != nil {
		return core.TransactionDetail{}, fmt.Errorf("build query: %w", err)
	}
	var row transactionRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.TransactionDetail{}, core.NotFound("Transaction not found")
		}
		return core.TransactionDetail{}, fmt.Errorf("get transaction: %w", err)
	}
	return row.toDetail()
}

func (r *Repository) ListTransactions(ctx context.Context, f core.TransactionFilter, p core.PageRequest) ([]core.TransactionDetail, int, error) {
	countQuery, countArgs, err := applyFilter(r.sb.Select("COUNT(*)").From("transactions t"), f).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	q := applyFilter(r.detailSelect(), f).
		OrderBy("t.txn_date DESC", "t.created_at DESC", "t."+r.dialect.InsertOrder+" DESC").
		Limit(uint64(p.Limit)).
		Offset(uint64(p.Offset()))
	items, err := r.selectDetails(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Repository) RecentTransactions(ctx context.Context, limit int) ([]core.TransactionDetail, error) {
	q := applyFilter(r.detailSelect(), core.TransactionFilter{}).
		OrderBy("t.created_at DESC", "t."+r.dialect.InsertOrder+" DESC").
		Limit(uint64(limit))
	return r.selectDetails(ctx, q)
}

func (r *Repository) SumAmount(ctx context.Context, f core.TransactionFilter) (core.Money, error) {
	query, args, err := applyFilter(r.sb.Select("COALESCE(SUM(t.amount_minor), 0)").From("transactions t"), f).ToSql()
	if err != nil {
		return core.Money{}, fmt.Errorf("build sum: %w", err)
	}
	var minor int64
	if err := r.db.GetContext(ctx, &minor, query, args...); err != nil {
		return core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.MoneyFromMinor(minor), nil
}

func (r *Repository) SumByCategory(ctx context.Context, f core.TransactionFilter) ([]core.CategorySum, error) {
	query, args, err := applyFilter(
		r.sb.Select("t.category_id AS category_id", "COALESCE(SUM(t.amount_minor), 0) AS total").From("transactions t"), f).
		GroupBy("t.category_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build group sum: %w", err)
	}
	var rows []struct {
		CategoryID string `db:"category_id"`
		Total      int64  `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	out := make([]core.CategorySum, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.CategorySum{CategoryID: row.CategoryID, Amount: core.MoneyFromMinor(row.Total)})
	}
	return out, nil
}

func (r *Repository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	query, args, err := r.sb.Select("COUNT(*)").From("transactions").
		Where(squirrel.Eq{"category_id": categoryID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count category usage: %w", err)
	}
	return n, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) error {
	query, args, err := r.sb.Insert("categories").
		Columns("id", "name", "type", "created_at").
		Values(c.ID, c.Name, string(c.Type), c.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return core.Conflict("A category with this name already exists.")
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) error {
	query, args, err := r.sb.Update("categories").
		Set("name", c.Name).
		Set("type", string(c.Type)).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	err = r.execOne(ctx, "update category", "Category not found", query, args)
	if isUniqueViolation(err) {
		return core.Conflict("A category with this name already exists.")
	}
	return err
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	query, args, err := r.sb.Delete("categories").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	return r.execOne(ctx, "delete category", "Category not found", query, args)
}

func (r *Repository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	query, args, err := r.sb.Select("id", "name", "type", "created_at").From("categories").
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return core.Category{}, fmt.Errorf("build query: %w", err)
	}
	var c core.Category
	if err := r.db.GetContext(ctx, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, core.NotFound("Category not found")
		}
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	query, args, err := r.sb.Select("id", "name", "type", "created_at").From("categories").
		OrderBy("type", "name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []core.Category
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (r *Repository) CategoriesByIDs(ctx context.Context, ids []string) (map[string]core.Category, error) {
	out := make(map[string]core.Category, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := r.sb.Select("id", "name", "type", "created_at").From("categories").
		Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var cats []core.Category
	if err := r.db.SelectContext(ctx, &cats, query, args...); err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	for _, c := range cats {
		out[c.ID] = c
	}
	return out, nil
}

var studentColumns = []string{"id", "name", "class", "roll_no", "status", "created_at", "updated_at"}

func (r *Repository) CreateStudent(ctx context.Context, s core.Student) error {
	query, args, err := r.sb.Insert("students").
		Columns(studentColumns...).
		Values(s.ID, s.Name, s.Class, s.RollNo, string(s.Status), s.CreatedAt.UTC(), s.UpdatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return core.Conflict("A student with this roll number already exists in this class.")
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

func (r *Repository) UpdateStudent(ctx context.Context, s core.Student) error {
	query, args, err := r.sb.Update("students").SetMap(map[string]any{
		"name":       s.Name,
		"class":      s.Class,
		"roll_no":    s.RollNo,
		"status":     string(s.Status),
		"updated_at": s.UpdatedAt.UTC(),
	}).Where(squirrel.Eq{"id": s.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	err = r.execOne(ctx, "update student", "Student not found", query, args)
	if isUniqueViolation(err) {
		return core.Conflict("A student with this roll number already exists in this class.")
	}
	return err
}

func (r *Repository) GetStudent(ctx context.Context, id string) (core.Student, error) {
	query, args, err := r.sb.Select(studentColumns...).From("students").
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return core.Student{}, fmt.Errorf("build query: %w", err)
	}
	var s core.Student
	if err := r.db.GetContext(ctx, &s, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Student{}, core.NotFound("Student not found")
		}
		return core.Student{}, fmt.Errorf("get student: %w", err)
	}
	return s, nil
}

func (r *Repository) ListStudents(ctx context.Context, f core.StudentFilter) ([]core.Student, error) {
	q := r.sb.Select(studentColumns...).From("students")
	if f.Class != "" {
		q = q.Where(squirrel.Eq{"class": f.Class})
	}
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": string(f.Status)})
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		pattern := "%" + search + "%"
		q = q.Where(squirrel.Or{
			squirrel.Like{"LOWER(name)": pattern},
			squirrel.Like{"LOWER(roll_no)": pattern},
		})
	}
	query, args, err := q.OrderBy("class", "roll_no").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []core.Student
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return out, nil
}

type openingBalanceRow struct {
	ID          string    `db:"id"`
	AmountMinor int64     `db:"amount_minor"`
	Date        string    `db:"balance_date"`
	Note        string    `db:"note"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *Repository) LatestOpeningBalance(ctx context.Context, asOf *core.Date) (*core.OpeningBalance, error) {
	q := r.sb.Select("id", "amount_minor", "balance_date", "note", "created_at").
		From("opening_balances").
		OrderBy("balance_date DESC", "created_at DESC").
		Limit(1)
	if asOf != nil {
		q = q.Where(squirrel.LtOrEq{"balance_date": asOf.String()})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var row openingBalanceRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get opening balance: %w", err)
	}
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return nil, fmt.Errorf("opening balance %s has bad date %q: %w", row.ID, row.Date, err)
	}
	return &core.OpeningBalance{
		ID:        row.ID,
		Amount:    core.MoneyFromMinor(row.AmountMinor),
		Date:      date,
		Note:      row.Note,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (r *Repository) SetOpeningBalance(ctx context.Context, b core.OpeningBalance) error {
	query, args, err := r.sb.Insert("opening_balances").
		Columns("id", "amount_minor", "balance_date", "note", "created_at").
		Values(b.ID, b.Amount.Minor(), b.Date.String(), b.Note, b.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert opening balance: %w", err)
	}
	return nil
}

// PendingSync returns transactions that still need to be mirrored, oldest first.
func (r *Repository) PendingSync(ctx context.Context, limit int) ([]ledger.SyncItem, error) {
	query, args, err := r.sb.Select("id", "version").From("transactions").
		Where(squirrel.Eq{"sync_status": ledger.SyncPending}).
		OrderBy("created_at", r.dialect.InsertOrder).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []struct {
		ID      string `db:"id"`
		Version int64  `db:"version"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	out := make([]ledger.SyncItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, ledger.SyncItem{ID: row.ID, Version: row.Version})
	}
	return out, nil
}

// MarkSynced marks a transaction as mirrored if nothing changed it since.
func (r *Repository) MarkSynced(ctx context.Context, id string, version int64) error {
	query, args, err := r.sb.Update("transactions").
		Set("sync_status", ledger.SyncDone).
		Where(squirrel.Eq{"id": id, "version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.DebugContext(ctx, "Transaction marked as synced", "id", id, "version", version)
	return nil
}

// MarkSyncError marks a transaction as having sync errors.
func (r *Repository) MarkSyncError(ctx context.Context, id string) error {
	query, args, err := r.sb.Update("transactions").
		Set("sync_status", ledger.SyncError).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

// RetrySyncErrors resets errored transactions to pending.
func (r *Repository) RetrySyncErrors(ctx context.Context) (int, error) {
	query, args, err := r.sb.Update("transactions").
		Set("sync_status", ledger.SyncPending).
		Where(squirrel.Eq{"sync_status": ledger.SyncError}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry sync errors: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("retry sync errors: %w", err)
	}
	return int(n), nil
}

// execOne runs a statement that must touch exactly one row.
func (r *Repository) execOne(ctx context.Context, op, notFound, query string, args []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return core.NotFound(notFound)
	}
	return nil
}
