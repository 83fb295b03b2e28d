// Package memory is an in-process ledger store used for development and tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"schoolaccounts/internal/core"
	"schoolaccounts/internal/ledger"
)

type txnRow struct {
	core.Transaction
	seq  int
	sync string
}

type Store struct {
	mu       sync.Mutex
	seq      int
	txns     map[string]*txnRow
	cats     map[string]core.Category
	students map[string]core.Student
	balances []core.OpeningBalance
}

var _ ledger.Store = (*Store)(nil)

// New returns a store holding the given categories.
func New(cats []core.Category) *Store {
	s := &Store{
		txns:     make(map[string]*txnRow),
		cats:     make(map[string]core.Category),
		students: make(map[string]core.Student),
	}
	for _, c := range cats {
		if c.ID == "" {
			c.ID = core.NewID()
		}
		s.cats[c.ID] = c
	}
	return s
}

// NewDefault returns a store seeded with the default categories.
func NewDefault() *Store {
	cats := make([]core.Category, 0, len(ledger.DefaultCategories))
	for _, d := range ledger.DefaultCategories {
		cats = append(cats, core.Category{ID: d.ID, Name: d.Name, Type: d.Type})
	}
	return New(cats)
}

// NewFromFiles seeds categories from base/seed_categories.txt, one
// "TYPE:Name" per line. Missing or empty files fall back to the defaults.
func NewFromFiles(base string) *Store {
	var cats []core.Category
	seen := map[string]struct{}{}
	for _, line := range readLines(filepath.Join(base, "seed_categories.txt")) {
		typ, name, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		c, err := core.CategoryInput{Name: name, Type: strings.ToUpper(strings.TrimSpace(typ))}.Parse()
		if err != nil {
			continue
		}
		if _, dup := seen[c.Name]; dup {
			continue
		}
		seen[c.Name] = struct{}{}
		cats = append(cats, c)
	}
	if len(cats) == 0 {
		return NewDefault()
	}
	return New(cats)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[t.ID]; ok {
		return core.Conflict("Transaction already exists")
	}
	s.seq++
	s.txns[t.ID] = &txnRow{Transaction: t, seq: s.seq, sync: ledger.SyncPending}
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.txns[t.ID]
	if !ok {
		return core.NotFound("Transaction not found")
	}
	row.Type = t.Type
	row.Date = t.Date
	row.Amount = t.Amount
	row.CategoryID = t.CategoryID
	row.StudentID = t.StudentID
	row.PaymentMethod = t.PaymentMethod
	row.ReferenceNumber = t.ReferenceNumber
	row.Description = t.Description
	row.Version = t.Version
	row.UpdatedAt = t.UpdatedAt
	row.sync = ledger.SyncPending
	return nil
}

func (s *Store) VoidTransaction(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.txns[id]
	if !ok {
		return false, core.NotFound("Transaction not found")
	}
	if row.IsVoided {
		return false, nil
	}
	row.IsVoided = true
	row.Version++
	row.sync = ledger.SyncPending
	return true, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.txns[id]
	if !ok {
		return core.Transaction{}, core.NotFound("Transaction not found")
	}
	return row.Transaction, nil
}

func (s *Store) GetTransactionDetail(_ context.Context, id string) (core.TransactionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.txns[id]
	if !ok {
		return core.TransactionDetail{}, core.NotFound("Transaction not found")
	}
	return s.detail(row.Transaction), nil
}

func (s *Store) ListTransactions(_ context.Context, f core.TransactionFilter, p core.PageRequest) ([]core.TransactionDetail, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.filter(f)
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return newerFirst(a, b)
	})
	total := len(rows)
	start := min(p.Offset(), total)
	end := min(start+p.Limit, total)
	out := make([]core.TransactionDetail, 0, end-start)
	for _, r := range rows[start:end] {
		out = append(out, s.detail(r.Transaction))
	}
	return out, total, nil
}

func (s *Store) RecentTransactions(_ context.Context, limit int) ([]core.TransactionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.filter(core.TransactionFilter{})
	sort.Slice(rows, func(i, j int) bool { return newerFirst(rows[i], rows[j]) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]core.TransactionDetail, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.detail(r.Transaction))
	}
	return out, nil
}

func (s *Store) SumAmount(_ context.Context, f core.TransactionFilter) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total core.Money
	for _, r := range s.filter(f) {
		total = total.Add(r.Amount)
	}
	return total, nil
}

func (s *Store) SumByCategory(_ context.Context, f core.TransactionFilter) ([]core.CategorySum, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sums := map[string]core.Money{}
	var order []string
	for _, r := range s.filter(f) {
		if _, ok := sums[r.CategoryID]; !ok {
			order = append(order, r.CategoryID)
		}
		sums[r.CategoryID] = sums[r.CategoryID].Add(r.Amount)
	}
	out := make([]core.CategorySum, 0, len(order))
	for _, id := range order {
		out = append(out, core.CategorySum{CategoryID: id, Amount: sums[id]})
	}
	return out, nil
}

func (s *Store) CountByCategory(_ context.Context, categoryID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.txns {
		if r.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryNameTaken(c.Name, c.ID) {
		return core.Conflict("A category with this name already exists.")
	}
	s.cats[c.ID] = c
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.cats[c.ID]
	if !ok {
		return core.NotFound("Category not found")
	}
	if s.categoryNameTaken(c.Name, c.ID) {
		return core.Conflict("A category with this name already exists.")
	}
	old.Name, old.Type = c.Name, c.Type
	s.cats[c.ID] = old
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cats[id]; !ok {
		return core.NotFound("Category not found")
	}
	delete(s.cats, id)
	return nil
}

func (s *Store) GetCategory(_ context.Context, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cats[id]
	if !ok {
		return core.Category{}, core.NotFound("Category not found")
	}
	return c, nil
}

func (s *Store) ListCategories(context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.cats))
	for _, c := range s.cats {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) CategoriesByIDs(_ context.Context, ids []string) (map[string]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]core.Category, len(ids))
	for _, id := range ids {
		if c, ok := s.cats[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (s *Store) CreateStudent(_ context.Context, st core.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rollTaken(st) {
		return core.Conflict("A student with this roll number already exists in this class.")
	}
	s.students[st.ID] = st
	return nil
}

func (s *Store) UpdateStudent(_ context.Context, st core.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.students[st.ID]
	if !ok {
		return core.NotFound("Student not found")
	}
	if s.rollTaken(st) {
		return core.Conflict("A student with this roll number already exists in this class.")
	}
	st.CreatedAt = old.CreatedAt
	s.students[st.ID] = st
	return nil
}

func (s *Store) GetStudent(_ context.Context, id string) (core.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return core.Student{}, core.NotFound("Student not found")
	}
	return st, nil
}

func (s *Store) ListStudents(_ context.Context, f core.StudentFilter) ([]core.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []core.Student
	for _, st := range s.students {
		if f.Class != "" && st.Class != f.Class {
			continue
		}
		if f.Status != "" && st.Status != f.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(st.Name), search) &&
			!strings.Contains(strings.ToLower(st.RollNo), search) {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		return out[i].RollNo < out[j].RollNo
	})
	return out, nil
}

func (s *Store) LatestOpeningBalance(_ context.Context, asOf *core.Date) (*core.OpeningBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *core.OpeningBalance
	for i := range s.balances {
		b := s.balances[i]
		if asOf != nil && b.Date.After(*asOf) {
			continue
		}
		if best == nil || b.Date.After(best.Date) ||
			(b.Date.Equal(best.Date) && !b.CreatedAt.Before(best.CreatedAt)) {
			best = &b
		}
	}
	return best, nil
}

func (s *Store) SetOpeningBalance(_ context.Context, b core.OpeningBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = append(s.balances, b)
	return nil
}

func (s *Store) PendingSync(_ context.Context, limit int) ([]ledger.SyncItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []*txnRow
	for _, r := range s.txns {
		if r.sync == ledger.SyncPending {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]ledger.SyncItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, ledger.SyncItem{ID: r.ID, Version: r.Version})
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, id string, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.txns[id]
	if !ok {
		return core.NotFound("Transaction not found")
	}
	if row.Version == version {
		row.sync = ledger.SyncDone
	}
	return nil
}

func (s *Store) MarkSyncError(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.txns[id]
	if !ok {
		return core.NotFound("Transaction not found")
	}
	row.sync = ledger.SyncError
	return nil
}

func (s *Store) RetrySyncErrors(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.txns {
		if r.sync == ledger.SyncError {
			r.sync = ledger.SyncPending
			n++
		}
	}
	return n, nil
}

// filter returns the rows matching f. Callers hold s.mu.
func (s *Store) filter(f core.TransactionFilter) []*txnRow {
	var out []*txnRow
	for _, r := range s.txns {
		if r.IsVoided && !f.IncludeVoided {
			continue
		}
		if !f.Range.Contains(r.Date) {
			continue
		}
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if f.CategoryID != "" && r.CategoryID != f.CategoryID {
			continue
		}
		if f.StudentID != "" && r.StudentID != f.StudentID {
			continue
		}
		if f.PaymentMethod != "" && r.PaymentMethod != f.PaymentMethod {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *Store) detail(t core.Transaction) core.TransactionDetail {
	d := core.TransactionDetail{Transaction: t}
	if c, ok := s.cats[t.CategoryID]; ok {
		d.CategoryName, d.CategoryType = c.Name, c.Type
	}
	if st, ok := s.students[t.StudentID]; ok {
		d.StudentName, d.StudentClass = st.Name, st.Class
	}
	return d
}

func (s *Store) categoryNameTaken(name, exceptID string) bool {
	for id, c := range s.cats {
		if id != exceptID && c.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) rollTaken(st core.Student) bool {
	for id, o := range s.students {
		if id != st.ID && o.Class == st.Class && o.RollNo == st.RollNo {
			return true
		}
	}
	return false
}

func newerFirst(a, b *txnRow) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.seq > b.seq
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
