package services

import (
	"context"
	"time"

	"schoolaccounts/internal/auth"
	"schoolaccounts/internal/core"
	"schoolaccounts/internal/ledger"
	"schoolaccounts/internal/log"
)

// studentHistoryLimit caps the per-student transaction listing.
const studentHistoryLimit = core.MaxLimit

// StudentService maintains the student roster. Students are never deleted;
// they are marked INACTIVE instead.
type StudentService struct {
	store       ledger.Store
	invalidator Invalidator
	policy      auth.Policy
	now         func() time.Time
}

// NewStudentService builds the roster service. Renames invalidate cached
// reports because they carry student names.
func NewStudentService(store ledger.Store, invalidator Invalidator) *StudentService {
	return &StudentService{
		store:       store,
		invalidator: invalidator,
		policy:      auth.DefaultPolicy,
		now:         time.Now,
	}
}

func (s *StudentService) List(ctx context.Context, f core.StudentFilter, caller *core.Caller) ([]core.Student, error) {
	if err := s.policy.Authorize(caller, auth.StudentRead); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.IsValid() {
		return nil, core.Validation("Invalid student status")
	}
	students, err := s.store.ListStudents(ctx, f)
	if err != nil {
		return nil, storeErr(ctx, log.ComponentStudent, "load students", err)
	}
	if students == nil {
		students = []core.Student{}
	}
	return students, nil
}

func (s *StudentService) Get(ctx context.Context, id string, caller *core.Caller) (core.Student, error) {
	if err := s.policy.Authorize(caller, auth.StudentRead); err != nil {
		return core.Student{}, err
	}
	return s.get(ctx, id)
}

func (s *StudentService) Create(ctx context.Context, in core.StudentInput, caller *core.Caller) (core.Student, error) {
	if err := s.policy.Authorize(caller, auth.StudentCreate); err != nil {
		return core.Student{}, err
	}
	st, err := in.Parse()
	if err != nil {
		return core.Student{}, err
	}
	now := s.now().UTC()
	st.ID = core.NewID()
	st.CreatedAt = now
	st.UpdatedAt = now
	if err := s.store.CreateStudent(ctx, st); err != nil {
		return core.Student{}, storeErr(ctx, log.ComponentStudent, "create student", err)
	}
	log.FromContext(ctx).WithComponent(log.ComponentStudent).InfoContext(ctx, "Student created",
		log.FieldStudentID, st.ID, "class", st.Class)
	return st, nil
}

func (s *StudentService) Update(ctx context.Context, id string, in core.StudentInput, caller *core.Caller) (core.Student, error) {
	if err := s.policy.Authorize(caller, auth.StudentUpdate); err != nil {
		return core.Student{}, err
	}
	st, err := in.Parse()
	if err != nil {
		return core.Student{}, err
	}
	current, err := s.get(ctx, id)
	if err != nil {
		return core.Student{}, err
	}
	current.Name = st.Name
	current.Class = st.Class
	current.RollNo = st.RollNo
	current.Status = st.Status
	current.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateStudent(ctx, current); err != nil {
		return core.Student{}, storeErr(ctx, log.ComponentStudent, "update student", err)
	}
	invalidate(s.invalidator)
	return current, nil
}

// Transactions returns the student's non-voided transactions, newest date first.
func (s *StudentService) Transactions(ctx context.Context, id string, caller *core.Caller) ([]core.TransactionDetail, error) {
	if err := s.policy.Authorize(caller, auth.StudentRead); err != nil {
		return nil, err
	}
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	items, _, err := s.store.ListTransactions(ctx,
		core.TransactionFilter{StudentID: id},
		core.PageRequest{Page: 1, Limit: studentHistoryLimit})
	if err != nil {
		return nil, storeErr(ctx, log.ComponentStudent, "load student transactions", err)
	}
	if items == nil {
		items = []core.TransactionDetail{}
	}
	return items, nil
}

func (s *StudentService) get(ctx context.Context, id string) (core.Student, error) {
	if !core.IsUUID(id) {
		return core.Student{}, core.NotFound("Student not found")
	}
	st, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return core.Student{}, storeErr(ctx, log.ComponentStudent, "load student", err)
	}
	return st, nil
}
