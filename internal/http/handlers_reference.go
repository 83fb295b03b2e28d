package http

import (
	"net/http"

	"schoolaccounts/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Categories.List(r.Context(), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(cats).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	c, err := s.svc.Categories.Create(r.Context(), p.CategoryInput(), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(c).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	c, err := s.svc.Categories.Update(r.Context(), pathID(r), p.CategoryInput(), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(c).Write(w)
}

// handleDeleteCategory refuses categories still referenced by transactions.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Categories.Delete(r.Context(), pathID(r), CallerFromContext(r.Context())); err != nil {
		FromError(r, err).Write(w)
		return
	}
	Success().Write(w)
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.svc.Students.List(r.Context(), ParseStudentFilter(r.URL.Query()), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(students).Write(w)
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	st, err := s.svc.Students.Create(r.Context(), p.StudentInput(), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(st).Write(w)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Students.Get(r.Context(), pathID(r), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(st).Write(w)
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	st, err := s.svc.Students.Update(r.Context(), pathID(r), p.StudentInput(), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(st).Write(w)
}

func (s *Server) handleStudentTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.svc.Students.Transactions(r.Context(), pathID(r), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(txns).Write(w)
}

// openingBalanceBody wraps the balance so "none set" encodes as null.
type openingBalanceBody struct {
	OpeningBalance *core.OpeningBalance `json:"openingBalance"`
}

func (s *Server) handleGetOpeningBalance(w http.ResponseWriter, r *http.Request) {
	ob, err := s.svc.Balances.Current(r.Context(), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(openingBalanceBody{OpeningBalance: ob}).Write(w)
}

func (s *Server) handleSetOpeningBalance(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	ob, err := s.svc.Balances.Set(r.Context(), p.OpeningBalanceInput(), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(openingBalanceBody{OpeningBalance: &ob}).Write(w)
}
