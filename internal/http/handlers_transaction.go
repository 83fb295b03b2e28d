package http

import (
	"net/http"

	"schoolaccounts/internal/log"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	id, err := s.svc.Transactions.Create(r.Context(), p.TransactionInput(), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	s.countCreated()
	Created(id).Header("Location", "/api/transactions/"+id).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := ParseTransactionFilter(q)
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	page, err := ParsePageRequest(q)
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	result, err := s.svc.Transactions.List(r.Context(), f, page, CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(result).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Transactions.Get(r.Context(), pathID(r), CallerFromContext(r.Context()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(t).Write(w)
}

// handleUpdateTransaction replaces every editable field of a transaction.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	if err := s.svc.Transactions.Update(r.Context(), pathID(r), p.TransactionInput(), CallerFromContext(r.Context())); err != nil {
		FromError(r, err).Write(w)
		return
	}
	Success().Write(w)
}

// handleVoidTransaction marks a transaction voided. Voiding twice succeeds.
func (s *Server) handleVoidTransaction(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := s.svc.Transactions.Void(r.Context(), id, CallerFromContext(r.Context())); err != nil {
		FromError(r, err).Write(w)
		return
	}
	s.countVoided()
	log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).InfoContext(r.Context(), "Transaction voided via API",
		log.FieldTransactionID, id)
	Success().Write(w)
}
