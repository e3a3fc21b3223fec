package http

import (
	"net/http"

	"tracker/internal/core"
	"tracker/internal/services"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	v, err := s.views(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	body := transactionsBody{
		Version:      v.Version,
		Transactions: make([]transactionDTO, len(v.Transactions)),
		Totals: totalsDTO{
			Income:  core.FormatAmount(v.Totals.Income),
			Expense: core.FormatAmount(v.Totals.Expense),
			Net:     core.FormatAmount(v.Totals.Net),
		},
	}
	for i, tx := range v.Transactions {
		body.Transactions[i] = toTransactionDTO(tx)
	}
	NewJSONResponse().Body(body).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	v, err := s.views(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tx, ok := v.Transaction(id)
	if !ok {
		s.fail(w, r, &core.NotFoundError{Collection: core.CollectionTransactions, ID: id})
		return
	}
	NewJSONResponse().Body(toTransactionDTO(tx)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	form, err := req.form(s.location())
	if err != nil {
		_ = s.orch.Edit(services.TransactionSlot(""), form)
		s.fail(w, r, err)
		return
	}
	id, err := s.orch.CreateTransaction(r.Context(), form)
	s.mutated(w, r, http.StatusCreated, id, err)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	form, err := req.form(s.location())
	if err != nil {
		_ = s.orch.Edit(services.TransactionSlot(id), form)
		s.fail(w, r, err)
		return
	}
	err = s.orch.UpdateTransaction(r.Context(), id, form)
	s.mutated(w, r, http.StatusOK, id, err)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ok := confirmed(r)
	err := s.orch.DeleteTransaction(r.Context(), id, func(string, string) bool { return ok })
	s.mutated(w, r, http.StatusOK, id, err)
}
